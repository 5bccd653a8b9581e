package lspserver

import (
	"path/filepath"
	"sort"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/cxxls/cxxls/internal/types"
)

type inactiveRegionsParams struct {
	URI             string      `json:"uri"`
	InactiveRegions []wireRange `json:"inactiveRegions"`
}

type semanticSymbol struct {
	StableID int         `json:"stableId"`
	Kind     int         `json:"kind"`
	Ranges   []wireRange `json:"ranges"`
}

type semanticHighlightParams struct {
	URI     string           `json:"uri"`
	Symbols []semanticSymbol `json:"symbols"`
}

// pathPassesFilters applies a whitelist/blacklist glob pair to path. An
// empty whitelist admits everything not blacklisted.
func pathPassesFilters(path string, whitelist, blacklist []string) bool {
	base := filepath.Base(path)
	matches := func(pattern string) bool {
		if ok, err := doublestar.Match(pattern, path); err == nil && ok {
			return true
		}
		ok, err := doublestar.Match(pattern, base)
		return err == nil && ok
	}
	for _, pattern := range blacklist {
		if matches(pattern) {
			return false
		}
	}
	if len(whitelist) == 0 {
		return true
	}
	for _, pattern := range whitelist {
		if matches(pattern) {
			return true
		}
	}
	return false
}

// onIndexApplied runs on the pipeline's QueryDB thread after each apply.
// Publishes that depend on indexed state (inactive regions, semantic
// highlighting) go out here, once QueryDB actually reflects the file.
func (s *Server) onIndexApplied(path string) {
	if _, open := s.working.Get(path); !open {
		return
	}
	// A buffer that drifted since this index round was enqueued would get
	// ranges for text the client is no longer showing; the apply for the
	// newer buffer is already in flight and will publish instead.
	if !s.working.UnchangedSinceIndex(path) {
		return
	}
	s.publishInactiveRegions(path)
	s.publishSemanticHighlighting(path)
}

func (s *Server) publishInactiveRegions(path string) {
	if !s.cfg.EmitInactiveRegions {
		return
	}
	fileID, ok := s.db.ResolveFile(path)
	if !ok {
		return
	}
	f, ok := s.db.GetFile(fileID)
	if !ok {
		return
	}
	regions := make([]wireRange, len(f.InactiveRegions))
	for i, r := range f.InactiveRegions {
		regions[i] = fromRange(r)
	}
	s.notify("$cquery/publishInactiveRegions", inactiveRegionsParams{
		URI:             s.uris.URIFor(path),
		InactiveRegions: regions,
	})
}

func (s *Server) publishSemanticHighlighting(path string) {
	if !s.cfg.Highlight.Enabled {
		return
	}
	if !pathPassesFilters(path, s.cfg.Highlight.Whitelist, s.cfg.Highlight.Blacklist) {
		return
	}
	fileID, ok := s.db.ResolveFile(path)
	if !ok {
		return
	}

	// Group this file's refs by entity, so each symbol publishes one entry
	// carrying a stable id plus every range it appears at.
	type symKey struct {
		kind types.SymbolKind
		id   types.QueryID
	}
	grouped := map[symKey][]wireRange{}
	var order []symKey
	for _, ref := range s.db.AllSymbols(fileID) {
		if ref.Kind == types.KindInvalid || ref.Kind == types.KindFile {
			continue
		}
		k := symKey{ref.Kind, ref.ID}
		if _, seen := grouped[k]; !seen {
			order = append(order, k)
		}
		grouped[k] = append(grouped[k], fromRange(ref.Range))
	}

	symbols := make([]semanticSymbol, 0, len(order))
	for _, k := range order {
		name := s.db.DetailedName(k.kind, k.id)
		if name == "" {
			continue
		}
		symbols = append(symbols, semanticSymbol{
			StableID: s.highlight.GetStableID(path, k.kind, name),
			Kind:     symbolKindLSP(k.kind),
			Ranges:   grouped[k],
		})
	}
	sort.SliceStable(symbols, func(i, j int) bool { return symbols[i].StableID < symbols[j].StableID })

	s.notify("$cquery/publishSemanticHighlighting", semanticHighlightParams{
		URI:     s.uris.URIFor(path),
		Symbols: symbols,
	})
}
