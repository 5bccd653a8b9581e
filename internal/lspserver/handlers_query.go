package lspserver

import (
	"encoding/json"
	"sort"

	"github.com/cxxls/cxxls/internal/debug"
	"github.com/cxxls/cxxls/internal/querydb"
	"github.com/cxxls/cxxls/internal/semscore"
	"github.com/cxxls/cxxls/internal/types"
)

// symbolAt resolves the entity referenced at pos within path, by scanning
// QueryDB's per-file ref list (AllSymbols) for the ref whose range contains
// pos, the only cross-reference QueryDB keeps a direct position index
// for.
func (s *Server) symbolAt(path string, pos types.Position) (types.SymbolKind, types.QueryID, bool) {
	fileID, ok := s.db.ResolveFile(path)
	if !ok {
		return types.KindInvalid, types.InvalidQueryID, false
	}
	for _, ref := range s.db.AllSymbols(fileID) {
		if ref.Range.Contains(pos) {
			return ref.Kind, ref.ID, true
		}
	}
	return types.KindInvalid, types.InvalidQueryID, false
}

func (s *Server) locationsForDefs(kind types.SymbolKind, id types.QueryID) []location {
	e, ok := s.db.GetEntity(kind, id)
	if !ok {
		return nil
	}
	out := make([]location, 0, len(e.Defs))
	for _, d := range e.Defs {
		f, ok := s.db.GetFile(d.File)
		if !ok {
			continue
		}
		out = append(out, location{URI: s.uris.URIFor(f.Path), Range: fromRange(d.Def.Spell)})
	}
	return out
}

func (s *Server) handleDefinition(id requestID, raw json.RawMessage) {
	var p textDocumentPositionParams
	if err := json.Unmarshal(raw, &p); err != nil {
		debug.LogLSP("definition: %v", err)
		return
	}
	path, ok := s.pathForURI(p.TextDocument.URI)
	if !ok {
		return
	}
	kind, symID, found := s.symbolAt(path, p.Position.toPosition())
	if !found {
		s.reply(id, []location{})
		return
	}
	s.reply(id, s.locationsForDefs(kind, symID))
}

// handleTypeDefinition answers only when the symbol under the cursor is
// itself a type; resolving "the type of this variable" would need a
// var→type edge QueryDB's Entity model doesn't carry (see DESIGN.md), so a
// variable or function under the cursor yields an empty result rather than
// a guess.
func (s *Server) handleTypeDefinition(id requestID, raw json.RawMessage) {
	var p textDocumentPositionParams
	if err := json.Unmarshal(raw, &p); err != nil {
		debug.LogLSP("typeDefinition: %v", err)
		return
	}
	path, ok := s.pathForURI(p.TextDocument.URI)
	if !ok {
		return
	}
	kind, symID, found := s.symbolAt(path, p.Position.toPosition())
	if !found || kind != types.KindType {
		s.reply(id, []location{})
		return
	}
	s.reply(id, s.locationsForDefs(kind, symID))
}

// handleImplementation answers a type's Derived set (its subclasses) or a
// function's Derived set (its overriders), the closest analogue QueryDB's
// edge model offers to "implementations of this symbol".
func (s *Server) handleImplementation(id requestID, raw json.RawMessage) {
	var p textDocumentPositionParams
	if err := json.Unmarshal(raw, &p); err != nil {
		debug.LogLSP("implementation: %v", err)
		return
	}
	path, ok := s.pathForURI(p.TextDocument.URI)
	if !ok {
		return
	}
	kind, symID, found := s.symbolAt(path, p.Position.toPosition())
	if !found {
		s.reply(id, []location{})
		return
	}
	e, ok := s.db.GetEntity(kind, symID)
	if !ok {
		s.reply(id, []location{})
		return
	}
	var out []location
	for _, d := range e.Derived {
		out = append(out, s.locationsForDefs(kind, d)...)
	}
	s.reply(id, out)
}

func (s *Server) handleReferences(id requestID, raw json.RawMessage) {
	var p textDocumentPositionParams
	if err := json.Unmarshal(raw, &p); err != nil {
		debug.LogLSP("references: %v", err)
		return
	}
	path, ok := s.pathForURI(p.TextDocument.URI)
	if !ok {
		return
	}
	kind, symID, found := s.symbolAt(path, p.Position.toPosition())
	if !found {
		s.reply(id, []location{})
		return
	}
	refs := s.db.References(kind, symID)
	if len(refs) > s.cfg.Xref.MaxNum {
		refs = refs[:s.cfg.Xref.MaxNum]
	}
	out := make([]location, 0, len(refs))
	for _, r := range refs {
		f, ok := s.db.GetFile(r.File)
		if !ok {
			continue
		}
		out = append(out, location{URI: s.uris.URIFor(f.Path), Range: fromRange(r.Range)})
	}
	s.reply(id, out)
}

func (s *Server) handleDocumentHighlight(id requestID, raw json.RawMessage) {
	var p textDocumentPositionParams
	if err := json.Unmarshal(raw, &p); err != nil {
		debug.LogLSP("documentHighlight: %v", err)
		return
	}
	path, ok := s.pathForURI(p.TextDocument.URI)
	if !ok {
		return
	}
	kind, symID, found := s.symbolAt(path, p.Position.toPosition())
	if !found {
		s.reply(id, []wireRange{})
		return
	}
	fileID, _ := s.db.ResolveFile(path)
	var out []wireRange
	for _, r := range s.db.References(kind, symID) {
		if r.File == fileID {
			out = append(out, fromRange(r.Range))
		}
	}
	s.reply(id, out)
}

func (s *Server) handleDocumentSymbol(id requestID, raw json.RawMessage) {
	var p struct {
		TextDocument textDocumentIdentifier `json:"textDocument"`
	}
	if err := json.Unmarshal(raw, &p); err != nil {
		debug.LogLSP("documentSymbol: %v", err)
		return
	}
	path, ok := s.pathForURI(p.TextDocument.URI)
	if !ok {
		return
	}
	fileID, ok := s.db.ResolveFile(path)
	if !ok {
		s.reply(id, []documentSymbol{})
		return
	}
	refs := s.db.AllSymbols(fileID)
	out := make([]documentSymbol, 0, len(refs))
	for _, r := range refs {
		if !r.Role.Has(types.RoleDefinition) {
			continue
		}
		name := s.db.DetailedName(r.Kind, r.ID)
		out = append(out, documentSymbol{
			Name:     name,
			Kind:     symbolKindLSP(r.Kind),
			Range:    fromRange(r.Range),
			SelRange: fromRange(r.Range),
		})
	}
	s.reply(id, out)
}

// handleDocumentLink reports one link per #include this TU resolved, per
// config.ShowDocumentLinksOnIncludes.
func (s *Server) handleDocumentLink(id requestID, raw json.RawMessage) {
	var p struct {
		TextDocument textDocumentIdentifier `json:"textDocument"`
	}
	if err := json.Unmarshal(raw, &p); err != nil {
		debug.LogLSP("documentLink: %v", err)
		return
	}
	if !s.cfg.ShowDocumentLinksOnIncludes {
		s.reply(id, []map[string]interface{}{})
		return
	}
	path, ok := s.pathForURI(p.TextDocument.URI)
	if !ok {
		return
	}
	fileID, ok := s.db.ResolveFile(path)
	if !ok {
		s.reply(id, []map[string]interface{}{})
		return
	}
	f, _ := s.db.GetFile(fileID)
	out := make([]map[string]interface{}, 0, len(f.Includes))
	for _, inc := range f.Includes {
		out = append(out, map[string]interface{}{"target": s.uris.URIFor(inc)})
	}
	s.reply(id, out)
}

func (s *Server) handleHover(id requestID, raw json.RawMessage) {
	var p textDocumentPositionParams
	if err := json.Unmarshal(raw, &p); err != nil {
		debug.LogLSP("hover: %v", err)
		return
	}
	path, ok := s.pathForURI(p.TextDocument.URI)
	if !ok {
		return
	}
	kind, symID, found := s.symbolAt(path, p.Position.toPosition())
	if !found {
		s.reply(id, nil)
		return
	}
	name := s.db.DetailedName(kind, symID)
	if name == "" {
		s.reply(id, nil)
		return
	}
	s.reply(id, hoverResult{Contents: name})
}

// handleRename always declines: QueryDB has no facility to rewrite source
// text (it only ever records facts the parser produced), so the honest
// response is "no edits", not a fabricated WorkspaceEdit.
func (s *Server) handleRename(id requestID, _ json.RawMessage) {
	s.reply(id, map[string]interface{}{"changes": map[string]interface{}{}})
}

func (s *Server) handleFormatting(id requestID, _ json.RawMessage) {
	s.reply(id, []interface{}{})
}

func (s *Server) handleRangeFormatting(id requestID, _ json.RawMessage) {
	s.reply(id, []interface{}{})
}

func (s *Server) handleWorkspaceSymbol(id requestID, raw json.RawMessage) {
	var p workspaceSymbolParams
	if err := json.Unmarshal(raw, &p); err != nil {
		debug.LogLSP("workspace/symbol: %v", err)
		return
	}

	all := s.db.AllIndexedSymbols()
	type scored struct {
		sym   querydb.SymbolQuery
		score int
	}
	var matches []scored
	for _, sym := range all {
		if p.Query == "" {
			matches = append(matches, scored{sym, 0})
			continue
		}
		score := s.matcher.Score(p.Query, sym.ShortName)
		if s.matcher.Accepts(score) {
			matches = append(matches, scored{sym, score})
		}
	}
	if len(matches) == 0 && p.Query != "" && len(all) > 0 {
		s.suggestSymbols(p.Query, all)
	}
	if s.cfg.WorkspaceSymbol.Sort {
		// Primary order is the DP score; the blended secondary score only
		// breaks exact ties, so the DP ranking stays the observable.
		sort.SliceStable(matches, func(i, j int) bool {
			if matches[i].score != matches[j].score {
				return matches[i].score > matches[j].score
			}
			return semscore.Score(p.Query, matches[i].sym.ShortName) >
				semscore.Score(p.Query, matches[j].sym.ShortName)
		})
	}
	if len(matches) > s.cfg.WorkspaceSymbol.MaxNum {
		matches = matches[:s.cfg.WorkspaceSymbol.MaxNum]
	}

	out := make([]workspaceSymbol, 0, len(matches))
	for _, m := range matches {
		defs := s.locationsForDefs(m.sym.Kind, m.sym.ID)
		if len(defs) == 0 {
			continue
		}
		out = append(out, workspaceSymbol{Name: m.sym.Name, Kind: symbolKindLSP(m.sym.Kind), Location: defs[0]})
	}
	s.reply(id, out)
}

// suggestSymbols sends a window/logMessage "did you mean" hint when a
// workspace/symbol query matched nothing: the blended secondary ranker is
// far more tolerant of typos than the DP matcher, so its top candidate is
// usually the name the user was reaching for.
func (s *Server) suggestSymbols(query string, all []querydb.SymbolQuery) {
	seen := map[string]bool{}
	names := make([]string, 0, len(all))
	for _, sym := range all {
		if sym.ShortName == "" || seen[sym.ShortName] {
			continue
		}
		seen[sym.ShortName] = true
		names = append(names, sym.ShortName)
	}
	ranked := semscore.Suggest(query, names)
	if len(ranked) == 0 || ranked[0].Score < 0.5 {
		return
	}
	s.logMessage("no symbols match %q; did you mean %q?", query, ranked[0].Name)
}

// handleExecuteCommand has no registered commands (serverCapabilities
// advertises an empty command list), so any call here is a client bug.
func (s *Server) handleExecuteCommand(id requestID, raw json.RawMessage) {
	var p struct {
		Command string `json:"command"`
	}
	_ = json.Unmarshal(raw, &p)
	s.enqueueOut(outboundResponse{JSONRPC: jsonrpcVersion, ID: id, Error: &responseError{
		Code:    codeInternalError,
		Message: "no command registered: " + p.Command,
	}})
}
