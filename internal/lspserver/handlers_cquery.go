package lspserver

import (
	"encoding/json"
	"os"
	"time"

	"github.com/cxxls/cxxls/internal/debug"
	"github.com/cxxls/cxxls/internal/pipeline"
	"github.com/cxxls/cxxls/internal/types"
)

type hierarchyNode struct {
	Name     string          `json:"name"`
	Location location        `json:"location"`
	Children []hierarchyNode `json:"children,omitempty"`
}

// handleCallHierarchy reports call sites of the symbol under the cursor.
// QueryDB keeps a function's callees only inside each of its defs
// (QueryDef.Callees) and has no reverse callers edge, so there is no
// caller-function identity to resolve, only the lexical location of each
// call. Each call site is reported as a leaf
// node named after its containing file rather than a resolved caller
// symbol.
func (s *Server) handleCallHierarchy(id requestID, raw json.RawMessage) {
	var p textDocumentPositionParams
	if err := json.Unmarshal(raw, &p); err != nil {
		debug.LogLSP("callHierarchy: %v", err)
		return
	}
	path, ok := s.pathForURI(p.TextDocument.URI)
	if !ok {
		return
	}
	kind, symID, found := s.symbolAt(path, p.Position.toPosition())
	if !found || kind != types.KindFunc {
		s.reply(id, hierarchyNode{})
		return
	}

	root := hierarchyNode{Name: s.db.DetailedName(kind, symID)}
	for _, r := range s.db.References(kind, symID) {
		if !r.Role.Has(types.RoleCall) {
			continue
		}
		f, ok := s.db.GetFile(r.File)
		if !ok {
			continue
		}
		root.Children = append(root.Children, hierarchyNode{
			Name:     f.Path,
			Location: location{URI: s.uris.URIFor(f.Path), Range: fromRange(r.Range)},
		})
	}
	s.reply(id, root)
}

// handleInheritanceHierarchy walks Entity.Bases (ancestors) or
// Entity.Derived (descendants) depending on the `derived` param, the one
// edge set QueryDB's type model tracks directly.
func (s *Server) handleInheritanceHierarchy(id requestID, raw json.RawMessage) {
	var p struct {
		textDocumentPositionParams
		Derived bool `json:"derived"`
	}
	if err := json.Unmarshal(raw, &p); err != nil {
		debug.LogLSP("inheritanceHierarchy: %v", err)
		return
	}
	path, ok := s.pathForURI(p.TextDocument.URI)
	if !ok {
		return
	}
	kind, symID, found := s.symbolAt(path, p.Position.toPosition())
	if !found || kind != types.KindType {
		s.reply(id, hierarchyNode{})
		return
	}
	s.reply(id, s.buildInheritanceNode(symID, p.Derived, map[types.QueryID]bool{}))
}

func (s *Server) buildInheritanceNode(id types.QueryID, derived bool, visited map[types.QueryID]bool) hierarchyNode {
	node := hierarchyNode{Name: s.db.DetailedName(types.KindType, id)}
	if visited[id] {
		return node
	}
	visited[id] = true

	defs := s.locationsForDefs(types.KindType, id)
	if len(defs) > 0 {
		node.Location = defs[0]
	}

	e, ok := s.db.GetEntity(types.KindType, id)
	if !ok {
		return node
	}
	edges := e.Bases
	if derived {
		edges = e.Derived
	}
	for _, child := range edges {
		node.Children = append(node.Children, s.buildInheritanceNode(child, derived, visited))
	}
	return node
}

// handleVars reports variables declared with the given type. QueryDB's
// VarEntity carries no link to a declared type's query id (see
// DESIGN.md), so there is no data to answer this from; it replies with an
// empty list rather than guessing from name text.
func (s *Server) handleVars(id requestID, _ json.RawMessage) {
	debug.LogLSP("$cquery/vars: no var-to-type edge in this index model, returning empty")
	s.reply(id, []location{})
}

// handleFreshenIndex rescans every known file's mtime; a file that changed
// on disk since Server last enqueued it, plus every file whose recorded
// #include list names it (the reverse-dependency closure, one hop at a
// time until the worklist empties), is re-enqueued for indexing.
func (s *Server) handleFreshenIndex(id requestID, _ json.RawMessage) {
	files := s.db.AllFiles()

	changed := map[string]bool{}
	for _, f := range files {
		info, err := os.Stat(f.Path)
		if err != nil {
			continue
		}
		if s.sawNewer(f.Path, info.ModTime()) {
			changed[f.Path] = true
		}
	}

	worklist := make([]string, 0, len(changed))
	for p := range changed {
		worklist = append(worklist, p)
	}
	enqueued := map[string]bool{}
	for len(worklist) > 0 {
		cur := worklist[len(worklist)-1]
		worklist = worklist[:len(worklist)-1]
		if enqueued[cur] {
			continue
		}
		enqueued[cur] = true
		s.pl.EnqueueIndexRequest(pipeline.Request{Path: cur}, false)

		for _, f := range files {
			for _, inc := range f.Includes {
				if inc == cur && !enqueued[f.Path] {
					worklist = append(worklist, f.Path)
				}
			}
		}
	}
	s.reply(id, map[string]int{"reindexed": len(enqueued)})
}

func (s *Server) sawNewer(path string, modTime time.Time) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.lastSeenMTime == nil {
		s.lastSeenMTime = map[string]time.Time{}
	}
	prev, ok := s.lastSeenMTime[path]
	s.lastSeenMTime[path] = modTime
	return !ok || modTime.After(prev)
}
