package querydb

import (
	"sort"

	"github.com/cxxls/cxxls/internal/types"
)

// GetFile returns a file's metadata by id.
func (db *DB) GetFile(id types.QueryID) (QueryFile, bool) {
	db.mu.RLock()
	defer db.mu.RUnlock()
	if int(id) >= len(db.files) || db.files[id].Removed {
		return QueryFile{}, false
	}
	return db.files[id], true
}

// ResolveFile looks up a file's query id by path, without minting one.
func (db *DB) ResolveFile(path string) (types.QueryID, bool) {
	db.mu.RLock()
	defer db.mu.RUnlock()
	id, ok := db.filesByPath[path]
	if !ok || db.files[id].Removed {
		return types.InvalidQueryID, false
	}
	return id, true
}

// ResolveUSR looks up the query id QueryDB has already minted for a USR
// of the given kind, without minting a new one.
func (db *DB) ResolveUSR(kind types.SymbolKind, u types.USR) (types.QueryID, bool) {
	db.mu.RLock()
	defer db.mu.RUnlock()
	var table map[types.USR]types.QueryID
	switch kind {
	case types.KindType:
		table = db.typesByUSR
	case types.KindFunc:
		table = db.funcsByUSR
	case types.KindVar:
		table = db.varsByUSR
	default:
		return types.InvalidQueryID, false
	}
	id, ok := table[u]
	return id, ok
}

// GetEntity returns a copy of an entity's current state. The second
// return value is false for an out-of-range id or a tombstoned entity.
func (db *DB) GetEntity(kind types.SymbolKind, id types.QueryID) (Entity, bool) {
	db.mu.RLock()
	defer db.mu.RUnlock()
	e := db.entityLocked(kind, id)
	if e == nil || e.Tombstoned() {
		return Entity{}, false
	}
	return *e, true
}

// DetailedName returns an entity's AnyDef detailed name, or "" if it has
// no surviving def.
func (db *DB) DetailedName(kind types.SymbolKind, id types.QueryID) string {
	db.mu.RLock()
	defer db.mu.RUnlock()
	e := db.entityLocked(kind, id)
	if e == nil {
		return ""
	}
	if d, ok := e.AnyDef(); ok {
		return d.Def.DetailedName
	}
	return ""
}

// ShortName returns an entity's AnyDef short name.
func (db *DB) ShortName(kind types.SymbolKind, id types.QueryID) string {
	db.mu.RLock()
	defer db.mu.RUnlock()
	e := db.entityLocked(kind, id)
	if e == nil {
		return ""
	}
	if d, ok := e.AnyDef(); ok {
		return d.Def.ShortName
	}
	return ""
}

// References returns every LexicalRef an entity carries: its
// declarations plus its uses, combined.
func (db *DB) References(kind types.SymbolKind, id types.QueryID) []types.LexicalRef {
	db.mu.RLock()
	defer db.mu.RUnlock()
	e := db.entityLocked(kind, id)
	if e == nil {
		return nil
	}
	out := make([]types.LexicalRef, 0, len(e.Declarations)+len(e.Uses))
	out = append(out, e.Declarations...)
	out = append(out, e.Uses...)
	return out
}

// AllSymbols returns every LexicalRef touching the given file, sorted by
// range, with Implicit-role refs widened by one column on each side so a
// hit on the space or semicolon in `A a;` still resolves to the
// constructor. This is the feed for outline and document-symbol style
// queries.
func (db *DB) AllSymbols(file types.QueryID) []types.LexicalRef {
	db.mu.RLock()
	defer db.mu.RUnlock()
	if int(file) >= len(db.files) {
		return nil
	}
	refs := make([]types.LexicalRef, 0, len(db.files[file].refs))
	for _, fr := range db.files[file].refs {
		r := fr.Ref
		if r.Role.Has(types.RoleImplicit) {
			r.Range = r.Range.WidenByColumn(1)
		}
		refs = append(refs, r)
	}
	sort.Slice(refs, func(i, j int) bool { return refs[i].Range.Less(refs[j].Range) })
	return refs
}

// AllFiles returns every live (non-removed) file QueryDB knows about, for
// $cquery/freshenIndex's timestamp rescan and reverse-dependency walk.
func (db *DB) AllFiles() []QueryFile {
	db.mu.RLock()
	defer db.mu.RUnlock()
	out := make([]QueryFile, 0, len(db.files))
	for _, f := range db.files {
		if !f.Removed {
			out = append(out, f)
		}
	}
	return out
}

// SymbolQuery is a flattened view of the workspace-symbol index entry
// exported for internal/fuzzy to rank.
type SymbolQuery struct {
	Name      string
	ShortName string
	Kind      types.SymbolKind
	ID        types.QueryID
}

// AllIndexedSymbols returns every live (non-tombstoned) symbol QueryDB has
// a definition for, for workspace/symbol fuzzy matching.
func (db *DB) AllIndexedSymbols() []SymbolQuery {
	db.mu.RLock()
	defer db.mu.RUnlock()
	out := make([]SymbolQuery, 0, len(db.symbolIndex))
	for _, s := range db.symbolIndex {
		if s.Tombstoned {
			continue
		}
		out = append(out, SymbolQuery{Name: s.Name, ShortName: s.ShortName, Kind: s.Kind, ID: s.ID})
	}
	return out
}
