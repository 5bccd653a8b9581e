// Package querydb implements QueryDB: the single in-memory,
// cross-file symbol database every indexed file's facts are merged into.
// It is single-writer (the pipeline's QueryDB-owner goroutine calls
// Apply) with many concurrent readers (completion, highlight, workspace
// symbol search).
package querydb

import (
	"sync"

	"github.com/cxxls/cxxls/internal/indexfile"
	"github.com/cxxls/cxxls/internal/types"
)

// DefEntry is one file's contribution to an entity's definition. Several
// can coexist (a template defined identically in several headers); the
// first inserted is the entity's AnyDef.
type DefEntry struct {
	File types.QueryID
	Def  indexfile.QueryDef
}

// Entity is the union storage shape for QueryType/QueryFunc/QueryVar.
// Instances and Bases are only ever populated for types, and Derived is
// meaningless for vars; unused fields simply stay nil rather than forcing
// three near-identical struct definitions for what is otherwise one shape.
type Entity struct {
	USR          types.USR
	Kind         types.SymbolKind // KindInvalid once tombstoned
	Defs         []DefEntry
	Declarations []types.LexicalRef
	Uses         []types.LexicalRef
	Derived      []types.QueryID
	Instances    []types.QueryID
	Bases        []types.QueryID
}

// AnyDef returns the entity's primary definition: the first one recorded.
// Returns false if the entity has no definition (forward-declared only).
func (e *Entity) AnyDef() (DefEntry, bool) {
	if len(e.Defs) == 0 {
		return DefEntry{}, false
	}
	return e.Defs[0], true
}

// Tombstoned reports whether this entity has been fully removed: it has
// no surviving def and no surviving declarations or uses. A tombstoned
// entity's slot and id are never reused.
func (e *Entity) Tombstoned() bool {
	return e.Kind == types.KindInvalid
}

// QueryFile is one indexed (or merely #included) file's metadata.
type QueryFile struct {
	ID              types.QueryID
	Path            string
	Language        types.Language
	Includes        []string
	InactiveRegions []types.Range
	Removed         bool

	// refs caches every LexicalRef whose File is this one, so outline and
	// semantic-highlight queries don't have to scan the whole database.
	refs []fileRef
}

type fileRef struct {
	Ref  types.LexicalRef
	Kind types.SymbolKind // kind of the owning entity (Type/Func/Var)
}

// DB is the cross-file symbol database.
type DB struct {
	mu sync.RWMutex

	files       []QueryFile
	filesByPath map[string]types.QueryID

	types      []Entity
	typesByUSR map[types.USR]types.QueryID

	funcs      []Entity
	funcsByUSR map[types.USR]types.QueryID

	vars      []Entity
	varsByUSR map[types.USR]types.QueryID

	symbolIndex []symbolEntry
}

type symbolEntry struct {
	Name       string
	ShortName  string
	Kind       types.SymbolKind
	ID         types.QueryID
	Tombstoned bool
}

// New returns an empty QueryDB.
func New() *DB {
	return &DB{
		filesByPath: map[string]types.QueryID{},
		typesByUSR:  map[types.USR]types.QueryID{},
		funcsByUSR:  map[types.USR]types.QueryID{},
		varsByUSR:   map[types.USR]types.QueryID{},
	}
}

// entitySlice and lookup table accessors let Apply/query code share logic
// across the three entity kinds without reflection.
func (db *DB) slotsFor(kind types.SymbolKind) *[]Entity {
	switch kind {
	case types.KindType:
		return &db.types
	case types.KindFunc:
		return &db.funcs
	case types.KindVar:
		return &db.vars
	default:
		return nil
	}
}
