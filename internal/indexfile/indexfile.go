// Package indexfile defines IndexFile, the per-translation-unit output
// of the parser, and IdMap/IndexUpdate, which translate an IndexFile's
// local ids into QueryDB's global query ids and compute the add/remove
// delta between two versions of a file.
package indexfile

import (
	"time"

	"github.com/cxxls/cxxls/internal/types"
)

// Def is a symbol's definition record as the parser produced it for one
// file: name, spell/extent ranges, kind, and (for callables) the inline
// callee list. All ids here are local to the IndexFile that owns this Def.
type Def struct {
	DetailedName  string
	ShortName     string
	Spell         types.Range
	Extent        types.Range
	Kind          types.SymbolKind
	Storage       types.StorageClass
	HasFuncParent bool // true if a var Def's lexical parent is a function
	CalleesLocal  []LexicalRefLocal
}

// LexicalRefLocal is a LexicalRef expressed in local-id space: the file is
// always implicitly "this IndexFile" (IdMap fills in its primary file id
// when translating it).
type LexicalRefLocal struct {
	Range types.Range
	ID    types.LocalID
	Kind  types.SymbolKind
	Role  types.Role
}

// TypeEntity is one type record as seen by this IndexFile.
type TypeEntity struct {
	USR               types.USR
	Def               *Def // nil if only used/declared here, not defined
	DeclarationsLocal []LexicalRefLocal
	UsesLocal         []LexicalRefLocal
	DerivedLocal      []types.LocalID // subclasses
	InstancesLocal    []types.LocalID // template instantiations
	BasesLocal        []types.LocalID // superclasses
}

// FuncEntity is one function record as seen by this IndexFile.
type FuncEntity struct {
	USR               types.USR
	Def               *Def
	DeclarationsLocal []LexicalRefLocal
	UsesLocal         []LexicalRefLocal
	DerivedLocal      []types.LocalID // overriding functions
}

// VarEntity is one variable record as seen by this IndexFile.
type VarEntity struct {
	USR               types.USR
	Def               *Def
	DeclarationsLocal []LexicalRefLocal
	UsesLocal         []LexicalRefLocal
}

// Include is one #include directive resolved by the parser.
type Include struct {
	Line         int
	ResolvedPath string
}

// IndexFile is the parser's per-file output: dense local-id vectors of
// types/funcs/vars, includes, skipped-by-preprocessor ranges, and the
// file's last-modification time (used by the pipeline's cache-skip check).
type IndexFile struct {
	Path                 string
	Language             types.Language
	LastModificationTime time.Time

	Types []TypeEntity
	Funcs []FuncEntity
	Vars  []VarEntity

	Includes      []Include
	SkippedRanges []types.Range
}

// TypeByUSR does a linear scan; IndexFiles are small
// (one file's worth of facts) so this is adequate outside the hot delta
// path, which builds its own USR->index maps once per call (see delta.go).
func (f *IndexFile) TypeByUSR(u types.USR) (types.LocalID, bool) {
	for i := range f.Types {
		if f.Types[i].USR == u {
			return types.LocalID(i), true
		}
	}
	return types.InvalidLocalID, false
}
