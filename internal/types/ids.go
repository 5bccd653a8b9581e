// Package types holds the data model shared by the indexing core: the two
// id spaces (local and query), positions/ranges, lexical references, and
// symbol/role enumerations. Nothing in this package knows about QueryDB or
// IndexFile internals; it is the vocabulary those packages share.
package types

import "github.com/cespare/xxhash/v2"

// USR is the cross-translation-unit identity of a type, function, or
// variable: a 64-bit hash of the parser's Unified Symbol Resolution string.
type USR uint64

// HashUSR computes the USR for a parser-produced USR spelling.
func HashUSR(spelling string) USR {
	return USR(xxhash.Sum64String(spelling))
}

// LocalID is a dense per-IndexFile index into that file's own vectors of
// types/funcs/vars. Local ids are only meaningful within the IndexFile that
// produced them.
type LocalID uint32

// InvalidLocalID marks the absence of a local reference.
const InvalidLocalID LocalID = ^LocalID(0)

// QueryID is a dense, global, per-QueryDB index, assigned on first sight of
// a USR and never reused for the lifetime of the process.
type QueryID uint32

// InvalidQueryID marks the absence of a query reference.
const InvalidQueryID QueryID = ^QueryID(0)

// IsValid reports whether id refers to a minted entity.
func (id QueryID) IsValid() bool { return id != InvalidQueryID }

// IsValid reports whether id refers to a real local record.
func (id LocalID) IsValid() bool { return id != InvalidLocalID }
