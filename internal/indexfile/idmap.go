package indexfile

import "github.com/cxxls/cxxls/internal/types"

// Minter mints or looks up the global query id for a USR (or file path),
// never reusing an id and never minting twice for the same USR. QueryDB
// implements this; indexfile never imports querydb, so the dependency runs
// the other way: querydb imports indexfile to apply what IdMap/IndexUpdate
// produce.
type Minter interface {
	MintFile(path string) types.QueryID
	MintType(u types.USR) types.QueryID
	MintFunc(u types.USR) types.QueryID
	MintVar(u types.USR) types.QueryID
}

// IdMap translates one IndexFile's local ids into query ids. It is built
// once per (IndexFile, QueryDB) pair and is immutable afterward; ToQuery*
// lookups are O(1) slice indexing.
type IdMap struct {
	file        *IndexFile
	primaryFile types.QueryID
	typeIDs     []types.QueryID
	funcIDs     []types.QueryID
	varIDs      []types.QueryID
}

// BuildIdMap walks file's id vectors once, minting a query id for every USR
// not already known to minter.
func BuildIdMap(file *IndexFile, minter Minter) *IdMap {
	m := &IdMap{
		file:        file,
		primaryFile: minter.MintFile(file.Path),
		typeIDs:     make([]types.QueryID, len(file.Types)),
		funcIDs:     make([]types.QueryID, len(file.Funcs)),
		varIDs:      make([]types.QueryID, len(file.Vars)),
	}
	for i, t := range file.Types {
		m.typeIDs[i] = minter.MintType(t.USR)
	}
	for i, f := range file.Funcs {
		m.funcIDs[i] = minter.MintFunc(f.USR)
	}
	for i, v := range file.Vars {
		m.varIDs[i] = minter.MintVar(v.USR)
	}
	return m
}

// PrimaryFile is the query id of the file this IdMap was built for.
func (m *IdMap) PrimaryFile() types.QueryID { return m.primaryFile }

func (m *IdMap) ToQueryType(id types.LocalID) types.QueryID {
	if !id.IsValid() || int(id) >= len(m.typeIDs) {
		return types.InvalidQueryID
	}
	return m.typeIDs[id]
}

func (m *IdMap) ToQueryFunc(id types.LocalID) types.QueryID {
	if !id.IsValid() || int(id) >= len(m.funcIDs) {
		return types.InvalidQueryID
	}
	return m.funcIDs[id]
}

func (m *IdMap) ToQueryVar(id types.LocalID) types.QueryID {
	if !id.IsValid() || int(id) >= len(m.varIDs) {
		return types.InvalidQueryID
	}
	return m.varIDs[id]
}

// ToQueryByKind dispatches on kind; used when translating a LexicalRefLocal
// whose target kind varies (e.g. a Func's uses list can reference a Var).
func (m *IdMap) ToQueryByKind(kind types.SymbolKind, id types.LocalID) types.QueryID {
	switch kind {
	case types.KindType:
		return m.ToQueryType(id)
	case types.KindFunc:
		return m.ToQueryFunc(id)
	case types.KindVar:
		return m.ToQueryVar(id)
	case types.KindFile:
		return m.primaryFile
	default:
		return types.InvalidQueryID
	}
}

func (m *IdMap) toQueryRef(ref LexicalRefLocal) types.LexicalRef {
	return types.LexicalRef{
		File:  m.primaryFile,
		Range: ref.Range,
		ID:    m.ToQueryByKind(ref.Kind, ref.ID),
		Kind:  ref.Kind,
		Role:  ref.Role,
	}
}

func (m *IdMap) toQueryRefs(refs []LexicalRefLocal) []types.LexicalRef {
	if len(refs) == 0 {
		return nil
	}
	out := make([]types.LexicalRef, len(refs))
	for i, r := range refs {
		out[i] = m.toQueryRef(r)
	}
	return out
}

func (m *IdMap) toQueryIDs(kind types.SymbolKind, ids []types.LocalID) []types.QueryID {
	if len(ids) == 0 {
		return nil
	}
	out := make([]types.QueryID, len(ids))
	for i, id := range ids {
		out[i] = m.ToQueryByKind(kind, id)
	}
	return out
}
