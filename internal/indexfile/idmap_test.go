package indexfile

import (
	"testing"

	"github.com/cxxls/cxxls/internal/types"
)

// fakeMinter mimics QueryDB's USR->id tables for tests: first sighting
// mints, repeat sightings return the same id, ids are never reused.
type fakeMinter struct {
	files map[string]types.QueryID
	typs  map[types.USR]types.QueryID
	funcs map[types.USR]types.QueryID
	vars  map[types.USR]types.QueryID
	next  types.QueryID
}

func newFakeMinter() *fakeMinter {
	return &fakeMinter{
		files: map[string]types.QueryID{},
		typs:  map[types.USR]types.QueryID{},
		funcs: map[types.USR]types.QueryID{},
		vars:  map[types.USR]types.QueryID{},
	}
}

func (m *fakeMinter) mint() types.QueryID {
	id := m.next
	m.next++
	return id
}

func (m *fakeMinter) MintFile(path string) types.QueryID {
	if id, ok := m.files[path]; ok {
		return id
	}
	id := m.mint()
	m.files[path] = id
	return id
}

func (m *fakeMinter) MintType(u types.USR) types.QueryID {
	if id, ok := m.typs[u]; ok {
		return id
	}
	id := m.mint()
	m.typs[u] = id
	return id
}

func (m *fakeMinter) MintFunc(u types.USR) types.QueryID {
	if id, ok := m.funcs[u]; ok {
		return id
	}
	id := m.mint()
	m.funcs[u] = id
	return id
}

func (m *fakeMinter) MintVar(u types.USR) types.QueryID {
	if id, ok := m.vars[u]; ok {
		return id
	}
	id := m.mint()
	m.vars[u] = id
	return id
}

func TestBuildIdMapMintsOncePerUSR(t *testing.T) {
	minter := newFakeMinter()
	f := &IndexFile{
		Path: "a.h",
		Types: []TypeEntity{
			{USR: 1}, {USR: 2},
		},
	}
	m1 := BuildIdMap(f, minter)
	m2 := BuildIdMap(f, minter)
	if m1.ToQueryType(0) != m2.ToQueryType(0) || m1.ToQueryType(1) != m2.ToQueryType(1) {
		t.Fatalf("rebuilding the id map for the same file should resolve to the same query ids")
	}
	if m1.ToQueryType(0) == m1.ToQueryType(1) {
		t.Fatalf("distinct USRs must map to distinct query ids")
	}
}

func TestToQueryInvalidLocalID(t *testing.T) {
	minter := newFakeMinter()
	f := &IndexFile{Path: "a.h"}
	m := BuildIdMap(f, minter)
	if got := m.ToQueryType(types.InvalidLocalID); got != types.InvalidQueryID {
		t.Fatalf("expected InvalidQueryID, got %v", got)
	}
}
