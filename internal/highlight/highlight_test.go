package highlight

import (
	"testing"

	"github.com/cxxls/cxxls/internal/types"
)

func TestStableIDReusedWithinSameFile(t *testing.T) {
	c := New()
	id1 := c.GetStableID("a.cpp", types.KindFunc, "void foo()")
	id2 := c.GetStableID("a.cpp", types.KindFunc, "void foo()")
	if id1 != id2 {
		t.Fatalf("expected the same id for repeated lookups, got %d and %d", id1, id2)
	}
}

func TestStableIDReusedAcrossFiles(t *testing.T) {
	c := New()
	id1 := c.GetStableID("a.h", types.KindType, "struct Widget")
	id2 := c.GetStableID("b.cpp", types.KindType, "struct Widget")
	if id1 != id2 {
		t.Fatalf("expected cross-file reuse for the same (kind, name), got %d and %d", id1, id2)
	}
}

func TestStableIDDistinctByKind(t *testing.T) {
	c := New()
	id1 := c.GetStableID("a.cpp", types.KindFunc, "widget")
	id2 := c.GetStableID("a.cpp", types.KindVar, "widget")
	if id1 == id2 {
		t.Fatalf("same name but different kind should not share an id")
	}
}

func TestForgetDropsFileFromReuseSearch(t *testing.T) {
	c := New()
	old := c.GetStableID("a.h", types.KindType, "struct Widget")
	c.Forget("a.h")
	// Now no cached file remembers "struct Widget"; a fresh lookup mints
	// a new id rather than reusing the forgotten one.
	id := c.GetStableID("b.cpp", types.KindType, "struct Widget")
	if id == old {
		t.Fatalf("expected a fresh id after Forget, got the forgotten id %d", id)
	}
}
