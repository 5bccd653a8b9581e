package lru

import "testing"

func TestInsertEvictsOldestOverCapacity(t *testing.T) {
	c := New[string, int](2)
	c.Insert("a", 1)
	c.Insert("b", 2)
	if _, evicted := c.Insert("c", 3); !evicted {
		t.Fatalf("expected eviction when inserting past capacity")
	}
	if _, ok := c.TryGet("a"); ok {
		t.Fatalf("expected \"a\" to be evicted as least-recently-used")
	}
	if _, ok := c.TryGet("b"); !ok {
		t.Fatalf("expected \"b\" to survive")
	}
	if _, ok := c.TryGet("c"); !ok {
		t.Fatalf("expected \"c\" to survive")
	}
}

func TestTryGetDoesNotPromote(t *testing.T) {
	c := New[string, int](2)
	c.Insert("a", 1)
	c.Insert("b", 2)
	c.TryGet("a") // should not move "a" to front
	c.Insert("c", 3)
	if _, ok := c.TryGet("a"); ok {
		t.Fatalf("TryGet must not promote; \"a\" should still be evicted")
	}
}

func TestGetPromoteMarksRecentlyUsed(t *testing.T) {
	c := New[string, int](2)
	c.Insert("a", 1)
	c.Insert("b", 2)
	c.GetPromote("a")
	c.Insert("c", 3)
	if _, ok := c.TryGet("b"); ok {
		t.Fatalf("expected \"b\" (not promoted) to be evicted, not \"a\"")
	}
	if _, ok := c.TryGet("a"); !ok {
		t.Fatalf("expected promoted \"a\" to survive")
	}
}

func TestGetOrCreateComputesOnce(t *testing.T) {
	c := New[string, int](2)
	calls := 0
	make_ := func() int { calls++; return 42 }
	v, _, _ := c.GetOrCreate("k", make_)
	if v != 42 {
		t.Fatalf("expected computed value 42, got %d", v)
	}
	v2, _, _ := c.GetOrCreate("k", make_)
	if v2 != 42 || calls != 1 {
		t.Fatalf("expected cached value without recompute, calls=%d", calls)
	}
}

func TestIterateVisitsAllValues(t *testing.T) {
	c := New[string, int](3)
	c.Insert("a", 1)
	c.Insert("b", 2)
	c.Insert("c", 3)
	seen := map[string]int{}
	c.Iterate(func(k string, v int) { seen[k] = v })
	if len(seen) != 3 {
		t.Fatalf("expected 3 entries visited, got %d", len(seen))
	}
}

func TestRemove(t *testing.T) {
	c := New[string, int](2)
	c.Insert("a", 1)
	if !c.Remove("a") {
		t.Fatalf("expected Remove to report found")
	}
	if c.Remove("a") {
		t.Fatalf("expected second Remove to report not found")
	}
	if c.Len() != 0 {
		t.Fatalf("expected empty cache after remove, len=%d", c.Len())
	}
}
