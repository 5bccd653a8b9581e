package pipeline

import (
	"context"
	"testing"
	"time"

	"github.com/cxxls/cxxls/internal/indexfile"
	"github.com/cxxls/cxxls/internal/querydb"
	"github.com/cxxls/cxxls/internal/types"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// fakeParser always returns the same fixture IndexFile, stamped with the
// requested path; it ignores contents entirely.
type fakeParser struct {
	file *indexfile.IndexFile
}

func (p *fakeParser) Parse(_ context.Context, path string, _ []byte) (*indexfile.IndexFile, error) {
	f := *p.file
	f.Path = path
	return &f, nil
}

type memCache struct {
	files map[string]*indexfile.IndexFile
}

func newMemCache() *memCache { return &memCache{files: map[string]*indexfile.IndexFile{}} }

func (c *memCache) Load(path string) (*indexfile.IndexFile, bool) {
	f, ok := c.files[path]
	return f, ok
}

func (c *memCache) Store(path string, f *indexfile.IndexFile) error {
	c.files[path] = f
	return nil
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.After(2 * time.Second)
	for {
		if cond() {
			return
		}
		select {
		case <-deadline:
			t.Fatal("timed out waiting for condition")
		case <-time.After(5 * time.Millisecond):
		}
	}
}

func TestPipelineIndexesRequestIntoQueryDB(t *testing.T) {
	db := querydb.New()
	file := &indexfile.IndexFile{
		Funcs: []indexfile.FuncEntity{{
			USR: types.USR(1),
			Def: &indexfile.Def{DetailedName: "void foo()", Kind: types.KindFunc},
		}},
	}
	p := New(db, &fakeParser{file: file}, newMemCache(), 2)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- p.Run(ctx) }()

	p.EnqueueIndexRequest(Request{Path: "a.cpp", Contents: []byte("void foo() {}")}, true)

	waitFor(t, func() bool {
		_, ok := db.GetEntity(types.KindFunc, 0)
		return ok
	})
	if got := db.DetailedName(types.KindFunc, 0); got != "void foo()" {
		t.Fatalf("got DetailedName %q, want %q", got, "void foo()")
	}
	if status := p.ImportManager().Status("a.cpp"); status != Imported {
		t.Fatalf("got import status %v, want Imported", status)
	}

	cancel()
	if err := <-done; err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
}

func TestPipelineDeletionTombstonesEntity(t *testing.T) {
	db := querydb.New()
	file := &indexfile.IndexFile{
		Funcs: []indexfile.FuncEntity{{
			USR: types.USR(2),
			Def: &indexfile.Def{DetailedName: "void bar()", Kind: types.KindFunc},
		}},
	}
	p := New(db, &fakeParser{file: file}, newMemCache(), 2)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- p.Run(ctx) }()

	p.EnqueueIndexRequest(Request{Path: "b.cpp", Contents: []byte("void bar() {}")}, true)
	waitFor(t, func() bool {
		_, ok := db.GetEntity(types.KindFunc, 0)
		return ok
	})

	p.EnqueueIndexRequest(Request{Path: "b.cpp", Deleted: true}, true)
	waitFor(t, func() bool {
		_, ok := db.GetEntity(types.KindFunc, 0)
		return !ok
	})

	cancel()
	if err := <-done; err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
}

func TestImportManagerSetStatusAtomicCAS(t *testing.T) {
	mgr := NewImportManager()
	results := make(chan bool, 2)
	go func() { results <- mgr.SetStatusAtomic("p", NotSeen, ProcessingInitialImport) }()
	go func() { results <- mgr.SetStatusAtomic("p", NotSeen, ProcessingInitialImport) }()

	a, b := <-results, <-results
	if a == b {
		t.Fatalf("expected exactly one winner, got %v and %v", a, b)
	}
	if mgr.Status("p") != ProcessingInitialImport {
		t.Fatalf("expected status ProcessingInitialImport, got %v", mgr.Status("p"))
	}
}

func TestFlushMergeBatchCoalescesSamePath(t *testing.T) {
	db := querydb.New()
	p := New(db, &fakeParser{file: &indexfile.IndexFile{}}, newMemCache(), 1)

	u1 := &indexfile.IndexUpdate{DefUpdates: []indexfile.DefUpdate{{EntityID: types.QueryID(1)}}}
	u2 := &indexfile.IndexUpdate{DefUpdates: []indexfile.DefUpdate{{EntityID: types.QueryID(2)}}}
	other := &indexfile.IndexUpdate{DefUpdates: []indexfile.DefUpdate{{EntityID: types.QueryID(3)}}}

	p.flushMergeBatch([]mergeJob{
		{path: "a.cpp", update: u1},
		{path: "b.cpp", update: other},
		{path: "a.cpp", update: u2},
	})

	first, ok := p.onIndexedForQueryDBQ.TryDequeue(true)
	if !ok || first.apply.path != "a.cpp" || len(first.apply.update.DefUpdates) != 2 {
		t.Fatalf("expected a single coalesced 2-entry update for a.cpp first, got %+v ok=%v", first, ok)
	}
	second, ok := p.onIndexedForQueryDBQ.TryDequeue(true)
	if !ok || second.apply.path != "b.cpp" || len(second.apply.update.DefUpdates) != 1 {
		t.Fatalf("expected b.cpp's single update second, got %+v ok=%v", second, ok)
	}
	if _, ok := p.onIndexedForQueryDBQ.TryDequeue(true); ok {
		t.Fatalf("expected exactly two coalesced entries")
	}
}

func TestImportManagerSelfTransitionFails(t *testing.T) {
	mgr := NewImportManager()
	mgr.SetStatusAtomic("p", NotSeen, ProcessingInitialImport)
	if mgr.SetStatusAtomic("p", ProcessingInitialImport, ProcessingInitialImport) {
		t.Fatalf("a transition to the same status should fail")
	}
}
