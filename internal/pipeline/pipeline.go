// Package pipeline implements the indexing pipeline: the chain of
// threaded queues and worker pools that carries a file from "edit/save" to
// "indexed in QueryDB" with priority, deduplication, and at-most-one-apply-
// in-flight-per-path semantics.
package pipeline

import (
	"context"

	"github.com/cxxls/cxxls/internal/fileconsumer"
	"github.com/cxxls/cxxls/internal/indexfile"
	"github.com/cxxls/cxxls/internal/querydb"
	"github.com/cxxls/cxxls/internal/queue"
)

// Request is one unit of indexing work: reparse path (optionally from
// contents already resident in memory, e.g. an unsaved editor buffer) and
// fold the result into QueryDB.
type Request struct {
	Path          string
	Contents      []byte // nil means "read from disk"
	IsInteractive bool
	RequestID     string
	// Deleted marks a workspace/didChangeWatchedFiles "Deleted" event: the
	// file is reindexed as if it produced no facts at all, tombstoning
	// everything it defined.
	Deleted bool
}

// Parser produces an IndexFile from a path's contents. The concrete
// tree-sitter-backed implementation lives in internal/parser; this
// package only depends on the interface so it can be tested without a real
// grammar.
type Parser interface {
	Parse(ctx context.Context, path string, contents []byte) (*indexfile.IndexFile, error)
}

// FileCache persists and retrieves one IndexFile per path.
type FileCache interface {
	Load(path string) (*indexfile.IndexFile, bool)
	Store(path string, file *indexfile.IndexFile) error
}

// mintJob is do_id_map's payload: a freshly parsed IndexFile awaiting query
// ids from the QueryDB thread.
type mintJob struct {
	req      Request
	prevFile *indexfile.IndexFile
	curFile  *indexfile.IndexFile
}

// applyJob is on_indexed_for_querydb's payload: a (possibly merged) update
// ready to apply, plus the parsed state that becomes prevState[path] once
// the apply succeeds.
type applyJob struct {
	path     string
	update   *indexfile.IndexUpdate
	curFile  *indexfile.IndexFile
	curIDMap *indexfile.IdMap
}

// dbWorkKind discriminates dbWork's two possible payloads so do_id_map and
// on_indexed_for_querydb can share one queue element type and be serviced
// by a single MultiQueueWaiter-driven consumer loop: the "one QueryDB
// thread" role, able to watch two queues without spinning up two
// goroutines that would both need to touch QueryDB.
type dbWorkKind uint8

const (
	dbWorkMint dbWorkKind = iota
	dbWorkApply
)

type dbWork struct {
	kind  dbWorkKind
	mint  mintJob
	apply applyJob
}

// mergeJob is on_indexed_for_merge's payload: one path's freshly computed
// delta, awaiting coalescing with any sibling deltas for the same path
// still sitting in the queue.
type mergeJob struct {
	path     string
	update   *indexfile.IndexUpdate
	curFile  *indexfile.IndexFile
	curIDMap *indexfile.IdMap
}

// onIDMappedJob is on_id_mapped's payload: the request and its id maps,
// handed back to an indexer worker to build the delta.
type onIDMappedJob struct {
	req       Request
	prevFile  *indexfile.IndexFile
	curFile   *indexfile.IndexFile
	prevIDMap *indexfile.IdMap
	curIDMap  *indexfile.IdMap
}

// Pipeline wires its six queues (index_request, do_id_map, on_id_mapped,
// on_indexed_for_merge, on_indexed_for_querydb, for_stdout) together with
// the worker pools that move work between them. There is no
// load_previous_index queue; handleIndexRequest loads the cached IndexFile
// inline.
type Pipeline struct {
	db       *querydb.DB
	parser   Parser
	cache    FileCache
	mgr      *ImportManager
	consumer *fileconsumer.Registry
	workers  int

	indexRequest         *queue.Queue[Request]
	doIDMapQ             *queue.Queue[dbWork] // do_id_map
	onIndexedForQueryDBQ *queue.Queue[dbWork] // on_indexed_for_querydb
	onIDMapped           *queue.Queue[onIDMappedJob]
	onIndexedForMerge    *queue.Queue[mergeJob]
	forStdout            *queue.Queue[string]

	waiter *queue.MultiQueueWaiter

	// onApplied, if set, is invoked on the QueryDB thread after each apply
	// completes (and the path's import status has settled). Callers use it
	// to publish per-file state that only becomes valid post-apply, e.g.
	// semantic highlighting. Set before Run; never changed after.
	onApplied func(path string)

	// prevState is owned exclusively by the QueryDB-thread loop (the single
	// consumer of doIDMapQ/onIndexedForQueryDBQ), so it needs no lock of its
	// own.
	prevState map[string]*fileState
}

type fileState struct {
	file  *indexfile.IndexFile
	idMap *indexfile.IdMap
}

// New builds a Pipeline around an existing QueryDB, parser, and on-disk
// cache. workers is the indexer worker pool size (0 defaults to 4).
func New(db *querydb.DB, parser Parser, cache FileCache, workers int) *Pipeline {
	if workers <= 0 {
		workers = 4
	}
	// Two queues of identical element type (dbWork) let one consumer watch
	// both do_id_map and on_indexed_for_querydb via a single MultiQueueWaiter,
	// preserving the "QueryDB thread is the sole id-minter and applier"
	// invariant without two goroutines racing to touch db.
	doIDMap := queue.New[dbWork]()
	onIndexedForQueryDB := queue.New[dbWork]()

	p := &Pipeline{
		db:                   db,
		parser:               parser,
		cache:                cache,
		mgr:                  NewImportManager(),
		consumer:             fileconsumer.New(),
		workers:              workers,
		indexRequest:         queue.New[Request](),
		doIDMapQ:             doIDMap,
		onIndexedForQueryDBQ: onIndexedForQueryDB,
		onIDMapped:           queue.New[onIDMappedJob](),
		onIndexedForMerge:    queue.New[mergeJob](),
		forStdout:            queue.New[string](),
		prevState:            map[string]*fileState{},
	}
	p.waiter = queue.NewMultiQueueWaiter(doIDMap, onIndexedForQueryDB)
	return p
}

// SetOnApplied registers a post-apply callback. Must be called before Run.
func (p *Pipeline) SetOnApplied(fn func(path string)) { p.onApplied = fn }

// ImportManager exposes the pipeline's ImportManager for callers (e.g. LSP
// handlers) that need to check a path's indexing status.
func (p *Pipeline) ImportManager() *ImportManager { return p.mgr }

// Consumer exposes the single-writer-per-header registry.
func (p *Pipeline) Consumer() *fileconsumer.Registry { return p.consumer }

// EnqueueIndexRequest submits one file for indexing. priority is true for
// interactive requests (open/change/save of a focused buffer); false for
// workspace-wide re-index.
func (p *Pipeline) EnqueueIndexRequest(req Request, priority bool) {
	p.indexRequest.Enqueue(req, priority)
}

// EnqueueForStdout submits a pre-serialized outbound message (e.g. a
// diagnostics publish notification triggered by a completed apply) for the
// stdout writer to send.
func (p *Pipeline) EnqueueForStdout(message string) {
	p.forStdout.Enqueue(message, false)
}

// DequeueForStdout blocks until an outbound message is available or the
// pipeline is closed.
func (p *Pipeline) DequeueForStdout() (string, bool) {
	return p.forStdout.Dequeue()
}

// Close shuts down every queue, unblocking all workers so Run's errgroup
// can return.
func (p *Pipeline) Close() {
	p.indexRequest.Close()
	p.doIDMapQ.Close()
	p.onIndexedForQueryDBQ.Close()
	p.onIDMapped.Close()
	p.onIndexedForMerge.Close()
	p.forStdout.Close()
}
