// Package highlight implements the semantic-highlight stable-id cache:
// mapping (kind, detailed_name) pairs to small stable integer ids
// a client can diff across edits without every token changing identity on
// every keystroke.
package highlight

import (
	"sync"

	"github.com/cxxls/cxxls/internal/lru"
	"github.com/cxxls/cxxls/internal/types"
)

// cacheCapacity is the number of files whose id tables are kept warm at
// once; beyond that, a symbol's id can only be reused by searching
// still-cached files.
const cacheCapacity = 10

type fileTable struct {
	types map[string]int
	funcs map[string]int
	vars  map[string]int
}

func newFileTable() *fileTable {
	return &fileTable{
		types: map[string]int{},
		funcs: map[string]int{},
		vars:  map[string]int{},
	}
}

func (t *fileTable) tableFor(kind types.SymbolKind) map[string]int {
	switch kind {
	case types.KindType:
		return t.types
	case types.KindFunc:
		return t.funcs
	default:
		return t.vars
	}
}

// Cache assigns and remembers stable highlight ids.
type Cache struct {
	mu     sync.Mutex
	files  *lru.Cache[string, *fileTable]
	nextID int
}

// New returns an empty stable-id cache.
func New() *Cache {
	return &Cache{files: lru.New[string, *fileTable](cacheCapacity)}
}

// GetStableID returns the stable id for (kind, detailedName) as seen from
// path. It checks path's own table first, then searches every other
// still-cached file's table for the same (kind, name) before minting a
// fresh id, so a symbol keeps its highlight id as long as any open file
// still remembers it.
func (c *Cache) GetStableID(path string, kind types.SymbolKind, detailedName string) int {
	c.mu.Lock()
	defer c.mu.Unlock()

	table, _, _ := c.files.GetOrCreate(path, newFileTable)
	own := table.tableFor(kind)
	if id, ok := own[detailedName]; ok {
		return id
	}

	var found int
	hasFound := false
	c.files.Iterate(func(_ string, t *fileTable) {
		if hasFound {
			return
		}
		if id, ok := t.tableFor(kind)[detailedName]; ok {
			found, hasFound = id, true
		}
	})
	if hasFound {
		own[detailedName] = found
		return found
	}

	id := c.nextID
	c.nextID++
	own[detailedName] = id
	return id
}

// Forget drops a file's cached table, e.g. on didClose, so it stops
// participating in cross-file reuse searches.
func (c *Cache) Forget(path string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.files.Remove(path)
}
