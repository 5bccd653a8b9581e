package completion

import (
	"fmt"
	"strings"
	"sync"

	"github.com/cxxls/cxxls/internal/types"
)

// Item is one completion (or signature-help) candidate. It is intentionally
// LSP-shape-agnostic; the JSON-RPC transport maps it onto a
// CompletionItem/SignatureInformation payload.
type Item struct {
	Label  string
	Kind   types.SymbolKind
	Detail string
}

// resultCache holds the two completion result caches: global (keyed
// by path only, valid while the current file is the same) and non-global
// (keyed by path+position, valid while the position matches). It only
// stores and serves entries; hit policy (reply immediately, refresh in the
// background, or not) is Manager.CodeComplete's job.
type resultCache struct {
	mu        sync.Mutex
	global    map[string][]Item
	nonGlobal map[string][]Item
}

func newResultCache() *resultCache {
	return &resultCache{global: map[string][]Item{}, nonGlobal: map[string][]Item{}}
}

func nonGlobalKey(namespace, path string, pos types.Position) string {
	return fmt.Sprintf("%s|%s@%s", namespace, path, pos)
}

func (c *resultCache) get(namespace, path string, pos types.Position, global bool) ([]Item, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if global {
		v, ok := c.global[path]
		return v, ok
	}
	v, ok := c.nonGlobal[nonGlobalKey(namespace, path, pos)]
	return v, ok
}

func (c *resultCache) put(namespace, path string, pos types.Position, global bool, items []Item) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if global {
		c.global[path] = items
		return
	}
	c.nonGlobal[nonGlobalKey(namespace, path, pos)] = items
}

// invalidatePath drops every cached result (global and non-global) for
// path, called on notify_edit/notify_save/notify_close since an edit
// invalidates "the position matches" and "the current file is the same"
// alike.
func (c *resultCache) invalidatePath(path string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.global, path)
	for k := range c.nonGlobal {
		// Keys are "namespace|path@pos"; match on the path segment only.
		if i := strings.IndexByte(k, '|'); i >= 0 && strings.HasPrefix(k[i+1:], path+"@") {
			delete(c.nonGlobal, k)
		}
	}
}
