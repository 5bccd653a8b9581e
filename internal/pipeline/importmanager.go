package pipeline

import "sync"

// ImportStatus is a path's position in the index lifecycle.
type ImportStatus uint8

const (
	NotSeen ImportStatus = iota
	ProcessingInitialImport
	Imported
	ProcessingUpdate
)

func (s ImportStatus) String() string {
	switch s {
	case ProcessingInitialImport:
		return "ProcessingInitialImport"
	case Imported:
		return "Imported"
	case ProcessingUpdate:
		return "ProcessingUpdate"
	default:
		return "NotSeen"
	}
}

// ImportManager tracks the per-path import status that prevents two
// in-flight indexer passes from applying overlapping updates for the same
// file. All transitions are CAS-style: a caller names the status it
// expects to see and the status it wants to move to, and the call only
// takes effect if the current status still matches.
type ImportManager struct {
	mu     sync.RWMutex
	status map[string]ImportStatus
}

// NewImportManager returns an empty ImportManager.
func NewImportManager() *ImportManager {
	return &ImportManager{status: map[string]ImportStatus{}}
}

// Status returns path's current status (NotSeen if never observed).
func (m *ImportManager) Status(path string) ImportStatus {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.status[path]
}

// SetStatusAtomic moves path from `from` to `to` iff its current status is
// still `from`. A transition to the same status always fails (false),
// matching the idempotent-self-transition rule.
func (m *ImportManager) SetStatusAtomic(path string, from, to ImportStatus) bool {
	if from == to {
		return false
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.status[path] != from {
		return false
	}
	m.status[path] = to
	return true
}

// SetStatusAtomicBatch applies SetStatusAtomic to every path under a single
// write lock, reducing contention when a workspace-wide re-index advances
// many paths at once. Returns, per path in order, whether its transition
// took effect.
func (m *ImportManager) SetStatusAtomicBatch(paths []string, from, to ImportStatus) []bool {
	results := make([]bool, len(paths))
	if from == to {
		return results
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, p := range paths {
		if m.status[p] == from {
			m.status[p] = to
			results[i] = true
		}
	}
	return results
}
