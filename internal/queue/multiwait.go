package queue

import (
	"sort"
	"sync"
	"unsafe"
)

// probeQueue is the subset of Queue[T]'s behavior MultiQueueWaiter needs;
// it has no type parameter in its method signatures, so queues of different
// element types can be registered with the same waiter.
type probeQueue interface {
	hasState() bool
	addExternalNotify(f func())
	ptr() uintptr
}

func (q *Queue[T]) ptr() uintptr { return uintptr(unsafe.Pointer(q)) }

// MultiQueueWaiter lets one consumer block until any of several queues has
// state. Constituents are always acquired/consulted in a fixed,
// deterministic order (by address) to avoid deadlock with other
// waiters touching overlapping queue sets, and a single condition variable
// is shared across all of a waiter's queues.
type MultiQueueWaiter struct {
	mu     sync.Mutex
	cond   *sync.Cond
	queues []probeQueue
}

// NewMultiQueueWaiter registers the given queues, sorted into a
// deterministic order by address.
func NewMultiQueueWaiter[T any](queues ...*Queue[T]) *MultiQueueWaiter {
	w := &MultiQueueWaiter{}
	w.cond = sync.NewCond(&w.mu)
	probes := make([]probeQueue, len(queues))
	for i, q := range queues {
		probes[i] = q
	}
	sort.Slice(probes, func(i, j int) bool { return probes[i].ptr() < probes[j].ptr() })
	w.queues = probes
	for _, q := range probes {
		q.addExternalNotify(w.notify)
	}
	return w
}

func (w *MultiQueueWaiter) notify() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.cond.Broadcast()
}

// Wait blocks until at least one registered queue has state, then returns
// the index (in registration-sorted order) of the first such queue found.
// Callers should TryDequeue on that queue and, if it lost a race to another
// consumer, call Wait again.
func (w *MultiQueueWaiter) Wait() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	for {
		for i, q := range w.queues {
			if q.hasState() {
				return i
			}
		}
		w.cond.Wait()
	}
}
