// Package queue implements the multi-producer, multi-consumer FIFO the
// indexing pipeline uses to move work between the scanner, indexer
// workers, the QueryDB thread, and the stdout writer: two internal deques
// (priority and normal), blocking/non-blocking dequeue, and a multi-queue
// waiter that lets one consumer block on several queues at once.
package queue

import (
	"container/list"
	"sync"
)

// Queue is a FIFO with a priority lane: Dequeue always returns a priority
// item before a normal one, regardless of arrival order. IsEmpty and Len
// read both deques under the queue's lock; there is no separate atomic
// count, so an emptiness check is not lock-free.
type Queue[T any] struct {
	mu       sync.Mutex
	cond     *sync.Cond
	normal   *list.List
	priority *list.List
	closed   bool

	// waiters registered via a MultiQueueWaiter that should be notified on
	// enqueue in addition to this queue's own condition variable.
	externalNotify []func()
}

// New creates an empty Queue.
func New[T any]() *Queue[T] {
	q := &Queue[T]{
		normal:   list.New(),
		priority: list.New(),
	}
	q.cond = sync.NewCond(&q.mu)
	return q
}

// Enqueue pushes value to the priority deque if priority is true, else to
// the normal deque, and wakes exactly one waiter.
func (q *Queue[T]) Enqueue(value T, priority bool) {
	q.mu.Lock()
	if priority {
		q.priority.PushBack(value)
	} else {
		q.normal.PushBack(value)
	}
	notify := append([]func(){}, q.externalNotify...)
	q.mu.Unlock()

	q.cond.Signal()
	for _, f := range notify {
		f()
	}
}

// Close marks the queue closed; blocked Dequeue calls wake and return
// ok=false once drained.
func (q *Queue[T]) Close() {
	q.mu.Lock()
	q.closed = true
	q.mu.Unlock()
	q.cond.Broadcast()
}

// popLocked removes and returns the next item (priority first) without
// touching the lock itself; caller must hold q.mu.
func (q *Queue[T]) popLocked() (T, bool) {
	if front := q.priority.Front(); front != nil {
		q.priority.Remove(front)
		return front.Value.(T), true
	}
	if front := q.normal.Front(); front != nil {
		q.normal.Remove(front)
		return front.Value.(T), true
	}
	var zero T
	return zero, false
}

func (q *Queue[T]) hasStateLocked() bool {
	return q.priority.Len() > 0 || q.normal.Len() > 0
}

// Dequeue blocks until an item is available or the queue is closed and
// drained, returning ok=false in the latter case.
func (q *Queue[T]) Dequeue() (T, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	for !q.hasStateLocked() && !q.closed {
		q.cond.Wait()
	}
	if v, ok := q.popLocked(); ok {
		return v, true
	}
	var zero T
	return zero, false
}

// TryDequeue is non-blocking. When priorityFirst is true (the default
// behavior of Dequeue), the priority deque is checked first; when false,
// the normal deque is checked first; used by tests and by callers that
// want to guarantee forward progress on background work even while
// interactive requests keep arriving.
func (q *Queue[T]) TryDequeue(priorityFirst bool) (T, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if priorityFirst {
		return q.popLocked()
	}
	if front := q.normal.Front(); front != nil {
		q.normal.Remove(front)
		return front.Value.(T), true
	}
	if front := q.priority.Front(); front != nil {
		q.priority.Remove(front)
		return front.Value.(T), true
	}
	var zero T
	return zero, false
}

// IsEmpty reports whether both deques are empty. Uses the lock (cheap,
// uncontended read) rather than a separate atomic counter, which Go's
// race detector would flag if read unsynchronized.
func (q *Queue[T]) IsEmpty() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return !q.hasStateLocked()
}

// Len returns the total number of queued items across both deques.
func (q *Queue[T]) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.priority.Len() + q.normal.Len()
}

// ClosedAndDrained reports whether Close has been called and both deques
// have since been emptied, the signal a consumer loop driven by
// MultiQueueWaiter uses to stop, since a closed-but-empty queue still
// reports hasState() true (to wake blocked waiters) but will never yield
// another item from TryDequeue/Dequeue.
func (q *Queue[T]) ClosedAndDrained() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.closed && !q.hasStateLocked()
}

// addExternalNotify registers a callback invoked (outside the lock) after
// every Enqueue, used by MultiQueueWaiter to wake a consumer blocked across
// several queues.
func (q *Queue[T]) addExternalNotify(f func()) {
	q.mu.Lock()
	q.externalNotify = append(q.externalNotify, f)
	q.mu.Unlock()
}

// hasState is the lock-protected probe MultiQueueWaiter polls after waking.
func (q *Queue[T]) hasState() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.hasStateLocked() || q.closed
}
