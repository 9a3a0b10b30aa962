package sched

import (
	"container/heap"
	"sync"
)

// readyQueue is the time-ordered container of pending runs.
//
// It is a mutex-guarded min-heap keyed by target execution time: many
// producers (scheduling callers, the reschedule handler) insert concurrently,
// a single consumer (the tick loop) peeks and removes. Ties on target time are
// broken arbitrarily but stay stable within one drain.
type readyQueue struct {
	mu sync.Mutex
	h  runHeap
}

func (q *readyQueue) Insert(r *Run) {
	q.mu.Lock()
	heap.Push(&q.h, r)
	q.mu.Unlock()
}

// PeekEarliest returns the run with the smallest target time without removing
// it. ok is false when the queue is empty.
func (q *readyQueue) PeekEarliest() (r *Run, ok bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.h) == 0 {
		return nil, false
	}
	return q.h[0], true
}

// Remove removes the given run by identity. It reports whether the run was
// still queued.
func (q *readyQueue) Remove(r *Run) bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	i := r.heapIndex
	if i < 0 || i >= len(q.h) || q.h[i] != r {
		return false
	}
	heap.Remove(&q.h, i)
	return true
}

func (q *readyQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.h)
}

func (q *readyQueue) Clear() {
	q.mu.Lock()
	for _, r := range q.h {
		r.heapIndex = -1
	}
	q.h = nil
	q.mu.Unlock()
}

// Pending returns a copy of the queued runs in no particular order.
func (q *readyQueue) Pending() []*Run {
	q.mu.Lock()
	defer q.mu.Unlock()
	out := make([]*Run, len(q.h))
	copy(out, q.h)
	return out
}

// runHeap implements heap.Interface over *Run ordered by Target ascending,
// tracking each run's index so Remove-by-identity stays O(log n).
type runHeap []*Run

func (h runHeap) Len() int           { return len(h) }
func (h runHeap) Less(i, j int) bool { return h[i].Target.Before(h[j].Target) }

func (h runHeap) Swap(i, j int) {
	h[i], h[j] = h[j], h[i]
	h[i].heapIndex = i
	h[j].heapIndex = j
}

func (h *runHeap) Push(x any) {
	r := x.(*Run)
	r.heapIndex = len(*h)
	*h = append(*h, r)
}

func (h *runHeap) Pop() any {
	old := *h
	n := len(old)
	r := old[n-1]
	old[n-1] = nil
	r.heapIndex = -1
	*h = old[:n-1]
	return r
}
