package sched

import (
	"sync"
	"testing"
	"time"
)

func mkRun(id string, at time.Time) *Run {
	return &Run{RunID: id, Task: &fakeTask{id: "task-" + id}, Target: at}
}

func TestQueueOrdering(t *testing.T) {
	t.Parallel()
	base := time.Unix(1_700_000_000, 0)

	var q readyQueue
	q.Insert(mkRun("c", base.Add(3*time.Second)))
	q.Insert(mkRun("a", base.Add(1*time.Second)))
	q.Insert(mkRun("b", base.Add(2*time.Second)))

	want := []string{"a", "b", "c"}
	for _, id := range want {
		r, ok := q.PeekEarliest()
		if !ok {
			t.Fatalf("queue empty, want run %q", id)
		}
		if r.RunID != id {
			t.Fatalf("PeekEarliest = %q, want %q", r.RunID, id)
		}
		if !q.Remove(r) {
			t.Fatalf("Remove(%q) = false, want true", id)
		}
	}
	if _, ok := q.PeekEarliest(); ok {
		t.Fatal("queue should be empty")
	}
}

func TestQueueRemoveByIdentity(t *testing.T) {
	t.Parallel()
	base := time.Unix(1_700_000_000, 0)

	var q readyQueue
	r1 := mkRun("r1", base)
	r2 := mkRun("r2", base) // same target, distinct record
	q.Insert(r1)
	q.Insert(r2)

	if !q.Remove(r2) {
		t.Fatal("Remove(r2) = false, want true")
	}
	if q.Remove(r2) {
		t.Fatal("second Remove(r2) = true, want false")
	}
	head, ok := q.PeekEarliest()
	if !ok || head != r1 {
		t.Fatalf("head = %v, want r1", head)
	}
	if q.Len() != 1 {
		t.Fatalf("Len = %d, want 1", q.Len())
	}
}

func TestQueueClear(t *testing.T) {
	t.Parallel()
	base := time.Unix(1_700_000_000, 0)

	var q readyQueue
	r := mkRun("r", base)
	q.Insert(r)
	q.Clear()
	if q.Len() != 0 {
		t.Fatalf("Len after Clear = %d, want 0", q.Len())
	}
	if q.Remove(r) {
		t.Fatal("Remove after Clear = true, want false")
	}
}

func TestQueueConcurrentProducers(t *testing.T) {
	t.Parallel()
	base := time.Unix(1_700_000_000, 0)

	var q readyQueue
	var wg sync.WaitGroup
	const n = 50
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			q.Insert(mkRun("r", base.Add(time.Duration(i)*time.Millisecond)))
		}(i)
	}
	wg.Wait()

	if q.Len() != n {
		t.Fatalf("Len = %d, want %d", q.Len(), n)
	}
	// Drain must come out non-decreasing by target.
	var prev time.Time
	for i := 0; i < n; i++ {
		r, ok := q.PeekEarliest()
		if !ok {
			t.Fatalf("queue empty at %d", i)
		}
		if r.Target.Before(prev) {
			t.Fatalf("out of order: %v before %v", r.Target, prev)
		}
		prev = r.Target
		q.Remove(r)
	}
}
