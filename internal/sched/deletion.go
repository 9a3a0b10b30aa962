package sched

import "sync"

// deletionSet holds task ids marked for deletion.
//
// A mark is consumed by whichever checkpoint observes it first: the pre-dispatch
// check in the tick loop, or the post-completion check in the reschedule
// handler. Once consumed it does not re-arm for later runs of the same task.
type deletionSet struct {
	mu  sync.Mutex
	ids map[string]struct{}
}

// Add marks a task id for deletion. Idempotent.
func (d *deletionSet) Add(taskID string) {
	d.mu.Lock()
	if d.ids == nil {
		d.ids = make(map[string]struct{})
	}
	d.ids[taskID] = struct{}{}
	d.mu.Unlock()
}

// ConsumeIfPresent atomically tests for a mark and removes it.
func (d *deletionSet) ConsumeIfPresent(taskID string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	if _, ok := d.ids[taskID]; !ok {
		return false
	}
	delete(d.ids, taskID)
	return true
}

func (d *deletionSet) Len() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.ids)
}

func (d *deletionSet) Clear() {
	d.mu.Lock()
	d.ids = nil
	d.mu.Unlock()
}
