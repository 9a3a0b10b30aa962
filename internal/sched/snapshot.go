package sched

import "time"

// PendingRun describes one queued, not-yet-dispatched run.
type PendingRun struct {
	RunID  string
	TaskID string
	Target time.Time
}

// Snapshot is a point-in-time diagnostic view of the engine. The pending list
// also serves as the checkpoint source for external persistence.
type Snapshot struct {
	Running        bool
	Pending        int
	PendingDeletes int
	NextTarget     time.Time // zero when the queue is empty
	Runs           []PendingRun
}

func (s *Scheduler) Snapshot() Snapshot {
	s.mu.Lock()
	running := s.stopCh != nil
	s.mu.Unlock()

	runs := s.queue.Pending()
	snap := Snapshot{
		Running:        running,
		Pending:        len(runs),
		PendingDeletes: s.deleted.Len(),
		Runs:           make([]PendingRun, 0, len(runs)),
	}
	for _, r := range runs {
		snap.Runs = append(snap.Runs, PendingRun{RunID: r.RunID, TaskID: r.Task.ID(), Target: r.Target})
		if snap.NextTarget.IsZero() || r.Target.Before(snap.NextTarget) {
			snap.NextTarget = r.Target
		}
	}
	return snap
}
