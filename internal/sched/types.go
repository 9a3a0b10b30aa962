package sched

import (
	"time"

	"github.com/google/uuid"
)

// Task is the unit of periodic work driven by the Scheduler.
//
// DelayToNextRun returns the delay from ref to the task's next run. Returning
// a negative delay is the one mechanism by which a task chain self-terminates:
// nothing further is scheduled and no run id is handed out.
type Task interface {
	ID() string
	DelayToNextRun(ref time.Time) time.Duration
	Apply(now time.Time, run *Run) (any, error)
}

// RunIDGenerator names individual runs. Ids must be unique across runs.
type RunIDGenerator interface {
	RunID(task Task, executionTime time.Time) string
}

// StopStrategy decides, after each completed run, whether the task's next run
// should be scheduled.
type StopStrategy interface {
	ScheduleNext(run *Run) bool
}

// WorkerPool executes submitted runs. Submit is asynchronous fire-and-forget;
// the engine never blocks on a worker and imposes no upper bound of its own.
type WorkerPool interface {
	Submit(fn func())
}

// Run is the record of one concrete execution attempt of a task.
//
// RunID, Task and Target are fixed at schedule time. StartedAt and exactly one
// of Result/Err are written once by the executing worker; the completion
// handlers read them. A reschedule creates a brand-new Run with a fresh run
// id: there is no cross-run identity beyond the shared task id.
type Run struct {
	RunID  string
	Task   Task
	Target time.Time

	StartedAt time.Time
	Result    any
	Err       error

	heapIndex int
}

// Drift is the observed lateness of the run: actual start minus planned
// target. The reschedule path rewinds its reference time by this amount so
// cadence stays anchored to the original schedule instead of compounding lag.
func (r *Run) Drift() time.Duration {
	return r.StartedAt.Sub(r.Target)
}

func (r *Run) Failed() bool { return r.Err != nil }

// UUIDRunIDs is the default run id generator: taskID/uuid.
var UUIDRunIDs RunIDGenerator = uuidRunIDs{}

type uuidRunIDs struct{}

func (uuidRunIDs) RunID(task Task, _ time.Time) string {
	return task.ID() + "/" + uuid.NewString()
}

// RunForever is the default stop strategy: every completed run schedules the
// next one.
var RunForever StopStrategy = runForever{}

type runForever struct{}

func (runForever) ScheduleNext(*Run) bool { return true }
