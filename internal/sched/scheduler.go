package sched

import (
	"errors"
	"sync"
	"time"

	"cadence/internal/pool"
	logx "cadence/pkg/logx"
)

// rescheduleHandler is the reserved name the engine's own completion handler
// is attached under.
const rescheduleHandler = "sched.reschedule"

// DefaultPollingInterval is the trigger cadence used when Config leaves
// PollingInterval unset. It is also the finest scheduling granularity the
// engine can honor.
const DefaultPollingInterval = 100 * time.Millisecond

// Config assembles a Scheduler. Zero-value fields fall back to defaults:
// UUIDRunIDs, RunForever and an unbounded pool.
type Config struct {
	// PollingInterval is the fixed trigger cadence. Delays shorter than this
	// are clamped up to it.
	PollingInterval time.Duration

	IDs  RunIDGenerator
	Stop StopStrategy
	Pool WorkerPool
}

// Scheduler drives periodic task runs: it computes each run's execution time,
// drains due runs to the worker pool on a fixed-interval tick, and decides
// after every completion whether (and when) the next run happens.
//
// A single goroutine owns all drain/dispatch decisions, so ticks never
// overlap. Workers run in true parallel; the only state shared across
// goroutines is the ready queue and the deletion set.
type Scheduler struct {
	cfg Config
	log logx.Logger

	queue     readyQueue
	deleted   deletionSet
	completed CompletionSignal

	// now is swapped out in tests.
	now func() time.Time

	mu       sync.Mutex
	stopCh   chan struct{}
	stopDone chan struct{}
}

func New(cfg Config, log logx.Logger) *Scheduler {
	if cfg.PollingInterval <= 0 {
		cfg.PollingInterval = DefaultPollingInterval
	}
	if cfg.IDs == nil {
		cfg.IDs = UUIDRunIDs
	}
	if cfg.Stop == nil {
		cfg.Stop = RunForever
	}
	if cfg.Pool == nil {
		cfg.Pool = pool.NewUnbounded()
	}
	if log.IsZero() {
		log = logx.Nop()
	}
	return &Scheduler{cfg: cfg, log: log, now: time.Now}
}

// OnCompleted exposes the completion signal so callers can attach their own
// handlers by name. Handlers run synchronously on the completing worker
// goroutine, after the engine's own reschedule handler.
func (s *Scheduler) OnCompleted() *CompletionSignal { return &s.completed }

// Start wires the reschedule handler and the polling trigger, then clears any
// residual state. Idempotent while running.
func (s *Scheduler) Start() {
	s.mu.Lock()
	if s.stopCh != nil {
		s.mu.Unlock()
		return
	}
	s.stopCh = make(chan struct{})
	s.stopDone = make(chan struct{})
	stopCh, done := s.stopCh, s.stopDone
	s.mu.Unlock()

	s.completed.Attach(rescheduleHandler, s.handleCompletion)
	s.Clear()
	go s.run(stopCh, done)
	s.log.Info("scheduler started", logx.Duration("polling_interval", s.cfg.PollingInterval))
}

// Stop detaches the trigger. In-flight worker executions are not cancelled;
// pending runs stay queued until Clear or the next Start.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	if s.stopCh == nil {
		s.mu.Unlock()
		return
	}
	stopCh, done := s.stopCh, s.stopDone
	s.stopCh = nil
	s.stopDone = nil
	s.mu.Unlock()

	close(stopCh)
	<-done
	s.log.Info("scheduler stopped")
}

// Clear removes every pending run and every deletion mark.
func (s *Scheduler) Clear() {
	s.queue.Clear()
	s.deleted.Clear()
	s.log.Info("scheduler queue purged")
}

// Schedule schedules the task's next run relative to the current time.
func (s *Scheduler) Schedule(task Task) (string, bool) {
	return s.ScheduleWithReference(task, s.now())
}

// ScheduleWithReference schedules the task's next run relative to ref.
//
// The delay comes from the task itself; a negative delay means the chain is
// over and no run id is returned. Delays below the polling interval are
// clamped up to it, since the engine cannot resolve finer than its trigger.
func (s *Scheduler) ScheduleWithReference(task Task, ref time.Time) (string, bool) {
	delay := task.DelayToNextRun(ref)
	if delay < 0 {
		s.log.Info("negative delay, task chain ends", logx.String("task", task.ID()))
		return "", false
	}
	if delay < s.cfg.PollingInterval {
		s.log.Warn("delay readjusted to polling interval",
			logx.String("task", task.ID()),
			logx.Duration("delay", delay),
			logx.Duration("polling_interval", s.cfg.PollingInterval))
		delay = s.cfg.PollingInterval
	}
	executionTime := ref.Add(delay)
	runID := s.cfg.IDs.RunID(task, executionTime)
	id, ok := s.ScheduleRun(task, executionTime, runID)

	s.log.Debug("run scheduled",
		logx.String("task", task.ID()),
		logx.String("run", runID),
		logx.Duration("delay", delay),
		logx.Time("at", executionTime),
		logx.Time("ref", ref))
	return id, ok
}

// ScheduleAt schedules a run at exactly t, bypassing delay computation. A
// fresh run id is still generated; subsequent runs proceed in the usual way.
func (s *Scheduler) ScheduleAt(task Task, t time.Time) (string, bool) {
	runID := s.cfg.IDs.RunID(task, t)
	return s.ScheduleRun(task, t, runID)
}

// ScheduleNow schedules a run for the current time. It is still subject to
// the polling cadence: the run fires on the next tick.
func (s *Scheduler) ScheduleNow(task Task) (string, bool) {
	return s.ScheduleAt(task, s.now())
}

// ScheduleRun is the low-level entry point: no delay computation, no id
// generation. It exists so an external recovery path can re-insert persisted
// runs after a restart. Avoid it otherwise.
func (s *Scheduler) ScheduleRun(task Task, executionTime time.Time, runID string) (string, bool) {
	s.queue.Insert(&Run{RunID: runID, Task: task, Target: executionTime})
	s.log.Debug("run queued",
		logx.String("task", task.ID()), logx.String("run", runID), logx.Time("at", executionTime))
	return runID, true
}

// Delete marks a task id for deletion. Best-effort and asynchronous: no
// future dispatch or reschedule happens for the id from this point on, but a
// run already handed to a worker is never interrupted.
func (s *Scheduler) Delete(taskID string) {
	s.deleted.Add(taskID)
}

// run is the trigger loop. Exactly one instance owns drain decisions.
func (s *Scheduler) run(stopCh, done chan struct{}) {
	defer close(done)
	ticker := time.NewTicker(s.cfg.PollingInterval)
	defer ticker.Stop()
	for {
		select {
		case <-stopCh:
			return
		case <-ticker.C:
			s.tick(s.now())
		}
	}
}

// tick drains every run due at currentTime, in target-time order, submitting
// each to the pool unless a deletion mark suppresses it. A panic abandons
// this tick only.
func (s *Scheduler) tick(currentTime time.Time) {
	defer func() {
		if r := recover(); r != nil {
			s.log.Error("tick aborted", logx.Any("panic", r))
		}
	}()
	for {
		run, ok := s.queue.PeekEarliest()
		if !ok {
			return
		}
		if currentTime.Before(run.Target) {
			// Queue order guarantees nothing later is due either.
			return
		}
		taskID := run.Task.ID()
		if s.deleted.ConsumeIfPresent(taskID) {
			s.queue.Remove(run)
			s.log.Debug("run suppressed, task deleted",
				logx.String("task", taskID), logx.String("run", run.RunID))
			continue
		}
		s.queue.Remove(run)
		s.cfg.Pool.Submit(func() { s.execute(run) })
		s.log.Debug("run submitted",
			logx.String("task", taskID), logx.String("run", run.RunID))
	}
}

// handleCompletion is the engine's own completion handler, always attached
// first: log the outcome, honor a pending deletion, consult the stop
// strategy, and reschedule with the reference time rewound by observed drift.
func (s *Scheduler) handleCompletion(run *Run) {
	taskID := run.Task.ID()
	if run.Err == nil {
		s.log.Info("run complete",
			logx.String("task", taskID), logx.String("run", run.RunID))
	} else {
		s.log.Warn("run complete with error",
			logx.String("task", taskID), logx.String("run", run.RunID),
			logx.String("cause", rootCause(run.Err).Error()))
	}
	if s.deleted.ConsumeIfPresent(taskID) {
		// Delete arrived while the run was executing.
		s.log.Debug("task deleted, no further scheduling", logx.String("task", taskID))
		return
	}
	if !s.cfg.Stop.ScheduleNext(run) {
		s.log.Info("stop strategy ended task chain", logx.String("task", taskID))
		return
	}
	drift := run.Drift()
	s.log.Debug("adjusting next run for drift",
		logx.String("task", taskID), logx.Duration("drift", drift))
	s.ScheduleWithReference(run.Task, s.now().Add(-drift))
}

// rootCause walks the Unwrap chain to the innermost error.
func rootCause(err error) error {
	for {
		next := errors.Unwrap(err)
		if next == nil {
			return err
		}
		err = next
	}
}
