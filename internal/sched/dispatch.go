package sched

import (
	"fmt"
	"runtime/debug"
)

// execute runs on a worker goroutine. It stamps the actual start time, applies
// the task, records exactly one of result/err on the run, and then fans the
// run out on the completion signal.
//
// Task failures (error returns and panics alike) are contained here and
// surface only through the run's Err field; they never reach the pool.
// Completion handlers are deliberately NOT shielded the same way.
func (s *Scheduler) execute(run *Run) {
	run.StartedAt = s.now()
	res, err := s.apply(run)
	if err != nil {
		run.Err = err
	} else {
		run.Result = res
	}
	s.completed.dispatch(run)
}

func (s *Scheduler) apply(run *Run) (res any, err error) {
	defer func() {
		if r := recover(); r != nil {
			res = nil
			err = fmt.Errorf("task panicked: %v\n%s", r, debug.Stack())
		}
	}()
	return run.Task.Apply(s.now(), run)
}
