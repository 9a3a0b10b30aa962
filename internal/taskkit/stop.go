package taskkit

import (
	"sync"
	"sync/atomic"

	"cadence/internal/sched"
)

// MaxRuns stops a task chain after n completed runs. Counting is per task id,
// so one strategy instance can serve a whole scheduler.
func MaxRuns(n int64) sched.StopStrategy {
	return &maxRuns{n: n}
}

type maxRuns struct {
	n    int64
	mu   sync.Mutex
	done map[string]int64
}

func (m *maxRuns) ScheduleNext(run *sched.Run) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.done == nil {
		m.done = make(map[string]int64)
	}
	id := run.Task.ID()
	m.done[id]++
	return m.done[id] < m.n
}

// PerTaskMax stops each task chain after its configured number of runs.
// Tasks absent from limits (or with limit <= 0) run forever.
func PerTaskMax(limits map[string]int64) sched.StopStrategy {
	cp := make(map[string]int64, len(limits))
	for k, v := range limits {
		cp[k] = v
	}
	return &perTaskMax{limits: cp}
}

type perTaskMax struct {
	limits map[string]int64
	mu     sync.Mutex
	done   map[string]int64
}

func (m *perTaskMax) ScheduleNext(run *sched.Run) bool {
	id := run.Task.ID()
	limit := m.limits[id]
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.done == nil {
		m.done = make(map[string]int64)
	}
	m.done[id]++
	if limit <= 0 {
		return true
	}
	return m.done[id] < limit
}

// StopOnError ends a task chain at its first failed run.
func StopOnError() sched.StopStrategy { return stopOnError{} }

type stopOnError struct{}

func (stopOnError) ScheduleNext(run *sched.Run) bool { return run.Err == nil }

// TotalRuns stops scheduling anything once n runs completed across all tasks.
// Mostly useful in examples and tests.
func TotalRuns(n int64) sched.StopStrategy {
	return &totalRuns{n: n}
}

type totalRuns struct {
	n    int64
	seen atomic.Int64
}

func (t *totalRuns) ScheduleNext(*sched.Run) bool { return t.seen.Add(1) < t.n }
