package taskkit

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/robfig/cron/v3"

	"cadence/internal/sched"
)

// Job is the work body of a task. It receives the dispatch time and returns
// the run's result value or an error.
type Job func(now time.Time) (any, error)

// SecondOptional allows both 5-field and 6-field (with seconds) cron specs.
var cronParser = cron.NewParser(
	cron.SecondOptional | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)

// NewCron returns a task whose next-run delay follows a cron expression.
// Supported forms are whatever robfig/cron accepts under the parser above,
// including "@every 55m" and "@hourly" descriptors.
func NewCron(id, spec string, job Job) (sched.Task, error) {
	if strings.TrimSpace(id) == "" {
		return nil, errors.New("task id required")
	}
	if job == nil {
		return nil, errors.New("job required")
	}
	schedule, err := cronParser.Parse(spec)
	if err != nil {
		return nil, fmt.Errorf("cron spec %q: %w", spec, err)
	}
	return &cronTask{id: id, schedule: schedule, job: job}, nil
}

type cronTask struct {
	id       string
	schedule cron.Schedule
	job      Job
}

func (t *cronTask) ID() string { return t.id }

func (t *cronTask) DelayToNextRun(ref time.Time) time.Duration {
	next := t.schedule.Next(ref)
	if next.IsZero() {
		// The expression has no future activation; end the chain.
		return -1
	}
	return next.Sub(ref)
}

func (t *cronTask) Apply(now time.Time, _ *sched.Run) (any, error) {
	return t.job(now)
}

// NewInterval returns a task that runs every fixed period.
func NewInterval(id string, every time.Duration, job Job) (sched.Task, error) {
	if strings.TrimSpace(id) == "" {
		return nil, errors.New("task id required")
	}
	if every <= 0 {
		return nil, fmt.Errorf("interval must be > 0, got %v", every)
	}
	if job == nil {
		return nil, errors.New("job required")
	}
	return &intervalTask{id: id, every: every, job: job}, nil
}

type intervalTask struct {
	id    string
	every time.Duration
	job   Job
}

func (t *intervalTask) ID() string { return t.id }

func (t *intervalTask) DelayToNextRun(time.Time) time.Duration { return t.every }

func (t *intervalTask) Apply(now time.Time, _ *sched.Run) (any, error) {
	return t.job(now)
}

// FromSpec builds a task from a schedule string (see ParseSchedule for the
// accepted forms).
func FromSpec(id, schedule string, job Job) (sched.Task, error) {
	ps, err := ParseSchedule(schedule)
	if err != nil {
		return nil, err
	}
	switch ps.Kind {
	case SpecCron:
		return NewCron(id, ps.Cron, job)
	case SpecInterval:
		return NewInterval(id, ps.Every, job)
	default:
		return nil, fmt.Errorf("unsupported schedule kind")
	}
}
