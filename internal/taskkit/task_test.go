package taskkit

import (
	"errors"
	"strings"
	"testing"
	"time"

	"cadence/internal/sched"
)

func noopJob(time.Time) (any, error) { return nil, nil }

func TestCronTaskDelay(t *testing.T) {
	t.Parallel()
	task, err := NewCron("nightly", "0 0 * * *", noopJob)
	if err != nil {
		t.Fatalf("NewCron error: %v", err)
	}
	// Five minutes before midnight, the next activation is five minutes out.
	ref := time.Date(2025, 3, 10, 23, 55, 0, 0, time.UTC)
	if got := task.DelayToNextRun(ref); got != 5*time.Minute {
		t.Fatalf("delay = %v, want 5m", got)
	}
	if task.ID() != "nightly" {
		t.Fatalf("ID = %q", task.ID())
	}
}

func TestCronTaskEverySpec(t *testing.T) {
	t.Parallel()
	task, err := NewCron("probe", "@every 10m", noopJob)
	if err != nil {
		t.Fatalf("NewCron error: %v", err)
	}
	ref := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)
	if got := task.DelayToNextRun(ref); got != 10*time.Minute {
		t.Fatalf("delay = %v, want 10m", got)
	}
}

func TestCronTaskSixField(t *testing.T) {
	t.Parallel()
	// Seconds-resolution specs are accepted (SecondOptional).
	task, err := NewCron("fast", "*/30 * * * * *", noopJob)
	if err != nil {
		t.Fatalf("NewCron error: %v", err)
	}
	ref := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)
	if got := task.DelayToNextRun(ref); got != 30*time.Second {
		t.Fatalf("delay = %v, want 30s", got)
	}
}

func TestNewCronValidation(t *testing.T) {
	t.Parallel()
	if _, err := NewCron("", "* * * * *", noopJob); err == nil {
		t.Fatal("empty id accepted")
	}
	if _, err := NewCron("x", "bogus", noopJob); err == nil {
		t.Fatal("bogus spec accepted")
	}
	if _, err := NewCron("x", "* * * * *", nil); err == nil {
		t.Fatal("nil job accepted")
	}
}

func TestIntervalTask(t *testing.T) {
	t.Parallel()
	task, err := NewInterval("tick", 42*time.Second, noopJob)
	if err != nil {
		t.Fatalf("NewInterval error: %v", err)
	}
	if got := task.DelayToNextRun(time.Now()); got != 42*time.Second {
		t.Fatalf("delay = %v, want 42s", got)
	}
	if _, err := NewInterval("bad", 0, noopJob); err == nil {
		t.Fatal("zero interval accepted")
	}
}

func TestFromSpec(t *testing.T) {
	t.Parallel()
	cronTask, err := FromSpec("a", "*/5 * * * *", noopJob)
	if err != nil {
		t.Fatalf("FromSpec cron error: %v", err)
	}
	if cronTask.ID() != "a" {
		t.Fatalf("ID = %q", cronTask.ID())
	}
	ivTask, err := FromSpec("b", "15m", noopJob)
	if err != nil {
		t.Fatalf("FromSpec interval error: %v", err)
	}
	if got := ivTask.DelayToNextRun(time.Now()); got != 15*time.Minute {
		t.Fatalf("delay = %v, want 15m", got)
	}
}

func TestMaxRunsPerTask(t *testing.T) {
	t.Parallel()
	strategy := MaxRuns(3)
	runA := &sched.Run{Task: mustInterval(t, "a")}
	runB := &sched.Run{Task: mustInterval(t, "b")}

	// Task a: continues after runs 1 and 2, stops after 3.
	for i := 1; i <= 2; i++ {
		if !strategy.ScheduleNext(runA) {
			t.Fatalf("run %d of a should continue", i)
		}
	}
	if strategy.ScheduleNext(runA) {
		t.Fatal("run 3 of a should stop the chain")
	}
	// Task b counts independently.
	if !strategy.ScheduleNext(runB) {
		t.Fatal("first run of b should continue")
	}
}

func TestPerTaskMax(t *testing.T) {
	t.Parallel()
	strategy := PerTaskMax(map[string]int64{"limited": 2})
	limited := &sched.Run{Task: mustInterval(t, "limited")}
	free := &sched.Run{Task: mustInterval(t, "free")}

	if !strategy.ScheduleNext(limited) {
		t.Fatal("run 1 should continue")
	}
	if strategy.ScheduleNext(limited) {
		t.Fatal("run 2 should stop the chain")
	}
	for i := 0; i < 10; i++ {
		if !strategy.ScheduleNext(free) {
			t.Fatal("unlimited task stopped")
		}
	}
}

func TestStopOnError(t *testing.T) {
	t.Parallel()
	strategy := StopOnError()
	ok := &sched.Run{Task: mustInterval(t, "t")}
	failed := &sched.Run{Task: mustInterval(t, "t"), Err: errors.New("boom")}

	if !strategy.ScheduleNext(ok) {
		t.Fatal("successful run should continue")
	}
	if strategy.ScheduleNext(failed) {
		t.Fatal("failed run should stop the chain")
	}
}

func TestTotalRuns(t *testing.T) {
	t.Parallel()
	strategy := TotalRuns(2)
	run := &sched.Run{Task: mustInterval(t, "t")}
	if !strategy.ScheduleNext(run) {
		t.Fatal("run 1 should continue")
	}
	if strategy.ScheduleNext(run) {
		t.Fatal("run 2 should stop")
	}
}

func TestTimestampRunIDs(t *testing.T) {
	t.Parallel()
	task := mustInterval(t, "report")
	at := time.UnixMilli(1_700_000_123_456)
	got := TimestampRunIDs.RunID(task, at)
	if got != "report/1700000123456" {
		t.Fatalf("RunID = %q", got)
	}
}

func TestCommandJob(t *testing.T) {
	t.Parallel()
	out, err := CommandJob("echo", []string{"hello"}, time.Second)(time.Now())
	if err != nil {
		t.Fatalf("CommandJob error: %v", err)
	}
	if s, _ := out.(string); s != "hello" {
		t.Fatalf("output = %q, want hello", out)
	}
}

func TestCommandJobFailure(t *testing.T) {
	t.Parallel()
	_, err := CommandJob("sh", []string{"-c", "echo nope >&2; exit 3"}, time.Second)(time.Now())
	if err == nil {
		t.Fatal("expected error")
	}
	if !strings.Contains(err.Error(), "nope") {
		t.Fatalf("error should carry command output: %v", err)
	}
}

func mustInterval(t *testing.T, id string) sched.Task {
	t.Helper()
	task, err := NewInterval(id, time.Minute, noopJob)
	if err != nil {
		t.Fatalf("NewInterval(%q): %v", id, err)
	}
	return task
}
