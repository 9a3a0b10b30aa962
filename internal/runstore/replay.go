package runstore

import (
	"context"
	"time"

	"cadence/internal/sched"
	logx "cadence/pkg/logx"
)

// TaskResolver maps a persisted task id back to a live Task. Task definitions
// themselves are config, not state, so replay needs the caller to supply them.
type TaskResolver func(taskID string) (sched.Task, bool)

// Replay re-inserts every checkpointed pending run through the engine's
// low-level ScheduleRun entry point, preserving original run ids and target
// times. Runs whose task id no longer resolves are skipped with a warning.
// Returns the number of restored runs.
func Replay(ctx context.Context, st Store, s *sched.Scheduler, resolve TaskResolver, log logx.Logger) (int, error) {
	if st == nil {
		return 0, nil
	}
	if log.IsZero() {
		log = logx.Nop()
	}
	pending, err := st.ListPending(ctx)
	if err != nil {
		return 0, err
	}
	restored := 0
	for _, p := range pending {
		task, ok := resolve(p.TaskID)
		if !ok {
			log.Warn("pending run references unknown task, skipped",
				logx.String("task", p.TaskID), logx.String("run", p.RunID))
			continue
		}
		s.ScheduleRun(task, p.Target, p.RunID)
		restored++
	}
	if restored > 0 {
		log.Info("restored pending runs", logx.Int("count", restored))
	}
	return restored, nil
}

// Checkpoint writes the engine's current pending-run snapshot to the store.
func Checkpoint(ctx context.Context, st Store, s *sched.Scheduler) error {
	if st == nil {
		return nil
	}
	snap := s.Snapshot()
	runs := make([]PendingRun, 0, len(snap.Runs))
	for _, r := range snap.Runs {
		runs = append(runs, PendingRun{RunID: r.RunID, TaskID: r.TaskID, Target: r.Target})
	}
	return st.ReplacePending(ctx, runs)
}

func fromUnixMilli(ms int64) time.Time {
	if ms == 0 {
		return time.Time{}
	}
	return time.UnixMilli(ms)
}
