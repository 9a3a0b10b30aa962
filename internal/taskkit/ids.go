package taskkit

import (
	"strconv"
	"time"

	"cadence/internal/sched"
)

// TimestampRunIDs names runs taskID/unixmilli-of-target. Readable in logs and
// stable across restarts for the same planned execution time; prefer the
// engine's default UUID generator when two runs of one task may share a
// target time.
var TimestampRunIDs sched.RunIDGenerator = timestampRunIDs{}

type timestampRunIDs struct{}

func (timestampRunIDs) RunID(task sched.Task, executionTime time.Time) string {
	return task.ID() + "/" + strconv.FormatInt(executionTime.UnixMilli(), 10)
}
