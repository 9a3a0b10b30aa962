package runstore

import (
	"context"
	"time"

	"cadence/internal/eventbus"
	logx "cadence/pkg/logx"
)

// Recorder consumes run events off the bus and persists outcomes. It runs on
// its own goroutine so database writes never happen on a completing worker.
type Recorder struct {
	st  Store
	log logx.Logger
}

func NewRecorder(st Store, log logx.Logger) *Recorder {
	if log.IsZero() {
		log = logx.Nop()
	}
	return &Recorder{st: st, log: log}
}

// Run blocks until ctx is done or events closes.
func (r *Recorder) Run(ctx context.Context, events <-chan eventbus.RunEvent) {
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-events:
			if !ok {
				return
			}
			if ev.Kind != eventbus.RunCompleted {
				continue
			}
			r.record(ev)
		}
	}
}

func (r *Recorder) record(ev eventbus.RunEvent) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	if err := r.st.DeletePending(ctx, ev.RunID); err != nil {
		r.log.Warn("pending delete failed", logx.String("run", ev.RunID), logx.Err(err))
	}
	o := Outcome{
		RunID:    ev.RunID,
		TaskID:   ev.TaskID,
		Target:   ev.Target,
		Started:  ev.Started,
		Finished: ev.At,
		Error:    ev.Err,
	}
	if err := r.st.RecordOutcome(ctx, o); err != nil {
		r.log.Warn("outcome record failed", logx.String("run", ev.RunID), logx.Err(err))
	}
}
