package runstore

import (
	"errors"
	"time"
)

var ErrDisabled = errors.New("run store disabled")

// Config configures persistence.
//
// Driver values:
//   - "sqlite": SQLite database file
//
// If Driver is empty or "none", persistence is disabled.
type Config struct {
	Driver      string
	Path        string
	BusyTimeout time.Duration // sqlite only; 0 means default
	// KeepOutcomes bounds the outcome history (0 = default 1000 rows).
	KeepOutcomes int
}

// PendingRun is one checkpointed, not-yet-dispatched run.
type PendingRun struct {
	RunID  string
	TaskID string
	Target time.Time
}

// Outcome records one finished run.
// Keep it compact and schema-stable.
type Outcome struct {
	RunID    string
	TaskID   string
	Target   time.Time
	Started  time.Time
	Finished time.Time
	Error    string // empty on success
}
