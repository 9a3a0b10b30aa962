package runstore

import (
	"context"
	"errors"
	"strings"

	logx "cadence/pkg/logx"
)

// Store is the persistence API consumed by the daemon.
type Store interface {
	// ReplacePending atomically replaces the pending-run checkpoint.
	ReplacePending(ctx context.Context, runs []PendingRun) error
	ListPending(ctx context.Context) ([]PendingRun, error)
	DeletePending(ctx context.Context, runID string) error
	RecordOutcome(ctx context.Context, o Outcome) error
	Close() error
}

// Open initializes the configured store.
// It returns (nil, nil) if persistence is disabled.
func Open(cfg Config, log logx.Logger) (Store, error) {
	driver := strings.ToLower(strings.TrimSpace(cfg.Driver))
	if driver == "" || driver == "none" {
		return nil, nil
	}
	if log.IsZero() {
		log = logx.Nop()
	}

	switch driver {
	case "sqlite", "sqlite3":
		return openSQLite(cfg, log)
	default:
		return nil, errors.New("unknown run store driver: " + driver)
	}
}
