package runstore

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"

	_ "modernc.org/sqlite"

	logx "cadence/pkg/logx"
)

//go:embed migrations.sql
var migrationsFS embed.FS

type sqliteStore struct {
	db  *sql.DB
	log logx.Logger

	keepOutcomes int
	opCount      atomic.Uint64
	pruneEvery   uint64
}

func openSQLite(cfg Config, log logx.Logger) (Store, error) {
	if strings.TrimSpace(cfg.Path) == "" {
		return nil, errors.New("sqlite path is required")
	}
	path := cfg.Path
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	// SQLite prefers a small number of concurrent writers.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	keep := cfg.KeepOutcomes
	if keep <= 0 {
		keep = 1000
	}
	st := &sqliteStore{db: db, log: log, keepOutcomes: keep, pruneEvery: 100}

	// Basic pragmas.
	if cfg.BusyTimeout > 0 {
		ms := cfg.BusyTimeout.Milliseconds()
		_, _ = db.Exec(fmt.Sprintf("PRAGMA busy_timeout = %d", ms))
	}
	_, _ = db.Exec("PRAGMA journal_mode = WAL")
	_, _ = db.Exec("PRAGMA synchronous = NORMAL")

	if err := st.migrate(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return st, nil
}

func (s *sqliteStore) migrate(ctx context.Context) error {
	b, err := migrationsFS.ReadFile("migrations.sql")
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, string(b))
	return err
}

func (s *sqliteStore) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *sqliteStore) ReplacePending(ctx context.Context, runs []PendingRun) error {
	if s == nil || s.db == nil {
		return ErrDisabled
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `DELETE FROM pending`); err != nil {
		return err
	}
	for _, r := range runs {
		if r.RunID == "" {
			continue
		}
		_, err := tx.ExecContext(ctx,
			`INSERT INTO pending(run_id, task_id, target) VALUES(?,?,?)
			 ON CONFLICT(run_id) DO UPDATE SET task_id=excluded.task_id, target=excluded.target`,
			r.RunID, r.TaskID, r.Target.UnixMilli(),
		)
		if err != nil {
			return err
		}
	}
	return tx.Commit()
}

func (s *sqliteStore) ListPending(ctx context.Context) ([]PendingRun, error) {
	if s == nil || s.db == nil {
		return nil, ErrDisabled
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT run_id, task_id, target FROM pending ORDER BY target ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []PendingRun
	for rows.Next() {
		var r PendingRun
		var ms int64
		if err := rows.Scan(&r.RunID, &r.TaskID, &ms); err != nil {
			return nil, err
		}
		r.Target = fromUnixMilli(ms)
		out = append(out, r)
	}
	return out, rows.Err()
}

func (s *sqliteStore) DeletePending(ctx context.Context, runID string) error {
	if s == nil || s.db == nil {
		return ErrDisabled
	}
	if runID == "" {
		return nil
	}
	_, err := s.db.ExecContext(ctx, `DELETE FROM pending WHERE run_id = ?`, runID)
	return err
}

func (s *sqliteStore) RecordOutcome(ctx context.Context, o Outcome) error {
	if s == nil || s.db == nil {
		return ErrDisabled
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO outcomes(run_id, task_id, target, started, finished, err)
		 VALUES(?,?,?,?,?,?)`,
		o.RunID, o.TaskID, o.Target.UnixMilli(), o.Started.UnixMilli(), o.Finished.UnixMilli(),
		nullStr(o.Error),
	)
	if err == nil && s.opCount.Add(1)%s.pruneEvery == 0 {
		s.pruneOutcomes(ctx)
	}
	return err
}

// pruneOutcomes keeps the outcome table bounded. Best-effort.
func (s *sqliteStore) pruneOutcomes(ctx context.Context) {
	_, err := s.db.ExecContext(ctx,
		`DELETE FROM outcomes WHERE id NOT IN
		   (SELECT id FROM outcomes ORDER BY id DESC LIMIT ?)`,
		s.keepOutcomes,
	)
	if err != nil {
		s.log.Warn("outcome prune failed", logx.Err(err))
	}
}

func nullStr(v string) any {
	if strings.TrimSpace(v) == "" {
		return nil
	}
	return v
}
