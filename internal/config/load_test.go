package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

const sampleYAML = `
logging:
  level: debug
  file:
    enabled: true
    path: /tmp/cadence.log
scheduler:
  polling_interval: 250ms
  checkpoint_every: 30s
pool:
  kind: fixed
  workers: 4
  queue_size: 128
store:
  driver: sqlite
  path: /tmp/cadence.db
  busy_timeout: 2s
tasks:
  - name: heartbeat
    schedule: 30s
    command: /usr/bin/true
  - name: nightly-report
    schedule: "cron:0 2 * * *"
    command: /usr/local/bin/report
    args: ["--format", "json"]
    timeout: 5m
    max_runs: 10
`

func writeTemp(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadYAML(t *testing.T) {
	t.Parallel()
	cfg, err := Load(writeTemp(t, "cadence.yaml", sampleYAML))
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}

	if cfg.Scheduler.Polling != 250*time.Millisecond {
		t.Fatalf("Polling = %v, want 250ms", cfg.Scheduler.Polling)
	}
	if cfg.Scheduler.Checkpoint != 30*time.Second {
		t.Fatalf("Checkpoint = %v, want 30s", cfg.Scheduler.Checkpoint)
	}
	if cfg.Store.Timeout != 2*time.Second {
		t.Fatalf("busy timeout = %v, want 2s", cfg.Store.Timeout)
	}
	if len(cfg.Tasks) != 2 {
		t.Fatalf("tasks = %d, want 2", len(cfg.Tasks))
	}
	report := cfg.Tasks[1]
	if report.RunTimeout != 5*time.Minute || report.MaxRuns != 10 {
		t.Fatalf("report = %+v", report)
	}

	lc := cfg.LogxConfig()
	if lc.Level != "debug" || !lc.Console || !lc.File.Enabled {
		t.Fatalf("logx config = %+v (console defaults on)", lc)
	}
	pc := cfg.PoolConfig()
	if pc.Workers != 4 || pc.QueueSize != 128 {
		t.Fatalf("pool config = %+v", pc)
	}
	sc := cfg.StoreConfig()
	if sc.Driver != "sqlite" || sc.BusyTimeout != 2*time.Second {
		t.Fatalf("store config = %+v", sc)
	}
}

func TestLoadDefaults(t *testing.T) {
	t.Parallel()
	cfg, err := Load(writeTemp(t, "min.yaml", "logging:\n  level: info\n"))
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}
	if cfg.Scheduler.Polling != 100*time.Millisecond {
		t.Fatalf("default polling = %v, want 100ms", cfg.Scheduler.Polling)
	}
	if cfg.Scheduler.Checkpoint != 10*time.Second {
		t.Fatalf("default checkpoint = %v, want 10s", cfg.Scheduler.Checkpoint)
	}
}

func TestLoadRejectsUnknownFields(t *testing.T) {
	t.Parallel()
	_, err := Load(writeTemp(t, "typo.yaml", "scheduler:\n  poling_interval: 1s\n"))
	if err == nil {
		t.Fatal("unknown field accepted")
	}
}

func TestLoadRejectsBadTasks(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name string
		yaml string
	}{
		{"missing name", "tasks:\n  - schedule: 10s\n    command: /bin/true\n"},
		{"missing schedule", "tasks:\n  - name: a\n    command: /bin/true\n"},
		{"missing command", "tasks:\n  - name: a\n    schedule: 10s\n"},
		{"duplicate names", "tasks:\n  - name: a\n    schedule: 10s\n    command: /bin/true\n  - name: a\n    schedule: 20s\n    command: /bin/true\n"},
		{"bad timeout", "tasks:\n  - name: a\n    schedule: 10s\n    command: /bin/true\n    timeout: soon\n"},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if _, err := Load(writeTemp(t, "bad.yaml", tt.yaml)); err == nil {
				t.Fatal("invalid config accepted")
			}
		})
	}
}

func TestParseJSONPassthrough(t *testing.T) {
	t.Parallel()
	cfg, err := Parse("cadence.json", []byte(`{"scheduler":{"polling_interval":"1s"}}`))
	if err != nil {
		t.Fatalf("Parse error: %v", err)
	}
	if cfg.Scheduler.Polling != time.Second {
		t.Fatalf("Polling = %v, want 1s", cfg.Scheduler.Polling)
	}
	if _, err := Parse("x.json", []byte(`{} {}`)); err == nil {
		t.Fatal("trailing data accepted")
	}
}
