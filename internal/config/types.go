package config

import (
	"fmt"
	"strings"
	"time"

	"cadence/internal/pool"
	"cadence/internal/runstore"
	logx "cadence/pkg/logx"
)

// Config is the daemon's on-disk configuration (YAML or JSON).
//
// Duration-valued fields are strings in Go duration syntax ("100ms", "2h30m")
// and are resolved by Normalize after the strict decode.
type Config struct {
	Logging   LoggingConfig   `json:"logging"`
	Scheduler SchedulerConfig `json:"scheduler"`
	Pool      PoolConfig      `json:"pool"`
	Store     StoreConfig     `json:"store"`
	Tasks     []TaskDef       `json:"tasks"`
}

type LoggingConfig struct {
	Level   string `json:"level"`
	Console *bool  `json:"console"` // nil = true
	File    struct {
		Enabled bool   `json:"enabled"`
		Path    string `json:"path"`
	} `json:"file"`
}

type SchedulerConfig struct {
	PollingInterval string `json:"polling_interval"`
	// CheckpointEvery controls how often pending runs are persisted.
	CheckpointEvery string `json:"checkpoint_every"`

	Polling    time.Duration `json:"-"`
	Checkpoint time.Duration `json:"-"`
}

type PoolConfig struct {
	// Kind: "unbounded" (default) or "fixed".
	Kind       string `json:"kind"`
	Workers    int    `json:"workers"`
	QueueSize  int    `json:"queue_size"`
	RatePerSec int    `json:"rate_per_sec"`
}

type StoreConfig struct {
	Driver      string `json:"driver"`
	Path        string `json:"path"`
	BusyTimeout string `json:"busy_timeout"`

	Timeout time.Duration `json:"-"`
}

// TaskDef declares one scheduled command.
type TaskDef struct {
	Name     string   `json:"name"`
	Schedule string   `json:"schedule"` // cron, HH:MM or duration (see taskkit.ParseSchedule)
	Command  string   `json:"command"`
	Args     []string `json:"args"`
	Timeout  string   `json:"timeout"`
	// MaxRuns stops the task's chain after this many runs (0 = unlimited).
	MaxRuns int64 `json:"max_runs"`

	RunTimeout time.Duration `json:"-"`
}

// Normalize resolves duration strings and applies defaults. It is called by
// Load; call it yourself only on hand-built configs.
func (c *Config) Normalize() error {
	var err error
	if c.Scheduler.Polling, err = ParseDurationOrDefault("scheduler.polling_interval", c.Scheduler.PollingInterval, 100*time.Millisecond); err != nil {
		return err
	}
	if c.Scheduler.Checkpoint, err = ParseDurationOrDefault("scheduler.checkpoint_every", c.Scheduler.CheckpointEvery, 10*time.Second); err != nil {
		return err
	}
	if c.Store.Timeout, err = ParseDurationField("store.busy_timeout", c.Store.BusyTimeout); err != nil {
		return err
	}
	seen := map[string]bool{}
	for i := range c.Tasks {
		t := &c.Tasks[i]
		name := strings.TrimSpace(t.Name)
		if name == "" {
			return fmt.Errorf("tasks[%d]: name required", i)
		}
		if seen[name] {
			return fmt.Errorf("tasks[%d]: duplicate task name %q", i, name)
		}
		seen[name] = true
		if strings.TrimSpace(t.Schedule) == "" {
			return fmt.Errorf("task %q: schedule required", name)
		}
		if strings.TrimSpace(t.Command) == "" {
			return fmt.Errorf("task %q: command required", name)
		}
		if t.RunTimeout, err = ParseDurationField("task "+name+": timeout", t.Timeout); err != nil {
			return err
		}
	}
	return nil
}

func (c *Config) LogxConfig() logx.Config {
	console := true
	if c.Logging.Console != nil {
		console = *c.Logging.Console
	}
	return logx.Config{
		Level:   c.Logging.Level,
		Console: console,
		File: logx.FileConfig{
			Enabled: c.Logging.File.Enabled,
			Path:    c.Logging.File.Path,
		},
	}
}

func (c *Config) PoolConfig() pool.Config {
	return pool.Config{
		Workers:    c.Pool.Workers,
		QueueSize:  c.Pool.QueueSize,
		RatePerSec: c.Pool.RatePerSec,
	}
}

func (c *Config) StoreConfig() runstore.Config {
	return runstore.Config{
		Driver:      c.Store.Driver,
		Path:        c.Store.Path,
		BusyTimeout: c.Store.Timeout,
	}
}
