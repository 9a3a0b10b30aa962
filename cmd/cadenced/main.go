package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	sdnotify "github.com/coreos/go-systemd/v22/daemon"

	"cadence/internal/config"
	"cadence/internal/eventbus"
	"cadence/internal/pool"
	"cadence/internal/runstore"
	"cadence/internal/runtime/supervisor"
	"cadence/internal/sched"
	"cadence/internal/taskkit"
	logx "cadence/pkg/logx"
)

func main() {
	var cfgPath string
	flag.StringVar(&cfgPath, "config", "./cadence.yaml", "path to config yaml/json")
	flag.Parse()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx, cfgPath); err != nil {
		fmt.Println("fatal:", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfgPath string) error {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logSvc, log := logx.New(cfg.LogxConfig())
	defer logSvc.Close()

	// Worker pool.
	var workers sched.WorkerPool
	var fixed *pool.Fixed
	if cfg.Pool.Kind == "fixed" {
		fixed = pool.NewFixed(cfg.PoolConfig(), log.With(logx.String("comp", "pool")))
		fixed.Start()
		workers = fixed
	} else {
		workers = pool.NewUnbounded()
	}

	// Tasks from config.
	tasks := make(map[string]sched.Task, len(cfg.Tasks))
	limits := make(map[string]int64)
	for _, def := range cfg.Tasks {
		job := taskkit.CommandJob(def.Command, def.Args, def.RunTimeout)
		task, err := taskkit.FromSpec(def.Name, def.Schedule, job)
		if err != nil {
			return fmt.Errorf("task %q: %w", def.Name, err)
		}
		tasks[def.Name] = task
		if def.MaxRuns > 0 {
			limits[def.Name] = def.MaxRuns
		}
	}

	s := sched.New(sched.Config{
		PollingInterval: cfg.Scheduler.Polling,
		Stop:            taskkit.PerTaskMax(limits),
		Pool:            workers,
	}, log.With(logx.String("comp", "sched")))

	// Bridge completions onto the bus so persistence stays off worker goroutines.
	bus := eventbus.New()
	s.OnCompleted().Attach("bus.bridge", func(run *sched.Run) {
		ev := eventbus.RunEvent{
			Kind:    eventbus.RunCompleted,
			At:      time.Now(),
			TaskID:  run.Task.ID(),
			RunID:   run.RunID,
			Target:  run.Target,
			Started: run.StartedAt,
		}
		if run.Err != nil {
			ev.Err = run.Err.Error()
		}
		bus.Publish(ev)
	})

	sup := supervisor.New(ctx, log.With(logx.String("comp", "supervisor")))

	st, err := runstore.Open(cfg.StoreConfig(), log.With(logx.String("comp", "store")))
	if err != nil {
		return fmt.Errorf("open run store: %w", err)
	}
	if st != nil {
		defer st.Close()
		events, unsub := bus.Subscribe(256)
		defer unsub()
		rec := runstore.NewRecorder(st, log.With(logx.String("comp", "recorder")))
		sup.Go("recorder", func(ctx context.Context) error {
			rec.Run(ctx, events)
			return nil
		})
	}

	s.Start()
	defer s.Stop()

	// Start clears residual state, so restore and fresh-schedule afterwards.
	restored := map[string]bool{}
	if st != nil {
		_, err := runstore.Replay(ctx, st, s, func(taskID string) (sched.Task, bool) {
			t, ok := tasks[taskID]
			if ok {
				restored[taskID] = true
			}
			return t, ok
		}, log)
		if err != nil {
			return fmt.Errorf("replay pending runs: %w", err)
		}
	}
	for name, task := range tasks {
		if restored[name] {
			continue
		}
		if runID, ok := s.Schedule(task); ok {
			log.Info("task scheduled", logx.String("task", name), logx.String("run", runID))
		} else {
			log.Warn("task not scheduled (negative delay)", logx.String("task", name))
		}
	}

	// Periodic pending-run checkpoint.
	if st != nil {
		sup.Go("checkpoint", func(ctx context.Context) error {
			checkpointLoop(ctx, st, s, cfg.Scheduler.Checkpoint, log)
			return nil
		})
	}

	// Hot reload: only logging changes apply live; everything else needs a restart.
	sup.Go("config.watch", func(ctx context.Context) error {
		err := config.Watch(ctx, cfgPath, log.With(logx.String("comp", "config")), func(next *config.Config) {
			logSvc.Apply(next.LogxConfig())
		})
		if err != nil {
			log.Warn("config watch unavailable", logx.Err(err))
		}
		return nil
	})

	_, _ = sdnotify.SdNotify(false, sdnotify.SdNotifyReady)
	log.Info("cadenced ready", logx.Int("tasks", len(tasks)))

	<-ctx.Done()
	_, _ = sdnotify.SdNotify(false, sdnotify.SdNotifyStopping)

	// Final checkpoint so pending runs survive the restart.
	if st != nil {
		cctx, ccancel := context.WithTimeout(context.Background(), 3*time.Second)
		if err := runstore.Checkpoint(cctx, st, s); err != nil {
			log.Warn("final checkpoint failed", logx.Err(err))
		}
		ccancel()
	}
	if fixed != nil {
		sctx, scancel := context.WithTimeout(context.Background(), 5*time.Second)
		fixed.Stop(sctx)
		scancel()
	}

	sup.Cancel()
	wctx, wcancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer wcancel()
	if err := sup.Wait(wctx); err != nil {
		log.Warn("background goroutines did not drain", logx.Err(err))
	}
	return nil
}

func checkpointLoop(ctx context.Context, st runstore.Store, s *sched.Scheduler, every time.Duration, log logx.Logger) {
	if every <= 0 {
		every = 10 * time.Second
	}
	t := time.NewTicker(every)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			cctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			if err := runstore.Checkpoint(cctx, st, s); err != nil {
				log.Warn("checkpoint failed", logx.Err(err))
			}
			cancel()
		}
	}
}
