package supervisor

import (
	"context"
	"fmt"
	"runtime/debug"
	"sync"
	"sync/atomic"

	logx "cadence/pkg/logx"
)

// Supervisor manages the daemon's background goroutines tied to a shared
// context: named starts for logging, panic recovery, and timeout-aware
// graceful waiting. It is an operational convenience, not a synchronization
// primitive.
type Supervisor struct {
	ctx    context.Context
	cancel context.CancelFunc

	log logx.Logger

	started atomic.Uint64
	active  atomic.Int64

	wg sync.WaitGroup
}

// Counters exposes best-effort goroutine counters.
type Counters struct {
	Active  int64  `json:"active"`
	Started uint64 `json:"started"`
}

func New(parent context.Context, log logx.Logger) *Supervisor {
	if parent == nil {
		parent = context.Background()
	}
	if log.IsZero() {
		log = logx.Nop()
	}
	ctx, cancel := context.WithCancel(parent)
	return &Supervisor{ctx: ctx, cancel: cancel, log: log}
}

func (s *Supervisor) Context() context.Context { return s.ctx }

// Go starts fn on its own goroutine under the supervisor's context. A panic
// is recovered and logged; a non-nil return (other than context.Canceled) is
// logged as a warning.
func (s *Supervisor) Go(name string, fn func(ctx context.Context) error) {
	s.started.Add(1)
	s.active.Add(1)
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		defer s.active.Add(-1)
		defer func() {
			if r := recover(); r != nil {
				s.log.Error("goroutine panicked",
					logx.String("name", name),
					logx.Any("panic", r),
					logx.String("stack", string(debug.Stack())))
			}
		}()
		if err := fn(s.ctx); err != nil && err != context.Canceled {
			s.log.Warn("goroutine exited with error", logx.String("name", name), logx.Err(err))
		}
	}()
	s.log.Debug("goroutine started", logx.String("name", name))
}

// Cancel signals every goroutine to stop.
func (s *Supervisor) Cancel() { s.cancel() }

// Wait blocks until every goroutine has returned or ctx expires.
func (s *Supervisor) Wait(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}
	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("supervisor wait: %w", ctx.Err())
	}
}

func (s *Supervisor) Counters() Counters {
	return Counters{Active: s.active.Load(), Started: s.started.Load()}
}
