package pool

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	logx "cadence/pkg/logx"
)

func TestUnboundedRunsEverything(t *testing.T) {
	t.Parallel()
	p := NewUnbounded()

	var n atomic.Int64
	for i := 0; i < 100; i++ {
		p.Submit(func() { n.Add(1) })
	}
	p.Submit(nil) // ignored
	p.Wait()

	if got := n.Load(); got != 100 {
		t.Fatalf("ran %d fns, want 100", got)
	}
}

func TestFixedRunsSubmitted(t *testing.T) {
	t.Parallel()
	p := NewFixed(Config{Workers: 4, QueueSize: 64}, logx.Nop())
	p.Start()
	defer p.Stop(context.Background())

	var wg sync.WaitGroup
	var n atomic.Int64
	for i := 0; i < 32; i++ {
		wg.Add(1)
		p.Submit(func() {
			defer wg.Done()
			n.Add(1)
		})
	}

	done := make(chan struct{})
	go func() { wg.Wait(); close(done) }()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("fixed pool did not drain")
	}
	if n.Load() != 32 {
		t.Fatalf("ran %d, want 32", n.Load())
	}
	if p.Dropped() != 0 {
		t.Fatalf("dropped = %d, want 0", p.Dropped())
	}
}

func TestFixedDropsWhenStopped(t *testing.T) {
	t.Parallel()
	p := NewFixed(Config{Workers: 1, QueueSize: 1}, logx.Nop())

	// Not started: submissions are dropped, not queued.
	p.Submit(func() { t.Error("ran on a stopped pool") })
	if p.Dropped() != 1 {
		t.Fatalf("dropped = %d, want 1", p.Dropped())
	}
}

func TestFixedDropsOnFullQueue(t *testing.T) {
	t.Parallel()
	p := NewFixed(Config{Workers: 1, QueueSize: 1}, logx.Nop())
	p.Start()
	defer p.Stop(context.Background())

	block := make(chan struct{})
	started := make(chan struct{})
	p.Submit(func() { close(started); <-block })
	<-started // worker busy

	p.Submit(func() {}) // fills the queue
	for i := 0; i < 5; i++ {
		p.Submit(func() {}) // overflow, dropped
	}
	close(block)

	if p.Dropped() == 0 {
		t.Fatal("expected overflow submissions to be dropped")
	}
}

func TestFixedStopIdempotent(t *testing.T) {
	t.Parallel()
	p := NewFixed(Config{Workers: 2, QueueSize: 4}, logx.Nop())
	p.Start()
	p.Start() // no-op
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	p.Stop(ctx)
	p.Stop(ctx) // no-op
}
