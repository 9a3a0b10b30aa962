package pool

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/time/rate"

	logx "cadence/pkg/logx"
)

const queueFullWarnEvery = 5 * time.Second

// Config controls a Fixed pool.
type Config struct {
	Workers   int
	QueueSize int
	// RatePerSec caps how many queued fns may start per second (0 = no cap).
	RatePerSec int
}

// Fixed is a bounded worker pool: Workers goroutines drain a queue of
// capacity QueueSize. Submit never blocks; when the queue is full the fn is
// dropped and counted. An optional rate limiter paces how fast workers pick
// up queued work.
type Fixed struct {
	mu  sync.Mutex
	cfg Config
	log logx.Logger

	q       chan func()
	limiter *rate.Limiter

	stopCh   chan struct{}
	stopDone chan struct{}
	wg       sync.WaitGroup

	dropped        atomic.Uint64
	lastFullWarnAt atomic.Int64
}

func NewFixed(cfg Config, log logx.Logger) *Fixed {
	if cfg.Workers <= 0 {
		cfg.Workers = 2
	}
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = 256
	}
	if log.IsZero() {
		log = logx.Nop()
	}
	return &Fixed{cfg: cfg, log: log}
}

// Start is idempotent.
func (p *Fixed) Start() {
	p.mu.Lock()
	if p.stopCh != nil {
		p.mu.Unlock()
		return
	}
	p.q = make(chan func(), p.cfg.QueueSize)
	p.stopCh = make(chan struct{})
	p.stopDone = make(chan struct{})
	if p.cfg.RatePerSec > 0 {
		p.limiter = rate.NewLimiter(rate.Limit(p.cfg.RatePerSec), p.cfg.RatePerSec)
	} else {
		p.limiter = nil
	}
	q, stopCh := p.q, p.stopCh
	lim := p.limiter
	workers := p.cfg.Workers
	p.mu.Unlock()

	p.wg.Add(workers)
	for i := 0; i < workers; i++ {
		go p.worker(q, stopCh, lim)
	}
	p.log.Info("worker pool started",
		logx.Int("workers", workers), logx.Int("queue", cap(q)), logx.Int("rate_per_sec", p.cfg.RatePerSec))
}

// Stop drains nothing: queued-but-unstarted fns are abandoned, running fns
// finish. Waits for workers up to ctx.
func (p *Fixed) Stop(ctx context.Context) {
	if ctx == nil {
		ctx = context.Background()
	}
	p.mu.Lock()
	if p.stopCh == nil {
		p.mu.Unlock()
		return
	}
	stopCh, done := p.stopCh, p.stopDone
	p.stopCh = nil
	p.q = nil
	p.mu.Unlock()

	close(stopCh)
	go func() {
		p.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		p.log.Info("worker pool stopped")
	case <-ctx.Done():
		p.log.Warn("worker pool stop timed out", logx.Err(ctx.Err()))
	}
}

// Submit enqueues fn. It never blocks; when the pool is stopped or the queue
// is full the fn is dropped.
func (p *Fixed) Submit(fn func()) {
	if fn == nil {
		return
	}
	p.mu.Lock()
	q := p.q
	p.mu.Unlock()
	if q == nil {
		p.dropped.Add(1)
		return
	}
	select {
	case q <- fn:
	default:
		p.dropped.Add(1)
		p.warnQueueFull()
	}
}

// Dropped reports how many submissions were discarded since creation.
func (p *Fixed) Dropped() uint64 { return p.dropped.Load() }

func (p *Fixed) worker(q chan func(), stopCh chan struct{}, lim *rate.Limiter) {
	defer p.wg.Done()
	for {
		select {
		case <-stopCh:
			return
		case fn := <-q:
			if lim != nil {
				// Pace pickup, not execution time.
				_ = lim.Wait(context.Background())
			}
			fn()
		}
	}
}

func (p *Fixed) warnQueueFull() {
	now := time.Now().UnixNano()
	last := p.lastFullWarnAt.Load()
	if now-last < int64(queueFullWarnEvery) {
		return
	}
	if p.lastFullWarnAt.CompareAndSwap(last, now) {
		p.log.Warn("worker pool queue full, dropping work", logx.Uint64("dropped", p.dropped.Load()))
	}
}
