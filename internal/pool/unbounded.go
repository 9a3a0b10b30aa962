package pool

import "sync"

// Unbounded runs every submission on its own goroutine, the Go analog of an
// unlimited cached thread pool. Wait blocks until all submitted work has
// returned; it is meant for orderly shutdown, not backpressure.
type Unbounded struct {
	wg sync.WaitGroup
}

func NewUnbounded() *Unbounded { return &Unbounded{} }

func (p *Unbounded) Submit(fn func()) {
	if fn == nil {
		return
	}
	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		fn()
	}()
}

// Wait blocks until every previously submitted fn has returned.
func (p *Unbounded) Wait() { p.wg.Wait() }
