package sched

import "sync"

// CompletionHandler receives a finished run. Handlers run sequentially on the
// completing worker goroutine, so keep them short; a panicking handler is not
// sanitized and takes the worker down with it.
type CompletionHandler func(run *Run)

// CompletionSignal is a synchronous, in-order fan-out of completed runs.
//
// Handlers are kept as an explicit observer list keyed by name and invoked
// directly by the publishing goroutine in attach order. There is no buffering
// and no dispatch goroutine: the worker that finished the run is not free
// until every handler has returned.
type CompletionSignal struct {
	mu       sync.Mutex
	handlers []namedHandler
}

type namedHandler struct {
	name string
	fn   CompletionHandler
}

// Attach registers fn under the given name. Re-attaching an existing name
// replaces the handler in place, keeping its position in the invocation order.
func (s *CompletionSignal) Attach(name string, fn CompletionHandler) {
	if fn == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.handlers {
		if s.handlers[i].name == name {
			s.handlers[i].fn = fn
			return
		}
	}
	s.handlers = append(s.handlers, namedHandler{name: name, fn: fn})
}

// Detach removes the handler registered under name, if any.
func (s *CompletionSignal) Detach(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.handlers {
		if s.handlers[i].name == name {
			s.handlers = append(s.handlers[:i], s.handlers[i+1:]...)
			return
		}
	}
}

func (s *CompletionSignal) dispatch(run *Run) {
	// Snapshot under lock; invoke outside it so a handler may attach/detach.
	s.mu.Lock()
	hs := make([]namedHandler, len(s.handlers))
	copy(hs, s.handlers)
	s.mu.Unlock()

	for _, h := range hs {
		h.fn(run)
	}
}
