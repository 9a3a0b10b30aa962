package eventbus

import (
	"sync"
	"sync/atomic"
	"time"
)

// Kind classifies a run event.
type Kind string

const (
	// RunCompleted: a run finished, successfully or not (check Err).
	RunCompleted Kind = "run.completed"
	// RunScheduled: a run was checkpointed as pending.
	RunScheduled Kind = "run.scheduled"
)

// RunEvent is the bus payload: a flattened view of one run, safe to hold onto
// after the engine has discarded the record itself.
//
// Contract:
//   - Publish MUST be non-blocking.
//   - Subscribers MUST use buffered channels.
//   - Slow subscribers may drop events (bounded backpressure).
type RunEvent struct {
	Kind    Kind
	At      time.Time
	TaskID  string
	RunID   string
	Target  time.Time
	Started time.Time
	Err     string // empty on success
}

type Bus interface {
	Publish(e RunEvent)
	Subscribe(buffer int) (ch <-chan RunEvent, unsubscribe func())
}

// New returns a simple in-memory fanout bus.
//
// It intentionally does not own any background goroutines: delivery happens
// on the publisher's goroutine, which is why Publish never blocks. This is
// the bridge that keeps slow consumers (persistence, history) off the
// completing worker goroutine.
func New() Bus {
	return &memBus{subs: map[uint64]chan RunEvent{}}
}

type memBus struct {
	mu   sync.RWMutex
	subs map[uint64]chan RunEvent
	seq  atomic.Uint64
}

func (b *memBus) Publish(e RunEvent) {
	if e.At.IsZero() {
		e.At = time.Now()
	}
	// Snapshot subscribers so Publish doesn't hold locks while attempting sends.
	b.mu.RLock()
	chs := make([]chan RunEvent, 0, len(b.subs))
	for _, ch := range b.subs {
		chs = append(chs, ch)
	}
	b.mu.RUnlock()

	for _, ch := range chs {
		// Non-blocking delivery. If subscriber is slow, we drop.
		// If a subscriber unsubscribes concurrently and the channel closes,
		// recover from a possible panic (send on closed channel).
		func() {
			defer func() { _ = recover() }()
			select {
			case ch <- e:
			default:
			}
		}()
	}
}

func (b *memBus) Subscribe(buffer int) (<-chan RunEvent, func()) {
	if buffer <= 0 {
		buffer = 8
	}
	ch := make(chan RunEvent, buffer)
	id := b.seq.Add(1)

	b.mu.Lock()
	b.subs[id] = ch
	b.mu.Unlock()

	var once sync.Once
	unsub := func() {
		once.Do(func() {
			b.mu.Lock()
			delete(b.subs, id)
			b.mu.Unlock()
			// Closing is safe because Publish recovers from send panics.
			close(ch)
		})
	}
	return ch, unsub
}
