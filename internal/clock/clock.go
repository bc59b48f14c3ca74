package clock

import (
	"sync"
	"time"
)

// TickFunc receives the wall-clock time that passed since the previous
// invocation. Consumers accumulate deltas rather than counting ticks, so
// a coalesced or late callback carries a proportionally larger delta.
type TickFunc func(delta time.Duration)

// Handle cancels a running tick subscription. Stop is idempotent.
type Handle interface {
	Stop()
}

// TickSource abstracts periodic wake-ups: the wall clock in production,
// a manually advanced clock in tests.
type TickSource interface {
	Start(period time.Duration, fn TickFunc) Handle
}

// WallClock ticks on a time.Ticker and reports measured deltas, not the
// nominal period — the host scheduler gives no cadence guarantee.
type WallClock struct{}

func (WallClock) Start(period time.Duration, fn TickFunc) Handle {
	ticker := time.NewTicker(period)
	done := make(chan struct{})
	h := &wallHandle{ticker: ticker, done: done}

	go func() {
		last := time.Now()
		for {
			select {
			case <-done:
				return
			case now := <-ticker.C:
				fn(now.Sub(last))
				last = now
			}
		}
	}()

	return h
}

type wallHandle struct {
	ticker *time.Ticker
	done   chan struct{}
	once   sync.Once
}

func (h *wallHandle) Stop() {
	h.once.Do(func() {
		h.ticker.Stop()
		close(h.done)
	})
}

// Manual is a deterministic tick source for tests: Advance invokes every
// active subscriber synchronously with the given delta, no real waiting.
type Manual struct {
	mu   sync.Mutex
	subs map[int]TickFunc
	next int
}

func NewManual() *Manual {
	return &Manual{subs: make(map[int]TickFunc)}
}

func (m *Manual) Start(_ time.Duration, fn TickFunc) Handle {
	m.mu.Lock()
	defer m.mu.Unlock()
	id := m.next
	m.next++
	m.subs[id] = fn
	return &manualHandle{src: m, id: id}
}

// Advance delivers one delta to every active subscriber.
func (m *Manual) Advance(delta time.Duration) {
	m.mu.Lock()
	fns := make([]TickFunc, 0, len(m.subs))
	for _, fn := range m.subs {
		fns = append(fns, fn)
	}
	m.mu.Unlock()

	for _, fn := range fns {
		fn(delta)
	}
}

// AdvanceBy delivers total time in fixed steps, like a real ticker would.
func (m *Manual) AdvanceBy(total, step time.Duration) {
	for done := time.Duration(0); done < total; done += step {
		d := step
		if remaining := total - done; remaining < step {
			d = remaining
		}
		m.Advance(d)
	}
}

// Active reports how many subscriptions have not been stopped.
func (m *Manual) Active() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.subs)
}

type manualHandle struct {
	src *Manual
	id  int
}

func (h *manualHandle) Stop() {
	h.src.mu.Lock()
	defer h.src.mu.Unlock()
	delete(h.src.subs, h.id)
}
