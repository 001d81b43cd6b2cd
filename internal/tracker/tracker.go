// Package tracker implements the per-component registry of scheduled
// timers and frame callbacks. Every piece of asynchronous work a renderer or
// the orchestrator starts is registered in a Bag so that a single CancelAll
// (or Close) guarantees nothing fires afterwards.
package tracker

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"k8s.io/utils/clock"
)

// FrameInterval approximates one display frame at 60 Hz.
const FrameInterval = 16 * time.Millisecond

// ErrClosed is returned by Sleep when the bag was closed or the underlying
// entry was cancelled before it fired.
var ErrClosed = errors.New("tracker: cancelled")

// Kind identifies the scheduling primitive behind an entry.
type Kind int

const (
	// Interval entries fire repeatedly until cancelled.
	Interval Kind = iota + 1
	// Timeout entries fire once after their delay.
	Timeout
	// Frame entries fire once on the next frame.
	Frame
)

func (k Kind) String() string {
	switch k {
	case Interval:
		return "interval"
	case Timeout:
		return "timeout"
	case Frame:
		return "frame"
	default:
		return "unknown"
	}
}

// Handle is an opaque reference to a scheduled entry. The zero Handle is
// never issued and cancelling it is a no-op.
type Handle uint64

// Clock is the time source a Bag schedules against.
type Clock = clock.WithTicker

type entry struct {
	kind      Kind
	cancelled atomic.Bool
	done      chan struct{}
	once      sync.Once
}

func (e *entry) cancel() {
	e.once.Do(func() {
		e.cancelled.Store(true)
		close(e.done)
	})
}

// Bag owns the scheduled entries of one component instance.
type Bag struct {
	clock Clock

	mu      sync.Mutex
	next    Handle
	entries map[Handle]*entry
	closed  bool

	wg sync.WaitGroup
}

// New creates an empty Bag scheduling against c. A nil clock selects the
// real wall clock.
func New(c Clock) *Bag {
	if c == nil {
		c = clock.RealClock{}
	}
	return &Bag{
		clock:   c,
		entries: make(map[Handle]*entry),
	}
}

// Clock returns the time source used by the bag.
func (b *Bag) Clock() Clock {
	return b.clock
}

// Schedule registers fn to run according to kind. For Frame entries the delay
// is ignored and FrameInterval is used. Scheduling on a closed bag registers
// nothing and returns the zero Handle.
func (b *Bag) Schedule(kind Kind, fn func(), delay time.Duration) Handle {
	h, _ := b.schedule(kind, fn, delay)
	return h
}

func (b *Bag) schedule(kind Kind, fn func(), delay time.Duration) (Handle, *entry) {
	if fn == nil {
		return 0, nil
	}
	if kind == Frame {
		delay = FrameInterval
	}
	if delay <= 0 {
		delay = time.Millisecond
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return 0, nil
	}

	b.next++
	h := b.next
	e := &entry{kind: kind, done: make(chan struct{})}
	b.entries[h] = e

	b.wg.Add(1)
	switch kind {
	case Interval:
		ticker := b.clock.NewTicker(delay)
		go b.runInterval(e, ticker, fn)
	default:
		timer := b.clock.NewTimer(delay)
		go b.runOnce(h, e, timer, fn)
	}

	return h, e
}

func (b *Bag) runInterval(e *entry, ticker clock.Ticker, fn func()) {
	defer b.wg.Done()
	defer ticker.Stop()

	for {
		select {
		case <-e.done:
			return
		case <-ticker.C():
			if e.cancelled.Load() {
				return
			}
			fn()
		}
	}
}

func (b *Bag) runOnce(h Handle, e *entry, timer clock.Timer, fn func()) {
	defer b.wg.Done()

	select {
	case <-e.done:
		timer.Stop()
		return
	case <-timer.C():
	}

	if e.cancelled.Load() {
		return
	}

	b.mu.Lock()
	_, live := b.entries[h]
	delete(b.entries, h)
	b.mu.Unlock()

	if !live {
		return
	}
	fn()
}

// Cancel stops a single entry. Unknown or already finished handles are ignored.
func (b *Bag) Cancel(h Handle) {
	if h == 0 {
		return
	}

	b.mu.Lock()
	e, ok := b.entries[h]
	delete(b.entries, h)
	b.mu.Unlock()

	if ok {
		e.cancel()
	}
}

// CancelAll stops every outstanding entry and empties the registry. It is
// safe to call repeatedly and the bag stays usable afterwards.
func (b *Bag) CancelAll() {
	b.mu.Lock()
	pending := b.entries
	b.entries = make(map[Handle]*entry)
	b.mu.Unlock()

	for _, e := range pending {
		e.cancel()
	}
}

// Close cancels everything and refuses further scheduling.
func (b *Bag) Close() {
	b.mu.Lock()
	b.closed = true
	b.mu.Unlock()

	b.CancelAll()
}

// Closed reports whether Close has been called.
func (b *Bag) Closed() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.closed
}

// Wait blocks until every goroutine servicing an entry has returned. It must
// not be called from inside a scheduled callback.
func (b *Bag) Wait() {
	b.wg.Wait()
}

// Len returns the number of outstanding entries.
func (b *Bag) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.entries)
}

// Count returns the number of outstanding entries of the given kind.
func (b *Bag) Count(kind Kind) int {
	b.mu.Lock()
	defer b.mu.Unlock()

	n := 0
	for _, e := range b.entries {
		if e.kind == kind {
			n++
		}
	}
	return n
}

// Sleep blocks for d using a tracked Timeout entry. It returns ctx.Err() when
// ctx ends first and ErrClosed when the entry is cancelled through the bag.
func (b *Bag) Sleep(ctx context.Context, d time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	fired := make(chan struct{})
	h, e := b.schedule(Timeout, func() { close(fired) }, d)
	if e == nil {
		return ErrClosed
	}

	select {
	case <-fired:
		return nil
	case <-e.done:
		return ErrClosed
	case <-ctx.Done():
		b.Cancel(h)
		return ctx.Err()
	}
}
