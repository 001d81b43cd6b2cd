// Package activity drives the ambient "idle" motion a renderer shows while it
// is simply counting down.
package activity

import (
	"math/rand/v2"
	"sync"
	"time"

	"github.com/alexisbeaulieu97/countdown/internal/surface"
	"github.com/alexisbeaulieu97/countdown/internal/tracker"
)

const (
	// DefaultInterval runs the loop at 10 Hz, independent of the 1 Hz tick.
	DefaultInterval = 100 * time.Millisecond
	// DefaultDensity activates at most one element in every DefaultDensity
	// eligible elements per tick.
	DefaultDensity = 40
)

// Activator supplies the elements the loop may activate. Both methods are
// called from inside the owner's guard.
type Activator interface {
	Eligible() []surface.Point
	Activate(p surface.Point)
}

// Guard runs fn only while the owner is ready, under the owner's lock.
type Guard func(fn func())

// Options tunes a Loop.
type Options struct {
	Interval time.Duration
	Density  int
	Rand     *rand.Rand
}

// Loop schedules ambient activations on a tracked interval. It only starts
// activations; completion is left to the declarative pulses themselves.
type Loop struct {
	bag     *tracker.Bag
	act     Activator
	enabled func() bool
	guard   Guard

	interval time.Duration
	density  int
	rng      *rand.Rand

	mu     sync.Mutex
	handle tracker.Handle
}

// New creates a stopped Loop.
func New(bag *tracker.Bag, act Activator, enabled func() bool, guard Guard, opts Options) *Loop {
	if opts.Interval <= 0 {
		opts.Interval = DefaultInterval
	}
	if opts.Density <= 0 {
		opts.Density = DefaultDensity
	}
	if opts.Rand == nil {
		opts.Rand = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	if enabled == nil {
		enabled = func() bool { return true }
	}
	if guard == nil {
		guard = func(fn func()) { fn() }
	}

	return &Loop{
		bag:      bag,
		act:      act,
		enabled:  enabled,
		guard:    guard,
		interval: opts.Interval,
		density:  opts.Density,
		rng:      opts.Rand,
	}
}

// Start begins the loop. It is a no-op when animations are disabled or the
// loop is already running, and reports whether the loop runs afterwards.
func (l *Loop) Start() bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.handle != 0 {
		return true
	}
	if !l.enabled() {
		return false
	}

	l.handle = l.bag.Schedule(tracker.Interval, l.tick, l.interval)
	return l.handle != 0
}

// Stop halts the loop. Pulses already started finish on their own.
func (l *Loop) Stop() {
	l.mu.Lock()
	h := l.handle
	l.handle = 0
	l.mu.Unlock()

	l.bag.Cancel(h)
}

// Running reports whether the loop is scheduled.
func (l *Loop) Running() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.handle != 0
}

func (l *Loop) tick() {
	l.guard(func() {
		if !l.enabled() {
			return
		}
		l.Step()
	})
}

// Step performs one activation round. It must run inside the owner's guard.
func (l *Loop) Step() int {
	eligible := l.act.Eligible()
	if len(eligible) == 0 {
		return 0
	}

	n := Budget(len(eligible), l.density)
	for _, i := range l.rng.Perm(len(eligible))[:n] {
		l.act.Activate(eligible[i])
	}
	return n
}

// Budget bounds the activations per tick in proportion to the number of
// eligible elements, never below one.
func Budget(eligible, density int) int {
	if eligible <= 0 {
		return 0
	}
	if density <= 0 {
		density = DefaultDensity
	}
	return max(1, eligible/density)
}
