// Package motion tracks whether animation should currently run: the host's
// visibility (terminal focus) and the reduced-motion preference.
package motion

import (
	"sync"
)

// Reason explains why animation is disabled.
type Reason string

const (
	ReasonNone          Reason = ""
	ReasonHidden        Reason = "hidden"
	ReasonReducedMotion Reason = "reduced-motion"
)

// State is a point-in-time view of the motion signals.
type State struct {
	Hidden        bool
	ReducedMotion bool
}

// AnimationsEnabled reports whether animation may run.
func (s State) AnimationsEnabled() bool {
	return !s.Hidden && !s.ReducedMotion
}

// Reason returns why animation is disabled. An explicit preference wins over
// visibility.
func (s State) Reason() Reason {
	switch {
	case s.ReducedMotion:
		return ReasonReducedMotion
	case s.Hidden:
		return ReasonHidden
	default:
		return ReasonNone
	}
}

// Listener receives the new state after every change.
type Listener func(State)

// Provider exposes the motion signals.
type Provider interface {
	Subscribe(l Listener) (unsubscribe func())
	IsReducedMotionActive() bool
	IsHidden() bool
	State() State
}

// Signals is the mutable Provider the host updates.
type Signals struct {
	mu        sync.Mutex
	state     State
	next      int
	listeners map[int]Listener
}

// NewSignals creates Signals with the given initial reduced-motion preference.
func NewSignals(reducedMotion bool) *Signals {
	return &Signals{
		state:     State{ReducedMotion: reducedMotion},
		listeners: make(map[int]Listener),
	}
}

// Subscribe registers l and returns a func that removes it. The returned func
// is safe to call more than once.
func (s *Signals) Subscribe(l Listener) func() {
	if l == nil {
		return func() {}
	}

	s.mu.Lock()
	id := s.next
	s.next++
	s.listeners[id] = l
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		delete(s.listeners, id)
		s.mu.Unlock()
	}
}

// Listeners returns the number of active subscriptions.
func (s *Signals) Listeners() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.listeners)
}

// State returns the current signals.
func (s *Signals) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// IsReducedMotionActive reports the reduced-motion preference.
func (s *Signals) IsReducedMotionActive() bool {
	return s.State().ReducedMotion
}

// IsHidden reports whether the host is currently not visible.
func (s *Signals) IsHidden() bool {
	return s.State().Hidden
}

// SetHidden updates visibility and notifies listeners on change.
func (s *Signals) SetHidden(hidden bool) {
	s.update(func(st *State) { st.Hidden = hidden })
}

// SetReducedMotion updates the preference and notifies listeners on change.
func (s *Signals) SetReducedMotion(reduced bool) {
	s.update(func(st *State) { st.ReducedMotion = reduced })
}

func (s *Signals) update(fn func(*State)) {
	s.mu.Lock()
	prev := s.state
	fn(&s.state)
	next := s.state
	if prev == next {
		s.mu.Unlock()
		return
	}
	listeners := make([]Listener, 0, len(s.listeners))
	for _, l := range s.listeners {
		listeners = append(listeners, l)
	}
	s.mu.Unlock()

	for _, l := range listeners {
		l(next)
	}
}
