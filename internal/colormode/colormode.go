// Package colormode resolves the light/dark appearance renderers paint with.
package colormode

import (
	"fmt"
	"strings"
	"sync"

	"github.com/charmbracelet/lipgloss"
)

// Mode is a resolved appearance.
type Mode string

const (
	Light Mode = "light"
	Dark  Mode = "dark"
)

// Preference is the configured appearance; System defers to the terminal.
type Preference string

const (
	System      Preference = "system"
	PreferLight Preference = "light"
	PreferDark  Preference = "dark"
)

// Provider resolves the current color mode. It is consulted at mount time only.
type Provider interface {
	Resolve() Mode
}

// Resolver implements Provider for a configured preference.
type Resolver struct {
	pref   Preference
	detect func() bool

	once sync.Once
	dark bool
}

// ParsePreference validates a preference string. Empty means System.
func ParsePreference(s string) (Preference, error) {
	switch Preference(strings.ToLower(strings.TrimSpace(s))) {
	case "", System:
		return System, nil
	case PreferLight:
		return PreferLight, nil
	case PreferDark:
		return PreferDark, nil
	default:
		return "", fmt.Errorf("unknown color mode %q: must be one of system, light, dark", s)
	}
}

// NewResolver returns a Resolver for pref. The terminal background is queried
// lazily, once, and only when pref is System.
func NewResolver(pref Preference) *Resolver {
	return &Resolver{pref: pref, detect: lipgloss.HasDarkBackground}
}

// Resolve returns the effective mode.
func (r *Resolver) Resolve() Mode {
	switch r.pref {
	case PreferLight:
		return Light
	case PreferDark:
		return Dark
	}

	r.once.Do(func() {
		r.dark = r.detect()
	})
	if r.dark {
		return Dark
	}
	return Light
}

// Fixed is a Provider that always returns the same mode.
type Fixed Mode

// Resolve returns the fixed mode.
func (f Fixed) Resolve() Mode {
	return Mode(f)
}
