// Package renderer defines the lifecycle contract every countdown theme
// satisfies, and Base, a reusable implementation of that contract driven by a
// theme-specific Painter.
package renderer

import (
	"context"

	"github.com/alexisbeaulieu97/countdown/internal/colormode"
	"github.com/alexisbeaulieu97/countdown/internal/logger"
	"github.com/alexisbeaulieu97/countdown/internal/motion"
	"github.com/alexisbeaulieu97/countdown/internal/surface"
	"github.com/alexisbeaulieu97/countdown/internal/target"
	"github.com/alexisbeaulieu97/countdown/internal/tracker"
)

// MountContext carries everything a renderer needs from its host at mount time.
type MountContext struct {
	// AnimationsEnabled combines visibility and the reduced-motion preference.
	AnimationsEnabled func() bool
	// Exclude is kept free of ambient effects.
	Exclude    surface.Rect
	ColorMode  colormode.Mode
	LiveRegion *surface.LiveRegion
	// Clock drives every timer the renderer schedules. Nil means the real clock.
	Clock  tracker.Clock
	Logger *logger.Logger
}

// AnimationContext describes whether animation should run right now and why not.
type AnimationContext struct {
	Enabled bool
	Reason  motion.Reason
}

// AnimationContextFrom converts motion signals into an AnimationContext.
func AnimationContextFrom(s motion.State) AnimationContext {
	return AnimationContext{Enabled: s.AnimationsEnabled(), Reason: s.Reason()}
}

// CelebrationOptions configures the completion display.
type CelebrationOptions struct {
	Message string
}

// Renderer is the lifecycle contract of a pluggable theme.
//
// Mount is called exactly once on a fresh instance. Every other method is a
// silent no-op before Mount and after Destroy, because calls from the host
// can race with asynchronous teardown.
type Renderer interface {
	// ID identifies this instance.
	ID() string
	// Mount attaches the renderer to s.
	Mount(ctx context.Context, s *surface.Surface, mc MountContext) error
	// UpdateTime draws the remaining time; redundant calls skip redrawing.
	UpdateTime(remaining target.Remaining)
	// OnAnimationStateChange starts or stops ambient activity in place.
	OnAnimationStateChange(ac AnimationContext)
	// OnCounting enters (or re-enters) the counting state.
	OnCounting()
	// OnCelebrating runs the animated celebration sequence.
	OnCelebrating(opts CelebrationOptions)
	// OnCelebrated renders the settled post-celebration state directly.
	OnCelebrated(opts CelebrationOptions)
	// UpdateContainer moves the renderer to another surface keeping its state.
	UpdateContainer(s *surface.Surface)
	// OnResize redraws the current phase for the surface's current size.
	// It does nothing when the size has not changed since the last paint.
	OnResize()
	// Destroy cancels all scheduled work, detaches from the surface and waits
	// for background goroutines. It is idempotent.
	Destroy(ctx context.Context) error
	// Phase reports the current lifecycle phase.
	Phase() Phase
}

// Factory creates a fresh, unmounted Renderer.
type Factory func() Renderer
