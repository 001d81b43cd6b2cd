// Package orchestrator owns the countdown tick, resolves the target against
// the selected timezone, detects completion and sequences theme switches so
// that exactly one renderer is mounted at a time.
package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"k8s.io/utils/clock"

	"github.com/alexisbeaulieu97/countdown/internal/colormode"
	"github.com/alexisbeaulieu97/countdown/internal/logger"
	"github.com/alexisbeaulieu97/countdown/internal/motion"
	"github.com/alexisbeaulieu97/countdown/internal/renderer"
	"github.com/alexisbeaulieu97/countdown/internal/surface"
	"github.com/alexisbeaulieu97/countdown/internal/target"
	"github.com/alexisbeaulieu97/countdown/internal/tracker"
	countdownerrors "github.com/alexisbeaulieu97/countdown/pkg/errors"
)

// TickInterval is the period of the countdown tick.
const TickInterval = time.Second

// DefaultMessage is shown on completion when no message is configured.
const DefaultMessage = "Time's up!"

// anyZone keys the celebrated set outside wall-clock mode.
const anyZone = "*"

var (
	// ErrDestroyed is returned by operations on a destroyed orchestrator.
	ErrDestroyed = errors.New("orchestrator: destroyed")
	// ErrAlreadyStarted is returned when Start is called twice.
	ErrAlreadyStarted = errors.New("orchestrator: already started")
)

// Registry is the part of the theme registry the orchestrator depends on.
type Registry interface {
	Factory(ctx context.Context, id string) (renderer.Factory, error)
	IDs() []string
	Resolve(id string) string
	Default() string
}

// Settings is the validated countdown configuration.
type Settings struct {
	Target   target.Moment
	Timezone string
	Theme    string
	Message  string
}

// Options wires an Orchestrator to its collaborators.
type Options struct {
	Settings   Settings
	Registry   Registry
	Surface    *surface.Surface
	LiveRegion *surface.LiveRegion
	// Exclude is passed to renderers as the area kept free of ambient effects.
	Exclude   surface.Rect
	Motion    motion.Provider
	ColorMode colormode.Provider
	Clock     clock.WithTicker
	Logger    *logger.Logger
}

// Orchestrator coordinates the active renderer. It is safe for concurrent use.
type Orchestrator struct {
	registry Registry
	live     *surface.LiveRegion
	exclude  surface.Rect
	motion   motion.Provider
	colors   colormode.Provider
	clock    clock.WithTicker
	log      *logger.Logger
	bag      *tracker.Bag

	// switchMu serializes theme switches and teardown.
	switchMu sync.Mutex

	mu          sync.Mutex
	surf        *surface.Surface
	active      renderer.Renderer
	activeID    string
	themeID     string
	moment      target.Moment
	startedAt   time.Time
	loc         *time.Location
	tz          string
	message     string
	celebrated  map[string]bool
	phase       renderer.Phase
	unsubscribe func()
	running     bool
	destroyed   bool
}

// New validates opts and returns an orchestrator that has not started yet.
func New(opts Options) (*Orchestrator, error) {
	if opts.Surface == nil {
		return nil, countdownerrors.NewPrerequisiteError("orchestrator", "surface")
	}
	if opts.LiveRegion == nil {
		return nil, countdownerrors.NewPrerequisiteError("orchestrator", "live region")
	}
	if opts.Registry == nil {
		return nil, countdownerrors.NewPrerequisiteError("orchestrator", "theme registry")
	}

	settings := opts.Settings
	if settings.Timezone == "" {
		settings.Timezone = "UTC"
	}
	loc, err := target.LoadTimezone(settings.Timezone)
	if err != nil {
		return nil, err
	}
	if settings.Target.Mode == "" {
		settings.Target.Mode = target.ModeAbsolute
	}
	if !settings.Target.Mode.Valid() {
		return nil, countdownerrors.NewInvalidValueError("mode", settings.Target.Mode, "unknown mode", nil)
	}
	if settings.Message == "" {
		settings.Message = DefaultMessage
	}

	c := opts.Clock
	if c == nil {
		c = clock.RealClock{}
	}
	signals := opts.Motion
	if signals == nil {
		signals = motion.NewSignals(false)
	}
	colors := opts.ColorMode
	if colors == nil {
		colors = colormode.NewResolver(colormode.System)
	}

	return &Orchestrator{
		registry:   opts.Registry,
		live:       opts.LiveRegion,
		exclude:    opts.Exclude,
		motion:     signals,
		colors:     colors,
		clock:      c,
		log:        opts.Logger.Component("orchestrator"),
		bag:        tracker.New(c),
		surf:       opts.Surface,
		themeID:    settings.Theme,
		moment:     settings.Target,
		loc:        loc,
		tz:         settings.Timezone,
		message:    settings.Message,
		celebrated: make(map[string]bool),
		phase:      renderer.PhaseUninitialized,
	}, nil
}

// Start evaluates the target, mounts the configured theme and starts the
// 1 Hz tick. A theme failure that fell back to the default theme is returned
// while the orchestrator keeps running.
func (o *Orchestrator) Start(ctx context.Context) error {
	o.mu.Lock()
	if o.destroyed {
		o.mu.Unlock()
		return ErrDestroyed
	}
	if o.running {
		o.mu.Unlock()
		return ErrAlreadyStarted
	}
	o.running = true
	o.startedAt = o.clock.Now()
	o.settleInitialLocked()
	o.unsubscribe = o.motion.Subscribe(o.onMotion)
	themeID := o.themeID
	o.mu.Unlock()

	o.log.WithFields(map[string]any{"theme": themeID, "timezone": o.Timezone()}).Info("countdown started")

	err := o.SwitchTheme(ctx, themeID)
	o.bag.Schedule(tracker.Interval, o.tick, TickInterval)
	return err
}

// settleInitialLocked decides the phase for a freshly selected target or
// timezone: an already passed target is celebrated without animation.
func (o *Orchestrator) settleInitialLocked() {
	if o.remainingLocked().Done() {
		o.celebrated[o.keyLocked()] = true
		o.phase = renderer.PhaseCelebrated
		return
	}
	o.phase = renderer.PhaseCounting
}

// SwitchTheme replaces the active renderer. Switching to the active theme is
// a no-op; unknown ids resolve to the default theme.
func (o *Orchestrator) SwitchTheme(ctx context.Context, id string) error {
	o.switchMu.Lock()
	defer o.switchMu.Unlock()

	id = o.registry.Resolve(id)

	o.mu.Lock()
	if o.destroyed {
		o.mu.Unlock()
		return ErrDestroyed
	}
	if !o.running {
		o.themeID = id
		o.mu.Unlock()
		return nil
	}
	if o.active != nil && o.activeID == id {
		o.mu.Unlock()
		return nil
	}
	old, oldID := o.active, o.activeID
	o.active, o.activeID = nil, ""
	o.mu.Unlock()

	replay := renderer.PhaseUninitialized
	var destroyErr error
	if old != nil {
		replay = old.Phase()
		// A Destroy that gave up waiting has still released the surface.
		if err := old.Destroy(ctx); err != nil {
			destroyErr = fmt.Errorf("destroy theme %s: %w", oldID, err)
			o.log.WithField("theme", oldID).Error(err, "theme destroy did not finish")
		} else {
			o.log.WithField("theme", oldID).Debug("theme destroyed")
		}
	}

	return errors.Join(destroyErr, o.install(ctx, id, replay))
}

// install mounts id, falling back to the default theme when loading or
// mounting fails. The fallback ignores cancellation of ctx, so a switch never
// leaves the surface without a renderer.
func (o *Orchestrator) install(ctx context.Context, id string, replay renderer.Phase) error {
	r, err := o.mount(ctx, id)
	if err == nil {
		o.activate(r, id, replay)
		return nil
	}

	fallback := o.registry.Default()
	o.log.WithFields(map[string]any{"theme": id, "fallback": fallback}).Error(err, "theme failed to mount")
	if fallback == id && ctx.Err() == nil {
		return err
	}

	r, ferr := o.mount(context.WithoutCancel(ctx), fallback)
	if ferr != nil {
		o.log.WithField("theme", fallback).Error(ferr, "default theme failed to mount")
		return errors.Join(err, ferr)
	}
	o.activate(r, fallback, replay)
	return err
}

func (o *Orchestrator) mount(ctx context.Context, id string) (renderer.Renderer, error) {
	factory, err := o.registry.Factory(ctx, id)
	if err != nil {
		var themeErr *countdownerrors.ThemeError
		if errors.As(err, &themeErr) {
			return nil, err
		}
		return nil, countdownerrors.NewThemeError(id, err)
	}

	r := factory()
	if r == nil {
		return nil, countdownerrors.NewThemeError(id, errors.New("factory returned no renderer"))
	}

	o.mu.Lock()
	s := o.surf
	mc := o.mountContextLocked()
	o.mu.Unlock()

	if err := r.Mount(ctx, s, mc); err != nil {
		if derr := r.Destroy(context.WithoutCancel(ctx)); derr != nil {
			o.log.WithField("theme", id).Error(derr, "destroy after failed mount")
		}
		return nil, countdownerrors.NewThemeError(id, err)
	}
	return r, nil
}

func (o *Orchestrator) mountContextLocked() renderer.MountContext {
	return renderer.MountContext{
		AnimationsEnabled: func() bool { return o.motion.State().AnimationsEnabled() },
		Exclude:           o.exclude,
		ColorMode:         o.colors.Resolve(),
		LiveRegion:        o.live,
		Clock:             o.clock,
		Logger:            o.log,
	}
}

// activate makes r the active renderer and replays the current phase onto it.
func (o *Orchestrator) activate(r renderer.Renderer, id string, replay renderer.Phase) {
	o.mu.Lock()
	if o.destroyed {
		o.mu.Unlock()
		if err := r.Destroy(context.Background()); err != nil {
			o.log.WithField("theme", id).Error(err, "destroy after orchestrator teardown")
		}
		return
	}
	o.active, o.activeID = r, id
	o.replayLocked(r, replay)
	o.mu.Unlock()

	o.live.Announce(fmt.Sprintf("Theme changed to %s", id), surface.Polite)
	o.log.WithField("theme", id).Info("theme mounted")
}

// replayLocked brings a freshly mounted renderer to the orchestrator's phase.
// A celebration that was still animating on the previous renderer restarts on
// the new one; a settled one is shown settled.
func (o *Orchestrator) replayLocked(r renderer.Renderer, previous renderer.Phase) {
	opts := renderer.CelebrationOptions{Message: o.message}
	switch o.phase {
	case renderer.PhaseCelebrating:
		if previous == renderer.PhaseCelebrated {
			o.phase = renderer.PhaseCelebrated
			r.OnCelebrated(opts)
			return
		}
		r.OnCelebrating(opts)
	case renderer.PhaseCelebrated:
		r.OnCelebrated(opts)
	default:
		r.OnCounting()
		r.UpdateTime(o.remainingLocked())
	}
}

func (o *Orchestrator) tick() {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.destroyed || !o.running {
		return
	}
	o.evaluateLocked()
}

// evaluateLocked runs one countdown evaluation.
func (o *Orchestrator) evaluateLocked() {
	rem := o.remainingLocked()
	r := o.active

	if rem.Done() {
		switch o.phase {
		case renderer.PhaseCounting:
			key := o.keyLocked()
			opts := renderer.CelebrationOptions{Message: o.message}
			if o.celebrated[key] {
				o.phase = renderer.PhaseCelebrated
				if r != nil {
					r.OnCelebrated(opts)
				}
				return
			}
			o.celebrated[key] = true
			o.phase = renderer.PhaseCelebrating
			if r != nil {
				r.OnCelebrating(opts)
			}
			o.live.Announce(o.message, surface.Assertive)
			o.log.WithField("key", key).Info("countdown reached target")
		case renderer.PhaseCelebrating, renderer.PhaseCelebrated:
			if r == nil {
				return
			}
			if r.Phase() == renderer.PhaseCelebrated {
				o.phase = renderer.PhaseCelebrated
			}
			r.OnResize()
		}
		return
	}

	if o.phase != renderer.PhaseCounting {
		o.phase = renderer.PhaseCounting
		if r != nil {
			r.OnCounting()
		}
	}
	if r != nil {
		r.UpdateTime(rem)
	}
}

// reconcileLocked applies a new timezone or target: passed targets show the
// settled state, future ones resume counting.
func (o *Orchestrator) reconcileLocked() {
	o.settleInitialLocked()
	r := o.active
	if r == nil {
		return
	}
	if o.phase == renderer.PhaseCelebrated {
		r.OnCelebrated(renderer.CelebrationOptions{Message: o.message})
		return
	}
	r.OnCounting()
	r.UpdateTime(o.remainingLocked())
}

// SetTimezone selects the timezone wall-clock targets are resolved in.
// Unknown identifiers return a ValidationError and change nothing.
func (o *Orchestrator) SetTimezone(tz string) error {
	loc, err := target.LoadTimezone(tz)
	if err != nil {
		return err
	}

	o.mu.Lock()
	if o.destroyed {
		o.mu.Unlock()
		return ErrDestroyed
	}
	changed := o.tz != tz
	o.loc, o.tz = loc, tz
	if changed && o.running && o.moment.Mode == target.ModeWallClock {
		o.reconcileLocked()
	}
	o.mu.Unlock()

	if changed {
		o.live.Announce(fmt.Sprintf("Timezone set to %s", tz), surface.Polite)
		o.log.WithField("timezone", tz).Info("timezone changed")
	}
	return nil
}

// SetTarget replaces the target moment and forgets earlier celebrations.
func (o *Orchestrator) SetTarget(m target.Moment) error {
	if !m.Mode.Valid() {
		return countdownerrors.NewInvalidValueError("mode", m.Mode, "unknown mode", nil)
	}

	o.mu.Lock()
	defer o.mu.Unlock()

	if o.destroyed {
		return ErrDestroyed
	}
	o.moment = m
	o.startedAt = o.clock.Now()
	o.celebrated = make(map[string]bool)
	if o.running {
		o.reconcileLocked()
	}
	return nil
}

// SetCompletionMessage changes the message shown on completion. A settled
// display is repainted with it.
func (o *Orchestrator) SetCompletionMessage(msg string) {
	if msg == "" {
		msg = DefaultMessage
	}

	o.mu.Lock()
	defer o.mu.Unlock()

	o.message = msg
	if o.phase == renderer.PhaseCelebrated && o.active != nil {
		o.active.OnCelebrated(renderer.CelebrationOptions{Message: msg})
	}
}

// UpdateContainer moves the active renderer to s.
func (o *Orchestrator) UpdateContainer(s *surface.Surface) {
	if s == nil {
		return
	}

	o.mu.Lock()
	defer o.mu.Unlock()

	if o.destroyed {
		return
	}
	o.surf = s
	if o.active != nil {
		o.active.UpdateContainer(s)
	}
}

// Refit repaints the active renderer after its surface changed size. The
// tick does the same within a second; hosts call Refit to skip that wait.
func (o *Orchestrator) Refit() {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.destroyed || o.active == nil {
		return
	}
	o.active.OnResize()
}

func (o *Orchestrator) onMotion(state motion.State) {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.destroyed || o.active == nil {
		return
	}
	o.active.OnAnimationStateChange(renderer.AnimationContextFrom(state))
}

// Destroy stops the tick, destroys the active renderer and unsubscribes from
// the motion signals. It waits for an in-flight theme switch and is safe to
// call repeatedly.
func (o *Orchestrator) Destroy(ctx context.Context) error {
	o.switchMu.Lock()
	defer o.switchMu.Unlock()

	o.mu.Lock()
	if o.destroyed {
		o.mu.Unlock()
		return nil
	}
	o.destroyed = true
	o.running = false
	unsubscribe := o.unsubscribe
	o.unsubscribe = nil
	r := o.active
	o.active, o.activeID = nil, ""
	o.mu.Unlock()

	if unsubscribe != nil {
		unsubscribe()
	}
	o.bag.Close()
	o.bag.Wait()

	if r != nil {
		if err := r.Destroy(ctx); err != nil {
			return fmt.Errorf("destroy renderer: %w", err)
		}
	}
	o.log.Debug("orchestrator destroyed")
	return nil
}

// Active returns the active renderer, or nil.
func (o *Orchestrator) Active() renderer.Renderer {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.active
}

// ActiveThemeID returns the id of the mounted theme, or "" when none is.
func (o *Orchestrator) ActiveThemeID() string {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.activeID
}

// Phase returns the countdown phase: counting, celebrating or celebrated.
func (o *Orchestrator) Phase() renderer.Phase {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.phase == renderer.PhaseCelebrating && o.active != nil && o.active.Phase() == renderer.PhaseCelebrated {
		return renderer.PhaseCelebrated
	}
	return o.phase
}

// Timezone returns the selected timezone.
func (o *Orchestrator) Timezone() string {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.tz
}

// Message returns the completion message.
func (o *Orchestrator) Message() string {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.message
}

// Remaining returns the time left until the target.
func (o *Orchestrator) Remaining() target.Remaining {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.remainingLocked()
}

// CelebratedKeys lists the timezones (or "*" outside wall-clock mode) whose
// target has been reached.
func (o *Orchestrator) CelebratedKeys() []string {
	o.mu.Lock()
	defer o.mu.Unlock()
	keys := make([]string, 0, len(o.celebrated))
	for k := range o.celebrated {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func (o *Orchestrator) remainingLocked() target.Remaining {
	started := o.startedAt
	if started.IsZero() {
		started = o.clock.Now()
	}
	return target.Until(o.moment.Resolve(o.loc, started), o.clock.Now())
}

func (o *Orchestrator) keyLocked() string {
	if o.moment.Mode == target.ModeWallClock {
		return o.tz
	}
	return anyZone
}
