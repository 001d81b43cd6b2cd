package renderer

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/alexisbeaulieu97/countdown/internal/activity"
	"github.com/alexisbeaulieu97/countdown/internal/celebration"
	"github.com/alexisbeaulieu97/countdown/internal/logger"
	"github.com/alexisbeaulieu97/countdown/internal/surface"
	"github.com/alexisbeaulieu97/countdown/internal/target"
	"github.com/alexisbeaulieu97/countdown/internal/tracker"
	countdownerrors "github.com/alexisbeaulieu97/countdown/pkg/errors"
)

var (
	// ErrAlreadyMounted is returned when Mount is called twice on one instance.
	ErrAlreadyMounted = errors.New("renderer: already mounted")
	// ErrDestroyed is returned when Mount is called on a destroyed instance.
	ErrDestroyed = errors.New("renderer: destroyed")
)

// Stage is one animated step of a celebration: Frames draws spaced by
// FrameInterval, then a pause of Hold.
type Stage struct {
	Name          string
	Frames        int
	FrameInterval time.Duration
	Draw          func(c *Canvas, frame int)
	Hold          time.Duration
}

// Painter is the theme-specific half of a renderer. Every method runs under
// the renderer's lock with a ready renderer.
type Painter interface {
	// PaintTime draws the counting display.
	PaintTime(c *Canvas, remaining target.Remaining)
	// Ambient lists the elements ambient activity may light in phase.
	Ambient(c *Canvas, phase Phase) []surface.Point
	// Activate starts one ambient highlight.
	Activate(c *Canvas, p surface.Point)
	// Celebration returns the animated stages leading to the settled state.
	Celebration(opts CelebrationOptions) []Stage
	// PaintCelebrated draws the settled completion state.
	PaintCelebrated(c *Canvas, opts CelebrationOptions)
}

// Options configures a Base renderer.
type Options struct {
	Theme            string
	Accents          Accents
	Painter          Painter
	ActivityInterval time.Duration
	ActivityDensity  int
	Rand             *rand.Rand
}

// Base implements Renderer on top of a Painter. It owns the resource
// tracker, the ambient loop and the celebration controller of one instance.
type Base struct {
	id      string
	theme   string
	painter Painter
	accents Accents
	opts    Options
	rng     *rand.Rand

	mu          sync.Mutex
	phase       Phase
	surf        *surface.Surface
	layer       *surface.Layer
	mc          MountContext
	palette     Palette
	log         *logger.Logger
	bag         *tracker.Bag
	ambient     *activity.Loop
	celebration *celebration.Controller
	animate     bool
	message     string

	lastText      string
	lastW, lastH  int
	lastRemaining target.Remaining
	haveTime      bool
}

// New creates an unmounted Base renderer.
func New(opts Options) *Base {
	rng := opts.Rand
	if rng == nil {
		rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	return &Base{
		id:      uuid.NewString(),
		theme:   opts.Theme,
		painter: opts.Painter,
		accents: opts.Accents,
		opts:    opts,
		rng:     rng,
	}
}

// ID returns the instance id.
func (b *Base) ID() string {
	return b.id
}

// Theme returns the theme id this renderer draws.
func (b *Base) Theme() string {
	return b.theme
}

// Phase returns the lifecycle phase.
func (b *Base) Phase() Phase {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.phase
}

// Tracker exposes the instance's resource tracker; nil before Mount.
func (b *Base) Tracker() *tracker.Bag {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.bag
}

// Mount attaches the renderer to s and starts ambient activity.
func (b *Base) Mount(ctx context.Context, s *surface.Surface, mc MountContext) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	component := fmt.Sprintf("renderer %s", b.theme)
	if s == nil {
		return countdownerrors.NewPrerequisiteError(component, "surface")
	}
	if mc.LiveRegion == nil {
		return countdownerrors.NewPrerequisiteError(component, "live region")
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	switch b.phase {
	case PhaseUninitialized:
	case PhaseDestroyed:
		return ErrDestroyed
	default:
		return ErrAlreadyMounted
	}

	layer, err := s.Attach(b.id)
	if err != nil {
		return fmt.Errorf("mount %s: %w", b.theme, err)
	}

	b.surf = s
	b.layer = layer
	b.mc = mc
	b.palette = PaletteFor(mc.ColorMode, b.accents)
	b.log = mc.Logger.WithFields(map[string]any{"theme": b.theme, "renderer": b.id})
	b.animate = mc.AnimationsEnabled == nil || mc.AnimationsEnabled()
	b.bag = tracker.New(mc.Clock)
	b.celebration = celebration.NewController(b.log)
	b.ambient = activity.New(b.bag, ambientActivator{b: b}, func() bool { return b.animate }, b.guard, activity.Options{
		Interval: b.opts.ActivityInterval,
		Density:  b.opts.ActivityDensity,
		Rand:     b.rng,
	})
	b.phase = PhaseMounted
	b.ambient.Start()

	b.log.Debug("renderer mounted")
	return nil
}

// UpdateTime redraws the countdown unless the formatted value and surface
// size are unchanged since the last draw.
func (b *Base) UpdateTime(remaining target.Remaining) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.readyLocked() || b.phase == PhaseCelebrating || b.phase == PhaseCelebrated {
		return
	}

	b.lastRemaining = remaining
	b.haveTime = true
	b.paintTimeLocked(false)
}

func (b *Base) paintTimeLocked(force bool) {
	text := b.lastRemaining.Format()
	w, h := b.surf.Size()
	if !force && text == b.lastText && w == b.lastW && h == b.lastH {
		return
	}
	if w != b.lastW || h != b.lastH {
		b.layer.Clear()
	}
	b.painter.PaintTime(b.canvasLocked(), b.lastRemaining)
	b.lastText, b.lastW, b.lastH = text, w, h
}

// OnAnimationStateChange starts or stops ambient activity without resetting
// the display. A running celebration jumps to its settled state when
// animation gets disabled.
func (b *Base) OnAnimationStateChange(ac AnimationContext) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.readyLocked() {
		return
	}

	b.animate = ac.Enabled
	if !ac.Enabled {
		b.ambient.Stop()
		if b.phase == PhaseCelebrating {
			b.celebration.Cancel()
			b.settleLocked()
			b.ambient.Stop()
		}
		b.log.WithField("reason", string(ac.Reason)).Debug("animation paused")
		return
	}

	if b.phase != PhaseCelebrating {
		b.ambient.Start()
	}
}

// OnCounting enters the counting display. Calling it while already counting
// only makes sure ambient activity runs.
func (b *Base) OnCounting() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.readyLocked() || !CanTransition(b.phase, PhaseCounting) {
		return
	}

	if b.phase == PhaseCelebrating || b.phase == PhaseCelebrated {
		b.celebration.Cancel()
		b.layer.Clear()
		b.lastText = ""
		if b.haveTime && !b.lastRemaining.Done() {
			b.phase = PhaseCounting
			b.paintTimeLocked(true)
		}
	}

	b.phase = PhaseCounting
	b.ambient.Start()
}

// OnCelebrating starts the animated sequence, or shows the settled state
// straight away when animation is disabled.
func (b *Base) OnCelebrating(opts CelebrationOptions) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.readyLocked() || !CanTransition(b.phase, PhaseCelebrating) {
		return
	}

	b.ambient.Stop()
	b.message = opts.Message
	b.phase = PhaseCelebrating

	if !b.animate {
		b.settleLocked()
		b.ambient.Stop()
		return
	}

	stages := b.painter.Celebration(opts)
	phases := make([]celebration.Phase, 0, len(stages)+1)
	for _, st := range stages {
		phases = append(phases, b.stagePhase(st))
	}
	phases = append(phases, celebration.Phase{Name: "settle", Run: b.settle})

	b.celebration.Start(context.Background(), phases)
	b.log.Debug("celebration started")
}

// OnCelebrated renders the settled completion state without animation.
func (b *Base) OnCelebrated(opts CelebrationOptions) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.readyLocked() || !CanTransition(b.phase, PhaseCelebrated) {
		return
	}

	b.celebration.Cancel()
	b.ambient.Stop()
	b.message = opts.Message
	b.settleLocked()
}

// UpdateContainer moves the drawing layer to s and repaints for its size.
func (b *Base) UpdateContainer(s *surface.Surface) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.readyLocked() || s == nil || s == b.surf {
		return
	}

	moved, err := b.layer.Move(s)
	if err != nil {
		b.log.Error(err, "update container failed")
		return
	}
	b.layer = moved
	b.surf = s
	b.layer.Clear()
	b.lastText = ""

	switch b.phase {
	case PhaseCounting, PhaseMounted:
		if b.haveTime {
			b.paintTimeLocked(true)
		}
	case PhaseCelebrated:
		b.paintCelebratedLocked()
	}
}

// OnResize repaints after the surface changed size. A running celebration is
// left alone; its settled frame is drawn at whatever size applies then.
func (b *Base) OnResize() {
	b.guard(b.refitLocked)
}

func (b *Base) refitLocked() {
	w, h := b.surf.Size()
	if w == b.lastW && h == b.lastH {
		return
	}

	switch b.phase {
	case PhaseCelebrated:
		b.paintCelebratedLocked()
	case PhaseCounting, PhaseMounted:
		if b.haveTime {
			b.paintTimeLocked(false)
		}
	}
}

// Destroy tears the renderer down. It may be called from any phase and any
// number of times; only the first call does work.
func (b *Base) Destroy(ctx context.Context) error {
	b.mu.Lock()
	if b.phase == PhaseDestroyed {
		b.mu.Unlock()
		return nil
	}
	b.phase = PhaseDestroyed

	bag, ctrl := b.bag, b.celebration
	if b.ambient != nil {
		b.ambient.Stop()
	}
	if ctrl != nil {
		ctrl.Cancel()
	}
	if bag != nil {
		bag.Close()
	}
	if b.layer != nil {
		b.surf.Detach(b.layer)
	}
	b.layer = nil
	b.surf = nil
	log := b.log
	b.mu.Unlock()

	done := make(chan struct{})
	go func() {
		defer close(done)
		if ctrl != nil {
			ctrl.Wait()
		}
		if bag != nil {
			bag.Wait()
		}
	}()

	select {
	case <-done:
		log.Debug("renderer destroyed")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (b *Base) readyLocked() bool {
	return b.layer != nil && b.phase != PhaseUninitialized && b.phase != PhaseDestroyed
}

// guard runs fn under the lock when the renderer is ready.
func (b *Base) guard(fn func()) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if !b.readyLocked() {
		return
	}
	fn()
}

func (b *Base) canvasLocked() *Canvas {
	w, h := b.surf.Size()
	return &Canvas{
		Layer:   b.layer,
		Width:   w,
		Height:  h,
		Exclude: b.mc.Exclude,
		Palette: b.palette,
		Rand:    b.rng,
		Now:     b.surf.Now(),
	}
}

func (b *Base) settleLocked() {
	b.paintCelebratedLocked()
	b.phase = PhaseCelebrated
	b.ambient.Start()
}

func (b *Base) paintCelebratedLocked() {
	b.layer.Clear()
	b.painter.PaintCelebrated(b.canvasLocked(), CelebrationOptions{Message: b.message})
	b.lastW, b.lastH = b.surf.Size()
	b.lastText = ""
}

func (b *Base) settle(ctx context.Context) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return err
	}
	if !b.readyLocked() || b.phase != PhaseCelebrating {
		return nil
	}
	b.settleLocked()
	b.log.Debug("celebration settled")
	return nil
}

func (b *Base) stagePhase(st Stage) celebration.Phase {
	return celebration.Phase{Name: st.Name, Run: func(ctx context.Context) error {
		if st.Frames > 0 && st.Draw != nil {
			if err := b.animateStage(ctx, st); err != nil {
				return err
			}
		}
		if st.Hold > 0 {
			return b.bag.Sleep(ctx, st.Hold)
		}
		return nil
	}}
}

// animateStage draws st.Frames frames on a tracked interval and returns once
// the last one is drawn.
func (b *Base) animateStage(ctx context.Context, st Stage) error {
	interval := st.FrameInterval
	if interval <= 0 {
		interval = tracker.FrameInterval
	}

	finished := make(chan struct{})
	frame := 0

	b.mu.Lock()
	if !b.readyLocked() {
		b.mu.Unlock()
		return tracker.ErrClosed
	}
	h := b.bag.Schedule(tracker.Interval, func() {
		b.guard(func() {
			if ctx.Err() != nil || b.phase != PhaseCelebrating || frame >= st.Frames {
				return
			}
			st.Draw(b.canvasLocked(), frame)
			frame++
			if frame == st.Frames {
				close(finished)
			}
		})
	}, interval)
	b.mu.Unlock()

	if h == 0 {
		return tracker.ErrClosed
	}
	defer b.bag.Cancel(h)

	select {
	case <-finished:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

type ambientActivator struct {
	b *Base
}

func (a ambientActivator) Eligible() []surface.Point {
	b := a.b
	if b.phase == PhaseCelebrating {
		return nil
	}

	c := b.canvasLocked()
	candidates := b.painter.Ambient(c, b.phase)
	out := make([]surface.Point, 0, len(candidates))
	for _, p := range candidates {
		if c.Exclude.Contains(p) || b.layer.Pulsing(p) {
			continue
		}
		out = append(out, p)
	}
	return out
}

func (a ambientActivator) Activate(p surface.Point) {
	a.b.painter.Activate(a.b.canvasLocked(), p)
}
