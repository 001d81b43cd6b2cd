package orchestrator

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
	_ "time/tzdata"

	"github.com/stretchr/testify/require"
	clocktesting "k8s.io/utils/clock/testing"

	"github.com/alexisbeaulieu97/countdown/internal/colormode"
	"github.com/alexisbeaulieu97/countdown/internal/motion"
	"github.com/alexisbeaulieu97/countdown/internal/renderer"
	"github.com/alexisbeaulieu97/countdown/internal/surface"
	"github.com/alexisbeaulieu97/countdown/internal/target"
	"github.com/alexisbeaulieu97/countdown/internal/themes"
	"github.com/alexisbeaulieu97/countdown/internal/tracker"
	countdownerrors "github.com/alexisbeaulieu97/countdown/pkg/errors"
)

const waitFor = 3 * time.Second

// painter draws nothing interesting but has a short animated celebration.
type painter struct{}

func (painter) PaintTime(c *renderer.Canvas, rem target.Remaining) {
	c.Center(0, rem.Format(), c.Palette.Foreground, false)
}

func (painter) Ambient(c *renderer.Canvas, _ renderer.Phase) []surface.Point {
	return c.Points()
}

func (painter) Activate(c *renderer.Canvas, p surface.Point) {
	c.Layer.Pulse(p, c.Palette.Highlight, 200*time.Millisecond)
}

func (painter) Celebration(renderer.CelebrationOptions) []renderer.Stage {
	return []renderer.Stage{{
		Name:          "flash",
		Frames:        3,
		FrameInterval: 50 * time.Millisecond,
		Draw:          func(c *renderer.Canvas, frame int) { c.Layer.Set(surface.Point{X: frame}, surface.Cell{Rune: '*'}) },
		Hold:          100 * time.Millisecond,
	}}
}

func (painter) PaintCelebrated(c *renderer.Canvas, opts renderer.CelebrationOptions) {
	c.Center(0, opts.Message, c.Palette.Accent, true)
}

// spy records the lifecycle calls it receives before delegating to Base.
type spy struct {
	*renderer.Base
	theme string

	mu    sync.Mutex
	calls []string
	msgs  []string
	anims []renderer.AnimationContext
}

func (s *spy) record(call string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, call)
}

func (s *spy) count(call string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, c := range s.calls {
		if c == call {
			n++
		}
	}
	return n
}

func (s *spy) messages() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.msgs...)
}

func (s *spy) animations() []renderer.AnimationContext {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]renderer.AnimationContext(nil), s.anims...)
}

func (s *spy) OnCounting() {
	s.record("counting")
	s.Base.OnCounting()
}

func (s *spy) OnCelebrating(opts renderer.CelebrationOptions) {
	s.record("celebrating")
	s.mu.Lock()
	s.msgs = append(s.msgs, opts.Message)
	s.mu.Unlock()
	s.Base.OnCelebrating(opts)
}

func (s *spy) OnCelebrated(opts renderer.CelebrationOptions) {
	s.record("celebrated")
	s.Base.OnCelebrated(opts)
}

func (s *spy) OnAnimationStateChange(ac renderer.AnimationContext) {
	s.mu.Lock()
	s.anims = append(s.anims, ac)
	s.mu.Unlock()
	s.Base.OnAnimationStateChange(ac)
}

// broken fails to mount.
type broken struct {
	*spy
}

func (b broken) Mount(context.Context, *surface.Surface, renderer.MountContext) error {
	return errors.New("boom")
}

type fixture struct {
	clock    *clocktesting.FakeClock
	surf     *surface.Surface
	live     *surface.LiveRegion
	signals  *motion.Signals
	registry *themes.Registry

	mu   sync.Mutex
	made map[string][]*spy
}

func newFixture(t *testing.T, now time.Time) *fixture {
	t.Helper()

	f := &fixture{
		clock:    clocktesting.NewFakeClock(now),
		signals:  motion.NewSignals(false),
		registry: themes.NewRegistry("A", nil),
		made:     make(map[string][]*spy),
	}
	f.surf = surface.New("main", 40, 5, f.clock)
	f.live = surface.NewLiveRegion(f.clock, time.Second)

	for _, id := range []string{"A", "B"} {
		require.NoError(t, f.registry.Register(themes.Descriptor{ID: id}, themes.Static(func() renderer.Renderer {
			return f.newSpy(id)
		})))
	}
	require.NoError(t, f.registry.Register(themes.Descriptor{ID: "broken"}, themes.Static(func() renderer.Renderer {
		return broken{spy: f.newSpy("broken")}
	})))
	return f
}

func (f *fixture) newSpy(id string) *spy {
	s := &spy{Base: renderer.New(renderer.Options{Theme: id, Painter: painter{}}), theme: id}
	f.mu.Lock()
	f.made[id] = append(f.made[id], s)
	f.mu.Unlock()
	return s
}

func (f *fixture) spies(id string) []*spy {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]*spy(nil), f.made[id]...)
}

func (f *fixture) orchestrator(t *testing.T, settings Settings) *Orchestrator {
	t.Helper()
	o, err := New(Options{
		Settings:   settings,
		Registry:   f.registry,
		Surface:    f.surf,
		LiveRegion: f.live,
		Motion:     f.signals,
		ColorMode:  colormode.Fixed(colormode.Dark),
		Clock:      f.clock,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = o.Destroy(context.Background()) })
	return o
}

func activeSpy(t *testing.T, o *Orchestrator) *spy {
	t.Helper()
	switch r := o.Active().(type) {
	case *spy:
		return r
	default:
		t.Fatalf("unexpected active renderer %T", r)
		return nil
	}
}

var newYear = target.WallClock{Year: 2026, Month: time.January, Day: 1}

func TestNewRequiresPrerequisites(t *testing.T) {
	t.Parallel()

	f := newFixture(t, time.Now())
	var prereq *countdownerrors.PrerequisiteError

	_, err := New(Options{Registry: f.registry, Surface: f.surf})
	require.ErrorAs(t, err, &prereq)
	require.Equal(t, "live region", prereq.Missing)

	_, err = New(Options{Registry: f.registry, LiveRegion: f.live})
	require.ErrorAs(t, err, &prereq)
	require.Equal(t, "surface", prereq.Missing)

	var validation *countdownerrors.ValidationError
	_, err = New(Options{Registry: f.registry, Surface: f.surf, LiveRegion: f.live, Settings: Settings{Timezone: "Mars/Olympus"}})
	require.ErrorAs(t, err, &validation)
}

func TestTimerReachesTargetAndCelebratesOnce(t *testing.T) {
	t.Parallel()

	f := newFixture(t, time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC))
	o := f.orchestrator(t, Settings{Target: target.Timer(time.Second), Theme: "A", Message: "Done!"})
	require.NoError(t, o.Start(context.Background()))

	r := activeSpy(t, o)
	bag := r.Tracker()
	baseline := bag.Count(tracker.Interval)
	require.Equal(t, renderer.PhaseCounting, r.Phase())

	f.clock.Step(1500 * time.Millisecond)
	require.Eventually(t, func() bool { return r.count("celebrating") == 1 }, waitFor, time.Millisecond)
	require.Equal(t, []string{"Done!"}, r.messages())
	require.Eventually(t, func() bool { return f.live.Text() == "Done!" }, waitFor, time.Millisecond)

	require.Eventually(t, func() bool {
		f.clock.Step(50 * time.Millisecond)
		return r.Phase() == renderer.PhaseCelebrated && bag.Count(tracker.Interval) == baseline
	}, waitFor, 5*time.Millisecond)

	f.clock.Step(2 * time.Second)
	require.Equal(t, 1, r.count("celebrating"))
	require.Equal(t, renderer.PhaseCelebrated, o.Phase())
	require.Equal(t, []string{"*"}, o.CelebratedKeys())
}

func TestWallClockTargetAlreadyPassedIsCelebratedWithoutAnimation(t *testing.T) {
	t.Parallel()

	// 2025-12-31T16:00Z is already 2026-01-01T01:00 in Tokyo.
	f := newFixture(t, time.Date(2025, 12, 31, 16, 0, 0, 0, time.UTC))
	o := f.orchestrator(t, Settings{Target: target.Wall(newYear), Timezone: "Asia/Tokyo", Theme: "A"})
	require.NoError(t, o.Start(context.Background()))

	r := activeSpy(t, o)
	require.Equal(t, 1, r.count("celebrated"))
	require.Zero(t, r.count("celebrating"))

	f.clock.Step(3 * time.Second)
	time.Sleep(20 * time.Millisecond)
	require.Zero(t, r.count("celebrating"))
	require.Equal(t, renderer.PhaseCelebrated, o.Phase())
}

func TestResizeRepaintsSettledMessage(t *testing.T) {
	t.Parallel()

	f := newFixture(t, time.Date(2025, 12, 31, 16, 0, 0, 0, time.UTC))
	o := f.orchestrator(t, Settings{Target: target.Wall(newYear), Timezone: "Asia/Tokyo", Theme: "A"})
	require.NoError(t, o.Start(context.Background()))
	require.Equal(t, renderer.PhaseCelebrated, o.Phase())
	require.Equal(t, 'T', f.surf.Snapshot().Rows[0][15].Rune)

	f.surf.Resize(60, 9)
	o.Refit()
	require.Equal(t, 'T', f.surf.Snapshot().Rows[0][25].Rune)

	// Without an explicit refit the next tick picks the new size up.
	f.surf.Resize(70, 9)
	require.Eventually(t, func() bool {
		f.clock.Step(time.Second)
		return f.surf.Snapshot().Rows[0][30].Rune == 'T'
	}, waitFor, 5*time.Millisecond)
}

func TestWallClockCelebratesOncePerTimezone(t *testing.T) {
	t.Parallel()

	f := newFixture(t, time.Date(2025, 12, 31, 23, 59, 59, 0, time.UTC))
	o := f.orchestrator(t, Settings{Target: target.Wall(newYear), Timezone: "UTC", Theme: "A"})
	require.NoError(t, o.Start(context.Background()))
	r := activeSpy(t, o)

	f.clock.Step(time.Second)
	require.Eventually(t, func() bool { return r.count("celebrating") == 1 }, waitFor, time.Millisecond)

	// New York is still five hours away.
	require.NoError(t, o.SetTimezone("America/New_York"))
	require.Equal(t, renderer.PhaseCounting, o.Phase())
	require.Equal(t, renderer.PhaseCounting, r.Phase())
	require.False(t, o.Remaining().Done())

	require.NoError(t, o.SetTimezone("UTC"))
	require.Equal(t, 1, r.count("celebrating"))
	require.GreaterOrEqual(t, r.count("celebrated"), 1)
	require.Equal(t, renderer.PhaseCelebrated, r.Phase())
	require.Equal(t, []string{"UTC"}, o.CelebratedKeys())
}

func TestSwitchingToFutureTimezoneResumesCounting(t *testing.T) {
	t.Parallel()

	f := newFixture(t, time.Date(2025, 12, 31, 16, 0, 0, 0, time.UTC))
	o := f.orchestrator(t, Settings{Target: target.Wall(newYear), Timezone: "Asia/Tokyo", Theme: "A"})
	require.NoError(t, o.Start(context.Background()))
	r := activeSpy(t, o)
	counting := r.count("counting")

	require.NoError(t, o.SetTimezone("Europe/Paris"))
	require.Equal(t, counting+1, r.count("counting"))
	require.Zero(t, r.count("celebrating"))
	require.Equal(t, renderer.PhaseCounting, r.Phase())

	f.clock.Step(time.Second)
	time.Sleep(20 * time.Millisecond)
	require.Zero(t, r.count("celebrating"))
}

func TestSetTimezoneRejectsUnknownZone(t *testing.T) {
	t.Parallel()

	f := newFixture(t, time.Now())
	o := f.orchestrator(t, Settings{Target: target.Wall(newYear), Timezone: "Europe/Paris", Theme: "A"})
	require.NoError(t, o.Start(context.Background()))

	err := o.SetTimezone("Invalid/Timezone")
	var validation *countdownerrors.ValidationError
	require.ErrorAs(t, err, &validation)
	require.Equal(t, "timezone", validation.Field)
	require.Equal(t, "Invalid/Timezone", validation.Value)
	require.Equal(t, "Europe/Paris", o.Timezone())

	err = o.SetTarget(target.Moment{Mode: "lunar"})
	require.ErrorAs(t, err, &validation)
	require.Equal(t, "mode", validation.Field)
	require.Equal(t, target.Mode("lunar"), validation.Value)
}

func TestSwitchToActiveThemeIsNoOp(t *testing.T) {
	t.Parallel()

	f := newFixture(t, time.Now())
	o := f.orchestrator(t, Settings{Target: target.Timer(time.Hour), Theme: "A"})
	require.NoError(t, o.Start(context.Background()))
	before := activeSpy(t, o)
	phase := before.Phase()

	require.NoError(t, o.SwitchTheme(context.Background(), "A"))
	require.Same(t, before, activeSpy(t, o))
	require.Equal(t, phase, before.Phase())
	require.Len(t, f.spies("A"), 1)
}

func TestConcurrentSwitchesMountOneRenderer(t *testing.T) {
	t.Parallel()

	f := newFixture(t, time.Now())
	o := f.orchestrator(t, Settings{Target: target.Timer(time.Hour), Theme: "A"})
	require.NoError(t, o.Start(context.Background()))
	a := activeSpy(t, o)

	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i := range 2 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs[i] = o.SwitchTheme(context.Background(), "B")
		}()
	}
	wg.Wait()

	require.NoError(t, errs[0])
	require.NoError(t, errs[1])
	require.Len(t, f.spies("B"), 1)
	b := f.spies("B")[0]
	require.Same(t, b, activeSpy(t, o))
	require.Equal(t, renderer.PhaseCounting, b.Phase())
	require.Equal(t, renderer.PhaseDestroyed, a.Phase())
	require.Equal(t, b.ID(), f.surf.Owner())
	require.Equal(t, "B", o.ActiveThemeID())
}

func TestSwitchReplaysCelebratedPhase(t *testing.T) {
	t.Parallel()

	f := newFixture(t, time.Date(2025, 12, 31, 16, 0, 0, 0, time.UTC))
	o := f.orchestrator(t, Settings{Target: target.Wall(newYear), Timezone: "Asia/Tokyo", Theme: "A", Message: "Akemashite omedetou"})
	require.NoError(t, o.Start(context.Background()))

	require.NoError(t, o.SwitchTheme(context.Background(), "B"))
	b := activeSpy(t, o)
	require.Equal(t, 1, b.count("celebrated"))
	require.Zero(t, b.count("celebrating"))
	require.Equal(t, renderer.PhaseCelebrated, b.Phase())
}

func TestUnknownThemeFallsBackToDefault(t *testing.T) {
	t.Parallel()

	f := newFixture(t, time.Now())
	o := f.orchestrator(t, Settings{Target: target.Timer(time.Hour), Theme: "does-not-exist"})
	require.NoError(t, o.Start(context.Background()))
	require.Equal(t, "A", o.ActiveThemeID())
}

func TestMountFailureFallsBackToDefault(t *testing.T) {
	t.Parallel()

	f := newFixture(t, time.Now())
	o := f.orchestrator(t, Settings{Target: target.Timer(time.Hour), Theme: "B"})
	require.NoError(t, o.Start(context.Background()))
	b := activeSpy(t, o)

	err := o.SwitchTheme(context.Background(), "broken")
	var themeErr *countdownerrors.ThemeError
	require.ErrorAs(t, err, &themeErr)
	require.Equal(t, "broken", themeErr.Theme)
	require.ErrorContains(t, err, "boom")

	require.Equal(t, "A", o.ActiveThemeID())
	require.Equal(t, renderer.PhaseDestroyed, b.Phase())
	require.Equal(t, renderer.PhaseDestroyed, f.spies("broken")[0].Phase())
	require.Equal(t, activeSpy(t, o).ID(), f.surf.Owner())
}

func TestCancelledSwitchStillLeavesARendererMounted(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name  string
		from  string
		to    string
		dying string
	}{
		{name: "to default theme", from: "B", to: "A", dying: "B"},
		{name: "to other theme", from: "A", to: "B", dying: "A"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			f := newFixture(t, time.Now())
			o := f.orchestrator(t, Settings{Target: target.Timer(time.Hour), Theme: tc.from})
			require.NoError(t, o.Start(context.Background()))
			old := activeSpy(t, o)

			ctx, cancel := context.WithCancel(context.Background())
			cancel()
			err := o.SwitchTheme(ctx, tc.to)
			require.ErrorIs(t, err, context.Canceled)

			require.Equal(t, "A", o.ActiveThemeID())
			active := activeSpy(t, o)
			require.NotSame(t, old, active)
			require.Equal(t, renderer.PhaseCounting, active.Phase())
			require.Equal(t, active.ID(), f.surf.Owner())
			require.Equal(t, renderer.PhaseDestroyed, f.spies(tc.dying)[0].Phase())
		})
	}
}

func TestDestroyWaitsForInFlightSwitch(t *testing.T) {
	t.Parallel()

	f := newFixture(t, time.Now())
	entered := make(chan struct{})
	release := make(chan struct{})
	require.NoError(t, f.registry.Register(themes.Descriptor{ID: "slow"}, func(context.Context) (renderer.Factory, error) {
		close(entered)
		<-release
		return func() renderer.Renderer { return f.newSpy("slow") }, nil
	}))

	o := f.orchestrator(t, Settings{Target: target.Timer(time.Hour), Theme: "A"})
	require.NoError(t, o.Start(context.Background()))

	switched := make(chan error, 1)
	go func() { switched <- o.SwitchTheme(context.Background(), "slow") }()
	<-entered

	destroyed := make(chan error, 1)
	go func() { destroyed <- o.Destroy(context.Background()) }()

	select {
	case <-destroyed:
		t.Fatal("destroy returned while a switch was in flight")
	case <-time.After(20 * time.Millisecond):
	}

	close(release)
	require.NoError(t, <-switched)
	require.NoError(t, <-destroyed)

	require.Nil(t, o.Active())
	require.Equal(t, "", f.surf.Owner())
	for _, id := range []string{"A", "slow"} {
		for _, s := range f.spies(id) {
			require.Equal(t, renderer.PhaseDestroyed, s.Phase())
		}
	}
}

func TestMotionChangesAreForwardedWithoutRemount(t *testing.T) {
	t.Parallel()

	f := newFixture(t, time.Now())
	o := f.orchestrator(t, Settings{Target: target.Timer(time.Hour), Theme: "A"})
	require.NoError(t, o.Start(context.Background()))
	r := activeSpy(t, o)

	f.signals.SetHidden(true)
	require.Equal(t, []renderer.AnimationContext{{Enabled: false, Reason: motion.ReasonHidden}}, r.animations())
	require.Equal(t, 0, r.Tracker().Count(tracker.Interval))

	f.signals.SetHidden(false)
	require.Len(t, r.animations(), 2)
	require.True(t, r.animations()[1].Enabled)
	require.Same(t, r, activeSpy(t, o))
	require.Len(t, f.spies("A"), 1)
}

func TestDestroyIsIdempotent(t *testing.T) {
	t.Parallel()

	f := newFixture(t, time.Now())
	o := f.orchestrator(t, Settings{Target: target.Timer(time.Hour), Theme: "A"})
	require.NoError(t, o.Start(context.Background()))
	r := activeSpy(t, o)
	require.Equal(t, 1, f.signals.Listeners())

	for range 3 {
		require.NoError(t, o.Destroy(context.Background()))
	}
	require.Equal(t, renderer.PhaseDestroyed, r.Phase())
	require.Equal(t, 0, f.signals.Listeners())
	require.Equal(t, 0, r.Tracker().Len())
	require.Nil(t, o.Active())
	require.ErrorIs(t, o.SwitchTheme(context.Background(), "B"), ErrDestroyed)
	require.ErrorIs(t, o.Start(context.Background()), ErrDestroyed)
}

func TestTickUpdatesRemaining(t *testing.T) {
	t.Parallel()

	f := newFixture(t, time.Now())
	o := f.orchestrator(t, Settings{Target: target.Timer(10 * time.Second), Theme: "A"})
	require.NoError(t, o.Start(context.Background()))

	f.clock.Step(3 * time.Second)
	require.Equal(t, 7*time.Second, o.Remaining().Total)
	require.Eventually(t, func() bool {
		return f.surf.Snapshot().Rows[0][24].Rune == '7'
	}, waitFor, time.Millisecond)
}

func TestSetTargetAndMessage(t *testing.T) {
	t.Parallel()

	f := newFixture(t, time.Now())
	o := f.orchestrator(t, Settings{Target: target.Timer(time.Hour), Theme: "A"})
	require.NoError(t, o.Start(context.Background()))
	r := activeSpy(t, o)
	require.Equal(t, DefaultMessage, o.Message())

	require.NoError(t, o.SetTarget(target.Absolute(f.clock.Now().Add(-time.Minute))))
	require.Equal(t, renderer.PhaseCelebrated, o.Phase())
	require.Equal(t, 1, r.count("celebrated"))
	require.Zero(t, r.count("celebrating"))

	o.SetCompletionMessage("Welcome back")
	require.Equal(t, 2, r.count("celebrated"))
	require.Equal(t, "Welcome back", o.Message())

	require.Error(t, o.SetTarget(target.Moment{Mode: "lunar"}))
}

func TestUpdateContainerMovesActiveRenderer(t *testing.T) {
	t.Parallel()

	f := newFixture(t, time.Now())
	o := f.orchestrator(t, Settings{Target: target.Timer(time.Hour), Theme: "A"})
	require.NoError(t, o.Start(context.Background()))
	r := activeSpy(t, o)

	next := surface.New("fullscreen", 80, 20, f.clock)
	o.UpdateContainer(next)
	require.Equal(t, r.ID(), next.Owner())
	require.Equal(t, "", f.surf.Owner())
	require.Equal(t, renderer.PhaseCounting, r.Phase())
}
