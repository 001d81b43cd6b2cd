package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/term"
	"k8s.io/utils/clock"

	"github.com/alexisbeaulieu97/countdown/internal/colormode"
	"github.com/alexisbeaulieu97/countdown/internal/config"
	"github.com/alexisbeaulieu97/countdown/internal/logger"
	"github.com/alexisbeaulieu97/countdown/internal/motion"
	"github.com/alexisbeaulieu97/countdown/internal/orchestrator"
	"github.com/alexisbeaulieu97/countdown/internal/renderer"
	"github.com/alexisbeaulieu97/countdown/internal/surface"
	"github.com/alexisbeaulieu97/countdown/internal/themes"
	"github.com/alexisbeaulieu97/countdown/internal/tui"
)

// Initial surface sizes; the interface resizes them to the terminal.
const (
	windowedWidth    = 40
	windowedHeight   = 7
	fullscreenWidth  = 80
	fullscreenHeight = 21
)

// destroyTimeout bounds teardown once the countdown stops.
const destroyTimeout = 2 * time.Second

type runOptions struct {
	Theme         string
	Timezone      string
	Mode          string
	Target        string
	Duration      time.Duration
	Message       string
	ReducedMotion bool
	Plain         bool
}

var runCmdRunner = runCountdown

func newRunCmd(flags *rootFlags) *cobra.Command {
	opts := &runOptions{}

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the countdown",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCmdRunner(cmd, flags, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.Theme, "theme", "t", "", "Theme id to start with")
	cmd.Flags().StringVarP(&opts.Timezone, "timezone", "z", "", "IANA timezone used to resolve wall-clock targets")
	cmd.Flags().StringVarP(&opts.Mode, "mode", "m", "", "Target mode: absolute, wall-clock or timer")
	cmd.Flags().StringVar(&opts.Target, "target", "", "RFC 3339 instant or wall-clock time (2006-01-02T15:04:05)")
	cmd.Flags().DurationVarP(&opts.Duration, "duration", "d", 0, "Timer duration")
	cmd.Flags().StringVar(&opts.Message, "message", "", "Completion message")
	cmd.Flags().BoolVar(&opts.ReducedMotion, "reduced-motion", false, "Disable animations")
	cmd.Flags().BoolVar(&opts.Plain, "plain", false, "Print the remaining time as lines instead of starting the interface")

	return cmd
}

func runCountdown(cmd *cobra.Command, flags *rootFlags, opts *runOptions) error {
	if err := validateConfigPath(flags.configPath); err != nil {
		return err
	}

	cfg, err := config.Load(flags.configPath)
	if err != nil {
		return err
	}
	applyRunOverrides(cmd, cfg, opts)
	if err := config.ValidateConfig(cfg); err != nil {
		return err
	}

	interactive := !opts.Plain && term.IsTerminal(int(os.Stdout.Fd()))

	log, err := newRunLogger(flags, interactive, cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	defer log.Close()

	moment, err := cfg.Moment()
	if err != nil {
		return err
	}
	pref, err := colormode.ParsePreference(cfg.ColorMode)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	registry := themes.Global()
	registry.SetLogger(log.Component("themes"))

	signals := motion.NewSignals(cfg.ReducedMotion)
	live := surface.NewLiveRegion(nil, surface.DefaultAnnounceInterval)
	windowed := surface.New("windowed", windowedWidth, windowedHeight, nil)
	fullscreen := surface.New("fullscreen", fullscreenWidth, fullscreenHeight, nil)

	orch, err := orchestrator.New(orchestrator.Options{
		Settings: orchestrator.Settings{
			Target:   moment,
			Timezone: cfg.Timezone,
			Theme:    cfg.Theme,
			Message:  cfg.Message,
		},
		Registry:   registry,
		Surface:    windowed,
		LiveRegion: live,
		Motion:     signals,
		ColorMode:  colormode.NewResolver(pref),
		Clock:      clock.RealClock{},
		Logger:     log,
	})
	if err != nil {
		return err
	}
	defer func() {
		destroyCtx, cancel := context.WithTimeout(context.Background(), destroyTimeout)
		defer cancel()
		if err := orch.Destroy(destroyCtx); err != nil {
			log.Error(err, "countdown teardown incomplete")
		}
	}()

	if err := orch.Start(ctx); err != nil {
		if orch.Active() == nil {
			return err
		}
		log.Error(err, "theme fell back to default")
	}

	if !interactive {
		return runPlain(ctx, cmd.OutOrStdout(), orch, clock.RealClock{})
	}

	return tui.Run(ctx, tui.Options{
		Controller: orch,
		Windowed:   windowed,
		Fullscreen: fullscreen,
		LiveRegion: live,
		Motion:     signals,
		Themes:     registry.IDs(),
		Zones:      cfg.ZoneCycle(),
		Title:      "countdown",
		Logger:     log.Component("tui"),
	})
}

// applyRunOverrides copies explicitly set flags over the loaded config.
func applyRunOverrides(cmd *cobra.Command, cfg *config.Config, opts *runOptions) {
	changed := func(name string) bool {
		f := cmd.Flags().Lookup(name)
		return f != nil && f.Changed
	}

	if changed("theme") {
		cfg.Theme = opts.Theme
	}
	if changed("timezone") {
		cfg.Timezone = opts.Timezone
	}
	if changed("mode") {
		cfg.Mode = opts.Mode
	}
	if changed("target") {
		cfg.Target = opts.Target
	}
	if changed("duration") {
		cfg.Duration = opts.Duration
	}
	if changed("message") {
		cfg.Message = opts.Message
	}
	if changed("reduced-motion") {
		cfg.ReducedMotion = opts.ReducedMotion
	}
}

// newRunLogger writes to stderr in plain mode. While the interface owns the
// terminal, logs go to --log-file or are discarded.
func newRunLogger(flags *rootFlags, interactive bool, stderr io.Writer) (*logger.Logger, error) {
	return logger.New(logger.Options{
		Level:         logger.LevelFor(flags.verbose),
		HumanReadable: true,
		Writer:        stderr,
		File:          flags.logFile,
		Quiet:         interactive,
	})
}

// plainPollInterval is how often plain mode samples the orchestrator.
const plainPollInterval = 250 * time.Millisecond

// runPlain prints the remaining time whenever it changes until the countdown
// completes or ctx is cancelled.
func runPlain(ctx context.Context, out io.Writer, orch *orchestrator.Orchestrator, c clock.WithTicker) error {
	ticker := c.NewTicker(plainPollInterval)
	defer ticker.Stop()

	last := ""
	for {
		switch orch.Phase() {
		case renderer.PhaseCelebrating, renderer.PhaseCelebrated:
			_, err := fmt.Fprintln(out, orch.Message())
			return err
		}

		if text := orch.Remaining().Format(); text != last {
			last = text
			if _, err := fmt.Fprintln(out, text); err != nil {
				return err
			}
		}

		select {
		case <-ctx.Done():
			if errors.Is(ctx.Err(), context.Canceled) {
				return nil
			}
			return ctx.Err()
		case <-ticker.C():
		}
	}
}
