// Package tui hosts the countdown in a Bubble Tea program: it owns the
// surfaces, turns terminal focus into visibility and forwards key presses to
// the orchestrator.
package tui

import (
	"context"
	"time"

	"github.com/charmbracelet/bubbles/help"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/alexisbeaulieu97/countdown/internal/logger"
	"github.com/alexisbeaulieu97/countdown/internal/motion"
	"github.com/alexisbeaulieu97/countdown/internal/renderer"
	"github.com/alexisbeaulieu97/countdown/internal/surface"
	"github.com/alexisbeaulieu97/countdown/internal/target"
)

// FrameInterval is how often the view is repainted from the surface.
const FrameInterval = 100 * time.Millisecond

// Controller is the part of the orchestrator the host drives.
type Controller interface {
	SwitchTheme(ctx context.Context, id string) error
	SetTimezone(tz string) error
	UpdateContainer(s *surface.Surface)
	Refit()
	ActiveThemeID() string
	Timezone() string
	Phase() renderer.Phase
	Remaining() target.Remaining
}

// Options configures the host model.
type Options struct {
	Controller Controller
	// Windowed is the surface the countdown starts on; Fullscreen the one
	// the fullscreen toggle moves it to.
	Windowed   *surface.Surface
	Fullscreen *surface.Surface
	LiveRegion *surface.LiveRegion
	Motion     *motion.Signals
	Themes     []string
	Zones      []string
	Title      string
	Logger     *logger.Logger
}

type frameMsg time.Time

// switchedMsg reports the end of an asynchronous theme switch.
type switchedMsg struct {
	ID  string
	Err error
}

// Model contains the Bubbletea state of the countdown host.
type Model struct {
	ctx        context.Context
	ctrl       Controller
	windowed   *surface.Surface
	fullscreen *surface.Surface
	live       *surface.LiveRegion
	signals    *motion.Signals
	themes     []string
	zones      []string
	title      string
	log        *logger.Logger

	keys keyMap
	help help.Model

	full      bool
	switching bool
	width     int
	height    int
	errMsg    string
	quitting  bool
}

// NewModel constructs the host model.
func NewModel(ctx context.Context, opts Options) Model {
	if ctx == nil {
		ctx = context.Background()
	}
	return Model{
		ctx:        ctx,
		ctrl:       opts.Controller,
		windowed:   opts.Windowed,
		fullscreen: opts.Fullscreen,
		live:       opts.LiveRegion,
		signals:    opts.Motion,
		themes:     opts.Themes,
		zones:      opts.Zones,
		title:      opts.Title,
		log:        opts.Logger,
		keys:       defaultKeyMap(),
		help:       help.New(),
		width:      80,
		height:     24,
	}
}

// Init starts the repaint loop.
func (m Model) Init() tea.Cmd {
	return frameCmd()
}

func frameCmd() tea.Cmd {
	return tea.Tick(FrameInterval, func(t time.Time) tea.Msg { return frameMsg(t) })
}

// Fullscreen reports whether the countdown is on the fullscreen surface.
func (m Model) Fullscreen() bool {
	return m.full
}

// Quitting reports whether the user asked to quit.
func (m Model) Quitting() bool {
	return m.quitting
}

func (m Model) activeSurface() *surface.Surface {
	if m.full && m.fullscreen != nil {
		return m.fullscreen
	}
	return m.windowed
}

// next returns the entry after current in list, wrapping around.
func next(list []string, current string) string {
	if len(list) == 0 {
		return current
	}
	for i, v := range list {
		if v == current {
			return list[(i+1)%len(list)]
		}
	}
	return list[0]
}

// Run starts the Bubble Tea program and blocks until it exits.
func Run(ctx context.Context, opts Options) error {
	p := tea.NewProgram(
		NewModel(ctx, opts),
		tea.WithContext(ctx),
		tea.WithAltScreen(),
		tea.WithReportFocus(),
	)
	_, err := p.Run()
	return err
}
