package tui

import (
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
)

// statusLines is the height reserved below the countdown.
const statusLines = 3

// Update handles Bubbletea messages and updates model state.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case frameMsg:
		return m, frameCmd()
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.resize()
		return m, nil
	case tea.FocusMsg:
		if m.signals != nil {
			m.signals.SetHidden(false)
		}
		return m, nil
	case tea.BlurMsg:
		if m.signals != nil {
			m.signals.SetHidden(true)
		}
		return m, nil
	case switchedMsg:
		m.switching = false
		m.errMsg = ""
		if msg.Err != nil {
			m.errMsg = msg.Err.Error()
			m.log.WithField("theme", msg.ID).Error(msg.Err, "theme switch failed")
		}
		return m, nil
	case tea.KeyMsg:
		return m.handleKey(msg)
	}

	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		m.quitting = true
		return m, tea.Quit
	case key.Matches(msg, m.keys.Theme):
		if m.switching || m.ctrl == nil {
			return m, nil
		}
		m.switching = true
		return m, m.switchTheme(next(m.themes, m.ctrl.ActiveThemeID()))
	case key.Matches(msg, m.keys.Zone):
		if m.ctrl == nil {
			return m, nil
		}
		m.errMsg = ""
		if err := m.ctrl.SetTimezone(next(m.zones, m.ctrl.Timezone())); err != nil {
			m.errMsg = err.Error()
		}
		return m, nil
	case key.Matches(msg, m.keys.Motion):
		if m.signals != nil {
			m.signals.SetReducedMotion(!m.signals.IsReducedMotionActive())
		}
		return m, nil
	case key.Matches(msg, m.keys.Fullscreen):
		if m.fullscreen == nil || m.ctrl == nil {
			return m, nil
		}
		m.full = !m.full
		m.ctrl.UpdateContainer(m.activeSurface())
		return m, nil
	case key.Matches(msg, m.keys.Help):
		m.help.ShowAll = !m.help.ShowAll
		return m, nil
	}
	return m, nil
}

// switchTheme runs the switch off the update loop; destroying the old
// renderer waits for its goroutines.
func (m Model) switchTheme(id string) tea.Cmd {
	ctrl, ctx := m.ctrl, m.ctx
	return func() tea.Msg {
		return switchedMsg{ID: id, Err: ctrl.SwitchTheme(ctx, id)}
	}
}

// resize fits both surfaces to the terminal: fullscreen takes everything
// above the status lines, windowed half of it.
func (m *Model) resize() {
	w := max(m.width, 1)
	h := max(m.height-statusLines, 1)
	if m.fullscreen != nil {
		m.fullscreen.Resize(w, h)
	}
	if m.windowed != nil {
		m.windowed.Resize(max(w/2, min(w, 40)), max(h/2, min(h, 7)))
	}
	m.help.Width = w
	if m.ctrl != nil {
		m.ctrl.Refit()
	}
}
