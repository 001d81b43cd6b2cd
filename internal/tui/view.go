package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"

	"github.com/alexisbeaulieu97/countdown/internal/surface"
)

// View renders the current state of the model.
func (m Model) View() string {
	if m.quitting {
		return ""
	}

	var body string
	if s := m.activeSurface(); s != nil {
		body = RenderFrame(s.Snapshot())
	}
	if !m.full {
		body = frameStyle.Render(body)
	}
	body = lipgloss.Place(m.width, max(m.height-statusLines, 1), lipgloss.Center, lipgloss.Center, body)

	return lipgloss.JoinVertical(lipgloss.Left, body, m.statusLine(), m.help.View(m.keys))
}

func (m Model) statusLine() string {
	parts := []string{}
	if m.title != "" {
		parts = append(parts, titleStyle.Render(m.title))
	}
	if m.ctrl != nil {
		parts = append(parts, statusStyle.Render(fmt.Sprintf("%s • %s • %s • %s",
			m.ctrl.ActiveThemeID(), m.ctrl.Timezone(), m.ctrl.Phase(), m.ctrl.Remaining())))
	}
	if m.signals != nil && !m.signals.State().AnimationsEnabled() {
		parts = append(parts, statusStyle.Render("motion paused"))
	}
	if text := m.live.Text(); text != "" {
		parts = append(parts, announceStyle.Render(text))
	}
	if m.errMsg != "" {
		parts = append(parts, failureStyle.Render(m.errMsg))
	}
	return ansi.Truncate(strings.Join(parts, "  "), max(m.width, 1), "…")
}

// RenderFrame turns a composed surface frame into styled terminal text. Runs
// of identically styled cells share one style render.
func RenderFrame(f surface.Frame) string {
	lines := make([]string, 0, len(f.Rows))
	for _, row := range f.Rows {
		var b strings.Builder
		var run strings.Builder
		var style cellStyle
		flush := func() {
			if run.Len() == 0 {
				return
			}
			b.WriteString(style.render(run.String()))
			run.Reset()
		}
		for i, c := range row {
			cs := styleOf(c)
			if i > 0 && cs != style {
				flush()
			}
			style = cs
			r := c.Rune
			if r == 0 {
				r = ' '
			}
			run.WriteRune(r)
		}
		flush()
		lines = append(lines, b.String())
	}
	return strings.Join(lines, "\n")
}

type cellStyle struct {
	color string
	bold  bool
}

func styleOf(c surface.Cell) cellStyle {
	color := c.Color
	if !c.Pulse.Start.IsZero() && c.PulseColor != "" {
		color = c.PulseColor
	}
	return cellStyle{color: color, bold: c.Bold}
}

func (s cellStyle) render(text string) string {
	if s.color == "" && !s.bold {
		return text
	}
	st := lipgloss.NewStyle().Bold(s.bold)
	if s.color != "" {
		st = st.Foreground(lipgloss.Color(s.color))
	}
	return st.Render(text)
}
