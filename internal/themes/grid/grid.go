// Package grid is a pixel-art countdown: the digits are drawn from lit squares
// on a dim grid, idle squares twinkle, and completion fills the grid before
// revealing the message.
package grid

import (
	"time"

	"github.com/alexisbeaulieu97/countdown/internal/renderer"
	"github.com/alexisbeaulieu97/countdown/internal/surface"
	"github.com/alexisbeaulieu97/countdown/internal/target"
	"github.com/alexisbeaulieu97/countdown/internal/themes"
)

// ID is the registry id of this theme.
const ID = "grid"

const (
	onRune  = '█'
	offRune = '·'

	glyphHeight = 5
	buildFrames = 16
)

var glyphs = map[rune][glyphHeight]string{
	'0': {"###", "#.#", "#.#", "#.#", "###"},
	'1': {".#.", "##.", ".#.", ".#.", "###"},
	'2': {"###", "..#", "###", "#..", "###"},
	'3': {"###", "..#", ".##", "..#", "###"},
	'4': {"#.#", "#.#", "###", "..#", "..#"},
	'5': {"###", "#..", "###", "..#", "###"},
	'6': {"###", "#..", "###", "#.#", "###"},
	'7': {"###", "..#", ".#.", ".#.", ".#."},
	'8': {"###", "#.#", "###", "#.#", "###"},
	'9': {"###", "#.#", "###", "..#", "###"},
	':': {".", "#", ".", "#", "."},
}

// Descriptor is the registry metadata of the theme.
var Descriptor = themes.Descriptor{
	ID:          ID,
	Name:        "Contribution grid",
	Description: "Pixel digits on a grid of squares with twinkling idle cells",
	Accents:     renderer.Accents{Light: "#216e39", Dark: "#39d353"},
	Flags:       themes.Flags{TimezoneSelector: true, MessageLine: true},
}

func init() {
	themes.MustRegister(Descriptor, themes.Static(New))
}

// New returns a fresh, unmounted grid renderer.
func New() renderer.Renderer {
	return renderer.New(renderer.Options{
		Theme:   ID,
		Accents: Descriptor.Accents,
		Painter: &painter{},
	})
}

type painter struct {
	lit map[surface.Point]bool
}

// layout returns the lit squares of text centred on the canvas, or false when
// it does not fit.
func layout(c *renderer.Canvas, text string) (map[surface.Point]bool, bool) {
	width := 0
	for i, r := range text {
		g, ok := glyphs[r]
		if !ok {
			return nil, false
		}
		if i > 0 {
			width++
		}
		width += len(g[0])
	}
	if width > c.Width || glyphHeight > c.Height {
		return nil, false
	}

	x0 := (c.Width - width) / 2
	y0 := (c.Height - glyphHeight) / 2
	lit := make(map[surface.Point]bool)
	x := x0
	for _, r := range text {
		g := glyphs[r]
		for dy, row := range g {
			for dx, px := range row {
				if px == '#' {
					lit[surface.Point{X: x + dx, Y: y0 + dy}] = true
				}
			}
		}
		x += len(g[0]) + 1
	}
	return lit, true
}

func (p *painter) PaintTime(c *renderer.Canvas, remaining target.Remaining) {
	text := remaining.Format()
	lit, ok := layout(c, text)
	if !ok {
		p.paintGrid(c, nil)
		p.lit = make(map[surface.Point]bool)
		for _, pt := range c.Center(c.Height/2, text, c.Palette.Accent, true) {
			p.lit[pt] = true
		}
		return
	}
	p.paintGrid(c, lit)
	p.lit = lit
}

func (p *painter) paintGrid(c *renderer.Canvas, lit map[surface.Point]bool) {
	for _, pt := range c.Points() {
		if lit[pt] {
			c.Layer.Paint(pt, surface.Cell{Rune: onRune, Color: c.Palette.Accent})
			continue
		}
		c.Layer.Paint(pt, surface.Cell{Rune: offRune, Color: c.Palette.Off})
	}
}

func (p *painter) Ambient(c *renderer.Canvas, _ renderer.Phase) []surface.Point {
	out := make([]surface.Point, 0, c.Width*c.Height)
	for _, pt := range c.Points() {
		if !p.lit[pt] {
			out = append(out, pt)
		}
	}
	return out
}

func (p *painter) Activate(c *renderer.Canvas, pt surface.Point) {
	d := 400*time.Millisecond + time.Duration(c.Rand.IntN(500))*time.Millisecond
	c.Layer.Pulse(pt, c.Palette.Highlight, d)
}

func (p *painter) Celebration(opts renderer.CelebrationOptions) []renderer.Stage {
	return []renderer.Stage{
		{
			Name:          "build",
			Frames:        buildFrames,
			FrameInterval: 60 * time.Millisecond,
			Draw:          p.drawBuild,
		},
		{
			Name:   "message",
			Frames: 1,
			Draw: func(c *renderer.Canvas, _ int) {
				c.Layer.Clear()
				c.Center(c.Height/2, opts.Message, c.Palette.Accent, true)
			},
			Hold: 1500 * time.Millisecond,
		},
	}
}

// drawBuild lights a random slice of the grid each frame so the whole grid
// is lit by the last one.
func (p *painter) drawBuild(c *renderer.Canvas, frame int) {
	pts := c.Points()
	if len(pts) == 0 {
		return
	}
	if frame == buildFrames-1 {
		for _, pt := range pts {
			c.Layer.Set(pt, surface.Cell{Rune: onRune, Color: c.Palette.Accent})
		}
		return
	}
	n := len(pts)/buildFrames + 1
	for range n {
		pt := pts[c.Rand.IntN(len(pts))]
		c.Layer.Set(pt, surface.Cell{Rune: onRune, Color: c.Palette.Accent})
	}
}

func (p *painter) PaintCelebrated(c *renderer.Canvas, opts renderer.CelebrationOptions) {
	p.paintGrid(c, nil)
	p.lit = make(map[surface.Point]bool)
	for _, pt := range c.Center(c.Height/2, opts.Message, c.Palette.Foreground, true) {
		p.lit[pt] = true
	}
}
