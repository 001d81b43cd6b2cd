package renderer

import (
	"math/rand/v2"
	"time"
	"unicode/utf8"

	"github.com/alexisbeaulieu97/countdown/internal/surface"
)

// Canvas is handed to a Painter for the duration of one call. It must not be
// retained.
type Canvas struct {
	Layer   *surface.Layer
	Width   int
	Height  int
	Exclude surface.Rect
	Palette Palette
	Rand    *rand.Rand
	Now     time.Time
}

// Bounds returns the drawable area.
func (c *Canvas) Bounds() surface.Rect {
	return surface.Rect{W: c.Width, H: c.Height}
}

// Points lists every cell of the canvas row by row.
func (c *Canvas) Points() []surface.Point {
	out := make([]surface.Point, 0, c.Width*c.Height)
	for y := 0; y < c.Height; y++ {
		for x := 0; x < c.Width; x++ {
			out = append(out, surface.Point{X: x, Y: y})
		}
	}
	return out
}

// Center writes s horizontally centred on row y and returns the cells it
// covered. Text wider than the canvas is truncated.
func (c *Canvas) Center(y int, s string, color string, bold bool) []surface.Point {
	if y < 0 || y >= c.Height || c.Width <= 0 {
		return nil
	}
	runes := []rune(s)
	if len(runes) > c.Width {
		runes = runes[:c.Width]
	}
	x := (c.Width - len(runes)) / 2
	c.Layer.Text(x, y, string(runes), color, bold)

	pts := make([]surface.Point, 0, len(runes))
	for i := range runes {
		pts = append(pts, surface.Point{X: x + i, Y: y})
	}
	return pts
}

// TextWidth is the number of cells s occupies.
func TextWidth(s string) int {
	return utf8.RuneCountInString(s)
}
