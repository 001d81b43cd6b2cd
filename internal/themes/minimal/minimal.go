// Package minimal renders the countdown as plain centred text with blinking
// separators and types the completion message out one rune at a time.
package minimal

import (
	"fmt"
	"time"

	"github.com/alexisbeaulieu97/countdown/internal/renderer"
	"github.com/alexisbeaulieu97/countdown/internal/surface"
	"github.com/alexisbeaulieu97/countdown/internal/target"
	"github.com/alexisbeaulieu97/countdown/internal/themes"
)

// ID is the registry id of this theme.
const ID = "minimal"

const (
	labels     = "dd     hh     mm     ss"
	blink      = 500 * time.Millisecond
	typeSpeed  = 70 * time.Millisecond
	typedPause = time.Second
)

// Descriptor is the registry metadata of the theme.
var Descriptor = themes.Descriptor{
	ID:          ID,
	Name:        "Minimal",
	Description: "Plain text countdown with blinking separators",
	Accents:     renderer.Accents{Light: "#0969da", Dark: "#58a6ff"},
	Flags:       themes.Flags{MessageLine: true},
}

func init() {
	themes.MustRegister(Descriptor, themes.Static(New))
}

// New returns a fresh, unmounted minimal renderer.
func New() renderer.Renderer {
	return renderer.New(renderer.Options{
		Theme:            ID,
		Accents:          Descriptor.Accents,
		Painter:          &painter{},
		ActivityInterval: time.Second,
		ActivityDensity:  1,
	})
}

type painter struct {
	separators []surface.Point
}

// spaced renders the remaining time with room for the labels row below.
func spaced(remaining target.Remaining) string {
	d, h, m, s := remaining.Parts()
	return fmt.Sprintf("%02d  :  %02d  :  %02d  :  %02d", d, h, m, s)
}

func (p *painter) PaintTime(c *renderer.Canvas, remaining target.Remaining) {
	y := c.Height / 2
	c.Layer.Clear()
	p.separators = p.separators[:0]
	for _, pt := range c.Center(y, spaced(remaining), c.Palette.Foreground, true) {
		if cell, ok := c.Layer.Get(pt); ok && cell.Rune == ':' {
			p.separators = append(p.separators, pt)
		}
	}
	if y+1 < c.Height {
		c.Center(y+1, labels, c.Palette.Dim, false)
	}
}

// Ambient blinks the separators while counting; nothing moves once settled.
func (p *painter) Ambient(_ *renderer.Canvas, phase renderer.Phase) []surface.Point {
	if phase == renderer.PhaseCelebrated {
		return nil
	}
	return p.separators
}

func (p *painter) Activate(c *renderer.Canvas, pt surface.Point) {
	c.Layer.Pulse(pt, c.Palette.Off, blink)
}

func (p *painter) Celebration(opts renderer.CelebrationOptions) []renderer.Stage {
	runes := []rune(opts.Message)
	return []renderer.Stage{{
		Name:          "type",
		Frames:        len(runes),
		FrameInterval: typeSpeed,
		Draw: func(c *renderer.Canvas, frame int) {
			if frame == 0 {
				c.Layer.Clear()
			}
			x := (c.Width-len(runes))/2 + frame
			c.Layer.Set(surface.Point{X: x, Y: c.Height / 2}, surface.Cell{Rune: runes[frame], Color: c.Palette.Accent, Bold: true})
		},
		Hold: typedPause,
	}}
}

func (p *painter) PaintCelebrated(c *renderer.Canvas, opts renderer.CelebrationOptions) {
	p.separators = p.separators[:0]
	c.Center(c.Height/2, opts.Message, c.Palette.Accent, true)
}
