package surface

import "time"

// Layer is the drawing handle a single owner receives from Attach. Writes to
// a detached layer are dropped.
type Layer struct {
	surface  *Surface
	owner    string
	cells    map[Point]Cell
	detached bool
}

// Owner returns the layer owner.
func (l *Layer) Owner() string {
	return l.owner
}

// Surface returns the surface the layer was attached to.
func (l *Layer) Surface() *Surface {
	return l.surface
}

// Attached reports whether the layer still belongs to its surface.
func (l *Layer) Attached() bool {
	l.surface.mu.RLock()
	defer l.surface.mu.RUnlock()
	return !l.detached
}

// Set writes a single cell.
func (l *Layer) Set(p Point, c Cell) {
	l.mutate(func() { l.cells[p] = c })
}

// Paint writes a cell but keeps a pulse that is still running on it, so a
// redraw does not cut an ambient highlight short.
func (l *Layer) Paint(p Point, c Cell) {
	now := l.surface.clock.Now()
	l.mutate(func() {
		if prev, ok := l.cells[p]; ok && prev.Pulse.Active(now) {
			c.Pulse = prev.Pulse
			c.PulseColor = prev.PulseColor
		}
		l.cells[p] = c
	})
}

// Get returns the cell at p.
func (l *Layer) Get(p Point) (Cell, bool) {
	l.surface.mu.RLock()
	defer l.surface.mu.RUnlock()
	c, ok := l.cells[p]
	return c, ok
}

// Text writes s horizontally starting at (x, y).
func (l *Layer) Text(x, y int, s string, color string, bold bool) {
	l.mutate(func() {
		i := 0
		for _, r := range s {
			l.cells[Point{X: x + i, Y: y}] = Cell{Rune: r, Color: color, Bold: bold}
			i++
		}
	})
}

// Pulse starts a declarative highlight on an existing cell. The cell returns
// to its base look on its own once d has elapsed.
func (l *Layer) Pulse(p Point, color string, d time.Duration) {
	now := l.surface.clock.Now()
	l.mutate(func() {
		c, ok := l.cells[p]
		if !ok {
			c = Cell{Rune: ' '}
		}
		c.PulseColor = color
		c.Pulse = Pulse{Start: now, Duration: d}
		l.cells[p] = c
	})
}

// Pulsing reports whether the cell at p has a running pulse.
func (l *Layer) Pulsing(p Point) bool {
	now := l.surface.clock.Now()
	l.surface.mu.RLock()
	defer l.surface.mu.RUnlock()
	return l.cells[p].Pulse.Active(now)
}

// Clear removes every cell.
func (l *Layer) Clear() {
	l.mutate(func() { l.cells = make(map[Point]Cell) })
}

// Move transfers the layer contents onto another surface, detaching it from
// the current one. It fails when the destination is occupied.
func (l *Layer) Move(dst *Surface) (*Layer, error) {
	if dst == l.surface {
		return l, nil
	}

	next, err := dst.Attach(l.owner)
	if err != nil {
		return nil, err
	}

	l.surface.mu.RLock()
	cells := make(map[Point]Cell, len(l.cells))
	for p, c := range l.cells {
		cells[p] = c
	}
	l.surface.mu.RUnlock()

	dst.mu.Lock()
	next.cells = cells
	dst.revision++
	dst.mu.Unlock()

	l.surface.Detach(l)
	return next, nil
}

func (l *Layer) mutate(fn func()) {
	l.surface.mu.Lock()
	defer l.surface.mu.Unlock()
	if l.detached {
		return
	}
	fn()
	l.surface.revision++
}
