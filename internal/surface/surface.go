// Package surface provides the render container a theme renderer draws into.
//
// A Surface is a fixed-size grid of cells. Exactly one owner may hold an
// attached Layer at a time, which is how the "one renderer per container"
// rule is enforced. Animations are declarative: a cell carries a Pulse with
// its own start and duration, and readers resolve it against the clock when
// they take a Snapshot, so nobody has to poll for completion.
package surface

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"k8s.io/utils/clock"
)

// ErrOccupied is returned by Attach when another owner already holds the surface.
var ErrOccupied = errors.New("surface: already attached")

// Point addresses a cell.
type Point struct {
	X, Y int
}

// Rect is an axis-aligned region of cells.
type Rect struct {
	X, Y, W, H int
}

// Empty reports whether the rect covers no cells.
func (r Rect) Empty() bool {
	return r.W <= 0 || r.H <= 0
}

// Contains reports whether p lies inside r.
func (r Rect) Contains(p Point) bool {
	if r.Empty() {
		return false
	}
	return p.X >= r.X && p.X < r.X+r.W && p.Y >= r.Y && p.Y < r.Y+r.H
}

// Pulse is a declarative, self-completing highlight.
type Pulse struct {
	Start    time.Time
	Duration time.Duration
}

// Active reports whether the pulse is still running at now.
func (p Pulse) Active(now time.Time) bool {
	if p.Duration <= 0 || p.Start.IsZero() {
		return false
	}
	return !now.Before(p.Start) && now.Before(p.Start.Add(p.Duration))
}

// Cell is one character position on the surface.
type Cell struct {
	Rune       rune
	Color      string
	PulseColor string
	Bold       bool
	Pulse      Pulse
}

// Frame is an immutable composed view of a surface.
type Frame struct {
	Width, Height int
	Rows          [][]Cell
	Revision      uint64
}

// Surface is a render container. It is safe for concurrent use.
type Surface struct {
	id    string
	clock clock.PassiveClock

	mu       sync.RWMutex
	width    int
	height   int
	layer    *Layer
	revision uint64
}

// New creates a surface of the given size. A nil clock selects the real clock.
func New(id string, width, height int, c clock.PassiveClock) *Surface {
	if c == nil {
		c = clock.RealClock{}
	}
	return &Surface{
		id:     id,
		clock:  c,
		width:  max(width, 0),
		height: max(height, 0),
	}
}

// ID returns the surface identifier.
func (s *Surface) ID() string {
	return s.id
}

// Now returns the surface clock's current time.
func (s *Surface) Now() time.Time {
	return s.clock.Now()
}

// Size returns the surface dimensions.
func (s *Surface) Size() (width, height int) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.width, s.height
}

// Resize changes the surface dimensions. Layer contents are kept and clipped
// when composed.
func (s *Surface) Resize(width, height int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.width = max(width, 0)
	s.height = max(height, 0)
	s.revision++
}

// Revision increments on every mutation of the surface or its layer.
func (s *Surface) Revision() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.revision
}

// Owner returns the owner of the attached layer, or "" when free.
func (s *Surface) Owner() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.layer == nil {
		return ""
	}
	return s.layer.owner
}

// Attach hands the surface to owner and returns its drawing layer.
func (s *Surface) Attach(owner string) (*Layer, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.layer != nil {
		return nil, fmt.Errorf("%w by %s", ErrOccupied, s.layer.owner)
	}

	l := &Layer{surface: s, owner: owner, cells: make(map[Point]Cell)}
	s.layer = l
	s.revision++
	return l, nil
}

// Detach removes the layer from the surface. Detaching a layer that is not
// attached is a no-op.
func (s *Surface) Detach(l *Layer) {
	if l == nil {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.layer != l {
		return
	}
	s.layer = nil
	l.detached = true
	s.revision++
}

// Snapshot composes the attached layer into a frame with pulses resolved
// against the current time.
func (s *Surface) Snapshot() Frame {
	now := s.clock.Now()

	s.mu.RLock()
	defer s.mu.RUnlock()

	rows := make([][]Cell, s.height)
	for y := range rows {
		row := make([]Cell, s.width)
		for x := range row {
			row[x] = Cell{Rune: ' '}
		}
		rows[y] = row
	}

	if s.layer != nil {
		for p, c := range s.layer.cells {
			if p.X < 0 || p.Y < 0 || p.X >= s.width || p.Y >= s.height {
				continue
			}
			if !c.Pulse.Active(now) {
				c.Pulse = Pulse{}
			}
			rows[p.Y][p.X] = c
		}
	}

	return Frame{Width: s.width, Height: s.height, Rows: rows, Revision: s.revision}
}
