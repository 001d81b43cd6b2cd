// Package target resolves the countdown's target moment and formats the time
// left until it.
package target

import (
	"fmt"
	"strings"
	"time"

	countdownerrors "github.com/alexisbeaulieu97/countdown/pkg/errors"
)

// Mode selects how the target moment is expressed.
type Mode string

const (
	// ModeWallClock targets date/time components re-evaluated in the selected timezone.
	ModeWallClock Mode = "wall-clock"
	// ModeAbsolute targets a fixed instant.
	ModeAbsolute Mode = "absolute"
	// ModeTimer targets a duration measured from Start.
	ModeTimer Mode = "timer"
)

// Valid reports whether m is a known mode.
func (m Mode) Valid() bool {
	switch m {
	case ModeWallClock, ModeAbsolute, ModeTimer:
		return true
	default:
		return false
	}
}

var wallClockLayouts = []string{
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// WallClock holds timezone-less date and time components.
type WallClock struct {
	Year   int
	Month  time.Month
	Day    int
	Hour   int
	Minute int
	Second int
}

// ParseWallClock parses "2006-01-02T15:04:05" and its shorter variants.
func ParseWallClock(s string) (WallClock, error) {
	s = strings.TrimSpace(s)
	for _, layout := range wallClockLayouts {
		t, err := time.Parse(layout, s)
		if err != nil {
			continue
		}
		return WallClock{
			Year:   t.Year(),
			Month:  t.Month(),
			Day:    t.Day(),
			Hour:   t.Hour(),
			Minute: t.Minute(),
			Second: t.Second(),
		}, nil
	}
	return WallClock{}, fmt.Errorf("invalid wall-clock time %q: expected YYYY-MM-DDTHH:MM:SS", s)
}

// In interprets the components in loc. Components that fall into a daylight
// saving gap are normalized by the time package.
func (w WallClock) In(loc *time.Location) time.Time {
	return time.Date(w.Year, w.Month, w.Day, w.Hour, w.Minute, w.Second, 0, loc)
}

func (w WallClock) String() string {
	return fmt.Sprintf("%04d-%02d-%02dT%02d:%02d:%02d", w.Year, int(w.Month), w.Day, w.Hour, w.Minute, w.Second)
}

// Moment is the countdown target in one of the three modes.
type Moment struct {
	Mode     Mode
	Instant  time.Time
	Wall     WallClock
	Duration time.Duration
}

// Absolute returns a Moment for a fixed instant.
func Absolute(t time.Time) Moment {
	return Moment{Mode: ModeAbsolute, Instant: t}
}

// Wall returns a wall-clock Moment.
func Wall(w WallClock) Moment {
	return Moment{Mode: ModeWallClock, Wall: w}
}

// Timer returns a Moment d after the countdown starts.
func Timer(d time.Duration) Moment {
	return Moment{Mode: ModeTimer, Duration: d}
}

// Resolve returns the concrete instant of the target. loc is consulted in
// wall-clock mode and started in timer mode.
func (m Moment) Resolve(loc *time.Location, started time.Time) time.Time {
	switch m.Mode {
	case ModeWallClock:
		if loc == nil {
			loc = time.UTC
		}
		return m.Wall.In(loc)
	case ModeTimer:
		return started.Add(m.Duration)
	default:
		return m.Instant
	}
}

// LoadTimezone validates name against the timezone database.
func LoadTimezone(name string) (*time.Location, error) {
	if strings.TrimSpace(name) == "" {
		return nil, countdownerrors.NewValidationError("timezone", "timezone is required", nil)
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return nil, countdownerrors.NewInvalidValueError("timezone", name, "unknown time zone", err)
	}
	return loc, nil
}
