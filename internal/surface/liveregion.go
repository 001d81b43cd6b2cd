package surface

import (
	"sync"
	"time"

	"golang.org/x/time/rate"
	"k8s.io/utils/clock"
)

// Politeness mirrors the aria-live levels of an accessibility status region.
type Politeness int

const (
	// Polite announcements are rate limited and may be dropped.
	Polite Politeness = iota
	// Assertive announcements are always written.
	Assertive
)

// DefaultAnnounceInterval is the minimum spacing between polite announcements.
const DefaultAnnounceInterval = time.Second

// LiveRegion is the shared accessibility status line. Writers replace its
// text; nothing in the application reads it back for decisions.
type LiveRegion struct {
	clock   clock.PassiveClock
	limiter *rate.Limiter

	mu   sync.Mutex
	text string
	seq  uint64
}

// NewLiveRegion creates a live region allowing one polite announcement per
// interval. A nil clock selects the real clock.
func NewLiveRegion(c clock.PassiveClock, interval time.Duration) *LiveRegion {
	if c == nil {
		c = clock.RealClock{}
	}
	if interval <= 0 {
		interval = DefaultAnnounceInterval
	}
	return &LiveRegion{
		clock:   c,
		limiter: rate.NewLimiter(rate.Every(interval), 1),
	}
}

// Announce replaces the region text. It returns false when a polite
// announcement was dropped by the rate limiter.
func (l *LiveRegion) Announce(text string, p Politeness) bool {
	if l == nil {
		return false
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if p == Polite && !l.limiter.AllowN(l.clock.Now(), 1) {
		return false
	}
	l.text = text
	l.seq++
	return true
}

// Text returns the current announcement for display.
func (l *LiveRegion) Text() string {
	if l == nil {
		return ""
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.text
}

// Seq counts written announcements.
func (l *LiveRegion) Seq() uint64 {
	if l == nil {
		return 0
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.seq
}
