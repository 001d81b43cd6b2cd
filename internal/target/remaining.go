package target

import (
	"fmt"
	"time"
)

// Remaining is the time left until the target.
type Remaining struct {
	Total time.Duration
}

// Until computes the time left from now until at.
func Until(at, now time.Time) Remaining {
	return Remaining{Total: at.Sub(now)}
}

// Done reports whether the target has been reached.
func (r Remaining) Done() bool {
	return r.Total <= 0
}

// Parts splits the remaining time into whole days, hours, minutes and
// seconds. Partial seconds round up so the display reaches zero exactly when
// the target is reached.
func (r Remaining) Parts() (days, hours, minutes, seconds int) {
	if r.Total <= 0 {
		return 0, 0, 0, 0
	}
	total := int64((r.Total + time.Second - 1) / time.Second)
	days = int(total / 86400)
	hours = int(total % 86400 / 3600)
	minutes = int(total % 3600 / 60)
	seconds = int(total % 60)
	return days, hours, minutes, seconds
}

// Format renders the remaining time as DD:HH:MM:SS.
func (r Remaining) Format() string {
	d, h, m, s := r.Parts()
	return fmt.Sprintf("%02d:%02d:%02d:%02d", d, h, m, s)
}

func (r Remaining) String() string {
	return r.Format()
}
