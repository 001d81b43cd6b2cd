package target

import (
	"testing"
	"time"
	_ "time/tzdata"

	"github.com/stretchr/testify/require"

	countdownerrors "github.com/alexisbeaulieu97/countdown/pkg/errors"
)

func TestParseWallClockLayouts(t *testing.T) {
	t.Parallel()

	cases := map[string]WallClock{
		"2026-12-31T23:59:59": {Year: 2026, Month: time.December, Day: 31, Hour: 23, Minute: 59, Second: 59},
		"2026-12-31T23:59":    {Year: 2026, Month: time.December, Day: 31, Hour: 23, Minute: 59},
		"2026-12-31":          {Year: 2026, Month: time.December, Day: 31},
	}
	for input, want := range cases {
		got, err := ParseWallClock(input)
		require.NoError(t, err, input)
		require.Equal(t, want, got, input)
	}

	_, err := ParseWallClock("next tuesday")
	require.Error(t, err)
}

func TestWallClockResolvesPerTimezone(t *testing.T) {
	t.Parallel()

	w := WallClock{Year: 2027, Month: time.January, Day: 1}
	tokyo, err := LoadTimezone("Asia/Tokyo")
	require.NoError(t, err)
	ny, err := LoadTimezone("America/New_York")
	require.NoError(t, err)

	m := Wall(w)
	require.Equal(t, time.Date(2026, 12, 31, 15, 0, 0, 0, time.UTC), m.Resolve(tokyo, time.Time{}).UTC())
	require.Equal(t, time.Date(2027, 1, 1, 5, 0, 0, 0, time.UTC), m.Resolve(ny, time.Time{}).UTC())
}

func TestWallClockFollowsDaylightSaving(t *testing.T) {
	t.Parallel()

	ny, err := LoadTimezone("America/New_York")
	require.NoError(t, err)

	winter := Wall(WallClock{Year: 2026, Month: time.January, Day: 15, Hour: 12}).Resolve(ny, time.Time{})
	summer := Wall(WallClock{Year: 2026, Month: time.July, Day: 15, Hour: 12}).Resolve(ny, time.Time{})
	require.Equal(t, 17, winter.UTC().Hour())
	require.Equal(t, 16, summer.UTC().Hour())
}

func TestTimerAndAbsoluteResolve(t *testing.T) {
	t.Parallel()

	start := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	require.Equal(t, start.Add(90*time.Second), Timer(90*time.Second).Resolve(nil, start))

	instant := time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC)
	require.Equal(t, instant, Absolute(instant).Resolve(time.UTC, start))
}

func TestLoadTimezoneRejectsUnknown(t *testing.T) {
	t.Parallel()

	_, err := LoadTimezone("Invalid/Timezone")
	var validationErr *countdownerrors.ValidationError
	require.ErrorAs(t, err, &validationErr)
	require.Equal(t, "timezone", validationErr.Field)
	require.Equal(t, "Invalid/Timezone", validationErr.Value)

	_, err = LoadTimezone("  ")
	require.ErrorAs(t, err, &validationErr)
	require.Nil(t, validationErr.Value)
}

func TestModeValid(t *testing.T) {
	t.Parallel()

	require.True(t, ModeTimer.Valid())
	require.True(t, ModeWallClock.Valid())
	require.True(t, ModeAbsolute.Valid())
	require.False(t, Mode("stopwatch").Valid())
}

func TestRemainingFormatRoundsUp(t *testing.T) {
	t.Parallel()

	require.Equal(t, "00:00:00:02", Remaining{Total: 1500 * time.Millisecond}.Format())
	require.Equal(t, "00:00:00:00", Remaining{Total: -time.Second}.Format())
	require.Equal(t, "01:02:03:04", Remaining{Total: 26*time.Hour + 3*time.Minute + 4*time.Second}.Format())
	require.True(t, Remaining{}.Done())
	require.False(t, Until(time.Unix(10, 0), time.Unix(9, 0)).Done())
}
