package shotcut

import (
	"fmt"
	"regexp"
	"strconv"
	"time"
)

var clockPattern = regexp.MustCompile(`^(?:(\d+):)?(\d{2}):(\d{2}):(\d{2})\.(\d{3})$`)

// ParseClock converts an MLT clock string, "hh:mm:ss.mmm" with an optional
// leading "d:" day count, to a duration.
func ParseClock(s string) (time.Duration, error) {
	m := clockPattern.FindStringSubmatch(s)
	if m == nil {
		return 0, fmt.Errorf("%w: %q", ErrBadClock, s)
	}

	var parts [5]int
	for i, v := range m[1:] {
		if v == "" {
			continue
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			return 0, fmt.Errorf("%w: %q", ErrBadClock, s)
		}
		parts[i] = n
	}
	days, hours, minutes, seconds, millis := parts[0], parts[1], parts[2], parts[3], parts[4]
	if minutes > 59 || seconds > 59 {
		return 0, fmt.Errorf("%w: %q", ErrBadClock, s)
	}

	return time.Duration(days)*24*time.Hour +
		time.Duration(hours)*time.Hour +
		time.Duration(minutes)*time.Minute +
		time.Duration(seconds)*time.Second +
		time.Duration(millis)*time.Millisecond, nil
}

// FormatClock renders d as "hh:mm:ss.mmm", rounded to the millisecond.
// Negative durations are clamped to zero.
func FormatClock(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	ms := d.Round(time.Millisecond).Milliseconds()
	h := ms / 3_600_000
	m := ms / 60_000 % 60
	s := ms / 1000 % 60
	return fmt.Sprintf("%02d:%02d:%02d.%03d", h, m, s, ms%1000)
}
