package alert

import (
	"fmt"
	"time"
)

// InQuietHours reports whether now falls inside the [start, end) window in
// the given timezone. The window wraps across midnight when end precedes
// start. Empty bounds mean no quiet hours.
func InQuietHours(now time.Time, start, end, timezone string) (bool, error) {
	if start == "" || end == "" {
		return false, nil
	}

	startMin, err := parseClock(start)
	if err != nil {
		return false, err
	}
	endMin, err := parseClock(end)
	if err != nil {
		return false, err
	}
	if startMin == endMin {
		return false, nil
	}

	loc := time.UTC
	if timezone != "" {
		loc, err = time.LoadLocation(timezone)
		if err != nil {
			return false, fmt.Errorf("invalid quiet hours timezone %q: %w", timezone, err)
		}
	}

	local := now.In(loc)
	nowMin := local.Hour()*60 + local.Minute()

	if startMin < endMin {
		return nowMin >= startMin && nowMin < endMin, nil
	}
	// Window wraps midnight, e.g. 22:00-08:00.
	return nowMin >= startMin || nowMin < endMin, nil
}

func parseClock(s string) (int, error) {
	t, err := time.Parse("15:04", s)
	if err != nil {
		return 0, fmt.Errorf("invalid quiet hours time %q: %w", s, err)
	}
	return t.Hour()*60 + t.Minute(), nil
}
