package alert

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInQuietHours(t *testing.T) {
	at := func(hour, min int) time.Time {
		return time.Date(2026, 3, 10, hour, min, 0, 0, time.UTC)
	}

	tests := []struct {
		name       string
		now        time.Time
		start, end string
		want       bool
	}{
		{"inside simple window", at(10, 0), "09:00", "17:00", true},
		{"before simple window", at(8, 59), "09:00", "17:00", false},
		{"start is inclusive", at(9, 0), "09:00", "17:00", true},
		{"end is exclusive", at(17, 0), "09:00", "17:00", false},
		{"wraps midnight, late evening", at(23, 30), "22:00", "08:00", true},
		{"wraps midnight, early morning", at(7, 59), "22:00", "08:00", true},
		{"wraps midnight, daytime outside", at(12, 0), "22:00", "08:00", false},
		{"empty bounds mean no quiet hours", at(3, 0), "", "", false},
		{"equal bounds mean no quiet hours", at(3, 0), "08:00", "08:00", false},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := InQuietHours(tc.now, tc.start, tc.end, "UTC")
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestInQuietHoursTimezone(t *testing.T) {
	// 02:00 UTC is 21:00 the previous evening in New York (EST).
	now := time.Date(2026, 1, 15, 2, 0, 0, 0, time.UTC)

	quiet, err := InQuietHours(now, "20:00", "23:00", "America/New_York")
	require.NoError(t, err)
	assert.True(t, quiet)

	quiet, err = InQuietHours(now, "20:00", "23:00", "UTC")
	require.NoError(t, err)
	assert.False(t, quiet)
}

func TestInQuietHoursRejectsMalformedInput(t *testing.T) {
	now := time.Now()

	_, err := InQuietHours(now, "25:00", "08:00", "UTC")
	assert.Error(t, err)

	_, err = InQuietHours(now, "22:00", "08:00", "Not/AZone")
	assert.Error(t, err)
}
