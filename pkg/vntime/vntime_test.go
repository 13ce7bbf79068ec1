package vntime

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestParseHardwareLayoutRoundTrip(t *testing.T) {
	parsed, err := Parse("17-12-2025 23:01:02")
	require.NoError(t, err)

	require.Equal(t, 2025, parsed.Year())
	require.Equal(t, time.December, parsed.Month())
	require.Equal(t, 17, parsed.Day())
	require.Equal(t, 23, parsed.Hour())
	require.Equal(t, 1, parsed.Minute())
	require.Equal(t, 2, parsed.Second())

	require.Equal(t, "17-12-2025 23:01:02", Format(parsed))
}

func TestParseISOFormatsToHardwareLayout(t *testing.T) {
	parsed, err := Parse("2025-12-17T23:01:02.000Z")
	require.NoError(t, err)
	require.Equal(t, "17-12-2025 23:01:02", Format(parsed))
}

func TestParseRejectsGarbage(t *testing.T) {
	_, err := Parse("")
	require.Error(t, err)

	_, err = Parse("not-a-timestamp")
	require.Error(t, err)
}

func TestDayKey(t *testing.T) {
	parsed, err := Parse("06-12-2025 08:00:00")
	require.NoError(t, err)
	require.Equal(t, "2025-12-06", DayKey(parsed))
}
