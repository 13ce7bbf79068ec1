// Package vntime parses and formats the day-first timestamp format the
// scanning hardware writes ("17-12-2025 23:01:02") alongside ISO-8601.
package vntime

import (
	"fmt"
	"strings"
	"time"
)

// Layout is the hardware timestamp format, day first.
const Layout = "02-01-2006 15:04:05"

// DayLayout is the calendar-day bucket used for aggregation.
const DayLayout = "2006-01-02"

var isoLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// Format renders a timestamp in the hardware layout. The value keeps its own
// location so a parsed string round-trips to the identical wall clock.
func Format(t time.Time) string {
	return t.Format(Layout)
}

// Parse accepts the hardware layout first, then ISO-8601 variants.
func Parse(value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, fmt.Errorf("empty timestamp")
	}

	if t, err := time.ParseInLocation(Layout, value, time.Local); err == nil {
		return t, nil
	}

	for _, layout := range isoLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t, nil
		}
	}

	return time.Time{}, fmt.Errorf("unrecognized timestamp %q", value)
}

// DayKey buckets a timestamp into its calendar day.
func DayKey(t time.Time) string {
	return t.Format(DayLayout)
}
