// Package clock holds the wall-clock and calendar-date helpers used by the scheduler.
// Times of day are handled as minutes since midnight.
package clock

import (
	"fmt"
	"regexp"
	"strconv"
)

const (
	// MinutesPerDay is the number of minutes in a calendar day
	MinutesPerDay = 24 * 60
	// LastMinute is the last representable minute of a day (23:59)
	LastMinute = MinutesPerDay - 1
)

var hhmmPattern = regexp.MustCompile(`^([01][0-9]|2[0-3]):([0-5][0-9])$`)

// IsHHMM reports whether s is a valid 24-hour "HH:MM" time
func IsHHMM(s string) bool {
	return hhmmPattern.MatchString(s)
}

// ParseHHMM converts "HH:MM" to minutes since midnight
func ParseHHMM(s string) (int, error) {
	m := hhmmPattern.FindStringSubmatch(s)
	if m == nil {
		return 0, fmt.Errorf("invalid time %q: expected HH:MM (24-hour)", s)
	}
	hours, _ := strconv.Atoi(m[1])
	minutes, _ := strconv.Atoi(m[2])
	return hours*60 + minutes, nil
}

// MustParseHHMM is ParseHHMM for values already validated by the caller
func MustParseHHMM(s string) int {
	minutes, err := ParseHHMM(s)
	if err != nil {
		panic(err)
	}
	return minutes
}

// FormatHHMM converts minutes since midnight to "HH:MM".
// Out-of-range values are clamped to the day.
func FormatHHMM(minutes int) string {
	if minutes < 0 {
		minutes = 0
	}
	if minutes > LastMinute {
		minutes = LastMinute
	}
	return fmt.Sprintf("%02d:%02d", minutes/60, minutes%60)
}

// Overlaps reports whether the half-open ranges [aStart, aEnd) and [bStart, bEnd) intersect.
// Ranges that only touch at an endpoint do not overlap.
func Overlaps(aStart, aEnd, bStart, bEnd int) bool {
	return aStart < bEnd && bStart < aEnd
}

// OverlapMinutes returns the length of the intersection of two half-open ranges, or 0
func OverlapMinutes(aStart, aEnd, bStart, bEnd int) int {
	start := max(aStart, bStart)
	end := min(aEnd, bEnd)
	if end <= start {
		return 0
	}
	return end - start
}
