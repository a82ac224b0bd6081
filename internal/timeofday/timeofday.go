// Package timeofday handles facility-local wall-clock times of day.
// Times are stored and transmitted as zero-padded "HH:MM" strings but all
// arithmetic and comparisons happen on integer minutes since midnight.
package timeofday

import (
	"fmt"
)

const MinutesPerDay = 24 * 60

// Minutes is a time of day expressed as minutes since midnight, 0..1439.
type Minutes int

// Parse converts a zero-padded 24-hour "HH:MM" string.
func Parse(s string) (Minutes, error) {
	var h, m int
	if _, err := fmt.Sscanf(s, "%2d:%2d", &h, &m); err != nil {
		return 0, fmt.Errorf("invalid time of day %q: %w", s, err)
	}
	if len(s) != 5 || s[2] != ':' || h < 0 || h > 23 || m < 0 || m > 59 {
		return 0, fmt.Errorf("invalid time of day %q", s)
	}
	return Minutes(h*60 + m), nil
}

// MustParse is for constants in tests and seed data.
func MustParse(s string) Minutes {
	m, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return m
}

func (m Minutes) String() string {
	mm := ((int(m) % MinutesPerDay) + MinutesPerDay) % MinutesPerDay
	return fmt.Sprintf("%02d:%02d", mm/60, mm%60)
}

// Add advances by d minutes, wrapping modulo 24h. A result earlier than or
// equal to the start means the interval crossed midnight; same-day scheduling
// callers must reject that.
func (m Minutes) Add(d int) Minutes {
	return Minutes((int(m) + d) % MinutesPerDay)
}

// Overlap reports whether two half-open intervals [s1, e1) and [s2, e2)
// intersect.
func Overlap(s1, e1, s2, e2 Minutes) bool {
	return s1 < e2 && s2 < e1
}
