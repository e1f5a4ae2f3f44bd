package domain

import (
	"fmt"
	"time"
)

// TimeOfDay is a validated wall-clock time value object ("HH:MM").
// It carries no date or timezone; anchor it to a calendar date with At.
type TimeOfDay struct {
	minutes int // minutes since midnight, 0..1439
}

// NewTimeOfDay creates a TimeOfDay from an "HH:MM" string.
func NewTimeOfDay(s string) (TimeOfDay, error) {
	var h, m int
	if _, err := fmt.Sscanf(s, "%d:%d", &h, &m); err != nil {
		return TimeOfDay{}, fmt.Errorf("%w: %q", ErrInvalidTimeOfDay, s)
	}
	if h < 0 || h > 23 || m < 0 || m > 59 {
		return TimeOfDay{}, fmt.Errorf("%w: %q", ErrInvalidTimeOfDay, s)
	}
	return TimeOfDay{minutes: h*60 + m}, nil
}

// TimeOfDayFromMinutes creates a TimeOfDay from minutes since midnight.
// Used by the persistence layer, which stores times of day as integers.
func TimeOfDayFromMinutes(m int) (TimeOfDay, error) {
	if m < 0 || m >= 24*60 {
		return TimeOfDay{}, fmt.Errorf("%w: %d minutes", ErrInvalidTimeOfDay, m)
	}
	return TimeOfDay{minutes: m}, nil
}

// Minutes returns minutes since midnight.
func (t TimeOfDay) Minutes() int {
	return t.minutes
}

// String returns the "HH:MM" representation.
func (t TimeOfDay) String() string {
	return fmt.Sprintf("%02d:%02d", t.minutes/60, t.minutes%60)
}

// At anchors the time of day to the calendar date of the given instant,
// in that instant's location.
func (t TimeOfDay) At(date time.Time) time.Time {
	y, m, d := date.Date()
	return time.Date(y, m, d, t.minutes/60, t.minutes%60, 0, 0, date.Location())
}

// Before reports whether t is earlier in the day than other.
func (t TimeOfDay) Before(other TimeOfDay) bool {
	return t.minutes < other.minutes
}
