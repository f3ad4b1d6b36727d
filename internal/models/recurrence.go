package models

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

type Kind string

const (
	KindOnce    Kind = "once"
	KindDaily   Kind = "daily"
	KindWeekly  Kind = "weekly"
	KindMonthly Kind = "monthly"
)

// ParseKind parses a schedule kind, case-insensitively
func ParseKind(s string) (Kind, error) {
	switch k := Kind(strings.ToLower(strings.TrimSpace(s))); k {
	case KindOnce, KindDaily, KindWeekly, KindMonthly:
		return k, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidKind, s)
	}
}

// TimeOfDay is a wall-clock time in UTC
type TimeOfDay struct {
	Hour   int `json:"hour"`
	Minute int `json:"minute"`
}

// ParseTimeOfDay parses "HH:MM" or "HH:MM:SS". Seconds are dropped.
func ParseTimeOfDay(s string) (TimeOfDay, error) {
	s = strings.TrimSpace(s)
	for _, layout := range []string{"15:04", "15:04:05"} {
		if t, err := time.Parse(layout, s); err == nil {
			return TimeOfDay{Hour: t.Hour(), Minute: t.Minute()}, nil
		}
	}
	return TimeOfDay{}, fmt.Errorf("%w: %q", ErrInvalidTimeOfDay, s)
}

func (t TimeOfDay) String() string {
	return fmt.Sprintf("%02d:%02d", t.Hour, t.Minute)
}

func (t TimeOfDay) Valid() bool {
	return t.Hour >= 0 && t.Hour < 24 && t.Minute >= 0 && t.Minute < 60
}

// DayOfMonth is 1-31, LastDayOfMonth, or zero when unset (treated as 1)
type DayOfMonth int

const LastDayOfMonth DayOfMonth = -1

// ParseDayOfMonth parses "1".."31" or "last". An empty string yields the zero value.
func ParseDayOfMonth(s string) (DayOfMonth, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	switch s {
	case "":
		return 0, nil
	case "last":
		return LastDayOfMonth, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 1 || n > 31 {
		return 0, fmt.Errorf("%w: %q", ErrInvalidDayOfMonth, s)
	}
	return DayOfMonth(n), nil
}

// Resolve returns the calendar day for a month with lastDay days.
// Days past the end of the month clamp to its last day.
func (d DayOfMonth) Resolve(lastDay int) int {
	switch {
	case d == LastDayOfMonth:
		return lastDay
	case d < 1:
		return 1
	case int(d) > lastDay:
		return lastDay
	default:
		return int(d)
	}
}

func (d DayOfMonth) String() string {
	switch {
	case d == LastDayOfMonth:
		return "last"
	case d == 0:
		return ""
	default:
		return strconv.Itoa(int(d))
	}
}

func (d DayOfMonth) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

func (d *DayOfMonth) UnmarshalText(b []byte) error {
	v, err := ParseDayOfMonth(string(b))
	if err != nil {
		return err
	}
	*d = v
	return nil
}

// Weekday ordinals, Monday first
const (
	Monday = iota
	Tuesday
	Wednesday
	Thursday
	Friday
	Saturday
	Sunday
)

// WeekdayOrdinal converts a time.Weekday to the Monday=0 ordinal
func WeekdayOrdinal(d time.Weekday) int {
	return (int(d) + 6) % 7
}

// RecurrenceRule describes how a reminder repeats. Only the fields relevant
// to Kind are consulted.
type RecurrenceRule struct {
	Kind       Kind       `json:"kind"`
	TimeOfDay  TimeOfDay  `json:"time_of_day"`
	AnchorDate *time.Time `json:"anchor_date,omitempty"`  // once only
	DaysOfWeek []int      `json:"days_of_week,omitempty"` // weekly only, Monday=0
	DayOfMonth DayOfMonth `json:"day_of_month,omitempty"` // monthly only
}

// Weekdays returns the weekly day set, defaulting to Monday when empty
func (r RecurrenceRule) Weekdays() []int {
	if len(r.DaysOfWeek) == 0 {
		return []int{Monday}
	}
	return r.DaysOfWeek
}

// HasWeekday reports whether ordinal is in the effective weekly day set
func (r RecurrenceRule) HasWeekday(ordinal int) bool {
	for _, d := range r.Weekdays() {
		if d == ordinal {
			return true
		}
	}
	return false
}
