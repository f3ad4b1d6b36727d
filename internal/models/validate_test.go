package models

import (
	"errors"
	"strings"
	"testing"
)

func TestValidateDestination(t *testing.T) {
	t.Parallel()
	tests := []struct {
		phone string
		ok    bool
	}{
		{"+15551234567", true},
		{"+447911123456", true},
		{"15551234567", false},
		{"+05551234567", false},
		{"+1", false},
		{"+1234567890123456", false},
		{"", false},
	}
	for _, tt := range tests {
		err := ValidateDestination(tt.phone)
		if tt.ok && err != nil {
			t.Errorf("ValidateDestination(%q) = %v, want nil", tt.phone, err)
		}
		if !tt.ok && !errors.Is(err, ErrInvalidDestination) {
			t.Errorf("ValidateDestination(%q) = %v, want ErrInvalidDestination", tt.phone, err)
		}
	}
}

func TestValidateMessage(t *testing.T) {
	t.Parallel()
	if err := ValidateMessage("take your pills"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := ValidateMessage(""); !errors.Is(err, ErrInvalidMessage) {
		t.Fatalf("empty message: got %v", err)
	}
	if err := ValidateMessage(strings.Repeat("x", MaxMessageLength+1)); !errors.Is(err, ErrInvalidMessage) {
		t.Fatalf("long message: got %v", err)
	}
	// Length counts characters, not bytes.
	if err := ValidateMessage(strings.Repeat("é", MaxMessageLength)); err != nil {
		t.Fatalf("multibyte message: %v", err)
	}
}

func TestParseDayOfMonth(t *testing.T) {
	t.Parallel()
	tests := []struct {
		raw  string
		want DayOfMonth
		err  bool
	}{
		{"", 0, false},
		{"1", 1, false},
		{"31", 31, false},
		{"last", LastDayOfMonth, false},
		{" LAST ", LastDayOfMonth, false},
		{"0", 0, true},
		{"32", 0, true},
		{"fifteenth", 0, true},
	}
	for _, tt := range tests {
		got, err := ParseDayOfMonth(tt.raw)
		if tt.err {
			if !errors.Is(err, ErrInvalidDayOfMonth) {
				t.Errorf("ParseDayOfMonth(%q) error = %v, want ErrInvalidDayOfMonth", tt.raw, err)
			}
			continue
		}
		if err != nil || got != tt.want {
			t.Errorf("ParseDayOfMonth(%q) = %v, %v; want %v", tt.raw, got, err, tt.want)
		}
	}
}

func TestDayOfMonthResolve(t *testing.T) {
	t.Parallel()
	tests := []struct {
		day     DayOfMonth
		lastDay int
		want    int
	}{
		{0, 30, 1},
		{15, 30, 15},
		{31, 28, 28},
		{31, 29, 29},
		{30, 31, 30},
		{LastDayOfMonth, 30, 30},
		{LastDayOfMonth, 29, 29},
	}
	for _, tt := range tests {
		if got := tt.day.Resolve(tt.lastDay); got != tt.want {
			t.Errorf("DayOfMonth(%d).Resolve(%d) = %d, want %d", tt.day, tt.lastDay, got, tt.want)
		}
	}
}

func TestParseTimeOfDay(t *testing.T) {
	t.Parallel()
	got, err := ParseTimeOfDay("08:30:15")
	if err != nil {
		t.Fatalf("ParseTimeOfDay error: %v", err)
	}
	if got != (TimeOfDay{Hour: 8, Minute: 30}) {
		t.Fatalf("ParseTimeOfDay = %+v", got)
	}
	if got.String() != "08:30" {
		t.Fatalf("String() = %q", got.String())
	}
	if _, err := ParseTimeOfDay("24:00"); !errors.Is(err, ErrInvalidTimeOfDay) {
		t.Fatalf("expected ErrInvalidTimeOfDay, got %v", err)
	}
}

func TestRecurrenceRuleValidate(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name string
		rule RecurrenceRule
		err  error
	}{
		{"daily", RecurrenceRule{Kind: KindDaily, TimeOfDay: TimeOfDay{Hour: 9}}, nil},
		{"unknown kind", RecurrenceRule{Kind: "hourly"}, ErrInvalidKind},
		{"bad time", RecurrenceRule{Kind: KindDaily, TimeOfDay: TimeOfDay{Hour: 25}}, ErrInvalidTimeOfDay},
		{"bad weekday", RecurrenceRule{Kind: KindWeekly, DaysOfWeek: []int{2, 7}}, ErrInvalidDayOfWeek},
		{"weekday ignored for daily", RecurrenceRule{Kind: KindDaily, DaysOfWeek: []int{9}}, nil},
		{"bad month day", RecurrenceRule{Kind: KindMonthly, DayOfMonth: 32}, ErrInvalidDayOfMonth},
		{"last day", RecurrenceRule{Kind: KindMonthly, DayOfMonth: LastDayOfMonth}, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.rule.Validate()
			if tt.err == nil && err != nil {
				t.Fatalf("Validate() = %v, want nil", err)
			}
			if tt.err != nil && !errors.Is(err, tt.err) {
				t.Fatalf("Validate() = %v, want %v", err, tt.err)
			}
		})
	}
}

func TestWeekdaysDefaultsToMonday(t *testing.T) {
	t.Parallel()
	r := RecurrenceRule{Kind: KindWeekly}
	if !r.HasWeekday(Monday) || r.HasWeekday(Tuesday) {
		t.Fatalf("empty day set should mean Monday only, got %v", r.Weekdays())
	}
}
