package models

import (
	"errors"
	"fmt"
	"regexp"
	"unicode/utf8"
)

var (
	ErrInvalidKind        = errors.New("invalid schedule kind")
	ErrInvalidTimeOfDay   = errors.New("invalid time of day")
	ErrInvalidDayOfWeek   = errors.New("invalid day of week")
	ErrInvalidDayOfMonth  = errors.New("invalid day of month")
	ErrInvalidDestination = errors.New("invalid destination")
	ErrInvalidMessage     = errors.New("invalid message")
)

const (
	MinMessageLength = 1
	MaxMessageLength = 500
)

var e164Pattern = regexp.MustCompile(`^\+[1-9]\d{1,14}$`)

// ValidateDestination checks an E.164 phone number
func ValidateDestination(phone string) error {
	if !e164Pattern.MatchString(phone) {
		return fmt.Errorf("%w: %q is not an E.164 phone number", ErrInvalidDestination, phone)
	}
	return nil
}

// ValidateMessage checks the message length in characters
func ValidateMessage(text string) error {
	n := utf8.RuneCountInString(text)
	if n < MinMessageLength || n > MaxMessageLength {
		return fmt.Errorf("%w: length %d outside %d..%d", ErrInvalidMessage, n, MinMessageLength, MaxMessageLength)
	}
	return nil
}

// Validate checks the fields relevant to the rule's kind
func (r RecurrenceRule) Validate() error {
	if _, err := ParseKind(string(r.Kind)); err != nil {
		return err
	}
	if !r.TimeOfDay.Valid() {
		return fmt.Errorf("%w: %02d:%02d", ErrInvalidTimeOfDay, r.TimeOfDay.Hour, r.TimeOfDay.Minute)
	}
	switch r.Kind {
	case KindWeekly:
		for _, d := range r.DaysOfWeek {
			if d < Monday || d > Sunday {
				return fmt.Errorf("%w: %d", ErrInvalidDayOfWeek, d)
			}
		}
	case KindMonthly:
		if r.DayOfMonth != LastDayOfMonth && (r.DayOfMonth < 0 || r.DayOfMonth > 31) {
			return fmt.Errorf("%w: %d", ErrInvalidDayOfMonth, int(r.DayOfMonth))
		}
	}
	return nil
}
