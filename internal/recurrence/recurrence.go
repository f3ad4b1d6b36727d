// Package recurrence computes when a reminder fires next.
//
// All arithmetic happens in UTC. NextRun is pure: the same rule and now always
// produce the same instant.
package recurrence

import (
	"time"

	"github.com/hray3182/nagqueen/internal/models"
)

const (
	maxWeekSteps  = 7
	maxMonthSteps = 12
)

// NextRun returns the next fire time of rule relative to now.
//
// A once rule with an anchor date returns the anchor combined with the time of
// day even when that instant is already in the past. The anchor's calendar
// date is taken as given, whatever its location.
func NextRun(rule models.RecurrenceRule, now time.Time) time.Time {
	now = now.UTC()

	if rule.Kind == models.KindOnce && rule.AnchorDate != nil {
		return combine(*rule.AnchorDate, rule.TimeOfDay)
	}

	// Today at the time of day, or tomorrow if that has already passed.
	next := combine(now, rule.TimeOfDay)
	if !next.After(now) {
		next = next.AddDate(0, 0, 1)
	}

	switch rule.Kind {
	case models.KindWeekly:
		return nextWeekday(rule, next)
	case models.KindMonthly:
		return nextMonthDay(rule, next, now)
	default:
		return next
	}
}

func nextWeekday(rule models.RecurrenceRule, next time.Time) time.Time {
	for i := 0; i < maxWeekSteps; i++ {
		if rule.HasWeekday(models.WeekdayOrdinal(next.Weekday())) {
			return next
		}
		next = next.AddDate(0, 0, 1)
	}
	return next
}

// nextMonthDay accepts only candidates strictly after now, unlike the daily
// base which rolls over when the time of day is at or before now.
func nextMonthDay(rule models.RecurrenceRule, next, now time.Time) time.Time {
	cursor := next
	candidate := next
	for i := 0; i < maxMonthSteps; i++ {
		year, month := cursor.Year(), cursor.Month()
		day := rule.DayOfMonth.Resolve(DaysIn(year, month))

		candidate = time.Date(year, month, day, rule.TimeOfDay.Hour, rule.TimeOfDay.Minute, 0, 0, time.UTC)
		if candidate.After(now) {
			return candidate
		}

		// time.Date normalizes month 13 to January of the next year.
		cursor = time.Date(year, month+1, 1, rule.TimeOfDay.Hour, rule.TimeOfDay.Minute, 0, 0, time.UTC)
	}
	return candidate
}

// DaysIn returns the number of days in the given month
func DaysIn(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

func combine(day time.Time, tod models.TimeOfDay) time.Time {
	return time.Date(day.Year(), day.Month(), day.Day(), tod.Hour, tod.Minute, 0, 0, time.UTC)
}
