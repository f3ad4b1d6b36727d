// Package rrule maps reminder recurrence rules onto RFC 5545 RRULEs.
package rrule

import (
	"fmt"
	"strings"
	"time"

	"github.com/teambition/rrule-go"

	"github.com/hray3182/nagqueen/internal/models"
)

var weekdays = []rrule.Weekday{rrule.MO, rrule.TU, rrule.WE, rrule.TH, rrule.FR, rrule.SA, rrule.SU}

var weekdayNames = []string{"Mon", "Tue", "Wed", "Thu", "Fri", "Sat", "Sun"}

// Builder creates an RRULE from components
type Builder struct {
	Freq       rrule.Frequency
	ByHour     []int
	ByMinute   []int
	ByWeekday  []rrule.Weekday
	ByMonthDay []int
	BySetPos   []int
	Count      int
}

// FromRule converts a recurrence rule into a builder.
//
// Monthly days above 28 are expressed as the last of BYMONTHDAY=28..d so short
// months clamp to their final day, matching recurrence.NextRun.
func FromRule(rule models.RecurrenceRule) Builder {
	b := Builder{
		ByHour:   []int{rule.TimeOfDay.Hour},
		ByMinute: []int{rule.TimeOfDay.Minute},
	}

	switch rule.Kind {
	case models.KindOnce:
		b.Freq = rrule.DAILY
		b.Count = 1
	case models.KindWeekly:
		b.Freq = rrule.WEEKLY
		for _, d := range rule.Weekdays() {
			if d >= 0 && d < len(weekdays) {
				b.ByWeekday = append(b.ByWeekday, weekdays[d])
			}
		}
	case models.KindMonthly:
		b.Freq = rrule.MONTHLY
		switch day := rule.DayOfMonth; {
		case day == models.LastDayOfMonth:
			b.ByMonthDay = []int{-1}
		case day > 28:
			for d := 28; d <= int(day); d++ {
				b.ByMonthDay = append(b.ByMonthDay, d)
			}
			b.BySetPos = []int{-1}
		default:
			b.ByMonthDay = []int{day.Resolve(28)}
		}
	default:
		b.Freq = rrule.DAILY
	}
	return b
}

// Build creates the rrule-go iterator anchored at dtstart
func (b Builder) Build(dtstart time.Time) (*rrule.RRule, error) {
	opt := rrule.ROption{
		Freq:     b.Freq,
		Dtstart:  dtstart.UTC(),
		Bysecond: []int{0},
	}

	if len(b.ByHour) > 0 {
		opt.Byhour = b.ByHour
	}
	if len(b.ByMinute) > 0 {
		opt.Byminute = b.ByMinute
	}
	if len(b.ByWeekday) > 0 {
		opt.Byweekday = b.ByWeekday
	}
	if len(b.ByMonthDay) > 0 {
		opt.Bymonthday = b.ByMonthDay
	}
	if len(b.BySetPos) > 0 {
		opt.Bysetpos = b.BySetPos
	}
	if b.Count > 0 {
		opt.Count = b.Count
	}

	r, err := rrule.NewRRule(opt)
	if err != nil {
		return nil, fmt.Errorf("failed to build RRULE: %w", err)
	}
	return r, nil
}

func (b Builder) String() string {
	var parts []string

	freqMap := map[rrule.Frequency]string{
		rrule.DAILY:   "DAILY",
		rrule.WEEKLY:  "WEEKLY",
		rrule.MONTHLY: "MONTHLY",
	}
	parts = append(parts, "FREQ="+freqMap[b.Freq])

	if b.Count > 0 {
		parts = append(parts, fmt.Sprintf("COUNT=%d", b.Count))
	}
	if len(b.ByWeekday) > 0 {
		dayMap := map[rrule.Weekday]string{
			rrule.MO: "MO",
			rrule.TU: "TU",
			rrule.WE: "WE",
			rrule.TH: "TH",
			rrule.FR: "FR",
			rrule.SA: "SA",
			rrule.SU: "SU",
		}
		days := make([]string, len(b.ByWeekday))
		for i, d := range b.ByWeekday {
			days[i] = dayMap[d]
		}
		parts = append(parts, "BYDAY="+strings.Join(days, ","))
	}
	if len(b.ByMonthDay) > 0 {
		parts = append(parts, "BYMONTHDAY="+joinInts(b.ByMonthDay))
	}
	if len(b.BySetPos) > 0 {
		parts = append(parts, "BYSETPOS="+joinInts(b.BySetPos))
	}
	parts = append(parts, "BYHOUR="+joinInts(b.ByHour), "BYMINUTE="+joinInts(b.ByMinute), "BYSECOND=0")

	return strings.Join(parts, ";")
}

// String returns the RRULE text stored alongside a reminder
func String(rule models.RecurrenceRule) string {
	return FromRule(rule).String()
}

// Next returns the first occurrence of rule strictly after now, computed by
// rrule-go. Once rules anchored to a date yield that date even when past.
func Next(rule models.RecurrenceRule, now time.Time) (time.Time, error) {
	now = now.UTC()
	dtstart := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	if rule.Kind == models.KindOnce && rule.AnchorDate != nil {
		a := rule.AnchorDate
		dtstart = time.Date(a.Year(), a.Month(), a.Day(), 0, 0, 0, 0, time.UTC)
		r, err := FromRule(rule).Build(dtstart)
		if err != nil {
			return time.Time{}, err
		}
		all := r.All()
		if len(all) == 0 {
			return time.Time{}, fmt.Errorf("RRULE %s has no occurrences", String(rule))
		}
		return all[0], nil
	}

	r, err := FromRule(rule).Build(dtstart)
	if err != nil {
		return time.Time{}, err
	}
	next := r.After(now, false)
	if next.IsZero() {
		return time.Time{}, fmt.Errorf("RRULE %s has no occurrence after %s", String(rule), now.Format(time.RFC3339))
	}
	return next, nil
}

// Describe returns a short English description of the rule
func Describe(rule models.RecurrenceRule) string {
	at := " at " + rule.TimeOfDay.String() + " UTC"

	switch rule.Kind {
	case models.KindOnce:
		if rule.AnchorDate != nil {
			return "once on " + rule.AnchorDate.Format("2006-01-02") + at
		}
		return "once" + at
	case models.KindDaily:
		return "every day" + at
	case models.KindWeekly:
		var names []string
		for _, d := range rule.Weekdays() {
			if d >= 0 && d < len(weekdayNames) {
				names = append(names, weekdayNames[d])
			}
		}
		return "every " + strings.Join(names, ", ") + at
	case models.KindMonthly:
		if rule.DayOfMonth == models.LastDayOfMonth {
			return "monthly on the last day" + at
		}
		return fmt.Sprintf("monthly on day %d", rule.DayOfMonth.Resolve(31)) + at
	default:
		return string(rule.Kind)
	}
}

func joinInts(vals []int) string {
	s := make([]string, len(vals))
	for i, v := range vals {
		s[i] = fmt.Sprint(v)
	}
	return strings.Join(s, ",")
}
