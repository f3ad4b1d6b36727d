package repository

import (
	"errors"
	"time"

	"github.com/rs/zerolog"

	"github.com/hray3182/nagqueen/internal/models"
)

var ErrNotFound = errors.New("not found")

// reminderRow holds a reminder as stored, before schedule fields are decoded
type reminderRow struct {
	id           string
	ownerID      string
	destination  string
	message      string
	kind         string
	scheduleTime string
	scheduleDate *time.Time
	days         []int
	dayOfMonth   *string
	nextRun      time.Time
	isActive     bool
	createdAt    time.Time
}

// toModel decodes the schedule columns. Values that no longer parse are logged
// and replaced so a single bad row cannot stall dispatch: an unknown day of
// month becomes day 1 and an unreadable time becomes midnight.
func (row reminderRow) toModel(log zerolog.Logger) models.Reminder {
	rule := models.RecurrenceRule{
		Kind:       models.Kind(row.kind),
		DaysOfWeek: row.days,
	}

	tod, err := models.ParseTimeOfDay(row.scheduleTime)
	if err != nil {
		log.Warn().Err(err).Str("reminder_id", row.id).Msg("invalid stored time of day, using 00:00")
	}
	rule.TimeOfDay = tod

	if row.scheduleDate != nil {
		d := time.Date(row.scheduleDate.Year(), row.scheduleDate.Month(), row.scheduleDate.Day(), 0, 0, 0, 0, time.UTC)
		rule.AnchorDate = &d
	}

	if row.dayOfMonth != nil {
		dom, err := models.ParseDayOfMonth(*row.dayOfMonth)
		if err != nil {
			log.Warn().Err(err).Str("reminder_id", row.id).Msg("invalid stored day of month, using 1")
			dom = 1
		}
		rule.DayOfMonth = dom
	}

	return models.Reminder{
		ID:          row.id,
		OwnerID:     row.ownerID,
		Destination: row.destination,
		Message:     row.message,
		Rule:        rule,
		NextRun:     row.nextRun.UTC(),
		IsActive:    row.isActive,
		CreatedAt:   row.createdAt.UTC(),
	}
}

// scheduleColumns returns the nullable schedule values to store for rule
func scheduleColumns(rule models.RecurrenceRule) (date *time.Time, days []int, dayOfMonth *string) {
	if rule.AnchorDate != nil {
		a := rule.AnchorDate
		d := time.Date(a.Year(), a.Month(), a.Day(), 0, 0, 0, 0, time.UTC)
		date = &d
	}
	if len(rule.DaysOfWeek) > 0 {
		days = rule.DaysOfWeek
	}
	if rule.DayOfMonth != 0 {
		s := rule.DayOfMonth.String()
		dayOfMonth = &s
	}
	return date, days, dayOfMonth
}
