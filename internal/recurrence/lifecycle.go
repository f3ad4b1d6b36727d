package recurrence

import (
	"time"

	"github.com/hray3182/nagqueen/internal/models"
)

// NewReminder builds an active reminder whose NextRun is computed from rule at now.
// The identifier is assigned by storage.
func NewReminder(ownerID, message string, rule models.RecurrenceRule, now time.Time) models.Reminder {
	return models.Reminder{
		OwnerID:   ownerID,
		Message:   message,
		Rule:      rule,
		NextRun:   NextRun(rule, now),
		IsActive:  true,
		CreatedAt: now.UTC(),
	}
}

// Edit holds an external change to a reminder. Nil fields are left as they are.
type Edit struct {
	Message  *string
	Rule     *models.RecurrenceRule
	IsActive *bool
}

// Apply applies the edit to r. A changed rule forces NextRun to be recomputed
// at now; a message-only edit keeps the current schedule.
func (e Edit) Apply(r *models.Reminder, now time.Time) {
	if e.Message != nil {
		r.Message = *e.Message
	}
	if e.IsActive != nil {
		r.IsActive = *e.IsActive
	}
	if e.Rule != nil {
		r.Rule = *e.Rule
		r.NextRun = NextRun(r.Rule, now)
	}
}

// Fired returns r as it should be stored after a successful send at now:
// once reminders are deactivated with NextRun frozen, others advance.
func Fired(r models.Reminder, now time.Time) models.Reminder {
	if r.Rule.Kind == models.KindOnce {
		r.IsActive = false
		return r
	}
	r.NextRun = NextRun(r.Rule, now)
	return r
}
