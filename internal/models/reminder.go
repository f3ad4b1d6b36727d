package models

import "time"

type Reminder struct {
	ID          string         `json:"id"`
	OwnerID     string         `json:"owner_id"`
	Destination string         `json:"destination"` // Owner's delivery address, resolved by storage
	Message     string         `json:"message"`
	Rule        RecurrenceRule `json:"rule"`
	NextRun     time.Time      `json:"next_run"` // Next (or currently due) fire time, UTC
	IsActive    bool           `json:"is_active"`
	CreatedAt   time.Time      `json:"created_at"`
}

// IsRecurring returns true if the reminder fires more than once
func (r *Reminder) IsRecurring() bool {
	return r.Rule.Kind != KindOnce
}

// IsDue reports whether the reminder should be sent at now
func (r *Reminder) IsDue(now time.Time) bool {
	return r.IsActive && !r.NextRun.After(now)
}
