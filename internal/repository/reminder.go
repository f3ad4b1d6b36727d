package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"

	"github.com/hray3182/nagqueen/internal/database"
	"github.com/hray3182/nagqueen/internal/models"
	"github.com/hray3182/nagqueen/internal/rrule"
)

const reminderSelect = `SELECT r.reminder_id, r.owner_id, s.destination, r.message, r.schedule_type, r.schedule_time::text,
		r.schedule_date, r.schedule_days, r.schedule_day_of_month, r.next_run, r.is_active, r.created_at
	 FROM reminders r JOIN subscribers s ON s.subscriber_id = r.owner_id`

// ReminderRepository stores reminders in PostgreSQL
type ReminderRepository struct {
	db  *database.DB
	log zerolog.Logger
}

func NewReminderRepository(db *database.DB, log zerolog.Logger) *ReminderRepository {
	return &ReminderRepository{db: db, log: log}
}

func (r *ReminderRepository) Create(ctx context.Context, reminder *models.Reminder) error {
	if reminder.ID == "" {
		reminder.ID = uuid.NewString()
	}
	date, days, dom := scheduleColumns(reminder.Rule)
	return r.db.Pool.QueryRow(ctx,
		`INSERT INTO reminders (reminder_id, owner_id, message, schedule_type, schedule_time, schedule_date,
		                        schedule_days, schedule_day_of_month, recurrence_rule, next_run, is_active)
		 VALUES ($1, $2, $3, $4, $5::text::time, $6, $7, $8, $9, $10, $11)
		 RETURNING created_at`,
		reminder.ID, reminder.OwnerID, reminder.Message, string(reminder.Rule.Kind), reminder.Rule.TimeOfDay.String(),
		date, days, dom, rrule.String(reminder.Rule), reminder.NextRun.UTC(), reminder.IsActive,
	).Scan(&reminder.CreatedAt)
}

func (r *ReminderRepository) GetByID(ctx context.Context, reminderID string) (*models.Reminder, error) {
	row, err := scanReminder(r.db.Pool.QueryRow(ctx, reminderSelect+` WHERE r.reminder_id = $1`, reminderID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("reminder %s: %w", reminderID, ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	reminder := row.toModel(r.log)
	return &reminder, nil
}

func (r *ReminderRepository) ListByOwner(ctx context.Context, ownerID string) ([]models.Reminder, error) {
	rows, err := r.db.Pool.Query(ctx, reminderSelect+` WHERE r.owner_id = $1 ORDER BY r.next_run ASC`, ownerID)
	if err != nil {
		return nil, err
	}
	return r.collect(rows)
}

// Update stores an externally edited reminder, including its recomputed NextRun
func (r *ReminderRepository) Update(ctx context.Context, reminder *models.Reminder) error {
	date, days, dom := scheduleColumns(reminder.Rule)
	tag, err := r.db.Pool.Exec(ctx,
		`UPDATE reminders SET message = $1, schedule_type = $2, schedule_time = $3::text::time, schedule_date = $4,
		        schedule_days = $5, schedule_day_of_month = $6, recurrence_rule = $7, next_run = $8, is_active = $9
		 WHERE reminder_id = $10`,
		reminder.Message, string(reminder.Rule.Kind), reminder.Rule.TimeOfDay.String(), date,
		days, dom, rrule.String(reminder.Rule), reminder.NextRun.UTC(), reminder.IsActive, reminder.ID,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("reminder %s: %w", reminder.ID, ErrNotFound)
	}
	return nil
}

func (r *ReminderRepository) SetActive(ctx context.Context, reminderID string, active bool) error {
	tag, err := r.db.Pool.Exec(ctx,
		`UPDATE reminders SET is_active = $1 WHERE reminder_id = $2`,
		active, reminderID,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("reminder %s: %w", reminderID, ErrNotFound)
	}
	return nil
}

func (r *ReminderRepository) Delete(ctx context.Context, reminderID string) error {
	_, err := r.db.Pool.Exec(ctx, `DELETE FROM reminders WHERE reminder_id = $1`, reminderID)
	return err
}

// FindDue returns active reminders whose next run is at or before now
func (r *ReminderRepository) FindDue(ctx context.Context, now time.Time) ([]models.Reminder, error) {
	rows, err := r.db.Pool.Query(ctx,
		reminderSelect+` WHERE r.is_active = true AND r.next_run <= $1 ORDER BY r.next_run ASC`,
		now.UTC(),
	)
	if err != nil {
		return nil, err
	}
	return r.collect(rows)
}

// SaveBatch stores the result of a tick in one transaction. An active reminder
// only gets its next_run written and an inactive one only is_active = false,
// so an external SetActive or Update made during the tick is kept. Rows
// deleted in the meantime are skipped.
func (r *ReminderRepository) SaveBatch(ctx context.Context, reminders []models.Reminder) error {
	if len(reminders) == 0 {
		return nil
	}
	return pgx.BeginFunc(ctx, r.db.Pool, func(tx pgx.Tx) error {
		batch := &pgx.Batch{}
		for _, reminder := range reminders {
			if reminder.IsActive {
				batch.Queue(`UPDATE reminders SET next_run = $1 WHERE reminder_id = $2`, reminder.NextRun.UTC(), reminder.ID)
			} else {
				batch.Queue(`UPDATE reminders SET is_active = false WHERE reminder_id = $1`, reminder.ID)
			}
		}

		br := tx.SendBatch(ctx, batch)
		for _, reminder := range reminders {
			if _, err := br.Exec(); err != nil {
				br.Close()
				return fmt.Errorf("update reminder %s: %w", reminder.ID, err)
			}
		}
		return br.Close()
	})
}

func (r *ReminderRepository) collect(rows pgx.Rows) ([]models.Reminder, error) {
	defer rows.Close()

	var reminders []models.Reminder
	for rows.Next() {
		row, err := scanReminder(rows)
		if err != nil {
			return nil, err
		}
		reminders = append(reminders, row.toModel(r.log))
	}
	return reminders, rows.Err()
}

func scanReminder(s pgx.Row) (reminderRow, error) {
	var row reminderRow
	err := s.Scan(&row.id, &row.ownerID, &row.destination, &row.message, &row.kind, &row.scheduleTime,
		&row.scheduleDate, &row.days, &row.dayOfMonth, &row.nextRun, &row.isActive, &row.createdAt)
	return row, err
}
