package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/hray3182/nagqueen/internal/models"
	"github.com/hray3182/nagqueen/internal/rrule"
)

// SQLite stores instants as Unix seconds and the anchor date as YYYY-MM-DD.
const sqliteDateLayout = "2006-01-02"

const sqliteReminderSelect = `SELECT r.reminder_id, r.owner_id, s.destination, r.message, r.schedule_type, r.schedule_time,
		r.schedule_date, r.schedule_days, r.schedule_day_of_month, r.next_run, r.is_active, r.created_at
	 FROM reminders r JOIN subscribers s ON s.subscriber_id = r.owner_id`

// SQLiteReminderRepository stores reminders in SQLite
type SQLiteReminderRepository struct {
	db  *sql.DB
	log zerolog.Logger
}

func NewSQLiteReminderRepository(db *sql.DB, log zerolog.Logger) *SQLiteReminderRepository {
	return &SQLiteReminderRepository{db: db, log: log}
}

func (r *SQLiteReminderRepository) Create(ctx context.Context, reminder *models.Reminder) error {
	if reminder.ID == "" {
		reminder.ID = uuid.NewString()
	}
	if reminder.CreatedAt.IsZero() {
		reminder.CreatedAt = time.Now().UTC().Truncate(time.Second)
	}
	date, days, dom, err := sqliteScheduleColumns(reminder.Rule)
	if err != nil {
		return err
	}
	_, err = r.db.ExecContext(ctx,
		`INSERT INTO reminders (reminder_id, owner_id, message, schedule_type, schedule_time, schedule_date,
		                        schedule_days, schedule_day_of_month, recurrence_rule, next_run, is_active, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		reminder.ID, reminder.OwnerID, reminder.Message, string(reminder.Rule.Kind), reminder.Rule.TimeOfDay.String(),
		date, days, dom, rrule.String(reminder.Rule), reminder.NextRun.Unix(), reminder.IsActive, reminder.CreatedAt.Unix(),
	)
	return err
}

func (r *SQLiteReminderRepository) GetByID(ctx context.Context, reminderID string) (*models.Reminder, error) {
	row, err := scanSQLiteReminder(r.db.QueryRowContext(ctx, sqliteReminderSelect+` WHERE r.reminder_id = ?`, reminderID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("reminder %s: %w", reminderID, ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	reminder := row.toModel(r.log)
	return &reminder, nil
}

func (r *SQLiteReminderRepository) ListByOwner(ctx context.Context, ownerID string) ([]models.Reminder, error) {
	rows, err := r.db.QueryContext(ctx, sqliteReminderSelect+` WHERE r.owner_id = ? ORDER BY r.next_run ASC`, ownerID)
	if err != nil {
		return nil, err
	}
	return r.collect(rows)
}

// Update stores an externally edited reminder, including its recomputed NextRun
func (r *SQLiteReminderRepository) Update(ctx context.Context, reminder *models.Reminder) error {
	date, days, dom, err := sqliteScheduleColumns(reminder.Rule)
	if err != nil {
		return err
	}
	res, err := r.db.ExecContext(ctx,
		`UPDATE reminders SET message = ?, schedule_type = ?, schedule_time = ?, schedule_date = ?,
		        schedule_days = ?, schedule_day_of_month = ?, recurrence_rule = ?, next_run = ?, is_active = ?
		 WHERE reminder_id = ?`,
		reminder.Message, string(reminder.Rule.Kind), reminder.Rule.TimeOfDay.String(), date,
		days, dom, rrule.String(reminder.Rule), reminder.NextRun.Unix(), reminder.IsActive, reminder.ID,
	)
	if err != nil {
		return err
	}
	return expectRow(res, reminder.ID)
}

func (r *SQLiteReminderRepository) SetActive(ctx context.Context, reminderID string, active bool) error {
	res, err := r.db.ExecContext(ctx, `UPDATE reminders SET is_active = ? WHERE reminder_id = ?`, active, reminderID)
	if err != nil {
		return err
	}
	return expectRow(res, reminderID)
}

func (r *SQLiteReminderRepository) Delete(ctx context.Context, reminderID string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM reminders WHERE reminder_id = ?`, reminderID)
	return err
}

// FindDue returns active reminders whose next run is at or before now
func (r *SQLiteReminderRepository) FindDue(ctx context.Context, now time.Time) ([]models.Reminder, error) {
	rows, err := r.db.QueryContext(ctx,
		sqliteReminderSelect+` WHERE r.is_active = 1 AND r.next_run <= ? ORDER BY r.next_run ASC`,
		now.Unix(),
	)
	if err != nil {
		return nil, err
	}
	return r.collect(rows)
}

// SaveBatch stores the result of a tick in one transaction. An active reminder
// only gets its next_run written and an inactive one only is_active = 0, so an
// external SetActive or Update made during the tick is kept. Rows deleted in
// the meantime are skipped.
func (r *SQLiteReminderRepository) SaveBatch(ctx context.Context, reminders []models.Reminder) error {
	if len(reminders) == 0 {
		return nil
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	reschedule, err := tx.PrepareContext(ctx, `UPDATE reminders SET next_run = ? WHERE reminder_id = ?`)
	if err != nil {
		return fmt.Errorf("prepare: %w", err)
	}
	defer reschedule.Close()

	deactivate, err := tx.PrepareContext(ctx, `UPDATE reminders SET is_active = 0 WHERE reminder_id = ?`)
	if err != nil {
		return fmt.Errorf("prepare: %w", err)
	}
	defer deactivate.Close()

	for _, reminder := range reminders {
		if reminder.IsActive {
			_, err = reschedule.ExecContext(ctx, reminder.NextRun.Unix(), reminder.ID)
		} else {
			_, err = deactivate.ExecContext(ctx, reminder.ID)
		}
		if err != nil {
			return fmt.Errorf("update reminder %s: %w", reminder.ID, err)
		}
	}
	return tx.Commit()
}

func (r *SQLiteReminderRepository) collect(rows *sql.Rows) ([]models.Reminder, error) {
	defer rows.Close()

	var reminders []models.Reminder
	for rows.Next() {
		row, err := scanSQLiteReminder(rows)
		if err != nil {
			return nil, err
		}
		reminders = append(reminders, row.toModel(r.log))
	}
	return reminders, rows.Err()
}

type sqlScanner interface {
	Scan(dest ...any) error
}

func scanSQLiteReminder(s sqlScanner) (reminderRow, error) {
	var (
		row                reminderRow
		date, days, dom    sql.NullString
		nextRun, createdAt int64
	)
	err := s.Scan(&row.id, &row.ownerID, &row.destination, &row.message, &row.kind, &row.scheduleTime,
		&date, &days, &dom, &nextRun, &row.isActive, &createdAt)
	if err != nil {
		return row, err
	}

	row.nextRun = time.Unix(nextRun, 0).UTC()
	row.createdAt = time.Unix(createdAt, 0).UTC()
	if date.Valid {
		d, err := time.Parse(sqliteDateLayout, date.String)
		if err != nil {
			return row, fmt.Errorf("reminder %s: schedule_date: %w", row.id, err)
		}
		row.scheduleDate = &d
	}
	if days.Valid && days.String != "" {
		if err := json.Unmarshal([]byte(days.String), &row.days); err != nil {
			return row, fmt.Errorf("reminder %s: schedule_days: %w", row.id, err)
		}
	}
	if dom.Valid {
		row.dayOfMonth = &dom.String
	}
	return row, nil
}

func sqliteScheduleColumns(rule models.RecurrenceRule) (date, days, dom sql.NullString, err error) {
	d, weekdays, dayOfMonth := scheduleColumns(rule)
	if d != nil {
		date = sql.NullString{String: d.Format(sqliteDateLayout), Valid: true}
	}
	if weekdays != nil {
		b, err := json.Marshal(weekdays)
		if err != nil {
			return date, days, dom, err
		}
		days = sql.NullString{String: string(b), Valid: true}
	}
	if dayOfMonth != nil {
		dom = sql.NullString{String: *dayOfMonth, Valid: true}
	}
	return date, days, dom, nil
}

func expectRow(res sql.Result, reminderID string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("reminder %s: %w", reminderID, ErrNotFound)
	}
	return nil
}
