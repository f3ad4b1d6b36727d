package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/hray3182/nagqueen/internal/models"
)

// SQLiteSubscriberRepository stores subscribers in SQLite
type SQLiteSubscriberRepository struct {
	db *sql.DB
}

func NewSQLiteSubscriberRepository(db *sql.DB) *SQLiteSubscriberRepository {
	return &SQLiteSubscriberRepository{db: db}
}

func (r *SQLiteSubscriberRepository) GetOrCreate(ctx context.Context, destination string) (*models.Subscriber, error) {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO subscribers (subscriber_id, destination, created_at) VALUES (?, ?, ?)
		 ON CONFLICT (destination) DO NOTHING`,
		uuid.NewString(), destination, time.Now().Unix(),
	)
	if err != nil {
		return nil, err
	}
	return r.get(ctx, `SELECT subscriber_id, destination, created_at FROM subscribers WHERE destination = ?`, destination)
}

func (r *SQLiteSubscriberRepository) GetByID(ctx context.Context, subscriberID string) (*models.Subscriber, error) {
	return r.get(ctx, `SELECT subscriber_id, destination, created_at FROM subscribers WHERE subscriber_id = ?`, subscriberID)
}

func (r *SQLiteSubscriberRepository) get(ctx context.Context, query, arg string) (*models.Subscriber, error) {
	sub := &models.Subscriber{}
	var createdAt int64
	err := r.db.QueryRowContext(ctx, query, arg).Scan(&sub.SubscriberID, &sub.Destination, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("subscriber %s: %w", arg, ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	sub.CreatedAt = time.Unix(createdAt, 0).UTC()
	return sub, nil
}
