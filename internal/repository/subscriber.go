package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/hray3182/nagqueen/internal/database"
	"github.com/hray3182/nagqueen/internal/models"
)

// SubscriberRepository stores subscribers in PostgreSQL. Subscribers are
// created by the credential subsystem; the scheduler only reads destinations.
type SubscriberRepository struct {
	db *database.DB
}

func NewSubscriberRepository(db *database.DB) *SubscriberRepository {
	return &SubscriberRepository{db: db}
}

func (r *SubscriberRepository) GetOrCreate(ctx context.Context, destination string) (*models.Subscriber, error) {
	sub := &models.Subscriber{}
	err := r.db.Pool.QueryRow(ctx,
		`INSERT INTO subscribers (subscriber_id, destination) VALUES ($1, $2)
		 ON CONFLICT (destination) DO UPDATE SET destination = EXCLUDED.destination
		 RETURNING subscriber_id, destination, created_at`,
		uuid.NewString(), destination,
	).Scan(&sub.SubscriberID, &sub.Destination, &sub.CreatedAt)
	if err != nil {
		return nil, err
	}
	return sub, nil
}

func (r *SubscriberRepository) GetByID(ctx context.Context, subscriberID string) (*models.Subscriber, error) {
	sub := &models.Subscriber{}
	err := r.db.Pool.QueryRow(ctx,
		`SELECT subscriber_id, destination, created_at FROM subscribers WHERE subscriber_id = $1`,
		subscriberID,
	).Scan(&sub.SubscriberID, &sub.Destination, &sub.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("subscriber %s: %w", subscriberID, ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return sub, nil
}
