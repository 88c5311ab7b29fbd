package repository

import (
	"context"

	"github.com/viabetel/via-betel-api/internal/models"
)

type SubscriptionRepository struct {
	db DBTX
}

func NewSubscriptionRepository(db DBTX) *SubscriptionRepository {
	return &SubscriptionRepository{db: db}
}

// GetCurrentForInstructor returns the instructor's most recent subscription
// row, or nil when the instructor never subscribed.
func (r *SubscriptionRepository) GetCurrentForInstructor(
	ctx context.Context,
	instructorID int64,
) (*models.Subscription, error) {
	query := `
		SELECT id, instructor_id, plan, status, current_period_end, created_at, updated_at
		FROM subscriptions
		WHERE instructor_id = $1
		ORDER BY id DESC
		LIMIT 1
	`

	rows, err := r.db.Query(ctx, query, instructorID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	if !rows.Next() {
		return nil, rows.Err()
	}

	var subscription models.Subscription
	if err := rows.Scan(
		&subscription.ID,
		&subscription.InstructorID,
		&subscription.Plan,
		&subscription.Status,
		&subscription.CurrentPeriodEnd,
		&subscription.CreatedAt,
		&subscription.UpdatedAt,
	); err != nil {
		return nil, err
	}

	return &subscription, nil
}

type UpsertSubscriptionInput struct {
	InstructorID     int64
	Plan             string
	Status           string
	CurrentPeriodEnd string
}

func (r *SubscriptionRepository) Upsert(
	ctx context.Context,
	input UpsertSubscriptionInput,
) (*models.Subscription, error) {
	query := `
		INSERT INTO subscriptions (instructor_id, plan, status, current_period_end)
		VALUES ($1, $2, $3, $4::timestamptz)
		ON CONFLICT (instructor_id)
		DO UPDATE SET
			plan = $2,
			status = $3,
			current_period_end = $4::timestamptz,
			updated_at = NOW()
		RETURNING id, instructor_id, plan, status, current_period_end, created_at, updated_at
	`

	var subscription models.Subscription
	err := r.db.QueryRow(ctx, query,
		input.InstructorID,
		input.Plan,
		input.Status,
		input.CurrentPeriodEnd,
	).Scan(
		&subscription.ID,
		&subscription.InstructorID,
		&subscription.Plan,
		&subscription.Status,
		&subscription.CurrentPeriodEnd,
		&subscription.CreatedAt,
		&subscription.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	return &subscription, nil
}
