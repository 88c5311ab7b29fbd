package repository

import (
	"context"
	"time"
)

// UsageRepository answers quota questions for the free instructor plan. A
// conversation counts against the month once the instructor has written into
// it; reading never consumes quota.
type UsageRepository struct {
	db DBTX
}

func NewUsageRepository(db DBTX) *UsageRepository {
	return &UsageRepository{db: db}
}

func (r *UsageRepository) CountConversations(
	ctx context.Context,
	instructorID int64,
	periodStart time.Time,
) (int, error) {
	query := `
		SELECT COUNT(DISTINCT thread_id)
		FROM messages
		WHERE sender_id = $1
		  AND created_at >= $2
	`

	var count int
	if err := r.db.QueryRow(ctx, query, instructorID, periodStart).Scan(&count); err != nil {
		return 0, err
	}
	return count, nil
}

func (r *UsageRepository) HasSentInThread(
	ctx context.Context,
	instructorID int64,
	threadID int64,
	periodStart time.Time,
) (bool, error) {
	query := `
		SELECT EXISTS (
			SELECT 1
			FROM messages
			WHERE sender_id = $1
			  AND thread_id = $2
			  AND created_at >= $3
		)
	`

	var exists bool
	if err := r.db.QueryRow(ctx, query, instructorID, threadID, periodStart).Scan(&exists); err != nil {
		return false, err
	}
	return exists, nil
}
