package repository

import (
	"context"
	"database/sql"

	"github.com/viabetel/via-betel-api/internal/models"
)

type ThreadRepository struct {
	db DBTX
}

func NewThreadRepository(db DBTX) *ThreadRepository {
	return &ThreadRepository{db: db}
}

// CreateOrGet returns the thread for the pair, creating it on first contact.
// The pair is normalized so the same two users always map to one row.
func (r *ThreadRepository) CreateOrGet(
	ctx context.Context,
	userID int64,
	otherID int64,
) (*models.Thread, error) {
	userA, userB := userID, otherID
	if userA > userB {
		userA, userB = userB, userA
	}

	query := `
		INSERT INTO threads (user_a_id, user_b_id)
		VALUES ($1, $2)
		ON CONFLICT (user_a_id, user_b_id)
		DO UPDATE SET updated_at = threads.updated_at
		RETURNING id, user_a_id, user_b_id, created_at, updated_at
	`

	var thread models.Thread
	err := r.db.QueryRow(ctx, query, userA, userB).Scan(
		&thread.ID,
		&thread.UserAID,
		&thread.UserBID,
		&thread.CreatedAt,
		&thread.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	return &thread, nil
}

func (r *ThreadRepository) GetByIDForParticipant(
	ctx context.Context,
	threadID int64,
	participantID int64,
) (*models.Thread, error) {
	query := `
		SELECT id, user_a_id, user_b_id, created_at, updated_at
		FROM threads
		WHERE id = $1 AND (user_a_id = $2 OR user_b_id = $2)
	`

	var thread models.Thread
	err := r.db.QueryRow(ctx, query, threadID, participantID).Scan(
		&thread.ID,
		&thread.UserAID,
		&thread.UserBID,
		&thread.CreatedAt,
		&thread.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	return &thread, nil
}

// ListForParticipant returns the viewer's thread summaries: counterpart
// display data, last message preview, unread count, and the viewer's state
// flags. Ordering beyond recency (pinned, unread precedence) is applied in
// the service layer.
func (r *ThreadRepository) ListForParticipant(
	ctx context.Context,
	participantID int64,
) ([]models.ThreadSummary, error) {
	query := `
		SELECT
			t.id,
			t.user_a_id,
			t.user_b_id,
			t.created_at,
			t.updated_at,
			cu.id,
			cu.role,
			COALESCE(ip.full_name, sp.full_name, ''),
			COALESCE(ip.avatar_url, sp.avatar_url, ''),
			lm.id,
			lm.thread_id,
			lm.sender_id,
			lm.content,
			lm.is_read,
			lm.created_at,
			COALESCE(uc.unread_count, 0),
			COALESCE(ts.pinned, FALSE),
			COALESCE(ts.archived, FALSE),
			COALESCE(ts.muted, FALSE)
		FROM threads t
		JOIN users cu
			ON cu.id = CASE WHEN t.user_a_id = $1 THEN t.user_b_id ELSE t.user_a_id END
		LEFT JOIN instructor_profiles ip ON ip.user_id = cu.id
		LEFT JOIN student_profiles sp ON sp.user_id = cu.id
		LEFT JOIN thread_states ts ON ts.thread_id = t.id AND ts.user_id = $1
		LEFT JOIN LATERAL (
			SELECT id, thread_id, sender_id, content, is_read, created_at
			FROM messages
			WHERE thread_id = t.id
			ORDER BY created_at DESC, id DESC
			LIMIT 1
		) lm ON TRUE
		LEFT JOIN LATERAL (
			SELECT COUNT(*) AS unread_count
			FROM messages
			WHERE thread_id = t.id
			  AND sender_id <> $1
			  AND is_read = FALSE
		) uc ON TRUE
		WHERE t.user_a_id = $1 OR t.user_b_id = $1
		ORDER BY COALESCE(lm.created_at, t.updated_at, t.created_at) DESC, t.id DESC
	`

	rows, err := r.db.Query(ctx, query, participantID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	summaries := make([]models.ThreadSummary, 0)
	for rows.Next() {
		var summary models.ThreadSummary
		var counterpartRole string
		var messageID sql.NullInt64
		var messageThreadID sql.NullInt64
		var messageSenderID sql.NullInt64
		var messageContent sql.NullString
		var messageIsRead sql.NullBool
		var messageCreatedAt sql.NullTime

		if err := rows.Scan(
			&summary.ID,
			&summary.UserAID,
			&summary.UserBID,
			&summary.CreatedAt,
			&summary.UpdatedAt,
			&summary.CounterpartID,
			&counterpartRole,
			&summary.CounterpartName,
			&summary.CounterpartAvatar,
			&messageID,
			&messageThreadID,
			&messageSenderID,
			&messageContent,
			&messageIsRead,
			&messageCreatedAt,
			&summary.UnreadCount,
			&summary.Pinned,
			&summary.Archived,
			&summary.Muted,
		); err != nil {
			return nil, err
		}

		if info, ok := models.LookupRole(counterpartRole); ok {
			summary.Counterpart = info
			if summary.CounterpartName == "" {
				summary.CounterpartName = info.Label
			}
		}

		if messageID.Valid {
			summary.LastMessage = &models.Message{
				ID:        messageID.Int64,
				ThreadID:  messageThreadID.Int64,
				SenderID:  messageSenderID.Int64,
				Content:   messageContent.String,
				IsRead:    messageIsRead.Bool,
				CreatedAt: messageCreatedAt.Time,
			}
		}

		summaries = append(summaries, summary)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return summaries, nil
}

func (r *ThreadRepository) Touch(ctx context.Context, threadID int64) error {
	_, err := r.db.Exec(ctx, `
		UPDATE threads
		SET updated_at = NOW()
		WHERE id = $1
	`, threadID)
	return err
}

type ThreadStateUpdate struct {
	Pinned   *bool
	Archived *bool
	Muted    *bool
}

// UpdateState merges the provided flags into the viewer's state row, creating
// it on first use. Absent fields keep their stored values.
func (r *ThreadRepository) UpdateState(
	ctx context.Context,
	threadID int64,
	userID int64,
	update ThreadStateUpdate,
) (*models.ThreadState, error) {
	query := `
		INSERT INTO thread_states (thread_id, user_id, pinned, archived, muted)
		VALUES ($1, $2, COALESCE($3, FALSE), COALESCE($4, FALSE), COALESCE($5, FALSE))
		ON CONFLICT (thread_id, user_id)
		DO UPDATE SET
			pinned = COALESCE($3, thread_states.pinned),
			archived = COALESCE($4, thread_states.archived),
			muted = COALESCE($5, thread_states.muted),
			updated_at = NOW()
		RETURNING thread_id, user_id, pinned, archived, muted
	`

	var state models.ThreadState
	err := r.db.QueryRow(ctx, query, threadID, userID, update.Pinned, update.Archived, update.Muted).Scan(
		&state.ThreadID,
		&state.UserID,
		&state.Pinned,
		&state.Archived,
		&state.Muted,
	)
	if err != nil {
		return nil, err
	}

	return &state, nil
}
