package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/viabetel/via-betel-api/internal/models"
)

type MessageRepository struct {
	db DBTX
}

func NewMessageRepository(db DBTX) *MessageRepository {
	return &MessageRepository{db: db}
}

// Create inserts a message. A duplicate client key returns the already-stored
// row instead of inserting again, which makes resubmitted sends safe. The
// insert resolves the duplicate in the database so two concurrent sends with
// the same key cannot both pass a prior existence check.
func (r *MessageRepository) Create(
	ctx context.Context,
	threadID int64,
	senderID int64,
	content string,
	clientKey *uuid.UUID,
) (*models.Message, bool, error) {
	query := `
		INSERT INTO messages (thread_id, sender_id, content, is_read, client_key)
		VALUES ($1, $2, $3, FALSE, $4)
		ON CONFLICT (thread_id, client_key) WHERE client_key IS NOT NULL DO NOTHING
		RETURNING id, thread_id, sender_id, content, is_read, client_key, created_at
	`

	var message models.Message
	err := r.db.QueryRow(ctx, query, threadID, senderID, content, clientKey).Scan(
		&message.ID,
		&message.ThreadID,
		&message.SenderID,
		&message.Content,
		&message.IsRead,
		&message.ClientKey,
		&message.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) && clientKey != nil {
		existing, lookupErr := r.GetByClientKey(ctx, threadID, *clientKey)
		if lookupErr != nil {
			return nil, false, lookupErr
		}
		if existing != nil {
			return existing, true, nil
		}
		return nil, false, err
	}
	if err != nil {
		return nil, false, err
	}

	return &message, false, nil
}

func (r *MessageRepository) GetByClientKey(
	ctx context.Context,
	threadID int64,
	clientKey uuid.UUID,
) (*models.Message, error) {
	query := `
		SELECT id, thread_id, sender_id, content, is_read, client_key, created_at
		FROM messages
		WHERE thread_id = $1 AND client_key = $2
	`

	rows, err := r.db.Query(ctx, query, threadID, clientKey)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	if !rows.Next() {
		return nil, rows.Err()
	}

	var message models.Message
	if err := rows.Scan(
		&message.ID,
		&message.ThreadID,
		&message.SenderID,
		&message.Content,
		&message.IsRead,
		&message.ClientKey,
		&message.CreatedAt,
	); err != nil {
		return nil, err
	}

	return &message, nil
}

// ListByThread returns messages in creation order, oldest first.
func (r *MessageRepository) ListByThread(
	ctx context.Context,
	threadID int64,
	limit int,
	offset int,
) ([]models.Message, int, error) {
	totalQuery := `
		SELECT COUNT(*)
		FROM messages
		WHERE thread_id = $1
	`

	var total int
	if err := r.db.QueryRow(ctx, totalQuery, threadID).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := `
		SELECT id, thread_id, sender_id, content, is_read, client_key, created_at
		FROM messages
		WHERE thread_id = $1
		ORDER BY created_at ASC, id ASC
		LIMIT $2 OFFSET $3
	`

	rows, err := r.db.Query(ctx, query, threadID, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	messages := make([]models.Message, 0)
	for rows.Next() {
		var message models.Message
		if err := rows.Scan(
			&message.ID,
			&message.ThreadID,
			&message.SenderID,
			&message.Content,
			&message.IsRead,
			&message.ClientKey,
			&message.CreatedAt,
		); err != nil {
			return nil, 0, err
		}

		messages = append(messages, message)
	}

	if err := rows.Err(); err != nil {
		return nil, 0, err
	}

	return messages, total, nil
}

// MarkThreadRead flips unread counterpart messages to read. Read state only
// moves false to true, so repeating the call changes nothing.
func (r *MessageRepository) MarkThreadRead(
	ctx context.Context,
	threadID int64,
	readerID int64,
) error {
	_, err := r.db.Exec(ctx, `
		UPDATE messages
		SET is_read = TRUE
		WHERE thread_id = $1
		  AND sender_id <> $2
		  AND is_read = FALSE
	`, threadID, readerID)
	return err
}
