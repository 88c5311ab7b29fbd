package repository

import (
	"context"
	"encoding/json"

	"github.com/viabetel/via-betel-api/internal/models"
)

type PreferencesRepository struct {
	db DBTX
}

func NewPreferencesRepository(db DBTX) *PreferencesRepository {
	return &PreferencesRepository{db: db}
}

// Get returns the stored preferences row, or nil when the user never saved
// any.
func (r *PreferencesRepository) Get(ctx context.Context, userID int64) (*models.SessionPreferences, error) {
	query := `
		SELECT user_id, version, filters, favorites, compare_list, updated_at
		FROM session_preferences
		WHERE user_id = $1
	`

	rows, err := r.db.Query(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	if !rows.Next() {
		return nil, rows.Err()
	}

	var prefs models.SessionPreferences
	var filters []byte
	if err := rows.Scan(
		&prefs.UserID,
		&prefs.Version,
		&filters,
		&prefs.Favorites,
		&prefs.Compare,
		&prefs.UpdatedAt,
	); err != nil {
		return nil, err
	}
	prefs.Filters = json.RawMessage(filters)

	return &prefs, nil
}

func (r *PreferencesRepository) Upsert(
	ctx context.Context,
	prefs models.SessionPreferences,
) (*models.SessionPreferences, error) {
	query := `
		INSERT INTO session_preferences (user_id, version, filters, favorites, compare_list)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (user_id)
		DO UPDATE SET
			version = $2,
			filters = $3,
			favorites = $4,
			compare_list = $5,
			updated_at = NOW()
		RETURNING user_id, version, filters, favorites, compare_list, updated_at
	`

	var stored models.SessionPreferences
	var filters []byte
	err := r.db.QueryRow(ctx, query,
		prefs.UserID,
		prefs.Version,
		[]byte(prefs.Filters),
		prefs.Favorites,
		prefs.Compare,
	).Scan(
		&stored.UserID,
		&stored.Version,
		&filters,
		&stored.Favorites,
		&stored.Compare,
		&stored.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	stored.Filters = json.RawMessage(filters)

	return &stored, nil
}
