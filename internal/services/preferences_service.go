package services

import (
	"context"
	"encoding/json"

	"github.com/viabetel/via-betel-api/internal/models"
)

type preferencesStore interface {
	Get(ctx context.Context, userID int64) (*models.SessionPreferences, error)
	Upsert(ctx context.Context, prefs models.SessionPreferences) (*models.SessionPreferences, error)
}

// PreferencesService owns the load/save boundary for the frontend's
// marketplace UI state. Preferences are a convenience cache; a missing or
// stale row degrades to defaults, never to an error.
type PreferencesService struct {
	repo preferencesStore
}

func NewPreferencesService(repo preferencesStore) *PreferencesService {
	return &PreferencesService{repo: repo}
}

func (s *PreferencesService) Load(ctx context.Context, userID int64) (*models.SessionPreferences, error) {
	stored, err := s.repo.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	if stored == nil || stored.Version != models.PreferencesVersion {
		defaults := models.DefaultPreferences(userID)
		return &defaults, nil
	}
	return stored, nil
}

type SavePreferencesInput struct {
	Filters   json.RawMessage
	Favorites []int64
	Compare   []int64
}

func (s *PreferencesService) Save(
	ctx context.Context,
	userID int64,
	input SavePreferencesInput,
) (*models.SessionPreferences, error) {
	filters := input.Filters
	if len(filters) == 0 {
		filters = json.RawMessage(`{}`)
	}
	if !json.Valid(filters) {
		return nil, ErrInvalidInput
	}

	prefs := models.SessionPreferences{
		UserID:    userID,
		Version:   models.PreferencesVersion,
		Filters:   filters,
		Favorites: dedupeIDs(input.Favorites),
		Compare:   dedupeIDs(input.Compare),
	}

	return s.repo.Upsert(ctx, prefs)
}

func dedupeIDs(ids []int64) []int64 {
	seen := make(map[int64]struct{}, len(ids))
	out := make([]int64, 0, len(ids))
	for _, id := range ids {
		if id <= 0 {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
