package models

import (
	"encoding/json"
	"time"
)

// PreferencesVersion is bumped when the filter payload shape changes; stored
// rows with an unknown version are replaced with defaults on load.
const PreferencesVersion = 1

// SessionPreferences is the server-side mirror of the frontend's
// "marketplace-state" storage key: the search/filter selections plus the
// favorites and compare lists. Preferences are a cache of UI state, never a
// source of truth.
type SessionPreferences struct {
	UserID    int64           `json:"user_id"`
	Version   int             `json:"version"`
	Filters   json.RawMessage `json:"filters"`
	Favorites []int64         `json:"favorites"`
	Compare   []int64         `json:"compare"`
	UpdatedAt time.Time       `json:"updated_at"`
}

func DefaultPreferences(userID int64) SessionPreferences {
	return SessionPreferences{
		UserID:    userID,
		Version:   PreferencesVersion,
		Filters:   json.RawMessage(`{}`),
		Favorites: []int64{},
		Compare:   []int64{},
	}
}
