package types

import "github.com/pageza/nutrimatch/backend/internal/models"

// PreferencesResponse wraps a stored profile
type PreferencesResponse struct {
	Preferences *models.PreferenceProfile `json:"preferences"`
}
