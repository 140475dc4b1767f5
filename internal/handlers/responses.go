package handlers

import "github.com/abrezinsky/crowdscore/internal/models"

// SettingsResponse is the response for settings
type SettingsResponse struct {
	ItemHeight     float64 `json:"item_height"`
	WheelThreshold float64 `json:"wheel_threshold"`
	TapDebounceMs  int     `json:"tap_debounce_ms"`
	OutsideClick   string  `json:"outside_click"`
	Amendments     string  `json:"amendments"`
	DefaultRounds  int     `json:"default_rounds"`
	BaseURL        string  `json:"base_url"`
}

// ScorecardResponse is a saved scorecard with its share link, when one can
// be built
type ScorecardResponse struct {
	*models.Scorecard
	ShareURL string `json:"share_url,omitempty"`
}

// FightsResponse is the response for the schedule listing
type FightsResponse struct {
	When   string         `json:"when"`
	Fights []models.Fight `json:"fights"`
}
