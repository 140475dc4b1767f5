package services

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/abrezinsky/crowdscore/internal/errors"
	"github.com/abrezinsky/crowdscore/internal/logger"
	"github.com/abrezinsky/crowdscore/internal/repository"
	"github.com/abrezinsky/crowdscore/internal/scorecard"
)

// MaxRounds is the largest round count a bout may be started with.
const MaxRounds = 20

// Setting keys
const (
	keyItemHeight     = "picker_item_height"
	keyWheelThreshold = "picker_wheel_threshold"
	keyTapDebounce    = "picker_tap_debounce_ms"
	keyOutsideClick   = "outside_click"
	keyAmendments     = "amendments"
	keyDefaultRounds  = "default_rounds"
	keyBaseURL        = "base_url"
)

// Settings are the runtime-editable settings. Values not stored in the
// database fall back to the defaults the service was created with.
type Settings struct {
	ItemHeight     float64 `json:"item_height"`
	WheelThreshold float64 `json:"wheel_threshold"`
	TapDebounceMs  int     `json:"tap_debounce_ms"`
	OutsideClick   string  `json:"outside_click"`
	Amendments     string  `json:"amendments"`
	DefaultRounds  int     `json:"default_rounds"`
	BaseURL        string  `json:"base_url"`
}

// DefaultSettings returns the stock settings.
func DefaultSettings() Settings {
	cfg := scorecard.DefaultConfig()
	return Settings{
		ItemHeight:     cfg.Picker.ItemHeight,
		WheelThreshold: cfg.Picker.WheelThreshold,
		TapDebounceMs:  int(cfg.Picker.TapDebounce / time.Millisecond),
		OutsideClick:   string(cfg.Picker.Outside),
		Amendments:     string(cfg.Amend),
		DefaultRounds:  scorecard.DefaultRoundCount,
	}
}

// EngineConfig converts the settings to an engine configuration.
func (s Settings) EngineConfig() scorecard.Config {
	return scorecard.Config{
		Picker: scorecard.PickerConfig{
			ItemHeight:     s.ItemHeight,
			WheelThreshold: s.WheelThreshold,
			TapDebounce:    time.Duration(s.TapDebounceMs) * time.Millisecond,
			Outside:        scorecard.ParseOutsidePolicy(s.OutsideClick),
		},
		Amend: scorecard.ParseAmendPolicy(s.Amendments),
	}
}

// SettingsUpdate carries a partial settings change. Nil fields are left alone.
type SettingsUpdate struct {
	ItemHeight     *float64 `json:"item_height"`
	WheelThreshold *float64 `json:"wheel_threshold"`
	TapDebounceMs  *int     `json:"tap_debounce_ms"`
	OutsideClick   *string  `json:"outside_click"`
	Amendments     *string  `json:"amendments"`
	DefaultRounds  *int     `json:"default_rounds"`
	BaseURL        *string  `json:"base_url"`
}

// SettingsService handles settings-related business logic
type SettingsService struct {
	log      logger.Logger
	repo     repository.SettingsRepository
	defaults Settings
}

// NewSettingsService creates a new SettingsService. Settings that have never
// been saved read as defaults.
func NewSettingsService(log logger.Logger, repo repository.SettingsRepository, defaults Settings) *SettingsService {
	return &SettingsService{log: log, repo: repo, defaults: defaults}
}

// AllSettings returns the effective settings
func (s *SettingsService) AllSettings(ctx context.Context) (Settings, error) {
	out := s.defaults

	values := make(map[string]string)
	for _, key := range []string{keyItemHeight, keyWheelThreshold, keyTapDebounce, keyOutsideClick, keyAmendments, keyDefaultRounds, keyBaseURL} {
		value, err := s.repo.GetSetting(ctx, key)
		if err == repository.ErrNotFound {
			continue
		}
		if err != nil {
			return Settings{}, err
		}
		values[key] = value
	}

	if v, ok := values[keyItemHeight]; ok {
		out.ItemHeight = s.parseFloat(keyItemHeight, v, out.ItemHeight)
	}
	if v, ok := values[keyWheelThreshold]; ok {
		out.WheelThreshold = s.parseFloat(keyWheelThreshold, v, out.WheelThreshold)
	}
	if v, ok := values[keyTapDebounce]; ok {
		out.TapDebounceMs = s.parseInt(keyTapDebounce, v, out.TapDebounceMs)
	}
	if v, ok := values[keyOutsideClick]; ok {
		out.OutsideClick = v
	}
	if v, ok := values[keyAmendments]; ok {
		out.Amendments = v
	}
	if v, ok := values[keyDefaultRounds]; ok {
		out.DefaultRounds = s.parseInt(keyDefaultRounds, v, out.DefaultRounds)
	}
	if v, ok := values[keyBaseURL]; ok {
		out.BaseURL = v
	}
	return out, nil
}

func (s *SettingsService) parseFloat(key, value string, fallback float64) float64 {
	f, err := strconv.ParseFloat(value, 64)
	if err != nil {
		s.log.Warn("Ignoring invalid setting", "key", key, "value", value)
		return fallback
	}
	return f
}

func (s *SettingsService) parseInt(key, value string, fallback int) int {
	n, err := strconv.Atoi(value)
	if err != nil {
		s.log.Warn("Ignoring invalid setting", "key", key, "value", value)
		return fallback
	}
	return n
}

// UpdateSettings validates and stores a partial settings change. Nothing is
// written when any field is invalid.
func (s *SettingsService) UpdateSettings(ctx context.Context, u SettingsUpdate) error {
	writes := make(map[string]string)

	if u.ItemHeight != nil {
		if *u.ItemHeight <= 0 {
			return errors.Validation("item_height must be positive")
		}
		writes[keyItemHeight] = strconv.FormatFloat(*u.ItemHeight, 'f', -1, 64)
	}
	if u.WheelThreshold != nil {
		if *u.WheelThreshold <= 0 {
			return errors.Validation("wheel_threshold must be positive")
		}
		writes[keyWheelThreshold] = strconv.FormatFloat(*u.WheelThreshold, 'f', -1, 64)
	}
	if u.TapDebounceMs != nil {
		if *u.TapDebounceMs < 0 || *u.TapDebounceMs > 5000 {
			return errors.Validation("tap_debounce_ms must be between 0 and 5000")
		}
		writes[keyTapDebounce] = strconv.Itoa(*u.TapDebounceMs)
	}
	if u.OutsideClick != nil {
		v := strings.ToLower(*u.OutsideClick)
		if v != string(scorecard.OutsideCommit) && v != string(scorecard.OutsideRevert) {
			return errors.Validationf("outside_click must be commit or revert, got %q", *u.OutsideClick)
		}
		writes[keyOutsideClick] = v
	}
	if u.Amendments != nil {
		v := strings.ToLower(*u.Amendments)
		switch scorecard.AmendPolicy(v) {
		case scorecard.AmendResave, scorecard.AmendAllow, scorecard.AmendLock:
		default:
			return errors.Validationf("amendments must be resave, allow or lock, got %q", *u.Amendments)
		}
		writes[keyAmendments] = v
	}
	if u.DefaultRounds != nil {
		if *u.DefaultRounds < 1 || *u.DefaultRounds > MaxRounds {
			return ErrInvalidRoundCount
		}
		writes[keyDefaultRounds] = strconv.Itoa(*u.DefaultRounds)
	}
	if u.BaseURL != nil {
		writes[keyBaseURL] = strings.TrimSuffix(strings.TrimSpace(*u.BaseURL), "/")
	}

	for key, value := range writes {
		if err := s.repo.SetSetting(ctx, key, value); err != nil {
			return err
		}
	}
	if len(writes) > 0 {
		s.log.Info("Settings updated", "count", len(writes))
	}
	return nil
}

// EngineConfig returns the engine configuration new bouts start with
func (s *SettingsService) EngineConfig(ctx context.Context) (scorecard.Config, error) {
	all, err := s.AllSettings(ctx)
	if err != nil {
		return s.defaults.EngineConfig(), err
	}
	return all.EngineConfig(), nil
}

// DefaultRounds returns the round count used when a bout is started without one
func (s *SettingsService) DefaultRounds(ctx context.Context) int {
	all, err := s.AllSettings(ctx)
	if err != nil || all.DefaultRounds < 1 || all.DefaultRounds > MaxRounds {
		return scorecard.DefaultRoundCount
	}
	return all.DefaultRounds
}

// GetBaseURL returns the application base URL
func (s *SettingsService) GetBaseURL(ctx context.Context) (string, error) {
	value, err := s.repo.GetSetting(ctx, keyBaseURL)
	if err != nil {
		if err == repository.ErrNotFound {
			return s.defaults.BaseURL, nil
		}
		return "", err
	}
	return value, nil
}

// SetBaseURL saves the application base URL
func (s *SettingsService) SetBaseURL(ctx context.Context, url string) error {
	return s.UpdateSettings(ctx, SettingsUpdate{BaseURL: &url})
}

// ResetTablesResult contains the result of a database reset
type ResetTablesResult struct {
	Tables  []string `json:"tables"`
	Message string   `json:"message"`
}

// ValidTables defines which tables can be reset
var ValidTables = map[string]bool{
	"scorecards": true, "fights": true, "settings": true,
}

// ResetTables validates and resets the specified database tables
func (s *SettingsService) ResetTables(ctx context.Context, tables []string) (*ResetTablesResult, error) {
	if len(tables) == 0 {
		return nil, ErrNoTablesSpecified
	}

	var tablesToReset []string
	for _, table := range tables {
		if !ValidTables[table] {
			return nil, errors.Wrap(&InvalidTableError{Table: table}, errors.ErrValidation, "reset rejected")
		}
		tablesToReset = append(tablesToReset, table)
	}

	// Rounds go with their scorecards
	if containsTable(tablesToReset, "scorecards") {
		tablesToReset = append([]string{"scorecard_rounds"}, tablesToReset...)
	}

	for _, table := range tablesToReset {
		if err := s.repo.ClearTable(ctx, table); err != nil {
			return nil, err
		}
	}
	s.log.Info("Tables reset", "tables", tablesToReset)

	return &ResetTablesResult{
		Tables:  tablesToReset,
		Message: "Successfully deleted data from tables",
	}, nil
}

func containsTable(slice []string, item string) bool {
	for _, s := range slice {
		if s == item {
			return true
		}
	}
	return false
}
