// Package config loads the TOML configuration file and resolves it against
// built-in defaults.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/abrezinsky/crowdscore/internal/scorecard"
	"github.com/abrezinsky/crowdscore/internal/services"
)

// FileConfig represents the TOML configuration file. Every field is a
// pointer so an absent key leaves the default alone.
type FileConfig struct {
	Server  ServerConfig  `toml:"server"`
	Remote  RemoteConfig  `toml:"remote"`
	Admin   AdminConfig   `toml:"admin"`
	Picker  PickerConfig  `toml:"picker"`
	Scoring ScoringConfig `toml:"scoring"`
}

// ServerConfig maps the [server] table.
type ServerConfig struct {
	Port      *int     `toml:"port"`
	DB        *string  `toml:"db"`
	LogLevel  *string  `toml:"log_level"`
	LogFormat *string  `toml:"log_format"`
	BaseURL   *string  `toml:"base_url"`
	RateLimit *float64 `toml:"rate_limit"`
	RateBurst *int     `toml:"rate_burst"`
}

// RemoteConfig maps the [remote] table.
type RemoteConfig struct {
	URL     *string `toml:"url"`
	APIKey  *string `toml:"api_key"`
	Timeout *string `toml:"timeout"`
}

// AdminConfig maps the [admin] table.
type AdminConfig struct {
	Password    *string `toml:"password"`
	TokenSecret *string `toml:"token_secret"`
}

// PickerConfig maps the [picker] table.
type PickerConfig struct {
	ItemHeight     *float64 `toml:"item_height"`
	WheelThreshold *float64 `toml:"wheel_threshold"`
	TapDebounceMs  *int     `toml:"tap_debounce_ms"`
	OutsideClick   *string  `toml:"outside_click"`
}

// ScoringConfig maps the [scoring] table.
type ScoringConfig struct {
	DefaultRounds *int    `toml:"default_rounds"`
	Amendments    *string `toml:"amendments"`
}

// Config is the resolved configuration.
type Config struct {
	Port      int
	DBPath    string
	LogLevel  string
	LogFormat string
	BaseURL   string
	RateLimit float64 // requests per second per IP; 0 disables limiting
	RateBurst int

	RemoteURL     string
	RemoteAPIKey  string
	RemoteTimeout time.Duration

	AdminPassword string
	TokenSecret   string

	Settings services.Settings
}

// Defaults returns the configuration used when nothing is set.
func Defaults() Config {
	return Config{
		Port:          8081,
		DBPath:        DefaultDBPath(),
		LogLevel:      "info",
		LogFormat:     "text",
		RateLimit:     20,
		RateBurst:     40,
		RemoteTimeout: 10 * time.Second,
		Settings:      services.DefaultSettings(),
	}
}

// LoadConfig reads a TOML config from the given path. Missing file is not an error.
func LoadConfig(path string) (FileConfig, error) {
	if path == "" {
		return FileConfig{}, fmt.Errorf("config path is empty")
	}
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return FileConfig{}, nil
		}
		return FileConfig{}, fmt.Errorf("failed to stat config: %w", err)
	}
	var fc FileConfig
	md, err := toml.DecodeFile(path, &fc)
	if err != nil {
		return FileConfig{}, fmt.Errorf("failed to decode config: %w", err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return FileConfig{}, fmt.Errorf("unknown config keys: %s", strings.Join(keys, ", "))
	}
	return fc, nil
}

// Apply overlays the values set in the file onto cfg.
func (fc FileConfig) Apply(cfg *Config) error {
	s := fc.Server
	setInt(&cfg.Port, s.Port)
	setString(&cfg.DBPath, s.DB)
	setString(&cfg.LogLevel, s.LogLevel)
	setString(&cfg.LogFormat, s.LogFormat)
	setString(&cfg.BaseURL, s.BaseURL)
	setFloat(&cfg.RateLimit, s.RateLimit)
	setInt(&cfg.RateBurst, s.RateBurst)

	setString(&cfg.RemoteURL, fc.Remote.URL)
	setString(&cfg.RemoteAPIKey, fc.Remote.APIKey)
	if fc.Remote.Timeout != nil {
		d, err := time.ParseDuration(*fc.Remote.Timeout)
		if err != nil {
			return fmt.Errorf("remote.timeout: %w", err)
		}
		cfg.RemoteTimeout = d
	}

	setString(&cfg.AdminPassword, fc.Admin.Password)
	setString(&cfg.TokenSecret, fc.Admin.TokenSecret)

	setFloat(&cfg.Settings.ItemHeight, fc.Picker.ItemHeight)
	setFloat(&cfg.Settings.WheelThreshold, fc.Picker.WheelThreshold)
	setInt(&cfg.Settings.TapDebounceMs, fc.Picker.TapDebounceMs)
	setString(&cfg.Settings.OutsideClick, fc.Picker.OutsideClick)
	setInt(&cfg.Settings.DefaultRounds, fc.Scoring.DefaultRounds)
	setString(&cfg.Settings.Amendments, fc.Scoring.Amendments)
	cfg.Settings.BaseURL = cfg.BaseURL
	return nil
}

// Load resolves defaults and the file at path.
func Load(path string) (Config, error) {
	cfg := Defaults()
	fc, err := LoadConfig(path)
	if err != nil {
		return Config{}, err
	}
	if err := fc.Apply(&cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate rejects values the server cannot start with.
func (c Config) Validate() error {
	if c.Port < 1 || c.Port > 65535 {
		return fmt.Errorf("port must be between 1 and 65535, got %d", c.Port)
	}
	if c.DBPath == "" {
		return fmt.Errorf("db path is empty")
	}
	if c.RateLimit < 0 || c.RateBurst < 0 {
		return fmt.Errorf("rate limit and burst must not be negative")
	}
	if c.RemoteTimeout <= 0 {
		return fmt.Errorf("remote timeout must be positive")
	}

	s := c.Settings
	if s.ItemHeight <= 0 || s.WheelThreshold <= 0 {
		return fmt.Errorf("picker item_height and wheel_threshold must be positive")
	}
	if s.TapDebounceMs < 0 {
		return fmt.Errorf("picker tap_debounce_ms must not be negative")
	}
	switch scorecard.OutsidePolicy(strings.ToLower(s.OutsideClick)) {
	case scorecard.OutsideCommit, scorecard.OutsideRevert:
	default:
		return fmt.Errorf("picker outside_click must be commit or revert, got %q", s.OutsideClick)
	}
	switch scorecard.AmendPolicy(strings.ToLower(s.Amendments)) {
	case scorecard.AmendResave, scorecard.AmendAllow, scorecard.AmendLock:
	default:
		return fmt.Errorf("scoring amendments must be resave, allow or lock, got %q", s.Amendments)
	}
	if s.DefaultRounds < 1 || s.DefaultRounds > services.MaxRounds {
		return fmt.Errorf("scoring default_rounds must be between 1 and %d, got %d", services.MaxRounds, s.DefaultRounds)
	}
	return nil
}

// Addr returns the listen address.
func (c Config) Addr() string {
	return fmt.Sprintf(":%d", c.Port)
}

func setString(dst *string, v *string) {
	if v != nil {
		*dst = *v
	}
}

func setInt(dst *int, v *int) {
	if v != nil {
		*dst = *v
	}
}

func setFloat(dst *float64, v *float64) {
	if v != nil {
		*dst = *v
	}
}
