package scorecard

import (
	"strings"
	"time"
)

// Defaults tuned by feel on phones and trackpads.
const (
	DefaultRoundCount     = 12
	DefaultItemHeight     = 70.0
	DefaultWheelThreshold = 100.0
	DefaultTapDebounce    = 300 * time.Millisecond
)

// OutsidePolicy decides what a click outside an open picker does.
type OutsidePolicy string

const (
	OutsideCommit OutsidePolicy = "commit"
	OutsideRevert OutsidePolicy = "revert"
)

// AmendPolicy decides how picker edits behave once a bout is finalized.
type AmendPolicy string

const (
	// AmendResave allows edits and saves the scorecard again after each commit.
	AmendResave AmendPolicy = "resave"
	// AmendAllow allows edits without saving again.
	AmendAllow AmendPolicy = "allow"
	// AmendLock keeps pickers closed once the bout is finalized.
	AmendLock AmendPolicy = "lock"
)

// ParseOutsidePolicy returns OutsideCommit for anything it does not recognise.
func ParseOutsidePolicy(s string) OutsidePolicy {
	if OutsidePolicy(strings.ToLower(s)) == OutsideRevert {
		return OutsideRevert
	}
	return OutsideCommit
}

// ParseAmendPolicy returns AmendResave for anything it does not recognise.
func ParseAmendPolicy(s string) AmendPolicy {
	switch p := AmendPolicy(strings.ToLower(s)); p {
	case AmendAllow, AmendLock:
		return p
	default:
		return AmendResave
	}
}

// PickerConfig holds the gesture sensitivity settings.
type PickerConfig struct {
	ItemHeight     float64       // pixels of drag per index step
	WheelThreshold float64       // accumulated wheel delta per index step
	TapDebounce    time.Duration // taps this soon after a drag release are dropped
	Outside        OutsidePolicy
}

// Config configures a Session.
type Config struct {
	Picker PickerConfig
	Amend  AmendPolicy
}

// DefaultConfig returns the stock engine configuration.
func DefaultConfig() Config {
	return Config{
		Picker: PickerConfig{
			ItemHeight:     DefaultItemHeight,
			WheelThreshold: DefaultWheelThreshold,
			TapDebounce:    DefaultTapDebounce,
			Outside:        OutsideCommit,
		},
		Amend: AmendResave,
	}
}

func (c PickerConfig) normalized() PickerConfig {
	if c.ItemHeight <= 0 {
		c.ItemHeight = DefaultItemHeight
	}
	if c.WheelThreshold <= 0 {
		c.WheelThreshold = DefaultWheelThreshold
	}
	if c.TapDebounce < 0 {
		c.TapDebounce = 0
	}
	if c.Outside == "" {
		c.Outside = OutsideCommit
	}
	return c
}
