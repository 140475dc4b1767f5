package handlers

// WinnerRequest names the corner that won the current round
type WinnerRequest struct {
	Corner string `json:"corner"`
}

// NamesRequest renames both corners
type NamesRequest struct {
	CornerA string `json:"corner_a"`
	CornerB string `json:"corner_b"`
}

// RoundRequest scores one round directly
type RoundRequest struct {
	A int `json:"a"`
	B int `json:"b"`
}

// PickerRequest carries the arguments of a picker gesture. Which fields
// matter depends on the gesture.
type PickerRequest struct {
	Round  int     `json:"round"`
	Corner string  `json:"corner"`
	Y      float64 `json:"y"`
	DeltaY float64 `json:"delta_y"`
	Index  int     `json:"index"`
}

// SettingsUpdateRequest represents a request to update settings. Omitted
// fields keep their current value.
type SettingsUpdateRequest struct {
	ItemHeight     *float64 `json:"item_height"`
	WheelThreshold *float64 `json:"wheel_threshold"`
	TapDebounceMs  *int     `json:"tap_debounce_ms"`
	OutsideClick   *string  `json:"outside_click"`
	Amendments     *string  `json:"amendments"`
	DefaultRounds  *int     `json:"default_rounds"`
	BaseURL        *string  `json:"base_url"`
}

// DatabaseResetRequest represents a request to reset database tables
type DatabaseResetRequest struct {
	Tables []string `json:"tables"`
}
