package models

import "time"

// Fighter is one side of a scheduled fight
type Fighter struct {
	Name     string `json:"name"`
	Record   string `json:"record,omitempty"`
	Nickname string `json:"nickname,omitempty"`
}

// Fight is a scheduled bout from the fight schedule
type Fight struct {
	ID          string    `json:"id"`
	FighterA    Fighter   `json:"fighter_a"`
	FighterB    Fighter   `json:"fighter_b"`
	Title       string    `json:"title"`
	Date        string    `json:"date"` // YYYY-MM-DD
	Time        string    `json:"time,omitempty"`
	Venue       string    `json:"venue,omitempty"`
	City        string    `json:"city,omitempty"`
	Network     string    `json:"network,omitempty"`
	WeightClass string    `json:"weight_class,omitempty"`
	Rounds      int       `json:"rounds"`
	Status      string    `json:"status"`
	Source      string    `json:"source"` // mock or remote
	UpdatedAt   time.Time `json:"updated_at"`
}

// Scorecard is a saved, finalized scorecard
type Scorecard struct {
	ID          string           `json:"id"`
	FightID     string           `json:"fight_id,omitempty"`
	Origin      string           `json:"origin"`
	CornerA     string           `json:"corner_a"`
	CornerB     string           `json:"corner_b"`
	RoundCount  int              `json:"round_count"`
	Rounds      []ScorecardRound `json:"rounds"`
	TotalA      int              `json:"total_a"`
	TotalB      int              `json:"total_b"`
	Winner      string           `json:"winner"`
	Revision    int              `json:"revision"`
	Method      string           `json:"method"` // remote or local
	RemoteID    string           `json:"remote_id,omitempty"`
	FinalizedAt time.Time        `json:"finalized_at"`
	CreatedAt   time.Time        `json:"created_at"`
}

// ScorecardRound is one round of a saved scorecard. Unset scores are 0.
type ScorecardRound struct {
	Round    int  `json:"round"`
	A        int  `json:"a"`
	B        int  `json:"b"`
	Modified bool `json:"modified"`
}

// RoundAnalytics summarises how saved cards scored one round of a fight
type RoundAnalytics struct {
	Round   int     `json:"round"`
	Cards   int     `json:"cards"`
	ForA    int     `json:"for_a"`
	ForB    int     `json:"for_b"`
	Even    int     `json:"even"`
	PctA    float64 `json:"pct_a"`
	PctB    float64 `json:"pct_b"`
	PctEven float64 `json:"pct_even"`
}

// ScorecardStats are totals across all saved scorecards
type ScorecardStats struct {
	TotalScorecards int `json:"total_scorecards"`
	SavedRemotely   int `json:"saved_remotely"`
	SavedLocally    int `json:"saved_locally"`
	Fights          int `json:"fights"`
	ScoredFights    int `json:"scored_fights"`
}

// WSMessage represents a WebSocket message
type WSMessage struct {
	Type    string      `json:"type"`
	Payload interface{} `json:"payload"`
}
