package scorecard

import (
	"context"
	"strings"
	"time"
)

// Origin tags how a bout was started. It only matters to navigation.
type Origin string

const (
	OriginManual   Origin = "manual"
	OriginSchedule Origin = "schedule"
)

// Bout configures one scoring session.
type Bout struct {
	ID         string
	FightID    string
	RoundCount int
	CornerA    string
	CornerB    string
	Origin     Origin
}

// Label returns the display name for a corner, falling back to its colour.
func (b Bout) Label(c Corner) string {
	name := b.CornerA
	if c == CornerB {
		name = b.CornerB
	}
	if name = strings.TrimSpace(name); name == "" {
		return c.DefaultLabel()
	}
	return name
}

// RoundScore is one round in a snapshot. Unset scores are 0.
type RoundScore struct {
	Round    int  `json:"round"`
	A        int  `json:"a"`
	B        int  `json:"b"`
	Modified bool `json:"modified"`
}

// Snapshot is the immutable record handed to a ResultSink.
type Snapshot struct {
	ID          string       `json:"id"`
	FightID     string       `json:"fight_id,omitempty"`
	Origin      Origin       `json:"origin"`
	CornerA     string       `json:"corner_a"`
	CornerB     string       `json:"corner_b"`
	RoundCount  int          `json:"round_count"`
	Rounds      []RoundScore `json:"rounds"`
	TotalA      int          `json:"total_a"`
	TotalB      int          `json:"total_b"`
	Revision    int          `json:"revision"`
	FinalizedAt time.Time    `json:"finalized_at"`
}

// Winner returns "blue", "red" or "draw" from the totals.
func (s Snapshot) Winner() string {
	switch {
	case s.TotalA > s.TotalB:
		return CornerA.String()
	case s.TotalB > s.TotalA:
		return CornerB.String()
	default:
		return "draw"
	}
}

// Receipt describes where a snapshot was stored.
type Receipt struct {
	Method   string `json:"method"`
	RecordID string `json:"record_id,omitempty"`
}

// ResultSink persists finished scorecards.
type ResultSink interface {
	Save(ctx context.Context, snap Snapshot) (Receipt, error)
}

// SaveState tracks the outcome of the most recent save.
type SaveState string

const (
	SaveNone    SaveState = "none"
	SavePending SaveState = "pending"
	SaveDone    SaveState = "saved"
	SaveFailed  SaveState = "failed"
)

// SaveStatus is the user-visible save outcome.
type SaveStatus struct {
	State    SaveState `json:"status"`
	Revision int       `json:"revision"`
	Method   string    `json:"method,omitempty"`
	RecordID string    `json:"record_id,omitempty"`
	Error    string    `json:"error,omitempty"`
}
