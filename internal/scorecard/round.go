package scorecard

import (
	"github.com/abrezinsky/crowdscore/internal/errors"
)

// Round holds one round's score pair. Both sides are either set or unset.
type Round struct {
	Number int
	A      Score
	B      Score
}

// IsSet reports whether the round has been scored.
func (r Round) IsSet() bool {
	return r.A.IsSet() && r.B.IsSet()
}

// Get returns the score for a corner.
func (r Round) Get(c Corner) Score {
	if c == CornerB {
		return r.B
	}
	return r.A
}

func (r *Round) set(c Corner, s Score) {
	if c == CornerB {
		r.B = s
	} else {
		r.A = s
	}
}

// IsModified reports whether a scored round deviates from 10-9 or 9-10.
func (r Round) IsModified() bool {
	if !r.IsSet() {
		return false
	}
	standard := (r.A == 10 && r.B == 9) || (r.A == 9 && r.B == 10)
	return !standard
}

// CellModified reports whether one corner's cell deviates from what the
// opposite cell implies: 9 against a 10, 10 against anything else.
// It is a rendering hint; IsModified is the authoritative flag.
func (r Round) CellModified(c Corner) bool {
	if !r.IsSet() {
		return false
	}
	return r.Get(c) != standardFor(r.Get(c.Opposite()))
}

// RoundTable is the ordered sequence of rounds for a bout.
type RoundTable struct {
	rounds []Round
}

// NewRoundTable allocates a table with roundCount unset rounds.
func NewRoundTable(roundCount int) (*RoundTable, error) {
	t := &RoundTable{}
	if err := t.Initialize(roundCount); err != nil {
		return nil, err
	}
	return t, nil
}

// Initialize replaces all rounds with roundCount unset rounds.
func (t *RoundTable) Initialize(roundCount int) error {
	if roundCount < 1 {
		return errors.Wrap(ErrInvalidConfiguration, errors.ErrValidation, "round count must be at least 1")
	}
	t.rounds = make([]Round, roundCount)
	for i := range t.rounds {
		t.rounds[i].Number = i + 1
	}
	return nil
}

// Len returns the number of rounds.
func (t *RoundTable) Len() int {
	return len(t.rounds)
}

// CurrentRound returns the first unset round, or the last round when all
// rounds are set. It is derived on every call.
func (t *RoundTable) CurrentRound() int {
	for _, r := range t.rounds {
		if !r.IsSet() {
			return r.Number
		}
	}
	return len(t.rounds)
}

// Complete reports whether every round has been scored.
func (t *RoundTable) Complete() bool {
	if len(t.rounds) == 0 {
		return false
	}
	for _, r := range t.rounds {
		if !r.IsSet() {
			return false
		}
	}
	return true
}

// SetPair scores both corners of a round at once.
func (t *RoundTable) SetPair(round int, a, b Score) error {
	if err := t.checkRange(round); err != nil {
		return err
	}
	if !a.Valid() || !b.Valid() {
		return errors.Wrap(ErrInvalidScore, errors.ErrValidation, "scores must be one of 10, 9, 8, 7")
	}
	t.rounds[round-1].A = a
	t.rounds[round-1].B = b
	return nil
}

// setCell overwrites one side of an already scored round.
func (t *RoundTable) setCell(round int, c Corner, s Score) error {
	if err := t.checkRange(round); err != nil {
		return err
	}
	if !s.Valid() {
		return errors.Wrap(ErrInvalidScore, errors.ErrValidation, "scores must be one of 10, 9, 8, 7")
	}
	t.rounds[round-1].set(c, s)
	return nil
}

// Round returns a copy of the given round.
func (t *RoundTable) Round(round int) (Round, error) {
	if err := t.checkRange(round); err != nil {
		return Round{}, err
	}
	return t.rounds[round-1], nil
}

// Rounds returns a copy of all rounds in order.
func (t *RoundTable) Rounds() []Round {
	out := make([]Round, len(t.rounds))
	copy(out, t.rounds)
	return out
}

// Totals sums every set score for each corner.
func (t *RoundTable) Totals() (totalA, totalB int) {
	for _, r := range t.rounds {
		totalA += int(r.A)
		totalB += int(r.B)
	}
	return totalA, totalB
}

// Clear resets every round to unset.
func (t *RoundTable) Clear() {
	for i := range t.rounds {
		t.rounds[i].A = Unset
		t.rounds[i].B = Unset
	}
}

func (t *RoundTable) checkRange(round int) error {
	if round < 1 || round > len(t.rounds) {
		return errors.Wrap(ErrOutOfRange, errors.ErrValidation, "round must be between 1 and the round count")
	}
	return nil
}
