// Package scorecard implements the round-by-round boxing scorecard engine:
// the round table, the inline score picker and the bout session that ties
// them together. It has no knowledge of HTTP, storage or rendering.
package scorecard

import (
	"strconv"
	"strings"

	"github.com/abrezinsky/crowdscore/internal/errors"
)

// Corner identifies one of the two participants in a bout.
type Corner int

const (
	CornerA Corner = iota // blue
	CornerB               // red
)

// Opposite returns the other corner.
func (c Corner) Opposite() Corner {
	if c == CornerA {
		return CornerB
	}
	return CornerA
}

// String returns the historical colour name of the corner.
func (c Corner) String() string {
	if c == CornerB {
		return "red"
	}
	return "blue"
}

// DefaultLabel is the display name used when no participant name is given.
func (c Corner) DefaultLabel() string {
	if c == CornerB {
		return "Red"
	}
	return "Blue"
}

// ParseCorner accepts "a"/"blue" and "b"/"red" (case-insensitive).
func ParseCorner(s string) (Corner, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "a", "blue":
		return CornerA, nil
	case "b", "red":
		return CornerB, nil
	default:
		return CornerA, errors.InvalidInputf("unknown corner %q", s)
	}
}

// MarshalText implements encoding.TextMarshaler.
func (c Corner) MarshalText() ([]byte, error) {
	return []byte(c.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (c *Corner) UnmarshalText(b []byte) error {
	parsed, err := ParseCorner(string(b))
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}

// Score is a single corner's score for a round. The zero value means unset.
type Score int

// Unset marks a cell that has not been scored.
const Unset Score = 0

// Candidates are the values the picker offers, in display order.
var Candidates = [4]Score{10, 9, 8, 7}

// Valid reports whether s is one of the legal round scores.
func (s Score) Valid() bool {
	return IndexOf(s) >= 0
}

// IsSet reports whether the cell holds a score.
func (s Score) IsSet() bool {
	return s != Unset
}

func (s Score) String() string {
	if s == Unset {
		return ""
	}
	return strconv.Itoa(int(s))
}

// IndexOf returns the picker index of s, or -1 if s is not a candidate.
func IndexOf(s Score) int {
	for i, c := range Candidates {
		if c == s {
			return i
		}
	}
	return -1
}

// standardFor returns the score a cell is expected to hold given the
// opposite cell: 9 against a 10, otherwise 10.
func standardFor(opposite Score) Score {
	if opposite == 10 {
		return 9
	}
	return 10
}
