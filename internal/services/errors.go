package services

import (
	"github.com/abrezinsky/crowdscore/internal/errors"
)

// Service errors
var (
	ErrBoutNotFound        = errors.NotFound("bout not found")
	ErrScorecardNotFound   = errors.NotFound("scorecard not found")
	ErrFightNotFound       = errors.NotFound("fight not found")
	ErrNoTablesSpecified   = errors.Validation("no tables specified")
	ErrInvalidRoundCount   = errors.Validationf("round count must be between 1 and %d", MaxRounds)
	ErrBaseURLNotSet       = errors.Validation("base_url not configured")
	ErrUnknownCommand      = errors.InvalidInput("unknown bout command")
	ErrInvalidScheduleView = errors.InvalidInput("when must be today, upcoming or all")
)

// InvalidTableError represents an invalid table name error
type InvalidTableError struct {
	Table string
}

func (e *InvalidTableError) Error() string {
	return "invalid table name: " + e.Table
}
