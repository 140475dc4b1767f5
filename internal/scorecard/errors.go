package scorecard

import (
	stderrors "errors"
)

// Engine errors. They are returned wrapped in a kinded *errors.Error, so
// callers can match either the sentinel (errors.Is) or the kind (errors.As).
var (
	ErrInvalidConfiguration = stderrors.New("invalid bout configuration")
	ErrOutOfRange           = stderrors.New("round out of range")
	ErrInvalidScore         = stderrors.New("invalid score")
	ErrNotStarted           = stderrors.New("bout not started")
	ErrPersistence          = stderrors.New("scorecard not saved")
)
