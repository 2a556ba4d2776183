package model

import (
	"errors"
	"fmt"
)

var (
	// ErrConfiguration marks missing or inconsistent model artifacts.
	// The inference capability stays unavailable for the process lifetime.
	ErrConfiguration = errors.New("model configuration error")
	// ErrScoring marks a failure of a single scoring request.
	ErrScoring = errors.New("scoring failed")
)

// ScoringError is returned to callers for a failed request. It matches
// ErrScoring with errors.Is.
type ScoringError struct {
	Stage string
	Err   error
}

func (e *ScoringError) Error() string {
	return fmt.Sprintf("%s: %s: %v", ErrScoring, e.Stage, e.Err)
}

func (e *ScoringError) Unwrap() error { return e.Err }

func (e *ScoringError) Is(target error) bool { return target == ErrScoring }

func configErr(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrConfiguration, fmt.Sprintf(format, args...))
}
