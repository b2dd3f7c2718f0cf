package domain

import (
	"errors"
	"fmt"
)

// Common domain errors that can occur while tallying ballots.
var (
	// ErrMissingCategory indicates that a direct score lookup named a
	// category the ballot does not define.
	ErrMissingCategory = errors.New("missing category")

	// ErrDegenerateBallot indicates that a ballot's significances sum to
	// zero, so they cannot be normalized.
	ErrDegenerateBallot = errors.New("degenerate ballot: total significance is zero")

	// ErrEmptyBallotSet indicates that an operation needing at least one
	// ballot received none.
	ErrEmptyBallotSet = errors.New("empty ballot set")

	// ErrUnknownCandidate indicates a candidate identifier outside a..d.
	ErrUnknownCandidate = errors.New("unknown candidate")

	// ErrContextNotFound indicates that a state lookup for a scoring
	// context's intermediate data came back empty.
	ErrContextNotFound = errors.New("scoring context not found")

	// ErrKeyNotFound indicates that a requested state key does not exist.
	ErrKeyNotFound = errors.New("key not found")
)

// BallotError reports a failure scoring a specific ballot.
type BallotError struct {
	// BallotID identifies the offending ballot.
	BallotID string

	// Category is the category involved, empty for overall scoring.
	Category string

	// Operation describes what was being computed.
	Operation string

	// Suggestion is the closest known category name when Category was not
	// found. It is empty when there is no useful suggestion.
	Suggestion string

	Err error
}

// Error implements the error interface for BallotError.
func (e *BallotError) Error() string {
	msg := fmt.Sprintf("ballot error: operation=%s, ballot=%s", e.Operation, e.BallotID)
	if e.Category != "" {
		msg += fmt.Sprintf(", category=%q", e.Category)
	}
	msg += fmt.Sprintf(", err=%v", e.Err)
	if e.Suggestion != "" {
		msg += fmt.Sprintf(" (did you mean %q?)", e.Suggestion)
	}
	return msg
}

// Unwrap returns the underlying error.
func (e *BallotError) Unwrap() error { return e.Err }

// NewBallotError creates a new BallotError with the given details.
func NewBallotError(ballotID, category, operation string, err error) *BallotError {
	return &BallotError{
		BallotID:  ballotID,
		Category:  category,
		Operation: operation,
		Err:       err,
	}
}

// StateError represents an error that occurred reading pipeline state.
type StateError struct {
	// Key is the state key that was involved.
	Key string

	// Operation describes what was being attempted.
	Operation string

	Err error
}

// Error implements the error interface for StateError.
func (e *StateError) Error() string {
	return fmt.Sprintf("state error: operation=%s, key=%s, err=%v", e.Operation, e.Key, e.Err)
}

// Unwrap returns the underlying error.
func (e *StateError) Unwrap() error { return e.Err }

// NewStateError creates a new StateError with the given details.
func NewStateError(key, operation string, err error) *StateError {
	return &StateError{
		Key:       key,
		Operation: operation,
		Err:       err,
	}
}

// ValidationError collects every problem found while validating an entity
// so they can be reported together.
type ValidationError struct {
	// Entity is the name of the entity that failed validation.
	Entity string

	// Errors contains the validation messages.
	Errors []string
}

// Error implements the error interface for ValidationError.
func (e *ValidationError) Error() string {
	if len(e.Errors) == 1 {
		return fmt.Sprintf("validation error for %s: %s", e.Entity, e.Errors[0])
	}
	return fmt.Sprintf("validation errors for %s: %v", e.Entity, e.Errors)
}

// AddError appends a validation message.
func (e *ValidationError) AddError(msg string) { e.Errors = append(e.Errors, msg) }

// HasErrors reports whether any message was recorded.
func (e *ValidationError) HasErrors() bool { return len(e.Errors) > 0 }

// NewValidationError creates a new ValidationError for the given entity.
func NewValidationError(entity string) *ValidationError {
	return &ValidationError{
		Entity: entity,
		Errors: make([]string, 0),
	}
}
