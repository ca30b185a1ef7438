package trivia

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound reports a well-formed query with zero results.
	ErrNotFound = errors.New("resource not found")

	// ErrExhausted reports a quiz scope with no unseen question left.
	ErrExhausted = errors.New("no unseen questions remain")

	// ErrDuplicateQuestion reports an insert whose question text already exists.
	ErrDuplicateQuestion = errors.New("question text already exists")
)

// ValidationError reports caller input rejected before any mutation.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Reason
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}

// IsValidation reports whether err is a precondition violation.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// PersistenceError wraps a storage failure so adapters can tell it apart
// from an empty result.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }

// IsPersistence reports whether err originated in the storage layer.
func IsPersistence(err error) bool {
	var pe *PersistenceError
	return errors.As(err, &pe)
}
