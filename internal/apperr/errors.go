// Package apperr defines the error taxonomy shared across the application.
package apperr

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound = errors.New("not found")
	// ErrLuckyExhausted signals that every item of a collection has already
	// been lucky-picked. Informational, not a failure.
	ErrLuckyExhausted = errors.New("all items already visited")
)

// FormatError reports structurally malformed CSV input (missing header,
// missing required positional columns). An import that hits it aborts with
// no partial write.
type FormatError struct {
	Reason string
}

func (e *FormatError) Error() string {
	return fmt.Sprintf("csv format: %s", e.Reason)
}

// ValidationError reports a record that fails field-level rules at the
// store boundary. The surrounding transaction is rolled back in full.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Reason == "" {
		return fmt.Sprintf("validation: invalid %s", e.Field)
	}
	return fmt.Sprintf("validation: %s: %s", e.Field, e.Reason)
}

// DatabaseError wraps an underlying storage-engine failure. Terminal for
// the current operation; callers do not retry automatically.
type DatabaseError struct {
	Op  string
	Err error
}

func (e *DatabaseError) Error() string {
	return fmt.Sprintf("database: %s: %v", e.Op, e.Err)
}

func (e *DatabaseError) Unwrap() error { return e.Err }

// QueryTimeoutError reports a store operation that exceeded its time
// budget. Transient: a fresh user action re-triggers the query.
type QueryTimeoutError struct {
	Op string
}

func (e *QueryTimeoutError) Error() string {
	return fmt.Sprintf("query timeout: %s", e.Op)
}

// IsValidation reports whether err is (or wraps) a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// IsTimeout reports whether err is (or wraps) a QueryTimeoutError.
func IsTimeout(err error) bool {
	var te *QueryTimeoutError
	return errors.As(err, &te)
}
