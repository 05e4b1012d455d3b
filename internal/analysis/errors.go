package analysis

import (
	"errors"
	"fmt"
)

var (
	// ErrMissingField is returned when a required form field is absent or blank.
	ErrMissingField = errors.New("missing required field")
	// ErrNoFiles is returned when a batch carries no resume files.
	ErrNoFiles = errors.New("no resume files")
	// ErrStorage wraps failures persisting uploads or the CSV export.
	ErrStorage = errors.New("storage failure")
	// ErrClassification wraps classifier failures.
	ErrClassification = errors.New("classification failure")
	// ErrResults wraps result table failures.
	ErrResults = errors.New("result table failure")
	// ErrBatchSuperseded is returned when archiving a batch that is no longer the latest.
	ErrBatchSuperseded = errors.New("batch superseded")
)

// FieldError names the form field that failed validation.
type FieldError struct {
	Field string
	Err   error
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("%s: %v", e.Field, e.Err)
}

func (e *FieldError) Unwrap() error {
	return e.Err
}

func missing(field string) error {
	return &FieldError{Field: field, Err: ErrMissingField}
}
