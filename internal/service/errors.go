// Package service defines the error taxonomy shared by the ingestion,
// indexing and query layers and mapped to user-visible messages by the
// HTTP handlers and the CLI.
package service

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrInvalidInput is returned when input validation fails.
	ErrInvalidInput = errors.New("invalid input")
	// ErrNotFound is returned when a referenced entry does not exist.
	ErrNotFound = errors.New("not found")
	// ErrDuplicateContent is returned when an upload's content hash is already registered.
	ErrDuplicateContent = errors.New("duplicate content")
	// ErrInvalidFormat is returned for a missing or unsupported file suffix.
	ErrInvalidFormat = errors.New("invalid format")
	// ErrCollision is returned when the destination of a new file is already occupied.
	ErrCollision = errors.New("destination already exists")
	// ErrStoreFailure is returned when a transactional write fails.
	ErrStoreFailure = errors.New("store failure")
	// ErrEmptyQuery is returned when a search query has no terms.
	ErrEmptyQuery = errors.New("empty query")
)

// ValidationError represents a validation error with a field name.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error on field %s: %s", e.Field, e.Message)
}

// Is makes every ValidationError match ErrInvalidInput.
func (e *ValidationError) Is(target error) bool {
	return target == ErrInvalidInput
}

// ExistingEntry identifies an entry that already holds some content.
type ExistingEntry struct {
	Number int64  `json:"number"`
	Title  string `json:"title"`
}

// DuplicateContentError names the entries whose content matches an upload.
type DuplicateContentError struct {
	Filename string
	Existing []ExistingEntry
}

func (e *DuplicateContentError) Error() string {
	parts := make([]string, len(e.Existing))
	for i, x := range e.Existing {
		parts[i] = fmt.Sprintf("#%d (%s)", x.Number, x.Title)
	}
	return fmt.Sprintf("duplicate content: %s matches %s", e.Filename, strings.Join(parts, ", "))
}

func (e *DuplicateContentError) Is(target error) bool {
	return target == ErrDuplicateContent
}

// StoreFailureError records which store operation failed.
type StoreFailureError struct {
	Op  string
	Err error
}

func (e *StoreFailureError) Error() string {
	return fmt.Sprintf("store failure during %s: %v", e.Op, e.Err)
}

func (e *StoreFailureError) Unwrap() error {
	return e.Err
}

func (e *StoreFailureError) Is(target error) bool {
	return target == ErrStoreFailure
}

// StoreFailure wraps err as a StoreFailureError unless it is nil or already
// classified by the taxonomy.
func StoreFailure(op string, err error) error {
	if err == nil {
		return nil
	}
	for _, known := range []error{ErrNotFound, ErrDuplicateContent, ErrInvalidFormat, ErrCollision, ErrStoreFailure, ErrInvalidInput} {
		if errors.Is(err, known) {
			return err
		}
	}
	return &StoreFailureError{Op: op, Err: err}
}

// WrapError wraps an error with additional context.
func WrapError(err error, msg string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", msg, err)
}

// Fatal reports whether err should stop a batch: collisions and store
// failures may indicate corruption or concurrent outside access.
func Fatal(err error) bool {
	return errors.Is(err, ErrCollision) || errors.Is(err, ErrStoreFailure)
}
