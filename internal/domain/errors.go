// Package domain provides shared domain-level sentinel errors.
package domain

import (
	"errors"
	"fmt"
)

// ErrNotFound indicates the requested entity does not exist.
var ErrNotFound = errors.New("not found")

// ErrConflict indicates a concurrent modification conflict (optimistic locking).
var ErrConflict = errors.New("conflict: resource was modified by another request")

// ErrValidation indicates a request failed input validation.
var ErrValidation = errors.New("validation failed")

// ErrInvalidArgument indicates a required input was missing or empty.
var ErrInvalidArgument = errors.New("invalid argument")

// ErrNilArgument indicates a required reference was nil.
// errors.Is(err, ErrInvalidArgument) also reports true for it.
var ErrNilArgument = fmt.Errorf("%w: nil reference", ErrInvalidArgument)

// ErrInvalidOperation indicates an operation would break a domain invariant.
var ErrInvalidOperation = errors.New("invalid operation")

// ErrFormat indicates a string could not be parsed into a domain value.
var ErrFormat = errors.New("invalid format")

// ArgumentError reports which parameter was rejected.
type ArgumentError struct {
	Param string
	Err   error
}

func (e *ArgumentError) Error() string {
	return fmt.Sprintf("%s: %v", e.Param, e.Err)
}

func (e *ArgumentError) Unwrap() error { return e.Err }

// NilArgument returns an ArgumentError for a nil reference parameter.
func NilArgument(param string) error {
	return &ArgumentError{Param: param, Err: ErrNilArgument}
}

// EmptyArgument returns an ArgumentError for an empty or blank parameter.
func EmptyArgument(param string) error {
	return &ArgumentError{Param: param, Err: fmt.Errorf("%w: must not be empty", ErrInvalidArgument)}
}
