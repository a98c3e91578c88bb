// Package services holds the business rules of the parcel marketplace.
// Services return *Error values whose Kind tells the HTTP layer which
// status to use.
package services

import (
	"errors"
	"fmt"
)

// Error kinds.
var (
	ErrInvalidInput = errors.New("invalid input")
	ErrNotFound     = errors.New("not found")
	ErrConflict     = errors.New("conflict")
	ErrNoChange     = errors.New("no change")
	ErrUnavailable  = errors.New("unavailable")
)

// Error is a classified service failure.
type Error struct {
	Kind    error
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

// Is matches the error kind, so errors.Is(err, ErrNotFound) works.
func (e *Error) Is(target error) bool { return e.Kind == target }

func (e *Error) Unwrap() error { return e.Cause }

func invalid(msg string) error { return &Error{Kind: ErrInvalidInput, Message: msg} }

func notFound(msg string) error { return &Error{Kind: ErrNotFound, Message: msg} }

func conflict(msg string) error { return &Error{Kind: ErrConflict, Message: msg} }

func noChange(msg string) error { return &Error{Kind: ErrNoChange, Message: msg} }

func unavailable(msg string, cause error) error {
	return &Error{Kind: ErrUnavailable, Message: msg, Cause: cause}
}

// internal wraps an unexpected failure; it has no kind.
func internal(msg string, cause error) error {
	return &Error{Message: msg, Cause: cause}
}
