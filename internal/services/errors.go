package services

import (
	"errors"
	"fmt"
)

var (
	ErrForbidden          = errors.New("forbidden")
	ErrInvalidInput       = errors.New("invalid input")
	ErrInstructorNotFound = errors.New("instructor not found")
	ErrFreeLimitReached   = errors.New("free plan conversation limit reached")
)

// FreeLimitError carries the usage snapshot that produced a quota rejection,
// so the handler can report limit and used counts alongside the error code.
type FreeLimitError struct {
	Used  int
	Limit int
}

func (e *FreeLimitError) Error() string {
	return fmt.Sprintf("free plan conversation limit reached (%d/%d)", e.Used, e.Limit)
}

func (e *FreeLimitError) Unwrap() error {
	return ErrFreeLimitReached
}
