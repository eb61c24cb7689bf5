package booking

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidState     = errors.New("invalid state transition")
	ErrNotFound         = errors.New("booking not found")
	ErrConflict         = errors.New("booking state conflict")
	ErrSeatsUnavailable = errors.New("not enough shared seats left")
	ErrBadRequest       = errors.New("bad request")
)

// ValidationError names the offending request field.
type ValidationError struct {
	Field string
	Msg   string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Msg)
}

func (e *ValidationError) Unwrap() error { return ErrBadRequest }

func invalid(field, msg string) error {
	return &ValidationError{Field: field, Msg: msg}
}
