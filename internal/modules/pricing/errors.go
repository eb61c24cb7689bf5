package pricing

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidSelection         = errors.New("invalid selection")
	ErrMissingConfiguration     = errors.New("missing pricing configuration")
	ErrInvalidConfiguration     = errors.New("invalid pricing configuration")
	ErrConfigurationUnavailable = errors.New("pricing configuration unavailable")
	ErrConfigNotFound           = errors.New("pricing configuration not found")
)

// SelectionError reports which booking field is out of domain.
type SelectionError struct {
	Field  string
	Reason string
}

func (e *SelectionError) Error() string {
	if e.Field == "" {
		return e.Reason
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}

func (e *SelectionError) Unwrap() error { return ErrInvalidSelection }

// ConfigError reports the first config key that is absent or out of range.
type ConfigError struct {
	Key     string
	Reason  string
	Missing bool
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("pricing config %s: %s", e.Key, e.Reason)
}

func (e *ConfigError) Unwrap() error {
	if e.Missing {
		return ErrMissingConfiguration
	}
	return ErrInvalidConfiguration
}

func invalidSelection(field, reason string) error {
	return &SelectionError{Field: field, Reason: reason}
}

func missingKey(key string) error {
	return &ConfigError{Key: key, Reason: "missing", Missing: true}
}

func negativePrice(key string) error {
	return &ConfigError{Key: key, Reason: "price must not be negative"}
}
