package config

import (
	"errors"
	"fmt"

	"github.com/forge-sre/forge/pkg/ferrors"
)

// LoadError wraps a configuration file load failure with file context.
type LoadError struct {
	File string
	Err  error
}

func (e *LoadError) Error() string { return fmt.Sprintf("failed to load %s: %v", e.File, e.Err) }
func (e *LoadError) Unwrap() error { return e.Err }

func newLoadError(file string, err error) error {
	return ferrors.New(ferrors.KindConfig, "config.load", &LoadError{File: file, Err: err})
}

// ValidationError wraps a single configuration field failure.
type ValidationError struct {
	Field string
	Err   error
}

func (e *ValidationError) Error() string { return fmt.Sprintf("field %q: %v", e.Field, e.Err) }
func (e *ValidationError) Unwrap() error { return e.Err }

func newValidationError(field string, err error) error {
	return &ValidationError{Field: field, Err: err}
}

var errMissingField = errors.New("missing required value")
