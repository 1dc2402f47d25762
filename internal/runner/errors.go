package runner

import (
	"errors"
	"fmt"
	"strings"
)

// ErrUnknownEngine is returned for a profile whose engine is not registered.
var ErrUnknownEngine = errors.New("unknown engine")

// Failure is one rejected attempt.
type Failure struct {
	Profile string
	Err     error
}

func (f Failure) Error() string {
	return fmt.Sprintf("%s: %v", f.Profile, f.Err)
}

func (f Failure) Unwrap() error {
	return f.Err
}

// AggregateError is returned when every profile failed.
type AggregateError struct {
	Failures []Failure
}

func (e *AggregateError) Error() string {
	parts := make([]string, len(e.Failures))
	for i, f := range e.Failures {
		parts[i] = f.Error()
	}
	return "All strategies failed: " + strings.Join(parts, "; ")
}

func (e *AggregateError) Unwrap() []error {
	errs := make([]error, len(e.Failures))
	for i, f := range e.Failures {
		errs[i] = f
	}
	return errs
}
