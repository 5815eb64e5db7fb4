package intake

import (
	"errors"
	"sort"
	"strings"
)

// Common errors
var (
	ErrNoSession          = errors.New("no active session")
	ErrReadOnlyField      = errors.New("field is read-only")
	ErrUnknownField       = errors.New("unknown field")
	ErrSubmissionInFlight = errors.New("a submission is already in progress")
	ErrMissingDomain      = errors.New("missing domain")
)

// User-facing failure reasons of a submission attempt
const (
	ReasonMissingDomain = "Please select at least one domain"
	ReasonSubmitFailed  = "Failed to submit application. Please try again."
)

// ValidationError lists invalid fields with their messages
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	names := make([]string, 0, len(e.Fields))
	for name := range e.Fields {
		names = append(names, name)
	}
	sort.Strings(names)
	return "invalid fields: " + strings.Join(names, ", ")
}

// SubmitError is a failed gateway call. The cause is for operators only.
type SubmitError struct {
	Err error
}

func (e *SubmitError) Error() string {
	return "submission failed: " + e.Err.Error()
}

func (e *SubmitError) Unwrap() error {
	return e.Err
}
