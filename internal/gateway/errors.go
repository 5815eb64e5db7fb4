package gateway

import (
	"errors"
	"fmt"
)

var (
	// ErrNotConfigured is returned when no target spreadsheet is configured
	ErrNotConfigured = errors.New("google sheet id not configured")
	// ErrMissingCredentials is returned when the service account is not configured
	ErrMissingCredentials = errors.New("google service account credentials not configured")
)

// ErrorKind separates deployment problems from per-request failures
type ErrorKind string

const (
	KindNone          ErrorKind = ""
	KindConfiguration ErrorKind = "configuration"
	KindTransient     ErrorKind = "transient"
)

// ConfigurationError means the gateway cannot work until it is reconfigured
type ConfigurationError struct {
	Err error
}

func (e *ConfigurationError) Error() string {
	return "gateway configuration: " + e.Err.Error()
}

func (e *ConfigurationError) Unwrap() error {
	return e.Err
}

// TransientError wraps a failed credential, auth or append step.
// The row may have been written even though the call failed.
type TransientError struct {
	Op  string
	Err error
}

func (e *TransientError) Error() string {
	return fmt.Sprintf("gateway %s: %v", e.Op, e.Err)
}

func (e *TransientError) Unwrap() error {
	return e.Err
}

// Kind classifies an error returned by Append
func Kind(err error) ErrorKind {
	if err == nil {
		return KindNone
	}
	var cfgErr *ConfigurationError
	if errors.As(err, &cfgErr) {
		return KindConfiguration
	}
	return KindTransient
}
