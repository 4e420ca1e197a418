package engine

import "errors"

// RunError classifies fatal run failures for exit-code determination.
type RunError struct {
	// Kind indicates whether this is an environment, stream or
	// cancellation failure.
	Kind RunErrorKind
	// Err is the underlying error.
	Err error
}

// RunErrorKind classifies fatal run failures.
type RunErrorKind int

const (
	// RunErrorEnvironment indicates a target, directory or error-sink
	// failure (exit code 1).
	RunErrorEnvironment RunErrorKind = iota
	// RunErrorStream indicates the input failed mid-read (exit code 1).
	RunErrorStream
	// RunErrorCanceled indicates context cancellation (exit code 2).
	RunErrorCanceled
)

func (e *RunError) Error() string {
	return e.Err.Error()
}

func (e *RunError) Unwrap() error {
	return e.Err
}

// IsEnvironmentError returns true if the error is an environment failure.
func IsEnvironmentError(err error) bool {
	var runErr *RunError
	if errors.As(err, &runErr) {
		return runErr.Kind == RunErrorEnvironment
	}
	return false
}

// IsStreamError returns true if the error is a stream read failure.
func IsStreamError(err error) bool {
	var runErr *RunError
	if errors.As(err, &runErr) {
		return runErr.Kind == RunErrorStream
	}
	return false
}

// IsCanceledError returns true if the error is due to context cancellation.
func IsCanceledError(err error) bool {
	var runErr *RunError
	if errors.As(err, &runErr) {
		return runErr.Kind == RunErrorCanceled
	}
	return false
}
