package runner

import (
	"errors"
	"fmt"
)

// Exit codes robot-trace reports for its own failures. Codes above 250 are
// reserved for them; any other code is the engine's.
const (
	ExitUsage       = 252 // Bad arguments or configuration
	ExitInternal    = 255 // Integration failure, e.g. an undecodable event
	ExitInterrupted = 130
)

// ExitError carries the exit code a run ended with.
type ExitError struct {
	Code int
	Err  error
}

func (e *ExitError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("exit code %d", e.Code)
	}
	return e.Err.Error()
}

func (e *ExitError) Unwrap() error { return e.Err }

// Usage wraps err as a usage error.
func Usage(err error) error {
	return &ExitError{Code: ExitUsage, Err: err}
}

// Internal wraps err as an integration failure.
func Internal(err error) error {
	return &ExitError{Code: ExitInternal, Err: err}
}

// Failed returns the error of a run that ended with code for a reason the
// run has already shown.
func Failed(code int, reason string) error {
	return &ExitError{Code: code, Err: fmt.Errorf("%w: %s", errEngineExit, reason)}
}

// ExitCode returns the process exit code for err: 0 for nil, the carried code
// for an ExitError, ExitInternal otherwise.
func ExitCode(err error) int {
	if err == nil {
		return 0
	}
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}
	return ExitInternal
}

// Silent reports whether err only carries the engine's exit code, which the
// engine has already explained on its own.
func Silent(err error) bool {
	var exitErr *ExitError
	return errors.As(err, &exitErr) && errors.Is(exitErr.Err, errEngineExit)
}

var errEngineExit = errors.New("run failed")
