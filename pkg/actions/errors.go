package actions

import (
	"errors"
	"fmt"
)

var (
	// ErrUnknownMethod is the cause of a CommandError for a method name
	// outside the supported set.
	ErrUnknownMethod = errors.New("unsupported method")

	// ErrNoHandle is the cause of a CommandError when Execute is called
	// without a resolved element.
	ErrNoHandle = errors.New("no element handle")

	// ErrSettleTimeout is reported when the DOM kept mutating until the
	// settle timeout. It is logged, never returned from Execute.
	ErrSettleTimeout = errors.New("timed out waiting for the DOM to settle")
)

// CommandError reports a failed browser operation.
type CommandError struct {
	Method string
	Path   string
	Cause  error
}

func (e *CommandError) Error() string {
	return fmt.Sprintf("%s on %s failed: %v", e.Method, e.Path, e.Cause)
}

func (e *CommandError) Unwrap() error { return e.Cause }

// ClickError reports that both the native click and the script click failed.
type ClickError struct {
	Path  string
	Cause error
}

func (e *ClickError) Error() string {
	return fmt.Sprintf("click on %s failed: %v", e.Path, e.Cause)
}

func (e *ClickError) Unwrap() error { return e.Cause }

func commandError(method, path string, cause error) error {
	return &CommandError{Method: method, Path: path, Cause: cause}
}
