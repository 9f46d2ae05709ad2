// Package errors follows the sentinel-plus-AppError pattern used throughout
// this module: every fatal condition is an errors.Is-comparable sentinel,
// optionally wrapped in an AppError carrying an exit code and a message for
// the CLI shell.
package errors

import (
	"errors"
	"fmt"
)

var (
	// ErrCorruptBlock is returned when a posting block's header is
	// internally inconsistent (n == 0, or a declared body length that
	// overruns the remaining chunk).
	ErrCorruptBlock = errors.New("corrupt posting block")
	// ErrTermOrder is returned when terms reach the dictionary packer
	// out of strict ascending order, or two terms compare equal.
	ErrTermOrder = errors.New("term order violation")
	// ErrCorruptDictionary is returned when a terms.data file fails its
	// magic/version check or a front-coded record is truncated.
	ErrCorruptDictionary = errors.New("corrupt terms dictionary")
	// ErrEncoderContract is returned when a caller violates the
	// encoder's monotonicity contract (non-increasing docID or position).
	ErrEncoderContract = errors.New("encoder contract violation")
	// ErrIO wraps a filesystem or memory-mapping failure at a session
	// boundary (open, commit, merge).
	ErrIO = errors.New("index io failure")
	// ErrInternal covers unexpected conditions that do not fit a more
	// specific sentinel above.
	ErrInternal = errors.New("internal error")
)

// AppError pairs a sentinel with a human-readable message and a process
// exit code, so the cmd shell can report failures without re-deriving a
// status from the error chain every time.
type AppError struct {
	Err      error
	Message  string
	ExitCode int
}

func (e *AppError) Error() string {
	return fmt.Sprintf("%s: %s", e.Err.Error(), e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// New wraps sentinel with a message and exit code.
func New(sentinel error, exitCode int, message string) *AppError {
	return &AppError{Err: sentinel, Message: message, ExitCode: exitCode}
}

// Newf is New with a formatted message.
func Newf(sentinel error, exitCode int, format string, args ...any) *AppError {
	return &AppError{Err: sentinel, Message: fmt.Sprintf(format, args...), ExitCode: exitCode}
}

// ExitCode extracts the process exit code carried by err, defaulting to 1
// for any error that isn't an *AppError.
func ExitCode(err error) int {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.ExitCode
	}
	return 1
}
