package errors

import (
	"errors"
	"fmt"
	"strings"
)

// Error codes for categorizing errors
const (
	ErrConfig         = "CONFIG"
	ErrUnknownCommand = "UNKNOWN_COMMAND"
	ErrUnknownTarget  = "UNKNOWN_TARGET"
	ErrExec           = "EXEC"
	ErrDeclined       = "DECLINED"
	ErrSSH            = "SSH"
	ErrSync           = "SYNC"
)

// Error represents a structured error with code, message, suggestion, and optional cause.
// Rendered as:
//
//	✗ <What failed>
//
//	  <Why it failed - technical details>
//
//	  <How to fix it - actionable steps>
type Error struct {
	Code       string
	Message    string
	Suggestion string
	Cause      error
}

// New creates a new structured error with the given code, message, and suggestion.
func New(code, message, suggestion string) *Error {
	return &Error{
		Code:       code,
		Message:    message,
		Suggestion: suggestion,
	}
}

// Wrap wraps an existing error with a message, keeping the cause's code
// when it has one.
func Wrap(err error, message string) *Error {
	return &Error{
		Code:    Code(err),
		Message: message,
		Cause:   err,
	}
}

// Is reports whether any error in err's chain matches target.
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As finds the first error in err's chain that matches target.
func As(err error, target any) bool {
	return errors.As(err, target)
}

// WrapWithCode wraps an existing error with a specific code, message, and suggestion.
func WrapWithCode(err error, code, message, suggestion string) *Error {
	return &Error{
		Code:       code,
		Message:    message,
		Suggestion: suggestion,
		Cause:      err,
	}
}

// Error implements the error interface.
func (e *Error) Error() string {
	var b strings.Builder

	b.WriteString(fmt.Sprintf("✗ %s\n", e.Message))

	if e.Cause != nil {
		b.WriteString(fmt.Sprintf("\n  %s\n", e.Cause.Error()))
	}

	if e.Suggestion != "" {
		b.WriteString(fmt.Sprintf("\n  %s\n", e.Suggestion))
	}

	return b.String()
}

// Unwrap returns the underlying cause for use with errors.Is/errors.As.
func (e *Error) Unwrap() error {
	return e.Cause
}

// IsCode checks if an error is a structured Error with the given code.
// CommandFailedError counts as ErrExec.
func IsCode(err error, code string) bool {
	if err == nil {
		return false
	}
	var cmdErr *CommandFailedError
	if errors.As(err, &cmdErr) && code == ErrExec {
		return true
	}
	var wpdErr *Error
	if errors.As(err, &wpdErr) {
		return wpdErr.Code == code
	}
	return false
}

// Code returns the code of the first structured error in the chain, or "".
func Code(err error) string {
	var cmdErr *CommandFailedError
	if errors.As(err, &cmdErr) {
		return ErrExec
	}
	var wpdErr *Error
	if errors.As(err, &wpdErr) {
		return wpdErr.Code
	}
	return ""
}

// CommandFailedError is returned when an external command exits non-zero
// and the caller did not tolerate failure.
type CommandFailedError struct {
	Command  string // redacted display form of the command
	Host     string // "local" for workstation execution
	ExitCode int
	Stderr   string
}

func (e *CommandFailedError) Error() string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("✗ Command failed on %s (exit %d)\n", e.Host, e.ExitCode))
	b.WriteString(fmt.Sprintf("\n  %s\n", e.Command))
	if stderr := strings.TrimSpace(e.Stderr); stderr != "" {
		b.WriteString(fmt.Sprintf("\n  %s\n", lastLines(stderr, 5)))
	}
	return b.String()
}

// Configuration creates a CONFIG error for a missing or disallowed setting.
func Configuration(message, suggestion string) *Error {
	return New(ErrConfig, message, suggestion)
}

// UnknownCommand creates an UNKNOWN_COMMAND error.
func UnknownCommand(name string) *Error {
	return New(ErrUnknownCommand,
		fmt.Sprintf("Unknown command '%s'", name),
		"Run 'wpd list' to see the available commands.")
}

// UnknownTarget creates an UNKNOWN_TARGET error.
func UnknownTarget(name string) *Error {
	return New(ErrUnknownTarget,
		fmt.Sprintf("Unknown target '%s'", name),
		"Run 'wpd targets' to see the targets defined in .wpd.yaml.")
}

// Declined creates a DECLINED error for a refused confirmation.
func Declined(message string) *Error {
	return New(ErrDeclined, message, "Nothing was changed.")
}

func lastLines(s string, n int) string {
	lines := strings.Split(s, "\n")
	if len(lines) > n {
		lines = lines[len(lines)-n:]
	}
	return strings.Join(lines, "\n  ")
}
