// Package errors provides structured error types for hscompose.
//
// Every failure that reaches the user carries a machine-readable [Code] so
// the CLI and the HTTP API can map it to an exit status or response code,
// and a message that can be shown as-is.
//
// # Error Codes
//
//   - INVALID_*: malformed input (graph documents, node configuration)
//   - NO_ROOT, NODE_FRAGMENT: configuration errors raised while compiling
//   - BUFFER, REMOTE: failures of the external collaborators
//   - INTERNAL_ERROR: anything unexpected
//
// # Usage
//
//	err := errors.New(errors.ErrCodeNoRoot, "graph %q has no render node", name)
//	if errors.Is(err, errors.ErrCodeNoRoot) {
//	    // report and abort without touching the buffer
//	}
//
//	err := errors.Wrap(errors.ErrCodeNodeFragment, cause, "node %s (%s)", id, kind)
package errors

import (
	"errors"
	"fmt"
)

// Code represents a machine-readable error code.
type Code string

// Error codes for different error categories.
const (
	// Input validation errors
	ErrCodeInvalidInput  Code = "INVALID_INPUT"
	ErrCodeInvalidGraph  Code = "INVALID_GRAPH"
	ErrCodeInvalidFormat Code = "INVALID_FORMAT"
	ErrCodeInvalidName   Code = "INVALID_NAME"
	ErrCodeUnknownKind   Code = "UNKNOWN_KIND"

	// Compile (configuration) errors
	ErrCodeNoRoot       Code = "NO_ROOT"
	ErrCodeNodeFragment Code = "NODE_FRAGMENT"

	// Collaborator errors
	ErrCodeBuffer   Code = "BUFFER"
	ErrCodeRemote   Code = "REMOTE"
	ErrCodeNotFound Code = "NOT_FOUND"

	// Internal errors
	ErrCodeInternal    Code = "INTERNAL_ERROR"
	ErrCodeUnsupported Code = "UNSUPPORTED"
)

// Error is a structured error with a code and optional cause.
type Error struct {
	Code    Code   // Machine-readable error code
	Message string // Human-readable message
	Cause   error  // Underlying error (optional)
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause for errors.Is/As compatibility.
func (e *Error) Unwrap() error {
	return e.Cause
}

// New creates a new Error with the given code and formatted message.
func New(code Code, format string, args ...any) *Error {
	return &Error{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
	}
}

// Wrap creates a new Error wrapping an existing error.
func Wrap(code Code, cause error, format string, args ...any) *Error {
	return &Error{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
		Cause:   cause,
	}
}

// Is reports whether err has the given error code.
// It unwraps the error chain looking for an *Error with a matching code.
func Is(err error, code Code) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Code == code
	}
	return false
}

// GetCode extracts the error code from an error, if available.
// Returns empty string if the error is not an *Error.
func GetCode(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

// UserMessage returns a user-friendly message for the error.
// For *Error types, returns the message (and cause) without the code prefix.
// For other errors, returns the error string as-is.
func UserMessage(err error) string {
	var e *Error
	if errors.As(err, &e) {
		if e.Cause != nil {
			return e.Message + ": " + e.Cause.Error()
		}
		return e.Message
	}
	return err.Error()
}

// IsConfiguration reports whether err is a configuration error: the user
// can fix it by editing the graph and retrying.
func IsConfiguration(err error) bool {
	switch GetCode(err) {
	case ErrCodeNoRoot, ErrCodeNodeFragment, ErrCodeInvalidGraph, ErrCodeUnknownKind:
		return true
	}
	return false
}
