// Package errors provides structured error types for trackplan.
//
// This package defines error codes and types that enable:
//   - Consistent error handling across CLI, HTTP and WebSocket surfaces
//   - Machine-readable error codes for programmatic handling
//   - Error wrapping with context preservation
//
// Every failed session operation returns an *Error, so callers can branch on
// [GetCode] instead of matching message text.
//
// # Usage
//
//	err := errors.New(errors.ErrCodeNotInitialized, "no active path; request one first")
//	if errors.Is(err, errors.ErrCodeNotInitialized) {
//	    // tell the client to send a path request
//	}
//
//	// Wrap existing errors
//	err := errors.Wrap(errors.ErrCodeInvalidMap, origErr, "load %s", path)
package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// Code represents a machine-readable error code.
type Code string

// Error codes for different error categories.
const (
	// ErrCodeNotInitialized: step or map update issued with no active planner.
	ErrCodeNotInitialized Code = "NOT_INITIALIZED"

	// ErrCodeUnreachableGoal: the planned route falls short of the goal.
	ErrCodeUnreachableGoal Code = "UNREACHABLE_GOAL"

	// Input validation errors
	ErrCodeInvalidRequest Code = "INVALID_REQUEST"
	ErrCodeInvalidMap     Code = "INVALID_MAP"

	// Resource not found errors
	ErrCodeNotFound Code = "NOT_FOUND"

	// Internal errors
	ErrCodeInternal Code = "INTERNAL_ERROR"
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
// For *Error types, returns the message without the code prefix.
// For other errors, returns the error string as-is.
func UserMessage(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Message
	}
	return err.Error()
}

// HTTPStatus maps an error code to the status the HTTP API answers with.
// Unknown and empty codes map to 500.
func HTTPStatus(code Code) int {
	switch code {
	case ErrCodeInvalidRequest, ErrCodeInvalidMap:
		return http.StatusBadRequest
	case ErrCodeNotFound:
		return http.StatusNotFound
	case ErrCodeNotInitialized:
		return http.StatusConflict
	case ErrCodeUnreachableGoal:
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

// FromPanic converts a recovered panic value into an internal error.
func FromPanic(v any) *Error {
	if err, ok := v.(error); ok {
		return Wrap(ErrCodeInternal, err, "internal error")
	}
	return New(ErrCodeInternal, "internal error: %v", v)
}
