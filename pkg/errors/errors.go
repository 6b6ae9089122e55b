// Package errors provides structured error types for synthroute.
//
// Every error that reaches a user carries a machine-readable [Code] and a
// human-readable message, so the CLI and the HTTP API can report the same
// failure the same way.
//
// # Error Codes
//
// Codes follow a hierarchical naming convention:
//   - INVALID_*: input errors (malformed JSON, bad subgraph index, bad room id)
//   - NOT_FOUND: lookups that returned nothing
//   - NETWORK_ERROR / UPSTREAM: chemistry service failures
//   - INTERNAL_ERROR: unexpected failures
//
// # Usage
//
//	err := errors.New(errors.ErrCodeInvalidSubgraph, "invalid subgraph index %d", idx)
//	if errors.Is(err, errors.ErrCodeInvalidSubgraph) {
//	    // reject before any render
//	}
//
//	// Wrap existing errors
//	err := errors.Wrap(errors.ErrCodeInvalidJSON, origErr, "decode %s", path)
package errors

import (
	"errors"
	"fmt"
)

// Code represents a machine-readable error code.
type Code string

// Error codes for different error categories.
const (
	// Input errors. These are fatal for the current operation.
	ErrCodeInvalidInput    Code = "INVALID_INPUT"
	ErrCodeInvalidJSON     Code = "INVALID_JSON"
	ErrCodeInvalidFormat   Code = "INVALID_FORMAT"
	ErrCodeInvalidGraph    Code = "INVALID_GRAPH"
	ErrCodeInvalidSubgraph Code = "INVALID_SUBGRAPH"
	ErrCodeNoSubgraphs     Code = "NO_SUBGRAPHS"
	ErrCodeInvalidRoomID   Code = "INVALID_ROOM_ID"
	ErrCodeInvalidConfig   Code = "INVALID_CONFIG"

	// Resource not found errors
	ErrCodeNotFound     Code = "NOT_FOUND"
	ErrCodeFileNotFound Code = "FILE_NOT_FOUND"
	ErrCodeRoomNotFound Code = "ROOM_NOT_FOUND"

	// Upstream errors
	ErrCodeNetwork     Code = "NETWORK_ERROR"
	ErrCodeUpstream    Code = "UPSTREAM_ERROR"
	ErrCodeTimeout     Code = "TIMEOUT"
	ErrCodeRateLimited Code = "RATE_LIMITED"

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
// For *Error types, returns the message without the code prefix.
// For other errors, returns the error string as-is.
func UserMessage(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Message
	}
	return err.Error()
}

// IsInput reports whether err is an input error that must abort the
// operation before anything is rendered.
func IsInput(err error) bool {
	switch GetCode(err) {
	case ErrCodeInvalidInput, ErrCodeInvalidJSON, ErrCodeInvalidFormat,
		ErrCodeInvalidGraph, ErrCodeInvalidSubgraph, ErrCodeNoSubgraphs,
		ErrCodeInvalidRoomID:
		return true
	}
	return false
}

// UpstreamError is returned when the chemistry service answers with a
// non-2xx status. Detail holds the service-provided message, if any.
type UpstreamError struct {
	StatusCode int
	Detail     string
}

// Error implements the error interface.
func (e *UpstreamError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("upstream status %d: %s", e.StatusCode, e.Detail)
	}
	return fmt.Sprintf("upstream status %d", e.StatusCode)
}

// Code returns the error code for this error type.
func (e *UpstreamError) Code() Code {
	return ErrCodeUpstream
}
