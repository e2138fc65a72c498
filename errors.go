package snoopsim

import (
	"fmt"
	"strings"
)

// Error represents a structured simulation error with context
type Error struct {
	Op    string    // Operation that failed (e.g., "NEW_SIM", "OPEN_TRACE")
	Core  int       // Core number (-1 if not applicable)
	Code  ErrorCode // High-level error category
	Msg   string    // Human-readable message
	Inner error     // Wrapped error
}

// Error implements the error interface
func (e *Error) Error() string {
	var parts []string

	if e.Op != "" {
		parts = append(parts, fmt.Sprintf("op=%s", e.Op))
	}

	if e.Core >= 0 {
		parts = append(parts, fmt.Sprintf("core=%d", e.Core))
	}

	msg := e.Msg
	if msg == "" && e.Inner != nil {
		msg = e.Inner.Error()
	}
	if msg == "" {
		msg = string(e.Code)
	}

	if len(parts) > 0 {
		return fmt.Sprintf("snoopsim: %s (%s)", msg, strings.Join(parts, " "))
	}

	return fmt.Sprintf("snoopsim: %s", msg)
}

// Unwrap returns the wrapped error for errors.Is/As support
func (e *Error) Unwrap() error {
	return e.Inner
}

// Is provides errors.Is support by comparing error codes
func (e *Error) Is(target error) bool {
	if te, ok := target.(*Error); ok {
		return e.Code == te.Code
	}
	return false
}

// ErrorCode represents high-level error categories
type ErrorCode string

const (
	ErrCodeUnknownProtocol   ErrorCode = "unknown protocol"
	ErrCodeInvalidGeometry   ErrorCode = "invalid geometry"
	ErrCodeInvalidParameters ErrorCode = "invalid parameters"
	ErrCodeTraceOpen         ErrorCode = "trace open failed"
	ErrCodeTraceFormat       ErrorCode = "trace format"
	ErrCodeAlreadyRun        ErrorCode = "simulation already run"
)

// Error constructors

// NewError creates a new structured error
func NewError(op string, code ErrorCode, msg string) *Error {
	return &Error{
		Op:   op,
		Core: -1,
		Code: code,
		Msg:  msg,
	}
}

// WrapError creates a structured error wrapping an underlying cause
func WrapError(op string, code ErrorCode, inner error) *Error {
	return &Error{
		Op:    op,
		Core:  -1,
		Code:  code,
		Inner: inner,
	}
}

// NewCoreError creates a structured error attributed to one core
func NewCoreError(op string, core int, code ErrorCode, inner error) *Error {
	return &Error{
		Op:    op,
		Core:  core,
		Code:  code,
		Inner: inner,
	}
}
