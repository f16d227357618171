// Package errors provides the coded error taxonomy shared by the host and worker sides
package errors

import (
	"errors"
	"fmt"
)

// ErrorCode classifies a failure of the tool-call subsystem
type ErrorCode int

const (
	// Generic
	Unknown ErrorCode = -1
	None    ErrorCode = 0

	// Transport failures (1-99)

	// Spawn: the worker executable could not be started
	Spawn ErrorCode = 1
	// ChannelClosed: the worker exited or the stream reached end-of-file
	ChannelClosed ErrorCode = 2
	// ChannelError: malformed framing on the byte stream
	ChannelError ErrorCode = 3
	// ShutdownTimeout: the worker did not exit within the grace period
	ShutdownTimeout ErrorCode = 4

	// Protocol failures (100-199)

	// Handshake: the initialize exchange failed
	Handshake ErrorCode = 100
	// Protocol: a response could not be decoded or had an unexpected shape
	Protocol ErrorCode = 101
	// Remote: the worker executed the call but reported an application failure
	Remote ErrorCode = 102

	// Call validation failures (200-299)

	// UnknownTool: the requested tool is not in the registry snapshot
	UnknownTool ErrorCode = 200
)

// Error is an error with a taxonomy code, an optional detail payload and an
// optional wrapped cause
type Error struct {
	Code    ErrorCode
	Message string
	Details interface{}
	cause   error
}

// Error implements the error interface
func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.cause)
	}
	return e.Message
}

// Unwrap implements the unwrapping interface
func (e *Error) Unwrap() error {
	return e.cause
}

// New creates a new coded error
func New(code ErrorCode, message string) *Error {
	return &Error{
		Code:    code,
		Message: message,
	}
}

// Newf creates a new coded error with a format string
func Newf(code ErrorCode, format string, args ...interface{}) *Error {
	return &Error{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
	}
}

// WithDetails attaches a detail payload to the error
func (e *Error) WithDetails(details interface{}) *Error {
	e.Details = details
	return e
}

// WithCause attaches a causal error
func (e *Error) WithCause(err error) *Error {
	e.cause = err
	return e
}

// IsCode reports whether err carries the given taxonomy code anywhere in its chain
func IsCode(err error, code ErrorCode) bool {
	var coded *Error
	if errors.As(err, &coded) {
		return coded.Code == code
	}
	return false
}

// CodeOf extracts the taxonomy code from an error. A nil error has code
// None; an uncoded error maps to Unknown.
func CodeOf(err error) ErrorCode {
	if err == nil {
		return None
	}
	var coded *Error
	if errors.As(err, &coded) {
		return coded.Code
	}
	return Unknown
}

// IsFatal reports whether the error makes the session unusable. Fatal errors
// must unwind to the lifecycle layer, which tears the worker down; everything
// else is reported to the caller as text and the hosting loop continues.
func IsFatal(err error) bool {
	switch CodeOf(err) {
	case Spawn, ChannelClosed, ChannelError, ShutdownTimeout, Handshake, Protocol:
		return true
	}
	return false
}
