// Package errors provides coded errors for pipspec.
//
// Every failure that reaches a user, whether through the CLI or the HTTP
// API, carries a [Code] so callers can branch on it and a short message
// that can be shown as is. Errors about a manifest may also name the place
// they refer to, such as "packages.numpy" or "source[0].url".
//
// # Codes
//
//   - INVALID_*: rejected input (manifests, constraints, versions, settings)
//   - *NOT_FOUND: missing files or projects
//   - NETWORK_ERROR, TIMEOUT, RATE_LIMITED: index access
//   - INTERNAL_ERROR, UNSUPPORTED: everything else
//
// # Usage
//
//	err := errors.New(errors.ErrCodeInvalidConstraint, "bare version %q; write \"==%s\"", v, v).
//		At("packages.numpy")
//	errors.UserMessage(err) // packages.numpy: bare version "1.16"; write "==1.16"
//
//	if errors.Is(err, errors.ErrCodeInvalidConstraint) {
//		// reject the manifest
//	}
package errors

import (
	"errors"
	"fmt"
)

// Code is a machine-readable error class.
type Code string

const (
	// Rejected input
	ErrCodeInvalidInput      Code = "INVALID_INPUT"
	ErrCodeInvalidPackage    Code = "INVALID_PACKAGE"
	ErrCodeInvalidFormat     Code = "INVALID_FORMAT"
	ErrCodeInvalidManifest   Code = "INVALID_MANIFEST"
	ErrCodeInvalidConstraint Code = "INVALID_CONSTRAINT"
	ErrCodeInvalidVersion    Code = "INVALID_VERSION"
	ErrCodeInvalidPath       Code = "INVALID_PATH"
	ErrCodeInvalidConfig     Code = "INVALID_CONFIG"

	// Missing resources
	ErrCodeNotFound        Code = "NOT_FOUND"
	ErrCodePackageNotFound Code = "PACKAGE_NOT_FOUND"
	ErrCodeFileNotFound    Code = "FILE_NOT_FOUND"

	// Index access
	ErrCodeNetwork     Code = "NETWORK_ERROR"
	ErrCodeTimeout     Code = "TIMEOUT"
	ErrCodeRateLimited Code = "RATE_LIMITED"

	ErrCodeInternal    Code = "INTERNAL_ERROR"
	ErrCodeUnsupported Code = "UNSUPPORTED"
)

// Error is a coded error, optionally tied to a location in a manifest.
type Error struct {
	Code    Code
	Path    string // dotted manifest location, empty when not applicable
	Message string
	Cause   error
}

// Error renders "CODE: path: message: cause", leaving out empty parts.
func (e *Error) Error() string {
	s := string(e.Code) + ": " + e.text()
	if e.Cause != nil {
		s += ": " + e.Cause.Error()
	}
	return s
}

func (e *Error) text() string {
	if e.Path == "" {
		return e.Message
	}
	return e.Path + ": " + e.Message
}

func (e *Error) Unwrap() error { return e.Cause }

// At sets the manifest location the error refers to and returns e.
func (e *Error) At(path string) *Error {
	e.Path = path
	return e
}

// New returns an error with a formatted message.
func New(code Code, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// Wrap returns an error with a formatted message around cause.
func Wrap(code Code, cause error, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...), Cause: cause}
}

// Is reports whether the outermost *Error in err's chain has code.
func Is(err error, code Code) bool {
	var e *Error
	return errors.As(err, &e) && e.Code == code
}

// GetCode returns the code of the outermost *Error in err's chain, or "".
func GetCode(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

// UserMessage returns the text to show a user: the location and message
// without the code or the cause. Other errors are returned as is.
func UserMessage(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.text()
	}
	return err.Error()
}

// RateLimitedError is returned when an index answers 429.
type RateLimitedError struct {
	RetryAfter int // seconds from the Retry-After header, 0 if absent
}

func (e *RateLimitedError) Error() string {
	if e.RetryAfter > 0 {
		return fmt.Sprintf("rate limited: retry after %d seconds", e.RetryAfter)
	}
	return "rate limited"
}
