package checkin

import (
	"errors"
	"fmt"
)

// Code identifies a failure class reported back to check-in and report callers.
type Code string

// Failure codes.
const (
	CodeValidation          Code = "VALIDATION_ERROR"
	CodeNotFound            Code = "NOT_FOUND"
	CodeTokenExpired        Code = "TOKEN_EXPIRED"
	CodeTokenMalformed      Code = "TOKEN_MALFORMED"
	CodeTokenUnknownService Code = "TOKEN_UNKNOWN_SERVICE"
	CodeDuplicateCheckIn    Code = "DUPLICATE_CHECKIN"
	CodeStorageFailure      Code = "STORAGE_FAILURE"
	CodeConflict            Code = "CONFLICT" // admin writes that clash with existing data
)

// Error is a coded failure that is safe to show to the caller.
type Error struct {
	Code    Code
	Message string
	Err     error // optional underlying cause, never shown to callers
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error {
	return e.Err
}

// NewError builds a coded error.
func NewError(code Code, message string) *Error {
	return &Error{Code: code, Message: message}
}

// Wrap builds a coded error carrying an underlying cause.
func Wrap(code Code, message string, err error) *Error {
	return &Error{Code: code, Message: message, Err: err}
}

// CodeOf extracts the Code from err, or "" if err is not a coded error.
func CodeOf(err error) Code {
	var ce *Error
	if errors.As(err, &ce) {
		return ce.Code
	}
	return ""
}

// IsCode reports whether err carries the given code.
func IsCode(err error, code Code) bool {
	return CodeOf(err) == code
}
