package errors

import (
	"errors"
	"fmt"
)

// Is re-exports the standard library's errors.Is for convenience at call sites
// that only import this package.
var Is = errors.Is

// As re-exports the standard library's errors.As.
var As = errors.As

// MditError is the structured error type returned across every facade
// boundary in mditgo.
type MditError struct {
	Code     string
	Category Category
	Severity Severity
	Message  string
	Details  map[string]string
	Cause    error
}

// New builds a MditError with the category derived from its code.
func New(code, message string) *MditError {
	return &MditError{
		Code:     code,
		Category: categoryForCode(code),
		Severity: SeverityError,
		Message:  message,
		Details:  map[string]string{},
	}
}

// Wrap builds a MditError carrying cause as its Unwrap target.
func Wrap(code string, cause error, message string) *MditError {
	e := New(code, message)
	e.Cause = cause
	return e
}

// WithDetail attaches a structured detail key/value and returns the receiver,
// so construction can be chained.
func (e *MditError) WithDetail(key, value string) *MditError {
	if e.Details == nil {
		e.Details = map[string]string{}
	}
	e.Details[key] = value
	return e
}

// Error implements the error interface.
func (e *MditError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap exposes the wrapped cause to errors.Is/errors.As.
func (e *MditError) Unwrap() error {
	return e.Cause
}

// Retryable reports whether retrying the same request might succeed.
func (e *MditError) Retryable() bool {
	return e.Category == CategoryTransient
}

// CodeOf extracts the stable facade code from err, if it is (or wraps) a
// *MditError, otherwise returns CodeInternalError.
func CodeOf(err error) string {
	var me *MditError
	if As(err, &me) {
		return me.Code
	}
	return CodeInternalError
}
