// Package domainerr carries typed failure categories from the engine to the
// transport layer.
package domainerr

import (
	"errors"
	"fmt"
	"strings"
)

// Code is a failure category
type Code string

const (
	CodeValidation   Code = "VALIDATION"
	CodeForbidden    Code = "FORBIDDEN"
	CodeConflict     Code = "CONFLICT"
	CodeNotFound     Code = "NOT_FOUND"
	CodeUnauthorized Code = "UNAUTHORIZED"
	CodeInternal     Code = "INTERNAL"
)

// FieldError names one input field that failed validation
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// Error is a categorized domain error
type Error struct {
	Code    Code
	Message string
	Fields  []FieldError
	Err     error
}

func (e *Error) Error() string {
	var b strings.Builder
	b.WriteString(string(e.Code))
	if e.Message != "" {
		b.WriteString(": ")
		b.WriteString(e.Message)
	}
	for i, f := range e.Fields {
		if i == 0 {
			b.WriteString(" (")
		} else {
			b.WriteString("; ")
		}
		b.WriteString(f.Field)
		b.WriteString(": ")
		b.WriteString(f.Message)
		if i == len(e.Fields)-1 {
			b.WriteString(")")
		}
	}
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

func (e *Error) Unwrap() error {
	return e.Err
}

// New creates an error with the given code
func New(code Code, message string) *Error {
	return &Error{Code: code, Message: message}
}

// Newf creates an error with a formatted message
func Newf(code Code, format string, args ...interface{}) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// Wrap attaches a code and message to an underlying error
func Wrap(err error, code Code, message string) *Error {
	return &Error{Code: code, Message: message, Err: err}
}

// Validation creates a VALIDATION error listing every failing field
func Validation(fields ...FieldError) *Error {
	return &Error{
		Code:    CodeValidation,
		Message: "invalid input",
		Fields:  append([]FieldError(nil), fields...),
	}
}

// CodeOf returns the code of the first domain error in the chain.
// Errors that carry no code are INTERNAL; nil has no code.
func CodeOf(err error) Code {
	if err == nil {
		return ""
	}
	var de *Error
	if errors.As(err, &de) {
		return de.Code
	}
	return CodeInternal
}

// Is reports whether err carries the given code
func Is(err error, code Code) bool {
	return err != nil && CodeOf(err) == code
}

// FieldErrors accumulates validation failures so callers can report all of them at once
type FieldErrors []FieldError

// Add records a failing field
func (f *FieldErrors) Add(field, message string) {
	*f = append(*f, FieldError{Field: field, Message: message})
}

// Addf records a failing field with a formatted message
func (f *FieldErrors) Addf(field, format string, args ...interface{}) {
	f.Add(field, fmt.Sprintf(format, args...))
}

// Err returns a VALIDATION error, or nil when nothing failed
func (f FieldErrors) Err() error {
	if len(f) == 0 {
		return nil
	}
	return Validation(f...)
}
