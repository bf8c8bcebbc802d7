package errors

import (
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strings"
)

// Error represents a typed API error with HTTP awareness. Fields carries the
// per-field messages of a 422 validation response when the backend sent one.
type Error struct {
	Code    string              `json:"code"`
	Message string              `json:"message"`
	Status  int                 `json:"status"`
	Fields  map[string][]string `json:"fields,omitempty"`
	Err     error               `json:"-"`
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap returns the wrapped error.
func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// New creates a new Error instance.
func New(code string, status int, message string) *Error {
	return &Error{Code: code, Status: status, Message: message}
}

// Wrap attaches context to an existing error.
func Wrap(err error, code string, status int, message string) *Error {
	return &Error{Code: code, Status: status, Message: message, Err: err}
}

// Predefined errors for common scenarios.
var (
	ErrTransport     = New("TRANSPORT_ERROR", 0, "something went wrong")
	ErrUnauthorized  = New("UNAUTHORIZED", http.StatusUnauthorized, "session expired")
	ErrNotFound      = New("NOT_FOUND", http.StatusNotFound, "resource not found")
	ErrMissingEntity = New("MISSING_ENTITY", http.StatusOK, "entity not found in response")
	ErrValidation    = New("VALIDATION_ERROR", http.StatusBadRequest, "validation failed")
	ErrUnprocessable = New("UNPROCESSABLE", http.StatusUnprocessableEntity, "validation failed")
	ErrConflict      = New("CONFLICT", http.StatusConflict, "conflict")
	ErrInternal      = New("INTERNAL_ERROR", http.StatusInternalServerError, "internal server error")
)

// FromError normalises any error into an *Error.
func FromError(err error) *Error {
	if err == nil {
		return nil
	}
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	return Wrap(err, ErrTransport.Code, ErrTransport.Status, ErrTransport.Message)
}

// Clone returns a copy of the error allowing for message overrides.
func Clone(err *Error, message string) *Error {
	if err == nil {
		return nil
	}
	clone := *err
	if message != "" {
		clone.Message = message
	}
	return &clone
}

// WithFields returns a copy carrying the per-field validation map and a
// flattened message so callers that only display a string still see every
// field problem.
func WithFields(err *Error, fields map[string][]string) *Error {
	clone := *err
	clone.Fields = fields
	if flat := FlattenFields(fields); flat != "" {
		clone.Message = flat
	}
	return &clone
}

// FlattenFields joins all field messages into one comma-separated string,
// ordered by field name for stable output.
func FlattenFields(fields map[string][]string) string {
	if len(fields) == 0 {
		return ""
	}
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var msgs []string
	for _, k := range keys {
		msgs = append(msgs, fields[k]...)
	}
	return strings.Join(msgs, ", ")
}
