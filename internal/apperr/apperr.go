// Package apperr defines the error taxonomy every handler outcome is mapped to.
package apperr

import (
	"errors"
	"net/http"
	"sort"

	"github.com/wuwenbin0122/tasklist/internal/i18n"
)

// Kind classifies an application error.
type Kind int

const (
	KindValidation Kind = iota + 1
	KindUnauthorized
	KindForbidden
	KindNotFound
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindUnauthorized:
		return "unauthorized"
	case KindForbidden:
		return "forbidden"
	case KindNotFound:
		return "not_found"
	default:
		return "unknown"
	}
}

// Status returns the HTTP status for the kind.
func (k Kind) Status() int {
	switch k {
	case KindValidation:
		return http.StatusBadRequest
	case KindUnauthorized:
		return http.StatusUnauthorized
	case KindForbidden:
		return http.StatusForbidden
	case KindNotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// Error is an application error carrying a localizable message and, for
// validation failures, per-field messages.
type Error struct {
	Kind    Kind
	Message i18n.Message
	Fields  map[string][]i18n.Message
	Cause   error
}

// Sentinels for errors.Is checks by kind.
var (
	ErrValidation   = &Error{Kind: KindValidation}
	ErrUnauthorized = &Error{Kind: KindUnauthorized}
	ErrForbidden    = &Error{Kind: KindForbidden}
	ErrNotFound     = &Error{Kind: KindNotFound}
)

func (e *Error) Error() string {
	msg := "apperr: " + e.Kind.String()
	if e.Message.Key != "" {
		msg += ": " + string(e.Message.Key)
	}
	for _, field := range e.FieldNames() {
		msg += " [" + field + "]"
	}
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// Is matches a bare sentinel of the same kind.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind && t.Message.Key == "" && len(t.Fields) == 0
}

// FieldNames returns the names of fields with errors in sorted order.
func (e *Error) FieldNames() []string {
	names := make([]string, 0, len(e.Fields))
	for name := range e.Fields {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// HasField reports whether field carries at least one message.
func (e *Error) HasField(field string) bool {
	return len(e.Fields[field]) > 0
}

// Add appends a field message and returns e for chaining.
func (e *Error) Add(field string, key i18n.Key, args ...any) *Error {
	if e.Fields == nil {
		e.Fields = make(map[string][]i18n.Message)
	}
	e.Fields[field] = append(e.Fields[field], i18n.Msg(key, args...))
	return e
}

// Merge copies the field messages of other into e.
func (e *Error) Merge(other *Error) *Error {
	if other == nil {
		return e
	}
	for _, field := range other.FieldNames() {
		for _, m := range other.Fields[field] {
			e.Add(field, m.Key, m.Args...)
		}
	}
	return e
}

// Empty reports whether a validation error has collected no field messages.
func (e *Error) Empty() bool {
	return len(e.Fields) == 0
}

// OrNil returns nil when e has no field messages, so a collector can be
// returned directly.
func (e *Error) OrNil() error {
	if e == nil || e.Empty() {
		return nil
	}
	return e
}

// NewValidation starts an empty validation error.
func NewValidation() *Error {
	return &Error{Kind: KindValidation, Message: i18n.Msg(i18n.ErrValidationFailed)}
}

// Field builds a validation error for a single field.
func Field(field string, key i18n.Key, args ...any) *Error {
	return NewValidation().Add(field, key, args...)
}

// NonField builds a validation error that is not bound to a field.
func NonField(key i18n.Key, args ...any) *Error {
	return NewValidation().Add(i18n.NonFieldErrors, key, args...)
}

// Unauthorized builds a 401 error.
func Unauthorized(key i18n.Key) *Error {
	return &Error{Kind: KindUnauthorized, Message: i18n.Msg(key)}
}

// Forbidden builds a 403 error.
func Forbidden(key i18n.Key) *Error {
	return &Error{Kind: KindForbidden, Message: i18n.Msg(key)}
}

// NotFound builds a 404 error.
func NotFound(key i18n.Key) *Error {
	return &Error{Kind: KindNotFound, Message: i18n.Msg(key)}
}

// As extracts an *Error from err.
func As(err error) (*Error, bool) {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}
