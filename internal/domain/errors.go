package domain

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// ValidationError carries field-level messages for a rejected payload.
type ValidationError struct {
	Fields map[string][]string
}

func NewValidationError(field, msg string) *ValidationError {
	return &ValidationError{Fields: map[string][]string{field: {msg}}}
}

// Add records msg under field and returns the receiver for chaining.
func (e *ValidationError) Add(field, msg string) *ValidationError {
	if e.Fields == nil {
		e.Fields = map[string][]string{}
	}
	e.Fields[field] = append(e.Fields[field], msg)
	return e
}

// OrNil returns nil when no field was recorded.
func (e *ValidationError) OrNil() error {
	if e == nil || len(e.Fields) == 0 {
		return nil
	}
	return e
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+strings.Join(e.Fields[k], "; "))
	}
	return "validation failed: " + strings.Join(parts, ", ")
}

// PermissionError is returned when the acting identity may not perform an
// operation. Unauthenticated distinguishes a missing/invalid credential from
// an authenticated caller lacking rights.
type PermissionError struct {
	Reason          string
	Unauthenticated bool
}

func (e *PermissionError) Error() string { return "permission denied: " + e.Reason }

type NotFoundError struct {
	Resource string
	ID       any
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %v not found", e.Resource, e.ID)
}

func NotFound(resource string, id any) *NotFoundError {
	return &NotFoundError{Resource: resource, ID: id}
}

// AuthError reports a failed login, kept apart from ValidationError so
// clients can tell a wrong password from a malformed request.
type AuthError struct {
	Code    string
	Message string
}

func (e *AuthError) Error() string { return e.Message }

var (
	ErrInvalidCredentials = &AuthError{Code: "invalid_credentials", Message: "Credenciales incorrectas"}
	ErrAccountInactive    = &AuthError{Code: "account_inactive", Message: "Esta cuenta está desactivada"}
)

// ErrTokenNotFound is returned by token stores for unknown or revoked keys.
var ErrTokenNotFound = errors.New("token not found")
