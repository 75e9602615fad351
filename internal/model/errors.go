package model

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// Common errors used across the application
var (
	// Local errors, detected before any request is made
	ErrValidation       = errors.New("validation failed")
	ErrNotAuthenticated = errors.New("not authenticated")
	ErrRequestInFlight  = errors.New("request already in progress")

	// Provider-confirmed errors
	ErrEmailAlreadyExists = errors.New("email already registered")
	ErrInvalidCredentials = errors.New("invalid credentials")

	// Generic provider failures
	ErrRegistrationFailed  = errors.New("registration failed")
	ErrProfileFetchFailed  = errors.New("profile fetch failed")
	ErrProfileUpdateFailed = errors.New("profile update failed")

	// Catch-all for network and unexpected failures
	ErrTransportFailure = errors.New("transport failure")
)

// ValidationError carries field-attributed messages from local validation
type ValidationError struct {
	Fields map[string]string
}

// NewValidationError creates an empty ValidationError
func NewValidationError() *ValidationError {
	return &ValidationError{Fields: make(map[string]string)}
}

// Add records a message for a field, keeping the first one reported
func (e *ValidationError) Add(field, message string) {
	if _, ok := e.Fields[field]; !ok {
		e.Fields[field] = message
	}
}

// Empty reports whether no field failed
func (e *ValidationError) Empty() bool {
	return len(e.Fields) == 0
}

// Field returns the message for a field, or "" if it passed
func (e *ValidationError) Field(name string) string {
	return e.Fields[name]
}

func (e *ValidationError) Error() string {
	names := make([]string, 0, len(e.Fields))
	for name := range e.Fields {
		names = append(names, name)
	}
	sort.Strings(names)

	parts := make([]string, 0, len(names))
	for _, name := range names {
		parts = append(parts, name+": "+e.Fields[name])
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

func (e *ValidationError) Unwrap() error {
	return ErrValidation
}

// ProviderError is a failed remote call, classified into one of the sentinel kinds.
// Status and Message keep the raw provider values for logging.
type ProviderError struct {
	Op      string
	Status  int    // 0 when no response was received
	Code    string // provider error code, e.g. EMAIL_EXISTS
	Message string // raw provider message
	Kind    error
	Err     error // underlying transport error, if any
}

func (e *ProviderError) Error() string {
	switch {
	case e.Err != nil:
		return fmt.Sprintf("%s: %v: %v", e.Op, e.Kind, e.Err)
	case e.Message != "":
		return fmt.Sprintf("%s: %v (HTTP %d: %s)", e.Op, e.Kind, e.Status, e.Message)
	default:
		return fmt.Sprintf("%s: %v (HTTP %d)", e.Op, e.Kind, e.Status)
	}
}

// Unwrap exposes both the classified kind and the transport cause to errors.Is
func (e *ProviderError) Unwrap() []error {
	if e.Err != nil {
		return []error{e.Kind, e.Err}
	}
	return []error{e.Kind}
}
