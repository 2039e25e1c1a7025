package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// Common error types for the guard client
var (
	// Session errors
	ErrNoSession    = errors.New("no active session")
	ErrAccessDenied = errors.New("access denied")

	// Input errors
	ErrInvalidAccessCode = errors.New("access code must be 4 digits")
	ErrInvalidRequest    = errors.New("invalid request")

	// Storage errors
	ErrCorruptStorage = errors.New("corrupt storage")

	// Realtime errors
	ErrConnectionClosed = errors.New("connection closed")
	ErrHandshake        = errors.New("realtime handshake failed")

	// General errors
	ErrNotFound    = errors.New("not found")
	ErrInternal    = errors.New("internal error")
	ErrUnsupported = errors.New("unsupported operation")
)

// AccessDeniedMessage is shown when a non-guard account signs in
const AccessDeniedMessage = "Access Denied: Security account required for this app."

// APIError is a non-2xx answer from the backend. Message is the backend's own
// message and is meant to be displayed verbatim.
type APIError struct {
	StatusCode int
	Message    string
	cause      error
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return http.StatusText(e.StatusCode)
}

func (e *APIError) Unwrap() error {
	return e.cause
}

// NewAPIError builds an APIError; an empty message falls back to the status text
func NewAPIError(statusCode int, message string) *APIError {
	if message == "" {
		message = http.StatusText(statusCode)
	}
	e := &APIError{StatusCode: statusCode, Message: message}
	switch statusCode {
	case http.StatusNotFound:
		e.cause = ErrNotFound
	case http.StatusBadRequest, http.StatusUnprocessableEntity:
		e.cause = ErrInvalidRequest
	}
	return e
}

// AccessDenied is returned by login when the account's role may not use this client
func AccessDenied() *APIError {
	return &APIError{StatusCode: http.StatusForbidden, Message: AccessDeniedMessage, cause: ErrAccessDenied}
}

// Message returns the text to show the user for err
func Message(err error) string {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Message
	}
	if err == nil {
		return ""
	}
	return err.Error()
}

// Wrapf wraps an error with context using fmt.Errorf
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf(format+": %w", append(args, err)...)
}

// Is reports whether any error in err's chain matches target
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As finds the first error in err's chain that matches target
func As(err error, target interface{}) bool {
	return errors.As(err, target)
}
