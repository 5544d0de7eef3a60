// Package apperr holds the error taxonomy shared by the back office core.
//
// Validation errors are raised locally before any network call, upstream
// errors carry whatever the land service said, and parse errors describe
// values that were replaced by a fallback.
package apperr

import (
	"errors"
	"fmt"
)

// ValidationError reports input rejected before it reached the land service.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Invalid builds a ValidationError for a single field.
func Invalid(field, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message}
}

// UpstreamError is a non-success response or transport failure from the land service.
type UpstreamError struct {
	Operation  string
	StatusCode int // 0 when the request never got a response
	Message    string
	Err        error
}

func (e *UpstreamError) Error() string {
	if e.Operation == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Operation, e.Message)
}

func (e *UpstreamError) Unwrap() error { return e.Err }

// GenericMessage is used when the land service returned no message of its own.
func GenericMessage(status int) string {
	if status == 0 {
		return "request failed"
	}
	return fmt.Sprintf("request failed with status %d", status)
}

// ParseError describes a malformed upstream value that was replaced by a fallback.
type ParseError struct {
	Field string
	Raw   string
	Err   error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse %s %q: %v", e.Field, e.Raw, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

func IsValidation(err error) bool {
	var v *ValidationError
	return errors.As(err, &v)
}

func IsUpstream(err error) bool {
	var u *UpstreamError
	return errors.As(err, &u)
}

// UpstreamMessage returns the message to show for err, preferring the land
// service's own wording.
func UpstreamMessage(err error) string {
	var u *UpstreamError
	if errors.As(err, &u) {
		return u.Message
	}
	return err.Error()
}
