// Package apperr defines the closed error taxonomy shared by every stage of
// the coaching pipeline, and the envelope those errors are normalized into
// at the transport boundary.
//
// Library-specific failures (HTTP client errors, engine cancellations) are
// adapted into one of these kinds where they are first observed.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies a failure for the client-visible envelope.
type Kind string

const (
	KindValidation Kind = "validation"
	KindUpstream   Kind = "upstream"
	KindSynthesis  Kind = "synthesis"
	KindInternal   Kind = "internal"
)

// ValidationError reports malformed or out-of-range caller input.
type ValidationError struct {
	Field   string
	Message string
}

// Validation builds a ValidationError for field.
func Validation(field, format string, args ...any) *ValidationError {
	return &ValidationError{Field: field, Message: fmt.Sprintf(format, args...)}
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return "invalid input: " + e.Message
	}
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Message)
}

// UpstreamError reports a failed call to the completion provider.
type UpstreamError struct {
	// StatusCode is the provider's HTTP status, zero when no response arrived.
	StatusCode int
	Request    *RequestSnapshot
	Response   *ResponseSnapshot
	Err        error
}

func (e *UpstreamError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("completion provider failed (status %d): %v", e.StatusCode, e.Err)
	}
	return fmt.Sprintf("completion provider failed: %v", e.Err)
}

func (e *UpstreamError) Unwrap() error { return e.Err }

// SynthesisError reports a speech engine that failed or canceled synthesis.
type SynthesisError struct {
	Reason  string
	Code    string
	Details string
	Err     error
}

func (e *SynthesisError) Error() string {
	msg := "speech synthesis " + e.Reason
	if e.Code != "" {
		msg += " (" + e.Code + ")"
	}
	if e.Details != "" {
		msg += ": " + e.Details
	} else if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *SynthesisError) Unwrap() error { return e.Err }

// StatusError carries an application-level status and detail that the
// boundary passes through untouched.
type StatusError struct {
	Status int
	Detail string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%d %s: %s", e.Status, http.StatusText(e.Status), e.Detail)
}

// KindOf reports the taxonomy kind of err.
func KindOf(err error) Kind {
	var (
		ve *ValidationError
		ue *UpstreamError
		se *SynthesisError
	)
	switch {
	case errors.As(err, &ve):
		return KindValidation
	case errors.As(err, &ue):
		return KindUpstream
	case errors.As(err, &se):
		return KindSynthesis
	default:
		return KindInternal
	}
}
