// Package errs defines the closed error taxonomy surfaced by the Viber client.
package errs

import (
	"errors"
	"fmt"
)

// Error codes reported by Code.
const (
	CodeUnknown    = "UNKNOWN"
	CodeValidation = "VALIDATION"
	CodeClient     = "CLIENT"
	CodeTimeout    = "TIMEOUT"
	CodeRequest    = "REQUEST"
)

// ViberError is implemented by every error in the taxonomy.
type ViberError interface {
	error
	Code() string
	Unwrap() error
}

type baseError struct {
	code    string
	message string
	err     error
}

func (e *baseError) Error() string {
	if e.err != nil {
		return fmt.Sprintf("%s: %v", e.message, e.err)
	}
	return e.message
}

// Code returns the taxonomy code of err, or CodeUnknown when err is not a ViberError.
func Code(err error) string {
	var viberErr ViberError
	if errors.As(err, &viberErr) {
		return viberErr.Code()
	}
	return CodeUnknown
}

// ValidationError reports structurally invalid caller input.
type ValidationError struct {
	base baseError
}

func (e *ValidationError) Error() string { return e.base.Error() }
func (e *ValidationError) Code() string  { return e.base.code }
func (e *ValidationError) Unwrap() error { return e.base.err }

// NewValidationError builds a ValidationError with the given message.
func NewValidationError(message string) error {
	return &ValidationError{base: baseError{code: CodeValidation, message: message}}
}

// Validationf is NewValidationError with formatting.
func Validationf(format string, args ...any) error {
	return NewValidationError(fmt.Sprintf(format, args...))
}

// ClientError reports a transport-level failure or a non-2xx HTTP status.
type ClientError struct {
	Endpoint string
	base     baseError
}

func (e *ClientError) Error() string { return e.base.Error() }
func (e *ClientError) Code() string  { return e.base.code }
func (e *ClientError) Unwrap() error { return e.base.err }

// NewClientError wraps cause for the given endpoint.
func NewClientError(endpoint string, cause error) error {
	return &ClientError{
		Endpoint: endpoint,
		base: baseError{
			code:    CodeClient,
			message: fmt.Sprintf("failed to post request to endpoint %s", endpoint),
			err:     cause,
		},
	}
}

// TimeoutError reports a request that exceeded its deadline.
type TimeoutError struct {
	Endpoint string
	base     baseError
}

func (e *TimeoutError) Error() string { return e.base.Error() }
func (e *TimeoutError) Code() string  { return e.base.code }
func (e *TimeoutError) Unwrap() error { return e.base.err }

// NewTimeoutError wraps cause for the given endpoint.
func NewTimeoutError(endpoint string, cause error) error {
	return &TimeoutError{
		Endpoint: endpoint,
		base: baseError{
			code:    CodeTimeout,
			message: fmt.Sprintf("request to endpoint %s timed out", endpoint),
			err:     cause,
		},
	}
}

// RequestError reports a non-zero application status returned by the platform.
type RequestError struct {
	Status        int64
	StatusMessage string
	base          baseError
}

func (e *RequestError) Error() string { return e.base.Error() }
func (e *RequestError) Code() string  { return e.base.code }
func (e *RequestError) Unwrap() error { return e.base.err }

// NewRequestError builds a RequestError for the platform status pair.
func NewRequestError(status int64, statusMessage string) error {
	return &RequestError{
		Status:        status,
		StatusMessage: statusMessage,
		base: baseError{
			code:    CodeRequest,
			message: fmt.Sprintf("failed with status: %d, message: %s", status, statusMessage),
		},
	}
}
