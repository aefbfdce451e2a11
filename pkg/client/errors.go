package client

import (
	"errors"
	"fmt"
)

// Common errors returned by the client.
var (
	// ErrRateLimited is the cause of every rate-limit error. Its text is shown
	// to the user as is.
	ErrRateLimited = errors.New("Daily API limit exceeded - try again tomorrow")

	// ErrTooManyNames is returned when more than MaxNamesPerRequest names are
	// passed to one call.
	ErrTooManyNames = errors.New("too many names for one request")
)

// ErrorClass represents a classification of API failures.
type ErrorClass string

const (
	// ErrorClassRateLimit represents HTTP 429 responses and an exhausted quota.
	ErrorClassRateLimit ErrorClass = "rate_limit"

	// ErrorClassServer represents any other non-200 response.
	ErrorClassServer ErrorClass = "server"

	// ErrorClassTransport represents network failures and undecodable bodies.
	ErrorClassTransport ErrorClass = "transport"
)

// APIError is a classified failure of one API call. It applies to every
// name of the call, never to a single name.
type APIError struct {
	StatusCode int
	ErrorClass ErrorClass
	Message    string
	Err        error
}

// Error implements the error interface. The text is the message published to
// the user.
func (e *APIError) Error() string {
	switch e.ErrorClass {
	case ErrorClassRateLimit:
		return ErrRateLimited.Error()
	case ErrorClassServer:
		return fmt.Sprintf("Server returned error code %d (%s)", e.StatusCode, e.Message)
	default:
		if e.Err != nil {
			return fmt.Sprintf("API request failed: %v", e.Err)
		}
		return fmt.Sprintf("API request failed: %s", e.Message)
	}
}

// Unwrap implements error unwrapping for errors.Is/As. Rate-limit errors
// unwrap to ErrRateLimited.
func (e *APIError) Unwrap() error {
	if e.ErrorClass == ErrorClassRateLimit {
		return ErrRateLimited
	}
	return e.Err
}

// ClassOf returns the class of err, or "" if err is not an *APIError.
func ClassOf(err error) ErrorClass {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.ErrorClass
	}
	return ""
}

// IsRateLimited reports whether err is a rate-limit error.
func IsRateLimited(err error) bool {
	return errors.Is(err, ErrRateLimited)
}

func rateLimitError(statusCode int, message string) *APIError {
	return &APIError{
		StatusCode: statusCode,
		ErrorClass: ErrorClassRateLimit,
		Message:    message,
	}
}

func transportError(message string, err error) *APIError {
	return &APIError{
		ErrorClass: ErrorClassTransport,
		Message:    message,
		Err:        err,
	}
}
