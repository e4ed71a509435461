package http

import (
	"fmt"
	"math"
	"net/http"
	"time"
)

// AppError is an error with the HTTP status and code it is served with.
type AppError struct {
	Code    string                 `json:"code"`
	Message string                 `json:"message"`
	Field   string                 `json:"field,omitempty"`
	Params  map[string]interface{} `json:"params,omitempty"`
	Status  int                    `json:"-"`
	Err     error                  `json:"-"`

	retryAfter time.Duration
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *AppError) Unwrap() error { return e.Err }

// NewAppError creates an application error.
func NewAppError(code, field, message string, status int) *AppError {
	return &AppError{Code: code, Field: field, Message: message, Status: status}
}

// WithParam sets a single error param.
func (e *AppError) WithParam(key string, value interface{}) *AppError {
	if e.Params == nil {
		e.Params = make(map[string]interface{})
	}
	e.Params[key] = value
	return e
}

// WithError wraps an underlying error. It is logged, never served.
func (e *AppError) WithError(err error) *AppError {
	e.Err = err
	return e
}

// RetryAfter is the wait advertised to the client, zero when none applies.
func (e *AppError) RetryAfter() time.Duration { return e.retryAfter }

func BadRequestErrorf(format string, a ...interface{}) *AppError {
	return NewAppError("ERR_BAD_REQUEST", "", fmt.Sprintf(format, a...), http.StatusBadRequest)
}

func InternalError(message string) *AppError {
	return NewAppError("ERR_INTERNAL", "", message, http.StatusInternalServerError)
}

// RateLimitedError is a 429 telling the client to come back after wait,
// rounded up to whole seconds.
func RateLimitedError(message string, wait time.Duration) *AppError {
	secs := int(math.Ceil(wait.Seconds()))
	if secs < 1 {
		secs = 1
	}
	e := NewAppError("ERR_RATE_LIMITED", "", message, http.StatusTooManyRequests).
		WithParam("retry_after_seconds", secs)
	e.retryAfter = time.Duration(secs) * time.Second
	return e
}
