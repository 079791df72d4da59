package models

import (
	"fmt"
	"net/http"
)

// ErrorCode represents a custom error code for the application
type ErrorCode string

const (
	ErrCodeInternal   ErrorCode = "INTERNAL_ERROR"
	ErrCodeBadRequest ErrorCode = "BAD_REQUEST"
	ErrCodeValidation ErrorCode = "VALIDATION_ERROR"

	ErrCodeBotDetected       ErrorCode = "BOT_DETECTED"
	ErrCodeStaleTimestamp    ErrorCode = "STALE_TIMESTAMP"
	ErrCodeRateLimitExceeded ErrorCode = "RATE_LIMIT_EXCEEDED"
	ErrCodeUnknownFormType   ErrorCode = "UNKNOWN_FORM_TYPE"

	ErrCodeDatabaseQuery ErrorCode = "DATABASE_QUERY_ERROR"
	ErrCodeNotifyFailed  ErrorCode = "NOTIFY_FAILED"
)

// AppError represents a structured application error. It is logged with its
// internal detail; only Message is ever eligible for a response body.
type AppError struct {
	Code       ErrorCode `json:"code"`
	Message    string    `json:"message"`
	Details    string    `json:"details,omitempty"`
	StatusCode int       `json:"-"`
	Internal   error     `json:"-"`
}

// Error implements the error interface
func (e *AppError) Error() string {
	if e.Internal != nil {
		return fmt.Sprintf("%s: %s (internal: %v)", e.Code, e.Message, e.Internal)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the internal error for error chain support
func (e *AppError) Unwrap() error {
	return e.Internal
}

// WithDetails adds details to the error
func (e *AppError) WithDetails(details string) *AppError {
	e.Details = details
	return e
}

func NewInternalError(message string, err error) *AppError {
	return &AppError{
		Code:       ErrCodeInternal,
		Message:    message,
		StatusCode: http.StatusInternalServerError,
		Internal:   err,
	}
}

func NewValidationError(message string, details string) *AppError {
	return &AppError{
		Code:       ErrCodeValidation,
		Message:    message,
		Details:    details,
		StatusCode: http.StatusBadRequest,
	}
}

func NewDatabaseError(message string, err error) *AppError {
	return &AppError{
		Code:       ErrCodeDatabaseQuery,
		Message:    message,
		StatusCode: http.StatusInternalServerError,
		Internal:   err,
	}
}

func NewRateLimitError(message string) *AppError {
	return &AppError{
		Code:       ErrCodeRateLimitExceeded,
		Message:    message,
		StatusCode: http.StatusTooManyRequests,
	}
}
