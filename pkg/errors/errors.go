package errors

import (
	"errors"
	"fmt"
)

var (
	// ErrBotDetected indicates a filled honeypot field; callers stay silent
	ErrBotDetected = errors.New("bot detected")

	// ErrValidation indicates a field failed local validation
	ErrValidation = errors.New("validation failed")

	// ErrRateLimited indicates the submission cooldown or ceiling was hit
	ErrRateLimited = errors.New("rate limited")

	// ErrNetworkTimeout indicates the bounded wait on a submission expired
	ErrNetworkTimeout = errors.New("network timeout")

	// ErrNetworkFailure indicates a transport failure other than a timeout
	ErrNetworkFailure = errors.New("network failure")

	// ErrServerRejected indicates the backend answered with an error status
	ErrServerRejected = errors.New("server rejected submission")

	// ErrSubmissionInFlight indicates a submission is already outstanding
	ErrSubmissionInFlight = errors.New("submission already in flight")
)

// Wrap wraps an error with a message
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}

// Wrapf wraps an error with a formatted message
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), err)
}

// Is checks if an error matches a target error
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As finds the first error in err's chain that matches target
func As(err error, target interface{}) bool {
	return errors.As(err, target)
}

// New creates a new error with the given message
func New(message string) error {
	return errors.New(message)
}

// Newf creates a new error with a formatted message
func Newf(format string, args ...interface{}) error {
	return fmt.Errorf(format, args...)
}

// IsBotDetected checks if an error came from the honeypot gate
func IsBotDetected(err error) bool {
	return errors.Is(err, ErrBotDetected)
}

// IsRateLimited checks if an error came from a rate-limit gate
func IsRateLimited(err error) bool {
	return errors.Is(err, ErrRateLimited)
}

// IsTimeout checks if an error is a submission timeout
func IsTimeout(err error) bool {
	return errors.Is(err, ErrNetworkTimeout)
}

// IsValidation checks if an error is a local validation failure
func IsValidation(err error) bool {
	return errors.Is(err, ErrValidation)
}
