package client

import (
	"errors"
	"fmt"
	"math"
	"time"

	pkgerrors "github.com/nova-nexus-hub/nexora-forms-backend/pkg/errors"
)

// ValidationError is a field-level failure with a displayable message. It is
// produced locally and never sent over the wire.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

func (e *ValidationError) Is(target error) bool { return target == pkgerrors.ErrValidation }

// RateLimitedError reports how long until the next attempt is allowed.
type RateLimitedError struct {
	RetryAfter time.Duration
}

// Seconds returns the remaining wait rounded up; always positive.
func (e *RateLimitedError) Seconds() int {
	return int(math.Ceil(e.RetryAfter.Seconds()))
}

func (e *RateLimitedError) Error() string {
	return fmt.Sprintf("please wait %d seconds before submitting again", e.Seconds())
}

func (e *RateLimitedError) Is(target error) bool { return target == pkgerrors.ErrRateLimited }

// ServerRejectedError carries the server-supplied message, re-sanitized
// before it was stored here: server-echoed strings are attacker-observable
// if the backend is ever compromised.
type ServerRejectedError struct {
	Message string
}

func (e *ServerRejectedError) Error() string { return fmt.Sprintf("server rejected: %s", e.Message) }

func (e *ServerRejectedError) Is(target error) bool { return target == pkgerrors.ErrServerRejected }

// DisplayMessage maps a submission error to the text shown to the user.
// A bot detection maps to "" so the UI stays silent, and transport errors
// never surface internal detail.
func DisplayMessage(err error) string {
	var vErr *ValidationError
	var rlErr *RateLimitedError
	var srErr *ServerRejectedError

	switch {
	case err == nil:
		return ""
	case errors.Is(err, pkgerrors.ErrBotDetected):
		return ""
	case errors.As(err, &vErr):
		return vErr.Message
	case errors.As(err, &rlErr):
		return fmt.Sprintf("Please wait %d seconds before submitting again.", rlErr.Seconds())
	case errors.Is(err, pkgerrors.ErrNetworkTimeout):
		return "Request timeout. Please try again."
	case errors.As(err, &srErr):
		if srErr.Message != "" {
			return srErr.Message
		}
		return "Failed to send message. Please try again."
	default:
		return "Failed to send message. Please check your internet connection and try again."
	}
}
