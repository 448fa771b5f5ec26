// Package apperr holds the domain error taxonomy shared by services and handlers.
package apperr

import (
	"errors"
	"fmt"

	"github.com/fatflowers/masterclass/pkg/response"
)

var (
	// ErrUnauthorized means no caller identity could be resolved.
	ErrUnauthorized = errors.New("unauthorized")

	ErrUserNotFound   = errors.New("user not found")
	ErrCourseNotFound = errors.New("course not found")
	// ErrTargetNotFound covers a missing checkout target or its price configuration.
	ErrTargetNotFound = errors.New("checkout target not found")

	// ErrAlreadyOwned rejects a course checkout for a course the user already bought.
	ErrAlreadyOwned = errors.New("course already purchased")

	// ErrSignatureInvalid rejects a webhook whose signature does not verify.
	ErrSignatureInvalid = errors.New("webhook signature invalid")
	// ErrMissingHeaders rejects a webhook missing its signing headers.
	ErrMissingHeaders = errors.New("webhook signing headers missing")
	// ErrIntegrity marks an event that lacks the metadata needed to apply it.
	ErrIntegrity = errors.New("event integrity error")

	// ErrUpstream wraps failures of the payment gateway or identity provider.
	ErrUpstream = errors.New("upstream service error")
)

// RateLimitedError reports an exhausted quota and how long until it resets.
type RateLimitedError struct {
	ResetSeconds int64
}

func (e *RateLimitedError) Error() string {
	return fmt.Sprintf("rate limit exceeded, try again in %d seconds", e.ResetSeconds)
}

// AsRateLimited unwraps a *RateLimitedError from err.
func AsRateLimited(err error) (*RateLimitedError, bool) {
	var rl *RateLimitedError
	if errors.As(err, &rl) {
		return rl, true
	}
	return nil, false
}

// Integrity wraps ErrIntegrity with detail.
func Integrity(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrIntegrity, fmt.Sprintf(format, args...))
}

// Code maps an error onto the API envelope code.
func Code(err error) response.APIResponseCode {
	var rl *RateLimitedError
	switch {
	case err == nil:
		return response.APIResponseCodeOK
	case errors.As(err, &rl):
		return response.APIResponseCodeRateLimited
	case errors.Is(err, ErrUnauthorized):
		return response.APIResponseCodeUnauthorized
	case errors.Is(err, ErrUserNotFound), errors.Is(err, ErrCourseNotFound), errors.Is(err, ErrTargetNotFound):
		return response.APIResponseCodeNotFound
	case errors.Is(err, ErrAlreadyOwned):
		return response.APIResponseCodeConflict
	case errors.Is(err, ErrSignatureInvalid), errors.Is(err, ErrMissingHeaders), errors.Is(err, ErrIntegrity):
		return response.APIResponseCodeBadRequest
	case errors.Is(err, ErrUpstream):
		return response.APIResponseCodeUpstream
	default:
		return response.APIResponseCodeError
	}
}
