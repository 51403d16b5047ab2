package advisor

import (
	"errors"
	"fmt"

	"github.com/castlemilk/pfinance/insights/internal/domain"
)

// ErrorCode classifies provider failures.
type ErrorCode string

const (
	ErrTimeout           ErrorCode = "TIMEOUT"
	ErrUnavailable       ErrorCode = "UNAVAILABLE"
	ErrRateLimited       ErrorCode = "RATE_LIMITED"
	ErrBadStatus         ErrorCode = "BAD_STATUS"
	ErrMalformedResponse ErrorCode = "MALFORMED_RESPONSE"
	ErrEmptyResponse     ErrorCode = "EMPTY_RESPONSE"
)

// ProviderError is a structured error for chat-completion failures. Every
// ProviderError matches domain.ErrProvider.
type ProviderError struct {
	Code       ErrorCode
	Message    string
	StatusCode int // HTTP status, zero when no response was received
	Retryable  bool
	Cause      error
}

func (e *ProviderError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

func (e *ProviderError) Unwrap() error {
	return e.Cause
}

func (e *ProviderError) Is(target error) bool {
	return target == domain.ErrProvider
}

// IsRetryable returns whether this error is retryable.
func (e *ProviderError) IsRetryable() bool {
	return e.Retryable
}

// CodeOf returns the ProviderError code in err's chain, or "" if none.
func CodeOf(err error) ErrorCode {
	var pe *ProviderError
	if errors.As(err, &pe) {
		return pe.Code
	}
	return ""
}
