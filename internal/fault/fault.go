package fault

import (
	"errors"
	"fmt"
	"strings"
)

// ErrNotFound signals that a lookup matched no rows. Handlers map it to 404.
var ErrNotFound = errors.New("not found")

// ValidationError marks malformed client input. Handlers map it to 400 and
// the worker never retries it.
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string { return e.Msg }

// Validation builds a ValidationError from a format string.
func Validation(format string, args ...interface{}) error {
	return &ValidationError{Msg: fmt.Sprintf(format, args...)}
}

// IsValidation reports whether err is (or wraps) a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// ProviderError is a failed LLM provider call. Timeout reports SDK/client
// level timeouts that carry no HTTP status.
type ProviderError struct {
	Provider   string
	StatusCode int
	Body       string
	Timeout    bool
}

func (e *ProviderError) Error() string {
	if e.Timeout {
		return fmt.Sprintf("%s: request timeout", e.Provider)
	}
	return fmt.Sprintf("%s: API error (status %d): %s", e.Provider, e.StatusCode, e.Body)
}

// Retryable classifies an error as transient. Typed provider errors are
// checked first; everything else falls back to the substring surface the
// worker has always used: "rate limit", "timeout", or "429".
func Retryable(err error) bool {
	if err == nil {
		return false
	}
	var pe *ProviderError
	if errors.As(err, &pe) {
		if pe.Timeout || pe.StatusCode == 429 {
			return true
		}
	}
	s := strings.ToLower(err.Error())
	return strings.Contains(s, "rate limit") ||
		strings.Contains(s, "timeout") ||
		strings.Contains(s, "429")
}
