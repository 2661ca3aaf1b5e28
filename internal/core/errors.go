package core

import "fmt"

// Error represents a structured error with code and optional cause.
type Error struct {
	Code    string
	Message string
	Cause   error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause for errors.Is/As support.
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is implements errors.Is matching by code.
func (e *Error) Is(target error) bool {
	if t, ok := target.(*Error); ok {
		return e.Code == t.Code
	}
	return false
}

// WrapError creates a new error with the same code but with a cause.
func WrapError(base *Error, cause error) *Error {
	return &Error{
		Code:    base.Code,
		Message: base.Message,
		Cause:   cause,
	}
}

// Predefined errors
var (
	// Provider errors. Each maps to a distinct fallback action in the
	// fetch loop: rate limits skip straight to the next provider,
	// transport and malformed responses are retried with backoff, and
	// invalid-symbol/empty results fall through without retry.
	ErrRateLimited       = &Error{Code: "RATE_LIMITED", Message: "provider rate limit reached"}
	ErrInvalidSymbol     = &Error{Code: "INVALID_SYMBOL", Message: "symbol not recognized by provider"}
	ErrEmptyResult       = &Error{Code: "EMPTY_RESULT", Message: "provider returned no usable rows"}
	ErrTransport         = &Error{Code: "TRANSPORT_ERROR", Message: "provider request failed"}
	ErrMalformedResponse = &Error{Code: "MALFORMED_RESPONSE", Message: "provider response could not be parsed"}

	// Usage errors
	ErrInvalidPeriod = &Error{Code: "INVALID_PERIOD", Message: "unknown lookback period"}
	ErrEmptySymbol   = &Error{Code: "EMPTY_SYMBOL", Message: "symbol is empty"}

	// Data errors
	ErrNoData = &Error{Code: "NO_DATA", Message: "no data available for symbol and period"}

	// Configuration errors
	ErrNotConfigured = &Error{Code: "NOT_CONFIGURED", Message: "no usable data provider configured"}
	ErrConfigInvalid = &Error{Code: "CONFIG_INVALID", Message: "configuration invalid"}
)
