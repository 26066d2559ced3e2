package helpers

import (
	"errors"
	"fmt"
)

// -----------------------------------------------------------------------------
// Sentinel errors
// -----------------------------------------------------------------------------

var (
	// ErrInstrumentKeyMissing is returned when an observation carries no instrument uid.
	ErrInstrumentKeyMissing = errors.New("instrument key missing")
	// ErrInstrumentNotFound is returned when no candle bucket was registered for the uid.
	ErrInstrumentNotFound = errors.New("instrument not found")

	ErrInterceptorNotSet = errors.New("interceptor not set")
	ErrChannelNotSet     = errors.New("channel not set")
	ErrStreamClosed      = errors.New("market data stream closed")
	ErrTokenNotSet       = errors.New("api token not set")
)

// -----------------------------------------------------------------------------
// Custom Error Types
// -----------------------------------------------------------------------------

type InvestClientError struct {
	Message string
	Cause   error
}

func (e *InvestClientError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *InvestClientError) Unwrap() error {
	return e.Cause
}

type ConfigurationError struct{ InvestClientError }
type NetworkError struct{ InvestClientError }
type StreamError struct{ InvestClientError }
type ValidationError struct{ InvestClientError }

// -----------------------------------------------------------------------------

func NewConfigurationError(cause error, format string, args ...interface{}) error {
	return &ConfigurationError{InvestClientError{Message: fmt.Sprintf(format, args...), Cause: cause}}
}

func NewNetworkError(cause error, format string, args ...interface{}) error {
	return &NetworkError{InvestClientError{Message: fmt.Sprintf(format, args...), Cause: cause}}
}

func NewStreamError(cause error, format string, args ...interface{}) error {
	return &StreamError{InvestClientError{Message: fmt.Sprintf(format, args...), Cause: cause}}
}

func NewValidationError(cause error, format string, args ...interface{}) error {
	return &ValidationError{InvestClientError{Message: fmt.Sprintf(format, args...), Cause: cause}}
}
