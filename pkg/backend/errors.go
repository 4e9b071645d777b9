package backend

import (
	"errors"
	"fmt"
	"strings"
)

// Transport-tier errors. Reads swallow them; writes report a generic message.
var (
	// ErrTransport is returned when the request could not be sent or the response could not be read
	ErrTransport = errors.New("backend: transport failure")

	// ErrDecode is returned when the response body is not a valid envelope
	ErrDecode = errors.New("backend: malformed response")

	// ErrTimeout is returned when a backend call exceeds its deadline
	ErrTimeout = errors.New("backend: request timeout")

	// ErrCircuitOpen is returned when the circuit breaker rejects the call
	ErrCircuitOpen = errors.New("backend: circuit breaker open")
)

// ApplicationError is an envelope with success=false. Message is the
// server's human-readable text and is shown to the user verbatim.
type ApplicationError struct {
	Endpoint string
	Message  string
}

func (e *ApplicationError) Error() string {
	return fmt.Sprintf("backend: %s: %s", e.Endpoint, e.Message)
}

// AsApplication returns the application error wrapped in err, if any.
func AsApplication(err error) (*ApplicationError, bool) {
	var appErr *ApplicationError
	if errors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

// IsTransport reports whether err belongs to the transport tier.
func IsTransport(err error) bool {
	return errors.Is(err, ErrTransport) ||
		errors.Is(err, ErrDecode) ||
		errors.Is(err, ErrTimeout) ||
		errors.Is(err, ErrCircuitOpen)
}

// ClassifyError returns a string classification of the error for metrics and logs.
func ClassifyError(err error) string {
	if err == nil {
		return "none"
	}

	if _, ok := AsApplication(err); ok {
		return "application"
	}

	switch {
	case errors.Is(err, ErrCircuitOpen):
		return "circuit_breaker_open"
	case errors.Is(err, ErrTimeout):
		return "timeout"
	case errors.Is(err, ErrDecode):
		return "decode"
	case errors.Is(err, ErrTransport):
		msg := strings.ToLower(err.Error())
		if strings.Contains(msg, "connection refused") || strings.Contains(msg, "dial") {
			return "connection"
		}
		return "transport"
	default:
		return "other"
	}
}

func transportError(endpoint string, err error) error {
	return fmt.Errorf("%w: %s: %v", ErrTransport, endpoint, err)
}
