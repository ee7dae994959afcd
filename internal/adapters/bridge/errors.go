package bridge

import (
	"errors"
	"fmt"
)

// Common bridge error types
var (
	ErrTimeout      = errors.New("handler did not signal completion before the timeout")
	ErrHandlerPanic = errors.New("handler panicked")
	ErrCancelled    = errors.New("invocation cancelled by host")
	ErrNilHandler   = errors.New("no handler configured")
	ErrAlreadyEnded = errors.New("response already ended")
)

// BridgeError represents a failed bridged invocation with additional context
type BridgeError struct {
	Op     string // Bridge stage that failed (e.g., "invoke")
	Method string
	URL    string
	Err    error // One of the sentinel errors above, possibly wrapped
}

func (e *BridgeError) Error() string {
	if e.URL != "" {
		return fmt.Sprintf("bridge %s failed for %s %s: %v", e.Op, e.Method, e.URL, e.Err)
	}
	return fmt.Sprintf("bridge %s failed: %v", e.Op, e.Err)
}

func (e *BridgeError) Unwrap() error {
	return e.Err
}

// NewBridgeError creates a new BridgeError
func NewBridgeError(op string, req *Request, err error) *BridgeError {
	be := &BridgeError{Op: op, Err: err}
	if req != nil {
		be.Method = req.Method
		be.URL = req.URL
	}
	return be
}

// IsTimeout returns true if the error is a bridge timeout
func IsTimeout(err error) bool {
	return errors.Is(err, ErrTimeout)
}

// IsPanic returns true if the handler panicked during the invocation
func IsPanic(err error) bool {
	return errors.Is(err, ErrHandlerPanic)
}

// Classify returns a short, log-friendly label for a bridge failure
func Classify(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrTimeout):
		return "timeout"
	case errors.Is(err, ErrHandlerPanic):
		return "panic"
	case errors.Is(err, ErrCancelled):
		return "cancelled"
	case errors.Is(err, ErrNilHandler):
		return "configuration"
	default:
		return "unhandled"
	}
}
