package llm

import (
	"errors"
	"fmt"
	"net"
	"syscall"
)

// Sentinel errors for runtime operations.
var (
	// ErrRuntimeUnavailable indicates the local chat endpoint cannot be reached.
	ErrRuntimeUnavailable = errors.New("local runtime unavailable")

	// ErrModelNotFound indicates the runtime does not have the requested model loaded.
	ErrModelNotFound = errors.New("model not found")

	// ErrMalformedToolArguments indicates a tool call's arguments are not a JSON object.
	// It is recovered during translation and never returned from a chat call.
	ErrMalformedToolArguments = errors.New("malformed tool arguments")
)

// Error wraps runtime errors with context.
type Error struct {
	Runtime    string // Runtime name ("ollama", "openai")
	Op         string // Operation that failed ("chat")
	StatusCode int    // HTTP status, 0 when no response was received
	Err        error  // Underlying error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s %s: status %d: %v", e.Runtime, e.Op, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("%s %s: %v", e.Runtime, e.Op, e.Err)
}

// Unwrap returns the underlying error for errors.Is/As support.
func (e *Error) Unwrap() error {
	return e.Err
}

// IsRuntimeUnavailable reports whether err means the runtime could not be reached.
func IsRuntimeUnavailable(err error) bool {
	return errors.Is(err, ErrRuntimeUnavailable)
}

// IsModelNotFound reports whether err means the model is not loaded.
func IsModelNotFound(err error) bool {
	return errors.Is(err, ErrModelNotFound)
}

// isDialFailure reports whether err comes from failing to connect at all,
// as opposed to a failure after the request reached the runtime.
func isDialFailure(err error) bool {
	if errors.Is(err, syscall.ECONNREFUSED) {
		return true
	}
	var opErr *net.OpError
	if errors.As(err, &opErr) && opErr.Op == "dial" {
		return true
	}
	var dnsErr *net.DNSError
	return errors.As(err, &dnsErr)
}

// transportError classifies a failed HTTP round trip.
func transportError(runtime string, err error) *Error {
	if isDialFailure(err) {
		return &Error{Runtime: runtime, Op: "chat", Err: fmt.Errorf("%w: %w", ErrRuntimeUnavailable, err)}
	}
	return &Error{Runtime: runtime, Op: "chat", Err: err}
}
