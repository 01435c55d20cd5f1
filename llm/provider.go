// Package llm provides local chat runtime abstractions.
//
// Runtime interface - the abstract interface for local model runtimes.
// Each runtime implementation hides:
// - Endpoint layout and request encoding
// - Response decoding into RawResponse
// - Mapping transport failures onto ErrRuntimeUnavailable / ErrModelNotFound

package llm

import (
	"context"
)

// Runtime defines the abstract interface for local chat runtimes.
// Every call is synchronous and non-streaming: it blocks until the complete
// response arrives or the call fails. No retries are attempted.
type Runtime interface {
	// Name returns the runtime name (for logging/debugging).
	Name() string

	// Chat sends a chat request with the tool catalog attached.
	Chat(ctx context.Context, req ChatRequest) (RawResponse, error)
}
