// Package storage provides the exchange log abstraction.
//
// Information Hiding:
// - Storage backend implementation details hidden behind interface
// - Allows swapping between memory and SQLite without API changes
// - Each storage implementation encapsulates its own data structures

package storage

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/richinex/ollamabridge/llm"
)

// ErrExchangeNotFound is returned by Get for an unknown id.
var ErrExchangeNotFound = errors.New("exchange not found")

// Exchange is one recorded request/response pair.
type Exchange struct {
	ID           string
	Runtime      string
	Model        string
	Request      []llm.ChatMessage // readable request, images already removed
	Response     json.RawMessage   // response message JSON, empty on failure
	StopReason   string
	InputTokens  int
	OutputTokens int
	Error        string
	CreatedAt    time.Time
}

// Failed reports whether the exchange ended in an error.
func (e Exchange) Failed() bool {
	return e.Error != ""
}

// ExchangeStore defines the interface for recording exchanges.
type ExchangeStore interface {
	// Record stores an exchange. An empty ID is replaced with a generated one
	// and a zero CreatedAt with the current time.
	Record(ctx context.Context, ex Exchange) (Exchange, error)

	// Recent lists up to limit exchanges, newest first.
	Recent(ctx context.Context, limit int) ([]Exchange, error)

	// Get returns one exchange, or ErrExchangeNotFound.
	Get(ctx context.Context, id string) (Exchange, error)

	// Prune deletes exchanges created before cutoff and returns how many.
	Prune(ctx context.Context, cutoff time.Time) (int64, error)
}

func copyMessages(msgs []llm.ChatMessage) []llm.ChatMessage {
	if msgs == nil {
		return []llm.ChatMessage{}
	}
	out := make([]llm.ChatMessage, len(msgs))
	copy(out, msgs)
	return out
}
