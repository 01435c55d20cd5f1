// Package storage provides in-memory exchange storage.
//
// Information Hiding:
// - Slice storage structure hidden from users
// - Thread-safe access via RWMutex hidden behind interface
// - Suitable for testing and ephemeral servers

package storage

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// InMemoryStorage implements ExchangeStore using a slice.
// Data is lost when process terminates.
type InMemoryStorage struct {
	mu        sync.RWMutex
	exchanges []Exchange
}

// NewInMemoryStorage creates a new in-memory storage.
func NewInMemoryStorage() *InMemoryStorage {
	return &InMemoryStorage{}
}

// Record stores an exchange.
func (s *InMemoryStorage) Record(ctx context.Context, ex Exchange) (Exchange, error) {
	ex = withDefaults(ex)

	s.mu.Lock()
	defer s.mu.Unlock()

	// Make a copy to avoid external mutations
	stored := ex
	stored.Request = copyMessages(ex.Request)
	stored.Response = append([]byte(nil), ex.Response...)
	s.exchanges = append(s.exchanges, stored)

	return ex, nil
}

// Recent lists up to limit exchanges, newest first.
func (s *InMemoryStorage) Recent(ctx context.Context, limit int) ([]Exchange, error) {
	if limit <= 0 {
		return []Exchange{}, nil
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]Exchange, 0, min(limit, len(s.exchanges)))
	for i := len(s.exchanges) - 1; i >= 0 && len(result) < limit; i-- {
		ex := s.exchanges[i]
		ex.Request = copyMessages(ex.Request)
		ex.Response = append([]byte(nil), ex.Response...)
		result = append(result, ex)
	}
	return result, nil
}

// Get returns one exchange by id.
func (s *InMemoryStorage) Get(ctx context.Context, id string) (Exchange, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, ex := range s.exchanges {
		if ex.ID == id {
			ex.Request = copyMessages(ex.Request)
			ex.Response = append([]byte(nil), ex.Response...)
			return ex, nil
		}
	}
	return Exchange{}, ErrExchangeNotFound
}

// Prune deletes exchanges created before cutoff.
func (s *InMemoryStorage) Prune(ctx context.Context, cutoff time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	kept := s.exchanges[:0]
	var removed int64
	for _, ex := range s.exchanges {
		if ex.CreatedAt.Before(cutoff) {
			removed++
			continue
		}
		kept = append(kept, ex)
	}
	s.exchanges = kept
	return removed, nil
}

func withDefaults(ex Exchange) Exchange {
	if ex.ID == "" {
		ex.ID = uuid.New().String()
	}
	if ex.CreatedAt.IsZero() {
		ex.CreatedAt = time.Now()
	}
	ex.Request = copyMessages(ex.Request)
	return ex
}

// Verify InMemoryStorage implements ExchangeStore
var _ ExchangeStore = (*InMemoryStorage)(nil)
