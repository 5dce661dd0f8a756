// Package store keeps conversation records for the lifetime of the bot process.
package store

import (
	"context"
	"sync"

	"barbershop/internal/model"
)

// Store holds one conversation record per chat.
type Store interface {
	// Get returns the record for chatID, or nil when the chat has none.
	Get(ctx context.Context, chatID int64) (*model.Conversation, error)
	// Save replaces the record for conv.ChatID.
	Save(ctx context.Context, conv *model.Conversation) error
	// Delete removes the record; deleting a missing record is not an error.
	Delete(ctx context.Context, chatID int64) error
	// Ping reports whether the backing storage is reachable.
	Ping(ctx context.Context) error
}

// MemoryStore is a Store backed by a map.
type MemoryStore struct {
	mu sync.RWMutex
	m  map[int64]model.Conversation
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{m: make(map[int64]model.Conversation)}
}

func (s *MemoryStore) Get(_ context.Context, chatID int64) (*model.Conversation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	conv, ok := s.m[chatID]
	if !ok {
		return nil, nil
	}
	return &conv, nil
}

func (s *MemoryStore) Save(_ context.Context, conv *model.Conversation) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.m[conv.ChatID] = *conv
	return nil
}

func (s *MemoryStore) Delete(_ context.Context, chatID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.m, chatID)
	return nil
}

func (s *MemoryStore) Ping(context.Context) error {
	return nil
}

// Len returns the number of stored records.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.m)
}
