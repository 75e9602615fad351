package memory

import (
	"context"
	"sync"

	"github.com/mcoot/proplatform/internal/storage"
)

// Storage is an in-memory implementation of the storage interface
type Storage struct {
	mu    sync.RWMutex
	slots map[string]string
}

// New creates a new in-memory storage instance
func New() *Storage {
	return &Storage{
		slots: make(map[string]string),
	}
}

// Ensure Storage implements the interface
var _ storage.TokenStore = (*Storage)(nil)

func (s *Storage) Get(ctx context.Context, slot string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.slots[slot], nil
}

func (s *Storage) Set(ctx context.Context, slot, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.slots[slot] = value
	return nil
}

func (s *Storage) Delete(ctx context.Context, slot string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.slots, slot)
	return nil
}
