// Package session owns the single persisted credential slot.
//
// Every read and write of the credential goes through Store; no other
// component touches the backend slot directly.
package session

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/mcoot/proplatform/internal/storage"
)

// DefaultSlot is the slot name used when none is configured
const DefaultSlot = "userData"

// Store persists exactly one credential in a named slot of a TokenStore
type Store struct {
	backend storage.TokenStore
	slot    string
	logger  *slog.Logger
}

// Config holds configuration for the session store
type Config struct {
	Slot   string
	Logger *slog.Logger
}

// New creates a Store over the given backend
func New(backend storage.TokenStore, cfg Config) *Store {
	if cfg.Slot == "" {
		cfg.Slot = DefaultSlot
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.New(slog.DiscardHandler)
	}
	return &Store{
		backend: backend,
		slot:    cfg.Slot,
		logger:  cfg.Logger,
	}
}

// Slot returns the name of the slot this store owns
func (s *Store) Slot() string {
	return s.slot
}

// Save replaces the stored credential with token. The token is opaque and not validated.
func (s *Store) Save(ctx context.Context, token string) error {
	if err := s.backend.Set(ctx, s.slot, token); err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	s.logger.Debug("session saved", slog.String("slot", s.slot))
	return nil
}

// Read returns the stored credential, or "" when none is stored
func (s *Store) Read(ctx context.Context) (string, error) {
	token, err := s.backend.Get(ctx, s.slot)
	if err != nil {
		return "", fmt.Errorf("read session: %w", err)
	}
	return token, nil
}

// Clear removes the stored credential. Clearing an empty store is a no-op.
func (s *Store) Clear(ctx context.Context) error {
	if err := s.backend.Delete(ctx, s.slot); err != nil {
		return fmt.Errorf("clear session: %w", err)
	}
	s.logger.Debug("session cleared", slog.String("slot", s.slot))
	return nil
}
