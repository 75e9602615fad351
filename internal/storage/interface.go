package storage

import "context"

// TokenStore defines the persistence backend for named credential slots.
// Get returns ("", nil) when the slot is empty.
type TokenStore interface {
	Get(ctx context.Context, slot string) (string, error)
	Set(ctx context.Context, slot, value string) error
	Delete(ctx context.Context, slot string) error
}
