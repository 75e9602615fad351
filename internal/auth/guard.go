package auth

import (
	"context"
	"log/slog"
)

// State is the session status as seen by the guard
type State int

const (
	Anonymous State = iota
	Authenticated
)

func (s State) String() string {
	switch s {
	case Authenticated:
		return "authenticated"
	default:
		return "anonymous"
	}
}

// SessionStore is the slice of session.Store the guard needs
type SessionStore interface {
	Read(ctx context.Context) (string, error)
	Clear(ctx context.Context) error
}

// Guard answers whether the caller holds a session and performs logout.
// It keeps no state of its own: every answer is re-derived from the store.
type Guard struct {
	sessions SessionStore
	logger   *slog.Logger
}

// New creates a Guard over the session store
func New(sessions SessionStore, logger *slog.Logger) *Guard {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Guard{
		sessions: sessions,
		logger:   logger,
	}
}

// IsAuthenticated reports whether a non-empty token is stored.
// This is a presence check: the token is not validated or checked for expiry,
// and no request is made. The error is only ever a storage failure.
func (g *Guard) IsAuthenticated(ctx context.Context) (bool, error) {
	token, err := g.sessions.Read(ctx)
	if err != nil {
		return false, err
	}
	return token != "", nil
}

// State returns the current session state
func (g *Guard) State(ctx context.Context) (State, error) {
	ok, err := g.IsAuthenticated(ctx)
	if err != nil {
		return Anonymous, err
	}
	if ok {
		return Authenticated, nil
	}
	return Anonymous, nil
}

// Logout clears the stored credential. The provider is not told, so a copy of
// the token held elsewhere stays valid until it expires server-side.
func (g *Guard) Logout(ctx context.Context) error {
	if err := g.sessions.Clear(ctx); err != nil {
		return err
	}
	g.logger.Info("logged out")
	return nil
}
