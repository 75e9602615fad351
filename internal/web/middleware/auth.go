package middleware

import (
	"context"
	"log/slog"
	"net/http"
)

type contextKey string

const (
	authContextKey contextKey = "authenticated"
)

// SessionChecker reports whether a credential is stored
type SessionChecker interface {
	IsAuthenticated(ctx context.Context) (bool, error)
}

// IsAuthenticated reports the session state resolved by Session
func IsAuthenticated(ctx context.Context) bool {
	ok, _ := ctx.Value(authContextKey).(bool)
	return ok
}

// Session returns middleware that resolves the session state once per request
// and stores it in the context. A storage failure ends the request with 503.
func Session(guard SessionChecker, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ok, err := guard.IsAuthenticated(r.Context())
			if err != nil {
				logger.Error("failed to read session", slog.String("error", err.Error()))
				http.Error(w, "Session storage unavailable", http.StatusServiceUnavailable)
				return
			}

			ctx := context.WithValue(r.Context(), authContextKey, ok)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireAuth returns middleware that sends anonymous visitors to the login page
func RequireAuth() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !IsAuthenticated(r.Context()) {
				http.Redirect(w, r, "/login", http.StatusSeeOther)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RedirectAuthenticated returns middleware that sends signed-in visitors to the
// welcome page, for pages that only make sense while anonymous
func RedirectAuthenticated() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if IsAuthenticated(r.Context()) {
				http.Redirect(w, r, "/welcome", http.StatusSeeOther)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
