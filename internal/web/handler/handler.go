// Package handler serves the web console's pages.
package handler

import (
	"bytes"
	"context"
	"log/slog"
	"net/http"

	"github.com/a-h/templ"

	"github.com/mcoot/proplatform/internal/identity"
	"github.com/mcoot/proplatform/internal/model"
	"github.com/mcoot/proplatform/internal/web/middleware"
	"github.com/mcoot/proplatform/internal/web/templates/layout"
)

// Accounts is the identity provider client
type Accounts interface {
	Register(ctx context.Context, in identity.RegisterInput) (model.Credential, error)
	Login(ctx context.Context, in identity.LoginInput) (model.Credential, error)
	FetchProfile(ctx context.Context) (model.UserProfile, error)
	UpdateProfile(ctx context.Context, in identity.UpdateProfileInput) error
}

// SessionWriter persists a credential after sign-in
type SessionWriter interface {
	Save(ctx context.Context, token string) error
}

// Guard reports and ends the session
type Guard interface {
	IsAuthenticated(ctx context.Context) (bool, error)
	Logout(ctx context.Context) error
}

// pageData builds the data shared by every page from the request context
func pageData(r *http.Request, title string) layout.PageData {
	return layout.PageData{
		Title:         title,
		Authenticated: middleware.IsAuthenticated(r.Context()),
		Flash:         middleware.GetFlash(r.Context()),
	}
}

// render writes page with the given status. The page is rendered to a buffer
// first so a failed render never leaves a half-written response.
func render(w http.ResponseWriter, r *http.Request, logger *slog.Logger, status int, page templ.Component) {
	var buf bytes.Buffer
	if err := page.Render(r.Context(), &buf); err != nil {
		logger.Error("failed to render page", slog.String("path", r.URL.Path), slog.String("error", err.Error()))
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}
