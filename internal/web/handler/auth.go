package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/a-h/templ"

	"github.com/mcoot/proplatform/internal/identity"
	"github.com/mcoot/proplatform/internal/model"
	"github.com/mcoot/proplatform/internal/web/middleware"
	"github.com/mcoot/proplatform/internal/web/templates/pages"
)

// formPage is a page built from FormData
type formPage func(pages.FormData) templ.Component

// AuthHandler handles registration, sign-in and sign-out
type AuthHandler struct {
	accounts Accounts
	sessions SessionWriter
	guard    Guard
	logger   *slog.Logger
}

// NewAuthHandler creates a new AuthHandler
func NewAuthHandler(accounts Accounts, sessions SessionWriter, guard Guard, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{
		accounts: accounts,
		sessions: sessions,
		guard:    guard,
		logger:   logger,
	}
}

// RegisterPage renders the registration page
func (h *AuthHandler) RegisterPage(w http.ResponseWriter, r *http.Request) {
	h.renderForm(w, r, pages.Register, "Register", pages.FormData{}, nil)
}

// LoginPage renders the login page
func (h *AuthHandler) LoginPage(w http.ResponseWriter, r *http.Request) {
	h.renderForm(w, r, pages.Login, "Login", pages.FormData{}, nil)
}

// Register handles registration form submission
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Invalid form data", http.StatusBadRequest)
		return
	}

	in := identity.RegisterInput{
		Name:     r.FormValue("name"),
		Email:    r.FormValue("email"),
		Password: r.FormValue("password"),
	}
	form := pages.FormData{Name: in.Name, Email: in.Email}

	cred, err := h.accounts.Register(r.Context(), in)
	if err != nil {
		h.renderForm(w, r, pages.Register, "Register", form, err)
		return
	}

	h.signIn(w, r, pages.Register, "Register", form, cred, "Account created! Welcome, "+strings.TrimSpace(in.Name)+"!")
}

// Login handles login form submission
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Invalid form data", http.StatusBadRequest)
		return
	}

	in := identity.LoginInput{
		Email:    r.FormValue("email"),
		Password: r.FormValue("password"),
	}
	form := pages.FormData{Email: in.Email}

	cred, err := h.accounts.Login(r.Context(), in)
	if err != nil {
		h.renderForm(w, r, pages.Login, "Login", form, err)
		return
	}

	h.signIn(w, r, pages.Login, "Login", form, cred, "Welcome back!")
}

// signIn stores the new credential and moves on to the welcome page
func (h *AuthHandler) signIn(w http.ResponseWriter, r *http.Request, page formPage, title string, form pages.FormData, cred model.Credential, greeting string) {
	if err := h.sessions.Save(r.Context(), cred.Token); err != nil {
		h.logger.Error("failed to save session", slog.String("error", err.Error()))
		h.renderForm(w, r, page, title, form, err)
		return
	}

	middleware.SetFlash(w, "success", greeting)
	http.Redirect(w, r, "/welcome", http.StatusSeeOther)
}

// Logout clears the session. The provider is not contacted.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if err := h.guard.Logout(r.Context()); err != nil {
		h.logger.Error("failed to clear session", slog.String("error", err.Error()))
		http.Error(w, "Session storage unavailable", http.StatusServiceUnavailable)
		return
	}

	middleware.SetFlash(w, "info", "You have been logged out")
	http.Redirect(w, r, "/login", http.StatusSeeOther)
}

// renderForm shows a form page, with field messages for a validation failure
// or an alert for anything else
func (h *AuthHandler) renderForm(w http.ResponseWriter, r *http.Request, page formPage, title string, form pages.FormData, err error) {
	form.PageData = pageData(r, title)
	status := http.StatusOK

	var ve *model.ValidationError
	switch {
	case err == nil:
	case errors.As(err, &ve):
		form.FieldErrors = ve.Fields
		status = http.StatusUnprocessableEntity
	default:
		form.Error = identity.UserMessage(err)
		status = statusFor(err)
	}

	render(w, r, h.logger, status, page(form))
}

// statusFor maps a failed operation to the status of the re-rendered page
func statusFor(err error) int {
	switch {
	case errors.Is(err, model.ErrEmailAlreadyExists):
		return http.StatusConflict
	case errors.Is(err, model.ErrInvalidCredentials):
		return http.StatusUnauthorized
	case errors.Is(err, model.ErrRequestInFlight):
		return http.StatusConflict
	case errors.Is(err, model.ErrNotAuthenticated):
		return http.StatusUnauthorized
	default:
		return http.StatusBadGateway
	}
}
