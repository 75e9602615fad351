package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/mcoot/proplatform/internal/identity"
	"github.com/mcoot/proplatform/internal/model"
	"github.com/mcoot/proplatform/internal/web/middleware"
	"github.com/mcoot/proplatform/internal/web/templates/pages"
)

// Messages shown on the profile page
const (
	msgProfileLoadFailed   = "Failed to load profile data"
	msgProfileUpdateFailed = "Failed to update profile. Please try again."
	msgProfileUpdated      = "Profile updated successfully!"
)

var welcomeSteps = []pages.WelcomeStep{
	{Title: "Complete Your Profile", Description: "Add your display name and a photo", Href: "/profile"},
	{Title: "Set Your Goals", Description: "Tell us what you want to achieve with the platform"},
	{Title: "Start Exploring", Description: "Discover the features and tools available to you"},
}

// ProfileHandler handles the signed-in pages
type ProfileHandler struct {
	accounts Accounts
	logger   *slog.Logger
}

// NewProfileHandler creates a new ProfileHandler
func NewProfileHandler(accounts Accounts, logger *slog.Logger) *ProfileHandler {
	return &ProfileHandler{accounts: accounts, logger: logger}
}

// Welcome renders the landing page after sign-in
func (h *ProfileHandler) Welcome(w http.ResponseWriter, r *http.Request) {
	data := pages.WelcomeData{
		PageData: pageData(r, "Welcome"),
		Steps:    welcomeSteps,
	}
	render(w, r, h.logger, http.StatusOK, pages.Welcome(data))
}

// Profile renders the profile card and edit form
func (h *ProfileHandler) Profile(w http.ResponseWriter, r *http.Request) {
	data := pages.ProfileData{PageData: pageData(r, "Profile")}

	profile, err := h.accounts.FetchProfile(r.Context())
	if err != nil {
		if h.lostSession(w, r, err) {
			return
		}
		data.Error = msgProfileLoadFailed
		render(w, r, h.logger, http.StatusBadGateway, pages.Profile(data))
		return
	}

	data.Profile = &profile
	data.Completion = completion(profile)
	data.DisplayName = profile.DisplayName
	data.PhotoURL = profile.PhotoURL
	render(w, r, h.logger, http.StatusOK, pages.Profile(data))
}

// UpdateProfile handles the edit form
func (h *ProfileHandler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Invalid form data", http.StatusBadRequest)
		return
	}

	in := identity.UpdateProfileInput{
		DisplayName: r.FormValue("displayName"),
		PhotoURL:    r.FormValue("photoUrl"),
	}

	err := h.accounts.UpdateProfile(r.Context(), in)
	if err == nil {
		middleware.SetFlash(w, "success", msgProfileUpdated)
		http.Redirect(w, r, "/profile", http.StatusSeeOther)
		return
	}
	if h.lostSession(w, r, err) {
		return
	}

	data := pages.ProfileData{
		PageData:    pageData(r, "Profile"),
		DisplayName: in.DisplayName,
		PhotoURL:    in.PhotoURL,
	}
	status := http.StatusBadGateway

	var ve *model.ValidationError
	switch {
	case errors.As(err, &ve):
		data.FieldErrors = ve.Fields
		status = http.StatusUnprocessableEntity
	case errors.Is(err, model.ErrRequestInFlight):
		data.Error = identity.UserMessage(err)
		status = http.StatusConflict
	default:
		data.Error = msgProfileUpdateFailed
	}

	// Show the current card next to the rejected edit; if that fails too the
	// form error alone is enough
	if profile, fetchErr := h.accounts.FetchProfile(r.Context()); fetchErr == nil {
		data.Profile = &profile
		data.Completion = completion(profile)
	}

	render(w, r, h.logger, status, pages.Profile(data))
}

// lostSession redirects to login when the credential vanished after the guard ran
func (h *ProfileHandler) lostSession(w http.ResponseWriter, r *http.Request, err error) bool {
	if !errors.Is(err, model.ErrNotAuthenticated) {
		return false
	}
	http.Redirect(w, r, "/login", http.StatusSeeOther)
	return true
}

// completion scores how much of the editable profile is filled in
func completion(p model.UserProfile) int {
	switch {
	case p.DisplayName != "" && p.PhotoURL != "":
		return 100
	case p.DisplayName != "" || p.PhotoURL != "":
		return 75
	default:
		return 50
	}
}
