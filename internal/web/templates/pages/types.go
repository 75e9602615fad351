// Package pages holds the console's full pages.
package pages

import (
	"strings"
	"time"

	"github.com/mcoot/proplatform/internal/model"
	"github.com/mcoot/proplatform/internal/web/templates/layout"
)

// HomeData is the landing page
type HomeData struct {
	layout.PageData
}

// FormData backs the register and login pages
type FormData struct {
	layout.PageData
	Name        string
	Email       string
	FieldErrors map[string]string
	// Error is a provider failure, shown as a dismissible alert
	Error string
}

// WelcomeData is the post-sign-in page
type WelcomeData struct {
	layout.PageData
	Steps []WelcomeStep
}

// WelcomeStep is one suggested next action
type WelcomeStep struct {
	Title       string
	Description string
	Href        string
}

// ProfileData is the profile page. Profile is nil when it could not be
// loaded; the edit form still renders with the submitted values.
type ProfileData struct {
	layout.PageData
	Profile     *model.UserProfile
	Completion  int
	DisplayName string
	PhotoURL    string
	FieldErrors map[string]string
	Error       string
}

// ErrorData is shown for failures no page can handle
type ErrorData struct {
	layout.PageData
	Message string
}

// initial is the avatar letter for a profile without a photo
func initial(name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return "?"
	}
	return strings.ToUpper(string([]rune(name)[:1]))
}

func memberSince(t time.Time) string {
	return t.Format("January 2, 2006")
}
