package identity

import (
	"strconv"
	"strings"
	"time"

	"github.com/mcoot/proplatform/internal/model"
)

// Provider endpoints, relative to the base URL
const (
	signUpPath = "accounts:signUp"
	signInPath = "accounts:signInWithPassword"
	lookupPath = "accounts:lookup"
	updatePath = "accounts:update"
)

// deletePhotoURL asks accounts:update to remove the photo rather than set it
const deletePhotoURL = "PHOTO_URL"

type signUpRequest struct {
	DisplayName       string `json:"displayName"`
	Email             string `json:"email"`
	Password          string `json:"password"`
	ReturnSecureToken bool   `json:"returnSecureToken"`
}

type signInRequest struct {
	Email             string `json:"email"`
	Password          string `json:"password"`
	ReturnSecureToken bool   `json:"returnSecureToken"`
}

// tokenResponse is the success body of signUp and signInWithPassword
type tokenResponse struct {
	Kind         string `json:"kind,omitempty"`
	LocalID      string `json:"localId,omitempty"`
	Email        string `json:"email,omitempty"`
	DisplayName  string `json:"displayName,omitempty"`
	IDToken      string `json:"idToken"`
	Registered   bool   `json:"registered,omitempty"`
	RefreshToken string `json:"refreshToken,omitempty"`
	ExpiresIn    string `json:"expiresIn,omitempty"`
}

type lookupRequest struct {
	IDToken string `json:"idToken"`
}

type lookupResponse struct {
	Kind  string        `json:"kind,omitempty"`
	Users []accountInfo `json:"users"`
}

// accountInfo is one record of a lookup response
type accountInfo struct {
	LocalID     string `json:"localId"`
	Email       string `json:"email"`
	DisplayName string `json:"displayName,omitempty"`
	PhotoURL    string `json:"photoUrl,omitempty"`
	CreatedAt   string `json:"createdAt,omitempty"` // Unix milliseconds, as a decimal string
	LastLoginAt string `json:"lastLoginAt,omitempty"`
}

func (a accountInfo) toProfile() model.UserProfile {
	return model.UserProfile{
		DisplayName: a.DisplayName,
		Email:       a.Email,
		PhotoURL:    a.PhotoURL,
		CreatedAt:   parseMillis(a.CreatedAt),
	}
}

// parseMillis decodes a provider timestamp; unparseable values give the zero time
func parseMillis(s string) time.Time {
	ms, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil {
		return time.Time{}
	}
	return time.UnixMilli(ms).UTC()
}

type updateRequest struct {
	IDToken           string   `json:"idToken"`
	DisplayName       string   `json:"displayName"`
	PhotoURL          string   `json:"photoUrl,omitempty"`
	DeleteAttribute   []string `json:"deleteAttribute,omitempty"`
	ReturnSecureToken bool     `json:"returnSecureToken"`
}

// errorResponse is the provider's structured failure body
type errorResponse struct {
	Error struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
		Errors  []struct {
			Message string `json:"message"`
			Domain  string `json:"domain"`
			Reason  string `json:"reason"`
		} `json:"errors,omitempty"`
	} `json:"error"`
}
