package model

import "time"

// Credential is the bearer token issued by the identity provider
type Credential struct {
	Token string
}

// Present reports whether the credential holds a token.
// Presence is the whole contract: the token is never checked for expiry.
func (c Credential) Present() bool {
	return c.Token != ""
}

// UserProfile is the account record returned by the provider's lookup call
type UserProfile struct {
	DisplayName string
	Email       string // not editable from this client
	PhotoURL    string
	CreatedAt   time.Time
}
