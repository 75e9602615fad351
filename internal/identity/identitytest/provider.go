// Package identitytest provides an in-process fake of the identity provider's
// accounts API, for tests that exercise the real HTTP client.
package identitytest

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/gorilla/mux"
	"golang.org/x/crypto/bcrypt"

	"github.com/mcoot/proplatform/internal/dependencies/clock"
	"github.com/mcoot/proplatform/internal/dependencies/random"
)

// Operation names, matching the path suffix after "accounts:"
const (
	OpSignUp = "signUp"
	OpSignIn = "signInWithPassword"
	OpLookup = "lookup"
	OpUpdate = "update"
)

// Provider error messages, as the real service sends them
const (
	ErrEmailExists      = "EMAIL_EXISTS"
	ErrInvalidLogin     = "INVALID_LOGIN_CREDENTIALS"
	ErrInvalidIDToken   = "INVALID_ID_TOKEN"
	ErrTokenExpired     = "TOKEN_EXPIRED"
	ErrMissingEmail     = "MISSING_EMAIL"
	ErrInvalidEmail     = "INVALID_EMAIL"
	ErrWeakPassword     = "WEAK_PASSWORD : Password should be at least 6 characters"
	ErrInvalidAPIKey    = "API key not valid. Please pass a valid API key."
	ErrMissingIDToken   = "MISSING_ID_TOKEN"
	ErrMissingPassword  = "MISSING_PASSWORD"
	ErrInvalidJSONInput = "INVALID_JSON_PAYLOAD"
)

// Account is a registered user
type Account struct {
	LocalID      string
	Email        string
	DisplayName  string
	PhotoURL     string
	PasswordHash string // bcrypt hash
	CreatedAt    time.Time
}

// Options configures a Provider
type Options struct {
	// APIKey, when set, must match the key query parameter of every request
	APIKey   string
	Clock    clock.Clock
	Random   random.Random
	TokenTTL time.Duration
}

type failure struct {
	status  int
	message string
}

// Provider is a fake identity provider
type Provider struct {
	handler    http.Handler
	server     *httptest.Server
	apiKey     string
	clock      clock.Clock
	random     random.Random
	tokenTTL   time.Duration
	signingKey []byte

	mu       sync.Mutex
	accounts map[string]*Account // by localId
	byEmail  map[string]string   // email -> localId
	calls    map[string]int
	requests map[string][]map[string]any
	failures map[string]failure
	holds    map[string]*hold
}

type hold struct {
	entered chan struct{}
	release chan struct{}
	once    sync.Once
}

// New creates a Provider. Use Handler to serve it or NewServer to start one.
func New(opts Options) *Provider {
	if opts.Clock == nil {
		opts.Clock = clock.New()
	}
	if opts.Random == nil {
		opts.Random = random.New()
	}
	if opts.TokenTTL == 0 {
		opts.TokenTTL = time.Hour
	}

	p := &Provider{
		apiKey:     opts.APIKey,
		clock:      opts.Clock,
		random:     opts.Random,
		tokenTTL:   opts.TokenTTL,
		signingKey: []byte(opts.Random.String(32, random.Alphabet)),
		accounts:   make(map[string]*Account),
		byEmail:    make(map[string]string),
		calls:      make(map[string]int),
		requests:   make(map[string][]map[string]any),
		failures:   make(map[string]failure),
		holds:      make(map[string]*hold),
	}

	r := mux.NewRouter()
	r.Use(p.checkAPIKey)
	r.HandleFunc("/v1/accounts:signUp", p.wrap(OpSignUp, p.signUp)).Methods(http.MethodPost)
	r.HandleFunc("/v1/accounts:signInWithPassword", p.wrap(OpSignIn, p.signIn)).Methods(http.MethodPost)
	r.HandleFunc("/v1/accounts:lookup", p.wrap(OpLookup, p.lookup)).Methods(http.MethodPost)
	r.HandleFunc("/v1/accounts:update", p.wrap(OpUpdate, p.update)).Methods(http.MethodPost)
	p.handler = r

	return p
}

// NewServer starts a Provider on a local test server, closed when the test ends
func NewServer(t testing.TB, opts Options) *Provider {
	t.Helper()

	p := New(opts)
	p.server = httptest.NewServer(p.handler)
	t.Cleanup(func() {
		p.releaseAll()
		p.server.Close()
	})
	return p
}

// Handler returns the provider's HTTP handler
func (p *Provider) Handler() http.Handler {
	return p.handler
}

// BaseURL returns the versioned base URL the identity client should use
func (p *Provider) BaseURL() string {
	if p.server == nil {
		return ""
	}
	return p.server.URL + "/v1"
}

// Client returns an HTTP client for the test server
func (p *Provider) Client() *http.Client {
	if p.server == nil {
		return http.DefaultClient
	}
	return p.server.Client()
}

// Calls returns how many requests reached op, including injected failures
func (p *Provider) Calls(op string) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.calls[op]
}

// TotalCalls returns the number of requests across all operations
func (p *Provider) TotalCalls() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	total := 0
	for _, n := range p.calls {
		total += n
	}
	return total
}

// LastRequest returns the decoded body of the latest request to op
func (p *Provider) LastRequest(op string) (map[string]any, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	reqs := p.requests[op]
	if len(reqs) == 0 {
		return nil, false
	}
	return reqs[len(reqs)-1], true
}

// Fail makes every following request to op fail with the given status and message
func (p *Provider) Fail(op string, status int, message string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.failures[op] = failure{status: status, message: message}
}

// Recover removes an injected failure for op
func (p *Provider) Recover(op string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.failures, op)
}

// Hold blocks requests to op until release is called. entered is closed when
// the first held request arrives.
func (p *Provider) Hold(op string) (entered <-chan struct{}, release func()) {
	h := &hold{
		entered: make(chan struct{}),
		release: make(chan struct{}),
	}
	p.mu.Lock()
	p.holds[op] = h
	p.mu.Unlock()

	return h.entered, func() {
		p.mu.Lock()
		if p.holds[op] == h {
			delete(p.holds, op)
		}
		p.mu.Unlock()
		close(h.release)
	}
}

func (p *Provider) releaseAll() {
	p.mu.Lock()
	holds := p.holds
	p.holds = make(map[string]*hold)
	p.mu.Unlock()

	for _, h := range holds {
		select {
		case <-h.release:
		default:
			close(h.release)
		}
	}
}

// Seed registers an account directly and returns a valid token for it
func (p *Provider) Seed(email, password, displayName string) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	acct, err := p.createAccount(email, password, displayName)
	if err != nil {
		return "", err
	}
	return p.mintToken(acct)
}

// Account returns a copy of the account registered with email
func (p *Provider) Account(email string) (Account, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	id, ok := p.byEmail[strings.ToLower(email)]
	if !ok {
		return Account{}, false
	}
	return *p.accounts[id], true
}

// ExpiredToken returns a correctly signed token for email that expired an hour ago
func (p *Provider) ExpiredToken(email string) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	id, ok := p.byEmail[strings.ToLower(email)]
	if !ok {
		return "", fmt.Errorf("no account for %s", email)
	}
	acct := p.accounts[id]
	now := p.clock.Now()
	return p.signToken(acct, now.Add(-2*p.tokenTTL), now.Add(-time.Hour))
}

func (p *Provider) checkAPIKey(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if p.apiKey != "" && r.URL.Query().Get("key") != p.apiKey {
			writeError(w, http.StatusBadRequest, ErrInvalidAPIKey)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// wrap counts the call, records its body, and applies holds and injected failures
func (p *Provider) wrap(op string, h func(http.ResponseWriter, map[string]any)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			writeError(w, http.StatusBadRequest, ErrInvalidJSONInput)
			return
		}

		p.mu.Lock()
		p.calls[op]++
		p.requests[op] = append(p.requests[op], body)
		fail, failing := p.failures[op]
		held := p.holds[op]
		p.mu.Unlock()

		if held != nil {
			held.once.Do(func() { close(held.entered) })
			select {
			case <-held.release:
			case <-r.Context().Done():
				return
			}
		}

		if failing {
			writeError(w, fail.status, fail.message)
			return
		}

		h(w, body)
	}
}

func (p *Provider) signUp(w http.ResponseWriter, body map[string]any) {
	email := stringField(body, "email")
	password := stringField(body, "password")
	displayName := stringField(body, "displayName")

	p.mu.Lock()
	defer p.mu.Unlock()

	acct, err := p.createAccount(email, password, displayName)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	p.writeToken(w, acct, false)
}

func (p *Provider) signIn(w http.ResponseWriter, body map[string]any) {
	email := strings.ToLower(stringField(body, "email"))
	password := stringField(body, "password")

	p.mu.Lock()
	defer p.mu.Unlock()

	if email == "" {
		writeError(w, http.StatusBadRequest, ErrInvalidEmail)
		return
	}
	if password == "" {
		writeError(w, http.StatusBadRequest, ErrMissingPassword)
		return
	}

	id, ok := p.byEmail[email]
	if !ok {
		writeError(w, http.StatusBadRequest, ErrInvalidLogin)
		return
	}
	acct := p.accounts[id]
	if err := bcrypt.CompareHashAndPassword([]byte(acct.PasswordHash), []byte(password)); err != nil {
		writeError(w, http.StatusBadRequest, ErrInvalidLogin)
		return
	}

	p.writeToken(w, acct, true)
}

func (p *Provider) lookup(w http.ResponseWriter, body map[string]any) {
	p.mu.Lock()
	defer p.mu.Unlock()

	acct, msg := p.accountForToken(stringField(body, "idToken"))
	if acct == nil {
		writeError(w, http.StatusBadRequest, msg)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"kind": "identitytoolkit#GetAccountInfoResponse",
		"users": []map[string]any{{
			"localId":     acct.LocalID,
			"email":       acct.Email,
			"displayName": acct.DisplayName,
			"photoUrl":    acct.PhotoURL,
			"createdAt":   fmt.Sprintf("%d", acct.CreatedAt.UnixMilli()),
		}},
	})
}

func (p *Provider) update(w http.ResponseWriter, body map[string]any) {
	p.mu.Lock()
	defer p.mu.Unlock()

	acct, msg := p.accountForToken(stringField(body, "idToken"))
	if acct == nil {
		writeError(w, http.StatusBadRequest, msg)
		return
	}

	if v, ok := body["displayName"].(string); ok {
		acct.DisplayName = v
	}
	if v, ok := body["photoUrl"].(string); ok {
		acct.PhotoURL = v
	}
	if attrs, ok := body["deleteAttribute"].([]any); ok {
		for _, attr := range attrs {
			switch attr {
			case "PHOTO_URL":
				acct.PhotoURL = ""
			case "DISPLAY_NAME":
				acct.DisplayName = ""
			}
		}
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"kind":        "identitytoolkit#SetAccountInfoResponse",
		"localId":     acct.LocalID,
		"email":       acct.Email,
		"displayName": acct.DisplayName,
		"photoUrl":    acct.PhotoURL,
	})
}

// createAccount registers a new account. Callers hold p.mu.
func (p *Provider) createAccount(email, password, displayName string) (*Account, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	switch {
	case email == "":
		return nil, fmt.Errorf("%s", ErrMissingEmail)
	case !strings.Contains(email, "@"):
		return nil, fmt.Errorf("%s", ErrInvalidEmail)
	case password == "":
		return nil, fmt.Errorf("%s", ErrMissingPassword)
	case len(password) < 6:
		return nil, fmt.Errorf("%s", ErrWeakPassword)
	}
	if _, exists := p.byEmail[email]; exists {
		return nil, fmt.Errorf("%s", ErrEmailExists)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	if err != nil {
		return nil, err
	}

	localID, err := p.newLocalID()
	if err != nil {
		return nil, err
	}

	acct := &Account{
		LocalID:      localID,
		Email:        email,
		DisplayName:  displayName,
		PasswordHash: string(hash),
		CreatedAt:    p.clock.Now(),
	}
	p.accounts[acct.LocalID] = acct
	p.byEmail[email] = acct.LocalID
	return acct, nil
}

// maxIDDraws bounds the redraws when a new local ID collides with an existing account
const maxIDDraws = 8

// newLocalID draws an account ID not already in use. Callers hold p.mu.
func (p *Provider) newLocalID() (string, error) {
	for range maxIDDraws {
		id := p.random.String(28, random.Alphabet)
		if _, taken := p.accounts[id]; !taken && id != "" {
			return id, nil
		}
	}
	return "", errors.New("identitytest: could not draw an unused account ID")
}

type tokenClaims struct {
	Email string `json:"email"`
	jwt.RegisteredClaims
}

func (p *Provider) mintToken(acct *Account) (string, error) {
	now := p.clock.Now()
	return p.signToken(acct, now, now.Add(p.tokenTTL))
}

func (p *Provider) signToken(acct *Account, issued, expires time.Time) (string, error) {
	claims := tokenClaims{
		Email: acct.Email,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   acct.LocalID,
			Issuer:    "identitytest",
			IssuedAt:  jwt.NewNumericDate(issued),
			ExpiresAt: jwt.NewNumericDate(expires),
			ID:        p.random.String(16, random.Alphabet),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(p.signingKey)
}

// accountForToken verifies token and returns its account, or nil and an error message.
// Callers hold p.mu.
func (p *Provider) accountForToken(token string) (*Account, string) {
	if token == "" {
		return nil, ErrMissingIDToken
	}

	claims := &tokenClaims{}
	_, err := jwt.ParseWithClaims(token, claims, func(*jwt.Token) (any, error) {
		return p.signingKey, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(p.clock.Now),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, ErrInvalidIDToken
	}

	acct, ok := p.accounts[claims.Subject]
	if !ok {
		return nil, ErrInvalidIDToken
	}
	return acct, ""
}

func (p *Provider) writeToken(w http.ResponseWriter, acct *Account, registered bool) {
	token, err := p.mintToken(acct)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "INTERNAL_ERROR")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"kind":         "identitytoolkit#VerifyPasswordResponse",
		"localId":      acct.LocalID,
		"email":        acct.Email,
		"displayName":  acct.DisplayName,
		"idToken":      token,
		"registered":   registered,
		"refreshToken": p.random.String(40, random.Alphabet),
		"expiresIn":    fmt.Sprintf("%d", int(p.tokenTTL.Seconds())),
	})
}

func stringField(body map[string]any, key string) string {
	v, _ := body[key].(string)
	return v
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string) {
	reason := "invalid"
	if status >= 500 {
		reason = "backendError"
	}
	writeJSON(w, status, map[string]any{
		"error": map[string]any{
			"code":    status,
			"message": message,
			"errors": []map[string]any{{
				"message": message,
				"domain":  "global",
				"reason":  reason,
			}},
		},
	})
}
