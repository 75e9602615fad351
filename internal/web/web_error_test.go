package web_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mcoot/proplatform/internal/identity"
	"github.com/mcoot/proplatform/internal/model"
	"github.com/mcoot/proplatform/internal/web"
)

// brokenGuard fails every session read
type brokenGuard struct{}

func (brokenGuard) IsAuthenticated(context.Context) (bool, error) {
	return false, errors.New("backend down")
}
func (brokenGuard) Logout(context.Context) error { return errors.New("backend down") }

// panickingAccounts blows up on every call
type panickingAccounts struct{}

func (panickingAccounts) Register(context.Context, identity.RegisterInput) (model.Credential, error) {
	panic("boom")
}
func (panickingAccounts) Login(context.Context, identity.LoginInput) (model.Credential, error) {
	panic("boom")
}
func (panickingAccounts) FetchProfile(context.Context) (model.UserProfile, error) {
	panic("boom")
}
func (panickingAccounts) UpdateProfile(context.Context, identity.UpdateProfileInput) error {
	panic("boom")
}

func TestFlashMessageShownOnce(t *testing.T) {
	ts := newWebTestServer(t)
	ts.register("Ann", "ann@example.com", "secret1")

	rr := ts.get("/welcome")
	doc := parseHTML(rr.Body)
	assertContainsText(t, doc, "#flash", "Account created!")

	rr = ts.get("/welcome")
	doc = parseHTML(rr.Body)
	assertNotContainsElement(t, doc, "#flash")
}

func TestHealthz(t *testing.T) {
	ts := newWebTestServer(t)

	rr := ts.get("/healthz")
	assert.Equal(t, http.StatusOK, rr.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	assert.Equal(t, "ok", body["status"])
}

func TestMetricsEndpoint(t *testing.T) {
	ts := newWebTestServer(t)
	ts.register("Ann", "ann@example.com", "secret1")

	rr := ts.get("/metrics")
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), `proplatform_identity_calls_total{op="register",outcome="ok"} 1`)
}

func TestNotFound(t *testing.T) {
	ts := newWebTestServer(t)

	rr := ts.get("/nope")
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestSessionStorageUnavailable(t *testing.T) {
	router := web.NewRouter(web.RouterConfig{
		Logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
		Accounts: panickingAccounts{},
		Guard:    brokenGuard{},
	})

	for _, path := range []string{"/", "/login", "/profile"} {
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, path, nil))
		assert.Equal(t, http.StatusServiceUnavailable, rr.Code, path)
		assert.Contains(t, rr.Body.String(), "Session storage unavailable", path)
	}

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rr.Code)
	assert.Contains(t, rr.Body.String(), `"status":"unavailable"`)
}

func TestPanicRendersErrorPage(t *testing.T) {
	ts := newWebTestServer(t)
	router := web.NewRouter(web.RouterConfig{
		Logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
		Accounts: panickingAccounts{},
		Sessions: ts.app.Sessions,
		Guard:    ts.app.Guard,
	})

	req := httptest.NewRequest(http.MethodPost, "/login", strings.NewReader("email=ann%40example.com&password=secret1"))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusInternalServerError, rr.Code)
	doc := parseHTML(rr.Body)
	assertContainsText(t, doc, "main", "Something went wrong. Please try again later.")
}
