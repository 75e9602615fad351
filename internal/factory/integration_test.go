package factory

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"github.com/mcoot/proplatform/internal/auth"
	"github.com/mcoot/proplatform/internal/config"
	"github.com/mcoot/proplatform/internal/identity"
	"github.com/mcoot/proplatform/internal/model"
	"github.com/mcoot/proplatform/internal/storage/file"
	"github.com/mcoot/proplatform/internal/storage/memory"
	redisstorage "github.com/mcoot/proplatform/internal/storage/redis"
)

type IntegrationSuite struct {
	suite.Suite
	app *TestApp
	ctx context.Context
}

func TestIntegrationSuite(t *testing.T) {
	suite.Run(t, new(IntegrationSuite))
}

func (s *IntegrationSuite) SetupTest() {
	s.app = NewTestApp(s.T(), TestOptions{})
	s.ctx = context.Background()
}

// Test: register, persist, browse the profile, edit it, log out
func (s *IntegrationSuite) TestCompleteAccountFlow() {
	// Step 1: Anonymous to start with
	state, err := s.app.Guard.State(s.ctx)
	s.Require().NoError(err)
	s.Equal(auth.Anonymous, state)

	// Step 2: Register and persist the credential
	cred, err := s.app.Identity.Register(s.ctx, identity.RegisterInput{
		Name:     "Ann Lee",
		Email:    "ann@example.com",
		Password: "secret1",
	})
	s.Require().NoError(err)
	s.Require().NoError(s.app.Sessions.Save(s.ctx, cred.Token))

	state, err = s.app.Guard.State(s.ctx)
	s.Require().NoError(err)
	s.Equal(auth.Authenticated, state)

	// Step 3: Fetch the profile with the stored credential
	profile, err := s.app.Identity.FetchProfile(s.ctx)
	s.Require().NoError(err)
	s.Equal("Ann Lee", profile.DisplayName)
	s.Equal("ann@example.com", profile.Email)
	s.True(s.app.MockClock.Now().Equal(profile.CreatedAt))

	// Step 4: Update the profile
	err = s.app.Identity.UpdateProfile(s.ctx, identity.UpdateProfileInput{
		DisplayName: "  Ann  ",
		PhotoURL:    "https://example.com/ann.png",
	})
	s.Require().NoError(err)

	profile, err = s.app.Identity.FetchProfile(s.ctx)
	s.Require().NoError(err)
	s.Equal("Ann", profile.DisplayName)
	s.Equal("https://example.com/ann.png", profile.PhotoURL)

	// Step 5: Log out; no provider call is made
	calls := s.app.Provider.TotalCalls()
	s.Require().NoError(s.app.Guard.Logout(s.ctx))
	s.Equal(calls, s.app.Provider.TotalCalls())

	ok, err := s.app.Guard.IsAuthenticated(s.ctx)
	s.Require().NoError(err)
	s.False(ok)

	_, err = s.app.Identity.FetchProfile(s.ctx)
	s.ErrorIs(err, model.ErrNotAuthenticated)
}

// Test: login replaces the stored credential
func (s *IntegrationSuite) TestLoginReplacesCredential() {
	_, err := s.app.Provider.Seed("ann@example.com", "secret1", "Ann")
	s.Require().NoError(err)
	s.Require().NoError(s.app.Sessions.Save(s.ctx, "stale"))

	cred, err := s.app.Identity.Login(s.ctx, identity.LoginInput{Email: "ann@example.com", Password: "secret1"})
	s.Require().NoError(err)
	s.Require().NoError(s.app.Sessions.Save(s.ctx, cred.Token))

	token, err := s.app.Sessions.Read(s.ctx)
	s.Require().NoError(err)
	s.Equal(cred.Token, token)
}

// Test: a failed login leaves the stored credential alone
func (s *IntegrationSuite) TestFailedLoginKeepsSession() {
	s.Require().NoError(s.app.Sessions.Save(s.ctx, "existing"))

	_, err := s.app.Identity.Login(s.ctx, identity.LoginInput{Email: "ann@example.com", Password: "secret1"})
	s.ErrorIs(err, model.ErrInvalidCredentials)

	token, _ := s.app.Sessions.Read(s.ctx)
	s.Equal("existing", token)
}

// Test: an expired token still counts as signed in; only the provider rejects it
func (s *IntegrationSuite) TestExpiredTokenStaysAuthenticated() {
	cred, err := s.app.Identity.Register(s.ctx, identity.RegisterInput{Name: "Ann", Email: "ann@example.com", Password: "secret1"})
	s.Require().NoError(err)
	s.Require().NoError(s.app.Sessions.Save(s.ctx, cred.Token))

	s.app.MockClock.Advance(2 * time.Hour)

	ok, err := s.app.Guard.IsAuthenticated(s.ctx)
	s.Require().NoError(err)
	s.True(ok)

	_, err = s.app.Identity.FetchProfile(s.ctx)
	s.ErrorIs(err, model.ErrProfileFetchFailed)

	info, decoded := auth.Inspect(cred.Token)
	s.Require().True(decoded)
	s.True(info.Expired(s.app.MockClock.Now()))
}

// Test: calls show up in the app's registry
func (s *IntegrationSuite) TestMetricsRegistryGathersIdentityCalls() {
	_, _ = s.app.Identity.Login(s.ctx, identity.LoginInput{Email: "ann@example.com", Password: "secret1"})

	families, err := s.app.Registry.Gather()
	s.Require().NoError(err)

	names := make([]string, 0, len(families))
	for _, f := range families {
		names = append(names, f.GetName())
	}
	s.Contains(names, "proplatform_identity_calls_total")
	s.Contains(names, "go_goroutines")
}

func TestNewSelectsBackend(t *testing.T) {
	base, err := config.LoadFrom(map[string]string{})
	require.NoError(t, err)

	t.Run("memory by default", func(t *testing.T) {
		app, err := New(base, Options{})
		require.NoError(t, err)
		assert.IsType(t, &memory.Storage{}, app.Backend)
	})

	t.Run("caller default", func(t *testing.T) {
		cfg := base
		cfg.SessionDir = t.TempDir()
		app, err := New(cfg, Options{DefaultBackend: config.BackendFile})
		require.NoError(t, err)
		require.IsType(t, &file.Storage{}, app.Backend)
		assert.Equal(t, cfg.SessionDir, app.Backend.(*file.Storage).Dir())
	})

	t.Run("redis", func(t *testing.T) {
		mr := miniredis.RunT(t)
		cfg := base
		cfg.SessionBackend = config.BackendRedis
		cfg.RedisURL = "redis://" + mr.Addr()
		cfg.SessionTTL = time.Minute

		app, err := New(cfg, Options{})
		require.NoError(t, err)
		t.Cleanup(func() { _ = app.Close() })
		require.IsType(t, &redisstorage.Storage{}, app.Backend)

		require.NoError(t, app.Sessions.Save(context.Background(), "T1"))
		assert.Equal(t, "T1", mustGet(t, mr, "proplatform:session:userData"))
		assert.Equal(t, time.Minute, mr.TTL("proplatform:session:userData"))
	})

	t.Run("redis unreachable", func(t *testing.T) {
		cfg := base
		cfg.SessionBackend = config.BackendRedis
		cfg.RedisURL = "redis://127.0.0.1:1"

		_, err := New(cfg, Options{})
		assert.ErrorContains(t, err, "connect session backend")
	})

	t.Run("invalid backend", func(t *testing.T) {
		cfg := base
		cfg.SessionBackend = "sqlite"
		_, err := New(cfg, Options{})
		assert.Error(t, err)
	})
}

func mustGet(t *testing.T, mr *miniredis.Miniredis, key string) string {
	t.Helper()
	v, err := mr.Get(key)
	require.NoError(t, err)
	return v
}
