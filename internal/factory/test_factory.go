package factory

import (
	"testing"
	"time"

	"github.com/mcoot/proplatform/internal/config"
	"github.com/mcoot/proplatform/internal/dependencies/mocks"
	"github.com/mcoot/proplatform/internal/identity/identitytest"
	"github.com/mcoot/proplatform/internal/storage/memory"
)

// TestAPIKey is the key the test provider expects
const TestAPIKey = "test-api-key"

// TestApp extends App with test-specific helpers
type TestApp struct {
	*App

	// Provider is the fake identity provider the app talks to
	Provider *identitytest.Provider

	// Mocks for test control
	MockClock *mocks.MockClock
}

// TestOptions adjusts NewTestApp
type TestOptions struct {
	RejectConcurrent bool
}

// NewTestApp creates an App backed by in-memory session storage and a fake
// identity provider on a local test server
func NewTestApp(t testing.TB, opts TestOptions) *TestApp {
	t.Helper()

	mockClock := mocks.NewMockClock(time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC))
	provider := identitytest.NewServer(t, identitytest.Options{
		APIKey: TestAPIKey,
		Clock:  mockClock,
	})

	cfg := config.Config{
		APIKey:         TestAPIKey,
		BaseURL:        provider.BaseURL(),
		SessionBackend: config.BackendMemory,
		SessionSlot:    "userData",
		LogLevel:       "info",
	}

	app, err := New(cfg, Options{
		RejectConcurrent: opts.RejectConcurrent,
		HTTPClient:       provider.Client(),
		Backend:          memory.New(),
	})
	if err != nil {
		t.Fatalf("factory.New: %v", err)
	}
	t.Cleanup(func() { _ = app.Close() })

	return &TestApp{
		App:       app,
		Provider:  provider,
		MockClock: mockClock,
	}
}
