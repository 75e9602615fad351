package factory

import (
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/mcoot/proplatform/internal/auth"
	"github.com/mcoot/proplatform/internal/config"
	"github.com/mcoot/proplatform/internal/identity"
	"github.com/mcoot/proplatform/internal/metrics"
	"github.com/mcoot/proplatform/internal/session"
	"github.com/mcoot/proplatform/internal/storage"
	"github.com/mcoot/proplatform/internal/storage/file"
	"github.com/mcoot/proplatform/internal/storage/memory"
	redisstorage "github.com/mcoot/proplatform/internal/storage/redis"
)

// App contains all wired application components
type App struct {
	// Storage
	Backend  storage.TokenStore
	Sessions *session.Store

	// Services
	Guard    *auth.Guard
	Identity *identity.Client

	// Metrics
	Registry *prometheus.Registry
	Metrics  *metrics.Collector

	closers []io.Closer
}

// Options holds settings that do not come from the environment
type Options struct {
	// DefaultBackend is used when the config names no session backend.
	// If empty, defaults to "memory"
	DefaultBackend string
	// RejectConcurrent turns on the identity client's in-flight guard
	RejectConcurrent bool
	// Logger is the application logger (optional)
	// If nil, a no-op logger is used
	Logger *slog.Logger
	// HTTPClient overrides the client built from the configured timeout (optional)
	HTTPClient *http.Client
	// Backend overrides the configured session backend (optional)
	Backend storage.TokenStore
}

// New creates a new application with all dependencies wired
func New(cfg config.Config, opts Options) (*App, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	// Use no-op logger if not provided
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}

	app := &App{}

	backend := opts.Backend
	if backend == nil {
		defaultBackend := opts.DefaultBackend
		if defaultBackend == "" {
			defaultBackend = config.BackendMemory
		}
		var err error
		backend, err = app.newBackend(cfg, cfg.BackendOr(defaultBackend))
		if err != nil {
			return nil, err
		}
	}

	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.HTTPTimeout}
	}

	app.Registry = prometheus.NewRegistry()
	app.Registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	app.Metrics = metrics.NewCollector(app.Registry)

	app.Backend = backend
	app.Sessions = session.New(backend, session.Config{
		Slot:   cfg.SessionSlot,
		Logger: logger.With(slog.String("component", "session")),
	})
	app.Guard = auth.New(app.Sessions, logger.With(slog.String("component", "auth")))
	app.Identity = identity.New(app.Sessions, identity.Config{
		BaseURL:          cfg.BaseURL,
		APIKey:           cfg.APIKey,
		HTTPClient:       httpClient,
		Logger:           logger.With(slog.String("component", "identity")),
		Metrics:          app.Metrics,
		RejectConcurrent: opts.RejectConcurrent,
	})

	return app, nil
}

func (a *App) newBackend(cfg config.Config, kind string) (storage.TokenStore, error) {
	switch kind {
	case config.BackendMemory:
		return memory.New(), nil
	case config.BackendFile:
		return file.New(cfg.SessionDir), nil
	case config.BackendRedis:
		redisCfg := redisstorage.DefaultConfig()
		redisCfg.URL = cfg.RedisURL
		redisCfg.SlotTTL = cfg.SessionTTL
		store, err := redisstorage.New(redisCfg)
		if err != nil {
			return nil, fmt.Errorf("connect session backend: %w", err)
		}
		a.closers = append(a.closers, store)
		return store, nil
	default:
		return nil, fmt.Errorf("invalid session backend %q: must be memory, file or redis", kind)
	}
}

// Close releases backend connections
func (a *App) Close() error {
	var firstErr error
	for _, c := range a.closers {
		if err := c.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	a.closers = nil
	return firstErr
}
