package web

import (
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/mcoot/proplatform/internal/web/handler"
	"github.com/mcoot/proplatform/internal/web/middleware"
)

// RouterConfig holds configuration for the web router
type RouterConfig struct {
	Logger   *slog.Logger
	Accounts handler.Accounts
	Sessions handler.SessionWriter
	Guard    handler.Guard
	// Metrics serves /metrics when set
	Metrics http.Handler
}

// NewRouter creates a new web router with all routes configured
func NewRouter(cfg RouterConfig) http.Handler {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	r := mux.NewRouter()

	// Apply global middleware to all routes
	r.Use(middleware.Recovery(logger))
	r.Use(middleware.Logging(logger))

	// Create handlers
	homeHandler := handler.NewHomeHandler(logger)
	authHandler := handler.NewAuthHandler(cfg.Accounts, cfg.Sessions, cfg.Guard, logger)
	profileHandler := handler.NewProfileHandler(cfg.Accounts, logger)
	healthHandler := handler.NewHealthHandler(cfg.Guard, logger)

	// Operational routes
	r.HandleFunc("/healthz", healthHandler.Health).Methods(http.MethodGet)
	if cfg.Metrics != nil {
		r.Handle("/metrics", cfg.Metrics).Methods(http.MethodGet)
	}

	// Pages resolve the session state once per request
	pages := r.NewRoute().Subrouter()
	pages.Use(middleware.Flash())
	pages.Use(middleware.Session(cfg.Guard, logger))
	pages.HandleFunc("/", homeHandler.Home).Methods(http.MethodGet)
	pages.HandleFunc("/logout", authHandler.Logout).Methods(http.MethodPost)

	// Anonymous-only pages
	guest := pages.NewRoute().Subrouter()
	guest.Use(middleware.RedirectAuthenticated())
	guest.HandleFunc("/register", authHandler.RegisterPage).Methods(http.MethodGet)
	guest.HandleFunc("/register", authHandler.Register).Methods(http.MethodPost)
	guest.HandleFunc("/login", authHandler.LoginPage).Methods(http.MethodGet)
	guest.HandleFunc("/login", authHandler.Login).Methods(http.MethodPost)

	// Protected routes (require auth)
	protected := pages.NewRoute().Subrouter()
	protected.Use(middleware.RequireAuth())
	protected.HandleFunc("/welcome", profileHandler.Welcome).Methods(http.MethodGet)
	protected.HandleFunc("/profile", profileHandler.Profile).Methods(http.MethodGet)
	protected.HandleFunc("/profile", profileHandler.UpdateProfile).Methods(http.MethodPost)

	return r
}
