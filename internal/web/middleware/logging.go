package middleware

import (
	"log/slog"
	"net/http"

	"github.com/mcoot/proplatform/internal/middleware"
)

// quietPaths are polled by tooling and logged at debug level
var quietPaths = []string{"/healthz", "/metrics"}

// Logging creates request logging middleware for the web console
func Logging(logger *slog.Logger) func(http.Handler) http.Handler {
	return middleware.Logging(logger, quietPaths...)
}
