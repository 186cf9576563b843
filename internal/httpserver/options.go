package httpserver

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/cospark/hubspot-proxy/internal/log"
)

type Options struct {
	Logger       log.Logger
	Port         int
	UseRecoverMW bool
	OnPanic      func()

	// AllowedOrigins is the origin allow-list enforced on every request,
	// including health checks. "*" admits any non-empty Origin header.
	AllowedOrigins []string
	OnCORSDenied   func(origin string)

	// APIRoutes registers the application routes on the router.
	APIRoutes func(chi.Router)

	MetricsMW func(http.Handler) http.Handler

	// MaxBodyBytes caps request body size. Zero means DefaultMaxBodyBytes.
	MaxBodyBytes int64
}
