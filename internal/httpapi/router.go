package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/impulsa-ai/brenda/pkg/logging"
)

// Config holds router configuration.
type Config struct {
	Logger         *logging.Logger
	WebhookHandler *WebhookHandler
	HealthHandler  *HealthHandler
	MetricsHandler http.Handler
}

// NewRouter creates a Chi router with all routes configured.
func NewRouter(cfg *Config) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Compress(5))
	if cfg.Logger != nil {
		r.Use(requestLogger(cfg.Logger))
	}

	r.Get("/healthz", cfg.HealthHandler.Live)
	r.Get("/readyz", cfg.HealthHandler.Ready)
	r.Post("/webhooks/telegram", cfg.WebhookHandler.Handle)
	if cfg.MetricsHandler != nil {
		r.Handle("/metrics", cfg.MetricsHandler)
	}

	return r
}
