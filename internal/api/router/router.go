package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/wolfman30/contact-dispatch/internal/http/handlers"
	httpmiddleware "github.com/wolfman30/contact-dispatch/internal/http/middleware"
	"github.com/wolfman30/contact-dispatch/pkg/logging"
)

// Config holds router configuration
type Config struct {
	Logger             *logging.Logger
	ContactsHandler    *handlers.ContactsHandler
	DispatchHandler    *handlers.DispatchHandler
	HealthHandler      *handlers.HealthHandler
	RateLimiter        httpmiddleware.Admitter
	MetricsHandler     http.Handler
	CORSAllowedOrigins []string
}

// New creates a new Chi router with all routes configured
func New(cfg *Config) http.Handler {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	if len(cfg.CORSAllowedOrigins) > 0 {
		r.Use(httpmiddleware.CORS(cfg.CORSAllowedOrigins))
	}
	if cfg.Logger != nil {
		r.Use(httpmiddleware.RequestLogger(cfg.Logger))
	}

	if cfg.MetricsHandler != nil {
		r.Handle("/metrics", cfg.MetricsHandler)
	}

	r.Route("/api", func(api chi.Router) {
		if cfg.HealthHandler != nil {
			api.Get("/health", cfg.HealthHandler.Health)
		}
		if cfg.DispatchHandler != nil {
			api.Get("/job-status/{jobID}", cfg.DispatchHandler.JobStatus)
		}

		// Work-producing endpoints are admitted per client before any parsing.
		api.Group(func(limited chi.Router) {
			limited.Use(httpmiddleware.RateLimit(cfg.RateLimiter))
			if cfg.ContactsHandler != nil {
				limited.Post("/contacts/validate", cfg.ContactsHandler.Validate)
				limited.Post("/contacts/vcard", cfg.ContactsHandler.VCard)
				limited.Post("/detect-columns", cfg.ContactsHandler.DetectColumns)
			}
			if cfg.DispatchHandler != nil {
				limited.Post("/send-whatsapp-batch", cfg.DispatchHandler.SendBatch)
			}
		})
	})

	return r
}
