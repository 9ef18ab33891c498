package router

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/followuphq/followup/internal/http/handlers"
	httpmiddleware "github.com/followuphq/followup/internal/http/middleware"
	"github.com/followuphq/followup/internal/leads"
	"github.com/followuphq/followup/internal/session"
	"github.com/followuphq/followup/pkg/logging"
)

// Config holds router configuration
type Config struct {
	Logger           *logging.Logger
	LeadsHandler     *leads.Handler
	DashboardHandler *handlers.DashboardHandler
	SignoutHandler   *session.SignoutHandler

	// Session resolution: HS256 JWTs signed with SessionSecret, or opaque
	// tokens looked up in SessionStore.
	SessionSecret string
	SessionStore  *session.Store

	MetricsHandler     http.Handler
	HTTPMetrics        *httpmiddleware.HTTPMetrics
	CORSAllowedOrigins []string

	// Per-IP rate limiting; disabled when RateLimitPerSecond <= 0.
	RateLimitPerSecond float64
	RateLimitBurst     int
}

// New creates a new Chi router with all routes configured
func New(cfg *Config) http.Handler {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Compress(5))
	if len(cfg.CORSAllowedOrigins) > 0 {
		r.Use(httpmiddleware.CORS(cfg.CORSAllowedOrigins))
	}
	if cfg.Logger != nil {
		r.Use(httpmiddleware.RequestLogger(cfg.Logger))
	}
	if cfg.HTTPMetrics != nil {
		r.Use(cfg.HTTPMetrics.Middleware)
	}
	if cfg.RateLimitPerSecond > 0 {
		r.Use(httpmiddleware.RateLimit(cfg.RateLimitPerSecond, cfg.RateLimitBurst))
	}

	// Public endpoints
	r.Group(func(public chi.Router) {
		public.Get("/health", healthCheck)
		if cfg.MetricsHandler != nil {
			public.Handle("/metrics", cfg.MetricsHandler)
		}
	})

	// Authenticated API routes
	r.Route("/api", func(api chi.Router) {
		api.Use(session.Auth(cfg.SessionSecret, cfg.SessionStore))

		api.Route("/leads", func(r chi.Router) {
			r.Get("/", cfg.LeadsHandler.List)
			r.Post("/", cfg.LeadsHandler.Save)
			// Legacy clients pass the id as a query parameter.
			r.Delete("/", cfg.LeadsHandler.Delete)
			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", cfg.LeadsHandler.Get)
				r.Patch("/", cfg.LeadsHandler.Update)
				r.Delete("/", cfg.LeadsHandler.Delete)
			})
		})

		if cfg.DashboardHandler != nil {
			api.Get("/dashboard", cfg.DashboardHandler.GetDashboard)
		}
		if cfg.SignoutHandler != nil {
			api.Post("/auth/signout", cfg.SignoutHandler.Signout)
		}
	})

	return r
}

func healthCheck(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}
