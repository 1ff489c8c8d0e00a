/*
server.go - HTTP router and middleware configuration

PURPOSE:
  Configures the chi router, middleware stack, and route definitions.
  This is the wiring layer that connects URLs to handlers.

MIDDLEWARE STACK:
  1. Logger:     Request logging
  2. Recoverer:  Panic recovery (500 instead of crash)
  3. RequestID:  Unique ID per request for tracing
  4. Instrument: Prometheus request counters/latencies
  5. RateLimit:  Per-client token bucket
  6. CORS:       Cross-origin requests for the frontend

SEE ALSO:
  - handlers.go: Handler implementations
  - cmd/server/main.go: Server startup
*/
package api

import (
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// NewRouter creates a new router with all routes configured.
func NewRouter(h *Handler, limiter *RateLimiter) *chi.Mux {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(Instrument)
	if limiter != nil {
		r.Use(limiter.Handler)
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"http://localhost:5173", "http://localhost:8080"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
	}))

	// API routes
	r.Route("/api", func(r chi.Router) {
		// Catalog routes
		r.Route("/items", func(r chi.Router) {
			r.Get("/", h.ListItems)
			r.Post("/", h.CreateItem)
			r.Delete("/{id}", h.DeleteItem)
			r.Post("/{id}/price", h.ChangePrice)
			r.Post("/{id}/name", h.ChangeDisplayName)
			r.Post("/{id}/category", h.ChangeCategory)
			r.Post("/{id}/enable", h.EnableItem)
			r.Post("/{id}/disable", h.DisableItem)
		})

		// Shop routes
		r.Post("/shop/consume", h.Consume)
		r.Get("/accounts", h.ListAccounts)
		r.Get("/history", h.ListHistory)

		// Statistics routes
		r.Route("/stats", func(r chi.Router) {
			r.Get("/items", h.ItemSales)
			r.Get("/spenders", h.TopSpenders)
			r.Get("/hours", h.HourlyActivity)
			r.Get("/balances", h.BalanceTotals)
		})

		// Admin routes
		r.Post("/admin/metrics/reset", h.ResetMetrics)
	})

	// Prometheus exposition
	r.Handle("/metrics", PromHandler())

	return r
}
