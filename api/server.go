/*
server.go - HTTP router and middleware configuration

PURPOSE:
  Configures the HTTP router (chi), middleware stack, and route definitions.
  This is the wiring layer that connects URLs to handlers.

MIDDLEWARE STACK:
  1. Logger:     Request logging
  2. Recoverer:  Panic recovery (500 instead of crash)
  3. RequestID:  Unique ID per request for tracing
  4. CORS:       Cross-origin requests for frontend
  5. httprate:   Rate limit on report exports (they hit the whole period)

ROUTE GROUPS:
  /api/periods/*        Reporting periods, timecards, projects
  /api/reports/*        CSV exports

SECURITY NOTE:
  No authentication middleware currently. The user identity arrives as a
  request parameter; deployments front this with an authenticating proxy.

SEE ALSO:
  - handlers.go: Handler implementations
  - cmd/server/main.go: Server startup
*/
package api

import (
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
)

// NewRouter creates a new router with all routes configured.
func NewRouter(h *Handler) *chi.Mux {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"http://localhost:5173", "http://localhost:8080"},
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
	}))

	// API routes
	r.Route("/api", func(r chi.Router) {
		// Reporting period routes
		r.Route("/periods", func(r chi.Router) {
			r.Get("/", h.ListPeriods)
			r.Post("/", h.CreatePeriod)

			r.Route("/{start}", func(r chi.Router) {
				r.Get("/projects", h.ListProjects)
				r.Get("/timecard", h.OpenTimecard)
				r.Post("/timecard", h.SaveTimecard)
				r.Post("/timecard/submit", h.SubmitTimecard)
			})
		})

		// Report routes
		r.Route("/reports", func(r chi.Router) {
			r.Use(httprate.Limit(10, time.Minute, httprate.WithKeyFuncs(httprate.KeyByIP)))
			r.Get("/periods/{start}.csv", h.PeriodCSV)
		})
	})

	return r
}
