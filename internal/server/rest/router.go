package rest

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Handler builds the chi router.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(s.requestLogger)
	r.Use(chimiddleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: s.opts.CORSOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: []string{"Content-Type", "Authorization"},
		MaxAge:         86400,
	}))
	r.Use(s.metrics.Middleware)

	r.Handle("/metrics", promhttp.HandlerFor(s.metrics.Registry, promhttp.HandlerOpts{}))

	r.Route("/api", func(r chi.Router) {
		r.Get("/health", s.health)
		r.Get("/entries", s.listEntries)
		r.Get("/stats", s.stats)
		r.Get("/dates", s.dates)

		r.Route("/admin", func(r chi.Router) {
			r.With(s.loginLimiter()).Post("/login", s.login)

			r.Group(func(r chi.Router) {
				r.Use(s.requireAdmin)

				r.Post("/logout", s.logout)
				r.Get("/verify", s.verify)
				r.Post("/entries", s.createEntry)
				r.Put("/entries/{id}", s.updateEntry)
				r.Delete("/entries/{id}", s.deleteEntry)
				r.Post("/import", s.importEntries)
				r.Get("/export", s.exportEntries)
				r.Delete("/clear-all", s.clearAll)
				r.Get("/settings", s.getSettings)
				r.Put("/settings", s.updateSettings)
			})
		})
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusNotFound, "Not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
	})

	return r
}

func (s *Server) loginLimiter() func(http.Handler) http.Handler {
	if s.opts.LoginRateLimit <= 0 {
		return func(next http.Handler) http.Handler { return next }
	}
	return httprate.Limit(s.opts.LoginRateLimit, time.Minute,
		httprate.WithKeyFuncs(httprate.KeyByIP),
		httprate.WithLimitHandler(func(w http.ResponseWriter, r *http.Request) {
			s.metrics.LoginAttempts.WithLabelValues("limited").Inc()
			writeError(w, http.StatusTooManyRequests, "Too many login attempts")
		}),
	)
}
