package handlers

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// conditionalHTTPLogger only logs HTTP requests when HTTP logging is enabled
func (h *Handlers) conditionalHTTPLogger(next http.Handler) http.Handler {
	logger := middleware.Logger(next)
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if h.Log != nil && h.Log.IsHTTPLoggingEnabled() {
			logger.ServeHTTP(w, r)
		} else {
			next.ServeHTTP(w, r)
		}
	})
}

// Router returns a configured chi router with all routes
func (h *Handlers) Router() chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(h.conditionalHTTPLogger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RedirectSlashes)

	// Websocket connections outlive any request timeout
	if h.Hub != nil {
		r.Get("/ws", h.Hub.ServeWs)
	}
	if h.Metrics != nil {
		r.Handle("/metrics", h.Metrics.Handler())
	}

	r.Group(func(r chi.Router) {
		r.Use(middleware.Timeout(60 * time.Second))

		// Static files (served from embedded filesystem)
		if h.staticServer != nil {
			r.Handle("/static/*", http.StripPrefix("/static/", h.staticServer))
		}

		// Pages (public)
		r.Get("/", h.handleIndex)
		r.Get("/score", h.handleScorePage)
		r.Get("/scorecards/{id}", h.handleScorecardPage)

		// Auth routes (public)
		r.Get("/admin/login", h.handleLoginPage)
		r.Post("/admin/login", h.handleLogin)
		r.Post("/admin/logout", h.handleLogout)

		// Admin pages (protected)
		r.Group(func(r chi.Router) {
			r.Use(h.Auth.RequireAuth)
			r.Get("/admin", h.handleAdminDashboard)
		})

		r.Route("/api", func(r chi.Router) {
			// Picker gestures arrive at pointer rate, so they skip the per-IP budget
			r.Post("/bouts/{id}/picker/{action}", h.handlePicker)

			r.Group(func(r chi.Router) {
				if h.Limiter != nil {
					r.Use(RateLimit(h.Limiter))
				}

				// Bouts
				r.Post("/bouts", h.handleStartBout)
				r.Get("/bouts/{id}", h.handleGetBout)
				r.Post("/bouts/{id}/winner", h.handleRecordWinner)
				r.Put("/bouts/{id}/names", h.handleSetNames)
				r.Put("/bouts/{id}/rounds/{round}", h.handleSetRound)
				r.Post("/bouts/{id}/finalize", h.handleFinalize)
				r.Post("/bouts/{id}/reset", h.handleReset)

				// Schedule
				r.Get("/fights", h.handleListFights)
				r.Get("/fights/{id}/analytics", h.handleRoundAnalytics)

				// Saved scorecards
				r.Get("/scorecards", h.handleListScorecards)
				r.Get("/scorecards/{id}", h.handleGetScorecard)
				r.Get("/scorecards/{id}/qr", h.handleScorecardQR)

				// Admin API (protected)
				r.Route("/admin", func(r chi.Router) {
					r.Use(h.Auth.RequireAuthAPI)

					r.Get("/settings", h.handleGetSettings)
					r.Put("/settings", h.handleUpdateSettings)
					r.Post("/settings", h.handleUpdateSettings)
					r.Get("/stats", h.handleGetStats)
					r.Delete("/scorecards/{id}", h.handleDeleteScorecard)
					r.Post("/fights/refresh", h.handleRefreshFights)
					r.Post("/fights/seed", h.handleSeedFights)
					r.Post("/reset-database", h.handleResetDatabase)
				})
			})
		})
	})

	return r
}
