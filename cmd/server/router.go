package main

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/wrenhollow/recall-api/internal/api"
	apiMiddleware "github.com/wrenhollow/recall-api/internal/api/middleware"
)

// setupRouter configures the application router with all routes and
// middleware.
func (app *application) setupRouter() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(apiMiddleware.TraceMiddleware)
	r.Use(app.metrics.Middleware)

	accessTokenTTL := time.Duration(app.config.Auth.TokenLifetimeMinutes) * time.Minute
	authHandler := api.NewAuthHandler(
		app.userStore,
		app.jwtService,
		app.passwordVerifier,
		accessTokenTTL,
	)
	authMiddleware := apiMiddleware.NewAuthMiddleware(app.jwtService)

	itemHandler := api.NewItemHandler(app.studyService, app.metrics, app.logger)

	r.Route("/api", func(r chi.Router) {
		// Authentication endpoints (public)
		r.Post("/auth/register", authHandler.Register)
		r.Post("/auth/login", authHandler.Login)
		r.Post("/auth/refresh", authHandler.RefreshToken)

		// Protected routes
		r.Group(func(r chi.Router) {
			r.Use(authMiddleware.Authenticate)

			// Item management
			r.Post("/items", itemHandler.CreateItem)
			r.Post("/items/import", itemHandler.ImportItems)
			r.Get("/items", itemHandler.ListItems)
			r.Delete("/items/{id}", itemHandler.DeleteItem)

			// Study session
			r.Get("/items/next", itemHandler.NextItem)
			r.Post("/items/{id}/review", itemHandler.SubmitReview)
			r.Post("/session/advance", itemHandler.AdvanceSession)
			r.Post("/session/shuffle", itemHandler.ShuffleSession)

			// Scheduler introspection
			r.Get("/items/{id}/retention", itemHandler.ItemRetention)
			r.Get("/schedule", itemHandler.SchedulePreview)
			r.Get("/stats", itemHandler.Stats)
		})
	})

	r.Handle("/metrics", promhttp.Handler())

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write([]byte("OK")); err != nil {
			app.logger.Error("Failed to write health check response", "error", err)
		}
	})

	return r
}
