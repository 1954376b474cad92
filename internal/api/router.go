package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"

	"github.com/baharkarakas/point-ledger/internal/api/handlers"
	"github.com/baharkarakas/point-ledger/internal/config"
	"github.com/baharkarakas/point-ledger/internal/metrics"
	"github.com/baharkarakas/point-ledger/internal/middleware"
)

func NewRouter(cfg config.Config, ledger handlers.Ledger) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID, middleware.Recover, middleware.HTTPMetrics)

	// health & metrics stay outside the rate limit
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) { _, _ = w.Write([]byte("ok")) })
	r.Handle("/metrics", metrics.Handler())

	points := handlers.NewPointHandler(ledger)
	r.Group(func(r chi.Router) {
		r.Use(middleware.RateLimit(cfg.RateRPS))
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins: []string{"*"},
			AllowedMethods: []string{"GET", "PATCH", "OPTIONS"},
			AllowedHeaders: []string{"*"},
		}))
		r.Route("/api/v1/points/{userID}", func(r chi.Router) {
			r.Get("/", points.Balance)
			r.Get("/histories", points.Histories)
			r.Patch("/charge", points.Charge)
			r.Patch("/use", points.Use)
		})
	})

	return r
}
