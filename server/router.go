package server

import (
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/mynextid/private-score/server/api"
	"github.com/prometheus/client_golang/prometheus"
)

func setupRouter(server *api.Server, cfg *ServeConfig, logger Logger, reg *prometheus.Registry) *chi.Mux {
	r := chi.NewRouter()
	m := newHTTPMetrics(reg)

	// Core middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(loggerMiddleware(logger))
	r.Use(m.middleware)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(cfg.WriteTimeout))
	r.Use(middleware.RequestSize(cfg.MaxRequestSize))

	// CORS middleware
	if cfg.EnableCORS {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins:   cfg.CorsOrigins,
			AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE"},
			AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
			ExposedHeaders:   []string{"X-Request-ID"},
			AllowCredentials: false,
			MaxAge:           300,
		}))
	}

	// Compression
	r.Use(middleware.Compress(5))

	// Health and readiness
	r.Get("/health", server.HandleHealth)
	r.Handle("/metrics", metricsHandler(reg))
	r.Get("/openapi.json", server.HandleOpenAPI)

	// Circuit and pool info
	r.Get("/circuits", server.HandleListCircuits)
	r.Get("/circuits/{circuit}", server.HandleGetCircuit)
	r.Get("/pools", server.HandleListPools)

	r.Route("/wallets/{address}", func(r chi.Router) {
		r.Get("/score", server.HandleScore)

		// Owner operations
		r.Group(func(r chi.Router) {
			r.Use(api.RequireWallet([]byte(cfg.JWTSecret)))

			r.Post("/commitment", server.HandleRegister)
			r.Put("/commitment", server.HandleUpdate)
			r.Get("/commitment", server.HandleGetCommitment)
			r.Delete("/commitment", server.HandleRevoke)
			r.Post("/prove/{circuit}", server.HandleProve)
		})
	})

	r.Post("/verify/{circuit}", server.HandleVerify)

	// Pprof (debug only)
	if cfg.EnablePprof {
		r.Mount("/debug", middleware.Profiler())
	}

	return r
}
