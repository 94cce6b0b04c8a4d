package api

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/MikeSquared-Agency/Impact/internal/simulator"
)

func NewRouter(sim *simulator.Simulator, adminToken string, rateLimit int, logger *slog.Logger) http.Handler {
	r := chi.NewRouter()

	r.Use(chiMiddleware.Recoverer)
	r.Use(chiMiddleware.RequestID)
	r.Use(RequestLogger(logger))
	r.Use(RateLimitMiddleware(rateLimit))

	personas := NewPersonasHandler(sim)
	services := NewServicesHandler(sim)
	simulation := NewSimulationHandler(sim)

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/touchpoints", simulation.TouchPoints)
		r.Get("/model", simulation.Model)
		r.Get("/simulation", simulation.Current)
		r.Post("/simulation", simulation.Evaluate)

		r.Get("/personas", personas.List)
		r.Get("/personas/{id}", personas.Get)
		r.Get("/personas/{id}/journey", personas.Journey)

		r.Get("/services", services.List)
		r.Get("/services/{id}", services.Get)
		r.Get("/services/{id}/impact", services.Impact)

		r.Group(func(r chi.Router) {
			r.Use(AdminAuthMiddleware(adminToken))
			r.Post("/personas", personas.Create)
			r.Patch("/personas/{id}", personas.Update)
			r.Delete("/personas/{id}", personas.Delete)

			r.Post("/services", services.Create)
			r.Patch("/services/{id}", services.Update)
			r.Delete("/services/{id}", services.Delete)
			r.Post("/services/{id}/toggle", services.Toggle)
		})
	})

	return r
}

// NewMetricsRouter serves health and Prometheus metrics from g.
func NewMetricsRouter(g prometheus.Gatherer) http.Handler {
	r := chi.NewRouter()
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Handle("/metrics", promhttp.HandlerFor(g, promhttp.HandlerOpts{}))
	return r
}
