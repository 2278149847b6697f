package server

import (
	"github.com/areaoforigin/narrator/internal/observability"
	"github.com/areaoforigin/narrator/internal/server/handlers"
)

// registerRoutes registers all HTTP routes
func (s *Server) registerRoutes() {
	health := s.opts.Health
	if health == nil {
		health = handlers.NewHealthManager(s.opts.Build.Version, s.opts.Deployment)
	}
	s.router.Get("/health", health.HealthHandler)
	s.router.Get("/health/live", health.LivenessHandler)
	s.router.Get("/health/ready", health.ReadinessHandler)

	s.router.Get("/version", handlers.NewVersionHandler(s.opts.Build, s.opts.Deployment))

	s.router.Get("/metrics", metricsHandler(newMetricsClient(), observability.MetricsURL))

	s.registerNarratorRoutes()
}

func (s *Server) registerNarratorRoutes() {
	if s.svc == nil {
		return
	}

	h := handlers.NewNarratorHandlers(s.svc, s.opts.MaxUploadBytes)
	s.router.Post("/generate-narrative", h.GenerateNarrative)
	s.router.Post("/generate-upload-url", h.GenerateUploadURL)
	s.router.Get("/get-image-url", h.GetImageURL)
	s.router.Post("/generate-summary", h.GenerateSummary)
	s.router.Post("/grammar-check", h.GrammarCheck)
}
