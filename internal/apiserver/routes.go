package apiserver

import (
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/moolen/pulse/internal/api/handlers"
)

// registerHandlers registers all HTTP handlers
func (s *Server) registerHandlers(cfg Config) {
	// Register v1 API handlers
	s.registerHTTPHandlers(cfg)

	// Register health and readiness endpoints
	s.registerHealthEndpoints()

	// Register Prometheus self-metrics endpoint
	s.registerMetricsEndpoint()
}

// registerHTTPHandlers registers all v1 API handlers
func (s *Server) registerHTTPHandlers(cfg Config) {
	tracer := s.getTracer("pulse.api")

	handlers.RegisterHandlers(
		s.router,
		cfg.Store,
		cfg.Catalog,
		cfg.Engine,
		cfg.Registry,
		cfg.Sweep,
		s.logger,
		tracer,
		s.withMethod,
	)
}

// registerHealthEndpoints registers health and readiness check endpoints
func (s *Server) registerHealthEndpoints() {
	s.router.HandleFunc("/healthz", s.handleHealth)
	s.router.HandleFunc("/readyz", s.handleReady)
}

// registerMetricsEndpoint exposes the process's own Prometheus metrics
func (s *Server) registerMetricsEndpoint() {
	s.router.Handle("/metrics", promhttp.Handler())
}
