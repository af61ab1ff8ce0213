package apiserver

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"go.opentelemetry.io/otel/trace"

	"github.com/moolen/pulse/internal/analysis"
	"github.com/moolen/pulse/internal/api"
	"github.com/moolen/pulse/internal/api/handlers"
	"github.com/moolen/pulse/internal/catalog"
	"github.com/moolen/pulse/internal/logging"
	"github.com/moolen/pulse/internal/source"
	"github.com/moolen/pulse/internal/store"
)

// ReadinessChecker is an interface for checking component readiness
type ReadinessChecker interface {
	IsReady() bool
}

// NoOpReadinessChecker is a ReadinessChecker that always returns true.
// Use this when no readiness checking is needed.
type NoOpReadinessChecker struct{}

// IsReady always returns true for the no-op checker.
func (n *NoOpReadinessChecker) IsReady() bool {
	return true
}

// TracingProvider supplies tracers for request handlers.
type TracingProvider interface {
	GetTracer(name string) trace.Tracer
	IsEnabled() bool
}

// Config holds dependencies and settings for the API server.
type Config struct {
	Port             int
	Store            *store.Store
	Catalog          *catalog.Catalog
	Engine           *analysis.Engine
	Registry         *source.Registry
	Sweep            handlers.SweepInfo
	ReadinessChecker ReadinessChecker
	TracingProvider  TracingProvider
}

// Server handles HTTP API requests.
type Server struct {
	port             int
	server           *http.Server
	router           *http.ServeMux
	logger           *logging.Logger
	readinessChecker ReadinessChecker
	tracingProvider  TracingProvider
}

// New creates an API server with all v1 routes registered.
func New(cfg Config) *Server {
	s := &Server{
		port:             cfg.Port,
		router:           http.NewServeMux(),
		logger:           logging.GetLogger("api"),
		readinessChecker: cfg.ReadinessChecker,
		tracingProvider:  cfg.TracingProvider,
	}

	if s.readinessChecker == nil {
		s.readinessChecker = &NoOpReadinessChecker{}
	}

	s.registerHandlers(cfg)
	s.configureHTTPServer(cfg.Port)

	return s
}

// configureHTTPServer creates the HTTP server with middleware and timeouts
func (s *Server) configureHTTPServer(port int) {
	handler := s.requestIDMiddleware(s.corsMiddleware(s.router))

	s.server = &http.Server{
		Addr:         fmt.Sprintf(":%d", port),
		Handler:      handler,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
}

// Start implements the lifecycle.Component interface.
// Starts the HTTP server and begins listening for requests.
func (s *Server) Start(ctx context.Context) error {
	s.logger.Info("Starting API server on port %d", s.port)

	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	go func() {
		if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			s.logger.Error("HTTP server error: %v", err)
		}
	}()

	s.logger.Info("API server started and listening on port %d", s.port)
	return nil
}

// Stop implements the lifecycle.Component interface.
// Gracefully stops the HTTP server.
func (s *Server) Stop(ctx context.Context) error {
	s.logger.Info("Stopping API server...")

	done := make(chan error, 1)
	go func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		done <- s.server.Shutdown(shutdownCtx)
	}()

	select {
	case err := <-done:
		if err != nil {
			s.logger.Error("HTTP server shutdown error: %v", err)
			return err
		}
		s.logger.Info("API server stopped")
		return nil
	case <-ctx.Done():
		s.logger.Warn("API server shutdown timeout")
		return ctx.Err()
	}
}

// handleHealth handles health check requests
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	response := map[string]interface{}{
		"status": "healthy",
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = api.WriteJSON(w, response)
}

// handleReady handles readiness check requests
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	ready := s.readinessChecker != nil && s.readinessChecker.IsReady()

	response := map[string]interface{}{
		"ready": ready,
	}

	if ready {
		w.WriteHeader(http.StatusOK)
	} else {
		w.WriteHeader(http.StatusServiceUnavailable)
	}

	_ = api.WriteJSON(w, response)
}

// GetPort returns the port the server is listening on
func (s *Server) GetPort() int {
	return s.port
}

// IsRunning checks if the server is running
func (s *Server) IsRunning() bool {
	return s.server != nil
}

// Name implements the lifecycle.Component interface
func (s *Server) Name() string {
	return "API Server"
}

// getTracer returns a tracer from the provider, or nil when tracing is off.
func (s *Server) getTracer(name string) trace.Tracer {
	if s.tracingProvider == nil || !s.tracingProvider.IsEnabled() {
		return nil
	}
	return s.tracingProvider.GetTracer(name)
}
