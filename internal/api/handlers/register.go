package handlers

import (
	"net/http"

	"go.opentelemetry.io/otel/trace"

	"github.com/moolen/pulse/internal/analysis"
	"github.com/moolen/pulse/internal/catalog"
	"github.com/moolen/pulse/internal/logging"
	"github.com/moolen/pulse/internal/source"
	"github.com/moolen/pulse/internal/store"
)

// MethodWrapper enforces an HTTP method on a handler func.
type MethodWrapper func(method string, handler http.HandlerFunc) http.HandlerFunc

// RegisterHandlers wires all v1 API handlers onto the router.
func RegisterHandlers(
	router *http.ServeMux,
	st *store.Store,
	cat *catalog.Catalog,
	engine *analysis.Engine,
	registry *source.Registry,
	sweep SweepInfo,
	logger *logging.Logger,
	tracer trace.Tracer,
	withMethod MethodWrapper,
) {
	summaryHandler := NewSummaryHandler(st, cat, sweep, logger, tracer)
	router.HandleFunc("/v1/summary", withMethod(http.MethodGet, summaryHandler.Handle))

	timelineHandler := NewTimelineHandler(st, cat, logger, tracer)
	router.HandleFunc("/v1/timeline", withMethod(http.MethodGet, timelineHandler.Handle))

	metricsHandler := NewMetricsHandler(cat, st, logger, tracer)
	router.HandleFunc("/v1/metrics", withMethod(http.MethodGet, metricsHandler.Handle))

	anomalyHandler := NewAnomalyHandler(engine, logger, tracer)
	router.HandleFunc("/v1/anomalies", withMethod(http.MethodGet, anomalyHandler.Handle))

	sourcesHandler := NewSourcesHandler(registry, logger, tracer)
	router.HandleFunc("/v1/sources", withMethod(http.MethodGet, sourcesHandler.Handle))

	lintHandler := NewLintHandler(logger, tracer)
	router.HandleFunc("/v1/manifest/lint", withMethod(http.MethodPost, lintHandler.Handle))
}
