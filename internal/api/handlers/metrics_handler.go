package handlers

import (
	"net/http"

	"go.opentelemetry.io/otel/trace"

	"github.com/moolen/pulse/internal/api"
	"github.com/moolen/pulse/internal/catalog"
	"github.com/moolen/pulse/internal/logging"
	"github.com/moolen/pulse/internal/store"
)

// MetricsHandler handles /v1/metrics requests.
type MetricsHandler struct {
	catalog *catalog.Catalog
	store   *store.Store
	logger  *logging.Logger
	tracer  trace.Tracer
}

// NewMetricsHandler creates a new handler
func NewMetricsHandler(cat *catalog.Catalog, st *store.Store, logger *logging.Logger, tracer trace.Tracer) *MetricsHandler {
	return &MetricsHandler{
		catalog: cat,
		store:   st,
		logger:  logger,
		tracer:  tracer,
	}
}

// MetricInfo describes one catalog metric.
type MetricInfo struct {
	Name        string            `json:"name"`
	Queries     map[string]string `json:"queries"`
	Unit        string            `json:"unit"`
	Description string            `json:"description"`
	WarnAt      float64           `json:"warn_at,omitempty"`
	CriticalAt  float64           `json:"critical_at,omitempty"`
	SeriesCount int               `json:"series_count"`
}

// MetricsResponse is the /v1/metrics payload.
type MetricsResponse struct {
	Metrics []MetricInfo `json:"metrics"`
}

// Handle lists the metric catalog with per-metric series counts.
func (h *MetricsHandler) Handle(w http.ResponseWriter, r *http.Request) {
	var span trace.Span
	if h.tracer != nil {
		_, span = h.tracer.Start(r.Context(), "metrics.Handle")
		defer span.End()
	}

	metrics := make([]MetricInfo, 0, h.catalog.Len())
	for _, metric := range h.catalog.List() {
		metrics = append(metrics, MetricInfo{
			Name:        metric.Name,
			Queries:     metric.Queries,
			Unit:        string(metric.Unit),
			Description: metric.Description,
			WarnAt:      metric.WarnAt,
			CriticalAt:  metric.CriticalAt,
			SeriesCount: len(h.store.Latest(metric.Name)),
		})
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = api.WriteJSON(w, MetricsResponse{Metrics: metrics})
}
