package handlers

import (
	"fmt"
	"math"
	"net/http"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/moolen/pulse/internal/api"
	"github.com/moolen/pulse/internal/catalog"
	"github.com/moolen/pulse/internal/logging"
	"github.com/moolen/pulse/internal/store"
	"github.com/moolen/pulse/internal/units"
)

// SweepInfo exposes collector state needed by the summary endpoint.
type SweepInfo interface {
	LastSweep() time.Time
	RefreshInterval() time.Duration
}

// SummaryHandler handles /v1/summary requests.
type SummaryHandler struct {
	store   *store.Store
	catalog *catalog.Catalog
	sweep   SweepInfo
	logger  *logging.Logger
	tracer  trace.Tracer
}

// NewSummaryHandler creates a new handler
func NewSummaryHandler(st *store.Store, cat *catalog.Catalog, sweep SweepInfo, logger *logging.Logger, tracer trace.Tracer) *SummaryHandler {
	return &SummaryHandler{
		store:   st,
		catalog: cat,
		sweep:   sweep,
		logger:  logger,
		tracer:  tracer,
	}
}

// SummarySeries is the latest state of one series of a metric.
type SummarySeries struct {
	Labels    map[string]string `json:"labels,omitempty"`
	Value     float64           `json:"value"`
	Formatted string            `json:"formatted"`
	Timestamp time.Time         `json:"timestamp"`
	Mean      float64           `json:"mean"`

	// DeltaPercent is the percent difference of the latest value against
	// the window mean: (value/mean - 1) * 100. Zero when the mean is
	// (close to) zero.
	DeltaPercent float64 `json:"delta_percent"`

	Status string `json:"status"`
}

// SummaryMetric groups the series of one catalog metric.
type SummaryMetric struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Unit        string          `json:"unit"`
	WarnAt      float64         `json:"warn_at,omitempty"`
	CriticalAt  float64         `json:"critical_at,omitempty"`
	Series      []SummarySeries `json:"series"`
}

// SummaryResponse is the /v1/summary payload.
type SummaryResponse struct {
	Metrics         []SummaryMetric `json:"metrics"`
	LastSweep       time.Time       `json:"last_sweep"`
	RefreshInterval string          `json:"refresh_interval"`
	Window          string          `json:"window"`
}

// Handle processes summary requests
func (h *SummaryHandler) Handle(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var span trace.Span
	if h.tracer != nil {
		_, span = h.tracer.Start(ctx, "summary.Handle")
		defer span.End()
	}

	window, err := parseWindow(r, api.DefaultWindow)
	if err != nil {
		if span != nil {
			span.RecordError(err)
		}
		api.WriteError(w, http.StatusBadRequest, string(api.ErrorCodeInvalidRequest), err.Error())
		return
	}

	if span != nil {
		span.SetAttributes(attribute.String("window", window.String()))
	}

	now := time.Now()
	metrics := make([]SummaryMetric, 0, h.catalog.Len())
	for _, metric := range h.catalog.List() {
		metrics = append(metrics, h.summarizeMetric(metric, window, now))
	}

	response := SummaryResponse{
		Metrics:         metrics,
		LastSweep:       h.sweep.LastSweep(),
		RefreshInterval: h.sweep.RefreshInterval().String(),
		Window:          window.String(),
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = api.WriteJSON(w, response)
}

// summarizeMetric builds the latest-value view of one metric: the current
// value per series plus its delta against the windowed mean.
func (h *SummaryHandler) summarizeMetric(metric catalog.Metric, window time.Duration, now time.Time) SummaryMetric {
	out := SummaryMetric{
		Name:        metric.Name,
		Description: metric.Description,
		Unit:        string(metric.Unit),
		WarnAt:      metric.WarnAt,
		CriticalAt:  metric.CriticalAt,
		Series:      []SummarySeries{},
	}

	for _, stats := range h.store.Stats(metric.Name, window, now) {
		status := "ok"
		if metric.HasThresholds() {
			switch {
			case stats.Latest.Value >= metric.CriticalAt:
				status = "critical"
			case stats.Latest.Value >= metric.WarnAt:
				status = "warning"
			}
		}

		out.Series = append(out.Series, SummarySeries{
			Labels:       stats.Labels,
			Value:        stats.Latest.Value,
			Formatted:    formatValue(metric.Unit, stats.Latest.Value),
			Timestamp:    stats.Latest.Timestamp,
			Mean:         stats.Mean,
			DeltaPercent: deltaPercent(stats.Latest.Value, stats.Mean),
			Status:       status,
		})
	}

	return out
}

// deltaPercent is the percent change of value against mean. A series
// whose windowed mean is near zero has no meaningful percent delta.
func deltaPercent(value, mean float64) float64 {
	if math.Abs(mean) < 1e-9 {
		return 0
	}
	return (value/mean - 1) * 100
}

// formatValue renders a value in its catalog unit.
func formatValue(unit catalog.Unit, value float64) string {
	switch unit {
	case catalog.UnitPercent:
		return units.FormatPercent(value)
	case catalog.UnitBytesPerSecond:
		return units.FormatRate(value)
	case catalog.UnitOpsPerSecond:
		return units.FormatOps(value)
	default:
		return fmt.Sprintf("%.2f", value)
	}
}
