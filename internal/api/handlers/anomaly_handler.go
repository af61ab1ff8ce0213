package handlers

import (
	"net/http"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/moolen/pulse/internal/analysis"
	"github.com/moolen/pulse/internal/api"
	"github.com/moolen/pulse/internal/logging"
)

// AnomalyHandler handles /v1/anomalies requests.
type AnomalyHandler struct {
	engine *analysis.Engine
	logger *logging.Logger
	tracer trace.Tracer
}

// NewAnomalyHandler creates a new handler
func NewAnomalyHandler(engine *analysis.Engine, logger *logging.Logger, tracer trace.Tracer) *AnomalyHandler {
	return &AnomalyHandler{
		engine: engine,
		logger: logger,
		tracer: tracer,
	}
}

// AnomalyResponse is the /v1/anomalies payload.
type AnomalyResponse struct {
	Anomalies       []analysis.Anomaly `json:"anomalies"`
	Window          string             `json:"window"`
	ExecutionTimeMs int64              `json:"execution_time_ms"`
}

// Handle processes anomaly detection requests
func (h *AnomalyHandler) Handle(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	startTime := time.Now()

	var span trace.Span
	if h.tracer != nil {
		_, span = h.tracer.Start(ctx, "anomaly.Handle")
		defer span.End()
	}

	window, err := parseWindow(r, analysis.DefaultWindow)
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

	anomalies := h.engine.Analyze(window, time.Now())
	if anomalies == nil {
		anomalies = []analysis.Anomaly{}
	}

	elapsed := time.Since(startTime).Milliseconds()
	h.logger.Debug("Anomaly analysis completed: %d anomalies found in %dms", len(anomalies), elapsed)

	response := AnomalyResponse{
		Anomalies:       anomalies,
		Window:          window.String(),
		ExecutionTimeMs: elapsed,
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = api.WriteJSON(w, response)
}
