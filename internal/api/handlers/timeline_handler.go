package handlers

import (
	"fmt"
	"net/http"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/moolen/pulse/internal/api"
	"github.com/moolen/pulse/internal/catalog"
	"github.com/moolen/pulse/internal/logging"
	"github.com/moolen/pulse/internal/model"
	"github.com/moolen/pulse/internal/store"
)

// TimelineHandler handles /v1/timeline requests.
type TimelineHandler struct {
	store   *store.Store
	catalog *catalog.Catalog
	logger  *logging.Logger
	tracer  trace.Tracer
}

// NewTimelineHandler creates a new handler
func NewTimelineHandler(st *store.Store, cat *catalog.Catalog, logger *logging.Logger, tracer trace.Tracer) *TimelineHandler {
	return &TimelineHandler{
		store:   st,
		catalog: cat,
		logger:  logger,
		tracer:  tracer,
	}
}

// timelineInput holds validated request parameters.
type timelineInput struct {
	Metric catalog.Metric
	Window time.Duration
}

// TimelineResponse is the /v1/timeline payload.
type TimelineResponse struct {
	Metric string         `json:"metric"`
	Unit   string         `json:"unit"`
	Window string         `json:"window"`
	Series []model.Series `json:"series"`
}

// Handle processes timeline requests
func (h *TimelineHandler) Handle(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var span trace.Span
	if h.tracer != nil {
		_, span = h.tracer.Start(ctx, "timeline.Handle")
		defer span.End()
	}

	input, err := h.parseInput(r)
	if err != nil {
		if span != nil {
			span.RecordError(err)
		}
		api.WriteError(w, http.StatusBadRequest, string(api.ErrorCodeInvalidRequest), err.Error())
		return
	}

	if span != nil {
		span.SetAttributes(
			attribute.String("metric", input.Metric.Name),
			attribute.String("window", input.Window.String()),
		)
	}

	now := time.Now()
	series := h.store.Range(input.Metric.Name, now.Add(-input.Window), now)

	h.logger.Debug("Timeline for %s over %s: %d series", input.Metric.Name, input.Window, len(series))

	response := TimelineResponse{
		Metric: input.Metric.Name,
		Unit:   string(input.Metric.Unit),
		Window: input.Window.String(),
		Series: series,
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = api.WriteJSON(w, response)
}

// parseInput validates query parameters against the catalog.
func (h *TimelineHandler) parseInput(r *http.Request) (timelineInput, error) {
	name := r.URL.Query().Get("metric")
	if name == "" {
		return timelineInput{}, fmt.Errorf("missing required parameter: metric")
	}

	metric, ok := h.catalog.Get(name)
	if !ok {
		return timelineInput{}, fmt.Errorf("unknown metric %q", name)
	}

	window, err := parseWindow(r, api.DefaultWindow)
	if err != nil {
		return timelineInput{}, err
	}

	return timelineInput{Metric: metric, Window: window}, nil
}
