package handlers

import (
	"net/http"

	"go.opentelemetry.io/otel/trace"

	"github.com/moolen/pulse/internal/api"
	"github.com/moolen/pulse/internal/logging"
	"github.com/moolen/pulse/internal/source"
)

// SourcesHandler handles /v1/sources requests.
type SourcesHandler struct {
	registry *source.Registry
	logger   *logging.Logger
	tracer   trace.Tracer
}

// NewSourcesHandler creates a new handler
func NewSourcesHandler(registry *source.Registry, logger *logging.Logger, tracer trace.Tracer) *SourcesHandler {
	return &SourcesHandler{
		registry: registry,
		logger:   logger,
		tracer:   tracer,
	}
}

// SourceStatus describes one registered source instance.
type SourceStatus struct {
	Name        string `json:"name"`
	Type        string `json:"type"`
	Version     string `json:"version"`
	Description string `json:"description,omitempty"`
	Health      string `json:"health"`
}

// SourcesResponse is the /v1/sources payload.
type SourcesResponse struct {
	Sources []SourceStatus `json:"sources"`
}

// Handle lists all registered source instances with their health.
func (h *SourcesHandler) Handle(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var span trace.Span
	if h.tracer != nil {
		ctx, span = h.tracer.Start(ctx, "sources.Handle")
		defer span.End()
	}

	names := h.registry.List()
	sources := make([]SourceStatus, 0, len(names))
	for _, name := range names {
		instance, ok := h.registry.Get(name)
		if !ok {
			continue
		}
		meta := instance.Metadata()
		sources = append(sources, SourceStatus{
			Name:        meta.Name,
			Type:        meta.Type,
			Version:     meta.Version,
			Description: meta.Description,
			Health:      instance.Health(ctx).String(),
		})
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = api.WriteJSON(w, SourcesResponse{Sources: sources})
}
