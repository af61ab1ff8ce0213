package handlers

import (
	"bytes"
	"io"
	"net/http"
	"sort"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/moolen/pulse/internal/api"
	"github.com/moolen/pulse/internal/logging"
	"github.com/moolen/pulse/internal/manifest"
)

// maxManifestSize caps the request body for lint requests.
const maxManifestSize = 1 << 20 // 1 MiB

// LintHandler handles POST /v1/manifest/lint requests. The request body
// is the raw requirements manifest text.
type LintHandler struct {
	logger *logging.Logger
	tracer trace.Tracer
}

// NewLintHandler creates a new handler
func NewLintHandler(logger *logging.Logger, tracer trace.Tracer) *LintHandler {
	return &LintHandler{
		logger: logger,
		tracer: tracer,
	}
}

// LintResponse is the /v1/manifest/lint payload.
type LintResponse struct {
	Requirements []manifest.Requirement `json:"requirements"`
	Findings     []manifest.Finding     `json:"findings"`
	HasErrors    bool                   `json:"has_errors"`
}

// Handle lints a manifest submitted in the request body.
func (h *LintHandler) Handle(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var span trace.Span
	if h.tracer != nil {
		_, span = h.tracer.Start(ctx, "lint.Handle")
		defer span.End()
	}

	body, err := io.ReadAll(io.LimitReader(r.Body, maxManifestSize+1))
	if err != nil {
		if span != nil {
			span.RecordError(err)
		}
		api.WriteError(w, http.StatusBadRequest, string(api.ErrorCodeInvalidRequest), "failed to read request body")
		return
	}
	if len(body) > maxManifestSize {
		api.WriteError(w, http.StatusRequestEntityTooLarge, string(api.ErrorCodeInvalidRequest), "manifest exceeds 1MiB limit")
		return
	}

	file, findings, err := manifest.Parse(bytes.NewReader(body))
	if err != nil {
		if span != nil {
			span.RecordError(err)
		}
		api.WriteError(w, http.StatusInternalServerError, string(api.ErrorCodeInternalError), err.Error())
		return
	}

	findings = append(findings, file.Lint()...)
	sort.SliceStable(findings, func(i, j int) bool {
		return findings[i].Line < findings[j].Line
	})

	if span != nil {
		span.SetAttributes(
			attribute.Int("requirements", len(file.Requirements)),
			attribute.Int("findings", len(findings)),
		)
	}

	h.logger.Debug("Linted manifest: %d requirement(s), %d finding(s)",
		len(file.Requirements), len(findings))

	if findings == nil {
		findings = []manifest.Finding{}
	}

	response := LintResponse{
		Requirements: file.Requirements,
		Findings:     findings,
		HasErrors:    manifest.HasErrors(findings),
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = api.WriteJSON(w, response)
}
