package handlers

import (
	"net/http"
	"time"

	"github.com/moolen/pulse/internal/api"
)

// parseWindow reads and validates the ?window= query parameter.
func parseWindow(r *http.Request, fallback time.Duration) (time.Duration, error) {
	return api.ParseWindow(r.URL.Query().Get("window"), fallback)
}
