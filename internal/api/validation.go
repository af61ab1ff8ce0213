package api

import (
	"fmt"
	"time"
)

const (
	// DefaultWindow is the lookback used when requests omit ?window=
	DefaultWindow = 15 * time.Minute

	// MaxWindow caps the lookback a request may ask for
	MaxWindow = 24 * time.Hour
)

// ParseWindow validates a ?window= query value. Empty input yields the
// fallback. The window must be a positive duration no larger than MaxWindow.
func ParseWindow(raw string, fallback time.Duration) (time.Duration, error) {
	if raw == "" {
		return fallback, nil
	}

	window, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid window %q: %w", raw, err)
	}
	if window <= 0 {
		return 0, fmt.Errorf("window must be positive, got %q", raw)
	}
	if window > MaxWindow {
		return 0, fmt.Errorf("window %q exceeds maximum %s", raw, MaxWindow)
	}

	return window, nil
}
