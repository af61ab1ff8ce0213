package source

import (
	"context"
	"time"

	"github.com/moolen/pulse/internal/model"
)

// Source defines the lifecycle and query contract for all metric sources.
// Sources are compiled into Pulse (in-tree) and can run multiple instances
// with different configurations (e.g., prom-prod, prom-staging).
type Source interface {
	// Metadata returns the source's identifying information
	Metadata() Metadata

	// Start initializes the source instance with the provided context.
	// Returns error if initialization fails (e.g., invalid config, connection failure).
	// Failed connections should not prevent startup - mark instance as Degraded instead.
	Start(ctx context.Context) error

	// Stop gracefully shuts down the source instance.
	// Should wait for in-flight operations with timeout, then force stop.
	Stop(ctx context.Context) error

	// Health returns the current health status of the source instance.
	// Used for monitoring and auto-recovery (periodic health checks).
	Health(ctx context.Context) HealthStatus

	// Query evaluates an instant query expression at the given timestamp and
	// returns the resulting samples. The expression dialect is source-specific
	// (PromQL for prometheus, the Datadog query language for datadog).
	Query(ctx context.Context, expr string, ts time.Time) ([]model.Sample, error)
}

// Metadata holds identifying information for a source instance.
type Metadata struct {
	// Name is the unique instance name (e.g., "prom-prod")
	Name string

	// Version is the source implementation version (e.g., "1.0.0")
	Version string

	// Description is a human-readable description of the source
	Description string

	// Type is the source type (e.g., "prometheus")
	// Multiple instances of the same Type can exist with different Names
	Type string
}

// HealthStatus represents the current health state of a source instance.
type HealthStatus int

const (
	// Healthy indicates the source is functioning normally
	Healthy HealthStatus = iota

	// Degraded indicates connection failed but instance remains registered
	// Queries against this instance will return errors until health recovers
	Degraded

	// Stopped indicates the source was explicitly stopped
	Stopped
)

// String returns the string representation of HealthStatus
func (h HealthStatus) String() string {
	switch h {
	case Healthy:
		return "healthy"
	case Degraded:
		return "degraded"
	case Stopped:
		return "stopped"
	default:
		return "unknown"
	}
}
