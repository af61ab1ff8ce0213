package lifecycle

import "context"

// Component is the lifecycle contract for everything the manager
// orchestrates: the store, the source manager, the collector, and the
// API server.
type Component interface {
	// Start initializes and starts the component. The context can
	// signal shutdown or carry deadlines. Must be safe to call once
	// per process; returns an error if initialization fails.
	Start(ctx context.Context) error

	// Stop gracefully stops the component, completing in-flight work
	// within the context deadline. Errors are logged by the manager
	// but do not prevent other components from stopping.
	Stop(ctx context.Context) error

	// Name returns a non-empty human-readable component name used in
	// logs and dependency declarations.
	Name() string
}
