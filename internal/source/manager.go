package source

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/hashicorp/go-version"
	"github.com/moolen/pulse/internal/config"
	"github.com/moolen/pulse/internal/logging"
)

// ManagerConfig holds configuration for the source Manager.
type ManagerConfig struct {
	// ConfigPath is the path to the sources YAML file
	ConfigPath string

	// HealthCheckInterval is how often to check source health for auto-recovery
	// Default: 30 seconds
	HealthCheckInterval time.Duration

	// ShutdownTimeout is the maximum time to wait for instances to stop gracefully
	// Default: 10 seconds
	ShutdownTimeout time.Duration

	// MinSourceVersion is the minimum required source implementation version.
	// If set, sources with older versions will be rejected during startup.
	// Format: semantic version string (e.g., "1.0.0")
	MinSourceVersion string
}

// Manager orchestrates the lifecycle of all source instances.
// It handles:
// - Version validation on startup
// - Starting enabled instances from config
// - Health monitoring with auto-recovery
// - Hot-reload on config changes (full restart)
// - Graceful shutdown with timeout
type Manager struct {
	config       ManagerConfig
	registry     *Registry
	watcher      *config.SourcesWatcher
	healthCancel context.CancelFunc
	stopped      chan struct{}
	started      bool
	mu           sync.RWMutex
	logger       *logging.Logger

	// minVersion is the parsed minimum version constraint
	minVersion *version.Version
}

// NewManager creates a new source lifecycle manager.
// Returns error if ConfigPath is empty or MinSourceVersion is invalid.
func NewManager(cfg ManagerConfig) (*Manager, error) {
	if cfg.ConfigPath == "" {
		return nil, fmt.Errorf("ConfigPath cannot be empty")
	}

	if cfg.HealthCheckInterval == 0 {
		cfg.HealthCheckInterval = 30 * time.Second
	}
	if cfg.ShutdownTimeout == 0 {
		cfg.ShutdownTimeout = 10 * time.Second
	}

	m := &Manager{
		config:   cfg,
		registry: NewRegistry(),
		stopped:  make(chan struct{}),
		logger:   logging.GetLogger("source.manager"),
	}

	if cfg.MinSourceVersion != "" {
		minVer, err := version.NewVersion(cfg.MinSourceVersion)
		if err != nil {
			return nil, fmt.Errorf("invalid MinSourceVersion %q: %w", cfg.MinSourceVersion, err)
		}
		m.minVersion = minVer
		m.logger.Debug("Minimum source version: %s", cfg.MinSourceVersion)
	}

	return m, nil
}

// Name returns the component name for lifecycle management.
func (m *Manager) Name() string {
	return "source-manager"
}

// Start initializes the manager and starts all enabled source instances.
// Performs version validation before starting any instances.
// Returns error if:
// - Initial config load fails
// - Any instance version is below minimum
// - Config watcher fails to start
func (m *Manager) Start(ctx context.Context) error {
	m.logger.Info("Starting source manager")

	watcherConfig := config.SourcesWatcherConfig{
		FilePath:       m.config.ConfigPath,
		DebounceMillis: 500,
	}
	watcher, err := config.NewSourcesWatcher(watcherConfig, m.handleConfigChange)
	if err != nil {
		return fmt.Errorf("failed to create config watcher: %w", err)
	}
	m.watcher = watcher

	// The watcher loads the initial config and delivers it through the
	// callback, so first startup and hot reload share one code path and
	// instances are never started twice.
	if err := m.watcher.Start(ctx); err != nil {
		m.stopAllInstances(ctx)
		return fmt.Errorf("failed to start config watcher: %w", err)
	}

	healthCtx, cancel := context.WithCancel(context.Background())
	m.healthCancel = cancel
	go m.runHealthChecks(healthCtx)

	m.logger.Info("Source manager started successfully with %d instances", len(m.registry.List()))
	return nil
}

// Stop gracefully stops the manager, config watcher, and all source instances.
func (m *Manager) Stop(ctx context.Context) error {
	m.logger.Info("Stopping source manager")

	if m.healthCancel != nil {
		m.healthCancel()
	}

	if m.watcher != nil {
		if err := m.watcher.Stop(); err != nil {
			m.logger.Warn("Error stopping config watcher: %v", err)
		}
	}

	m.stopAllInstances(ctx)

	close(m.stopped)

	m.logger.Info("Source manager stopped")
	return nil
}

// GetRegistry returns the instance registry for collectors and API handlers to query.
func (m *Manager) GetRegistry() *Registry {
	return m.registry
}

// startInstances validates versions and starts all enabled instances from config.
// Returns error if any version validation fails.
// Instance start failures are logged and marked degraded, but don't fail the manager.
func (m *Manager) startInstances(ctx context.Context, sourcesFile *config.SourcesFile) error {
	m.logger.Info("Starting %d source instance(s)", len(sourcesFile.Instances))

	for _, instanceConfig := range sourcesFile.Instances {
		if !instanceConfig.Enabled {
			m.logger.Debug("Skipping disabled instance: %s", instanceConfig.Name)
			continue
		}

		factory, ok := GetFactory(instanceConfig.Type)
		if !ok {
			m.logger.Error("No factory registered for source type %q (instance: %s)",
				instanceConfig.Type, instanceConfig.Name)
			continue
		}

		instance, err := factory(instanceConfig.Name, instanceConfig.Config)
		if err != nil {
			m.logger.Error("Failed to create instance %s (type: %s): %v",
				instanceConfig.Name, instanceConfig.Type, err)
			continue
		}

		if err := m.validateInstanceVersion(instance); err != nil {
			return err // Fail fast on version mismatch
		}

		if err := m.registry.Register(instanceConfig.Name, instance); err != nil {
			m.logger.Error("Failed to register instance %s: %v", instanceConfig.Name, err)
			continue
		}

		if err := instance.Start(ctx); err != nil {
			m.logger.Error("Failed to start instance %s: %v (marking as degraded)", instanceConfig.Name, err)
			// Instance is registered but degraded - continue with other instances
		} else {
			m.logger.Info("Started instance: %s (type: %s, version: %s)",
				instanceConfig.Name, instanceConfig.Type, instance.Metadata().Version)
		}
	}

	return nil
}

// validateInstanceVersion checks if instance version meets minimum requirements.
func (m *Manager) validateInstanceVersion(instance Source) error {
	if m.minVersion == nil {
		return nil
	}

	metadata := instance.Metadata()
	instanceVer, err := version.NewVersion(metadata.Version)
	if err != nil {
		return fmt.Errorf("instance %s has invalid version %q: %w",
			metadata.Name, metadata.Version, err)
	}

	if instanceVer.LessThan(m.minVersion) {
		return fmt.Errorf("instance %s version %s is below minimum required version %s",
			metadata.Name, metadata.Version, m.minVersion.String())
	}

	m.logger.Debug("Instance %s version %s validated (>= %s)",
		metadata.Name, metadata.Version, m.minVersion.String())
	return nil
}

// handleConfigChange is the watcher callback. The first delivery is the
// initial config during Start, when nothing is running yet; every later
// delivery is a file change and performs a full restart.
func (m *Manager) handleConfigChange(cfg *config.SourcesFile) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.started {
		m.started = true
		return m.startInstances(context.Background(), cfg)
	}
	return m.reloadLocked(cfg)
}

// reloadLocked performs a full restart: stop all instances, re-validate
// versions, start new instances. Caller must hold m.mu.
func (m *Manager) reloadLocked(newConfig *config.SourcesFile) error {
	m.logger.Info("Config reload triggered - restarting all source instances")

	ctx, cancel := context.WithTimeout(context.Background(), m.config.ShutdownTimeout)
	defer cancel()
	m.stopAllInstancesLocked(ctx)

	for _, name := range m.registry.List() {
		m.registry.Remove(name)
	}

	if err := m.startInstances(context.Background(), newConfig); err != nil {
		// Log error but don't crash - we'll keep running with empty registry
		m.logger.Error("Failed to start instances after config reload: %v", err)
		return err
	}

	m.logger.Info("Config reload complete - %d instances running", len(m.registry.List()))
	return nil
}

// runHealthChecks periodically checks instance health and attempts auto-recovery.
func (m *Manager) runHealthChecks(ctx context.Context) {
	ticker := time.NewTicker(m.config.HealthCheckInterval)
	defer ticker.Stop()

	m.logger.Debug("Health check loop started (interval: %s)", m.config.HealthCheckInterval)

	for {
		select {
		case <-ctx.Done():
			m.logger.Debug("Health check loop stopped")
			return

		case <-ticker.C:
			m.performHealthChecks(ctx)
		}
	}
}

// performHealthChecks checks health of all instances and attempts recovery.
func (m *Manager) performHealthChecks(ctx context.Context) {
	m.mu.RLock()
	instanceNames := m.registry.List()
	m.mu.RUnlock()

	for _, name := range instanceNames {
		m.mu.RLock()
		instance, ok := m.registry.Get(name)
		m.mu.RUnlock()

		if !ok {
			continue
		}

		healthStatus := instance.Health(ctx)

		if healthStatus == Degraded {
			m.logger.Debug("Instance %s is degraded, attempting recovery", name)
			if err := instance.Start(ctx); err != nil {
				m.logger.Debug("Recovery failed for instance %s: %v", name, err)
			} else {
				m.logger.Info("Instance %s recovered successfully", name)
			}
		}
	}
}

// stopAllInstances stops all registered instances with timeout.
func (m *Manager) stopAllInstances(ctx context.Context) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.stopAllInstancesLocked(ctx)
}

// stopAllInstancesLocked stops all instances - caller must hold write lock.
func (m *Manager) stopAllInstancesLocked(ctx context.Context) {
	instanceNames := m.registry.List()
	m.logger.Debug("Stopping %d instance(s)", len(instanceNames))

	for _, name := range instanceNames {
		instance, ok := m.registry.Get(name)
		if !ok {
			continue
		}

		stopCtx, cancel := context.WithTimeout(ctx, m.config.ShutdownTimeout)
		if err := instance.Stop(stopCtx); err != nil {
			m.logger.Warn("Error stopping instance %s: %v", name, err)
		} else {
			m.logger.Debug("Stopped instance: %s", name)
		}
		cancel()
	}
}
