// Package datadog provides the Datadog metric source for Pulse.
// Each instance wraps one Datadog account and evaluates metric queries
// against the v1 query API.
package datadog

import (
	"context"
	"fmt"
	"os"
	"sync"
	"time"

	promclient "github.com/prometheus/client_golang/prometheus"

	"github.com/moolen/pulse/internal/logging"
	"github.com/moolen/pulse/internal/model"
	"github.com/moolen/pulse/internal/source"
)

const sourceVersion = "1.0.0"

func init() {
	if err := source.RegisterFactory("datadog", NewDatadogSource); err != nil {
		logger := logging.GetLogger("source.datadog")
		logger.Warn("Failed to register datadog factory: %v", err)
	}
}

// DatadogSource implements the Source interface for Datadog accounts.
type DatadogSource struct {
	name    string
	site    string
	client  *Client
	logger  *logging.Logger
	mu      sync.RWMutex
	healthy bool
}

// NewDatadogSource creates a new Datadog source instance.
// Config keys:
//   - api_key: Datadog API key (falls back to DD_API_KEY env var)
//   - app_key: Datadog application key (falls back to DD_APP_KEY env var)
//   - site: API base URL (optional, default "https://api.datadoghq.com")
//   - timeout: query timeout as a duration string (optional, default "10s")
func NewDatadogSource(name string, config map[string]interface{}) (source.Source, error) {
	apiKey, _ := config["api_key"].(string)
	if apiKey == "" {
		apiKey = os.Getenv("DD_API_KEY")
	}
	if apiKey == "" {
		return nil, fmt.Errorf("datadog source requires 'api_key' in config or DD_API_KEY env var")
	}

	appKey, _ := config["app_key"].(string)
	if appKey == "" {
		appKey = os.Getenv("DD_APP_KEY")
	}
	if appKey == "" {
		return nil, fmt.Errorf("datadog source requires 'app_key' in config or DD_APP_KEY env var")
	}

	site, _ := config["site"].(string)

	timeout := time.Duration(0)
	if rawTimeout, ok := config["timeout"].(string); ok && rawTimeout != "" {
		parsed, err := time.ParseDuration(rawTimeout)
		if err != nil {
			return nil, fmt.Errorf("invalid timeout %q: %w", rawTimeout, err)
		}
		timeout = parsed
	}

	metrics := NewMetrics(promclient.DefaultRegisterer, name)

	return &DatadogSource{
		name:   name,
		site:   site,
		client: NewClient(site, apiKey, appKey, timeout, metrics),
		logger: logging.GetLogger("source.datadog." + name),
	}, nil
}

// Metadata returns the source's identifying information.
func (d *DatadogSource) Metadata() source.Metadata {
	return source.Metadata{
		Name:        d.name,
		Version:     sourceVersion,
		Description: "Datadog metric source",
		Type:        "datadog",
	}
}

// Start validates the configured API keys against /api/v1/validate.
func (d *DatadogSource) Start(ctx context.Context) error {
	d.logger.Info("Starting Datadog source: %s", d.name)

	if err := d.client.Validate(ctx); err != nil {
		d.setHealthy(false)
		return fmt.Errorf("failed to validate Datadog credentials: %w", err)
	}

	d.setHealthy(true)
	d.logger.Info("Datadog source started successfully")
	return nil
}

// Stop shuts down the source instance.
func (d *DatadogSource) Stop(ctx context.Context) error {
	d.logger.Info("Stopping Datadog source: %s", d.name)
	d.setHealthy(false)
	return nil
}

// Health validates credentials and returns the current health status.
func (d *DatadogSource) Health(ctx context.Context) source.HealthStatus {
	d.mu.RLock()
	healthy := d.healthy
	d.mu.RUnlock()

	if !healthy {
		return source.Degraded
	}

	if err := d.client.Validate(ctx); err != nil {
		d.setHealthy(false)
		return source.Degraded
	}

	return source.Healthy
}

// Query evaluates a Datadog metric query at the given timestamp.
func (d *DatadogSource) Query(ctx context.Context, expr string, ts time.Time) ([]model.Sample, error) {
	return d.client.Query(ctx, expr, ts)
}

func (d *DatadogSource) setHealthy(healthy bool) {
	d.mu.Lock()
	d.healthy = healthy
	d.mu.Unlock()
}
