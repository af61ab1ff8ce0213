// Package prometheus provides the Prometheus metric source for Pulse.
// Each instance wraps one Prometheus server and evaluates PromQL instant
// queries against its /api/v1/query endpoint.
package prometheus

import (
	"context"
	"fmt"
	"sync"
	"time"

	promclient "github.com/prometheus/client_golang/prometheus"

	"github.com/moolen/pulse/internal/logging"
	"github.com/moolen/pulse/internal/model"
	"github.com/moolen/pulse/internal/source"
)

const sourceVersion = "1.0.0"

func init() {
	// Register the Prometheus factory with the global registry
	if err := source.RegisterFactory("prometheus", NewPrometheusSource); err != nil {
		// Log but don't fail - factory might already be registered in tests
		logger := logging.GetLogger("source.prometheus")
		logger.Warn("Failed to register prometheus factory: %v", err)
	}
}

// PrometheusSource implements the Source interface for Prometheus servers.
type PrometheusSource struct {
	name    string
	url     string
	client  *Client
	logger  *logging.Logger
	mu      sync.RWMutex
	healthy bool
}

// NewPrometheusSource creates a new Prometheus source instance.
// Required config keys:
//   - url: base URL of the Prometheus server
//
// Optional config keys:
//   - timeout: query timeout as a duration string (default "10s")
func NewPrometheusSource(name string, config map[string]interface{}) (source.Source, error) {
	rawURL, ok := config["url"].(string)
	if !ok || rawURL == "" {
		return nil, fmt.Errorf("prometheus source requires 'url' in config")
	}

	timeout := time.Duration(0)
	if rawTimeout, ok := config["timeout"].(string); ok && rawTimeout != "" {
		parsed, err := time.ParseDuration(rawTimeout)
		if err != nil {
			return nil, fmt.Errorf("invalid timeout %q: %w", rawTimeout, err)
		}
		timeout = parsed
	}

	metrics := NewMetrics(promclient.DefaultRegisterer, name)

	return &PrometheusSource{
		name:   name,
		url:    rawURL,
		client: NewClient(rawURL, timeout, metrics),
		logger: logging.GetLogger("source.prometheus." + name),
	}, nil
}

// Metadata returns the source's identifying information.
func (p *PrometheusSource) Metadata() source.Metadata {
	return source.Metadata{
		Name:        p.name,
		Version:     sourceVersion,
		Description: "Prometheus metric source",
		Type:        "prometheus",
	}
}

// Start validates connectivity by probing the "up" metric.
// A failed probe returns an error so the manager marks the instance degraded.
func (p *PrometheusSource) Start(ctx context.Context) error {
	p.logger.Info("Starting Prometheus source: %s (url: %s)", p.name, p.url)

	if err := p.client.Probe(ctx); err != nil {
		p.setHealthy(false)
		return fmt.Errorf("failed to connect to Prometheus at %s: %w", p.url, err)
	}

	p.setHealthy(true)
	p.logger.Info("Prometheus source started successfully")
	return nil
}

// Stop shuts down the source instance.
func (p *PrometheusSource) Stop(ctx context.Context) error {
	p.logger.Info("Stopping Prometheus source: %s", p.name)
	p.setHealthy(false)
	return nil
}

// Health probes the instance and returns its current health status.
func (p *PrometheusSource) Health(ctx context.Context) source.HealthStatus {
	p.mu.RLock()
	healthy := p.healthy
	p.mu.RUnlock()

	if !healthy {
		return source.Degraded
	}

	if err := p.client.Probe(ctx); err != nil {
		p.setHealthy(false)
		return source.Degraded
	}

	return source.Healthy
}

// Query evaluates a PromQL instant query at the given timestamp.
func (p *PrometheusSource) Query(ctx context.Context, expr string, ts time.Time) ([]model.Sample, error) {
	return p.client.Query(ctx, expr, ts)
}

func (p *PrometheusSource) setHealthy(healthy bool) {
	p.mu.Lock()
	p.healthy = healthy
	p.mu.Unlock()
}
