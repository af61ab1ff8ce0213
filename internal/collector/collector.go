// Package collector periodically sweeps all healthy source instances for
// the metric catalog and appends the resulting samples to the store.
package collector

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/moolen/pulse/internal/catalog"
	"github.com/moolen/pulse/internal/logging"
	"github.com/moolen/pulse/internal/model"
	"github.com/moolen/pulse/internal/source"
	"github.com/moolen/pulse/internal/store"
)

const (
	// DefaultRefreshInterval matches the dashboard's default refresh rate.
	DefaultRefreshInterval = 15 * time.Second

	// queryGap is the pause between consecutive queries against one
	// source instance, to avoid hammering it within a sweep.
	queryGap = 100 * time.Millisecond
)

// Config holds collector configuration.
type Config struct {
	// RefreshInterval is the time between sweeps. Default: 15s.
	RefreshInterval time.Duration
}

// Collector drives the collection loop. It implements lifecycle.Component.
type Collector struct {
	cfg      Config
	catalog  *catalog.Catalog
	registry *source.Registry
	store    *store.Store
	logger   *logging.Logger
	metrics  *Metrics

	cancel context.CancelFunc
	done   chan struct{}
	ready  atomic.Bool

	mu        sync.Mutex
	lastSweep time.Time
	running   bool
}

// New creates a collector over the given catalog, source registry and store.
func New(cfg Config, cat *catalog.Catalog, registry *source.Registry, st *store.Store, metrics *Metrics) *Collector {
	if cfg.RefreshInterval == 0 {
		cfg.RefreshInterval = DefaultRefreshInterval
	}

	return &Collector{
		cfg:      cfg,
		catalog:  cat,
		registry: registry,
		store:    st,
		logger:   logging.GetLogger("collector"),
		metrics:  metrics,
	}
}

// Name returns the component name for lifecycle management.
func (c *Collector) Name() string {
	return "collector"
}

// Start launches the collection loop. The first sweep runs immediately;
// subsequent sweeps run every RefreshInterval.
func (c *Collector) Start(ctx context.Context) error {
	c.mu.Lock()
	if c.running {
		c.mu.Unlock()
		return fmt.Errorf("collector already started")
	}
	c.running = true
	c.mu.Unlock()

	loopCtx, cancel := context.WithCancel(context.Background())
	c.cancel = cancel
	c.done = make(chan struct{})

	go c.run(loopCtx)

	c.logger.Info("Collector started (interval: %s, metrics: %d)",
		c.cfg.RefreshInterval, c.catalog.Len())
	return nil
}

// Stop terminates the collection loop and waits for the current sweep
// to finish or the context to expire.
func (c *Collector) Stop(ctx context.Context) error {
	c.mu.Lock()
	if !c.running {
		c.mu.Unlock()
		return nil
	}
	c.running = false
	c.mu.Unlock()

	c.cancel()

	select {
	case <-c.done:
	case <-ctx.Done():
		return fmt.Errorf("timed out waiting for collector to stop: %w", ctx.Err())
	}

	c.logger.Info("Collector stopped")
	return nil
}

// IsReady reports whether at least one full sweep has completed.
// The API server uses this for its readiness probe.
func (c *Collector) IsReady() bool {
	return c.ready.Load()
}

// LastSweep returns the completion time of the most recent sweep.
func (c *Collector) LastSweep() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastSweep
}

// RefreshInterval returns the configured sweep interval.
func (c *Collector) RefreshInterval() time.Duration {
	return c.cfg.RefreshInterval
}

func (c *Collector) run(ctx context.Context) {
	defer close(c.done)

	c.Sweep(ctx)

	ticker := time.NewTicker(c.cfg.RefreshInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.Sweep(ctx)
		}
	}
}

// Sweep queries every registered source for every catalog metric and
// appends the results to the store. Sources are swept concurrently;
// metrics within one source are queried sequentially with a short gap.
func (c *Collector) Sweep(ctx context.Context) {
	start := time.Now()

	names := c.registry.List()
	if len(names) == 0 {
		c.logger.Debug("No source instances registered, skipping sweep")
		c.finishSweep(start)
		return
	}

	g, sweepCtx := errgroup.WithContext(ctx)
	for _, name := range names {
		instance, ok := c.registry.Get(name)
		if !ok {
			continue
		}
		g.Go(func() error {
			c.sweepSource(sweepCtx, name, instance)
			return nil
		})
	}
	// Per-source errors are counted, not propagated
	_ = g.Wait()

	c.finishSweep(start)
}

// sweepSource queries all catalog metrics against one source instance.
// Catalog expressions are keyed by source type; metrics with no
// expression for this instance's type are skipped.
func (c *Collector) sweepSource(ctx context.Context, name string, instance source.Source) {
	now := time.Now()
	sourceType := instance.Metadata().Type
	stored := 0
	queried := 0

	for _, metric := range c.catalog.List() {
		query, ok := metric.QueryFor(sourceType)
		if !ok {
			c.logger.Debug("Metric %s has no %s expression, skipping for %s", metric.Name, sourceType, name)
			continue
		}

		if queried > 0 {
			select {
			case <-ctx.Done():
				return
			case <-time.After(queryGap):
			}
		}
		queried++

		samples, err := instance.Query(ctx, query, now)
		if err != nil {
			if c.metrics != nil {
				c.metrics.QueryErrorsTotal.Inc()
			}
			c.logger.Warn("Query %s against %s failed: %v", metric.Name, name, err)
			continue
		}

		stored += c.store.Append(c.attribute(metric.Name, name, samples)...)
	}

	if c.metrics != nil {
		c.metrics.SamplesTotal.Add(float64(stored))
	}
	c.logger.Debug("Swept source %s: %d samples stored", name, stored)
}

// attribute rewrites raw source samples: the catalog metric name replaces
// whatever the source reported, and a "source" label keys the instance so
// samples from different instances never collide in the store.
func (c *Collector) attribute(metricName, sourceName string, samples []model.Sample) []model.Sample {
	out := make([]model.Sample, 0, len(samples))
	for _, s := range samples {
		labels := s.Labels.Clone()
		if labels == nil {
			labels = model.Labels{}
		}
		labels["source"] = sourceName
		out = append(out, model.Sample{
			Metric:    metricName,
			Labels:    labels,
			Timestamp: s.Timestamp,
			Value:     s.Value,
		})
	}
	return out
}

func (c *Collector) finishSweep(start time.Time) {
	elapsed := time.Since(start)

	c.mu.Lock()
	c.lastSweep = time.Now()
	c.mu.Unlock()

	if c.metrics != nil {
		c.metrics.SweepsTotal.Inc()
		c.metrics.SweepDuration.Observe(elapsed.Seconds())
	}
	c.ready.Store(true)

	c.logger.Debug("Sweep complete in %s", elapsed)
}
