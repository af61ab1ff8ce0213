// Package store holds collected samples in memory. Series are kept in
// per-series ring buffers bounded by a retention window and a point
// capacity, with an LRU index so label churn (ephemeral devices, mounts)
// cannot grow the series set without bound.
package store

import (
	"context"
	"math"
	"sort"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/moolen/pulse/internal/logging"
	"github.com/moolen/pulse/internal/model"
)

// Config holds store sizing parameters.
type Config struct {
	// Retention is how long points are kept (default 1h)
	Retention time.Duration

	// MaxPointsPerSeries bounds each series buffer (default 1024)
	MaxPointsPerSeries int

	// MaxSeries bounds the LRU series index (default 4096)
	MaxSeries int

	// PruneInterval is how often expired points are dropped (default 1m)
	PruneInterval time.Duration
}

func (c *Config) applyDefaults() {
	if c.Retention <= 0 {
		c.Retention = time.Hour
	}
	if c.MaxPointsPerSeries <= 0 {
		c.MaxPointsPerSeries = 1024
	}
	if c.MaxSeries <= 0 {
		c.MaxSeries = 4096
	}
	if c.PruneInterval <= 0 {
		c.PruneInterval = time.Minute
	}
}

// SeriesStats summarizes one series over a window, for dashboard deltas
// and deviation analysis.
type SeriesStats struct {
	Labels   model.Labels
	Latest   model.Point
	Mean     float64
	Stddev   float64
	Count    int
	LastSeen time.Time
}

type seriesBuf struct {
	metric string
	labels model.Labels
	points []model.Point
}

// Store is an in-memory time-series store safe for concurrent use.
type Store struct {
	mu       sync.RWMutex
	series   *lru.Cache[string, *seriesBuf]
	byMetric map[string]map[string]struct{}
	cfg      Config
	logger   *logging.Logger

	stopCh chan struct{}
	wg     sync.WaitGroup
}

// New creates a store with the given configuration.
func New(cfg Config) (*Store, error) {
	cfg.applyDefaults()

	s := &Store{
		byMetric: make(map[string]map[string]struct{}),
		cfg:      cfg,
		logger:   logging.GetLogger("store"),
		stopCh:   make(chan struct{}),
	}

	// The eviction callback runs inside cache mutations, which always
	// happen under s.mu, so it may touch byMetric directly.
	cache, err := lru.NewWithEvict[string, *seriesBuf](cfg.MaxSeries, func(key string, buf *seriesBuf) {
		if keys, ok := s.byMetric[buf.metric]; ok {
			delete(keys, key)
			if len(keys) == 0 {
				delete(s.byMetric, buf.metric)
			}
		}
	})
	if err != nil {
		return nil, err
	}
	s.series = cache

	return s, nil
}

// Start launches the periodic prune loop.
// Implements the lifecycle.Component interface.
func (s *Store) Start(ctx context.Context) error {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		ticker := time.NewTicker(s.cfg.PruneInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-s.stopCh:
				return
			case <-ticker.C:
				dropped := s.Prune(time.Now())
				if dropped > 0 {
					s.logger.Debug("Pruned %d expired points", dropped)
				}
			}
		}
	}()

	s.logger.Info("Store started (retention %v, max %d series)", s.cfg.Retention, s.cfg.MaxSeries)
	return nil
}

// Stop terminates the prune loop.
// Implements the lifecycle.Component interface.
func (s *Store) Stop(ctx context.Context) error {
	close(s.stopCh)
	s.wg.Wait()
	s.logger.Info("Store stopped")
	return nil
}

// Name implements the lifecycle.Component interface.
func (s *Store) Name() string {
	return "Sample Store"
}

func seriesKey(metric string, labels model.Labels) string {
	return metric + "|" + labels.Key()
}

// Append adds samples to their series. Samples older than the newest
// retained point of their series are dropped, as are samples already
// outside the retention window. Returns the number of points stored.
func (s *Store) Append(samples ...model.Sample) int {
	now := time.Now()
	cutoff := now.Add(-s.cfg.Retention)

	s.mu.Lock()
	defer s.mu.Unlock()

	stored := 0
	for _, sample := range samples {
		if sample.Metric == "" || sample.Timestamp.Before(cutoff) {
			continue
		}

		key := seriesKey(sample.Metric, sample.Labels)
		buf, ok := s.series.Get(key)
		if !ok {
			buf = &seriesBuf{metric: sample.Metric, labels: sample.Labels.Clone()}
			s.series.Add(key, buf)
			if s.byMetric[sample.Metric] == nil {
				s.byMetric[sample.Metric] = make(map[string]struct{})
			}
			s.byMetric[sample.Metric][key] = struct{}{}
		}

		if n := len(buf.points); n > 0 && !sample.Timestamp.After(buf.points[n-1].Timestamp) {
			// Out of order or duplicate poll result.
			continue
		}

		buf.points = append(buf.points, model.Point{Timestamp: sample.Timestamp, Value: sample.Value})
		if len(buf.points) > s.cfg.MaxPointsPerSeries {
			buf.points = buf.points[len(buf.points)-s.cfg.MaxPointsPerSeries:]
		}
		stored++
	}

	return stored
}

// Prune drops points older than the retention window relative to now.
// Returns the number of points dropped. Series left empty stay indexed
// until the LRU evicts them.
func (s *Store) Prune(now time.Time) int {
	cutoff := now.Add(-s.cfg.Retention)

	s.mu.Lock()
	defer s.mu.Unlock()

	dropped := 0
	for _, key := range s.series.Keys() {
		buf, ok := s.series.Peek(key)
		if !ok {
			continue
		}
		idx := sort.Search(len(buf.points), func(i int) bool {
			return !buf.points[i].Timestamp.Before(cutoff)
		})
		if idx > 0 {
			dropped += idx
			buf.points = append([]model.Point(nil), buf.points[idx:]...)
		}
	}
	return dropped
}

// Latest returns the newest sample of each series of a metric.
func (s *Store) Latest(metric string) []model.Sample {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []model.Sample
	for key := range s.byMetric[metric] {
		buf, ok := s.series.Peek(key)
		if !ok || len(buf.points) == 0 {
			continue
		}
		p := buf.points[len(buf.points)-1]
		out = append(out, model.Sample{
			Metric:    metric,
			Labels:    buf.labels.Clone(),
			Timestamp: p.Timestamp,
			Value:     p.Value,
		})
	}

	sort.Slice(out, func(i, j int) bool { return out[i].Labels.Key() < out[j].Labels.Key() })
	return out
}

// Range returns all series of a metric restricted to [from, to].
func (s *Store) Range(metric string, from, to time.Time) []model.Series {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []model.Series
	for key := range s.byMetric[metric] {
		buf, ok := s.series.Peek(key)
		if !ok {
			continue
		}

		lo := sort.Search(len(buf.points), func(i int) bool {
			return !buf.points[i].Timestamp.Before(from)
		})
		hi := sort.Search(len(buf.points), func(i int) bool {
			return buf.points[i].Timestamp.After(to)
		})
		if lo >= hi {
			continue
		}

		out = append(out, model.Series{
			Metric: metric,
			Labels: buf.labels.Clone(),
			Points: append([]model.Point(nil), buf.points[lo:hi]...),
		})
	}

	sort.Slice(out, func(i, j int) bool { return out[i].Labels.Key() < out[j].Labels.Key() })
	return out
}

// Stats computes per-series summary statistics over the trailing window.
func (s *Store) Stats(metric string, window time.Duration, now time.Time) []SeriesStats {
	from := now.Add(-window)

	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []SeriesStats
	for key := range s.byMetric[metric] {
		buf, ok := s.series.Peek(key)
		if !ok || len(buf.points) == 0 {
			continue
		}

		lo := sort.Search(len(buf.points), func(i int) bool {
			return !buf.points[i].Timestamp.Before(from)
		})
		windowed := buf.points[lo:]

		stats := SeriesStats{
			Labels:   buf.labels.Clone(),
			Latest:   buf.points[len(buf.points)-1],
			LastSeen: buf.points[len(buf.points)-1].Timestamp,
			Count:    len(windowed),
		}

		if len(windowed) > 0 {
			var sum float64
			for _, p := range windowed {
				sum += p.Value
			}
			stats.Mean = sum / float64(len(windowed))

			var sq float64
			for _, p := range windowed {
				d := p.Value - stats.Mean
				sq += d * d
			}
			stats.Stddev = math.Sqrt(sq / float64(len(windowed)))
		}

		out = append(out, stats)
	}

	sort.Slice(out, func(i, j int) bool { return out[i].Labels.Key() < out[j].Labels.Key() })
	return out
}

// Metrics returns the metric names that currently have series.
func (s *Store) Metrics() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]string, 0, len(s.byMetric))
	for m := range s.byMetric {
		out = append(out, m)
	}
	sort.Strings(out)
	return out
}

// SeriesCount returns the number of live series.
func (s *Store) SeriesCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.series.Len()
}
