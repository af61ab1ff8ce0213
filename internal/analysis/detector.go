package analysis

import (
	"sort"
	"time"

	"github.com/moolen/pulse/internal/catalog"
	"github.com/moolen/pulse/internal/logging"
	"github.com/moolen/pulse/internal/store"
)

// Detector produces anomalies from the store over a lookback window.
type Detector interface {
	Name() string
	Detect(st *store.Store, window time.Duration, now time.Time) []Anomaly
}

// DefaultWindow is the lookback used when callers don't specify one.
const DefaultWindow = 15 * time.Minute

// Engine fans analysis out to a set of detectors and merges the results.
type Engine struct {
	detectors []Detector
	store     *store.Store
	logger    *logging.Logger
}

// NewEngine creates an engine with the given detectors.
func NewEngine(st *store.Store, detectors ...Detector) *Engine {
	return &Engine{
		detectors: detectors,
		store:     st,
		logger:    logging.GetLogger("analysis"),
	}
}

// NewDefaultEngine wires the standard detector set: static thresholds
// from the catalog, z-score deviation, and flatline detection.
func NewDefaultEngine(st *store.Store, cat *catalog.Catalog, refreshInterval time.Duration) *Engine {
	names := make([]string, 0, cat.Len())
	for _, m := range cat.List() {
		names = append(names, m.Name)
	}

	return NewEngine(st,
		NewThresholdDetector(cat),
		NewDeviationDetector(names),
		NewFlatlineDetector(names, refreshInterval),
	)
}

// Analyze runs all detectors and returns the merged findings sorted by
// severity (critical first), then by timestamp descending.
func (e *Engine) Analyze(window time.Duration, now time.Time) []Anomaly {
	if window <= 0 {
		window = DefaultWindow
	}

	var anomalies []Anomaly
	for _, d := range e.detectors {
		found := d.Detect(e.store, window, now)
		if len(found) > 0 {
			e.logger.Debug("Detector %s produced %d finding(s)", d.Name(), len(found))
		}
		anomalies = append(anomalies, found...)
	}

	sort.SliceStable(anomalies, func(i, j int) bool {
		if anomalies[i].Severity.rank() != anomalies[j].Severity.rank() {
			return anomalies[i].Severity.rank() > anomalies[j].Severity.rank()
		}
		return anomalies[i].Timestamp.After(anomalies[j].Timestamp)
	})

	return anomalies
}
