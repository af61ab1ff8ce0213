// Package model holds the core data types shared by sources, the store,
// analysis, and the API layer.
package model

import (
	"sort"
	"strings"
	"time"
)

// Labels is a set of series labels (e.g. device, mode, mountpoint).
type Labels map[string]string

// Get returns the value of a label, or the empty string.
func (l Labels) Get(key string) string {
	return l[key]
}

// Key returns a canonical identity string for the label set: keys sorted,
// joined as k=v pairs. Two label sets with equal contents yield the same key.
func (l Labels) Key() string {
	if len(l) == 0 {
		return ""
	}
	keys := make([]string, 0, len(l))
	for k := range l {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	for i, k := range keys {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(k)
		b.WriteByte('=')
		b.WriteString(l[k])
	}
	return b.String()
}

// Clone returns a copy of the label set.
func (l Labels) Clone() Labels {
	if l == nil {
		return nil
	}
	out := make(Labels, len(l))
	for k, v := range l {
		out[k] = v
	}
	return out
}

// Sample is a single observed value of a metric for one series.
type Sample struct {
	// Metric is the catalog metric name (e.g. "cpu_usage")
	Metric string `json:"metric"`

	// Labels identify the series within the metric
	Labels Labels `json:"labels,omitempty"`

	// Timestamp is when the value was observed
	Timestamp time.Time `json:"timestamp"`

	// Value is the observed value
	Value float64 `json:"value"`
}

// Point is a timestamped value inside a series.
type Point struct {
	Timestamp time.Time `json:"timestamp"`
	Value     float64   `json:"value"`
}

// Series is an ordered run of points for one metric/label combination.
type Series struct {
	Metric string  `json:"metric"`
	Labels Labels  `json:"labels,omitempty"`
	Points []Point `json:"points"`
}

// Latest returns the newest point of the series and whether one exists.
func (s *Series) Latest() (Point, bool) {
	if len(s.Points) == 0 {
		return Point{}, false
	}
	return s.Points[len(s.Points)-1], true
}
