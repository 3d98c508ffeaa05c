package ingest

import (
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/nicktill/coltsdb/internal/table"
)

// CardinalityTracker tracks unique (metric, tag set) series to enforce
// cardinality limits, keyed on table.Point/column.TagSet. It periodically
// clears series not seen recently to bound its own memory growth.
type CardinalityTracker struct {
	mu sync.RWMutex

	seriesCount map[string]int
	totalSeries int
	seriesSeen  map[string]time.Time
	lastCleanup time.Time
}

const (
	seriesRetentionPeriod = 24 * time.Hour
	cleanupInterval       = 1 * time.Hour
)

// NewCardinalityTracker returns an empty tracker.
func NewCardinalityTracker() *CardinalityTracker {
	return &CardinalityTracker{
		seriesCount: make(map[string]int),
		seriesSeen:  make(map[string]time.Time),
		lastCleanup: time.Now(),
	}
}

// Check validates that recording p's samples won't exceed cardinality limits.
func (c *CardinalityTracker) Check(p table.Point) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.cleanupOldSeriesLocked()

	for _, s := range p.Vals {
		key := seriesKey(p.Metric, s.Tags)
		if _, exists := c.seriesSeen[key]; exists {
			continue
		}
		if c.totalSeries >= MaxUniqueSeries {
			return ErrCardinalityLimit
		}
		if c.seriesCount[p.Metric] >= MaxSeriesPerMetric {
			return ErrMetricCardinalityLimit
		}
	}
	return nil
}

// Record marks p's samples as seen, updating cardinality counters. Call
// this only after Check has passed and the point was successfully written.
func (c *CardinalityTracker) Record(p table.Point) {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := time.Now()
	for _, s := range p.Vals {
		key := seriesKey(p.Metric, s.Tags)
		_, existed := c.seriesSeen[key]
		c.seriesSeen[key] = now
		if !existed {
			c.seriesCount[p.Metric]++
			c.totalSeries++
		}
	}
}

func (c *CardinalityTracker) cleanupOldSeriesLocked() {
	now := time.Now()
	if now.Sub(c.lastCleanup) < cleanupInterval {
		return
	}
	c.lastCleanup = now
	cutoff := now.Add(-seriesRetentionPeriod)

	var toRemove []string
	for key, lastSeen := range c.seriesSeen {
		if lastSeen.Before(cutoff) {
			toRemove = append(toRemove, key)
		}
	}
	for _, key := range toRemove {
		delete(c.seriesSeen, key)
	}

	if len(toRemove) > 1000 {
		c.rebuildCountsLocked()
	}
}

func (c *CardinalityTracker) rebuildCountsLocked() {
	c.seriesCount = make(map[string]int)
	c.totalSeries = 0

	for key := range c.seriesSeen {
		metricName := key
		if idx := strings.IndexByte(key, '\x00'); idx >= 0 {
			metricName = key[:idx]
		}
		c.seriesCount[metricName]++
		c.totalSeries++
	}
}

// Stats returns current cardinality usage.
func (c *CardinalityTracker) Stats() CardinalityStats {
	c.mu.RLock()
	defer c.mu.RUnlock()

	var maxMetric string
	var maxCount int
	for name, count := range c.seriesCount {
		if count > maxCount {
			maxCount = count
			maxMetric = name
		}
	}

	return CardinalityStats{
		TotalSeries:     c.totalSeries,
		UniqueMetrics:   len(c.seriesCount),
		MaxSeriesMetric: maxMetric,
		MaxSeriesCount:  maxCount,
		SeriesLimit:     MaxUniqueSeries,
		PerMetricLimit:  MaxSeriesPerMetric,
		UtilizationPct:  float64(c.totalSeries) / float64(MaxUniqueSeries) * 100,
	}
}

// CardinalityStats reports cardinality usage for /v1/cardinality.
type CardinalityStats struct {
	TotalSeries     int     `json:"total_series"`
	UniqueMetrics   int     `json:"unique_metrics"`
	MaxSeriesMetric string  `json:"max_series_metric"`
	MaxSeriesCount  int     `json:"max_series_count"`
	SeriesLimit     int     `json:"series_limit"`
	PerMetricLimit  int     `json:"per_metric_limit"`
	UtilizationPct  float64 `json:"utilization_percent"`
}

// seriesKey builds a deterministic key for a (metric, tags) series, skipping
// internal compaction tags (e.g. __resolution__) so a rolled-up aggregate
// doesn't count as a distinct series from the raw one it summarizes.
func seriesKey(metric string, tags map[string][]string) string {
	if len(tags) == 0 {
		return metric
	}

	keys := make([]string, 0, len(tags))
	for k := range tags {
		if len(k) > 0 && k[0] == '_' {
			continue
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	b.WriteString(metric)
	for _, k := range keys {
		values := append([]string{}, tags[k]...)
		sort.Strings(values)
		b.WriteByte('\x00')
		b.WriteString(k)
		b.WriteByte('=')
		b.WriteString(strings.Join(values, ","))
	}
	return b.String()
}
