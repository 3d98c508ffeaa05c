// Package compaction rolls raw samples up into coarser 5-minute and
// 1-hour buckets. It is strictly additive: every rollup is appended as new
// tagged rows via table.Table.PutStream, and no row already in the table is
// ever deleted or mutated.
package compaction

import (
	"fmt"
	"sort"

	"github.com/nicktill/coltsdb/internal/column"
	"github.com/nicktill/coltsdb/internal/table"
)

const (
	msPerSecond = 1000
	msPer5Min   = 5 * 60 * msPerSecond
	msPerHour   = 60 * 60 * msPerSecond
)

// Compactor downsamples a Table's rows in place (by appending new rows).
type Compactor struct {
	tbl *table.Table
}

// New returns a Compactor operating over tbl.
func New(tbl *table.Table) *Compactor {
	return &Compactor{tbl: tbl}
}

// Compact5m rolls every row with Resolution raw and timestamp in [start, end)
// into 5-minute buckets, appending one new aggregate row per
// (metric, tag set, bucket). It returns the number of aggregate rows
// appended so callers can track rollup volume over time.
func (c *Compactor) Compact5m(start, end uint64) (int, error) {
	return c.compact(start, end, ResolutionRaw, Resolution5m, roundTo5Minutes)
}

// Compact1h rolls every row with Resolution 5m and timestamp in [start, end)
// into 1-hour buckets, appending one new aggregate row per
// (metric, tag set, bucket). It returns the number of aggregate rows
// appended so callers can track rollup volume over time.
func (c *Compactor) Compact1h(start, end uint64) (int, error) {
	return c.compact(start, end, Resolution5m, Resolution1h, roundTo1Hour)
}

func (c *Compactor) compact(start, end uint64, from, to Resolution, bucketOf func(uint64) uint64) (int, error) {
	type key struct {
		metric string
		tagKey string
		bucket uint64
	}
	buckets := make(map[key]*Aggregate)
	order := make([]key, 0)

	n := c.tbl.Len()
	for i := 0; i < n; i++ {
		row := uint32(i)
		ts := c.tbl.TsCol().At(row)
		if ts < start || ts >= end {
			continue
		}

		metric := c.tbl.Metric().At(row)
		tags := c.tbl.Tags().At(row)
		sample := table.Sample{Timestamp: ts, Value: c.tbl.Val().At(row), Tags: tags}

		agg, isAgg := FromSample(metric, sample)
		if isAgg {
			if agg.Resolution != from {
				continue
			}
		} else if from != ResolutionRaw {
			continue
		} else {
			agg = Aggregate{Metric: metric, Tags: tags, Timestamp: ts, Sum: c.tbl.Val().At(row), Count: 1, Min: c.tbl.Val().At(row), Max: c.tbl.Val().At(row)}
		}

		bucketTime := bucketOf(ts)
		k := key{metric: metric, tagKey: tagSetKey(agg.Tags), bucket: bucketTime}

		existing, ok := buckets[k]
		if !ok {
			existing = &Aggregate{
				Metric:     metric,
				Tags:       agg.Tags,
				Timestamp:  bucketTime,
				Resolution: to,
				Min:        agg.Min,
				Max:        agg.Max,
			}
			buckets[k] = existing
			order = append(order, k)
		}

		existing.Sum += agg.Sum
		existing.Count += agg.Count
		if agg.Min < existing.Min {
			existing.Min = agg.Min
		}
		if agg.Max > existing.Max {
			existing.Max = agg.Max
		}
	}

	if len(buckets) == 0 {
		return 0, nil
	}

	batch := make([]table.Point, 0, len(order))
	for _, k := range order {
		agg := buckets[k]
		batch = append(batch, table.Point{
			Source: "compaction",
			Metric: agg.Metric,
			Vals:   []table.Sample{agg.ToSample()},
		})
	}

	if err := c.tbl.PutStream(batch); err != nil {
		return 0, fmt.Errorf("compaction: write rollup rows: %w", err)
	}
	return len(batch), nil
}

func tagSetKey(tags column.TagSet) string {
	keys := make([]string, 0, len(tags))
	for k := range tags {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	key := ""
	for _, k := range keys {
		values := append([]string{}, tags[k]...)
		sort.Strings(values)
		key += k + "=["
		for _, v := range values {
			key += v + ","
		}
		key += "];"
	}
	return key
}

func roundTo5Minutes(ts uint64) uint64 {
	return ts - ts%msPer5Min
}

func roundTo1Hour(ts uint64) uint64 {
	return ts - ts%msPerHour
}

// CalculatePercentile computes the Pth percentile of values via linear
// interpolation over a sorted copy, for callers that need precise
// percentiles rather than the min/max bounds an Aggregate otherwise carries.
func CalculatePercentile(values []float64, p float64) float64 {
	if len(values) == 0 {
		return 0
	}

	sorted := append([]float64{}, values...)
	sort.Float64s(sorted)

	index := p * float64(len(sorted)-1)
	lower := int(index)
	upper := lower
	if frac := index - float64(lower); frac > 0 {
		upper = lower + 1
	}
	if upper >= len(sorted) {
		upper = len(sorted) - 1
	}

	weight := index - float64(lower)
	return sorted[lower]*(1-weight) + sorted[upper]*weight
}
