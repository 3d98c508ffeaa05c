// Package table binds the four row-aligned columns and a shared interner
// into the single in-memory store a Query plan runs against. Table carries
// no internal lock: callers that mutate and read concurrently must
// synchronize externally.
package table

import (
	"errors"
	"fmt"

	"github.com/nicktill/coltsdb/internal/column"
	"github.com/nicktill/coltsdb/internal/intern"
)

// ErrEmptyMetric is returned when a Point's metric name is empty.
var ErrEmptyMetric = errors.New("table: metric name must not be empty")

// Sample is one timestamped value with its own tag set, as it arrives off
// the wire alongside a source/metric pair.
type Sample struct {
	Timestamp uint64        `json:"timestamp"`
	Value     float64       `json:"value"`
	Tags      column.TagSet `json:"tags,omitempty"`
}

// Point is a single ingest unit: a metric name plus one or more samples.
// Source is carried through but not indexed or filtered on — it passes
// through row storage untouched.
type Point struct {
	Source string   `json:"source,omitempty"`
	Metric string   `json:"metric"`
	Vals   []Sample `json:"vals"`
}

// Stats summarizes a Table's current size, for storage-limit reporting.
type Stats struct {
	RowCount     int `json:"row_count"`
	MetricCount  int `json:"metric_count"`
	InternedKeys int `json:"interned_keys"`
}

// Table is the columnar store: parallel TsCol/StrCol/TagCol/ValCol arrays
// indexed by a shared row number, plus the interner backing the string and
// tag columns.
type Table struct {
	interner *intern.Interner
	ts       *column.TsCol
	metric   *column.StrCol
	source   *column.StrCol
	tags     *column.TagCol
	val      *column.ValCol

	metricSeen map[string]struct{}
}

// New returns an empty Table with its own private interner.
func New() *Table {
	in := intern.New()
	return &Table{
		interner:   in,
		ts:         column.NewTsCol(),
		metric:     column.NewStrCol(in),
		source:     column.NewStrCol(in),
		tags:       column.NewTagCol(in),
		val:        column.NewValCol(),
		metricSeen: make(map[string]struct{}),
	}
}

// TsCol, Metric, Source, Tags, Val expose the underlying columns for the
// planner to run FilterWith/Gather over. Source is a pass-through column:
// no filter stage consumes it, but it is stored so a client's original
// Point.Source is never silently dropped.
func (t *Table) TsCol() *column.TsCol       { return t.ts }
func (t *Table) Metric() *column.StrCol     { return t.metric }
func (t *Table) Source() *column.StrCol     { return t.source }
func (t *Table) Tags() *column.TagCol       { return t.tags }
func (t *Table) Val() *column.ValCol        { return t.val }
func (t *Table) Interner() *intern.Interner { return t.interner }

// PutStream appends every sample of every point in batch as a new row,
// advancing all four columns together so row indices stay aligned. A
// failure partway through leaves the columns exactly as long as the samples
// that were appended before the failure — callers ingesting untrusted
// batches should validate before calling PutStream rather than relying on
// an all-or-nothing rollback, since none is performed.
func (t *Table) PutStream(batch []Point) error {
	for _, p := range batch {
		if p.Metric == "" {
			return fmt.Errorf("table: point from source %q: %w", p.Source, ErrEmptyMetric)
		}
		for _, s := range p.Vals {
			t.ts.Append(s.Timestamp)
			t.metric.Append(p.Metric)
			t.source.Append(p.Source)
			t.tags.Append(s.Tags)
			t.val.Append(s.Value)
		}
		t.metricSeen[p.Metric] = struct{}{}
	}
	return nil
}

// Len returns the number of rows currently stored.
func (t *Table) Len() int {
	return t.ts.Len()
}

// Metrics returns every distinct metric name ever ingested, in no
// particular order.
func (t *Table) Metrics() []string {
	out := make([]string, 0, len(t.metricSeen))
	for m := range t.metricSeen {
		out = append(out, m)
	}
	return out
}

// Stats reports the Table's current size for storage-limit enforcement.
func (t *Table) Stats() Stats {
	return Stats{
		RowCount:     t.Len(),
		MetricCount:  len(t.metricSeen),
		InternedKeys: t.interner.Len(),
	}
}

// bytesPerRow approximates the per-row footprint of the four columns: an
// 8-byte timestamp, an 8-byte value, an interned metric handle, and a small
// tag map, none of which the columns track exactly since they grow via
// Go's own slice/map allocators.
const bytesPerRow = 8 + 8 + 8 + 64

// EstimatedBytes approximates the Table's in-memory footprint for
// storage-limit reporting. There is no on-disk representation to measure
// directly, so this is a row-count heuristic rather than an exact figure.
func (t *Table) EstimatedBytes() int64 {
	return int64(t.Len())*bytesPerRow + int64(t.interner.Len())*32
}
