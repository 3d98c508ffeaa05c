// Package query defines the wire schema a client POSTs to run an analytical
// query: a time window, a chunk size to partition it into, and a list of
// metrics each naming its own tag filters and aggregate kernels.
package query

import (
	"encoding/json"
	"fmt"

	"github.com/nicktill/coltsdb/internal/column"
)

// AggKind names one of the supported aggregate kernels.
type AggKind string

const (
	AggMin    AggKind = "min"
	AggMax    AggKind = "max"
	AggAvg    AggKind = "avg"
	AggSum    AggKind = "sum"
	AggMedian AggKind = "median"
)

func (a AggKind) valid() bool {
	switch a {
	case AggMin, AggMax, AggAvg, AggSum, AggMedian:
		return true
	default:
		return false
	}
}

// QMetric names one metric to query, the tag filters to narrow it by, and
// the aggregate kernels to apply to each resulting chunk. Filters defaults
// to empty (match nothing additional beyond the metric name) when omitted.
type QMetric struct {
	Name    string         `json:"name"`
	Filters column.TagSet  `json:"filters,omitempty"`
	Agg     []AggKind      `json:"agg"`
}

// Query is the full request: a time window in Unix seconds, the chunk size
// (also seconds) to partition that window into, and the metrics to evaluate
// per chunk.
type Query struct {
	StartSec   uint64    `json:"start_sec"`
	EndSec     uint64    `json:"end_sec"`
	ChunkSzSec uint64    `json:"chunk_sz_sec"`
	Metrics    []QMetric `json:"metrics"`
}

// Decode parses and validates a Query from JSON, rejecting unknown aggregate
// names and malformed time windows rather than letting them surface later as
// a confusing empty result.
func Decode(data []byte) (Query, error) {
	var q Query
	if err := json.Unmarshal(data, &q); err != nil {
		return Query{}, fmt.Errorf("query: decode: %w", err)
	}
	if err := q.Validate(); err != nil {
		return Query{}, err
	}
	return q, nil
}

// Validate checks the preconditions every planner stage assumes: a non-empty
// forward time window, a positive chunk size, and only known aggregate kernels.
func (q Query) Validate() error {
	if q.StartSec >= q.EndSec {
		return fmt.Errorf("query: start_sec (%d) must be before end_sec (%d)", q.StartSec, q.EndSec)
	}
	if q.ChunkSzSec == 0 {
		return fmt.Errorf("query: chunk_sz_sec must be greater than 0")
	}
	for _, m := range q.Metrics {
		if m.Name == "" {
			return fmt.Errorf("query: metric name must not be empty")
		}
		for _, a := range m.Agg {
			if !a.valid() {
				return fmt.Errorf("query: unknown aggregate %q", a)
			}
		}
	}
	return nil
}
