// Package planner turns a query.Query into a flat list of PlanSteps — one
// per (metric, time chunk) pair — and executes each step as a four-stage
// pipeline over a table.Table's columns: filter by time, filter by metric
// name, filter by tags, then gather and aggregate the surviving values.
// PlanStep is plain data rather than a closure tuple, so each stage stays
// inspectable and replayable instead of capturing column references.
package planner

import (
	"github.com/nicktill/coltsdb/internal/aggregate"
	"github.com/nicktill/coltsdb/internal/column"
	"github.com/nicktill/coltsdb/internal/table"
	"github.com/nicktill/coltsdb/pkg/query"
)

// msPerSecond converts the query's second-based window into the
// millisecond timestamps Table stores.
const msPerSecond = 1000

// Range is a half-open time interval [Lo, Hi). ChunkTime keeps whatever unit
// it is given; the Ranges Plan produces are in Unix milliseconds, the unit
// Table timestamps use, converted from the query's start_sec/end_sec.
type Range struct {
	Lo uint64 `json:"lo"`
	Hi uint64 `json:"hi"`
}

// ChunkTime partitions [start, end) into chunks no larger than sz. When the
// window doesn't divide evenly by sz, the final chunk is shortened to end
// exactly at `end` rather than running past it or being dropped — there is
// no dead branch and no duplicate tail chunk. A window no larger than sz
// yields the single chunk [start, end).
func ChunkTime(start, end, sz uint64) []Range {
	windowSz := end - start
	if windowSz <= sz {
		return []Range{{Lo: start, Hi: end}}
	}

	var bounds []uint64
	for v := start; v <= end; v += sz {
		bounds = append(bounds, v)
	}

	tails := bounds[1:]
	if windowSz%sz != 0 {
		tails = append(append([]uint64{}, tails...), end)
	}

	n := len(bounds)
	if len(tails) < n {
		n = len(tails)
	}

	out := make([]Range, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, Range{Lo: bounds[i], Hi: tails[i]})
	}
	return out
}

// PlanStep is one unit of work: evaluate one metric's filters and
// aggregates over one time chunk.
type PlanStep struct {
	Metric  string          `json:"metric"`
	Filters column.TagSet   `json:"filters,omitempty"`
	Aggs    []query.AggKind `json:"agg"`
	Chunk   Range           `json:"chunk"`
}

// Plan expands q into one PlanStep per (metric, chunk) pair: every metric is
// evaluated against every time chunk the window is split into. The window
// and chunk size are converted from seconds to milliseconds before chunking.
func Plan(q query.Query) []PlanStep {
	chunks := ChunkTime(q.StartSec*msPerSecond, q.EndSec*msPerSecond, q.ChunkSzSec*msPerSecond)

	steps := make([]PlanStep, 0, len(q.Metrics)*len(chunks))
	for _, m := range q.Metrics {
		for _, c := range chunks {
			steps = append(steps, PlanStep{
				Metric:  m.Name,
				Filters: m.Filters,
				Aggs:    m.Agg,
				Chunk:   c,
			})
		}
	}
	return steps
}

// StepResult is one PlanStep's outcome: one value per requested aggregate
// kernel, in the same order as the step's Aggs, paired with whether that
// kernel produced a value (false when the narrowed row set was empty and the
// kernel has no identity element, e.g. min/max/avg/median).
type StepResult struct {
	Step   PlanStep  `json:"step"`
	Values []float64 `json:"values"`
	OK     []bool    `json:"ok"`
}

// Execute runs step's four-stage pipeline against tbl's columns: narrow by
// time, then by metric name, then by tags, then gather the surviving values
// and apply every requested aggregate kernel. An empty tag filter skips the
// tag stage, keeping every row the metric stage selected.
func Execute(step PlanStep, tbl *table.Table) StepResult {
	rows := tbl.TsCol().FilterWith(step.Chunk.Lo, step.Chunk.Hi)
	rows = tbl.Metric().FilterWith(rows, step.Metric)
	if len(step.Filters) > 0 {
		rows = tbl.Tags().FilterWith(rows, step.Filters)
	}

	vals := tbl.Val().Gather(rows)

	result := StepResult{
		Step:   step,
		Values: make([]float64, len(step.Aggs)),
		OK:     make([]bool, len(step.Aggs)),
	}
	for i, kind := range step.Aggs {
		v, ok := applyAgg(kind, vals)
		result.Values[i] = v
		result.OK[i] = ok
	}
	return result
}

func applyAgg(kind query.AggKind, vals []float64) (float64, bool) {
	switch kind {
	case query.AggMin:
		return aggregate.Min(vals)
	case query.AggMax:
		return aggregate.Max(vals)
	case query.AggAvg:
		return aggregate.Avg(vals)
	case query.AggSum:
		return aggregate.Sum(vals)
	case query.AggMedian:
		return aggregate.Median(vals)
	default:
		return 0, false
	}
}
