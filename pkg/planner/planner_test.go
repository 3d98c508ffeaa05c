package planner

import (
	"context"
	"reflect"
	"testing"

	"github.com/nicktill/coltsdb/internal/column"
	"github.com/nicktill/coltsdb/internal/table"
	"github.com/nicktill/coltsdb/pkg/query"
)

// TestChunkTime verifies chunking against a fixed set of boundary cases.
func TestChunkTime(t *testing.T) {
	cases := []struct {
		start, end, sz uint64
		want           []Range
	}{
		{0, 37, 7, []Range{{0, 7}, {7, 14}, {14, 21}, {21, 28}, {28, 35}, {35, 37}}},
		{0, 7, 10, []Range{{0, 7}}},
		{0, 70, 10, []Range{{0, 10}, {10, 20}, {20, 30}, {30, 40}, {40, 50}, {50, 60}, {60, 70}}},
	}

	for _, c := range cases {
		got := ChunkTime(c.start, c.end, c.sz)
		if !reflect.DeepEqual(got, c.want) {
			t.Fatalf("ChunkTime(%d,%d,%d): got %v, want %v", c.start, c.end, c.sz, got, c.want)
		}
	}
}

// TestPlanStepCount verifies step expansion: a window of [345,400) chunked
// by 10 yields 6 chunks; with 2 metrics, 12 steps.
func TestPlanStepCount(t *testing.T) {
	q := query.Query{
		StartSec:   345,
		EndSec:     400,
		ChunkSzSec: 10,
		Metrics: []query.QMetric{
			{Name: "cpu", Filters: column.TagSet{"server": {"A", "B", "c"}, "version": {"9.3", "10.0"}}, Agg: []query.AggKind{query.AggMedian}},
			{Name: "mem", Agg: []query.AggKind{query.AggMin, query.AggMax, query.AggAvg}},
		},
	}

	steps := Plan(q)
	if len(steps) != 12 {
		t.Fatalf("Plan: got %d steps, want 12", len(steps))
	}
}

func buildFixtureTable(t *testing.T) *table.Table {
	t.Helper()
	tbl := table.New()
	var batch []table.Point
	for i := uint64(0); i < 50; i++ {
		ts := 300 + i
		var metric string
		switch i % 3 {
		case 0:
			metric = "cpu"
		case 1:
			metric = "memory"
		default:
			metric = "gc"
		}
		tags := column.TagSet{"app": {"postgres"}}
		if i%2 == 1 {
			tags = column.TagSet{"app": {"tomcat"}}
		}
		batch = append(batch, table.Point{
			Source: "host",
			Metric: metric,
			Vals: []table.Sample{
				{Timestamp: ts, Value: float64(i), Tags: tags},
			},
		})
	}
	if err := tbl.PutStream(batch); err != nil {
		t.Fatalf("PutStream: %v", err)
	}
	return tbl
}

func TestExecuteSingleChunk(t *testing.T) {
	tbl := buildFixtureTable(t)

	// Row i has ts=300+i, metric cycling cpu/memory/gc, value=i.
	// Narrow to ts in [330,333) (rows 30,31,32) and metric "cpu" (i%3==0: 30).
	step := PlanStep{
		Metric:  "cpu",
		Filters: column.TagSet{"app": {"postgres", "tomcat"}},
		Aggs:    []query.AggKind{query.AggSum},
		Chunk:   Range{Lo: 330, Hi: 333},
	}

	result := Execute(step, tbl)
	if len(result.Values) != 1 || !result.OK[0] {
		t.Fatalf("Execute: unexpected result %+v", result)
	}
	if result.Values[0] != 30 {
		t.Fatalf("Execute: got sum %v, want 30", result.Values[0])
	}
}

func TestExecuteEmptyRowsetReportsNotOK(t *testing.T) {
	tbl := buildFixtureTable(t)

	step := PlanStep{
		Metric:  "cpu",
		Filters: column.TagSet{"app": {"nonexistent"}},
		Aggs:    []query.AggKind{query.AggMin, query.AggSum},
		Chunk:   Range{Lo: 300, Hi: 350},
	}

	result := Execute(step, tbl)
	if result.OK[0] {
		t.Fatalf("Min over empty rowset should report ok=false")
	}
	if !result.OK[1] || result.Values[1] != 0 {
		t.Fatalf("Sum over empty rowset should report (0,true), got (%v,%v)", result.Values[1], result.OK[1])
	}
}

func TestExecutorRunStreamsAllSteps(t *testing.T) {
	tbl := buildFixtureTable(t)
	q := query.Query{
		StartSec:   300,
		EndSec:     350,
		ChunkSzSec: 10,
		Metrics: []query.QMetric{
			{Name: "cpu", Agg: []query.AggKind{query.AggSum}},
			{Name: "memory", Agg: []query.AggKind{query.AggSum}},
		},
	}
	steps := Plan(q)

	exec := NewExecutor(4)
	ctx := context.Background()
	results := exec.Run(ctx, tbl, steps)

	count := 0
	for range results {
		count++
	}
	if count != len(steps) {
		t.Fatalf("Executor.Run: got %d results, want %d", count, len(steps))
	}
}
