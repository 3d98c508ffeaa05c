package compaction

import (
	"testing"

	"github.com/nicktill/coltsdb/internal/column"
	"github.com/nicktill/coltsdb/internal/table"
)

func TestCompact5mBasicAggregation(t *testing.T) {
	tbl := table.New()
	var batch []table.Point
	for i := uint64(0); i < 4; i++ {
		batch = append(batch, table.Point{
			Source: "host",
			Metric: "cpu",
			Vals: []table.Sample{
				{Timestamp: i * msPerSecond * 30, Value: float64(i + 1), Tags: column.TagSet{"app": {"postgres"}}},
			},
		})
	}
	if err := tbl.PutStream(batch); err != nil {
		t.Fatalf("PutStream: %v", err)
	}

	rawRows := tbl.Len()
	c := New(tbl)
	n, err := c.Compact5m(0, msPer5Min)
	if err != nil {
		t.Fatalf("Compact5m: %v", err)
	}
	if n != 1 {
		t.Fatalf("expected Compact5m to report 1 row appended, got %d", n)
	}

	if tbl.Len() != rawRows+1 {
		t.Fatalf("expected exactly one new aggregate row, table has %d rows (started with %d)", tbl.Len(), rawRows)
	}

	lastRow := uint32(tbl.Len() - 1)
	agg, ok := FromSample("cpu", table.Sample{Timestamp: tbl.TsCol().At(lastRow), Value: tbl.Val().At(lastRow), Tags: tbl.Tags().At(lastRow)})
	if !ok {
		t.Fatalf("expected appended row to decode as an aggregate")
	}
	if agg.Count != 4 || agg.Sum != 10 || agg.Min != 1 || agg.Max != 4 {
		t.Fatalf("aggregate mismatch: %+v", agg)
	}

	// Raw rows must still be present (additive-only).
	for i := 0; i < int(rawRows); i++ {
		if tbl.Metric().At(uint32(i)) != "cpu" {
			t.Fatalf("raw row %d was mutated or removed", i)
		}
	}
}

func TestCompact1hRollsUp5mBuckets(t *testing.T) {
	tbl := table.New()
	var raw []table.Point
	for i := uint64(0); i < 3; i++ {
		raw = append(raw, table.Point{
			Source: "host",
			Metric: "cpu",
			Vals: []table.Sample{
				{Timestamp: i * msPer5Min, Value: float64(i + 1), Tags: column.TagSet{"app": {"postgres"}}},
			},
		})
	}
	if err := tbl.PutStream(raw); err != nil {
		t.Fatalf("PutStream: %v", err)
	}

	c := New(tbl)
	if _, err := c.Compact5m(0, 3*msPer5Min); err != nil {
		t.Fatalf("Compact5m: %v", err)
	}
	if _, err := c.Compact1h(0, msPerHour); err != nil {
		t.Fatalf("Compact1h: %v", err)
	}

	lastRow := uint32(tbl.Len() - 1)
	agg, ok := FromSample("cpu", table.Sample{Timestamp: tbl.TsCol().At(lastRow), Value: tbl.Val().At(lastRow), Tags: tbl.Tags().At(lastRow)})
	if !ok {
		t.Fatalf("expected final row to decode as an aggregate")
	}
	if agg.Resolution != Resolution1h || agg.Count != 3 || agg.Sum != 6 {
		t.Fatalf("1h aggregate mismatch: %+v", agg)
	}
}

func TestCalculatePercentile(t *testing.T) {
	values := []float64{1, 2, 3, 4, 5}
	if got := CalculatePercentile(values, 0.5); got != 3 {
		t.Fatalf("p50: got %v, want 3", got)
	}
	if got := CalculatePercentile(values, 0); got != 1 {
		t.Fatalf("p0: got %v, want 1", got)
	}
	if got := CalculatePercentile(values, 1); got != 5 {
		t.Fatalf("p100: got %v, want 5", got)
	}
}

func TestCalculatePercentileEmptyValues(t *testing.T) {
	if got := CalculatePercentile(nil, 0.5); got != 0 {
		t.Fatalf("empty: got %v, want 0", got)
	}
}
