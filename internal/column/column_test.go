package column

import (
	"testing"

	"github.com/nicktill/coltsdb/internal/intern"
	"github.com/nicktill/coltsdb/internal/rowset"
)

func dummyTagCol(t *testing.T) *TagCol {
	t.Helper()
	in := intern.New()
	c := NewTagCol(in)
	// Row 0: shard=1, version=1.0, app=postgres, server=A
	c.Append(TagSet{
		"shard":   {"1"},
		"version": {"1.0"},
		"app":     {"postgres"},
		"server":  {"A"},
	})
	// Row 1: shard=2, version=1.0, app=tomcat, server=B
	c.Append(TagSet{
		"shard":   {"2"},
		"version": {"1.0"},
		"app":     {"tomcat"},
		"server":  {"B"},
	})
	// Row 2: shard=1, version=2.0, app=redis, server=A
	c.Append(TagSet{
		"shard":   {"1"},
		"version": {"2.0"},
		"app":     {"redis"},
		"server":  {"A"},
	})
	// Row 3: shard=3, version=2.0, app=postgres, server=C (not a candidate below)
	c.Append(TagSet{
		"shard":   {"3"},
		"version": {"2.0"},
		"app":     {"postgres"},
		"server":  {"C"},
	})
	return c
}

// TestTagColFilterWith verifies that querying
// {not_present: [...], app: [postgres, tomcat]} over candidates {0,1,2}
// disjunctively matches rows 0 and 1 (postgres, tomcat) but not row 2
// (redis) even though row 3 also has app=postgres, since it's outside the
// candidate set.
func TestTagColFilterWith(t *testing.T) {
	c := dummyTagCol(t)
	candidates := rowset.New()
	candidates.Insert(0)
	candidates.Insert(1)
	candidates.Insert(2)

	query := TagSet{
		"not_present": {"whatever"},
		"app":         {"postgres", "tomcat"},
	}

	got := c.FilterWith(candidates, query).ToSlice()
	want := []uint32{0, 1}
	if len(got) != len(want) {
		t.Fatalf("FilterWith: got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("FilterWith: got %v, want %v", got, want)
		}
	}
}

func TestTagColEmptyQueryMatchesNothing(t *testing.T) {
	c := dummyTagCol(t)
	candidates := rowset.New()
	candidates.Insert(0)
	candidates.Insert(1)

	got := c.FilterWith(candidates, TagSet{})
	if !got.IsEmpty() {
		t.Fatalf("expected empty query to match nothing, got %v", got.ToSlice())
	}
}

func TestStrColFilterWith(t *testing.T) {
	in := intern.New()
	c := NewStrCol(in)
	c.Append("cpu")
	c.Append("memory")
	c.Append("cpu")
	c.Append("gc")

	all := rowset.New()
	all.Insert(0)
	all.Insert(1)
	all.Insert(2)
	all.Insert(3)

	got := c.FilterWith(all, "cpu", "gc").ToSlice()
	want := []uint32{0, 2, 3}
	if len(got) != len(want) {
		t.Fatalf("FilterWith: got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("FilterWith: got %v, want %v", got, want)
		}
	}
}

// TestStrColFilterWithRestrictsToCandidates verifies that a row whose value
// matches is still excluded when it isn't a member of candidates — only
// candidate rows are ever inspected.
func TestStrColFilterWithRestrictsToCandidates(t *testing.T) {
	in := intern.New()
	c := NewStrCol(in)
	c.Append("cpu")
	c.Append("memory")
	c.Append("cpu")
	c.Append("gc")

	candidates := rowset.New()
	candidates.Insert(1)
	candidates.Insert(2)
	candidates.Insert(3)

	got := c.FilterWith(candidates, "cpu", "gc").ToSlice()
	want := []uint32{2, 3}
	if len(got) != len(want) {
		t.Fatalf("FilterWith: got %v, want %v (row 0 matches \"cpu\" but isn't a candidate)", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("FilterWith: got %v, want %v", got, want)
		}
	}
}

func TestTsColFilterWith(t *testing.T) {
	c := NewTsCol()
	for _, ts := range []uint64{100, 200, 300, 400, 500} {
		c.Append(ts)
	}

	got := c.FilterWith(200, 400).ToSlice()
	want := []uint32{1, 2}
	if len(got) != len(want) {
		t.Fatalf("FilterWith: got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("FilterWith: got %v, want %v", got, want)
		}
	}
}

func TestValColGather(t *testing.T) {
	c := NewValCol()
	for _, v := range []float64{1, 2, 3, 4, 5} {
		c.Append(v)
	}

	candidates := rowset.New()
	candidates.Insert(1)
	candidates.Insert(3)

	got := c.Gather(candidates)
	want := []float64{2, 4}
	if len(got) != len(want) {
		t.Fatalf("Gather: got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("Gather: got %v, want %v", got, want)
		}
	}
}
