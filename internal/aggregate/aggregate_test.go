package aggregate

import "testing"

func TestSum(t *testing.T) {
	if v, ok := Sum([]float64{1, 2, 3}); !ok || v != 6 {
		t.Fatalf("Sum: got (%v,%v), want (6,true)", v, ok)
	}
	if v, ok := Sum(nil); !ok || v != 0 {
		t.Fatalf("Sum([]): got (%v,%v), want (0,true)", v, ok)
	}
}

func TestMinMax(t *testing.T) {
	if v, ok := Min([]float64{3, 1, 2}); !ok || v != 1 {
		t.Fatalf("Min: got (%v,%v), want (1,true)", v, ok)
	}
	if _, ok := Min(nil); ok {
		t.Fatalf("Min([]): expected ok=false")
	}
	if v, ok := Max([]float64{3, 1, 2}); !ok || v != 3 {
		t.Fatalf("Max: got (%v,%v), want (3,true)", v, ok)
	}
	if _, ok := Max(nil); ok {
		t.Fatalf("Max([]): expected ok=false")
	}
}

func TestAvg(t *testing.T) {
	if v, ok := Avg([]float64{1, 2, 3, 4}); !ok || v != 2.5 {
		t.Fatalf("Avg: got (%v,%v), want (2.5,true)", v, ok)
	}
	if _, ok := Avg(nil); ok {
		t.Fatalf("Avg([]): expected ok=false")
	}
}

func TestMedian(t *testing.T) {
	if v, ok := Median([]float64{1, 3, 2}); !ok || v != 2 {
		t.Fatalf("Median odd: got (%v,%v), want (2,true)", v, ok)
	}
	if v, ok := Median([]float64{1, 2, 3, 4}); !ok || v != 2.5 {
		t.Fatalf("Median even: got (%v,%v), want (2.5,true)", v, ok)
	}
	if _, ok := Median(nil); ok {
		t.Fatalf("Median([]): expected ok=false")
	}
	// original slice must be left unsorted
	original := []float64{3, 1, 2}
	Median(original)
	if original[0] != 3 || original[1] != 1 || original[2] != 2 {
		t.Fatalf("Median mutated caller's slice: %v", original)
	}
}

func TestComposeNestedAggregate(t *testing.T) {
	// aggregating a set of per-chunk sums should compose like a single sum.
	chunkSums := make([]float64, 0, 3)
	for _, chunk := range [][]float64{{1, 2}, {3, 4}, {5}} {
		s, _ := Sum(chunk)
		chunkSums = append(chunkSums, s)
	}
	total, ok := Sum(chunkSums)
	if !ok || total != 15 {
		t.Fatalf("composed sum: got (%v,%v), want (15,true)", total, ok)
	}
}
