// Package rowset is the universal row-index selector passed between filter
// stages: every column's FilterWith produces one, and the planner narrows it
// stage by stage (time, then metric, then tags) before gathering values. It
// wraps github.com/kelindar/bitmap as a compressed row-index set.
package rowset

import "github.com/kelindar/bitmap"

// Set is a mutable set of row indices.
type Set struct {
	bm bitmap.Bitmap
}

// New returns an empty Set.
func New() *Set {
	return &Set{}
}

// FromRange returns a Set containing every row index in [lo, hi).
func FromRange(lo, hi uint32) *Set {
	s := New()
	s.InsertRange(lo, hi)
	return s
}

// Insert adds row to the set.
func (s *Set) Insert(row uint32) {
	s.bm.Set(row)
}

// InsertRange adds every row index in [lo, hi) to the set.
func (s *Set) InsertRange(lo, hi uint32) {
	for row := lo; row < hi; row++ {
		s.bm.Set(row)
	}
}

// Contains reports whether row is a member of the set.
func (s *Set) Contains(row uint32) bool {
	return s.bm.Contains(row)
}

// Count returns the number of rows in the set.
func (s *Set) Count() int {
	return s.bm.Count()
}

// Range calls fn once per member row, in ascending order.
func (s *Set) Range(fn func(row uint32)) {
	s.bm.Range(fn)
}

// ToSlice materializes the set's members in ascending order.
func (s *Set) ToSlice() []uint32 {
	out := make([]uint32, 0, s.Count())
	s.Range(func(row uint32) {
		out = append(out, row)
	})
	return out
}

// And intersects s with other, mutating s in place.
func (s *Set) And(other *Set) {
	s.bm.And(other.bm)
}

// Or unions s with other, mutating s in place.
func (s *Set) Or(other *Set) {
	s.bm.Or(other.bm)
}

// Clone returns an independent copy of s.
func (s *Set) Clone() *Set {
	out := New()
	out.bm = s.bm.Clone(nil)
	return out
}

// IsEmpty reports whether the set has no members.
func (s *Set) IsEmpty() bool {
	return s.Count() == 0
}
