// Package column implements the four row-aligned columns of a Table: a
// timestamp column, an interned metric-name column, a disjunctive tag
// column, and a raw value column. Every column is append-only and indexed by
// the same row number; FilterWith on the timestamp, metric-name and tag
// columns returns a rowset.Set of the rows that match, the shared currency
// between planner stages, and the value column gathers from such a set.
package column

import "github.com/nicktill/coltsdb/internal/rowset"

// TsCol stores one Unix-millisecond timestamp per row.
type TsCol struct {
	rows []uint64
}

// NewTsCol returns an empty timestamp column.
func NewTsCol() *TsCol {
	return &TsCol{}
}

// Append adds ts as the next row and returns its row index.
func (c *TsCol) Append(ts uint64) uint32 {
	c.rows = append(c.rows, ts)
	return uint32(len(c.rows) - 1)
}

// Len returns the number of rows in the column.
func (c *TsCol) Len() int {
	return len(c.rows)
}

// At returns the timestamp stored at row.
func (c *TsCol) At(row uint32) uint64 {
	return c.rows[row]
}

// FilterWith returns the set of rows whose timestamp falls in [lo, hi).
func (c *TsCol) FilterWith(lo, hi uint64) *rowset.Set {
	out := rowset.New()
	for i, ts := range c.rows {
		if ts >= lo && ts < hi {
			out.Insert(uint32(i))
		}
	}
	return out
}

// Gather returns the timestamps for the rows in candidates, in ascending row order.
func (c *TsCol) Gather(candidates *rowset.Set) []uint64 {
	out := make([]uint64, 0, candidates.Count())
	candidates.Range(func(row uint32) {
		out = append(out, c.rows[row])
	})
	return out
}
