package column

import (
	"github.com/nicktill/coltsdb/internal/intern"
	"github.com/nicktill/coltsdb/internal/rowset"
)

// StrCol stores one interned string per row — used for the metric-name
// column. Equality is by interned identity, so filtering never compares raw
// bytes once a candidate's handle has been looked up.
type StrCol struct {
	in   *intern.Interner
	rows []intern.Handle
}

// NewStrCol returns an empty string column backed by in.
func NewStrCol(in *intern.Interner) *StrCol {
	return &StrCol{in: in}
}

// Append interns s and appends its handle as the next row, returning the row index.
func (c *StrCol) Append(s string) uint32 {
	c.rows = append(c.rows, c.in.Intern(s))
	return uint32(len(c.rows) - 1)
}

// Len returns the number of rows in the column.
func (c *StrCol) Len() int {
	return len(c.rows)
}

// At returns the string stored at row.
func (c *StrCol) At(row uint32) string {
	return c.rows[row].String()
}

// FilterWith interns each of keys and returns the subset of candidates
// whose value equals any of them. Only rows in candidates are inspected.
func (c *StrCol) FilterWith(candidates *rowset.Set, keys ...string) *rowset.Set {
	wanted := make(map[intern.Handle]struct{}, len(keys))
	for _, k := range keys {
		wanted[c.in.Intern(k)] = struct{}{}
	}

	out := rowset.New()
	candidates.Range(func(row uint32) {
		if _, ok := wanted[c.rows[row]]; ok {
			out.Insert(row)
		}
	})
	return out
}
