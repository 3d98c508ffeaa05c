package column

import "github.com/nicktill/coltsdb/internal/rowset"

// ValCol stores one raw sample value per row.
type ValCol struct {
	rows []float64
}

// NewValCol returns an empty value column.
func NewValCol() *ValCol {
	return &ValCol{}
}

// Append adds v as the next row and returns its row index.
func (c *ValCol) Append(v float64) uint32 {
	c.rows = append(c.rows, v)
	return uint32(len(c.rows) - 1)
}

// Len returns the number of rows in the column.
func (c *ValCol) Len() int {
	return len(c.rows)
}

// At returns the value stored at row.
func (c *ValCol) At(row uint32) float64 {
	return c.rows[row]
}

// Gather returns the values for the rows in candidates, in ascending row order.
func (c *ValCol) Gather(candidates *rowset.Set) []float64 {
	out := make([]float64, 0, candidates.Count())
	candidates.Range(func(row uint32) {
		out = append(out, c.rows[row])
	})
	return out
}
