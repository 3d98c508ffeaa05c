package column

import (
	"github.com/nicktill/coltsdb/internal/intern"
	"github.com/nicktill/coltsdb/internal/rowset"
)

// TagSet is an unordered key to value-set mapping, the shape both ingested
// points and query filters use to describe tags.
type TagSet map[string][]string

// TagCol stores one TagSet per row, with every key and value interned.
// Filtering is disjunctive: a row matches a query TagSet if there exists at
// least one key present in both the row and the query whose value sets are
// not disjoint.
type TagCol struct {
	in   *intern.Interner
	rows []map[intern.Handle]map[intern.Handle]struct{}
}

// NewTagCol returns an empty tag column backed by in.
func NewTagCol(in *intern.Interner) *TagCol {
	return &TagCol{in: in}
}

// Append interns tags and appends it as the next row, returning the row index.
func (c *TagCol) Append(tags TagSet) uint32 {
	row := make(map[intern.Handle]map[intern.Handle]struct{}, len(tags))
	for k, values := range tags {
		kh := c.in.Intern(k)
		vset, ok := row[kh]
		if !ok {
			vset = make(map[intern.Handle]struct{}, len(values))
			row[kh] = vset
		}
		for _, v := range values {
			vset[c.in.Intern(v)] = struct{}{}
		}
	}
	c.rows = append(c.rows, row)
	return uint32(len(c.rows) - 1)
}

// Len returns the number of rows in the column.
func (c *TagCol) Len() int {
	return len(c.rows)
}

// At reconstructs the TagSet stored at row.
func (c *TagCol) At(row uint32) TagSet {
	out := make(TagSet, len(c.rows[row]))
	for kh, vset := range c.rows[row] {
		values := make([]string, 0, len(vset))
		for vh := range vset {
			values = append(values, vh.String())
		}
		out[kh.String()] = values
	}
	return out
}

// FilterWith restricts candidates to the rows whose tags disjunctively match
// query: a row is kept if some key appears in both the row and query with
// overlapping value sets. A query with no keys matches nothing, the same as
// an empty candidates set would.
func (c *TagCol) FilterWith(candidates *rowset.Set, query TagSet) *rowset.Set {
	type qKey struct {
		key    intern.Handle
		values map[intern.Handle]struct{}
	}
	qkeys := make([]qKey, 0, len(query))
	for k, values := range query {
		kh := c.in.Intern(k)
		vset := make(map[intern.Handle]struct{}, len(values))
		for _, v := range values {
			vset[c.in.Intern(v)] = struct{}{}
		}
		qkeys = append(qkeys, qKey{key: kh, values: vset})
	}

	out := rowset.New()
	candidates.Range(func(row uint32) {
		rowTags := c.rows[row]
		for _, qk := range qkeys {
			rowValues, ok := rowTags[qk.key]
			if !ok {
				continue
			}
			for v := range qk.values {
				if _, overlap := rowValues[v]; overlap {
					out.Insert(row)
					return
				}
			}
		}
	})
	return out
}
