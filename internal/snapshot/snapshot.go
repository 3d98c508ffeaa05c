// Package snapshot provides bulk export/import of a Table's rows. This is
// explicitly not a durability mechanism: a snapshot is a point-in-time dump
// a caller chooses to take, not a write-ahead log the Table maintains on
// its own, and nothing here replays automatically on startup.
package snapshot

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/nicktill/coltsdb/internal/table"
)

// Row is one flattened record as it appears in an export file: a metric
// name, its source, one sample, and that sample's tags.
type Row struct {
	Source    string              `json:"source"`
	Metric    string              `json:"metric"`
	Timestamp uint64              `json:"timestamp"`
	Value     float64             `json:"value"`
	Tags      map[string][]string `json:"tags,omitempty"`
}

// Manifest wraps an exported row set with metadata, the JSON analogue of the
// teacher's ExportData/ImportData envelope.
type Manifest struct {
	ExportedAt time.Time `json:"exported_at"`
	RowCount   int       `json:"row_count"`
	Rows       []Row     `json:"rows"`
}

// Exporter dumps a Table's rows to a manifest.
type Exporter struct {
	tbl *table.Table
}

// NewExporter returns an Exporter over tbl.
func NewExporter(tbl *table.Table) *Exporter {
	return &Exporter{tbl: tbl}
}

// ExportToJSON writes every row currently in the table as a Manifest to w.
func (e *Exporter) ExportToJSON(w io.Writer) (*Manifest, error) {
	n := e.tbl.Len()
	rows := make([]Row, 0, n)
	for i := 0; i < n; i++ {
		row := uint32(i)
		tags := e.tbl.Tags().At(row)
		rows = append(rows, Row{
			Source:    e.tbl.Source().At(row),
			Metric:    e.tbl.Metric().At(row),
			Timestamp: e.tbl.TsCol().At(row),
			Value:     e.tbl.Val().At(row),
			Tags:      tags,
		})
	}

	manifest := &Manifest{
		ExportedAt: time.Now(),
		RowCount:   len(rows),
		Rows:       rows,
	}

	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(manifest); err != nil {
		return nil, fmt.Errorf("snapshot: encode: %w", err)
	}
	return manifest, nil
}

// Importer loads a Manifest back into a Table via PutStream.
type Importer struct {
	tbl *table.Table
}

// NewImporter returns an Importer that writes into tbl.
func NewImporter(tbl *table.Table) *Importer {
	return &Importer{tbl: tbl}
}

// ImportFromJSON decodes a Manifest from r and appends every row into the
// importer's Table as a new point, one sample per row. Rows are grouped by
// (source, metric) pair into batches before calling PutStream, preserving
// the table's append-only contract.
func (im *Importer) ImportFromJSON(r io.Reader) (int, error) {
	var manifest Manifest
	if err := json.NewDecoder(r).Decode(&manifest); err != nil {
		return 0, fmt.Errorf("snapshot: decode: %w", err)
	}

	type key struct{ source, metric string }
	grouped := make(map[key][]table.Sample)
	order := make([]key, 0)
	for _, row := range manifest.Rows {
		k := key{source: row.Source, metric: row.Metric}
		if _, ok := grouped[k]; !ok {
			order = append(order, k)
		}
		grouped[k] = append(grouped[k], table.Sample{
			Timestamp: row.Timestamp,
			Value:     row.Value,
			Tags:      row.Tags,
		})
	}

	batch := make([]table.Point, 0, len(order))
	for _, k := range order {
		batch = append(batch, table.Point{Source: k.source, Metric: k.metric, Vals: grouped[k]})
	}

	if err := im.tbl.PutStream(batch); err != nil {
		return 0, fmt.Errorf("snapshot: import: %w", err)
	}
	return len(manifest.Rows), nil
}
