package snapshot

import (
	"bytes"
	"testing"

	"github.com/nicktill/coltsdb/internal/column"
	"github.com/nicktill/coltsdb/internal/table"
)

func TestExportImportRoundtrip(t *testing.T) {
	src := table.New()
	err := src.PutStream([]table.Point{
		{
			Source: "host-a",
			Metric: "cpu",
			Vals: []table.Sample{
				{Timestamp: 100, Value: 1.5, Tags: column.TagSet{"app": {"postgres"}}},
				{Timestamp: 200, Value: 2.5, Tags: column.TagSet{"app": {"tomcat"}}},
			},
		},
	})
	if err != nil {
		t.Fatalf("PutStream: %v", err)
	}

	var buf bytes.Buffer
	manifest, err := NewExporter(src).ExportToJSON(&buf)
	if err != nil {
		t.Fatalf("ExportToJSON: %v", err)
	}
	if manifest.RowCount != 2 {
		t.Fatalf("RowCount: got %d, want 2", manifest.RowCount)
	}

	dst := table.New()
	n, err := NewImporter(dst).ImportFromJSON(&buf)
	if err != nil {
		t.Fatalf("ImportFromJSON: %v", err)
	}
	if n != 2 {
		t.Fatalf("imported row count: got %d, want 2", n)
	}
	if dst.Len() != 2 {
		t.Fatalf("dst.Len(): got %d, want 2", dst.Len())
	}
}
