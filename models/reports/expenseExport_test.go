package reports

import (
	"bytes"
	"context"
	"testing"

	"bitbucket.org/mmdatafocus/inspect_backend/store"
	"github.com/xuri/excelize/v2"
)

func TestExportExpenses(t *testing.T) {
	docs := store.NewMemoryDocumentStore()
	ctx := context.Background()

	_ = docs.Write(ctx, "expenses/e1", store.Document{
		"tenantId":    "t1",
		"description": "fuel for generator",
		"amount":      "12.5",
		"expenseDate": float64(1_700_000_000_000),
		"imageUrls":   []any{"https://example.com/r1.jpg"},
	})
	_ = docs.Write(ctx, "expenses/e2", store.Document{
		"tenantId":    "t1",
		"description": "spare filter",
		"amount":      "3",
		"expenseDate": float64(1_710_000_000_000),
	})
	// Another tenant's record must not leak into the export.
	_ = docs.Write(ctx, "expenses/e3", store.Document{
		"tenantId":    "t2",
		"description": "other tenant",
		"amount":      "1",
	})

	var buf bytes.Buffer
	if err := ExportExpenses(ctx, docs, "t1", &buf); err != nil {
		t.Fatal(err)
	}

	f, err := excelize.OpenReader(&buf)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	rows, err := f.GetRows(expenseSheet)
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 3 {
		t.Fatalf("rows = %d, want header plus two records", len(rows))
	}
	if rows[0][0] != "Date" || rows[0][3] != "Amount" {
		t.Errorf("header = %v", rows[0])
	}
	// Newest first.
	if rows[1][1] != "spare filter" || rows[2][1] != "fuel for generator" {
		t.Errorf("row order: %v / %v", rows[1], rows[2])
	}
	if rows[2][3] != "12.50" {
		t.Errorf("amount = %q, want 12.50", rows[2][3])
	}
}
