package ingest

import (
	"errors"
	"testing"

	"github.com/gyeh/binhelper/internal/model"
	"github.com/gyeh/binhelper/internal/xlsxread"
)

func readSheet(t *testing.T, sheet string, rows [][]any) *xlsxread.Table {
	t.Helper()
	path := writeWorkbook(t, t.TempDir(), "book.xlsx", sheet, rows)
	tbl, err := xlsxread.Read(path, sheet)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	return tbl
}

func TestMapInventory(t *testing.T) {
	tbl := readSheet(t, "Inventory", [][]any{
		inventoryHeader,
		{"11400801", "SKU-1", "P1", "LOT1001", 3},
		{"", "SKU-X", "P9", "LOT9", 1},
		{},
		{" A101 ", "SKU-4", "P4", "LOT1004", 20},
	})

	recs, skipped, err := MapInventory(tbl)
	if err != nil {
		t.Fatalf("MapInventory: %v", err)
	}
	if len(recs) != 2 {
		t.Fatalf("got %d records, want 2", len(recs))
	}
	if recs[1].Location != "A101" || recs[1].Qty != 20 || recs[1].SourceRow != 5 {
		t.Fatalf("unexpected record: %+v", recs[1])
	}
	if len(skipped) != 1 || skipped[0].SourceRow != 3 || skipped[0].Role != model.RoleInventory {
		t.Fatalf("unexpected skipped rows: %+v", skipped)
	}
}

func TestMapInventoryMissingLocationColumn(t *testing.T) {
	tbl := readSheet(t, "Inventory", [][]any{
		{"Bin", "WarehouseSku"},
		{"11400801", "SKU-1"},
	})
	_, _, err := MapInventory(tbl)
	if !errors.Is(err, xlsxread.ErrMissingColumn) {
		t.Fatalf("want ErrMissingColumn, got %v", err)
	}
	if Classify(err) != model.ParseError {
		t.Fatalf("missing column classified as %s", Classify(err))
	}
}

func TestMapMaster(t *testing.T) {
	tests := []struct {
		name    string
		rows    [][]any
		want    []string
		skipped int
	}{
		{
			name: "location header",
			rows: [][]any{{"Zone", "Location Name"}, {"A", "11400801"}, {"B", ""}, {"C", "11400902"}},
			want: []string{"11400801", "11400902"}, skipped: 1,
		},
		{
			name: "first column fallback",
			rows: [][]any{{"Bins"}, {"11400801"}, {"DAMAGE"}},
			want: []string{"11400801", "DAMAGE"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			locs, skipped, err := MapMaster(readSheet(t, "Master Locations", tt.rows))
			if err != nil {
				t.Fatalf("MapMaster: %v", err)
			}
			if len(locs) != len(tt.want) {
				t.Fatalf("got %d locations, want %d", len(locs), len(tt.want))
			}
			for i, loc := range locs {
				if loc.Location != tt.want[i] {
					t.Errorf("location %d = %q, want %q", i, loc.Location, tt.want[i])
				}
			}
			if len(skipped) != tt.skipped {
				t.Fatalf("skipped %d rows, want %d", len(skipped), tt.skipped)
			}
		})
	}
}
