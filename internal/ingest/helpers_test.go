package ingest

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/xuri/excelize/v2"

	"github.com/gyeh/binhelper/internal/config"
)

var inventoryHeader = []any{"LocationName", "WarehouseSku", "PalletId", "CustomerLotReference", "Qty"}

func sampleInventory() [][]any {
	return [][]any{
		inventoryHeader,
		{"11400801", "SKU-1", "P1", "LOT1001", 3},
		{"11400802", "SKU-2", "P2", "LOT1002", 10},
		{"DAMAGE", "SKU-3", "P3", "LOT1003", 2},
		{"A101", "SKU-4", "P4", "LOT1004", 20},
	}
}

func sampleMaster() [][]any {
	return [][]any{
		{"Location"},
		{"11400801"},
		{"11400802"},
		{"11400901"},
		{"11400902"},
	}
}

// writeWorkbook saves rows into dir/name on the given sheet.
func writeWorkbook(t *testing.T, dir, name, sheet string, rows [][]any) string {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()

	if sheet != "Sheet1" {
		if err := f.SetSheetName("Sheet1", sheet); err != nil {
			t.Fatalf("rename sheet: %v", err)
		}
	}
	for i, row := range rows {
		cell, _ := excelize.CoordinatesToCellName(1, i+1)
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			t.Fatalf("set row %d: %v", i+1, err)
		}
	}
	path := filepath.Join(dir, name)
	if err := f.SaveAs(path); err != nil {
		t.Fatalf("save workbook: %v", err)
	}
	return path
}

func testConfig(invPath, masterPath string) *config.Config {
	return &config.Config{
		InventoryPath:  invPath,
		InventorySheet: "Inventory",
		MasterPath:     masterPath,
		MasterSheet:    config.DefaultMasterSheet,
		BulkRules:      config.DefaultBulkRules(),
		Loader: config.LoaderConfig{
			MaxAttempts: 3,
			BaseDelay:   time.Millisecond,
			MaxDelay:    5 * time.Millisecond,
			Backoff:     config.BackoffExponential,
		},
	}
}

// noSleep records requested delays without waiting.
type noSleep struct{ delays []time.Duration }

func (n *noSleep) sleep(_ context.Context, d time.Duration) error {
	n.delays = append(n.delays, d)
	return nil
}

func nopLog() zerolog.Logger { return zerolog.Nop() }

func dirOf(path string) string { return filepath.Dir(path) }
