package ingest

import (
	"fmt"

	"github.com/gyeh/binhelper/internal/model"
	"github.com/gyeh/binhelper/internal/normalize"
	"github.com/gyeh/binhelper/internal/xlsxread"
)

// MapInventory turns inventory rows into records. Blank rows are ignored;
// rows with content but no location are returned as skipped. A sheet
// without a LocationName header is a parse error.
func MapInventory(t *xlsxread.Table) ([]model.InventoryRecord, []model.SkippedRow, error) {
	if err := xlsxread.RequireColumns(t, normalize.ColLocation); err != nil {
		return nil, nil, err
	}

	cols := make(map[string]int, len(normalize.InventoryColumns))
	for _, c := range normalize.InventoryColumns {
		cols[c] = t.Column(c)
	}

	var records []model.InventoryRecord
	var skipped []model.SkippedRow
	for i, row := range t.Rows {
		if normalize.RowIsBlank(row) {
			continue
		}
		rowNum := t.RowNumber(i)
		rec, err := normalize.ToInventoryRecord(func(col string) string {
			return xlsxread.CellAt(row, cols[col])
		}, rowNum)
		if err != nil {
			skipped = append(skipped, model.SkippedRow{Role: model.RoleInventory, SourceRow: rowNum, Reason: err.Error()})
			continue
		}
		records = append(records, *rec)
	}
	return records, skipped, nil
}

// MapMaster reads the location column of the master workbook: the first
// header containing "location", else the first column.
func MapMaster(t *xlsxread.Table) ([]model.MasterLocation, []model.SkippedRow, error) {
	if len(t.Header) == 0 {
		return nil, nil, fmt.Errorf("%w: master sheet %q is empty", xlsxread.ErrMissingColumn, t.Sheet)
	}
	col := t.ColumnContaining("location")
	if col < 0 {
		col = 0
	}

	var locs []model.MasterLocation
	var skipped []model.SkippedRow
	for i, row := range t.Rows {
		if normalize.RowIsBlank(row) {
			continue
		}
		rowNum := t.RowNumber(i)
		loc := normalize.Location(xlsxread.CellAt(row, col))
		if loc == "" {
			skipped = append(skipped, model.SkippedRow{Role: model.RoleMaster, SourceRow: rowNum, Reason: "missing location"})
			continue
		}
		locs = append(locs, model.MasterLocation{Location: loc, SourceRow: rowNum})
	}
	return locs, skipped, nil
}
