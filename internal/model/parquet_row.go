package model

// ExportRow is the Parquet layout of one snapshot row. Text fields that a
// row may lack are optional so they export as nulls rather than "".
type ExportRow struct {
	SnapshotID  string  `parquet:"snapshot_id"`
	Bin         string  `parquet:"bin"`
	Status      string  `parquet:"status"`
	Origin      string  `parquet:"origin"`
	SKU         *string `parquet:"sku,optional"`
	Lot         *string `parquet:"lot,optional"`
	PalletID    *string `parquet:"pallet_id,optional"`
	Qty         float64 `parquet:"qty"`
	PalletCount float64 `parquet:"pallet_count"`
	SourceRow   int32   `parquet:"source_row"`
}

// NewExportRow converts a snapshot row.
func NewExportRow(snapshotID string, r Row) ExportRow {
	return ExportRow{
		SnapshotID:  snapshotID,
		Bin:         r.Bin,
		Status:      string(r.Status),
		Origin:      string(r.Origin),
		SKU:         optional(r.SKU),
		Lot:         optional(r.Lot),
		PalletID:    optional(r.PalletID),
		Qty:         r.Qty,
		PalletCount: r.PalletCount,
		SourceRow:   int32(r.SourceRow),
	}
}

// Row converts back to a snapshot row.
func (e ExportRow) Row() Row {
	return Row{
		Bin:         e.Bin,
		Status:      Status(e.Status),
		Origin:      Origin(e.Origin),
		SKU:         deref(e.SKU),
		Lot:         deref(e.Lot),
		PalletID:    deref(e.PalletID),
		Qty:         e.Qty,
		PalletCount: e.PalletCount,
		SourceRow:   int(e.SourceRow),
	}
}

// ExportColumns lists the required Parquet columns.
func ExportColumns() []string {
	return []string{"snapshot_id", "bin", "status", "origin", "qty", "pallet_count", "source_row"}
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
