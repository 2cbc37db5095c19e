package model

import "github.com/google/uuid"

// PublishRow is one snapshot row bound for the snapshot_rows table.
type PublishRow struct {
	SnapshotID uuid.UUID
	Seq        int32
	Row
}

// PublishColumns returns the COPY column order matching CopyValues.
func PublishColumns() []string {
	return []string{
		"snapshot_id",
		"seq",
		"bin",
		"status",
		"sku",
		"lot",
		"pallet_id",
		"qty",
		"pallet_count",
		"origin",
		"source_row",
	}
}

// CopyValues returns the row values in PublishColumns order.
func (r *PublishRow) CopyValues() []any {
	return []any{
		r.SnapshotID,
		r.Seq,
		r.Bin,
		string(r.Status),
		optional(r.SKU),
		optional(r.Lot),
		optional(r.PalletID),
		r.Qty,
		r.PalletCount,
		string(r.Origin),
		int32(r.SourceRow),
	}
}
