package model

// Origin tells which workbook produced a row.
type Origin string

const (
	// OriginInventory rows are pallet lines from the on-hand inventory workbook.
	OriginInventory Origin = "inventory"
	// OriginMaster rows are unoccupied locations from the master locations workbook.
	OriginMaster Origin = "master"
)

// Row is one classified record of an inventory snapshot.
type Row struct {
	Bin         string  `json:"bin"`
	Status      Status  `json:"status"`
	SKU         string  `json:"sku,omitempty"`
	Lot         string  `json:"lot,omitempty"`
	PalletID    string  `json:"pallet_id,omitempty"`
	Qty         float64 `json:"qty"`
	PalletCount float64 `json:"pallet_count"`
	Origin      Origin  `json:"origin"`
	SourceRow   int     `json:"source_row"`
}

// InventoryRecord is a mapped line of the inventory workbook before
// classification.
type InventoryRecord struct {
	Location    string
	SKU         string
	Lot         string
	PalletID    string
	Qty         float64
	PalletCount float64
	SourceRow   int
}

// SkippedRow records a spreadsheet row that could not be mapped.
type SkippedRow struct {
	Role      Role   `json:"role"`
	SourceRow int    `json:"source_row"`
	Reason    string `json:"reason"`
}

// MasterLocation is a location listed in the master locations workbook.
type MasterLocation struct {
	Location  string
	SourceRow int
}
