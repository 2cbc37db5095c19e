package normalize

import (
	"errors"
	"strings"

	"github.com/gyeh/binhelper/internal/model"
)

// ErrMissingLocation rejects an inventory row without a LocationName.
var ErrMissingLocation = errors.New("missing LocationName")

// Inventory column headers as exported by the WMS.
const (
	ColLocation    = "LocationName"
	ColSKU         = "WarehouseSku"
	ColPalletID    = "PalletId"
	ColLot         = "CustomerLotReference"
	ColQty         = "Qty"
	ColPalletCount = "PalletCount"
)

// InventoryColumns lists the mapped inventory headers. Only ColLocation is
// required; absent optional columns read as blank.
var InventoryColumns = []string{ColLocation, ColSKU, ColPalletID, ColLot, ColQty, ColPalletCount}

// ToInventoryRecord converts one spreadsheet row into an InventoryRecord.
// cell returns the raw text of a column ("" when absent).
func ToInventoryRecord(cell func(col string) string, rowNum int) (*model.InventoryRecord, error) {
	loc := Location(cell(ColLocation))
	if loc == "" {
		return nil, ErrMissingLocation
	}
	return &model.InventoryRecord{
		Location:    loc,
		SKU:         SKU(cell(ColSKU)),
		Lot:         LotNumber(cell(ColLot)),
		PalletID:    PalletID(cell(ColPalletID)),
		Qty:         Quantity(cell(ColQty)),
		PalletCount: Quantity(cell(ColPalletCount)),
		SourceRow:   rowNum,
	}, nil
}

// RowIsBlank reports whether every cell of a spreadsheet row is empty.
func RowIsBlank(cells []string) bool {
	for _, c := range cells {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}
