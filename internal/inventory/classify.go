package inventory

import (
	"strings"

	"github.com/gyeh/binhelper/internal/model"
)

// Quantity bounds of the rack rules.
const (
	FullPalletMinQty = 6
	FullPalletMaxQty = 15
	PartialMaxQty    = 5
)

// Rules carries the configurable part of classification.
type Rules struct {
	// BulkZones maps a zone letter to the pallet capacity of each location in it.
	BulkZones map[string]int
}

// Zone returns the bulk zone of a location and its capacity.
func (r Rules) Zone(loc string) (string, int, bool) {
	if loc == "" {
		return "", 0, false
	}
	zone := strings.ToUpper(loc[:1])
	capacity, ok := r.BulkZones[zone]
	return zone, capacity, ok
}

// specialStatus maps the DAMAGE, IBDAMAGE and MISSING holding locations.
func specialStatus(loc string) (model.Status, bool) {
	switch strings.ToUpper(loc) {
	case "DAMAGE":
		return model.StatusDamage, true
	case "IBDAMAGE":
		return model.StatusIBDamage, true
	case "MISSING":
		return model.StatusMissing, true
	}
	return "", false
}

// IsPartialSlot: ends in 01, starts with a digit, not an 111 aisle, not a tunnel.
func IsPartialSlot(loc string) bool {
	if loc == "" || !isDigit(loc[0]) || !strings.HasSuffix(loc, "01") {
		return false
	}
	return !strings.HasPrefix(loc, "111") && !strings.HasPrefix(strings.ToUpper(loc), "TUN")
}

// IsRackSlot reports an all-digit full-pallet rack location.
func IsRackSlot(loc string) bool {
	return isNumeric(loc) && (!strings.HasSuffix(loc, "01") || strings.HasPrefix(loc, "111"))
}

// isInbound reports IB* receiving locations, which the discrepancy and
// duplicate checks ignore.
func isInbound(loc string) bool {
	return strings.HasPrefix(strings.ToUpper(loc), "IB")
}

func isNumeric(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if !isDigit(s[i]) {
			return false
		}
	}
	return true
}

func isDigit(b byte) bool { return b >= '0' && b <= '9' }

// ClassifyPallet assigns the status of an occupied inventory line.
// A rack slot holding a quantity outside the full-pallet range is
// contradictory and lands in StatusUnknown.
func (r Rules) ClassifyPallet(rec model.InventoryRecord) model.Status {
	loc := rec.Location
	if st, ok := specialStatus(loc); ok {
		return st
	}
	if IsPartialSlot(loc) {
		return model.StatusPartial
	}
	if IsRackSlot(loc) {
		if rec.Qty >= FullPalletMinQty && rec.Qty <= FullPalletMaxQty {
			return model.StatusFullPallet
		}
		return model.StatusUnknown
	}
	if _, _, ok := r.Zone(loc); ok {
		return model.StatusBulk
	}
	return model.StatusUnknown
}

// ClassifyVacant assigns the status of a master location with no pallet.
func ClassifyVacant(loc string) model.Status {
	switch {
	case IsPartialSlot(loc):
		return model.StatusEmptyPartial
	case !strings.HasSuffix(loc, "01"):
		return model.StatusEmpty
	default:
		return model.StatusUnknown
	}
}
