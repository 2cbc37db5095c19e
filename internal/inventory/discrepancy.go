package inventory

import (
	"fmt"
	"sort"
	"strconv"

	"github.com/gyeh/binhelper/internal/model"
	"github.com/gyeh/binhelper/internal/normalize"
)

// Discrepancy kinds.
const (
	DiscrepancyPartial     = "partial"
	DiscrepancyRack        = "rack"
	DiscrepancyBulk        = "bulk"
	DiscrepancyMultiPallet = "multi-pallet"
)

// Discrepancy is an inventory line that breaks a slotting rule.
type Discrepancy struct {
	Kind     string    `json:"kind"`
	Issue    string    `json:"issue"`
	Key      string    `json:"key"`
	Row      model.Row `json:"row"`
	Resolved bool      `json:"resolved"` // set by MarkResolved
}

// Discrepancies runs every slotting check over the pallet rows of s,
// ignoring special holding areas and IB* receiving locations.
func Discrepancies(s *Snapshot) []Discrepancy {
	var rows []model.Row
	s.each(func(r model.Row) bool {
		if r.Origin == model.OriginInventory && !r.Status.Special() && !isInbound(r.Bin) {
			rows = append(rows, r)
		}
		return true
	})

	var out []Discrepancy
	add := func(kind, issue string, r model.Row) {
		out = append(out, Discrepancy{Kind: kind, Issue: issue, Key: DiscrepancyKey(kind, r), Row: r})
	}

	byLoc := make(map[string][]model.Row)
	for _, r := range rows {
		byLoc[r.Bin] = append(byLoc[r.Bin], r)
		switch {
		case IsPartialSlot(r.Bin):
			if r.Qty > PartialMaxQty {
				add(DiscrepancyPartial, "Qty too high for partial bin", r)
			} else if r.PalletCount > 1 {
				add(DiscrepancyPartial, "Multiple pallets in partial bin", r)
			}
		case IsRackSlot(r.Bin):
			if r.Qty < FullPalletMinQty || r.Qty > FullPalletMaxQty {
				add(DiscrepancyRack, "Partial Pallet needs to be moved to Partial Location", r)
			}
		}
	}

	locs := make([]string, 0, len(byLoc))
	for loc := range byLoc {
		locs = append(locs, loc)
	}
	sort.Strings(locs)
	for _, loc := range locs {
		group := byLoc[loc]
		if group[0].Status == model.StatusBulk {
			if _, capacity, ok := s.rules.Zone(loc); ok && len(group) > capacity {
				for _, r := range group {
					add(DiscrepancyBulk, fmt.Sprintf("Exceeds max allowed: %d > %d", len(group), capacity), r)
				}
			}
			continue
		}
		if IsRackSlot(loc) {
			if n := distinctPallets(group); n > 1 {
				for _, r := range group {
					add(DiscrepancyMultiPallet, fmt.Sprintf("Multiple pallets in rack location: %d", n), r)
				}
			}
		}
	}
	return out
}

// DiscrepancyKey is the stable key a fix-log entry refers to.
func DiscrepancyKey(kind string, r model.Row) string {
	return normalize.RowKey(kind, r.Bin, r.PalletID, r.SKU, r.Lot, strconv.FormatFloat(r.Qty, 'f', -1, 64))
}

func distinctPallets(rows []model.Row) int {
	seen := make(map[string]struct{})
	for _, r := range rows {
		if key := normalize.PalletKey(r.PalletID); key != "" {
			seen[key] = struct{}{}
		}
	}
	return len(seen)
}

// MarkResolved flags the discrepancies whose key is in resolved and, when
// hide is set, drops them.
func MarkResolved(ds []Discrepancy, resolved map[string]struct{}, hide bool) []Discrepancy {
	out := make([]Discrepancy, 0, len(ds))
	for _, d := range ds {
		_, d.Resolved = resolved[d.Key]
		if d.Resolved && hide {
			continue
		}
		out = append(out, d)
	}
	return out
}
