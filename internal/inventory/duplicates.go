package inventory

import (
	"sort"

	"github.com/gyeh/binhelper/internal/model"
	"github.com/gyeh/binhelper/internal/normalize"
)

// DuplicatePallet is a pallet ID recorded at more than one location.
type DuplicatePallet struct {
	PalletID          string   `json:"pallet_id"`
	DistinctLocations int      `json:"distinct_locations"`
	Locations         []string `json:"locations"`
}

// DuplicatePallets compares pallet IDs case-insensitively across the
// non-special, non-IB* pallet rows. It returns the summary, most spread
// first, and the detail rows of every duplicated pallet.
func DuplicatePallets(s *Snapshot) ([]DuplicatePallet, []model.Row) {
	locs := make(map[string]map[string]struct{})
	rowsByKey := make(map[string][]model.Row)
	s.each(func(r model.Row) bool {
		if r.Origin != model.OriginInventory || r.Status.Special() || isInbound(r.Bin) {
			return true
		}
		key := normalize.PalletKey(r.PalletID)
		if key == "" {
			return true
		}
		if locs[key] == nil {
			locs[key] = make(map[string]struct{})
		}
		locs[key][r.Bin] = struct{}{}
		rowsByKey[key] = append(rowsByKey[key], r)
		return true
	})

	var summary []DuplicatePallet
	for key, set := range locs {
		if len(set) < 2 {
			continue
		}
		names := make([]string, 0, len(set))
		for loc := range set {
			names = append(names, loc)
		}
		sort.Strings(names)
		summary = append(summary, DuplicatePallet{PalletID: key, DistinctLocations: len(set), Locations: names})
	}
	sort.Slice(summary, func(i, j int) bool {
		if summary[i].DistinctLocations != summary[j].DistinctLocations {
			return summary[i].DistinctLocations > summary[j].DistinctLocations
		}
		return summary[i].PalletID < summary[j].PalletID
	})

	var detail []model.Row
	for _, d := range summary {
		detail = append(detail, rowsByKey[d.PalletID]...)
	}
	return summary, detail
}
