package inventory

import (
	"sort"

	"github.com/gyeh/binhelper/internal/model"
)

// BulkLocation is the fill level of one bulk floor location.
type BulkLocation struct {
	Location    string `json:"location"`
	Zone        string `json:"zone"`
	PalletCount int    `json:"pallet_count"`
	MaxAllowed  int    `json:"max_allowed"`
	EmptySlots  int    `json:"empty_slots"`
}

// BulkLocations groups bulk rows by location, sorted by location.
func BulkLocations(s *Snapshot) []BulkLocation {
	counts := make(map[string]int)
	s.each(func(r model.Row) bool {
		if r.Status == model.StatusBulk {
			counts[r.Bin]++
		}
		return true
	})

	out := make([]BulkLocation, 0, len(counts))
	for loc, n := range counts {
		zone, capacity, _ := s.rules.Zone(loc)
		empty := capacity - n
		if empty < 0 {
			empty = 0
		}
		out = append(out, BulkLocation{
			Location:    loc,
			Zone:        zone,
			PalletCount: n,
			MaxAllowed:  capacity,
			EmptySlots:  empty,
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Location < out[j].Location })
	return out
}

// EmptyBulkLocations returns the bulk locations with at least one free slot.
func EmptyBulkLocations(s *Snapshot) []BulkLocation {
	var out []BulkLocation
	for _, b := range BulkLocations(s) {
		if b.EmptySlots > 0 {
			out = append(out, b)
		}
	}
	return out
}
