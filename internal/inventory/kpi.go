package inventory

import (
	"fmt"
	"strings"

	"github.com/gyeh/binhelper/internal/model"
	"github.com/gyeh/binhelper/internal/normalize"
)

// KPI names one dashboard summary card.
type KPI string

const (
	KPIEmptyBins        KPI = "empty-bins"
	KPIEmptyPartialBins KPI = "empty-partial-bins"
	KPIPartialBins      KPI = "partial-bins"
	KPIFullPalletBins   KPI = "full-pallet-bins"
	KPIDamages          KPI = "damages"
	KPIMissing          KPI = "missing"
)

// Cards lists the KPI cards in display order.
var Cards = []KPI{KPIEmptyBins, KPIFullPalletBins, KPIEmptyPartialBins, KPIPartialBins, KPIDamages, KPIMissing}

var kpiStatuses = map[KPI][]model.Status{
	KPIEmptyBins:        {model.StatusEmpty},
	KPIEmptyPartialBins: {model.StatusEmptyPartial},
	KPIPartialBins:      {model.StatusPartial},
	KPIFullPalletBins:   {model.StatusFullPallet},
	KPIDamages:          {model.StatusDamage, model.StatusIBDamage},
	KPIMissing:          {model.StatusMissing},
}

// Label is the card title.
func (k KPI) Label() string {
	switch k {
	case KPIEmptyBins:
		return "Empty Bins"
	case KPIEmptyPartialBins:
		return "Empty Partial Bins"
	case KPIPartialBins:
		return "Partial Bins"
	case KPIFullPalletBins:
		return "Full Pallet Bins"
	case KPIDamages:
		return "Damages"
	case KPIMissing:
		return "Missing"
	}
	return string(k)
}

// ParseKPI accepts the KPI id or its label.
func ParseKPI(s string) (KPI, error) {
	key := strings.ToLower(strings.TrimSpace(s))
	key = strings.NewReplacer(" ", "-", "_", "-").Replace(key)
	for _, k := range Cards {
		if string(k) == key {
			return k, nil
		}
	}
	return "", fmt.Errorf("unknown kpi %q", s)
}

// KPIFilter returns the filter whose Count is the card's value.
func KPIFilter(k KPI) (Filter, bool) {
	st, ok := kpiStatuses[k]
	if !ok {
		return Filter{}, false
	}
	return Filter{Statuses: append([]model.Status(nil), st...)}, true
}

// Summary holds the dashboard counters of one snapshot.
type Summary struct {
	EmptyBins        int   `json:"empty_bins"`
	EmptyPartialBins int   `json:"empty_partial_bins"`
	PartialBins      int   `json:"partial_bins"`
	FullPalletBins   int   `json:"full_pallet_bins"`
	Damages          int   `json:"damages"`
	DamageQty        int64 `json:"damage_qty"`
	Missing          int   `json:"missing"`
	RackCount        int   `json:"rack_count"`
	BulkCount        int   `json:"bulk_count"`
	SpecialCount     int   `json:"special_count"`
	BulkUsed         int   `json:"bulk_used"`
	BulkEmpty        int   `json:"bulk_empty"`
	Unknown          int   `json:"unknown"`
	Skipped          int   `json:"skipped"`
	Total            int   `json:"total"`
}

// Summarize computes the counters of s.
func Summarize(s *Snapshot) Summary {
	sum := Summary{
		EmptyBins:        s.Count(model.StatusEmpty),
		EmptyPartialBins: s.Count(model.StatusEmptyPartial),
		PartialBins:      s.Count(model.StatusPartial),
		FullPalletBins:   s.Count(model.StatusFullPallet),
		Damages:          s.Count(model.StatusDamage) + s.Count(model.StatusIBDamage),
		Missing:          s.Count(model.StatusMissing),
		BulkCount:        s.Count(model.StatusBulk),
		SpecialCount:     s.Count(model.StatusDamage) + s.Count(model.StatusIBDamage) + s.Count(model.StatusMissing),
		Unknown:          s.Count(model.StatusUnknown),
		Skipped:          len(s.skipped),
		Total:            s.Len(),
	}
	s.each(func(r model.Row) bool {
		if r.Origin != model.OriginInventory {
			return true
		}
		if r.Status == model.StatusDamage || r.Status == model.StatusIBDamage {
			sum.DamageQty += normalize.WholeQuantity(r.Qty)
		}
		if isNumeric(r.Bin) {
			sum.RackCount++
		}
		return true
	})
	for _, b := range BulkLocations(s) {
		sum.BulkUsed += b.PalletCount
		sum.BulkEmpty += b.EmptySlots
	}
	return sum
}

// Value returns the card value of k.
func (s Summary) Value(k KPI) int {
	switch k {
	case KPIEmptyBins:
		return s.EmptyBins
	case KPIEmptyPartialBins:
		return s.EmptyPartialBins
	case KPIPartialBins:
		return s.PartialBins
	case KPIFullPalletBins:
		return s.FullPalletBins
	case KPIDamages:
		return s.Damages
	case KPIMissing:
		return s.Missing
	}
	return 0
}
