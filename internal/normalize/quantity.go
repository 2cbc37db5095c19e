package normalize

import (
	"math"
	"strconv"
	"strings"
)

// Quantity parses a numeric cell. Blank or non-numeric cells coerce to 0,
// matching how the dashboard treats Qty and PalletCount.
func Quantity(v string) float64 {
	s := strings.TrimSpace(strings.ReplaceAll(v, ",", ""))
	if s == "" {
		return 0
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0
	}
	return f
}

// WholeQuantity rounds a quantity for display and counting.
func WholeQuantity(v float64) int64 {
	return int64(math.Round(v))
}
