package model

import (
	"fmt"
	"strings"
)

// Status is the occupancy category of a bin row. Every row in a snapshot
// carries exactly one Status.
type Status string

const (
	StatusEmpty        Status = "empty"
	StatusFullPallet   Status = "full-pallet"
	StatusEmptyPartial Status = "empty-partial"
	StatusPartial      Status = "partial"
	StatusDamage       Status = "damage"
	StatusIBDamage     Status = "ibdamage"
	StatusMissing      Status = "missing"
	StatusBulk         Status = "bulk"
	StatusUnknown      Status = "unknown"
)

// AllStatuses lists every status in display order.
var AllStatuses = []Status{
	StatusEmpty,
	StatusFullPallet,
	StatusEmptyPartial,
	StatusPartial,
	StatusDamage,
	StatusIBDamage,
	StatusMissing,
	StatusBulk,
	StatusUnknown,
}

// ParseStatus accepts the canonical name plus a few spellings used by the
// dashboard ("full", "empty_partial", "ib-damage").
func ParseStatus(s string) (Status, error) {
	key := strings.ToLower(strings.TrimSpace(s))
	key = strings.NewReplacer("_", "-", " ", "-").Replace(key)
	switch key {
	case "full", "full-pallet", "fullpallet":
		return StatusFullPallet, nil
	case "empty-partial", "emptypartial":
		return StatusEmptyPartial, nil
	case "ib-damage", "ibdamage":
		return StatusIBDamage, nil
	case "damages":
		return StatusDamage, nil
	}
	for _, st := range AllStatuses {
		if string(st) == key {
			return st, nil
		}
	}
	return "", fmt.Errorf("unknown status %q", s)
}

// Special reports whether the status is one of the non-rack holding areas.
func (s Status) Special() bool {
	return s == StatusDamage || s == StatusIBDamage || s == StatusMissing
}
