package inventory

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/gyeh/binhelper/internal/model"
	"github.com/gyeh/binhelper/internal/normalize"
)

// AskKind tells which field of an Answer carries the result.
type AskKind string

const (
	AskRows       AskKind = "rows"
	AskBulk       AskKind = "bulk"
	AskDuplicates AskKind = "duplicates"
	AskNone       AskKind = "none"
)

// Answer is the outcome of a free-text question.
type Answer struct {
	Kind        AskKind           `json:"kind"`
	Explanation string            `json:"explanation"`
	Rows        []model.Row       `json:"rows,omitempty"`
	Bulk        []BulkLocation    `json:"bulk,omitempty"`
	Duplicates  []DuplicatePallet `json:"duplicates,omitempty"`
}

// Len is the number of result entries.
func (a Answer) Len() int {
	switch a.Kind {
	case AskBulk:
		return len(a.Bulk)
	case AskDuplicates:
		if len(a.Duplicates) > 0 {
			return len(a.Duplicates)
		}
	}
	return len(a.Rows)
}

type cmpOp int

const (
	cmpNone cmpOp = iota
	cmpBetween
	cmpLE
	cmpGE
	cmpEQ
)

type comparator struct {
	op     cmpOp
	lo, hi int
}

func (c comparator) test(v int) bool {
	switch c.op {
	case cmpBetween:
		return v >= c.lo && v <= c.hi
	case cmpLE:
		return v <= c.hi
	case cmpGE:
		return v >= c.lo
	case cmpEQ:
		return v == c.lo
	}
	return true
}

func (c comparator) describe(field string) string {
	switch c.op {
	case cmpBetween:
		return fmt.Sprintf("%s between %d and %d", field, c.lo, c.hi)
	case cmpLE:
		return fmt.Sprintf("%s <= %d", field, c.hi)
	case cmpGE:
		return fmt.Sprintf("%s >= %d", field, c.lo)
	case cmpEQ:
		return fmt.Sprintf("%s == %d", field, c.lo)
	}
	return ""
}

var (
	reBetween = regexp.MustCompile(`between\s+(\d+)\s+and\s+(\d+)`)
	reLE      = regexp.MustCompile(`or\s+less|at\s+most|<=|≤`)
	reGE      = regexp.MustCompile(`or\s+more|at\s+least|>=|≥`)
	reEQ      = regexp.MustCompile(`\bexactly\b|\bequals?\s+to\b|==`)
	reNumber  = regexp.MustCompile(`\d+`)
	rePallet  = regexp.MustCompile(`(?i)pallet(?:\s+id)?\s+([A-Za-z0-9\-]+)`)
	reLot     = regexp.MustCompile(`(?i)lot(?:\s+number)?\s+(\d+)`)
	reSKU     = regexp.MustCompile(`(?i)sku\s+([A-Za-z0-9\-]+)`)
	reLocLike = regexp.MustCompile(`(?i)(?:location|bin)\s+(?:contains|like)\s+([A-Za-z0-9\-]+)`)
	reAisle   = regexp.MustCompile(`aisle\s+(\d{3})`)
)

func numbers(s string) []int {
	var out []int
	for _, m := range reNumber.FindAllString(s, -1) {
		if n, err := strconv.Atoi(m); err == nil {
			out = append(out, n)
		}
	}
	return out
}

func maxOf(ns []int) int {
	m := 0
	for i, n := range ns {
		if i == 0 || n > m {
			m = n
		}
	}
	return m
}

func parseComparator(ql string) comparator {
	if m := reBetween.FindStringSubmatch(ql); m != nil {
		a, _ := strconv.Atoi(m[1])
		b, _ := strconv.Atoi(m[2])
		if a > b {
			a, b = b, a
		}
		return comparator{op: cmpBetween, lo: a, hi: b}
	}
	nums := numbers(ql)
	switch {
	case reLE.MatchString(ql):
		return comparator{op: cmpLE, hi: maxOf(nums)}
	case reGE.MatchString(ql):
		return comparator{op: cmpGE, lo: maxOf(nums)}
	case reEQ.MatchString(ql) || len(nums) > 0:
		n := 0
		if len(nums) > 0 {
			n = nums[0]
		}
		return comparator{op: cmpEQ, lo: n}
	}
	return comparator{}
}

// Ask answers a short English question about s, such as "bulk locations
// with 5 pallets or less", "find pallet JTL00496" or "partial bins in
// aisle 114". Unrecognised text falls back to a search across location,
// pallet, SKU and lot.
func Ask(s *Snapshot, q string) Answer {
	raw := strings.TrimSpace(q)
	ql := strings.ToLower(raw)
	if ql == "" {
		return Answer{Kind: AskNone, Explanation: "Type something like: 'show me bulk locations with 5 pallets or less'."}
	}

	if strings.Contains(ql, "bulk") {
		return askBulk(s, ql)
	}

	if strings.Contains(ql, "duplicate") {
		summary, detail := DuplicatePallets(s)
		if m := rePallet.FindStringSubmatch(raw); m != nil {
			key := normalize.PalletKey(m[1])
			var rows []model.Row
			for _, r := range detail {
				if normalize.PalletKey(r.PalletID) == key {
					rows = append(rows, r)
				}
			}
			return Answer{Kind: AskRows, Rows: rows, Explanation: fmt.Sprintf("Duplicate detail for pallet %s.", key)}
		}
		return Answer{Kind: AskDuplicates, Duplicates: summary, Rows: detail, Explanation: "Duplicate pallet summary."}
	}

	if strings.Contains(ql, "partial") {
		f := Filter{Statuses: []model.Status{model.StatusPartial}}
		if m := reAisle.FindStringSubmatch(ql); m != nil {
			rows := prefixed(Query(s, f).Rows, m[1])
			return Answer{Kind: AskRows, Rows: rows, Explanation: fmt.Sprintf("Partial bins in aisle %s.", m[1])}
		}
		return rowsAnswer(s, f, "All partial bins.")
	}
	if strings.Contains(ql, "full") && strings.Contains(ql, "bin") {
		return rowsAnswer(s, Filter{Statuses: []model.Status{model.StatusFullPallet}}, "Full pallet bins.")
	}
	if strings.Contains(ql, "rack") && (strings.Contains(ql, "multiple") || strings.Contains(ql, "more than one") || strings.Contains(ql, ">1")) {
		var rows []model.Row
		for _, d := range Discrepancies(s) {
			if d.Kind == DiscrepancyMultiPallet {
				rows = append(rows, d.Row)
			}
		}
		return Answer{Kind: AskRows, Rows: rows, Explanation: "Rack locations with multiple pallets."}
	}
	if strings.Contains(ql, "damage") {
		return rowsAnswer(s, Filter{Statuses: []model.Status{model.StatusDamage, model.StatusIBDamage}}, "Damaged pallets.")
	}
	if strings.Contains(ql, "missing") {
		return rowsAnswer(s, Filter{Statuses: []model.Status{model.StatusMissing}}, "Missing pallets.")
	}

	if m := rePallet.FindStringSubmatch(raw); m != nil {
		id := normalize.PalletID(m[1])
		return rowsAnswer(s, Filter{Pallet: id, Match: MatchExact, Origin: model.OriginInventory}, fmt.Sprintf("Where is pallet %q?", id))
	}
	if m := reLot.FindStringSubmatch(raw); m != nil {
		lot := normalize.LotNumber(m[1])
		return rowsAnswer(s, Filter{Lot: m[1], Origin: model.OriginInventory}, fmt.Sprintf("Rows for lot %q.", lot))
	}
	if m := reSKU.FindStringSubmatch(raw); m != nil {
		return rowsAnswer(s, Filter{SKU: m[1], Origin: model.OriginInventory}, fmt.Sprintf("Rows for SKU containing %q.", m[1]))
	}
	if m := reLocLike.FindStringSubmatch(raw); m != nil {
		return rowsAnswer(s, Filter{Location: m[1], Origin: model.OriginInventory}, fmt.Sprintf("Rows where location contains %q.", m[1]))
	}

	return Answer{Kind: AskRows, Rows: search(s, raw), Explanation: fmt.Sprintf("Search across location, pallet, SKU and lot for %q.", raw)}
}

func askBulk(s *Snapshot, ql string) Answer {
	all := BulkLocations(s)
	field, value := "pallet count", func(b BulkLocation) int { return b.PalletCount }
	emptySlots := strings.Contains(ql, "empty slot") || strings.Contains(ql, "available")
	if emptySlots {
		field, value = "empty slots", func(b BulkLocation) int { return b.EmptySlots }
	}
	c := parseComparator(ql)
	if c.op == cmpNone {
		if emptySlots {
			c = comparator{op: cmpGE, lo: 1}
		} else {
			return Answer{Kind: AskBulk, Bulk: all, Explanation: "All bulk locations."}
		}
	}
	out := []BulkLocation{}
	for _, b := range all {
		if c.test(value(b)) {
			out = append(out, b)
		}
	}
	return Answer{Kind: AskBulk, Bulk: out, Explanation: fmt.Sprintf("Bulk locations with %s.", c.describe(field))}
}

func rowsAnswer(s *Snapshot, f Filter, explanation string) Answer {
	return Answer{Kind: AskRows, Rows: Query(s, f).Rows, Explanation: explanation}
}

func prefixed(rows []model.Row, prefix string) []model.Row {
	var out []model.Row
	for _, r := range rows {
		if strings.HasPrefix(r.Bin, prefix) {
			out = append(out, r)
		}
	}
	return out
}

// search matches an exact location first, then a case-insensitive
// substring of location, pallet or SKU, or the normalized lot.
func search(s *Snapshot, text string) []model.Row {
	if exact := Query(s, Filter{Location: text}).Rows; len(exact) > 0 {
		var hits []model.Row
		for _, r := range exact {
			if strings.EqualFold(r.Bin, text) {
				hits = append(hits, r)
			}
		}
		if len(hits) > 0 {
			return hits
		}
	}
	needle := strings.ToLower(text)
	lot := normalize.LotNumber(text)
	var out []model.Row
	s.each(func(r model.Row) bool {
		if r.Origin != model.OriginInventory {
			return true
		}
		if strings.Contains(strings.ToLower(r.Bin), needle) ||
			strings.Contains(strings.ToLower(r.PalletID), needle) ||
			strings.Contains(strings.ToLower(r.SKU), needle) ||
			(lot != "" && strings.Contains(r.Lot, lot)) {
			out = append(out, r)
		}
		return true
	})
	return out
}
