package inventory

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/gyeh/binhelper/internal/model"
	"github.com/gyeh/binhelper/internal/normalize"
)

// MatchMode selects how the Lot and Pallet filters compare.
type MatchMode int

const (
	MatchContains MatchMode = iota
	MatchExact
)

// Filter combines its non-empty dimensions with logical AND.
type Filter struct {
	Statuses []model.Status
	SKU      string // case-insensitive substring
	Lot      string // normalized lot number
	Pallet   string // case-insensitive
	Location string // case-insensitive substring
	Origin   model.Origin
	Match    MatchMode
	// Limit caps the returned rows; Count still reports every match.
	Limit int
}

// Result is the matching row subset and its count.
type Result struct {
	Rows  []model.Row `json:"rows"`
	Count int         `json:"count"`
}

// Query returns the rows of s that match f. A filter that matches nothing
// yields an empty result, never an error.
func Query(s *Snapshot, f Filter) Result {
	m := f.matcher()
	res := Result{Rows: []model.Row{}}
	if s == nil {
		return res
	}
	s.each(func(r model.Row) bool {
		if m.match(r) {
			res.Count++
			if f.Limit <= 0 || len(res.Rows) < f.Limit {
				res.Rows = append(res.Rows, r)
			}
		}
		return true
	})
	return res
}

// Matches reports whether a single row passes the filter.
func (f Filter) Matches(r model.Row) bool {
	return f.matcher().match(r)
}

// IsEmpty reports whether no dimension is active.
func (f Filter) IsEmpty() bool {
	return len(f.Statuses) == 0 && f.SKU == "" && f.Lot == "" && f.Pallet == "" && f.Location == "" && f.Origin == ""
}

type matcher struct {
	statuses map[model.Status]struct{}
	sku      string
	lotSet   bool
	lot      string
	pallet   string
	location string
	origin   model.Origin
	exact    bool
}

func (f Filter) matcher() matcher {
	m := matcher{
		sku:      strings.ToLower(strings.TrimSpace(f.SKU)),
		lotSet:   strings.TrimSpace(f.Lot) != "",
		lot:      normalize.LotNumber(f.Lot),
		pallet:   normalize.PalletKey(f.Pallet),
		location: strings.ToLower(strings.TrimSpace(f.Location)),
		origin:   f.Origin,
		exact:    f.Match == MatchExact,
	}
	if len(f.Statuses) > 0 {
		m.statuses = make(map[model.Status]struct{}, len(f.Statuses))
		for _, st := range f.Statuses {
			m.statuses[st] = struct{}{}
		}
	}
	return m
}

func (m matcher) match(r model.Row) bool {
	if m.statuses != nil {
		if _, ok := m.statuses[r.Status]; !ok {
			return false
		}
	}
	if m.origin != "" && r.Origin != m.origin {
		return false
	}
	if m.sku != "" && !strings.Contains(strings.ToLower(r.SKU), m.sku) {
		return false
	}
	if m.location != "" && !strings.Contains(strings.ToLower(r.Bin), m.location) {
		return false
	}
	if m.lotSet {
		// A lot filter without digits can never match a normalized lot.
		if m.lot == "" || !m.compare(r.Lot, m.lot) {
			return false
		}
	}
	if m.pallet != "" && !m.compare(strings.ToUpper(r.PalletID), m.pallet) {
		return false
	}
	return true
}

func (m matcher) compare(have, want string) bool {
	if m.exact {
		return have == want
	}
	return strings.Contains(have, want)
}

// ParseFilter builds a Filter from URL query parameters: status (repeatable
// or comma separated), sku, lot, pallet, location, origin, match=exact and
// limit.
func ParseFilter(v url.Values) (Filter, error) {
	var f Filter
	for _, raw := range v["status"] {
		for _, part := range strings.Split(raw, ",") {
			if strings.TrimSpace(part) == "" {
				continue
			}
			st, err := model.ParseStatus(part)
			if err != nil {
				return Filter{}, err
			}
			f.Statuses = append(f.Statuses, st)
		}
	}
	f.SKU = strings.TrimSpace(v.Get("sku"))
	f.Lot = strings.TrimSpace(v.Get("lot"))
	f.Pallet = strings.TrimSpace(v.Get("pallet"))
	f.Location = strings.TrimSpace(v.Get("location"))

	switch o := model.Origin(strings.ToLower(strings.TrimSpace(v.Get("origin")))); o {
	case "", model.OriginInventory, model.OriginMaster:
		f.Origin = o
	default:
		return Filter{}, fmt.Errorf("unknown origin %q", o)
	}

	switch strings.ToLower(strings.TrimSpace(v.Get("match"))) {
	case "", "contains":
		f.Match = MatchContains
	case "exact":
		f.Match = MatchExact
	default:
		return Filter{}, fmt.Errorf("match must be contains or exact, got %q", v.Get("match"))
	}

	if raw := strings.TrimSpace(v.Get("limit")); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			return Filter{}, fmt.Errorf("invalid limit %q", raw)
		}
		f.Limit = n
	}
	return f, nil
}
