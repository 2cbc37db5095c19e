package inventory

import (
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/gyeh/binhelper/internal/model"
)

// Snapshot is the immutable result of one build. Accessors hand out copies.
type Snapshot struct {
	id      string
	builtAt time.Time
	rows    []model.Row
	counts  map[model.Status]int
	skipped []model.SkippedRow
	sources []model.Fingerprint
	rules   Rules
}

// Input is everything Build needs.
type Input struct {
	Inventory []model.InventoryRecord
	// Master holds master locations; duplicates and blanks are ignored.
	Master  []model.MasterLocation
	Skipped []model.SkippedRow
	Sources []model.Fingerprint
	Rules   Rules
	Now     time.Time
}

// Build classifies every inventory line, then adds one row per master
// location no non-special pallet occupies. Inventory rows keep their
// source order; vacant rows follow sorted by location.
func Build(in Input) *Snapshot {
	now := in.Now
	if now.IsZero() {
		now = time.Now()
	}
	s := &Snapshot{
		id:      uuid.NewString(),
		builtAt: now,
		counts:  make(map[model.Status]int, len(model.AllStatuses)),
		skipped: append([]model.SkippedRow(nil), in.Skipped...),
		sources: append([]model.Fingerprint(nil), in.Sources...),
		rules:   Rules{BulkZones: copyRules(in.Rules.BulkZones)},
	}

	occupied := make(map[string]struct{})
	s.rows = make([]model.Row, 0, len(in.Inventory)+len(in.Master))
	for _, rec := range in.Inventory {
		st := s.rules.ClassifyPallet(rec)
		if !st.Special() {
			occupied[rec.Location] = struct{}{}
		}
		s.add(model.Row{
			Bin:         rec.Location,
			Status:      st,
			SKU:         rec.SKU,
			Lot:         rec.Lot,
			PalletID:    rec.PalletID,
			Qty:         rec.Qty,
			PalletCount: rec.PalletCount,
			Origin:      model.OriginInventory,
			SourceRow:   rec.SourceRow,
		})
	}

	vacant := make(map[string]int)
	for _, m := range in.Master {
		loc := strings.TrimSpace(m.Location)
		if loc == "" {
			continue
		}
		if _, ok := occupied[loc]; ok {
			continue
		}
		if _, seen := vacant[loc]; !seen {
			vacant[loc] = m.SourceRow
		}
	}
	locs := make([]string, 0, len(vacant))
	for loc := range vacant {
		locs = append(locs, loc)
	}
	sort.Strings(locs)
	for _, loc := range locs {
		s.add(model.Row{
			Bin:       loc,
			Status:    ClassifyVacant(loc),
			Origin:    model.OriginMaster,
			SourceRow: vacant[loc],
		})
	}
	return s
}

func (s *Snapshot) add(r model.Row) {
	s.rows = append(s.rows, r)
	s.counts[r.Status]++
}

func copyRules(m map[string]int) map[string]int {
	out := make(map[string]int, len(m))
	for k, v := range m {
		out[strings.ToUpper(k)] = v
	}
	return out
}

// ID is a random identifier assigned at build time.
func (s *Snapshot) ID() string { return s.id }

// BuiltAt is when the snapshot was built.
func (s *Snapshot) BuiltAt() time.Time { return s.builtAt }

// Len is the number of classified rows.
func (s *Snapshot) Len() int { return len(s.rows) }

// Count returns the number of rows with status st.
func (s *Snapshot) Count(st model.Status) int { return s.counts[st] }

// Counts returns a copy of the per-status row counts.
func (s *Snapshot) Counts() map[model.Status]int {
	out := make(map[model.Status]int, len(s.counts))
	for k, v := range s.counts {
		out[k] = v
	}
	return out
}

// Rows returns a copy of all rows.
func (s *Snapshot) Rows() []model.Row {
	return append([]model.Row(nil), s.rows...)
}

// Skipped returns the rows that were dropped during mapping.
func (s *Snapshot) Skipped() []model.SkippedRow {
	return append([]model.SkippedRow(nil), s.skipped...)
}

// Sources returns the fingerprints of the workbooks behind the snapshot.
func (s *Snapshot) Sources() []model.Fingerprint {
	return append([]model.Fingerprint(nil), s.sources...)
}

// Source returns the fingerprint of the workbook playing role.
func (s *Snapshot) Source(role model.Role) (model.Fingerprint, bool) {
	for _, fp := range s.sources {
		if fp.Role == role {
			return fp, true
		}
	}
	return model.Fingerprint{}, false
}

// Rules returns the classification rules the snapshot was built with.
func (s *Snapshot) Rules() Rules {
	return Rules{BulkZones: copyRules(s.rules.BulkZones)}
}

// each visits rows in order without copying; fn returns false to stop.
func (s *Snapshot) each(fn func(model.Row) bool) {
	for _, r := range s.rows {
		if !fn(r) {
			return
		}
	}
}
