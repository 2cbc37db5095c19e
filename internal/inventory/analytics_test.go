package inventory

import (
	"strings"
	"testing"

	"github.com/gyeh/binhelper/internal/model"
)

func analyticsSnapshot() *Snapshot {
	inv := []model.InventoryRecord{
		{Location: "11400804", PalletID: "P1", Qty: 10, PalletCount: 1},
		{Location: "11400804", PalletID: "P2", Qty: 8, PalletCount: 1},
		{Location: "11400806", PalletID: "P3", Qty: 3, PalletCount: 1},
		{Location: "11400801", PalletID: "P4", Qty: 7, PalletCount: 1},
		{Location: "11400901", PalletID: "P5", Qty: 2, PalletCount: 2},
		{Location: "DAMAGE", PalletID: "P6", Qty: 4, PalletCount: 1},
		{Location: "IBDAMAGE", PalletID: "P7", Qty: 2, PalletCount: 1},
		{Location: "MISSING", PalletID: "P8", Qty: 1, PalletCount: 1},
		{Location: "IB01", PalletID: "p1", Qty: 1, PalletCount: 1},
		{Location: "B7", PalletID: "p1", Qty: 1, PalletCount: 1},
	}
	for i := 0; i < 5; i++ {
		inv = append(inv, model.InventoryRecord{Location: "B1", PalletID: "B" + string(rune('a'+i)), Qty: 1, PalletCount: 1})
	}
	inv = append(inv, model.InventoryRecord{Location: "A2", PalletID: "A-1", Qty: 1, PalletCount: 1})
	return Build(Input{
		Inventory: inv,
		Master:    []model.MasterLocation{{Location: "11400805", SourceRow: 2}, {Location: "11400701", SourceRow: 3}},
		Rules:     Rules{BulkZones: map[string]int{"A": 5, "B": 4}},
	})
}

func TestSummarize(t *testing.T) {
	s := analyticsSnapshot()
	sum := Summarize(s)
	if sum.Damages != 2 || sum.DamageQty != 6 {
		t.Errorf("damages = %d qty %d, want 2 and 6", sum.Damages, sum.DamageQty)
	}
	if sum.Missing != 1 || sum.SpecialCount != 3 {
		t.Errorf("missing = %d special = %d", sum.Missing, sum.SpecialCount)
	}
	if sum.BulkCount != 7 {
		t.Errorf("bulk = %d, want 7", sum.BulkCount)
	}
	if sum.BulkUsed != 7 || sum.BulkEmpty != 4+3 {
		t.Errorf("bulk used %d empty %d", sum.BulkUsed, sum.BulkEmpty)
	}
	if sum.Total != s.Len() {
		t.Errorf("total = %d, want %d", sum.Total, s.Len())
	}
}

func TestKPICountEqualsFilteredRows(t *testing.T) {
	s := analyticsSnapshot()
	sum := Summarize(s)
	for _, k := range Cards {
		f, ok := KPIFilter(k)
		if !ok {
			t.Fatalf("no filter for %s", k)
		}
		if got := Query(s, f).Count; got != sum.Value(k) {
			t.Errorf("%s: card %d, filtered rows %d", k, sum.Value(k), got)
		}
	}
}

func TestParseKPI(t *testing.T) {
	for in, want := range map[string]KPI{
		"Empty Bins":       KPIEmptyBins,
		"full_pallet_bins": KPIFullPalletBins,
		"damages":          KPIDamages,
	} {
		got, err := ParseKPI(in)
		if err != nil || got != want {
			t.Errorf("ParseKPI(%q) = %s, %v", in, got, err)
		}
	}
	if _, err := ParseKPI("nope"); err == nil {
		t.Error("ParseKPI(nope) succeeded")
	}
}

func TestBulkLocations(t *testing.T) {
	bulk := BulkLocations(analyticsSnapshot())
	if len(bulk) != 3 {
		t.Fatalf("bulk = %+v", bulk)
	}
	byLoc := map[string]BulkLocation{}
	for _, b := range bulk {
		byLoc[b.Location] = b
	}
	if b := byLoc["B1"]; b.PalletCount != 5 || b.MaxAllowed != 4 || b.EmptySlots != 0 {
		t.Errorf("B1 = %+v", b)
	}
	if b := byLoc["A2"]; b.EmptySlots != 4 {
		t.Errorf("A2 = %+v", b)
	}
	empty := EmptyBulkLocations(analyticsSnapshot())
	if len(empty) != 2 {
		t.Errorf("empty bulk = %+v", empty)
	}
}

func TestDiscrepancies(t *testing.T) {
	got := map[string]int{}
	for _, d := range Discrepancies(analyticsSnapshot()) {
		got[d.Kind]++
		if strings.HasPrefix(d.Row.Bin, "IB") || d.Row.Status.Special() {
			t.Errorf("unexpected discrepancy on %s", d.Row.Bin)
		}
		if len(d.Key) != 16 {
			t.Errorf("key %q", d.Key)
		}
	}
	want := map[string]int{
		DiscrepancyPartial:     2, // 11400801 qty 7, 11400901 two pallets
		DiscrepancyRack:        1, // 11400806 qty 3
		DiscrepancyBulk:        5, // B1 holds 5 of 4
		DiscrepancyMultiPallet: 2, // 11400804 holds P1 and P2
	}
	for k, n := range want {
		if got[k] != n {
			t.Errorf("%s discrepancies = %d, want %d", k, got[k], n)
		}
	}
}

func TestDiscrepancyKeyStable(t *testing.T) {
	r := model.Row{Bin: "11400804", PalletID: "P1", Qty: 10}
	if DiscrepancyKey(DiscrepancyRack, r) != DiscrepancyKey(DiscrepancyRack, r) {
		t.Error("key not deterministic")
	}
	if DiscrepancyKey(DiscrepancyRack, r) == DiscrepancyKey(DiscrepancyPartial, r) {
		t.Error("key ignores kind")
	}
}

func TestDuplicatePallets(t *testing.T) {
	s := Build(Input{
		Inventory: []model.InventoryRecord{
			{Location: "11400804", PalletID: "JTL1", Qty: 10},
			{Location: "11400806", PalletID: "jtl1", Qty: 10},
			{Location: "A1", PalletID: "JTL1", Qty: 1},
			{Location: "11400808", PalletID: "X2", Qty: 10},
			{Location: "11400810", PalletID: "X2", Qty: 10},
			{Location: "IB03", PalletID: "Y3", Qty: 10},
			{Location: "11400812", PalletID: "Y3", Qty: 10},
			{Location: "DAMAGE", PalletID: "X2", Qty: 1},
		},
		Rules: testRules,
	})
	summary, detail := DuplicatePallets(s)
	if len(summary) != 2 {
		t.Fatalf("summary = %+v", summary)
	}
	if summary[0].PalletID != "JTL1" || summary[0].DistinctLocations != 3 {
		t.Errorf("summary[0] = %+v", summary[0])
	}
	if summary[1].PalletID != "X2" || summary[1].DistinctLocations != 2 {
		t.Errorf("summary[1] = %+v", summary[1])
	}
	if len(detail) != 5 {
		t.Errorf("detail rows = %d, want 5", len(detail))
	}
}

func TestAsk(t *testing.T) {
	s := analyticsSnapshot()
	tests := []struct {
		q       string
		kind    AskKind
		wantLen int
	}{
		{"", AskNone, 0},
		{"show me bulk locations with 1 pallets or less", AskBulk, 2},
		{"bulk with at least 1 empty slot", AskBulk, 2},
		{"bulk locations between 4 and 5 pallets", AskBulk, 1},
		{"bulk", AskBulk, 3},
		{"partial bins in aisle 114", AskRows, 2},
		{"full bins", AskRows, 2},
		{"damages", AskRows, 2},
		{"missing pallets", AskRows, 1},
		{"rack locations with multiple pallets", AskRows, 2},
		{"find pallet P3", AskRows, 1},
		{"sku zzz", AskRows, 0},
		{"duplicates", AskDuplicates, 1},
		{"11400806", AskRows, 1},
	}
	for _, tt := range tests {
		a := Ask(s, tt.q)
		if a.Kind != tt.kind || a.Len() != tt.wantLen {
			t.Errorf("Ask(%q) = kind %s len %d (%s), want %s len %d", tt.q, a.Kind, a.Len(), a.Explanation, tt.kind, tt.wantLen)
		}
	}
}

func TestAskDuplicatesIgnoresInbound(t *testing.T) {
	a := Ask(analyticsSnapshot(), "duplicates")
	if len(a.Duplicates) != 1 {
		t.Fatalf("duplicates = %+v", a.Duplicates)
	}
	d := a.Duplicates[0]
	if d.PalletID != "P1" || d.DistinctLocations != 2 || strings.Join(d.Locations, ",") != "11400804,B7" {
		t.Errorf("duplicate = %+v", d)
	}
}

func TestSummarizeBulkCountSkipsHoldingAreas(t *testing.T) {
	s := Build(Input{
		Inventory: []model.InventoryRecord{
			{Location: "DAMAGE", PalletID: "P1", Qty: 1, PalletCount: 1},
			{Location: "IBDAMAGE", PalletID: "P2", Qty: 1, PalletCount: 1},
			{Location: "A3", PalletID: "P3", Qty: 1, PalletCount: 1},
		},
		Rules: Rules{BulkZones: map[string]int{"A": 5, "D": 4, "I": 4}},
	})
	sum := Summarize(s)
	if sum.BulkCount != 1 || sum.SpecialCount != 2 {
		t.Errorf("bulk = %d special = %d, want 1 and 2", sum.BulkCount, sum.SpecialCount)
	}
	if got := Query(s, Filter{Statuses: []model.Status{model.StatusBulk}}).Count; got != sum.BulkCount {
		t.Errorf("bulk rows = %d, summary says %d", got, sum.BulkCount)
	}
}

func TestParseComparator(t *testing.T) {
	tests := []struct {
		q    string
		want comparator
	}{
		{"between 7 and 3", comparator{op: cmpBetween, lo: 3, hi: 7}},
		{"5 or less", comparator{op: cmpLE, hi: 5}},
		{"at least 2", comparator{op: cmpGE, lo: 2}},
		{"exactly 4", comparator{op: cmpEQ, lo: 4}},
		{"with 3", comparator{op: cmpEQ, lo: 3}},
		{"anything", comparator{}},
	}
	for _, tt := range tests {
		if got := parseComparator(tt.q); got != tt.want {
			t.Errorf("parseComparator(%q) = %+v, want %+v", tt.q, got, tt.want)
		}
	}
}

func TestMarkResolved(t *testing.T) {
	ds := Discrepancies(analyticsSnapshot())
	resolved := map[string]struct{}{ds[0].Key: {}}
	marked := MarkResolved(ds, resolved, false)
	if len(marked) != len(ds) || !marked[0].Resolved {
		t.Fatalf("marked = %+v", marked[0])
	}
	if hidden := MarkResolved(ds, resolved, true); len(hidden) != len(ds)-1 {
		t.Errorf("hidden = %d, want %d", len(hidden), len(ds)-1)
	}
}
