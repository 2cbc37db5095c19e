package ingest

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/gyeh/binhelper/internal/model"
)

type fixture struct {
	inv, master string
	pipeline    *Pipeline
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	dir := t.TempDir()
	inv := writeWorkbook(t, dir, "ON_HAND_INVENTORY.xlsx", "Inventory", sampleInventory())
	master := writeWorkbook(t, dir, "Empty Bin Formula.xlsx", "Master Locations", sampleMaster())

	stager, err := NewStager(t.TempDir(), nopLog())
	if err != nil {
		t.Fatalf("NewStager: %v", err)
	}
	t.Cleanup(func() { _ = stager.Close() })

	ns := &noSleep{}
	p := NewPipeline(testConfig(inv, master), stager, nopLog(), WithSleeper(ns.sleep))
	return fixture{inv: inv, master: master, pipeline: p}
}

// touch moves the mtime forward so the watcher sees a rewrite.
func touch(t *testing.T, path string, by time.Duration) {
	t.Helper()
	info, err := os.Stat(path)
	if err != nil {
		t.Fatal(err)
	}
	at := info.ModTime().Add(by)
	if err := os.Chtimes(path, at, at); err != nil {
		t.Fatal(err)
	}
}

func TestRefreshBuildsSnapshot(t *testing.T) {
	f := newFixture(t)
	state, res := f.pipeline.Refresh(context.Background(), NewState(f.inv, f.master))
	if !res.OK() {
		t.Fatalf("Refresh failed: %v", res.Failure())
	}
	snap := state.Snapshot
	if snap == nil || res.Snapshot != snap {
		t.Fatal("snapshot not returned")
	}
	if snap.Len() != 6 {
		t.Fatalf("snapshot has %d rows, want 6", snap.Len())
	}
	want := map[model.Status]int{
		model.StatusPartial:      1,
		model.StatusFullPallet:   1,
		model.StatusDamage:       1,
		model.StatusBulk:         1,
		model.StatusEmptyPartial: 1,
		model.StatusEmpty:        1,
	}
	for st, n := range want {
		if got := snap.Count(st); got != n {
			t.Errorf("count(%s) = %d, want %d", st, got, n)
		}
	}
	if state.Stale || state.LastError != nil {
		t.Fatalf("fresh state flagged: stale=%v err=%v", state.Stale, state.LastError)
	}
	if len(state.Summary.Changed) != 2 || len(state.Summary.Staged) != 2 {
		t.Fatalf("unexpected summary: %+v", state.Summary)
	}
	for _, fp := range snap.Sources() {
		if !fp.Staged || len(fp.SHA256) != 64 {
			t.Errorf("fingerprint not staged: %+v", fp)
		}
	}
}

func TestRefreshUnchangedReusesSnapshot(t *testing.T) {
	f := newFixture(t)
	first, _ := f.pipeline.Refresh(context.Background(), NewState(f.inv, f.master))
	second, res := f.pipeline.Refresh(context.Background(), first)
	if !res.OK() {
		t.Fatalf("second pass failed: %v", res.Failure())
	}
	if second.Snapshot.ID() != first.Snapshot.ID() {
		t.Fatal("unchanged sources rebuilt the snapshot")
	}
	if second.CheckedAt.Before(first.CheckedAt) {
		t.Fatal("CheckedAt went backwards")
	}
}

func TestRefreshPicksUpChanges(t *testing.T) {
	f := newFixture(t)
	first, _ := f.pipeline.Refresh(context.Background(), NewState(f.inv, f.master))

	rows := append(sampleInventory(), []any{"11400902", "SKU-5", "P5", "LOT1005", 8})
	writeWorkbook(t, dirOf(f.inv), "ON_HAND_INVENTORY.xlsx", "Inventory", rows)
	touch(t, f.inv, 2*time.Second)

	second, res := f.pipeline.Refresh(context.Background(), first)
	if !res.OK() {
		t.Fatalf("refresh failed: %v", res.Failure())
	}
	if second.Snapshot.ID() == first.Snapshot.ID() {
		t.Fatal("changed inventory did not rebuild")
	}
	if got := second.Snapshot.Count(model.StatusEmpty); got != 0 {
		t.Fatalf("occupied location still empty: %d", got)
	}
	if got := second.Snapshot.Count(model.StatusFullPallet); got != 2 {
		t.Fatalf("full pallets = %d, want 2", got)
	}
	if len(second.Summary.Changed) != 1 || second.Summary.Changed[0] != model.RoleInventory {
		t.Fatalf("changed = %v, want only inventory", second.Summary.Changed)
	}
}

func TestRefreshKeepsLastGoodSnapshot(t *testing.T) {
	f := newFixture(t)
	good, _ := f.pipeline.Refresh(context.Background(), NewState(f.inv, f.master))

	if err := os.WriteFile(f.inv, []byte("not a workbook"), 0o644); err != nil {
		t.Fatal(err)
	}
	touch(t, f.inv, 2*time.Second)

	bad, res := f.pipeline.Refresh(context.Background(), good)
	if res.OK() {
		t.Fatal("corrupt workbook accepted")
	}
	if res.Err.Kind != model.ParseError || res.Phase != PhaseLoad {
		t.Fatalf("unexpected failure: %s in %s", res.Err.Kind, res.Phase)
	}
	var perr *PipelineError
	if !errors.As(res.Failure(), &perr) || perr.Phase != PhaseLoad {
		t.Fatalf("Failure() = %v", res.Failure())
	}
	if bad.Snapshot == nil || bad.Snapshot.ID() != good.Snapshot.ID() {
		t.Fatal("last good snapshot dropped")
	}
	if !bad.Stale || bad.LastError == nil {
		t.Fatalf("failure not recorded: stale=%v err=%v", bad.Stale, bad.LastError)
	}

	writeWorkbook(t, dirOf(f.inv), "ON_HAND_INVENTORY.xlsx", "Inventory", sampleInventory())
	touch(t, f.inv, 4*time.Second)
	recovered, res := f.pipeline.Refresh(context.Background(), bad)
	if !res.OK() {
		t.Fatalf("recovery failed: %v", res.Failure())
	}
	if recovered.Stale || recovered.LastError != nil {
		t.Fatal("recovered state still flagged")
	}
	if recovered.Snapshot.ID() == good.Snapshot.ID() {
		t.Fatal("recovery did not rebuild")
	}
}

func TestRefreshWithoutSnapshotFails(t *testing.T) {
	f := newFixture(t)
	state := NewState(f.inv+".missing", f.master)
	next, res := f.pipeline.Refresh(context.Background(), state)
	if res.OK() {
		t.Fatal("missing inventory accepted")
	}
	if res.Err.Kind != model.FileNotAccessible || res.Phase != PhaseStage {
		t.Fatalf("unexpected failure: %s in %s", res.Err.Kind, res.Phase)
	}
	if next.Snapshot != nil || next.Stale || next.HasSnapshot() {
		t.Fatal("no snapshot should exist and nothing is stale")
	}
}

func TestRefreshMasterDisabled(t *testing.T) {
	f := newFixture(t)
	state, res := f.pipeline.Refresh(context.Background(), NewState(f.inv, ""))
	if !res.OK() {
		t.Fatalf("Refresh: %v", res.Failure())
	}
	if state.Snapshot.Len() != 4 {
		t.Fatalf("rows = %d, want inventory rows only", state.Snapshot.Len())
	}
}

func TestPreflight(t *testing.T) {
	f := newFixture(t)
	results, err := f.pipeline.Preflight(context.Background(), NewState(f.inv, f.master))
	if err != nil {
		t.Fatalf("Preflight: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("got %d results, want 2", len(results))
	}
	inv := results[0]
	if inv.Role != model.RoleInventory || inv.Err != nil {
		t.Fatalf("inventory result: %+v", inv)
	}
	if inv.Rows != 4 || inv.Sheet != "Inventory" || inv.FellBack || len(inv.SHA256) != 64 {
		t.Fatalf("inventory result: %+v", inv)
	}
	if results[1].Rows != 4 || results[1].Role != model.RoleMaster {
		t.Fatalf("master result: %+v", results[1])
	}
}

func TestPreflightReportsFailure(t *testing.T) {
	f := newFixture(t)
	if err := os.WriteFile(f.master, []byte("garbage"), 0o644); err != nil {
		t.Fatal(err)
	}
	results, err := f.pipeline.Preflight(context.Background(), NewState(f.inv, f.master))
	if err != nil {
		t.Fatalf("Preflight: %v", err)
	}
	if results[0].Err != nil {
		t.Fatalf("inventory should pass: %v", results[0].Err)
	}
	if results[1].Err == nil || results[1].Err.Kind != model.ParseError {
		t.Fatalf("master failure not reported: %+v", results[1].Err)
	}
}
