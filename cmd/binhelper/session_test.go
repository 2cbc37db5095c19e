package main

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/gyeh/binhelper/internal/config"
	"github.com/gyeh/binhelper/internal/ingest"
	"github.com/gyeh/binhelper/internal/model"
)

func useConfig(t *testing.T, c config.Config) {
	t.Helper()
	saved := cfg
	cfg = c
	t.Cleanup(func() { cfg = saved })
}

func TestLoadSnapshotReleasesSlotOnFailure(t *testing.T) {
	dir := t.TempDir()

	master := filepath.Join(dir, "master.xlsx")
	f := excelize.NewFile()
	for i, loc := range []string{"Location", "11400801", "11400802"} {
		cell, _ := excelize.CoordinatesToCellName(1, i+1)
		if err := f.SetCellStr("Sheet1", cell, loc); err != nil {
			t.Fatal(err)
		}
	}
	if err := f.SaveAs(master); err != nil {
		t.Fatalf("save master: %v", err)
	}
	_ = f.Close()

	inv := filepath.Join(dir, "inventory.xlsx")
	if err := os.WriteFile(inv, []byte("not a workbook"), 0o644); err != nil {
		t.Fatal(err)
	}

	useConfig(t, config.Config{
		InventoryPath: inv,
		MasterPath:    master,
		DataDir:       filepath.Join(dir, "data"),
		BulkRules:     config.DefaultBulkRules(),
		Loader: config.LoaderConfig{
			MaxAttempts: 1,
			BaseDelay:   time.Millisecond,
			MaxDelay:    time.Millisecond,
			Backoff:     config.BackoffExponential,
		},
	})

	snap, err := loadSnapshot(context.Background())
	if err == nil || snap != nil {
		t.Fatalf("loadSnapshot = %v, %v; want a failure", snap, err)
	}
	var le *model.LoadError
	if !errors.As(err, &le) || le.Kind != model.ParseError {
		t.Fatalf("error = %v, want a parse error", err)
	}
	var pe *ingest.PipelineError
	if !errors.As(err, &pe) {
		t.Fatalf("error = %T, want *ingest.PipelineError", err)
	}

	s, err := ingest.NewStager(cfg.StagingDir(), log)
	if err != nil {
		t.Fatalf("NewStager: %v", err)
	}
	defer s.Close()
	if !strings.HasSuffix(s.Dir(), "slot-0") {
		t.Fatalf("slot not released after failed load: got %s", s.Dir())
	}
}

func TestOpenPipelineCleanupIsIdempotent(t *testing.T) {
	dir := t.TempDir()
	useConfig(t, config.Config{
		InventoryPath: filepath.Join(dir, "inventory.xlsx"),
		MasterPath:    filepath.Join(dir, "master.xlsx"),
		DataDir:       filepath.Join(dir, "data"),
		BulkRules:     config.DefaultBulkRules(),
		Loader:        config.DefaultLoader(),
	})

	_, done := openPipeline()
	done()
	done()

	s, err := ingest.NewStager(cfg.StagingDir(), log)
	if err != nil {
		t.Fatalf("NewStager: %v", err)
	}
	defer s.Close()
	if !strings.HasSuffix(s.Dir(), "slot-0") {
		t.Fatalf("slot not released: got %s", s.Dir())
	}
}
