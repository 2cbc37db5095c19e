package ingest

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/gyeh/binhelper/internal/model"
)

func TestWatcherCheck(t *testing.T) {
	path := filepath.Join(t.TempDir(), "inv.xlsx")
	if err := os.WriteFile(path, []byte("one"), 0o644); err != nil {
		t.Fatal(err)
	}
	w := NewWatcher()

	src, changed := w.Check(model.NewSourceFile(model.RoleInventory, path))
	if !changed {
		t.Fatal("first observation should count as changed")
	}
	if !src.Observed || src.Size != 3 {
		t.Fatalf("metadata not recorded: %+v", src)
	}

	again, changed := w.Check(src)
	if changed {
		t.Fatal("unchanged file reported as changed")
	}
	if again != src {
		t.Fatalf("second check altered metadata: %+v vs %+v", again, src)
	}

	later := src.ModTime.Add(2 * time.Second)
	if err := os.Chtimes(path, later, later); err != nil {
		t.Fatal(err)
	}
	if _, changed := w.Check(src); !changed {
		t.Fatal("mtime change not detected")
	}
}

func TestWatcherMissingFile(t *testing.T) {
	w := NewWatcher()
	src := model.NewSourceFile(model.RoleMaster, filepath.Join(t.TempDir(), "gone.xlsx"))
	got, changed := w.Check(src)
	if !changed {
		t.Fatal("stat failure should count as changed")
	}
	if got.Observed {
		t.Fatal("missing file must stay unobserved")
	}
}
