package ingest

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"syscall"
	"testing"
	"time"

	"github.com/gyeh/binhelper/internal/config"
	"github.com/gyeh/binhelper/internal/model"
	"github.com/gyeh/binhelper/internal/xlsxread"
)

var errBusy = errors.New("the process cannot access the file because it is being used by another process")

// flakyReader fails the first n calls with err.
func flakyReader(n int, err error, calls *int) ReadFunc {
	return func(path, sheet string) (*xlsxread.Table, error) {
		*calls++
		if *calls <= n {
			return nil, err
		}
		return &xlsxread.Table{Path: path, Sheet: sheet}, nil
	}
}

func TestLoaderRetriesUntilSuccess(t *testing.T) {
	var calls int
	ns := &noSleep{}
	policy := config.LoaderConfig{MaxAttempts: 4, BaseDelay: 10 * time.Millisecond, MaxDelay: time.Second, Backoff: config.BackoffExponential}
	l := NewLoader(policy, nopLog(), WithReader(flakyReader(3, errBusy, &calls)), WithSleeper(ns.sleep))

	tbl, err := l.Load(context.Background(), model.RoleInventory, "inv.xlsx", "Inventory")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if tbl.Sheet != "Inventory" {
		t.Fatalf("sheet = %q", tbl.Sheet)
	}
	if calls != 4 {
		t.Fatalf("reader called %d times, want 4", calls)
	}
	want := []time.Duration{10 * time.Millisecond, 20 * time.Millisecond, 40 * time.Millisecond}
	if fmt.Sprint(ns.delays) != fmt.Sprint(want) {
		t.Fatalf("delays = %v, want %v", ns.delays, want)
	}
}

func TestLoaderGivesUpAfterMaxAttempts(t *testing.T) {
	var calls int
	ns := &noSleep{}
	policy := config.LoaderConfig{MaxAttempts: 3, BaseDelay: time.Millisecond, MaxDelay: time.Second, Backoff: config.BackoffLinear}
	l := NewLoader(policy, nopLog(), WithReader(flakyReader(100, errBusy, &calls)), WithSleeper(ns.sleep))

	_, err := l.Load(context.Background(), model.RoleMaster, "master.xlsx", "")
	var lerr *model.LoadError
	if !errors.As(err, &lerr) {
		t.Fatalf("want *model.LoadError, got %v", err)
	}
	if lerr.Kind != model.FileLocked || lerr.Attempts != 3 || lerr.Role != model.RoleMaster {
		t.Fatalf("unexpected error: %+v", lerr)
	}
	if calls != 3 {
		t.Fatalf("reader called %d times, want 3", calls)
	}
	if len(ns.delays) != 2 {
		t.Fatalf("slept %d times, want 2", len(ns.delays))
	}
}

func TestLoaderDoesNotRetryPermanentErrors(t *testing.T) {
	tests := []struct {
		name string
		err  error
		kind model.ErrorKind
	}{
		{"invalid format", fmt.Errorf("%w: zip: not a valid zip file", xlsxread.ErrInvalidFormat), model.ParseError},
		{"missing column", fmt.Errorf("%w: LocationName", xlsxread.ErrMissingColumn), model.ParseError},
		{"not found", fmt.Errorf("open workbook: %w", fs.ErrNotExist), model.FileNotAccessible},
		{"permission", fmt.Errorf("open workbook: %w", fs.ErrPermission), model.FileNotAccessible},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var calls int
			ns := &noSleep{}
			l := NewLoader(config.DefaultLoader(), nopLog(), WithReader(flakyReader(100, tt.err, &calls)), WithSleeper(ns.sleep))
			_, err := l.Load(context.Background(), model.RoleInventory, "inv.xlsx", "")
			var lerr *model.LoadError
			if !errors.As(err, &lerr) {
				t.Fatalf("want *model.LoadError, got %v", err)
			}
			if lerr.Kind != tt.kind || lerr.Attempts != 1 {
				t.Fatalf("got kind %s after %d attempts", lerr.Kind, lerr.Attempts)
			}
			if calls != 1 || len(ns.delays) != 0 {
				t.Fatalf("calls=%d sleeps=%d, want a single attempt", calls, len(ns.delays))
			}
		})
	}
}

func TestLoaderMissingWorkbookWithLockedInName(t *testing.T) {
	ns := &noSleep{}
	path := filepath.Join(t.TempDir(), "Unlocked Bins.xlsx")
	l := NewLoader(config.DefaultLoader(), nopLog(), WithSleeper(ns.sleep))

	_, err := l.Load(context.Background(), model.RoleInventory, path, "")
	var lerr *model.LoadError
	if !errors.As(err, &lerr) {
		t.Fatalf("want *model.LoadError, got %v", err)
	}
	if lerr.Kind != model.FileNotAccessible || lerr.Attempts != 1 || len(ns.delays) != 0 {
		t.Fatalf("got kind %s after %d attempts and %d sleeps", lerr.Kind, lerr.Attempts, len(ns.delays))
	}
}

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		err  error
		kind model.ErrorKind
	}{
		{"busy", &fs.PathError{Op: "open", Path: "/data/inv.xlsx", Err: syscall.EBUSY}, model.FileLocked},
		{"missing under locked dir", &fs.PathError{Op: "open", Path: "/locked/inv.xlsx", Err: syscall.ENOENT}, model.FileNotAccessible},
		{"denied", &fs.PathError{Op: "open", Path: "/data/Locked.xlsx", Err: syscall.EACCES}, model.FileNotAccessible},
		{"parse", fmt.Errorf("%w: bad zip", xlsxread.ErrInvalidFormat), model.ParseError},
		{"unknown", errors.New("short read"), model.FileLocked},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Classify(tt.err); got != tt.kind {
				t.Errorf("Classify(%v) = %s, want %s", tt.err, got, tt.kind)
			}
		})
	}
}

func TestIsLockErrorIgnoresPath(t *testing.T) {
	if isLockError(&fs.PathError{Op: "open", Path: "/data/Unlocked Bins.xlsx", Err: errors.New("input/output error")}) {
		t.Error("path text was treated as a lock")
	}
	if !isLockError(&fs.PathError{Op: "open", Path: "/data/inv.xlsx", Err: errors.New("file is locked")}) {
		t.Error("lock message was not recognised")
	}
	if !isLockError(errBusy) {
		t.Error("sharing message was not recognised")
	}
}

func TestLoaderStopsOnCancel(t *testing.T) {
	var calls int
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	l := NewLoader(config.DefaultLoader(), nopLog(), WithReader(flakyReader(100, errBusy, &calls)))

	_, err := l.Load(ctx, model.RoleInventory, "inv.xlsx", "")
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("want context.Canceled, got %v", err)
	}
	if calls != 1 {
		t.Fatalf("reader called %d times, want 1", calls)
	}
}

func TestLoaderDelay(t *testing.T) {
	tests := []struct {
		backoff string
		attempt int
		want    time.Duration
	}{
		{config.BackoffExponential, 1, 100 * time.Millisecond},
		{config.BackoffExponential, 2, 200 * time.Millisecond},
		{config.BackoffExponential, 3, 400 * time.Millisecond},
		{config.BackoffExponential, 10, 500 * time.Millisecond},
		{config.BackoffLinear, 1, 100 * time.Millisecond},
		{config.BackoffLinear, 3, 300 * time.Millisecond},
		{config.BackoffLinear, 9, 500 * time.Millisecond},
		{config.BackoffLinear, 0, 100 * time.Millisecond},
	}
	for _, tt := range tests {
		l := NewLoader(config.LoaderConfig{MaxAttempts: 3, BaseDelay: 100 * time.Millisecond, MaxDelay: 500 * time.Millisecond, Backoff: tt.backoff}, nopLog())
		if got := l.Delay(tt.attempt); got != tt.want {
			t.Errorf("%s Delay(%d) = %v, want %v", tt.backoff, tt.attempt, got, tt.want)
		}
	}
}

func TestNewLoaderDefaults(t *testing.T) {
	l := NewLoader(config.LoaderConfig{}, nopLog())
	def := config.DefaultLoader()
	if l.MaxAttempts != def.MaxAttempts || l.BaseDelay != def.BaseDelay || l.Backoff != def.Backoff {
		t.Fatalf("zero policy not defaulted: %+v", l)
	}
}
