package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// Default workbook names used by the warehouse.
const (
	DefaultInventoryFile = "ON_HAND_INVENTORY.xlsx"
	DefaultMasterFile    = "Empty Bin Formula.xlsx"
	DefaultMasterSheet   = "Master Locations"
	DefaultServerAddr    = "127.0.0.1:8080"
	DefaultTrendInterval = time.Hour

	BackoffExponential = "exponential"
	BackoffLinear      = "linear"

	// DataDirEnv overrides every other data directory candidate.
	DataDirEnv = "BIN_HELPER_DATA_DIR"
)

// DefaultBulkRules maps bulk zone letters to their per-location pallet capacity.
func DefaultBulkRules() map[string]int {
	return map[string]int{"A": 5, "B": 4, "C": 5, "D": 4, "E": 5, "F": 4, "G": 5, "H": 4, "I": 4}
}

// DefaultLoader is three attempts with exponential backoff from 250ms capped at 2s.
func DefaultLoader() LoaderConfig {
	return LoaderConfig{
		MaxAttempts: 3,
		BaseDelay:   250 * time.Millisecond,
		MaxDelay:    2 * time.Second,
		Backoff:     BackoffExponential,
	}
}

// ApplyDefaults fills every field left unset by flags and the config file.
func (c *Config) ApplyDefaults() error {
	setIfEmpty(&c.InventoryPath, DefaultInventoryFile)
	setIfEmpty(&c.MasterPath, DefaultMasterFile)
	setIfEmpty(&c.MasterSheet, DefaultMasterSheet)
	setIfEmpty(&c.ServerAddr, DefaultServerAddr)
	setIfEmpty(&c.LogFormat, "text")
	setIfEmpty(&c.LogLevel, "info")
	if len(c.BulkRules) == 0 {
		c.BulkRules = DefaultBulkRules()
	}
	def := DefaultLoader()
	if c.Loader.MaxAttempts == 0 {
		c.Loader.MaxAttempts = def.MaxAttempts
	}
	if c.Loader.BaseDelay == 0 {
		c.Loader.BaseDelay = def.BaseDelay
	}
	if c.Loader.MaxDelay == 0 {
		c.Loader.MaxDelay = def.MaxDelay
	}
	if c.Loader.Backoff == "" {
		c.Loader.Backoff = def.Backoff
	}
	if c.TrendInterval == 0 {
		c.TrendInterval = DefaultTrendInterval
	}

	dir, _, err := ResolveWritableDir(c.DataDir, "data")
	if err != nil {
		return err
	}
	c.DataDir = dir
	return nil
}

// ResolveWritableDir picks the first writable directory among the
// BIN_HELPER_DATA_DIR override, preferred, the user cache dir and the OS
// temp dir. fallback is true when preferred was not the one chosen.
func ResolveWritableDir(preferred, purpose string) (dir string, fallback bool, err error) {
	var candidates []string
	if env := os.Getenv(DataDirEnv); env != "" {
		candidates = append(candidates, env)
	}
	if preferred != "" {
		candidates = append(candidates, preferred)
	}
	if cache, cerr := os.UserCacheDir(); cerr == nil {
		candidates = append(candidates, filepath.Join(cache, "binhelper", purpose))
	}
	candidates = append(candidates, filepath.Join(os.TempDir(), "binhelper-"+purpose))

	for _, d := range candidates {
		if probeWritable(d) == nil {
			return d, d != preferred, nil
		}
	}
	return "", true, fmt.Errorf("no writable %s directory among %v", purpose, candidates)
}

func probeWritable(dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	probe := filepath.Join(dir, ".write_test")
	if err := os.WriteFile(probe, []byte("ok"), 0o644); err != nil {
		return err
	}
	return os.Remove(probe)
}
