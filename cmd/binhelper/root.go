package main

import (
	"os"
	"path/filepath"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/gyeh/binhelper/internal/config"
	"github.com/gyeh/binhelper/internal/logging"
)

const defaultConfigName = "config.yaml"

var (
	cfg        config.Config
	configPath string
	log        zerolog.Logger
)

var rootCmd = &cobra.Command{
	Use:   "binhelper",
	Short: "Warehouse bin occupancy dashboard",
	Long: "Reads the on-hand inventory and master locations workbooks, classifies every bin " +
		"and answers dashboard, search and discrepancy queries from the latest good snapshot.",
	SilenceUsage:      true,
	PersistentPreRunE: loadConfig,
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&configPath, "config", os.Getenv("BINHELPER_CONFIG"), "YAML config file (or set BINHELPER_CONFIG)")
	pf.StringVar(&cfg.InventoryPath, "inventory", "", "On-hand inventory workbook (default "+config.DefaultInventoryFile+")")
	pf.StringVar(&cfg.InventorySheet, "inventory-sheet", "", "Inventory worksheet (default: first sheet)")
	pf.StringVar(&cfg.MasterPath, "master", "", "Master locations workbook (default "+config.DefaultMasterFile+")")
	pf.StringVar(&cfg.MasterSheet, "master-sheet", "", "Master locations worksheet (default "+config.DefaultMasterSheet+")")
	pf.StringVar(&cfg.DataDir, "data-dir", "", "Directory for staging copies and history (default: first writable candidate)")
	pf.IntVar(&cfg.Loader.MaxAttempts, "max-attempts", 0, "Read attempts per workbook while it is locked")
	pf.StringVar(&cfg.Loader.Backoff, "backoff", "", "Retry backoff: exponential or linear")
	pf.StringVar(&cfg.DSN, "dsn", os.Getenv("BINHELPER_DB_URL"), "Postgres connection string (or set BINHELPER_DB_URL)")
	pf.StringVar(&cfg.LogFormat, "log-format", "text", "Log format: text or json")
	pf.StringVar(&cfg.LogLevel, "log-level", "info", "Log level: debug, info, warn, error")
}

// loadConfig layers flags, then the config file, then defaults. Without
// --config, a config.yaml in the data directory is used when present.
func loadConfig(cmd *cobra.Command, _ []string) error {
	log = logging.Setup(cfg.LogFormat, cfg.LogLevel)
	if configPath == "" {
		if dir, _, err := config.ResolveWritableDir(cfg.DataDir, "data"); err == nil {
			p := filepath.Join(dir, defaultConfigName)
			if _, err := os.Stat(p); err == nil {
				configPath = p
			}
		}
	}
	if configPath != "" {
		if err := cfg.LoadFromFile(configPath); err != nil {
			return err
		}
	}
	if err := cfg.ApplyDefaults(); err != nil {
		return err
	}
	log = logging.Setup(cfg.LogFormat, cfg.LogLevel)
	log.Debug().
		Str("command", cmd.Name()).
		Str("inventory", cfg.InventoryPath).
		Str("master", cfg.MasterPath).
		Str("data_dir", cfg.DataDir).
		Msg("configuration loaded")
	return nil
}
