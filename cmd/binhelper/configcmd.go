package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/gyeh/binhelper/internal/exitcode"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show or change the saved configuration",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the effective configuration",
	RunE:  runConfigShow,
}

var configSetBulkCmd = &cobra.Command{
	Use:   "set-bulk <zone> <capacity>",
	Short: "Set the pallet capacity of a bulk zone and save the config file",
	Args:  cobra.ExactArgs(2),
	RunE:  runConfigSetBulk,
}

func init() {
	configCmd.AddCommand(configShowCmd, configSetBulkCmd)
	rootCmd.AddCommand(configCmd)
}

// savedConfigPath is --config when given, else config.yaml in the data dir.
func savedConfigPath() string {
	if configPath != "" {
		return configPath
	}
	return filepath.Join(cfg.DataDir, defaultConfigName)
}

func runConfigShow(cmd *cobra.Command, args []string) error {
	rows := [][]string{
		{"inventory", cfg.InventoryPath},
		{"inventory sheet", cfg.InventorySheet},
		{"master", cfg.MasterPath},
		{"master sheet", cfg.MasterSheet},
		{"data dir", cfg.DataDir},
		{"config file", savedConfigPath()},
		{"server addr", cfg.ServerAddr},
		{"trend interval", cfg.TrendInterval.String()},
		{"loader", fmt.Sprintf("%d attempts, %s backoff %s..%s",
			cfg.Loader.MaxAttempts, cfg.Loader.Backoff, cfg.Loader.BaseDelay, cfg.Loader.MaxDelay)},
	}
	for _, z := range cfg.BulkZones() {
		rows = append(rows, []string{"bulk zone " + z, strconv.Itoa(cfg.BulkRules[z])})
	}
	fmt.Println(renderTable([]string{"Setting", "Value"}, rows, nil))
	return nil
}

func runConfigSetBulk(cmd *cobra.Command, args []string) error {
	capacity, err := strconv.Atoi(args[1])
	if err != nil {
		log.Error().Str("capacity", args[1]).Msg("capacity must be a whole number")
		os.Exit(exitcode.UsageError)
	}
	if err := cfg.SetBulkRule(args[0], capacity); err != nil {
		log.Error().Err(err).Msg("invalid bulk rule")
		os.Exit(exitcode.UsageError)
	}

	path := savedConfigPath()
	if err := cfg.SaveToFile(path); err != nil {
		log.Error().Err(err).Str("path", path).Msg("save config failed")
		os.Exit(exitcode.ExportError)
	}
	log.Info().Str("path", path).Str("zone", args[0]).Int("capacity", capacity).Msg("bulk rule saved")
	return nil
}
