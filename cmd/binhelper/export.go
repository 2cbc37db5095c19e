package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/gyeh/binhelper/internal/exitcode"
	"github.com/gyeh/binhelper/internal/parquetio"
)

var exportOut string

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Write the current snapshot to a Parquet file",
	RunE:  runExport,
}

func init() {
	exportCmd.Flags().StringVar(&exportOut, "out", "", "Output Parquet path (required)")
	_ = exportCmd.MarkFlagRequired("out")
	rootCmd.AddCommand(exportCmd)
}

func runExport(cmd *cobra.Command, args []string) error {
	snap := mustSnapshot(context.Background())
	n, err := parquetio.Export(exportOut, snap)
	if err != nil {
		log.Error().Err(err).Str("out", exportOut).Msg("export failed")
		os.Exit(exitcode.ExportError)
	}
	fmt.Printf("Exported %d rows of snapshot %s to %s\n", n, snap.ID(), exportOut)
	return nil
}
