package main

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/gyeh/binhelper/internal/exitcode"
)

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Dry-run: read both workbooks and report what a refresh would find",
	RunE:  runCheck,
}

func init() {
	rootCmd.AddCommand(checkCmd)
}

func runCheck(cmd *cobra.Command, args []string) error {
	p, done := openPipeline()
	defer done()

	results, err := p.Preflight(context.Background(), newState())
	if err != nil {
		log.Error().Err(err).Msg("preflight interrupted")
		done()
		os.Exit(exitcode.ValidationError)
	}

	failed := false
	rows := make([][]string, 0, len(results))
	for _, r := range results {
		status := "ok"
		if r.Err != nil {
			failed = true
			status = r.Err.Kind.String()
			log.Error().Err(r.Err.Err).Str("role", string(r.Role)).Msg("workbook would not load")
		}
		sheet := r.Sheet
		if r.FellBack {
			sheet += " (fallback)"
		}
		sha := r.SHA256
		if len(sha) > 12 {
			sha = sha[:12]
		}
		modTime := ""
		if !r.ModTime.IsZero() {
			modTime = r.ModTime.Local().Format(time.DateTime)
		}
		rows = append(rows, []string{
			string(r.Role), r.Path, sheet, strconv.Itoa(r.Rows), strconv.Itoa(r.Skipped),
			strconv.FormatInt(r.Size, 10), modTime, sha, status,
		})
	}
	fmt.Println(renderTable(
		[]string{"Role", "Path", "Sheet", "Rows", "Skipped", "Bytes", "Modified", "SHA256", "Status"},
		rows,
		[]columnAlignment{alignLeft, alignLeft, alignLeft, alignRight, alignRight, alignRight, alignLeft, alignLeft, alignLeft},
	))

	if failed {
		done()
		os.Exit(exitcode.ValidationError)
	}
	return nil
}
