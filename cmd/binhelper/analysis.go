package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/gyeh/binhelper/internal/inventory"
)

var analysisOpts struct {
	emptyOnly    bool
	hideResolved bool
	kind         string
	asJSON       bool
}

var bulkCmd = &cobra.Command{
	Use:   "bulk",
	Short: "List bulk locations with their pallet counts and open slots",
	RunE: func(cmd *cobra.Command, args []string) error {
		snap := mustSnapshot(context.Background())
		locs := inventory.BulkLocations(snap)
		if analysisOpts.emptyOnly {
			locs = inventory.EmptyBulkLocations(snap)
		}
		if analysisOpts.asJSON {
			return printJSON(os.Stdout, locs)
		}
		printBulk(locs)
		return nil
	},
}

var discrepanciesCmd = &cobra.Command{
	Use:     "discrepancies",
	Aliases: []string{"disc"},
	Short:   "List rows that break the slotting rules",
	RunE:    runDiscrepancies,
}

var duplicatesCmd = &cobra.Command{
	Use:   "duplicates",
	Short: "List pallet IDs stored in more than one location",
	RunE: func(cmd *cobra.Command, args []string) error {
		summary, detail := inventory.DuplicatePallets(mustSnapshot(context.Background()))
		if analysisOpts.asJSON {
			return printJSON(os.Stdout, map[string]any{"summary": summary, "detail": detail})
		}
		printDuplicates(summary)
		fmt.Println()
		printRows(os.Stdout, detail)
		return nil
	},
}

func init() {
	bulkCmd.Flags().BoolVar(&analysisOpts.emptyOnly, "empty", false, "Only locations with open slots")
	discrepanciesCmd.Flags().BoolVar(&analysisOpts.hideResolved, "hide-resolved", false, "Hide rows already logged as fixed")
	discrepanciesCmd.Flags().StringVar(&analysisOpts.kind, "kind", "", "Only one kind: partial, rack, bulk, multi-pallet")
	for _, c := range []*cobra.Command{bulkCmd, discrepanciesCmd, duplicatesCmd} {
		c.Flags().BoolVar(&analysisOpts.asJSON, "json", false, "Print JSON instead of a table")
		rootCmd.AddCommand(c)
	}
}

func runDiscrepancies(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	snap := mustSnapshot(ctx)

	var ds []inventory.Discrepancy
	for _, d := range inventory.Discrepancies(snap) {
		if analysisOpts.kind == "" || d.Kind == analysisOpts.kind {
			ds = append(ds, d)
		}
	}
	if h := tryHistory(); h != nil {
		defer h.Close()
		resolved, err := h.ResolvedKeys(ctx)
		if err != nil {
			log.Warn().Err(err).Msg("fix log unavailable")
		} else {
			ds = inventory.MarkResolved(ds, resolved, analysisOpts.hideResolved)
		}
	}

	if analysisOpts.asJSON {
		return printJSON(os.Stdout, ds)
	}
	rows := make([][]string, len(ds))
	for i, d := range ds {
		fixed := ""
		if d.Resolved {
			fixed = "yes"
		}
		rows[i] = append([]string{d.Kind, d.Issue}, append(rowCells(d.Row), fixed, d.Key)...)
	}
	headers := append([]string{"Kind", "Issue"}, append(append([]string(nil), rowHeaders...), "Fixed", "Key")...)
	fmt.Println(renderTable(headers, rows, append([]columnAlignment{alignLeft, alignLeft}, rowAligns...)))
	fmt.Printf("%d discrepancies\n", len(ds))
	return nil
}
