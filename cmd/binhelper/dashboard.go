package main

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/gyeh/binhelper/internal/exitcode"
	"github.com/gyeh/binhelper/internal/history"
	"github.com/gyeh/binhelper/internal/inventory"
)

var dashboardOpts struct {
	kpi    string
	limit  int
	asJSON bool
}

var dashboardCmd = &cobra.Command{
	Use:   "dashboard",
	Short: "Show the KPI cards, optionally with the rows behind one card",
	RunE:  runDashboard,
}

func init() {
	f := dashboardCmd.Flags()
	f.StringVar(&dashboardOpts.kpi, "kpi", "", "Card to expand: empty-bins, empty-partial-bins, partial-bins, full-pallet-bins, damages, missing")
	f.IntVar(&dashboardOpts.limit, "limit", 50, "Maximum rows to print for the selected card (0 = all)")
	f.BoolVar(&dashboardOpts.asJSON, "json", false, "Print JSON instead of tables")
	rootCmd.AddCommand(dashboardCmd)
}

func runDashboard(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	var selected inventory.KPI
	if dashboardOpts.kpi != "" {
		k, err := inventory.ParseKPI(dashboardOpts.kpi)
		if err != nil {
			log.Error().Err(err).Msg("invalid --kpi")
			os.Exit(exitcode.UsageError)
		}
		selected = k
	}

	snap := mustSnapshot(ctx)
	sum := inventory.Summarize(snap)

	var deltas map[inventory.KPI]history.Delta
	if h := tryHistory(); h != nil {
		defer h.Close()
		if _, _, err := h.MaybeRecord(ctx, snap, cfg.TrendInterval); err != nil {
			log.Warn().Err(err).Msg("trend record failed")
		}
		d, err := h.Deltas(ctx, sum, time.Now())
		if err != nil {
			log.Warn().Err(err).Msg("trend deltas unavailable")
		}
		deltas = d
	}

	var rows inventory.Result
	if selected != "" {
		f, _ := inventory.KPIFilter(selected)
		f.Limit = dashboardOpts.limit
		rows = inventory.Query(snap, f)
	}

	if dashboardOpts.asJSON {
		out := map[string]any{"snapshot_id": snap.ID(), "summary": sum, "deltas": deltas}
		if selected != "" {
			out["rows"] = rows
		}
		return printJSON(os.Stdout, out)
	}

	cards := make([][]string, 0, len(inventory.Cards))
	for _, k := range inventory.Cards {
		d := deltas[k]
		cards = append(cards, []string{k.Label(), strconv.Itoa(sum.Value(k)), formatDelta(d.VsLast), formatDelta(d.VsDay)})
	}
	fmt.Println(renderTable([]string{"KPI", "Value", "vs last", "vs 24h"}, cards,
		[]columnAlignment{alignLeft, alignRight, alignRight, alignRight}))
	fmt.Printf("Bulk: %d used, %d open  Damage qty: %d  Unknown: %d  Skipped rows: %d  Total rows: %d\n",
		sum.BulkUsed, sum.BulkEmpty, sum.DamageQty, sum.Unknown, sum.Skipped, sum.Total)

	if selected != "" {
		fmt.Printf("\n%s (%d)\n", selected.Label(), rows.Count)
		printRows(os.Stdout, rows.Rows)
		if len(rows.Rows) < rows.Count {
			fmt.Printf("Showing %d of %d rows.\n", len(rows.Rows), rows.Count)
		}
	}
	return nil
}

func formatDelta(d *int) string {
	switch {
	case d == nil:
		return "-"
	case *d > 0:
		return fmt.Sprintf("+%d", *d)
	default:
		return strconv.Itoa(*d)
	}
}
