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
)

var trendOpts struct {
	force  bool
	since  time.Duration
	limit  int
	asJSON bool
}

var trendCmd = &cobra.Command{
	Use:   "trend",
	Short: "Record and list KPI trend points",
}

var trendRecordCmd = &cobra.Command{
	Use:   "record",
	Short: "Record the current KPI counters (at most once per trend interval unless --force)",
	RunE:  runTrendRecord,
}

var trendListCmd = &cobra.Command{
	Use:   "list",
	Short: "List recorded trend points, oldest first",
	RunE:  runTrendList,
}

func init() {
	trendRecordCmd.Flags().BoolVar(&trendOpts.force, "force", false, "Record even if the last point is recent")
	trendRecordCmd.Flags().DurationVar(&cfg.TrendInterval, "interval", 0, "Minimum time between points (default 1h)")
	lf := trendListCmd.Flags()
	lf.DurationVar(&trendOpts.since, "since", 7*24*time.Hour, "Only points newer than this (0 = all)")
	lf.IntVar(&trendOpts.limit, "limit", 0, "Keep only the newest N points (0 = all)")
	lf.BoolVar(&trendOpts.asJSON, "json", false, "Print JSON instead of a table")
	trendCmd.AddCommand(trendRecordCmd, trendListCmd)
	rootCmd.AddCommand(trendCmd)
}

func runTrendRecord(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	snap := mustSnapshot(ctx)
	h := openHistory()
	defer h.Close()

	var (
		p     history.TrendPoint
		wrote = true
		err   error
	)
	if trendOpts.force {
		p, err = h.Record(ctx, history.NewTrendPoint(snap, time.Now()))
	} else {
		p, wrote, err = h.MaybeRecord(ctx, snap, cfg.TrendInterval)
	}
	if err != nil {
		log.Error().Err(err).Msg("trend record failed")
		os.Exit(exitcode.ExportError)
	}
	if !wrote {
		fmt.Printf("Last point %d was recorded at %s; nothing written.\n", p.ID, p.RecordedAt.Local().Format(time.DateTime))
		return nil
	}
	fmt.Printf("Recorded trend point %d for snapshot %s\n", p.ID, p.SnapshotID)
	return nil
}

func runTrendList(cmd *cobra.Command, args []string) error {
	h := openHistory()
	defer h.Close()

	var since time.Time
	if trendOpts.since > 0 {
		since = time.Now().Add(-trendOpts.since)
	}
	points, err := h.Trends(context.Background(), since, trendOpts.limit)
	if err != nil {
		log.Error().Err(err).Msg("list trends failed")
		os.Exit(exitcode.ValidationError)
	}
	if trendOpts.asJSON {
		return printJSON(os.Stdout, points)
	}

	rows := make([][]string, len(points))
	for i, p := range points {
		rows[i] = []string{
			p.RecordedAt.Local().Format(time.DateTime),
			strconv.Itoa(p.EmptyBins), strconv.Itoa(p.EmptyPartialBins), strconv.Itoa(p.PartialBins),
			strconv.Itoa(p.FullPalletBins), strconv.Itoa(p.Damages), strconv.Itoa(p.Missing),
			strconv.Itoa(p.BulkUsed), strconv.Itoa(p.Total),
		}
	}
	aligns := []columnAlignment{alignLeft}
	for i := 0; i < 8; i++ {
		aligns = append(aligns, alignRight)
	}
	fmt.Println(renderTable(
		[]string{"Recorded", "Empty", "Empty partial", "Partial", "Full", "Damages", "Missing", "Bulk used", "Rows"},
		rows, aligns))
	return nil
}
