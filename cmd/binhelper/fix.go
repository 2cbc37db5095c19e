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

var fixOpts struct {
	keys   []string
	action string
	note   string
	lot    string
	reason string
	limit  int
	asJSON bool
}

var fixCmd = &cobra.Command{
	Use:   "fix",
	Short: "Log and review discrepancy fixes",
}

var fixLogCmd = &cobra.Command{
	Use:   "log",
	Short: "Mark discrepancies as resolved or ignored by key",
	RunE:  runFixLog,
}

var fixListCmd = &cobra.Command{
	Use:   "list",
	Short: "Show the fix log, newest first",
	RunE:  runFixList,
}

func init() {
	f := fixLogCmd.Flags()
	f.StringSliceVar(&fixOpts.keys, "key", nil, "Discrepancy key, as printed by 'discrepancies' (repeatable, required)")
	f.StringVar(&fixOpts.action, "action", history.ActionResolved, "Action: resolved or ignored")
	f.StringVar(&fixOpts.note, "note", "", "Free-text note")
	f.StringVar(&fixOpts.lot, "lot", "", "Lot chosen when a location held mixed lots")
	f.StringVar(&fixOpts.reason, "reason", "", "Reason code")
	_ = fixLogCmd.MarkFlagRequired("key")

	fixListCmd.Flags().IntVar(&fixOpts.limit, "limit", 50, "Maximum entries (0 = all)")
	fixListCmd.Flags().BoolVar(&fixOpts.asJSON, "json", false, "Print JSON instead of a table")

	fixCmd.AddCommand(fixLogCmd, fixListCmd)
	rootCmd.AddCommand(fixCmd)
}

func runFixLog(cmd *cobra.Command, args []string) error {
	switch fixOpts.action {
	case history.ActionResolved, history.ActionIgnored:
	default:
		log.Error().Str("action", fixOpts.action).Msg("--action must be resolved or ignored")
		os.Exit(exitcode.UsageError)
	}

	ctx := context.Background()
	snap := mustSnapshot(ctx)

	want := make(map[string]struct{}, len(fixOpts.keys))
	for _, k := range fixOpts.keys {
		want[k] = struct{}{}
	}
	var items []inventory.Discrepancy
	found := make(map[string]bool)
	for _, d := range inventory.Discrepancies(snap) {
		if _, ok := want[d.Key]; ok {
			items = append(items, d)
			found[d.Key] = true
		}
	}
	for _, k := range fixOpts.keys {
		if !found[k] {
			log.Warn().Str("key", k).Msg("no current discrepancy has this key")
		}
	}
	if len(items) == 0 {
		log.Error().Msg("nothing to log")
		os.Exit(exitcode.ValidationError)
	}

	h := openHistory()
	defer h.Close()
	batch, err := h.LogFixes(ctx, history.FixRequest{
		Action:      fixOpts.action,
		Note:        fixOpts.note,
		SelectedLot: fixOpts.lot,
		Reason:      fixOpts.reason,
		Items:       items,
	})
	if err != nil {
		log.Error().Err(err).Msg("log fixes failed")
		os.Exit(exitcode.ExportError)
	}
	fmt.Printf("Logged %d rows as %s (batch %s)\n", len(items), fixOpts.action, batch)
	return nil
}

func runFixList(cmd *cobra.Command, args []string) error {
	h := openHistory()
	defer h.Close()

	entries, err := h.Fixes(context.Background(), fixOpts.limit)
	if err != nil {
		log.Error().Err(err).Msg("list fixes failed")
		os.Exit(exitcode.ValidationError)
	}
	if fixOpts.asJSON {
		return printJSON(os.Stdout, entries)
	}
	rows := make([][]string, len(entries))
	for i, e := range entries {
		rows[i] = []string{
			e.LoggedAt.Local().Format(time.DateTime), e.Action, e.Kind, e.Location,
			e.PalletID, e.Lot, strconv.FormatFloat(e.Qty, 'f', -1, 64), e.Note,
		}
	}
	fmt.Println(renderTable(
		[]string{"Logged", "Action", "Kind", "Location", "Pallet", "Lot", "Qty", "Note"},
		rows,
		[]columnAlignment{alignLeft, alignLeft, alignLeft, alignLeft, alignLeft, alignLeft, alignRight, alignLeft},
	))
	return nil
}
