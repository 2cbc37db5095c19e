package main

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/gyeh/binhelper/internal/exitcode"
	"github.com/gyeh/binhelper/internal/inventory"
)

var queryOpts struct {
	statuses []string
	sku      string
	lot      string
	pallet   string
	location string
	origin   string
	match    string
	limit    int
	asJSON   bool
}

var queryCmd = &cobra.Command{
	Use:   "query",
	Short: "Filter snapshot rows by status, SKU, lot, pallet or location",
	RunE:  runQuery,
}

func init() {
	f := queryCmd.Flags()
	f.StringSliceVar(&queryOpts.statuses, "status", nil, "Statuses to include (repeatable or comma-separated)")
	f.StringVar(&queryOpts.sku, "sku", "", "SKU to match")
	f.StringVar(&queryOpts.lot, "lot", "", "Lot to match (digits are compared)")
	f.StringVar(&queryOpts.pallet, "pallet", "", "Pallet ID to match")
	f.StringVar(&queryOpts.location, "location", "", "Location to match")
	f.StringVar(&queryOpts.origin, "origin", "", "Row origin: inventory or master")
	f.StringVar(&queryOpts.match, "match", "contains", "Text match: contains or exact")
	f.IntVar(&queryOpts.limit, "limit", 0, "Maximum rows to print (0 = all)")
	f.BoolVar(&queryOpts.asJSON, "json", false, "Print JSON instead of a table")
	rootCmd.AddCommand(queryCmd)
}

func runQuery(cmd *cobra.Command, args []string) error {
	v := url.Values{}
	for _, s := range queryOpts.statuses {
		v.Add("status", s)
	}
	v.Set("sku", queryOpts.sku)
	v.Set("lot", queryOpts.lot)
	v.Set("pallet", queryOpts.pallet)
	v.Set("location", queryOpts.location)
	v.Set("origin", queryOpts.origin)
	v.Set("match", queryOpts.match)
	v.Set("limit", strconv.Itoa(queryOpts.limit))

	f, err := inventory.ParseFilter(v)
	if err != nil {
		log.Error().Err(err).Msg("invalid filter")
		os.Exit(exitcode.UsageError)
	}

	res := inventory.Query(mustSnapshot(context.Background()), f)
	if queryOpts.asJSON {
		return printJSON(os.Stdout, res)
	}
	printRows(os.Stdout, res.Rows)
	fmt.Printf("%d matching rows\n", res.Count)
	return nil
}
