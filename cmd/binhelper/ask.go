package main

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/gyeh/binhelper/internal/inventory"
)

var askJSON bool

var askCmd = &cobra.Command{
	Use:   "ask <question>",
	Short: "Answer a plain-language question about the inventory",
	Example: `  binhelper ask "bulk locations with 2 pallets or less"
  binhelper ask "where is pallet P12345"
  binhelper ask "partial bins in aisle 114"`,
	Args: cobra.MinimumNArgs(1),
	RunE: runAsk,
}

func init() {
	askCmd.Flags().BoolVar(&askJSON, "json", false, "Print JSON instead of a table")
	rootCmd.AddCommand(askCmd)
}

func runAsk(cmd *cobra.Command, args []string) error {
	ans := inventory.Ask(mustSnapshot(context.Background()), strings.Join(args, " "))
	if askJSON {
		return printJSON(os.Stdout, ans)
	}

	fmt.Println(ans.Explanation)
	switch ans.Kind {
	case inventory.AskBulk:
		printBulk(ans.Bulk)
	case inventory.AskDuplicates:
		printDuplicates(ans.Duplicates)
	case inventory.AskRows:
		printRows(os.Stdout, ans.Rows)
	}
	if ans.Kind != inventory.AskNone {
		fmt.Printf("%d results\n", ans.Len())
	}
	return nil
}

func printBulk(locs []inventory.BulkLocation) {
	rows := make([][]string, len(locs))
	for i, b := range locs {
		rows[i] = []string{b.Location, b.Zone, strconv.Itoa(b.PalletCount), strconv.Itoa(b.MaxAllowed), strconv.Itoa(b.EmptySlots)}
	}
	fmt.Println(renderTable([]string{"Location", "Zone", "Pallets", "Max", "Open"}, rows,
		[]columnAlignment{alignLeft, alignLeft, alignRight, alignRight, alignRight}))
}

func printDuplicates(dups []inventory.DuplicatePallet) {
	rows := make([][]string, len(dups))
	for i, d := range dups {
		rows[i] = []string{d.PalletID, strconv.Itoa(d.DistinctLocations), strings.Join(d.Locations, ", ")}
	}
	fmt.Println(renderTable([]string{"Pallet", "Locations", "Where"}, rows,
		[]columnAlignment{alignLeft, alignRight, alignLeft}))
}
