// mkfixture writes a pair of sample workbooks (on-hand inventory and master
// locations) shaped like the warehouse exports, for local runs and demos.
// Usage: go run ./cmd/mkfixture --out testdata --aisles 6 --seed 7
package main

import (
	"flag"
	"fmt"
	"maps"
	"math/rand/v2"
	"os"
	"path/filepath"
	"slices"

	"github.com/xuri/excelize/v2"

	"github.com/gyeh/binhelper/internal/config"
)

var inventoryHeader = []any{"LocationName", "WarehouseSku", "PalletId", "CustomerLotReference", "Qty", "PalletCount"}

func main() {
	out := flag.String("out", "testdata", "output directory")
	aisles := flag.Int("aisles", 6, "rack aisles to generate (each has 10 bays of 2 levels)")
	seed := flag.Uint64("seed", 7, "random seed")
	fill := flag.Float64("fill", 0.7, "fraction of rack locations holding a pallet")
	flag.Parse()

	if err := os.MkdirAll(*out, 0o755); err != nil {
		fmt.Fprintf(os.Stderr, "create output dir: %v\n", err)
		os.Exit(1)
	}

	g := &generator{rng: rand.New(rand.NewPCG(*seed, *seed^0x9e3779b97f4a7c15))}
	locations := g.rackLocations(*aisles)
	inventory := g.inventory(locations, *fill)

	invPath := filepath.Join(*out, config.DefaultInventoryFile)
	if err := writeSheet(invPath, "Inventory", append([][]any{inventoryHeader}, inventory...)); err != nil {
		fmt.Fprintf(os.Stderr, "write inventory: %v\n", err)
		os.Exit(1)
	}

	master := [][]any{{"Location"}}
	for _, loc := range locations {
		master = append(master, []any{loc})
	}
	masterPath := filepath.Join(*out, config.DefaultMasterFile)
	if err := writeSheet(masterPath, config.DefaultMasterSheet, master); err != nil {
		fmt.Fprintf(os.Stderr, "write master: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Wrote %s (%d pallet rows) and %s (%d locations)\n",
		invPath, len(inventory), masterPath, len(locations))
}

type generator struct {
	rng    *rand.Rand
	pallet int
	lot    int
}

// rackLocations lists aisle/bay/level codes such as 11400801: levels ending
// in 01 are partial slots, the others full-pallet rack slots.
func (g *generator) rackLocations(aisles int) []string {
	var locs []string
	for a := 0; a < aisles; a++ {
		for bay := 1; bay <= 10; bay++ {
			for _, level := range []int{1, 2} {
				locs = append(locs, fmt.Sprintf("%03d%03d%02d", 114+a, bay*2, level))
			}
		}
	}
	return locs
}

func (g *generator) nextPallet() string {
	g.pallet++
	return fmt.Sprintf("P%06d", g.pallet)
}

func (g *generator) nextLot() string {
	g.lot++
	return fmt.Sprintf("LOT%05d", 20000+g.lot)
}

func (g *generator) sku() string {
	return fmt.Sprintf("SKU-%03d", g.rng.IntN(40)+1)
}

func (g *generator) row(loc string, qty int) []any {
	return []any{loc, g.sku(), g.nextPallet(), g.nextLot(), qty, 1}
}

// inventory fills rack locations, then adds bulk, holding-area and
// deliberately misplaced rows so every dashboard view has content.
func (g *generator) inventory(locations []string, fill float64) [][]any {
	var rows [][]any
	for _, loc := range locations {
		if g.rng.Float64() >= fill {
			continue
		}
		if loc[len(loc)-2:] == "01" {
			rows = append(rows, g.row(loc, g.rng.IntN(5)+1))
		} else {
			rows = append(rows, g.row(loc, g.rng.IntN(10)+6))
		}
	}

	rules := config.DefaultBulkRules()
	for _, zone := range slices.Sorted(maps.Keys(rules)) {
		capacity := rules[zone]
		for n := 1; n <= 3; n++ {
			loc := fmt.Sprintf("%s%d", zone, 100+n)
			pallets := g.rng.IntN(capacity + 2)
			for i := 0; i < pallets; i++ {
				rows = append(rows, g.row(loc, g.rng.IntN(30)+10))
			}
		}
	}

	for i := 0; i < 3; i++ {
		rows = append(rows, g.row("DAMAGE", g.rng.IntN(8)+1))
	}
	rows = append(rows, g.row("IBDAMAGE", 4), g.row("MISSING", 2))

	if len(locations) >= 4 {
		// Overfilled partial slot, partial pallet in a rack slot and a
		// pallet ID seen in two places.
		rows = append(rows, g.row(locations[0], 12), g.row(locations[1], 3))
		rows = append(rows, []any{locations[3], "SKU-999", "P000001", "LOT99999", 9, 1})
	}
	return rows
}

func writeSheet(path, sheet string, rows [][]any) error {
	f := excelize.NewFile()
	defer f.Close()
	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		return err
	}
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return fmt.Errorf("row %d: %w", i+1, err)
		}
	}
	return f.SaveAs(path)
}
