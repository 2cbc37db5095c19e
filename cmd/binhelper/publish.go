package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sort"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/spf13/cobra"

	"github.com/gyeh/binhelper/internal/db"
	"github.com/gyeh/binhelper/internal/exitcode"
	"github.com/gyeh/binhelper/internal/model"
)

var publishKeep int

var publishCmd = &cobra.Command{
	Use:   "publish",
	Short: "Copy the current snapshot into Postgres and make it current",
	RunE:  runPublish,
}

func init() {
	publishCmd.Flags().IntVar(&publishKeep, "keep", 0, "Prune all but the newest N non-current snapshots (0 = keep all)")
	rootCmd.AddCommand(publishCmd, currentCmd)
}

var currentCmd = &cobra.Command{
	Use:   "current",
	Short: "Show the snapshot currently published in Postgres",
	RunE:  runCurrent,
}

func connect(ctx context.Context) *pgxpool.Pool {
	if cfg.DSN == "" {
		log.Error().Msg("--dsn or BINHELPER_DB_URL is required")
		os.Exit(exitcode.UsageError)
	}
	pool, err := db.NewPool(ctx, cfg.DSN)
	if err != nil {
		log.Error().Err(err).Msg("database connection failed")
		os.Exit(exitcode.DBConnError)
	}
	return pool
}

func runPublish(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	if err := cfg.ValidateWithDSN(); err != nil {
		log.Error().Err(err).Msg("config validation failed")
		os.Exit(exitcode.UsageError)
	}
	snap := mustSnapshot(ctx)

	pool := connect(ctx)
	defer pool.Close()

	res, err := db.Publish(ctx, pool, log, snap)
	if err != nil {
		log.Error().Err(err).Msg("publish failed")
		os.Exit(exitcode.ExportError)
	}
	if publishKeep > 0 {
		n, err := db.Prune(ctx, pool, publishKeep)
		if err != nil {
			log.Warn().Err(err).Msg("prune failed")
		} else if n > 0 {
			log.Info().Int64("snapshots", n).Msg("pruned old snapshots")
		}
	}

	if res.AlreadyPresent {
		fmt.Printf("Snapshot %s was already published; marked current\n", res.SnapshotID)
		return nil
	}
	fmt.Printf("Published snapshot %s: %d rows (%.1fs)\n", res.SnapshotID, res.RowsCopied, res.Duration.Seconds())
	return nil
}

func runCurrent(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	pool := connect(ctx)
	defer pool.Close()

	info, err := db.Current(ctx, pool)
	if errors.Is(err, pgx.ErrNoRows) {
		fmt.Println("No snapshot has been published.")
		return nil
	}
	if err != nil {
		log.Error().Err(err).Msg("read current snapshot failed")
		os.Exit(exitcode.DBConnError)
	}

	fmt.Printf("Snapshot %s built %s, published %s\n", info.SnapshotID,
		info.BuiltAt.Local().Format(time.DateTime), info.PublishedAt.Local().Format(time.DateTime))
	fmt.Printf("Rows: %d stored, %d skipped\n", info.RowsStored, info.RowsSkipped)

	statuses := make([]string, 0, len(info.Counts))
	for st := range info.Counts {
		statuses = append(statuses, string(st))
	}
	sort.Strings(statuses)
	rows := make([][]string, len(statuses))
	for i, st := range statuses {
		rows[i] = []string{st, strconv.Itoa(info.Counts[model.Status(st)])}
	}
	fmt.Println(renderTable([]string{"Status", "Rows"}, rows, []columnAlignment{alignLeft, alignRight}))
	return nil
}
