package db

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"

	"github.com/gyeh/binhelper/internal/inventory"
	"github.com/gyeh/binhelper/internal/model"
	embedsql "github.com/gyeh/binhelper/internal/sql"
)

const copyBuffer = 512

// PublishResult holds metrics from one publish.
type PublishResult struct {
	SnapshotID     string
	RowsCopied     int64
	AlreadyPresent bool
	Duration       time.Duration
}

// SnapshotInfo describes a published snapshot.
type SnapshotInfo struct {
	SnapshotID      string
	BuiltAt         time.Time
	PublishedAt     time.Time
	InventorySHA256 string
	MasterSHA256    string
	RowsTotal       int
	RowsSkipped     int
	RowsStored      int64
	Counts          map[model.Status]int
}

// Publish writes the snapshot header, COPYs its rows and marks it current,
// all in one transaction. Publishing the same snapshot twice is a no-op
// apart from making it current again.
func Publish(ctx context.Context, pool *pgxpool.Pool, log zerolog.Logger, snap *inventory.Snapshot) (*PublishResult, error) {
	start := time.Now()
	id, err := uuid.Parse(snap.ID())
	if err != nil {
		return nil, fmt.Errorf("snapshot id: %w", err)
	}

	var invSHA, masterSHA *string
	if fp, ok := snap.Source(model.RoleInventory); ok && fp.SHA256 != "" {
		invSHA = &fp.SHA256
	}
	if fp, ok := snap.Source(model.RoleMaster); ok && fp.SHA256 != "" {
		masterSHA = &fp.SHA256
	}

	res := &PublishResult{SnapshotID: snap.ID()}
	err = pgx.BeginFunc(ctx, pool, func(tx pgx.Tx) error {
		var got uuid.UUID
		err := tx.QueryRow(ctx, embedsql.RegisterSnapshot,
			id, snap.BuiltAt(), invSHA, masterSHA, snap.Len(), len(snap.Skipped()),
		).Scan(&got)
		switch {
		case errors.Is(err, pgx.ErrNoRows):
			res.AlreadyPresent = true
		case err != nil:
			return fmt.Errorf("register snapshot: %w", err)
		default:
			n, err := copyRows(ctx, tx, id, snap.Rows())
			if err != nil {
				return err
			}
			res.RowsCopied = n
			for st, count := range snap.Counts() {
				if _, err := tx.Exec(ctx, embedsql.InsertStatusCount, id, string(st), count); err != nil {
					return fmt.Errorf("insert status count: %w", err)
				}
			}
		}

		tag, err := tx.Exec(ctx, embedsql.DeactivateOlderSnapshots, id)
		if err != nil {
			return fmt.Errorf("deactivate older snapshots: %w", err)
		}
		log.Debug().Int64("deactivated", tag.RowsAffected()).Msg("older snapshots deactivated")

		if _, err := tx.Exec(ctx, embedsql.ActivateSnapshot, id); err != nil {
			return fmt.Errorf("activate snapshot: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	res.Duration = time.Since(start)

	log.Info().
		Str("snapshot", res.SnapshotID).
		Int64("rows_copied", res.RowsCopied).
		Bool("already_present", res.AlreadyPresent).
		Dur("duration", res.Duration).
		Msg("snapshot published")
	return res, nil
}

// copyRows streams rows into snapshot_rows via a channel-backed COPY.
func copyRows(ctx context.Context, tx pgx.Tx, id uuid.UUID, rows []model.Row) (int64, error) {
	ch := make(chan *model.PublishRow, copyBuffer)
	copyCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	go func() {
		defer close(ch)
		for i := range rows {
			pr := &model.PublishRow{SnapshotID: id, Seq: int32(i), Row: rows[i]}
			select {
			case ch <- pr:
			case <-copyCtx.Done():
				return
			}
		}
	}()

	src := NewChannelSource(copyCtx, ch)
	n, err := tx.CopyFrom(copyCtx,
		pgx.Identifier{"binhelper", "snapshot_rows"},
		model.PublishColumns(),
		src,
	)
	if err != nil {
		cancel()
		for range ch {
		}
		return 0, fmt.Errorf("copy snapshot rows: %w", err)
	}
	if n != int64(len(rows)) || src.Sent() != n {
		return 0, fmt.Errorf("copy snapshot rows: stored %d of %d rows (%d sent)", n, len(rows), src.Sent())
	}
	return n, nil
}

// Current returns the snapshot marked current, or pgx.ErrNoRows.
func Current(ctx context.Context, pool *pgxpool.Pool) (*SnapshotInfo, error) {
	var info SnapshotInfo
	var id uuid.UUID
	err := pool.QueryRow(ctx, embedsql.CurrentSnapshot).Scan(
		&id, &info.BuiltAt, &info.PublishedAt,
		&info.InventorySHA256, &info.MasterSHA256,
		&info.RowsTotal, &info.RowsSkipped, &info.RowsStored,
	)
	if err != nil {
		return nil, err
	}
	info.SnapshotID = id.String()

	rows, err := pool.Query(ctx, embedsql.StatusCounts, id)
	if err != nil {
		return nil, fmt.Errorf("query status counts: %w", err)
	}
	defer rows.Close()
	info.Counts = make(map[model.Status]int)
	for rows.Next() {
		var st string
		var n int
		if err := rows.Scan(&st, &n); err != nil {
			return nil, fmt.Errorf("scan status count: %w", err)
		}
		info.Counts[model.Status(st)] = n
	}
	return &info, rows.Err()
}

// Prune deletes non-current snapshots beyond the keep most recent.
func Prune(ctx context.Context, pool *pgxpool.Pool, keep int) (int64, error) {
	tag, err := pool.Exec(ctx, embedsql.PruneSnapshots, keep)
	if err != nil {
		return 0, fmt.Errorf("prune snapshots: %w", err)
	}
	return tag.RowsAffected(), nil
}
