package history

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/gyeh/binhelper/internal/inventory"
	"github.com/gyeh/binhelper/internal/model"
)

// TrendPoint is one recorded set of dashboard counters.
type TrendPoint struct {
	ID              int64     `json:"id"`
	RecordedAt      time.Time `json:"recorded_at"`
	SnapshotID      string    `json:"snapshot_id"`
	InventorySHA256 string    `json:"inventory_sha256,omitempty"`
	inventory.Summary
}

// Delta is the change of one KPI against the last point and the point
// closest to 24 hours earlier. A nil field means there is nothing to
// compare against.
type Delta struct {
	VsLast *int `json:"vs_last,omitempty"`
	VsDay  *int `json:"vs_day,omitempty"`
}

const trendColumns = `id, recorded_at, snapshot_id, inventory_sha256,
	empty_bins, empty_partial_bins, partial_bins, full_pallet_bins,
	damages, damage_qty, missing, rack_count, bulk_count, special_count,
	bulk_used, bulk_empty, unknown, skipped, total`

// NewTrendPoint captures the counters of snap.
func NewTrendPoint(snap *inventory.Snapshot, at time.Time) TrendPoint {
	p := TrendPoint{RecordedAt: at.UTC(), SnapshotID: snap.ID(), Summary: inventory.Summarize(snap)}
	if fp, ok := snap.Source(model.RoleInventory); ok {
		p.InventorySHA256 = fp.SHA256
	}
	return p
}

// Record stores p and returns it with its ID set.
func (s *Store) Record(ctx context.Context, p TrendPoint) (TrendPoint, error) {
	if p.RecordedAt.IsZero() {
		p.RecordedAt = s.now().UTC()
	}
	err := retryOnBusy(ctx, func() error {
		res, err := s.db.ExecContext(ctx, `INSERT INTO trends (
			recorded_at, snapshot_id, inventory_sha256,
			empty_bins, empty_partial_bins, partial_bins, full_pallet_bins,
			damages, damage_qty, missing, rack_count, bulk_count, special_count,
			bulk_used, bulk_empty, unknown, skipped, total
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			toMillis(p.RecordedAt), p.SnapshotID, p.InventorySHA256,
			p.EmptyBins, p.EmptyPartialBins, p.PartialBins, p.FullPalletBins,
			p.Damages, p.DamageQty, p.Missing, p.RackCount, p.BulkCount, p.SpecialCount,
			p.BulkUsed, p.BulkEmpty, p.Unknown, p.Skipped, p.Total,
		)
		if err != nil {
			return err
		}
		p.ID, err = res.LastInsertId()
		return err
	})
	if err != nil {
		return TrendPoint{}, fmt.Errorf("record trend: %w", err)
	}
	return p, nil
}

// MaybeRecord records a point for snap when the history is empty or the
// last point is at least interval old. It reports whether it wrote.
func (s *Store) MaybeRecord(ctx context.Context, snap *inventory.Snapshot, interval time.Duration) (TrendPoint, bool, error) {
	now := s.now().UTC()
	last, err := s.Last(ctx)
	switch {
	case errors.Is(err, sql.ErrNoRows):
	case err != nil:
		return TrendPoint{}, false, err
	case now.Sub(last.RecordedAt) < interval:
		return last, false, nil
	}
	p, err := s.Record(ctx, NewTrendPoint(snap, now))
	if err != nil {
		return TrendPoint{}, false, err
	}
	return p, true, nil
}

// Last returns the most recent point, or sql.ErrNoRows.
func (s *Store) Last(ctx context.Context) (TrendPoint, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+trendColumns+` FROM trends ORDER BY recorded_at DESC, id DESC LIMIT 1`)
	return scanTrend(row)
}

// AtOrBefore returns the latest point recorded at or before t, or
// sql.ErrNoRows.
func (s *Store) AtOrBefore(ctx context.Context, t time.Time) (TrendPoint, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+trendColumns+` FROM trends WHERE recorded_at <= ? ORDER BY recorded_at DESC, id DESC LIMIT 1`,
		toMillis(t))
	return scanTrend(row)
}

// Trends lists points recorded at or after since, oldest first. A zero
// since lists everything; limit <= 0 means no limit.
func (s *Store) Trends(ctx context.Context, since time.Time, limit int) ([]TrendPoint, error) {
	query := `SELECT ` + trendColumns + ` FROM trends WHERE recorded_at >= ? ORDER BY recorded_at, id`
	args := []any{toMillis(since)}
	if since.IsZero() {
		args[0] = int64(0)
	}
	if limit > 0 {
		// Keep the newest points when limiting.
		query = `SELECT * FROM (SELECT ` + trendColumns + ` FROM trends WHERE recorded_at >= ?
			ORDER BY recorded_at DESC, id DESC LIMIT ?) ORDER BY recorded_at, id`
		args = append(args, limit)
	}
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query trends: %w", err)
	}
	defer rows.Close()

	var out []TrendPoint
	for rows.Next() {
		p, err := scanTrend(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// Deltas compares the KPI cards of now against the last recorded point
// and the point closest to 24 hours before at.
func (s *Store) Deltas(ctx context.Context, now inventory.Summary, at time.Time) (map[inventory.KPI]Delta, error) {
	out := make(map[inventory.KPI]Delta, len(inventory.Cards))
	for _, k := range inventory.Cards {
		out[k] = Delta{}
	}

	last, err := s.Last(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return out, nil
	}
	if err != nil {
		return nil, err
	}
	day, err := s.AtOrBefore(ctx, at.Add(-24*time.Hour))
	hasDay := err == nil
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}

	for _, k := range inventory.Cards {
		d := Delta{VsLast: diff(now.Value(k), last.Value(k))}
		if hasDay {
			d.VsDay = diff(now.Value(k), day.Value(k))
		}
		out[k] = d
	}
	return out, nil
}

func diff(a, b int) *int {
	d := a - b
	return &d
}

type scanner interface {
	Scan(dest ...any) error
}

func scanTrend(row scanner) (TrendPoint, error) {
	var p TrendPoint
	var at int64
	err := row.Scan(&p.ID, &at, &p.SnapshotID, &p.InventorySHA256,
		&p.EmptyBins, &p.EmptyPartialBins, &p.PartialBins, &p.FullPalletBins,
		&p.Damages, &p.DamageQty, &p.Missing, &p.RackCount, &p.BulkCount, &p.SpecialCount,
		&p.BulkUsed, &p.BulkEmpty, &p.Unknown, &p.Skipped, &p.Total,
	)
	if err != nil {
		return TrendPoint{}, err
	}
	p.RecordedAt = fromMillis(at)
	return p, nil
}
