package history

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/gyeh/binhelper/internal/inventory"
)

// Fix actions.
const (
	ActionResolved = "resolved"
	ActionIgnored  = "ignored"
)

// FixEntry is one logged action on a discrepancy row.
type FixEntry struct {
	ID          int64     `json:"id"`
	LoggedAt    time.Time `json:"logged_at"`
	BatchID     string    `json:"batch_id"`
	Action      string    `json:"action"`
	Kind        string    `json:"kind"`
	RowKey      string    `json:"row_key"`
	Location    string    `json:"location"`
	PalletID    string    `json:"pallet_id,omitempty"`
	SKU         string    `json:"sku,omitempty"`
	Lot         string    `json:"lot,omitempty"`
	Qty         float64   `json:"qty"`
	Issue       string    `json:"issue,omitempty"`
	Note        string    `json:"note,omitempty"`
	SelectedLot string    `json:"selected_lot,omitempty"`
	Reason      string    `json:"reason,omitempty"`
}

// FixRequest describes a batch of discrepancies acted on together.
type FixRequest struct {
	Action      string
	Note        string
	SelectedLot string
	Reason      string
	Items       []inventory.Discrepancy
}

// LogFixes writes one entry per discrepancy under a fresh batch ID and
// returns that ID. The batch is written atomically.
func (s *Store) LogFixes(ctx context.Context, req FixRequest) (string, error) {
	if len(req.Items) == 0 {
		return "", fmt.Errorf("log fixes: no discrepancies given")
	}
	action := strings.ToLower(strings.TrimSpace(req.Action))
	if action == "" {
		action = ActionResolved
	}
	batchID := uuid.NewString()
	at := toMillis(s.now())

	err := retryOnBusy(ctx, func() error {
		tx, err := s.db.BeginTx(ctx, nil)
		if err != nil {
			return err
		}
		defer func() { _ = tx.Rollback() }()

		for _, d := range req.Items {
			_, err := tx.ExecContext(ctx, `INSERT INTO fixes (
				logged_at, batch_id, action, kind, row_key, location, pallet_id,
				sku, lot, qty, issue, note, selected_lot, reason
			) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
				at, batchID, action, d.Kind, d.Key, d.Row.Bin, d.Row.PalletID,
				d.Row.SKU, d.Row.Lot, d.Row.Qty, d.Issue, req.Note, req.SelectedLot, req.Reason,
			)
			if err != nil {
				return err
			}
		}
		return tx.Commit()
	})
	if err != nil {
		return "", fmt.Errorf("log fixes: %w", err)
	}
	return batchID, nil
}

// Fixes lists logged entries, newest first. limit <= 0 means no limit.
func (s *Store) Fixes(ctx context.Context, limit int) ([]FixEntry, error) {
	query := `SELECT id, logged_at, batch_id, action, kind, row_key, location, pallet_id,
		sku, lot, qty, issue, note, selected_lot, reason
		FROM fixes ORDER BY logged_at DESC, id DESC`
	var args []any
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query fixes: %w", err)
	}
	defer rows.Close()

	var out []FixEntry
	for rows.Next() {
		var e FixEntry
		var at int64
		if err := rows.Scan(&e.ID, &at, &e.BatchID, &e.Action, &e.Kind, &e.RowKey, &e.Location,
			&e.PalletID, &e.SKU, &e.Lot, &e.Qty, &e.Issue, &e.Note, &e.SelectedLot, &e.Reason); err != nil {
			return nil, fmt.Errorf("scan fix: %w", err)
		}
		e.LoggedAt = fromMillis(at)
		out = append(out, e)
	}
	return out, rows.Err()
}

// ResolvedKeys returns the row keys that have at least one logged action.
func (s *Store) ResolvedKeys(ctx context.Context) (map[string]struct{}, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT DISTINCT row_key FROM fixes`)
	if err != nil {
		return nil, fmt.Errorf("query resolved keys: %w", err)
	}
	defer rows.Close()

	keys := make(map[string]struct{})
	for rows.Next() {
		var k string
		if err := rows.Scan(&k); err != nil {
			return nil, fmt.Errorf("scan row key: %w", err)
		}
		keys[k] = struct{}{}
	}
	return keys, rows.Err()
}
