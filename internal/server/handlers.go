package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gyeh/binhelper/internal/history"
	"github.com/gyeh/binhelper/internal/inventory"
)

// Themes accepted by /api/kpis. The theme only styles the cards; it is
// echoed back for the presentation layer.
var Themes = []string{"neon", "glass", "blueprint"}

func (s *Server) health(_ context.Context, _ *http.Request) (any, error) {
	return map[string]string{"status": "ok"}, nil
}

// Card is one KPI summary card.
type Card struct {
	KPI   inventory.KPI  `json:"kpi"`
	Label string         `json:"label"`
	Value int            `json:"value"`
	Delta *history.Delta `json:"delta,omitempty"`
}

// KPIResponse is the dashboard payload.
type KPIResponse struct {
	Theme    string            `json:"theme"`
	Cards    []Card            `json:"cards"`
	Summary  inventory.Summary `json:"summary"`
	Selected *inventory.KPI    `json:"selected,omitempty"`
	Rows     *inventory.Result `json:"rows,omitempty"`
}

func (s *Server) kpis(ctx context.Context, r *http.Request) (any, error) {
	q := r.URL.Query()
	theme, err := parseTheme(q.Get("theme"))
	if err != nil {
		return nil, badRequest(err)
	}
	var selected *inventory.KPI
	if raw := q.Get("kpi"); raw != "" {
		k, err := inventory.ParseKPI(raw)
		if err != nil {
			return nil, badRequest(err)
		}
		selected = &k
	}
	extra, err := inventory.ParseFilter(q)
	if err != nil {
		return nil, badRequest(err)
	}

	v, err := s.pass(ctx)
	if err != nil {
		return nil, err
	}
	sum := inventory.Summarize(v.snap)

	var deltas map[inventory.KPI]history.Delta
	if s.history != nil {
		if deltas, err = s.history.Deltas(ctx, sum, time.Now()); err != nil {
			s.log.Warn().Err(err).Msg("trend deltas unavailable")
		}
	}

	resp := KPIResponse{Theme: theme, Summary: sum, Selected: selected}
	for _, k := range inventory.Cards {
		c := Card{KPI: k, Label: k.Label(), Value: sum.Value(k)}
		if d, ok := deltas[k]; ok {
			d := d
			c.Delta = &d
		}
		resp.Cards = append(resp.Cards, c)
	}
	if selected != nil {
		f, _ := inventory.KPIFilter(*selected)
		f.SKU, f.Lot, f.Pallet, f.Location, f.Match, f.Limit = extra.SKU, extra.Lot, extra.Pallet, extra.Location, extra.Match, extra.Limit
		res := inventory.Query(v.snap, f)
		resp.Rows = &res
	}
	return v.envelope(resp), nil
}

func parseTheme(raw string) (string, error) {
	t := strings.ToLower(strings.TrimSpace(raw))
	if t == "" {
		return Themes[0], nil
	}
	for _, known := range Themes {
		if t == known {
			return t, nil
		}
	}
	return "", fmt.Errorf("unknown theme %q", raw)
}

func (s *Server) rows(ctx context.Context, r *http.Request) (any, error) {
	f, err := inventory.ParseFilter(r.URL.Query())
	if err != nil {
		return nil, badRequest(err)
	}
	v, err := s.pass(ctx)
	if err != nil {
		return nil, err
	}
	return v.envelope(inventory.Query(v.snap, f)), nil
}

func (s *Server) bulk(ctx context.Context, r *http.Request) (any, error) {
	onlyEmpty, err := boolParam(r, "empty")
	if err != nil {
		return nil, badRequest(err)
	}
	v, err := s.pass(ctx)
	if err != nil {
		return nil, err
	}
	if onlyEmpty {
		return v.envelope(inventory.EmptyBulkLocations(v.snap)), nil
	}
	return v.envelope(inventory.BulkLocations(v.snap)), nil
}

func (s *Server) discrepancies(ctx context.Context, r *http.Request) (any, error) {
	hide, err := boolParam(r, "hide_resolved")
	if err != nil {
		return nil, badRequest(err)
	}
	kind := strings.TrimSpace(r.URL.Query().Get("kind"))
	v, err := s.pass(ctx)
	if err != nil {
		return nil, err
	}

	ds := inventory.Discrepancies(v.snap)
	if kind != "" {
		filtered := ds[:0:0]
		for _, d := range ds {
			if d.Kind == kind {
				filtered = append(filtered, d)
			}
		}
		ds = filtered
	}
	if s.history != nil {
		keys, err := s.history.ResolvedKeys(ctx)
		if err != nil {
			return nil, err
		}
		ds = inventory.MarkResolved(ds, keys, hide)
	}
	return v.envelope(ds), nil
}

// DuplicatesResponse carries the duplicate pallet summary and detail rows.
type DuplicatesResponse struct {
	Summary []inventory.DuplicatePallet `json:"summary"`
	Detail  any                         `json:"detail"`
}

func (s *Server) duplicates(ctx context.Context, _ *http.Request) (any, error) {
	v, err := s.pass(ctx)
	if err != nil {
		return nil, err
	}
	summary, detail := inventory.DuplicatePallets(v.snap)
	return v.envelope(DuplicatesResponse{Summary: summary, Detail: detail}), nil
}

func (s *Server) ask(ctx context.Context, r *http.Request) (any, error) {
	q := r.URL.Query().Get("q")
	v, err := s.pass(ctx)
	if err != nil {
		return nil, err
	}
	return v.envelope(inventory.Ask(v.snap, q)), nil
}

func (s *Server) trends(ctx context.Context, r *http.Request) (any, error) {
	if err := s.requireHistory(); err != nil {
		return nil, err
	}
	var since time.Time
	if raw := r.URL.Query().Get("since"); raw != "" {
		d, err := time.ParseDuration(raw)
		if err != nil {
			return nil, badRequest(fmt.Errorf("since must be a duration such as 72h: %w", err))
		}
		since = time.Now().Add(-d)
	}
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			return nil, badRequest(fmt.Errorf("invalid limit %q", raw))
		}
		limit = n
	}
	points, err := s.history.Trends(ctx, since, limit)
	if err != nil {
		return nil, err
	}
	if points == nil {
		points = []history.TrendPoint{}
	}
	return points, nil
}

// RefreshResponse reports the outcome of an explicit refresh.
type RefreshResponse struct {
	OK      bool   `json:"ok"`
	Phase   string `json:"phase,omitempty"`
	Rows    int    `json:"rows"`
	Skipped int    `json:"skipped"`
}

func (s *Server) refresh(ctx context.Context, _ *http.Request) (any, error) {
	s.mu.Lock()
	next, res := s.pipeline.Refresh(ctx, s.state)
	s.state = next
	s.mu.Unlock()

	v := view{snap: next.Snapshot, stale: next.Stale, lastErr: next.LastError, checkedAt: next.CheckedAt}
	out := RefreshResponse{OK: res.OK(), Phase: res.Phase}
	if v.snap != nil {
		out.Rows = v.snap.Len()
		out.Skipped = len(v.snap.Skipped())
	}
	return v.envelope(out), nil
}

// FixRequest is the body of POST /api/fixes. Keys select discrepancies of
// the current snapshot.
type FixRequest struct {
	Keys        []string `json:"keys"`
	Action      string   `json:"action"`
	Note        string   `json:"note"`
	SelectedLot string   `json:"selected_lot"`
	Reason      string   `json:"reason"`
}

// FixResponse returns the batch written.
type FixResponse struct {
	BatchID string   `json:"batch_id"`
	Logged  int      `json:"logged"`
	Unknown []string `json:"unknown,omitempty"`
}

func (s *Server) logFixes(ctx context.Context, r *http.Request) (any, error) {
	if err := s.requireHistory(); err != nil {
		return nil, err
	}
	var req FixRequest
	dec := json.NewDecoder(io.LimitReader(r.Body, 1<<20))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		return nil, badRequest(fmt.Errorf("decode body: %w", err))
	}
	if len(req.Keys) == 0 {
		return nil, badRequest(errors.New("keys is required"))
	}

	v, err := s.pass(ctx)
	if err != nil {
		return nil, err
	}
	byKey := make(map[string][]inventory.Discrepancy)
	for _, d := range inventory.Discrepancies(v.snap) {
		byKey[d.Key] = append(byKey[d.Key], d)
	}
	var items []inventory.Discrepancy
	var unknown []string
	for _, k := range req.Keys {
		ds, ok := byKey[k]
		if !ok {
			unknown = append(unknown, k)
			continue
		}
		items = append(items, ds...)
	}
	if len(items) == 0 {
		return nil, &Error{Status: http.StatusNotFound, Msg: "no discrepancy matches the given keys"}
	}

	batch, err := s.history.LogFixes(ctx, history.FixRequest{
		Action:      req.Action,
		Note:        req.Note,
		SelectedLot: req.SelectedLot,
		Reason:      req.Reason,
		Items:       items,
	})
	if err != nil {
		return nil, err
	}
	return v.envelope(FixResponse{BatchID: batch, Logged: len(items), Unknown: unknown}), nil
}

func boolParam(r *http.Request, name string) (bool, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return false, nil
	}
	b, err := strconv.ParseBool(raw)
	if err != nil {
		return false, fmt.Errorf("%s must be a boolean", name)
	}
	return b, nil
}
