// Package server exposes inventory snapshots over a small JSON API. Every
// data request runs one refresh pass first, so the API always answers from
// the newest workbook that could be read.
package server

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/gyeh/binhelper/internal/history"
	"github.com/gyeh/binhelper/internal/ingest"
	"github.com/gyeh/binhelper/internal/inventory"
	"github.com/gyeh/binhelper/internal/model"
)

// Server holds the single interactive session of this process.
type Server struct {
	mu            sync.Mutex
	state         ingest.State
	pipeline      *ingest.Pipeline
	history       *history.Store // optional
	trendInterval time.Duration
	log           zerolog.Logger
	router        *Router
}

// New builds a server around a pipeline and its initial state. hist may
// be nil, which disables trends and the fix log.
func New(p *ingest.Pipeline, state ingest.State, hist *history.Store, trendInterval time.Duration, log zerolog.Logger) *Server {
	s := &Server{
		state:         state,
		pipeline:      p,
		history:       hist,
		trendInterval: trendInterval,
		log:           log,
		router:        NewRouter(log),
	}
	s.routes()
	return s
}

// Handler returns the HTTP handler.
func (s *Server) Handler() http.Handler { return s.router }

func (s *Server) routes() {
	s.router.GET("/health", s.health)
	s.router.GET("/api/kpis", s.kpis)
	s.router.GET("/api/rows", s.rows)
	s.router.GET("/api/bulk", s.bulk)
	s.router.GET("/api/discrepancies", s.discrepancies)
	s.router.GET("/api/duplicates", s.duplicates)
	s.router.GET("/api/ask", s.ask)
	s.router.GET("/api/trends", s.trends)
	s.router.POST("/api/refresh", s.refresh)
	s.router.POST("/api/fixes", s.logFixes)
}

// view is what one pass leaves for a handler to read.
type view struct {
	snap      *inventory.Snapshot
	stale     bool
	lastErr   *model.LoadError
	checkedAt time.Time
}

// Meta is attached to every data response.
type Meta struct {
	SnapshotID string    `json:"snapshot_id"`
	BuiltAt    time.Time `json:"built_at"`
	CheckedAt  time.Time `json:"checked_at"`
	Stale      bool      `json:"stale"`
	Error      string    `json:"error,omitempty"`
	ErrorKind  string    `json:"error_kind,omitempty"`
}

// Envelope wraps every data response.
type Envelope struct {
	Meta Meta `json:"meta"`
	Data any  `json:"data"`
}

func (v view) envelope(data any) Envelope {
	m := Meta{Stale: v.stale, CheckedAt: v.checkedAt}
	if v.snap != nil {
		m.SnapshotID = v.snap.ID()
		m.BuiltAt = v.snap.BuiltAt()
	}
	if v.lastErr != nil {
		m.Error = v.lastErr.Error()
		m.ErrorKind = v.lastErr.Kind.String()
	}
	return Envelope{Meta: m, Data: data}
}

// pass runs one refresh and records a trend point when due. A failed pass
// with no earlier snapshot is a 503.
func (s *Server) pass(ctx context.Context) (view, error) {
	s.mu.Lock()
	next, res := s.pipeline.Refresh(ctx, s.state)
	s.state = next
	s.mu.Unlock()

	v := view{snap: next.Snapshot, stale: next.Stale, lastErr: next.LastError, checkedAt: next.CheckedAt}
	if v.snap == nil {
		return v, &Error{Status: http.StatusServiceUnavailable, Msg: "no inventory data loaded", Err: res.Failure()}
	}

	if res.OK() && s.history != nil && s.trendInterval > 0 {
		if p, wrote, err := s.history.MaybeRecord(ctx, v.snap, s.trendInterval); err != nil {
			s.log.Warn().Err(err).Msg("trend record failed")
		} else if wrote {
			s.log.Info().Int64("trend_id", p.ID).Msg("trend point recorded")
		}
	}
	return v, nil
}

func (s *Server) requireHistory() error {
	if s.history == nil {
		return &Error{Status: http.StatusNotImplemented, Msg: "history store is not configured"}
	}
	return nil
}
