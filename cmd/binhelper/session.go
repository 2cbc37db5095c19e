package main

import (
	"context"
	"errors"
	"os"
	"sync"
	"time"

	"github.com/gyeh/binhelper/internal/exitcode"
	"github.com/gyeh/binhelper/internal/history"
	"github.com/gyeh/binhelper/internal/ingest"
	"github.com/gyeh/binhelper/internal/inventory"
	"github.com/gyeh/binhelper/internal/model"
)

const staleSlotAge = 7 * 24 * time.Hour

// openPipeline wires the stager and pipeline. Without a free staging slot
// the workbooks are read in place.
func openPipeline() (*ingest.Pipeline, func()) {
	if err := cfg.Validate(); err != nil {
		log.Error().Err(err).Msg("config validation failed")
		os.Exit(exitcode.UsageError)
	}

	ingest.CleanStale(cfg.StagingDir(), staleSlotAge, log)
	stager, err := ingest.NewStager(cfg.StagingDir(), log)
	if err != nil {
		log.Warn().Err(err).Msg("staging disabled, reading workbooks in place")
		stager = nil
	}
	p := ingest.NewPipeline(&cfg, stager, log)
	var once sync.Once
	return p, func() {
		once.Do(func() {
			if stager == nil {
				return
			}
			if _, err := stager.Clean(cfg.InventoryPath, cfg.MasterPath); err != nil {
				log.Warn().Err(err).Msg("staging cleanup failed")
			}
			_ = stager.Close()
		})
	}
}

func newState() ingest.State {
	return ingest.NewState(cfg.InventoryPath, cfg.MasterPath)
}

// loadSnapshot runs one refresh pass. Staging is cleaned up and the slot
// released before it returns, whatever the outcome.
func loadSnapshot(ctx context.Context) (*inventory.Snapshot, error) {
	p, done := openPipeline()
	defer done()

	state, res := p.Refresh(ctx, newState())
	if !res.OK() {
		return nil, res.Failure()
	}
	s := state.Summary
	log.Debug().
		Int("rows", s.RowsTotal).
		Int("skipped", s.RowsSkipped).
		Dur("load", s.DurationLoad).
		Dur("total", s.DurationTotal).
		Msg("snapshot ready")
	return state.Snapshot, nil
}

// mustSnapshot is loadSnapshot for commands that cannot go on without a
// snapshot.
func mustSnapshot(ctx context.Context) *inventory.Snapshot {
	snap, err := loadSnapshot(ctx)
	if err != nil {
		exitOnFailure(err)
	}
	return snap
}

func exitOnFailure(err error) {
	var pe *ingest.PipelineError
	if errors.As(err, &pe) {
		ev := log.Error().Err(pe.Err).Str("phase", pe.Phase)
		var le *model.LoadError
		if errors.As(pe.Err, &le) {
			ev = ev.Str("kind", le.Kind.String()).Str("role", string(le.Role)).Int("attempts", le.Attempts)
		}
		ev.Msg("could not load inventory")
		switch pe.Phase {
		case ingest.PhaseStage, ingest.PhaseLoad:
			os.Exit(exitcode.LoadError)
		default:
			os.Exit(exitcode.ValidationError)
		}
	}
	log.Error().Err(err).Msg("could not load inventory")
	os.Exit(exitcode.LoadError)
}

// openHistory opens the history store, exiting on failure.
func openHistory() *history.Store {
	h, err := history.Open(cfg.HistoryPath())
	if err != nil {
		log.Error().Err(err).Str("path", cfg.HistoryPath()).Msg("open history failed")
		os.Exit(exitcode.ValidationError)
	}
	return h
}

// tryHistory opens the history store when possible; the dashboard works
// without it.
func tryHistory() *history.Store {
	h, err := history.Open(cfg.HistoryPath())
	if err != nil {
		log.Warn().Err(err).Msg("history unavailable")
		return nil
	}
	return h
}
