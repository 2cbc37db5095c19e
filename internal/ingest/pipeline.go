package ingest

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/gyeh/binhelper/internal/config"
	"github.com/gyeh/binhelper/internal/inventory"
	"github.com/gyeh/binhelper/internal/model"
	"github.com/gyeh/binhelper/internal/normalize"
)

// Pipeline phases, reported through PipelineError.
const (
	PhaseWatch = "watch"
	PhaseStage = "stage"
	PhaseLoad  = "load"
	PhaseBuild = "build"
)

// PipelineError wraps an error with the phase where it occurred.
type PipelineError struct {
	Phase string
	Err   error
}

func (e *PipelineError) Error() string {
	return fmt.Sprintf("%s: %s", e.Phase, e.Err)
}

func (e *PipelineError) Unwrap() error {
	return e.Err
}

// LoadResult is the outcome of one refresh pass: exactly one of Snapshot
// and Err is set.
type LoadResult struct {
	Snapshot *inventory.Snapshot
	Err      *model.LoadError
	Phase    string
}

// OK reports whether the pass produced a snapshot.
func (r LoadResult) OK() bool { return r.Err == nil }

// Failure returns the pass error wrapped with its phase, or nil.
func (r LoadResult) Failure() error {
	if r.Err == nil {
		return nil
	}
	return &PipelineError{Phase: r.Phase, Err: r.Err}
}

// Pipeline runs Watcher, Stager, Loader and the snapshot builder in one
// synchronous pass.
type Pipeline struct {
	Watcher        *Watcher
	Stager         *Stager // nil reads the sources in place
	Loader         *Loader
	Rules          inventory.Rules
	InventorySheet string
	MasterSheet    string

	log zerolog.Logger
	now func() time.Time
}

// NewPipeline wires a pipeline from the configuration.
func NewPipeline(cfg *config.Config, stager *Stager, log zerolog.Logger, opts ...LoaderOption) *Pipeline {
	return &Pipeline{
		Watcher:        NewWatcher(),
		Stager:         stager,
		Loader:         NewLoader(cfg.Loader, log, opts...),
		Rules:          inventory.Rules{BulkZones: cfg.BulkRules},
		InventorySheet: cfg.InventorySheet,
		MasterSheet:    cfg.MasterSheet,
		log:            log,
		now:            time.Now,
	}
}

// Refresh runs one pass against prev. Unchanged workbooks are not read
// again; their cached records are reused. When a workbook fails to load
// the returned State keeps the previous snapshot, marks it stale and
// leaves that workbook's observed metadata alone so the next pass retries.
func (p *Pipeline) Refresh(ctx context.Context, prev State) (State, LoadResult) {
	totalStart := p.now()
	next := prev
	next.CheckedAt = totalStart

	var changed []model.Role
	var staged []model.Role
	var loadDur time.Duration
	for _, role := range next.roles() {
		cur := next.source(role)
		file, didChange := p.Watcher.Check(cur.file)
		if !didChange && cur.loaded {
			continue
		}
		changed = append(changed, role)

		loadStart := p.now()
		loaded, phase, lerr := p.loadSource(ctx, file)
		loadDur += time.Since(loadStart)
		if lerr != nil {
			p.log.Warn().
				Err(lerr.Err).
				Str("role", string(role)).
				Str("kind", lerr.Kind.String()).
				Int("attempts", lerr.Attempts).
				Bool("has_snapshot", next.Snapshot != nil).
				Msg("refresh failed, keeping last good snapshot")
			next.LastError = lerr
			next.Stale = next.Snapshot != nil
			return next, LoadResult{Err: lerr, Phase: phase}
		}
		if loaded.fingerprint.Staged {
			staged = append(staged, role)
		}
		*cur = loaded
	}

	if len(changed) == 0 && next.Snapshot != nil && !next.Stale {
		next.LastError = nil
		return next, LoadResult{Snapshot: next.Snapshot}
	}

	snap := inventory.Build(inventory.Input{
		Inventory: next.inv.inventory,
		Master:    next.master.master,
		Skipped:   append(append([]model.SkippedRow(nil), next.inv.skipped...), next.master.skipped...),
		Sources:   next.fingerprints(),
		Rules:     p.Rules,
		Now:       p.now(),
	})
	next.Snapshot = snap
	next.LoadedAt = snap.BuiltAt()
	next.LastError = nil
	next.Stale = false
	next.Summary = model.RefreshSummary{
		SnapshotID:    snap.ID(),
		RowsRead:      len(next.inv.inventory) + len(next.master.master) + len(snap.Skipped()),
		RowsMapped:    len(next.inv.inventory) + len(next.master.master),
		RowsSkipped:   len(snap.Skipped()),
		RowsTotal:     snap.Len(),
		Changed:       changed,
		Staged:        staged,
		DurationLoad:  loadDur,
		DurationTotal: time.Since(totalStart),
	}

	p.log.Info().
		Str("snapshot", snap.ID()).
		Int("rows", snap.Len()).
		Int("skipped", next.Summary.RowsSkipped).
		Dur("duration", next.Summary.DurationTotal).
		Msg("snapshot built")
	return next, LoadResult{Snapshot: snap, Phase: PhaseBuild}
}

func (s State) fingerprints() []model.Fingerprint {
	var out []model.Fingerprint
	for _, role := range s.roles() {
		if src := s.source(role); src.loaded {
			out = append(out, src.fingerprint)
		}
	}
	return out
}

// loadSource stages, reads and maps one workbook. A locked source that
// cannot be staged is read in place instead.
func (p *Pipeline) loadSource(ctx context.Context, file model.SourceFile) (sourceState, string, *model.LoadError) {
	readPath := file.Path
	fp := model.Fingerprint{Role: file.Role, Path: file.Path, Size: file.Size, ModTime: file.ModTime}

	if p.Stager != nil {
		sc, err := p.Stager.Stage(file)
		if err != nil {
			lerr := asLoadError(err, file)
			if lerr.Kind != model.FileLocked {
				return sourceState{}, PhaseStage, lerr
			}
			p.log.Warn().Err(err).Str("role", string(file.Role)).Msg("staging unavailable, reading source in place")
		} else {
			readPath = sc.StagedPath
			fp.Staged = true
			fp.SHA256 = sc.SHA256
			fp.Size = sc.Size
		}
	}

	sheet := p.InventorySheet
	if file.Role == model.RoleMaster {
		sheet = p.MasterSheet
	}
	t, err := p.Loader.Load(ctx, file.Role, readPath, sheet)
	if err != nil {
		lerr := asLoadError(err, file)
		lerr.File = file.Path
		return sourceState{}, PhaseLoad, lerr
	}
	if t.FellBack {
		p.log.Warn().
			Str("role", string(file.Role)).
			Str("wanted", sheet).
			Str("using", t.Sheet).
			Msg("sheet not found, using first sheet")
	}

	out := sourceState{file: file, loaded: true}
	switch file.Role {
	case model.RoleMaster:
		out.master, out.skipped, err = MapMaster(t)
	default:
		out.inventory, out.skipped, err = MapInventory(t)
	}
	if err != nil {
		return sourceState{}, PhaseLoad, &model.LoadError{Kind: model.ParseError, Role: file.Role, File: file.Path, Attempts: 1, Err: err}
	}

	if fp.SHA256 == "" {
		if sum, err := normalize.FileHash(file.Path); err == nil {
			fp.SHA256 = sum
		}
	}
	out.fingerprint = fp
	return out, PhaseLoad, nil
}

func asLoadError(err error, file model.SourceFile) *model.LoadError {
	var lerr *model.LoadError
	if errors.As(err, &lerr) {
		return lerr
	}
	return &model.LoadError{Kind: Classify(err), Role: file.Role, File: file.Path, Attempts: 1, Err: err}
}
