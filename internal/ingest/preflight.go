package ingest

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/gyeh/binhelper/internal/model"
	"github.com/gyeh/binhelper/internal/normalize"
	"github.com/gyeh/binhelper/internal/xlsxread"
)

// PreflightResult describes one workbook as the loader would see it,
// without building a snapshot.
type PreflightResult struct {
	Role model.Role
	// Path is the workbook path, stored as given.
	Path string
	// SHA256 is the hex digest computed by normalize.FileHash.
	SHA256  string
	Size    int64
	ModTime time.Time
	// Sheets lists every worksheet with its dimensions.
	Sheets []xlsxread.SheetInfo
	// Sheet is the worksheet that would be read and FellBack reports that
	// the configured one was missing.
	Sheet    string
	FellBack bool
	Header   []string
	// Rows is the number of mapped rows and Skipped the rows that would be
	// dropped.
	Rows    int
	Skipped int
	// Err is set when the workbook would fail to load.
	Err *model.LoadError
}

// Preflight stats, hashes and reads each workbook through the loader and
// reports what a refresh would find. A failing workbook is reported in its
// result rather than as an error; the error return is for context
// cancellation only.
func (p *Pipeline) Preflight(ctx context.Context, state State) ([]PreflightResult, error) {
	var out []PreflightResult
	for _, role := range state.roles() {
		if err := ctx.Err(); err != nil {
			return out, err
		}
		out = append(out, p.inspect(ctx, state.Source(role)))
	}
	return out, nil
}

func (p *Pipeline) inspect(ctx context.Context, file model.SourceFile) PreflightResult {
	start := time.Now()
	res := PreflightResult{Role: file.Role, Path: file.Path}
	fail := func(err error) PreflightResult {
		res.Err = asLoadError(err, file)
		return res
	}

	stat, err := os.Stat(file.Path)
	if err != nil {
		return fail(fmt.Errorf("preflight stat: %w", err))
	}
	res.Size = stat.Size()
	res.ModTime = stat.ModTime()

	sha, err := normalize.FileHash(file.Path)
	if err != nil {
		return fail(fmt.Errorf("preflight hash: %w", err))
	}
	res.SHA256 = sha

	if sheets, err := xlsxread.Sheets(file.Path); err == nil {
		res.Sheets = sheets
	}

	sheet := p.InventorySheet
	if file.Role == model.RoleMaster {
		sheet = p.MasterSheet
	}
	t, err := p.Loader.Load(ctx, file.Role, file.Path, sheet)
	if err != nil {
		return fail(err)
	}
	res.Sheet = t.Sheet
	res.FellBack = t.FellBack
	res.Header = t.Header

	var mapErr error
	if file.Role == model.RoleMaster {
		var locs []model.MasterLocation
		var skipped []model.SkippedRow
		locs, skipped, mapErr = MapMaster(t)
		res.Rows, res.Skipped = len(locs), len(skipped)
	} else {
		var recs []model.InventoryRecord
		var skipped []model.SkippedRow
		recs, skipped, mapErr = MapInventory(t)
		res.Rows, res.Skipped = len(recs), len(skipped)
	}
	if mapErr != nil {
		res.Err = &model.LoadError{Kind: model.ParseError, Role: file.Role, File: file.Path, Attempts: 1, Err: mapErr}
		return res
	}

	p.log.Info().
		Str("role", string(file.Role)).
		Str("file", filepath.Base(file.Path)).
		Str("sha256", sha).
		Int("rows", res.Rows).
		Dur("duration", time.Since(start)).
		Msg("preflight complete")
	return res
}
