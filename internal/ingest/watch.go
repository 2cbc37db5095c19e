package ingest

import (
	"os"

	"github.com/gyeh/binhelper/internal/model"
)

// Watcher detects workbook changes by comparing modification time and size
// against the last observation.
type Watcher struct {
	stat func(string) (os.FileInfo, error)
}

// NewWatcher returns a Watcher backed by os.Stat.
func NewWatcher() *Watcher {
	return &Watcher{stat: os.Stat}
}

// Check reports whether src changed since it was last observed and returns
// the file with the current metadata recorded. A source never observed
// before counts as changed. A stat failure also counts as changed, with
// src returned untouched so the next pass looks again.
func (w *Watcher) Check(src model.SourceFile) (model.SourceFile, bool) {
	info, err := w.stat(src.Path)
	if err != nil {
		return src, true
	}
	changed := !src.Observed || !info.ModTime().Equal(src.ModTime) || info.Size() != src.Size
	src.ModTime = info.ModTime()
	src.Size = info.Size()
	src.Observed = true
	return src, changed
}
