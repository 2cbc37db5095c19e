package ingest

import (
	"os"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"
	"github.com/rs/zerolog"
)

// Clean removes staged files that do not belong to one of the given source
// paths, plus leftover temp files of interrupted copies. It returns the
// number of files removed.
func (s *Stager) Clean(sources ...string) (int, error) {
	start := time.Now()
	keep := make(map[string]struct{}, len(sources))
	for _, src := range sources {
		keep[filepath.Base(s.PathFor(src))] = struct{}{}
	}

	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return 0, err
	}
	removed := 0
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || name == lockFileName {
			continue
		}
		if _, ok := keep[name]; ok && !isTemp(name) {
			continue
		}
		if err := os.Remove(filepath.Join(s.dir, name)); err != nil && !os.IsNotExist(err) {
			s.log.Warn().Err(err).Str("file", name).Msg("failed to remove staged file")
			continue
		}
		removed++
	}

	s.log.Debug().
		Int("files_removed", removed).
		Dur("duration", time.Since(start)).
		Msg("staging cleanup complete")
	return removed, nil
}

// CleanStale removes slot directories under baseDir that no process holds
// and that have not been touched for maxAge.
func CleanStale(baseDir string, maxAge time.Duration, log zerolog.Logger) []string {
	entries, err := os.ReadDir(baseDir)
	if err != nil {
		if !os.IsNotExist(err) {
			log.Warn().Err(err).Str("dir", baseDir).Msg("read staging dir")
		}
		return nil
	}

	cutoff := time.Now().Add(-maxAge)
	var removed []string
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		dir := filepath.Join(baseDir, e.Name())
		info, err := e.Info()
		if err != nil || !info.ModTime().Before(cutoff) {
			continue
		}
		lock := flock.New(filepath.Join(dir, lockFileName))
		ok, err := lock.TryLock()
		if err != nil || !ok {
			continue
		}
		err = os.RemoveAll(dir)
		_ = lock.Unlock()
		if err != nil {
			log.Warn().Err(err).Str("dir", dir).Msg("failed to remove stale staging slot")
			continue
		}
		log.Info().Str("dir", dir).Dur("age", time.Since(info.ModTime())).Msg("removed stale staging slot")
		removed = append(removed, dir)
	}
	return removed
}
