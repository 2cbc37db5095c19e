package ingest

import (
	"bytes"
	"crypto/sha256"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gofrs/flock"
	"github.com/rs/zerolog"

	"github.com/gyeh/binhelper/internal/model"
)

const (
	maxSlots     = 16
	lockFileName = ".lock"
	tempPrefix   = ".stage-"
)

// ErrNoSlot is returned when every staging slot is held by another process.
var ErrNoSlot = errors.New("no free staging slot")

// Stager copies source workbooks into a staging slot owned by this process.
// A slot is a subdirectory of the staging base guarded by an advisory file
// lock, so two instances never read or write the same staged file.
type Stager struct {
	dir  string
	lock *flock.Flock
	log  zerolog.Logger
	now  func() time.Time
}

// NewStager acquires the first free slot under baseDir.
func NewStager(baseDir string, log zerolog.Logger) (*Stager, error) {
	if err := os.MkdirAll(baseDir, 0o755); err != nil {
		return nil, fmt.Errorf("create staging dir: %w", err)
	}
	for n := 0; n < maxSlots; n++ {
		dir := filepath.Join(baseDir, fmt.Sprintf("slot-%d", n))
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create staging slot: %w", err)
		}
		lock := flock.New(filepath.Join(dir, lockFileName))
		ok, err := lock.TryLock()
		if err != nil {
			return nil, fmt.Errorf("lock staging slot %s: %w", dir, err)
		}
		if !ok {
			continue
		}
		log.Debug().Str("slot", dir).Msg("staging slot acquired")
		return &Stager{dir: dir, lock: lock, log: log, now: time.Now}, nil
	}
	return nil, fmt.Errorf("%w under %s", ErrNoSlot, baseDir)
}

// Dir is the slot directory.
func (s *Stager) Dir() string { return s.dir }

// PathFor returns the staged path of a source. It depends only on the
// absolute source path, so restaging the same source overwrites.
func (s *Stager) PathFor(source string) string {
	abs, err := filepath.Abs(source)
	if err != nil {
		abs = filepath.Clean(source)
	}
	sum := sha256.Sum256([]byte(abs))
	return filepath.Join(s.dir, fmt.Sprintf("%x-%s", sum[:6], filepath.Base(abs)))
}

// Stage copies the current bytes of src into its staged path. The copy is
// verified by size and SHA-256 before it replaces the previous staged file.
// Failures are returned as *model.LoadError.
func (s *Stager) Stage(src model.SourceFile) (model.StagedCopy, error) {
	start := s.now()
	target := s.PathFor(src.Path)

	sum, size, err := s.copyVerified(src.Path, target)
	if err != nil {
		return model.StagedCopy{}, &model.LoadError{
			Kind:     Classify(err),
			Role:     src.Role,
			File:     src.Path,
			Attempts: 1,
			Err:      fmt.Errorf("stage: %w", err),
		}
	}

	s.log.Debug().
		Str("role", string(src.Role)).
		Str("source", src.Path).
		Str("staged", target).
		Int64("bytes", size).
		Dur("duration", time.Since(start)).
		Msg("source staged")

	return model.StagedCopy{
		SourcePath: src.Path,
		StagedPath: target,
		CopiedAt:   start,
		Size:       size,
		SHA256:     sum,
	}, nil
}

func (s *Stager) copyVerified(src, dst string) (string, int64, error) {
	info, err := os.Stat(src)
	if err != nil {
		return "", 0, err
	}

	in, err := os.Open(src)
	if err != nil {
		return "", 0, err
	}
	defer in.Close()

	out, err := os.CreateTemp(s.dir, tempPrefix+"*")
	if err != nil {
		return "", 0, fmt.Errorf("create temp file: %w", err)
	}
	tmp := out.Name()
	defer func() {
		_ = out.Close()
		_ = os.Remove(tmp)
	}()

	srcHasher := sha256.New()
	dstHasher := sha256.New()
	written, err := io.Copy(io.MultiWriter(out, dstHasher), io.TeeReader(in, srcHasher))
	if err != nil {
		return "", 0, err
	}
	if err := out.Close(); err != nil {
		return "", 0, err
	}
	if written != info.Size() {
		return "", 0, fmt.Errorf("copy size mismatch: source %d bytes, copied %d bytes", info.Size(), written)
	}
	if !bytes.Equal(srcHasher.Sum(nil), dstHasher.Sum(nil)) {
		return "", 0, errors.New("copy hash mismatch")
	}
	if err := os.Rename(tmp, dst); err != nil {
		return "", 0, fmt.Errorf("replace staged file: %w", err)
	}
	return fmt.Sprintf("%x", dstHasher.Sum(nil)), written, nil
}

// Close releases the slot lock. Staged files are left for reuse.
func (s *Stager) Close() error {
	if s == nil || s.lock == nil {
		return nil
	}
	return s.lock.Unlock()
}

func isTemp(name string) bool {
	return strings.HasPrefix(name, tempPrefix)
}
