package ingest

import (
	"context"
	"errors"
	"io/fs"
	"strings"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/gyeh/binhelper/internal/config"
	"github.com/gyeh/binhelper/internal/model"
	"github.com/gyeh/binhelper/internal/xlsxread"
)

// ReadFunc loads one worksheet of a workbook.
type ReadFunc func(path, sheet string) (*xlsxread.Table, error)

// SleepFunc waits for d or until ctx is done.
type SleepFunc func(ctx context.Context, d time.Duration) error

// Loader reads workbooks with a bounded number of attempts, backing off
// between attempts while the file looks locked.
type Loader struct {
	MaxAttempts int
	BaseDelay   time.Duration
	MaxDelay    time.Duration
	Backoff     string

	read  ReadFunc
	sleep SleepFunc
	log   zerolog.Logger
}

// LoaderOption configures a Loader.
type LoaderOption func(*Loader)

// WithReader replaces the workbook reader.
func WithReader(fn ReadFunc) LoaderOption {
	return func(l *Loader) {
		if fn != nil {
			l.read = fn
		}
	}
}

// WithSleeper replaces the backoff wait.
func WithSleeper(fn SleepFunc) LoaderOption {
	return func(l *Loader) {
		if fn != nil {
			l.sleep = fn
		}
	}
}

// NewLoader builds a Loader from the retry policy. Zero values fall back
// to the defaults.
func NewLoader(policy config.LoaderConfig, log zerolog.Logger, opts ...LoaderOption) *Loader {
	def := config.DefaultLoader()
	if policy.MaxAttempts <= 0 {
		policy.MaxAttempts = def.MaxAttempts
	}
	if policy.BaseDelay <= 0 {
		policy.BaseDelay = def.BaseDelay
	}
	if policy.MaxDelay <= 0 {
		policy.MaxDelay = def.MaxDelay
	}
	if policy.Backoff == "" {
		policy.Backoff = def.Backoff
	}
	l := &Loader{
		MaxAttempts: policy.MaxAttempts,
		BaseDelay:   policy.BaseDelay,
		MaxDelay:    policy.MaxDelay,
		Backoff:     policy.Backoff,
		read:        xlsxread.Read,
		sleep:       sleepContext,
		log:         log,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Delay returns the wait after the given failed attempt (1-based).
func (l *Loader) Delay(attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	var d time.Duration
	if l.Backoff == config.BackoffLinear {
		d = l.BaseDelay * time.Duration(attempt)
	} else {
		d = l.BaseDelay
		for i := 1; i < attempt && d < l.MaxDelay; i++ {
			d *= 2
		}
	}
	if l.MaxDelay > 0 && d > l.MaxDelay {
		d = l.MaxDelay
	}
	return d
}

// Load reads sheet from path. Lock-like failures are retried up to
// MaxAttempts times; ParseError and FileNotAccessible return at once. The
// returned error is always a *model.LoadError.
func (l *Loader) Load(ctx context.Context, role model.Role, path, sheet string) (*xlsxread.Table, error) {
	var lastErr error
	for attempt := 1; attempt <= l.MaxAttempts; attempt++ {
		t, err := l.read(path, sheet)
		if err == nil {
			if attempt > 1 {
				l.log.Info().Str("role", string(role)).Int("attempt", attempt).Msg("workbook read after retry")
			}
			return t, nil
		}

		kind := Classify(err)
		if !kind.Retryable() {
			return nil, &model.LoadError{Kind: kind, Role: role, File: path, Attempts: attempt, Err: err}
		}
		lastErr = err
		if attempt == l.MaxAttempts {
			break
		}

		delay := l.Delay(attempt)
		msg := "workbook read failed, retrying"
		if isLockError(err) {
			msg = "workbook busy, retrying"
		}
		l.log.Warn().
			Err(err).
			Str("role", string(role)).
			Int("attempt", attempt).
			Dur("retry_in", delay).
			Msg(msg)
		if err := l.sleep(ctx, delay); err != nil {
			return nil, &model.LoadError{Kind: model.FileLocked, Role: role, File: path, Attempts: attempt, Err: err}
		}
	}
	return nil, &model.LoadError{Kind: model.FileLocked, Role: role, File: path, Attempts: l.MaxAttempts, Err: lastErr}
}

func sleepContext(ctx context.Context, d time.Duration) error {
	select {
	case <-time.After(d):
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Classify maps a read or copy error to its ErrorKind. Errors that are not
// recognisably permanent count as FileLocked so they get retried.
func Classify(err error) model.ErrorKind {
	var le *model.LoadError
	switch {
	case errors.As(err, &le):
		return le.Kind
	case errors.Is(err, xlsxread.ErrInvalidFormat), errors.Is(err, xlsxread.ErrMissingColumn):
		return model.ParseError
	case errors.Is(err, fs.ErrNotExist), errors.Is(err, fs.ErrPermission):
		return model.FileNotAccessible
	}
	return model.FileLocked
}

// isLockError reports whether err looks like another process holding the
// file. Only the operating system error is inspected, never the path.
func isLockError(err error) bool {
	if errors.Is(err, syscall.EBUSY) || errors.Is(err, syscall.EAGAIN) || errors.Is(err, syscall.ETXTBSY) {
		return true
	}
	var pe *fs.PathError
	if errors.As(err, &pe) {
		err = pe.Err
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "being used by another process") ||
		strings.Contains(msg, "sharing violation") ||
		strings.Contains(msg, "locked")
}
