package db

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/gyeh/binhelper/internal/model"
)

// ChannelSource feeds COPY from a channel of snapshot rows. It stops early
// when ctx is cancelled and refuses rows without a bin, reporting either
// through Err so the COPY is aborted instead of committed short.
type ChannelSource struct {
	ctx     context.Context
	ch      <-chan *model.PublishRow
	current *model.PublishRow
	sent    int64
	err     error
}

// NewChannelSource creates a CopyFromSource backed by ch.
func NewChannelSource(ctx context.Context, ch <-chan *model.PublishRow) *ChannelSource {
	return &ChannelSource{ctx: ctx, ch: ch}
}

// Next advances to the next row. It returns false once the channel is
// closed, ctx is done or a row was rejected.
func (s *ChannelSource) Next() bool {
	if s.err != nil {
		return false
	}
	select {
	case row, ok := <-s.ch:
		if !ok {
			return false
		}
		s.current = row
		return true
	case <-s.ctx.Done():
		s.err = s.ctx.Err()
		return false
	}
}

// Values returns the current row in PublishColumns order.
func (s *ChannelSource) Values() ([]any, error) {
	if s.current.Bin == "" {
		s.err = fmt.Errorf("row %d: empty bin", s.current.Seq)
		return nil, s.err
	}
	s.sent++
	return s.current.CopyValues(), nil
}

// Err returns the error that ended iteration early, if any.
func (s *ChannelSource) Err() error {
	return s.err
}

// Sent is the number of rows handed to COPY so far.
func (s *ChannelSource) Sent() int64 {
	return s.sent
}

var _ pgx.CopyFromSource = (*ChannelSource)(nil)
