package db

import (
	"context"
	"errors"
	"testing"

	"github.com/gyeh/binhelper/internal/model"
)

func rowsChannel(rows ...model.Row) <-chan *model.PublishRow {
	ch := make(chan *model.PublishRow, len(rows))
	for i, r := range rows {
		ch <- &model.PublishRow{Seq: int32(i), Row: r}
	}
	close(ch)
	return ch
}

func TestChannelSourceCountsRows(t *testing.T) {
	src := NewChannelSource(context.Background(), rowsChannel(
		model.Row{Bin: "11400801", Status: model.StatusPartial, Origin: model.OriginInventory},
		model.Row{Bin: "11400805", Status: model.StatusEmpty, Origin: model.OriginMaster},
	))
	for src.Next() {
		vals, err := src.Values()
		if err != nil {
			t.Fatalf("Values: %v", err)
		}
		if len(vals) != len(model.PublishColumns()) {
			t.Fatalf("got %d values for %d columns", len(vals), len(model.PublishColumns()))
		}
	}
	if src.Err() != nil || src.Sent() != 2 {
		t.Fatalf("err=%v sent=%d, want nil and 2", src.Err(), src.Sent())
	}
}

func TestChannelSourceRejectsEmptyBin(t *testing.T) {
	src := NewChannelSource(context.Background(), rowsChannel(
		model.Row{Bin: "11400801"},
		model.Row{},
		model.Row{Bin: "11400803"},
	))
	var valueErr error
	for src.Next() {
		if _, err := src.Values(); err != nil {
			valueErr = err
		}
	}
	if valueErr == nil || src.Err() == nil {
		t.Fatal("row without a bin was accepted")
	}
	if src.Sent() != 1 {
		t.Errorf("sent = %d, want 1", src.Sent())
	}
}

func TestChannelSourceStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	ch := make(chan *model.PublishRow)
	src := NewChannelSource(ctx, ch)
	if src.Next() {
		t.Fatal("Next returned a row after cancel")
	}
	if !errors.Is(src.Err(), context.Canceled) {
		t.Fatalf("Err = %v, want context.Canceled", src.Err())
	}
}
