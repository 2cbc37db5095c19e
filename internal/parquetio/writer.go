// Package parquetio exports snapshot rows to Parquet and reads them back.
package parquetio

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/parquet-go/parquet-go"

	"github.com/gyeh/binhelper/internal/inventory"
	"github.com/gyeh/binhelper/internal/model"
)

const writeBatchSize = 1024

// Export writes every row of snap to path, replacing the file only once the
// whole export has been written. It returns the number of rows written.
func Export(path string, snap *inventory.Snapshot) (int, error) {
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+"-*")
	if err != nil {
		return 0, fmt.Errorf("create export file: %w", err)
	}
	defer os.Remove(tmp.Name())

	n, err := write(tmp, snap)
	if err != nil {
		tmp.Close()
		return 0, err
	}
	if err := tmp.Close(); err != nil {
		return 0, fmt.Errorf("close export file: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return 0, fmt.Errorf("replace export file: %w", err)
	}
	return n, nil
}

func write(f *os.File, snap *inventory.Snapshot) (int, error) {
	w := parquet.NewGenericWriter[model.ExportRow](f, parquet.Compression(&parquet.Snappy))
	rows := snap.Rows()
	batch := make([]model.ExportRow, 0, writeBatchSize)
	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		if _, err := w.Write(batch); err != nil {
			return fmt.Errorf("write parquet rows: %w", err)
		}
		batch = batch[:0]
		return nil
	}
	for _, r := range rows {
		batch = append(batch, model.NewExportRow(snap.ID(), r))
		if len(batch) == writeBatchSize {
			if err := flush(); err != nil {
				return 0, err
			}
		}
	}
	if err := flush(); err != nil {
		return 0, err
	}
	if err := w.Close(); err != nil {
		return 0, fmt.Errorf("close parquet writer: %w", err)
	}
	return len(rows), nil
}
