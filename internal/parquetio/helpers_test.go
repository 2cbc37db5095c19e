package parquetio

import (
	"github.com/parquet-go/parquet-go"
)

func writeOther[T any](path string, rows []T) error {
	return parquet.WriteFile(path, rows)
}
