package xlsxread

import (
	"errors"
	"fmt"
	"strings"
)

// ErrMissingColumn indicates a required header is absent from the sheet.
var ErrMissingColumn = errors.New("missing required column")

// RequireColumns checks that the table header contains every listed column.
func RequireColumns(t *Table, cols ...string) error {
	var missing []string
	for _, col := range cols {
		if t.Column(col) < 0 {
			missing = append(missing, col)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w in sheet %q: %s", ErrMissingColumn, t.Sheet, strings.Join(missing, ", "))
	}
	return nil
}
