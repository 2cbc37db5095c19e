// Package xlsxread loads a worksheet of an .xlsx workbook into a header +
// rows table keyed by loosely-matched column names.
package xlsxread

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/gyeh/binhelper/internal/normalize"
)

// ErrInvalidFormat indicates the file could be opened but is not a readable workbook.
var ErrInvalidFormat = errors.New("invalid xlsx format")

// Table is the parsed content of one worksheet.
type Table struct {
	Path  string
	Sheet string
	// FellBack is set when the requested sheet was absent and the first
	// sheet was read instead.
	FellBack bool
	Header   []string
	// Rows holds the data rows below the header. RowNumber maps an index
	// back to the 1-based spreadsheet row.
	Rows [][]string

	headerRow int
	index     map[string]int
}

// Read opens path and loads the named sheet (or the first sheet when
// sheet is empty or missing). The first non-blank row is the header.
func Read(path, sheet string) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open workbook: %w", err)
	}
	defer f.Close()

	wb, err := excelize.OpenReader(f)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidFormat, err)
	}
	defer wb.Close()

	name, fellBack, err := pickSheet(wb.GetSheetList(), sheet)
	if err != nil {
		return nil, err
	}

	// Raw values: number formats would otherwise turn 1234.5 into "1,235".
	rows, err := wb.GetRows(name, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("%w: read sheet %q: %v", ErrInvalidFormat, name, err)
	}

	t := &Table{Path: path, Sheet: name, FellBack: fellBack}
	t.load(rows)
	return t, nil
}

func pickSheet(sheets []string, want string) (string, bool, error) {
	if len(sheets) == 0 {
		return "", false, fmt.Errorf("%w: workbook has no sheets", ErrInvalidFormat)
	}
	want = strings.TrimSpace(want)
	if want == "" {
		return sheets[0], false, nil
	}
	for _, s := range sheets {
		if strings.EqualFold(strings.TrimSpace(s), want) {
			return s, false, nil
		}
	}
	return sheets[0], true, nil
}

func (t *Table) load(rows [][]string) {
	t.index = make(map[string]int)
	t.headerRow = -1
	for i, row := range rows {
		if normalize.RowIsBlank(row) {
			continue
		}
		t.headerRow = i
		t.Header = make([]string, len(row))
		for j, h := range row {
			t.Header[j] = strings.TrimSpace(h)
			key := normalize.HeaderKey(h)
			if _, dup := t.index[key]; key != "" && !dup {
				t.index[key] = j
			}
		}
		t.Rows = rows[i+1:]
		return
	}
}

// RowNumber returns the 1-based spreadsheet row number of Rows[i].
func (t *Table) RowNumber(i int) int {
	return t.headerRow + 2 + i
}

// Column returns the index of a header, or -1.
func (t *Table) Column(name string) int {
	if idx, ok := t.index[normalize.HeaderKey(name)]; ok {
		return idx
	}
	return -1
}

// ColumnContaining returns the first header whose text contains sub
// (case-insensitive), or -1.
func (t *Table) ColumnContaining(sub string) int {
	sub = strings.ToLower(sub)
	for i, h := range t.Header {
		if strings.Contains(strings.ToLower(h), sub) {
			return i
		}
	}
	return -1
}

// Cell returns the trimmed text of column name in row, or "" when the
// column or the cell is absent.
func (t *Table) Cell(row []string, name string) string {
	return CellAt(row, t.Column(name))
}

// CellAt returns row[idx] trimmed, tolerating short rows and idx < 0.
func CellAt(row []string, idx int) string {
	if idx < 0 || idx >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[idx])
}

// SheetInfo summarises one worksheet for diagnostics.
type SheetInfo struct {
	Name string
	Rows int
	Cols int
}

// Sheets lists the worksheets of a workbook with their used dimensions.
func Sheets(path string) ([]SheetInfo, error) {
	wb, err := excelize.OpenFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) || errors.Is(err, os.ErrPermission) {
			return nil, fmt.Errorf("open workbook: %w", err)
		}
		return nil, fmt.Errorf("%w: %v", ErrInvalidFormat, err)
	}
	defer wb.Close()

	var out []SheetInfo
	for _, name := range wb.GetSheetList() {
		rows, err := wb.GetRows(name)
		if err != nil {
			return nil, fmt.Errorf("%w: read sheet %q: %v", ErrInvalidFormat, name, err)
		}
		cols := 0
		for _, r := range rows {
			if len(r) > cols {
				cols = len(r)
			}
		}
		out = append(out, SheetInfo{Name: name, Rows: len(rows), Cols: cols})
	}
	return out, nil
}
