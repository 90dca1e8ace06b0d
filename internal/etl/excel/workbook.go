// warehouse-go/internal/etl/excel/workbook.go
package excel

import (
	"fmt"

	"github.com/xuri/excelize/v2"

	"github.com/alkana/warehouse-go/internal/domain"
)

// Table holds the primary sheet of a workbook: the header row plus every
// data row as raw cell strings. Cell typing happens in the loaders.
type Table struct {
	Headers []string
	Rows    [][]string
	// HeaderRow is the 1-based Excel row the headers came from; data rows
	// start at HeaderRow+1. Zero when headers were assigned by the caller.
	HeaderRow int

	norm map[string]int
}

// Read loads the primary sheet treating row 1 as the header.
func Read(path string) (*Table, error) {
	return ReadFrom(path, 1)
}

// ReadFrom loads the primary sheet with the header at the given 1-based
// row; rows above it are discarded.
func ReadFrom(path string, headerRow int) (*Table, error) {
	rows, err := sheetRows(path)
	if err != nil {
		return nil, err
	}
	if len(rows) < headerRow {
		return nil, fmt.Errorf("%s: header row %d not present (%d rows)", path, headerRow, len(rows))
	}
	t := &Table{
		Headers:   rows[headerRow-1],
		Rows:      rows[headerRow:],
		HeaderRow: headerRow,
	}
	t.buildIndex()
	return t, nil
}

// ReadAssigned loads the primary sheet skipping row 1 entirely and
// assigning the given column names. Used for sources whose first row is
// merged or otherwise unreadable as a header.
func ReadAssigned(path string, names []string) (*Table, error) {
	rows, err := sheetRows(path)
	if err != nil {
		return nil, err
	}
	if len(rows) > 0 {
		rows = rows[1:]
	}
	t := &Table{
		Headers: names,
		Rows:    rows,
	}
	t.buildIndex()
	return t, nil
}

// FindHeaderRow scans up to maxScan rows for one containing every
// required header (compared after normalization). Returns the 1-based
// row index, or ok=false when no row qualifies.
func FindHeaderRow(path string, required []string, maxScan int) (int, bool, error) {
	rows, err := sheetRows(path)
	if err != nil {
		return 0, false, err
	}
	if maxScan > len(rows) {
		maxScan = len(rows)
	}
	for i := 0; i < maxScan; i++ {
		seen := make(map[string]bool, len(rows[i]))
		for _, cell := range rows[i] {
			if key := NormalizeHeader(cell); key != "" {
				seen[key] = true
			}
		}
		ok := true
		for _, want := range required {
			if !seen[NormalizeHeader(want)] {
				ok = false
				break
			}
		}
		if ok {
			return i + 1, true, nil
		}
	}
	return 0, false, nil
}

func sheetRows(path string) ([][]string, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open xlsx file %s: %w", path, err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("xlsx file %s has no sheets", path)
	}

	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("failed to read rows from sheet %s: %w", sheets[0], err)
	}
	return rows, nil
}

func (t *Table) buildIndex() {
	t.norm = make(map[string]int, len(t.Headers))
	for i, h := range t.Headers {
		key := NormalizeHeader(h)
		if key == "" {
			continue
		}
		if _, dup := t.norm[key]; !dup { // first occurrence wins
			t.norm[key] = i
		}
	}
}

// Record wraps one data row for header-based access.
type Record struct {
	table *Table
	cells []string
	index int
}

// Record returns the i-th data row.
func (t *Table) Record(i int) Record {
	return Record{table: t, cells: t.Rows[i], index: i}
}

// Len returns the number of data rows.
func (t *Table) Len() int { return len(t.Rows) }

// SourceRow is the 1-based Excel row this record came from.
func (r Record) SourceRow() int {
	header := r.table.HeaderRow
	if header == 0 {
		header = 1 // assigned headers replace a skipped first row
	}
	return header + 1 + r.index
}

// Get returns the trimmed cell under the first matching header. Keys are
// matched after normalization, so "Purch. Order" and "purchorder" are
// equivalent. Returns "" when no key matches or the cell is blank.
func (r Record) Get(keys ...string) string {
	for _, key := range keys {
		idx, ok := r.table.norm[NormalizeHeader(key)]
		if !ok || idx >= len(r.cells) {
			continue
		}
		if v := CleanCell(r.cells[idx]); v != "" {
			return v
		}
	}
	return ""
}

// Payload captures the whole row keyed by original header text, for the
// raw_data column. Headers beyond the row's cell count map to "".
func (r Record) Payload() domain.Payload {
	p := make(domain.Payload, len(r.table.Headers))
	for i, h := range r.table.Headers {
		if h == "" {
			h = fmt.Sprintf("col_%d", i)
		}
		if i < len(r.cells) {
			p[h] = CleanCell(r.cells[i])
		} else {
			p[h] = ""
		}
	}
	return p
}
