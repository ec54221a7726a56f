package sheetimport

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/dreamph/sheetimport/ooxml"
)

// MaterializedRow is one dense data row.
type MaterializedRow struct {
	Number int // 1-based row number in the sheet
	Values []string
}

// Value returns the value at position i, or "" when i is out of range.
func (r MaterializedRow) Value(i int) string {
	if i < 0 || i >= len(r.Values) {
		return ""
	}
	return r.Values[i]
}

// Worksheet is a sheet selected for import. The first stored row is its
// header row.
type Worksheet struct {
	doc  Document
	name string
}

// OpenSheet selects a sheet by name. A blank name selects the first sheet.
func OpenSheet(doc Document, name string) (*Worksheet, error) {
	names := doc.SheetNames()
	if strings.TrimSpace(name) == "" {
		if len(names) == 0 {
			return nil, fmt.Errorf("%w: workbook has no sheets", ErrNoWorksheet)
		}
		return &Worksheet{doc: doc, name: names[0]}, nil
	}
	for _, n := range names {
		if n == name {
			return &Worksheet{doc: doc, name: n}, nil
		}
	}
	return nil, fmt.Errorf("%w: sheet %q not found", ErrNoWorksheet, name)
}

// Name returns the sheet name.
func (s *Worksheet) Name() string {
	return s.name
}

// HasAnyRows reports whether the sheet stores at least one row.
func (s *Worksheet) HasAnyRows() (bool, error) {
	_, ok, err := s.headerRow()
	return ok, err
}

// HeaderColumns returns the column letters of the header row, in address
// order. Header text is not inspected.
func (s *Worksheet) HeaderColumns() (Columns, error) {
	row, _, err := s.headerRow()
	if err != nil {
		return Columns{}, err
	}
	return columnsOf(row), nil
}

// HeaderColumnNames returns the names used to look up columns. With headers,
// each header value is normalized and collection stops at the first value
// that normalizes to "", so later columns have no name. Without headers the
// column letters are the names.
func (s *Worksheet) HeaderColumnNames(hasHeaders bool) ([]string, error) {
	row, _, err := s.headerRow()
	if err != nil {
		return nil, err
	}
	if !hasHeaders {
		return columnsOf(row).Letters(), nil
	}

	names := make([]string, 0, len(row.Cells))
	for i := range row.Cells {
		v, _, err := CellValue(s.doc, &row.Cells[i])
		if err != nil {
			return nil, &rowFault{Row: row.Number, Err: err}
		}
		n := NormalizeHeader(v)
		if n == "" {
			break
		}
		names = append(names, n)
	}
	return names, nil
}

// UsedRows returns a new lazy pass over the data rows of the sheet.
func (s *Worksheet) UsedRows() *UsedRows {
	return &UsedRows{sheet: s}
}

func (s *Worksheet) headerRow() (ooxml.Row, bool, error) {
	rows, err := s.doc.Rows(s.name)
	if err != nil {
		return ooxml.Row{}, false, err
	}
	defer rows.Close()

	if !rows.Next() {
		return ooxml.Row{}, false, rows.Err()
	}
	return rows.Row(), true, nil
}

// NormalizeHeader lower-cases s and drops everything except letters, digits
// and underscores. Normalizing a normalized name returns it unchanged.
func NormalizeHeader(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(unicode.ToLower(r))
		}
	}
	return b.String()
}

func columnsOf(row ooxml.Row) Columns {
	letters := make([]string, len(row.Cells))
	for i, c := range row.Cells {
		letters[i] = ColumnLetters(c.Ref)
	}
	return NewColumns(letters...)
}

/* =========================================================
 *  Used rows
 * ========================================================= */

// UsedRows iterates the data rows of a sheet: the header row is skipped, as
// is every row whose stored cells all resolve to "". The column layout is
// taken from the header row of the same pass.
type UsedRows struct {
	sheet *Worksheet
	rows  RowIterator
	cols  Columns
	cur   MaterializedRow
	done  bool
	err   error
}

// Next advances to the next used row.
func (u *UsedRows) Next() bool {
	if u.done || u.err != nil {
		return false
	}
	if u.rows == nil {
		rows, err := u.sheet.doc.Rows(u.sheet.name)
		if err != nil {
			u.err = err
			return false
		}
		u.rows = rows
		if !rows.Next() {
			u.finish()
			return false
		}
		u.cols = columnsOf(rows.Row())
	}

	for u.rows.Next() {
		raw := u.rows.Row()
		blank, err := isBlankRow(u.sheet.doc, raw)
		if err == nil && blank {
			continue
		}
		var values []string
		if err == nil {
			values, err = Materialize(u.sheet.doc, raw, u.cols)
		}
		if err != nil {
			u.err = &rowFault{Row: raw.Number, Err: err}
			return false
		}
		u.cur = MaterializedRow{Number: raw.Number, Values: values}
		return true
	}
	u.finish()
	return false
}

// Row returns the current row.
func (u *UsedRows) Row() MaterializedRow {
	return u.cur
}

// Columns returns the column layout of the pass, known after the first Next.
func (u *UsedRows) Columns() Columns {
	return u.cols
}

// Err returns the error that ended the pass, if any.
func (u *UsedRows) Err() error {
	if u.err != nil {
		return u.err
	}
	if u.rows != nil {
		return u.rows.Err()
	}
	return nil
}

// Close releases the underlying row stream.
func (u *UsedRows) Close() error {
	u.done = true
	if u.rows == nil {
		return nil
	}
	return u.rows.Close()
}

func (u *UsedRows) finish() {
	u.done = true
	if err := u.rows.Err(); err != nil {
		u.err = err
	}
}

func isBlankRow(doc Document, row ooxml.Row) (bool, error) {
	for i := range row.Cells {
		v, _, err := CellValue(doc, &row.Cells[i])
		if err != nil {
			return false, err
		}
		if v != "" {
			return false, nil
		}
	}
	return true, nil
}
