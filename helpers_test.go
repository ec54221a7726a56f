package sheetimport

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/dreamph/sheetimport/ooxml"
)

// memDoc is an in-memory Document built from sparse rows.
type memDoc struct {
	order    []string
	sheets   map[string][]ooxml.Row
	shared   []string
	date1904 bool
	opened   int
}

func newMemDoc(shared ...string) *memDoc {
	return &memDoc{sheets: make(map[string][]ooxml.Row), shared: shared}
}

func (d *memDoc) addSheet(name string, rows ...ooxml.Row) *memDoc {
	d.order = append(d.order, name)
	d.sheets[name] = rows
	return d
}

func (d *memDoc) SheetNames() []string { return d.order }

func (d *memDoc) Rows(sheet string) (RowIterator, error) {
	rows, ok := d.sheets[sheet]
	if !ok {
		return nil, fmt.Errorf("no sheet %q", sheet)
	}
	d.opened++
	return &memRows{rows: rows, pos: -1}, nil
}

func (d *memDoc) SharedString(i int) (string, error) {
	if i < 0 || i >= len(d.shared) {
		return "", fmt.Errorf("shared string %d out of range", i)
	}
	return d.shared[i], nil
}

func (d *memDoc) Date1904() bool { return d.date1904 }

type memRows struct {
	rows []ooxml.Row
	pos  int
}

func (r *memRows) Next() bool {
	if r.pos+1 >= len(r.rows) {
		r.pos = len(r.rows)
		return false
	}
	r.pos++
	return true
}

func (r *memRows) Row() ooxml.Row { return r.rows[r.pos] }
func (r *memRows) Err() error     { return nil }
func (r *memRows) Close() error   { return nil }

// sparseRow builds a stored row from "REF=text" pairs; a text of "#n" becomes a
// shared-string cell with index n.
func sparseRow(n int, cells ...string) ooxml.Row {
	r := ooxml.Row{Number: n}
	for _, c := range cells {
		var ref, text string
		for i := 0; i < len(c); i++ {
			if c[i] == '=' {
				ref, text = c[:i], c[i+1:]
				break
			}
		}
		cell := ooxml.Cell{Ref: ref, Text: text}
		if len(text) > 1 && text[0] == '#' {
			cell.Type = ooxml.CellTypeSharedString
			cell.Text = text[1:]
		}
		r.Cells = append(r.Cells, cell)
	}
	return r
}

// xlsx writes rows to a single-sheet workbook starting at A1.
func xlsx(t *testing.T, sheet string, rows ...[]any) []byte {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()
	if sheet != "" && sheet != "Sheet1" {
		require.NoError(t, f.SetSheetName("Sheet1", sheet))
	} else {
		sheet = "Sheet1"
	}
	for i, r := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		require.NoError(t, f.SetSheetRow(sheet, cell, &r))
	}
	buf, err := f.WriteToBuffer()
	require.NoError(t, err)
	return buf.Bytes()
}

func fixedClock() time.Time {
	return time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
}
