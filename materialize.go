package sheetimport

import "github.com/dreamph/sheetimport/ooxml"

// Columns is the ordered set of column letters read from a header row. It
// fixes the position of every value in a materialized row.
type Columns struct {
	letters []string
	pos     map[string]int
}

// NewColumns keeps letters in the given order, dropping repeats.
func NewColumns(letters ...string) Columns {
	c := Columns{pos: make(map[string]int, len(letters))}
	for _, l := range letters {
		if _, dup := c.pos[l]; dup {
			continue
		}
		c.pos[l] = len(c.letters)
		c.letters = append(c.letters, l)
	}
	return c
}

// Len returns the number of columns.
func (c Columns) Len() int {
	return len(c.letters)
}

// Letters returns a copy of the column letters.
func (c Columns) Letters() []string {
	return append([]string(nil), c.letters...)
}

// Index returns the position of a column letter.
func (c Columns) Index(letter string) (int, bool) {
	i, ok := c.pos[letter]
	return i, ok
}

// RowCursor produces the dense values of one sparse row, one column at a
// time. Columns without a stored cell yield "". The first cell whose column
// is not part of Columns ends the row; it and any later cells are ignored.
//
//	cur := NewRowCursor(doc, row, cols)
//	for cur.Next() {
//	    v := cur.Value()
//	}
//	if err := cur.Err(); err != nil { ... }
type RowCursor struct {
	doc   Document
	cells []ooxml.Cell
	cols  Columns

	col     int // next position to emit
	next    int // next stored cell to inspect
	target  int // position of cells[next], -1 when not located yet
	stopped bool

	value string
	err   error
}

// NewRowCursor starts a cursor at the first column.
func NewRowCursor(doc Document, row ooxml.Row, cols Columns) *RowCursor {
	return &RowCursor{doc: doc, cells: row.Cells, cols: cols, target: -1}
}

// Next advances to the next column. It returns false after the last column
// or on error.
func (r *RowCursor) Next() bool {
	if r.err != nil || r.col >= r.cols.Len() {
		return false
	}
	if r.target < 0 && !r.stopped {
		r.seek()
	}

	if r.target == r.col {
		v, _, err := CellValue(r.doc, &r.cells[r.next])
		if err != nil {
			r.err = err
			return false
		}
		r.value = v
		r.next++
		r.target = -1
	} else {
		r.value = ""
	}
	r.col++
	return true
}

// Value returns the value of the current column.
func (r *RowCursor) Value() string {
	return r.value
}

// Err returns the error that stopped the cursor.
func (r *RowCursor) Err() error {
	return r.err
}

// seek locates the next stored cell at or after the cursor. Cells pointing
// behind the cursor (repeated or out-of-order addresses) are skipped.
func (r *RowCursor) seek() {
	for r.next < len(r.cells) {
		idx, ok := r.cols.Index(ColumnLetters(r.cells[r.next].Ref))
		if !ok {
			r.stopped = true
			return
		}
		if idx >= r.col {
			r.target = idx
			return
		}
		r.next++
	}
	r.stopped = true
}

// Materialize returns exactly cols.Len() values for row, in column order.
func Materialize(doc Document, row ooxml.Row, cols Columns) ([]string, error) {
	out := make([]string, 0, cols.Len())
	cur := NewRowCursor(doc, row, cols)
	for cur.Next() {
		out = append(out, cur.Value())
	}
	if err := cur.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
