package ooxml

import (
	"encoding/xml"
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"
)

// CellType is the declared storage type of a cell.
type CellType int

const (
	// CellTypeNone covers cells whose text is used as stored: numbers,
	// booleans, errors, formula results and ISO dates.
	CellTypeNone CellType = iota
	// CellTypeSharedString marks text that is an index into the shared-string table.
	CellTypeSharedString
	// CellTypeInlineString marks text stored in the cell itself.
	CellTypeInlineString
)

func (t CellType) String() string {
	switch t {
	case CellTypeSharedString:
		return "shared-string"
	case CellTypeInlineString:
		return "inline-string"
	default:
		return "none"
	}
}

// Cell is one stored cell. Empty cells are usually not stored at all.
type Cell struct {
	Ref  string // Address, e.g. "C14"
	Type CellType
	Text string // Stored inner text, whitespace preserved
}

// Row is one stored row with its present cells in column order.
type Row struct {
	Number int // 1-based
	Cells  []Cell
}

// Rows iterates the rows of one worksheet part, decoding a single row
// element at a time.
type Rows struct {
	pkg  *Package
	rc   io.ReadCloser
	dec  *xml.Decoder
	cur  Row
	last int
	err  error
}

// Next advances to the next stored row.
func (r *Rows) Next() bool {
	if r.rc == nil {
		return false
	}
	for {
		tok, err := r.dec.Token()
		if err == io.EOF {
			r.Close()
			return false
		}
		if err != nil {
			r.fail(err)
			return false
		}

		start, ok := tok.(xml.StartElement)
		if !ok || start.Name.Local != "row" {
			continue
		}

		var xr xlsxRow
		if err := r.dec.DecodeElement(&xr, &start); err != nil {
			r.fail(err)
			return false
		}
		r.cur = r.build(xr)
		return true
	}
}

// Row returns the current row.
func (r *Rows) Row() Row {
	return r.cur
}

// Err returns the first decoding error, if any.
func (r *Rows) Err() error {
	return r.err
}

// Close releases the worksheet stream.
func (r *Rows) Close() error {
	if r.rc == nil {
		return nil
	}
	err := r.rc.Close()
	r.rc = nil
	delete(r.pkg.open, r)
	return err
}

func (r *Rows) fail(err error) {
	r.err = fmt.Errorf("%w: worksheet: %v", ErrMalformed, err)
	r.Close()
}

// build converts a decoded row, filling in row numbers and cell addresses
// that writers are allowed to omit.
func (r *Rows) build(xr xlsxRow) Row {
	num := xr.R
	if num <= 0 {
		num = r.last + 1
	}
	r.last = num

	row := Row{Number: num, Cells: make([]Cell, 0, len(xr.C))}
	col := 0
	for _, xc := range xr.C {
		ref := xc.R
		if ref == "" {
			col++
			ref, _ = excelize.CoordinatesToCellName(col, num)
		} else if c, _, err := excelize.CellNameToCoordinates(ref); err == nil {
			col = c
		}
		row.Cells = append(row.Cells, xc.cell(ref))
	}
	return row
}
