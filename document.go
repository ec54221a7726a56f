package sheetimport

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/dreamph/sheetimport/ooxml"
)

// Document is the read-only view of a spreadsheet package that the importer
// walks. *ooxml.Package provides one through OpenDocument; tests and callers
// with other sources can supply their own.
type Document interface {
	// SheetNames lists sheets in document order.
	SheetNames() []string
	// Rows starts a new pass over the stored rows of a sheet.
	Rows(sheet string) (RowIterator, error)
	// SharedString resolves an index of the shared-string table.
	SharedString(index int) (string, error)
	// Date1904 reports the workbook's serial date epoch.
	Date1904() bool
}

// RowIterator walks stored rows in document order.
type RowIterator interface {
	Next() bool
	Row() ooxml.Row
	Err() error
	Close() error
}

// PackageDocument adapts an opened package to Document.
type PackageDocument struct {
	*ooxml.Package
}

// OpenDocument opens an in-memory .xlsx package. The caller must Close it.
func OpenDocument(data []byte) (*PackageDocument, error) {
	pkg, err := ooxml.Open(data)
	if err != nil {
		return nil, err
	}
	return &PackageDocument{Package: pkg}, nil
}

// Rows implements Document.
func (d *PackageDocument) Rows(sheet string) (RowIterator, error) {
	rows, err := d.Package.Rows(sheet)
	if err != nil {
		return nil, err
	}
	return rows, nil
}

/* =========================================================
 *  Cell values
 * ========================================================= */

// CellValue returns the text of a cell. ok is false only for a nil cell.
// Shared-string cells are dereferenced through the document's table; every
// other cell yields its stored text untouched, surrounding whitespace
// included. Numbers, dates and booleans stay in their stored form.
func CellValue(doc Document, c *ooxml.Cell) (value string, ok bool, err error) {
	if c == nil {
		return "", false, nil
	}
	if c.Type != ooxml.CellTypeSharedString {
		return c.Text, true, nil
	}

	idx, err := strconv.Atoi(strings.TrimSpace(c.Text))
	if err != nil || idx < 0 {
		return "", false, fmt.Errorf("%w: cell %s has shared string index %q", ErrMalformedDocument, c.Ref, c.Text)
	}
	s, err := doc.SharedString(idx)
	if err != nil {
		return "", false, fmt.Errorf("%w: cell %s: %v", ErrMalformedDocument, c.Ref, err)
	}
	return s, true, nil
}

// ColumnLetters returns the leading run of letters of a cell address:
// "AB12" gives "AB". An address without letters gives "".
func ColumnLetters(address string) string {
	for i := 0; i < len(address); i++ {
		c := address[i]
		if (c < 'A' || c > 'Z') && (c < 'a' || c > 'z') {
			return address[:i]
		}
	}
	return address
}
