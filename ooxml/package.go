// Package ooxml reads the parts of an Office Open XML spreadsheet package
// that a row importer needs: the sheet list, the shared-string table and the
// sparse cell tree of each worksheet. Packages are opened from memory and are
// never written back.
package ooxml

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"path"
	"strings"
)

var (
	// ErrMalformed reports a package whose archive or XML parts cannot be read.
	ErrMalformed = errors.New("ooxml: malformed package")
	// ErrSheetNotFound reports a sheet name that is not in the workbook.
	ErrSheetNotFound = errors.New("ooxml: sheet not found")
	// ErrClosed reports use of a package after Close.
	ErrClosed = errors.New("ooxml: package closed")
)

const (
	defaultWorkbookPart = "xl/workbook.xml"

	relOfficeDocument = "officeDocument"
	relSharedStrings  = "sharedStrings"
)

// Package is an opened spreadsheet archive.
type Package struct {
	parts    map[string]*zip.File
	sheets   []sheetPart
	shared   []string
	date1904 bool

	open   map[*Rows]struct{}
	closed bool
}

type sheetPart struct {
	name string
	part string
}

// Open reads the workbook structure and the shared-string table from an
// in-memory archive. Worksheet parts are only decoded when Rows is called.
func Open(data []byte) (*Package, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}

	p := &Package{
		parts: make(map[string]*zip.File, len(zr.File)),
		open:  make(map[*Rows]struct{}),
	}
	for _, f := range zr.File {
		p.parts[strings.TrimPrefix(f.Name, "/")] = f
	}

	if err := p.readWorkbook(); err != nil {
		return nil, err
	}
	return p, nil
}

// SheetNames returns the sheet names in workbook order.
func (p *Package) SheetNames() []string {
	names := make([]string, len(p.sheets))
	for i, s := range p.sheets {
		names[i] = s.name
	}
	return names
}

// SharedString returns entry index of the shared-string table.
func (p *Package) SharedString(index int) (string, error) {
	if index < 0 || index >= len(p.shared) {
		return "", fmt.Errorf("%w: shared string %d out of range (table has %d entries)",
			ErrMalformed, index, len(p.shared))
	}
	return p.shared[index], nil
}

// Date1904 reports whether serial dates count from 1904 instead of 1900.
func (p *Package) Date1904() bool {
	return p.date1904
}

// Rows opens a forward-only iterator over the stored rows of a sheet. Each
// call starts a new pass over the worksheet part.
func (p *Package) Rows(sheet string) (*Rows, error) {
	if p.closed {
		return nil, ErrClosed
	}

	part := ""
	for _, s := range p.sheets {
		if s.name == sheet {
			part = s.part
			break
		}
	}
	if part == "" {
		return nil, fmt.Errorf("%w: %q", ErrSheetNotFound, sheet)
	}

	f, ok := p.parts[part]
	if !ok {
		return nil, fmt.Errorf("%w: worksheet part %s is missing", ErrMalformed, part)
	}
	rc, err := f.Open()
	if err != nil {
		return nil, fmt.Errorf("%w: open %s: %v", ErrMalformed, part, err)
	}

	r := &Rows{pkg: p, rc: rc, dec: xml.NewDecoder(rc)}
	p.open[r] = struct{}{}
	return r, nil
}

// Close releases every row iterator that is still open. It is safe to call
// more than once.
func (p *Package) Close() error {
	var firstErr error
	for r := range p.open {
		if err := r.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	p.closed = true
	return firstErr
}

func (p *Package) readWorkbook() error {
	workbookPart := defaultWorkbookPart

	var root xlsxRelationships
	found, err := p.decodePart("_rels/.rels", &root)
	if err != nil {
		return err
	}
	if found {
		if target := root.target(relOfficeDocument); target != "" {
			workbookPart = resolveTarget("", target)
		}
	}

	var wb xlsxWorkbook
	found, err = p.decodePart(workbookPart, &wb)
	if err != nil {
		return err
	}
	if !found {
		return fmt.Errorf("%w: workbook part %s is missing", ErrMalformed, workbookPart)
	}
	p.date1904 = wb.WorkbookPr != nil && wb.WorkbookPr.Date1904

	var rels xlsxRelationships
	if _, err := p.decodePart(relsPart(workbookPart), &rels); err != nil {
		return err
	}
	byID := make(map[string]string, len(rels.Relationships))
	for _, rel := range rels.Relationships {
		byID[rel.ID] = rel.Target
	}

	base := path.Dir(workbookPart)
	for _, s := range wb.Sheets {
		target, ok := byID[s.RelID]
		if !ok {
			return fmt.Errorf("%w: sheet %q references unknown relationship %q", ErrMalformed, s.Name, s.RelID)
		}
		p.sheets = append(p.sheets, sheetPart{name: s.Name, part: resolveTarget(base, target)})
	}

	if target := rels.target(relSharedStrings); target != "" {
		var sst xlsxSST
		if _, err := p.decodePart(resolveTarget(base, target), &sst); err != nil {
			return err
		}
		p.shared = make([]string, len(sst.SI))
		for i, si := range sst.SI {
			p.shared[i] = si.String()
		}
	}
	return nil
}

// decodePart unmarshals a whole XML part. A missing part is not an error.
func (p *Package) decodePart(name string, v any) (bool, error) {
	f, ok := p.parts[name]
	if !ok {
		return false, nil
	}
	rc, err := f.Open()
	if err != nil {
		return true, fmt.Errorf("%w: open %s: %v", ErrMalformed, name, err)
	}
	defer rc.Close()

	if err := xml.NewDecoder(rc).Decode(v); err != nil {
		return true, fmt.Errorf("%w: decode %s: %v", ErrMalformed, name, err)
	}
	return true, nil
}

// resolveTarget turns a relationship target into an archive path. Absolute
// targets start at the package root, relative ones at base.
func resolveTarget(base, target string) string {
	if strings.HasPrefix(target, "/") {
		return strings.TrimPrefix(path.Clean(target), "/")
	}
	return path.Join(base, target)
}

// relsPart returns the relationships part that belongs to part,
// e.g. xl/_rels/workbook.xml.rels for xl/workbook.xml.
func relsPart(part string) string {
	return path.Join(path.Dir(part), "_rels", path.Base(part)+".rels")
}
