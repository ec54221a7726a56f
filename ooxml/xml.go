package ooxml

import "strings"

// xlsxRelationships maps a .rels part. Only the attributes needed to locate
// the workbook, its worksheets and the shared-string table are kept.
type xlsxRelationships struct {
	Relationships []xlsxRelationship `xml:"Relationship"`
}

type xlsxRelationship struct {
	ID     string `xml:"Id,attr"`
	Type   string `xml:"Type,attr"`
	Target string `xml:"Target,attr"`
}

// target returns the target of the first relationship whose type ends in
// kind. Transitional and strict schema URIs share the same last segment.
func (r xlsxRelationships) target(kind string) string {
	for _, rel := range r.Relationships {
		if strings.HasSuffix(rel.Type, "/"+kind) {
			return rel.Target
		}
	}
	return ""
}

// xlsxWorkbook maps the workbook element.
type xlsxWorkbook struct {
	WorkbookPr *xlsxWorkbookPr `xml:"workbookPr"`
	Sheets     []xlsxSheet     `xml:"sheets>sheet"`
}

type xlsxWorkbookPr struct {
	Date1904 bool `xml:"date1904,attr"`
}

// xlsxSheet maps one sheet entry. RelID matches the r:id attribute in either
// the transitional or the strict relationships namespace.
type xlsxSheet struct {
	Name  string `xml:"name,attr"`
	RelID string `xml:"id,attr"`
}

// xlsxSST maps the shared-string table.
type xlsxSST struct {
	SI []xlsxSI `xml:"si"`
}

// xlsxSI is a string item: either plain text or a list of rich-text runs.
// The same shape is used for inline strings (the is element of a cell).
// Phonetic runs (rPh) are ignored.
type xlsxSI struct {
	T *xlsxT  `xml:"t"`
	R []xlsxR `xml:"r"`
}

type xlsxR struct {
	T *xlsxT `xml:"t"`
}

type xlsxT struct {
	Val string `xml:",chardata"`
}

func (si xlsxSI) String() string {
	if si.T != nil {
		return si.T.Val
	}
	var b strings.Builder
	for _, r := range si.R {
		if r.T != nil {
			b.WriteString(r.T.Val)
		}
	}
	return b.String()
}

// xlsxRow maps one row element of sheetData.
type xlsxRow struct {
	R int     `xml:"r,attr"`
	C []xlsxC `xml:"c"`
}

// xlsxC maps one cell element.
type xlsxC struct {
	R  string  `xml:"r,attr"`
	T  string  `xml:"t,attr"`
	V  string  `xml:"v"`
	IS *xlsxSI `xml:"is"`
}

func (c xlsxC) cell(ref string) Cell {
	switch c.T {
	case "s":
		return Cell{Ref: ref, Type: CellTypeSharedString, Text: c.V}
	case "inlineStr":
		text := ""
		if c.IS != nil {
			text = c.IS.String()
		}
		return Cell{Ref: ref, Type: CellTypeInlineString, Text: text}
	default:
		return Cell{Ref: ref, Type: CellTypeNone, Text: c.V}
	}
}
