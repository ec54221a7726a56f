package sheetimport

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dreamph/sheetimport/ooxml"
)

func TestCellValue(t *testing.T) {
	doc := newMemDoc("zero", "one")

	tests := []struct {
		name string
		cell *ooxml.Cell
		want string
		ok   bool
	}{
		{"nil cell", nil, "", false},
		{"untyped number", &ooxml.Cell{Ref: "A1", Text: "44000"}, "44000", true},
		{"untyped keeps whitespace", &ooxml.Cell{Ref: "A1", Text: "  x "}, "  x ", true},
		{"inline string", &ooxml.Cell{Ref: "A1", Type: ooxml.CellTypeInlineString, Text: "inline"}, "inline", true},
		{"shared string", &ooxml.Cell{Ref: "A1", Type: ooxml.CellTypeSharedString, Text: "1"}, "one", true},
		{"empty text", &ooxml.Cell{Ref: "A1"}, "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok, err := CellValue(doc, tt.cell)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.ok, ok)
		})
	}
}

func TestCellValue_BadSharedIndex(t *testing.T) {
	doc := newMemDoc("only")
	for _, text := range []string{"abc", "-1", "7", ""} {
		_, _, err := CellValue(doc, &ooxml.Cell{Ref: "B2", Type: ooxml.CellTypeSharedString, Text: text})
		assert.ErrorIs(t, err, ErrMalformedDocument, text)
	}
}

func TestColumnLetters(t *testing.T) {
	tests := map[string]string{
		"A1":    "A",
		"AB12":  "AB",
		"xfd9":  "xfd",
		"ZZ":    "ZZ",
		"12":    "",
		"":      "",
		"A1B2":  "A",
		"$A$1":  "",
		"AA100": "AA",
	}
	for in, want := range tests {
		assert.Equal(t, want, ColumnLetters(in), in)
	}
}

func TestOpenDocument(t *testing.T) {
	data := xlsx(t, "Inventory", []any{"Title"}, []any{"Batman"})
	doc, err := OpenDocument(data)
	require.NoError(t, err)
	defer doc.Close()

	assert.Equal(t, []string{"Inventory"}, doc.SheetNames())
	rows, err := doc.Rows("Inventory")
	require.NoError(t, err)
	defer rows.Close()

	require.True(t, rows.Next())
	v, ok, err := CellValue(doc, &rows.Row().Cells[0])
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "Title", v)

	_, err = OpenDocument([]byte("not a zip"))
	assert.Error(t, err)
}
