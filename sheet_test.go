package sheetimport

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeHeader(t *testing.T) {
	tests := map[string]string{
		"IssueNumber":     "issuenumber",
		"Issue Number":    "issuenumber",
		" Date-Published": "datepublished",
		"flag_2":          "flag_2",
		"Ünïcode Name":    "ünïcodename",
		"!!!":             "",
		"":                "",
	}
	for in, want := range tests {
		got := NormalizeHeader(in)
		assert.Equal(t, want, got, in)
		assert.Equal(t, got, NormalizeHeader(got), "normalizing twice changes %q", in)
	}
}

func inventoryDoc() *memDoc {
	return newMemDoc("IssueNumber", "Title", "Batman").addSheet("Data",
		sparseRow(1, "A1=#0", "B1=#1", "C1=Flag"),
		sparseRow(2, "A2=1", "B2=#2", "C2=A"),
		sparseRow(3),
		sparseRow(4, "A4=", "C4="),
		sparseRow(5, "B5=Robin"),
	)
}

func TestOpenSheet(t *testing.T) {
	doc := inventoryDoc().addSheet("Other")

	s, err := OpenSheet(doc, "")
	require.NoError(t, err)
	assert.IsType(t, &Worksheet{}, s)
	assert.Equal(t, "Data", s.Name())

	s, err = OpenSheet(doc, "Other")
	require.NoError(t, err)
	assert.Equal(t, "Other", s.Name())

	_, err = OpenSheet(doc, "Missing")
	assert.ErrorIs(t, err, ErrNoWorksheet)

	_, err = OpenSheet(newMemDoc(), "")
	assert.ErrorIs(t, err, ErrNoWorksheet)
}

func TestWorksheet_Header(t *testing.T) {
	s, err := OpenSheet(inventoryDoc(), "Data")
	require.NoError(t, err)

	ok, err := s.HasAnyRows()
	require.NoError(t, err)
	assert.True(t, ok)

	cols, err := s.HeaderColumns()
	require.NoError(t, err)
	assert.Equal(t, []string{"A", "B", "C"}, cols.Letters())

	names, err := s.HeaderColumnNames(true)
	require.NoError(t, err)
	assert.Equal(t, []string{"issuenumber", "title", "flag"}, names)

	names, err = s.HeaderColumnNames(false)
	require.NoError(t, err)
	assert.Equal(t, []string{"A", "B", "C"}, names)
}

func TestWorksheet_HeaderNamesStopAtFirstBlank(t *testing.T) {
	doc := newMemDoc().addSheet("Data",
		sparseRow(1, "A1=Title", "B1=***", "C1=Flag"),
	)
	s, err := OpenSheet(doc, "")
	require.NoError(t, err)

	names, err := s.HeaderColumnNames(true)
	require.NoError(t, err)
	assert.Equal(t, []string{"title"}, names)

	cols, err := s.HeaderColumns()
	require.NoError(t, err)
	assert.Equal(t, 3, cols.Len())
}

func TestWorksheet_Empty(t *testing.T) {
	s, err := OpenSheet(newMemDoc().addSheet("Data"), "")
	require.NoError(t, err)

	ok, err := s.HasAnyRows()
	require.NoError(t, err)
	assert.False(t, ok)

	rows := s.UsedRows()
	assert.False(t, rows.Next())
	assert.NoError(t, rows.Err())
}

func collect(t *testing.T, u *UsedRows) []MaterializedRow {
	t.Helper()
	defer u.Close()
	var out []MaterializedRow
	for u.Next() {
		out = append(out, u.Row())
	}
	require.NoError(t, u.Err())
	return out
}

func TestUsedRows(t *testing.T) {
	s, err := OpenSheet(inventoryDoc(), "Data")
	require.NoError(t, err)

	got := collect(t, s.UsedRows())
	require.Len(t, got, 2)
	assert.Equal(t, MaterializedRow{Number: 2, Values: []string{"1", "Batman", "A"}}, got[0])
	assert.Equal(t, MaterializedRow{Number: 5, Values: []string{"", "Robin", ""}}, got[1])
}

func TestUsedRows_WhitespaceRowIsUsed(t *testing.T) {
	doc := newMemDoc().addSheet("Data",
		sparseRow(1, "A1=Title"),
		sparseRow(2, "A2=  "),
	)
	s, err := OpenSheet(doc, "")
	require.NoError(t, err)

	got := collect(t, s.UsedRows())
	require.Len(t, got, 1)
	assert.Equal(t, []string{"  "}, got[0].Values)
}

func TestUsedRows_Restartable(t *testing.T) {
	doc := inventoryDoc()
	s, err := OpenSheet(doc, "Data")
	require.NoError(t, err)

	first := collect(t, s.UsedRows())
	second := collect(t, s.UsedRows())
	assert.Equal(t, first, second)
}

func TestUsedRows_Columns(t *testing.T) {
	s, err := OpenSheet(inventoryDoc(), "Data")
	require.NoError(t, err)

	u := s.UsedRows()
	defer u.Close()
	require.True(t, u.Next())
	assert.Equal(t, []string{"A", "B", "C"}, u.Columns().Letters())
}

func TestUsedRows_Fault(t *testing.T) {
	doc := newMemDoc().addSheet("Data",
		sparseRow(1, "A1=Title"),
		sparseRow(7, "A7=#3"),
	)
	s, err := OpenSheet(doc, "")
	require.NoError(t, err)

	u := s.UsedRows()
	defer u.Close()
	assert.False(t, u.Next())

	var rf *rowFault
	require.ErrorAs(t, u.Err(), &rf)
	assert.Equal(t, 7, rf.Row)
	assert.ErrorIs(t, u.Err(), ErrMalformedDocument)
}

func TestMaterializedRow_Value(t *testing.T) {
	r := MaterializedRow{Values: []string{"a"}}
	assert.Equal(t, "a", r.Value(0))
	assert.Equal(t, "", r.Value(1))
	assert.Equal(t, "", r.Value(-1))
}
