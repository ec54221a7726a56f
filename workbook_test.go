package sheetimport

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func TestTemplateHeaders(t *testing.T) {
	headers, err := TemplateHeaders[comicRow]()
	require.NoError(t, err)
	assert.Equal(t, []string{"IssueNumber", "Title", "Description", "Flag", "DatePublished"}, headers)

	headers, err = TemplateHeaders[letterRow]()
	require.NoError(t, err)
	assert.Equal(t, []string{"Issue", "B"}, headers)
}

func TestWriteTemplate_RoundTrip(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteTemplate[comicRow](&buf, "Inventory"))

	f, err := excelize.OpenReader(bytes.NewReader(buf.Bytes()))
	require.NoError(t, err)
	defer f.Close()
	assert.Equal(t, []string{"Inventory"}, f.GetSheetList())

	styleID, err := f.GetCellStyle("Inventory", "E1")
	require.NoError(t, err)
	style, err := f.GetStyle(styleID)
	require.NoError(t, err)
	require.NotNil(t, style.Font)
	assert.True(t, style.Font.Bold)

	// A template is a valid workbook with no data rows.
	_, err = Import[comicRow](context.Background(), buf.Bytes(), "template.xlsx", Sheet("Inventory"))
	var verrs ValidationErrors
	require.ErrorAs(t, err, &verrs)
	assert.ErrorIs(t, verrs[0], ErrNoRows)
}

func TestWriteErrorReport(t *testing.T) {
	errs := ValidationErrors{
		{Row: 2, Message: "Title cannot be left blank", Kind: ErrFieldValidation},
		{Message: "Stopped processing after 1 or more errors", Kind: ErrTooManyErrors},
	}

	var buf bytes.Buffer
	require.NoError(t, WriteErrorReport(&buf, errs))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows("Errors")
	require.NoError(t, err)
	assert.Equal(t, [][]string{
		{"Row", "Message", "Kind"},
		{"2", "Title cannot be left blank", "field validation failed"},
		{"", "Stopped processing after 1 or more errors", "too many errors"},
	}, rows)
}
