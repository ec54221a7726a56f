// Package inventory imports comic book inventory sheets.
package inventory

import (
	"context"
	"io"
	"time"

	"github.com/google/uuid"

	"github.com/dreamph/sheetimport"
)

// SheetName is the sheet name used by the downloadable template.
const SheetName = "Inventory"

// Row is one line of an inventory sheet.
type Row struct {
	IssueNumber   string    `excel:"IssueNumber" label:"Issue Number" validate:"required"`
	Title         string    `excel:"Title" validate:"required"`
	Description   string    `excel:"Description" validate:"required"`
	Flag          string    `excel:"Flag"`
	DatePublished time.Time `excel:"DatePublished" label:"Date Published" validate:"required,pastdate"`
}

// ComicBook is an imported inventory item.
type ComicBook struct {
	ID            uuid.UUID `json:"id"`
	Row           int       `json:"row"`
	IssueNumber   string    `json:"issueNumber"`
	Title         string    `json:"title"`
	Description   string    `json:"description"`
	Flag          string    `json:"flag,omitempty"`
	DatePublished time.Time `json:"datePublished"`
}

// Summary is the result of a successful import.
type Summary struct {
	FileName string      `json:"fileName"`
	RowCount int         `json:"rowCount"`
	Items    []ComicBook `json:"items"`
}

// Import validates an inventory workbook. On failure the error is
// sheetimport.ValidationErrors.
func Import(ctx context.Context, data []byte, fileName string, opts ...sheetimport.Option) (*Summary, error) {
	res, err := sheetimport.Import[Row](ctx, data, fileName, opts...)
	if err != nil {
		return nil, err
	}
	return summarize(res), nil
}

// ImportFile is Import for a file on disk.
func ImportFile(ctx context.Context, path string, opts ...sheetimport.Option) (*Summary, error) {
	res, err := sheetimport.ImportFile[Row](ctx, path, opts...)
	if err != nil {
		return nil, err
	}
	return summarize(res), nil
}

// FromRecord maps a validated row to an inventory item.
func FromRecord(rec sheetimport.Record[Row]) ComicBook {
	return ComicBook{
		ID:            rec.ID,
		Row:           rec.Row,
		IssueNumber:   rec.Value.IssueNumber,
		Title:         rec.Value.Title,
		Description:   rec.Value.Description,
		Flag:          rec.Value.Flag,
		DatePublished: rec.Value.DatePublished,
	}
}

// WriteTemplate writes an empty inventory workbook with the expected headers.
func WriteTemplate(w io.Writer) error {
	return sheetimport.WriteTemplate[Row](w, SheetName)
}

func summarize(res *sheetimport.Result[Row]) *Summary {
	items := make([]ComicBook, len(res.Records))
	for i, rec := range res.Records {
		items[i] = FromRecord(rec)
	}
	return &Summary{FileName: res.FileName, RowCount: res.RowCount, Items: items}
}
