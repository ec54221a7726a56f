// Package sheetimport turns uploaded spreadsheets into validated records.
package sheetimport

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/dreamph/sheetimport/ooxml"
)

/*
Package sheetimport

High-level features:

  - Rebuild dense, header-aligned rows from the sparse cell tree of an .xlsx
    sheet, resolving shared strings along the way
  - Map rows to Go structs using tags:
      - `excel:"Title"`   → match header text (normalized)
      - `col:"2"`         → match column position (1-based)
      - `excelcol:"C"`    → match column letter
  - Type conversion for string, int*, uint*, float*, bool, time.Time
    (spreadsheet serial dates included) and pointers to them
  - Validation via go-playground/validator, with a pastdate rule
  - All-or-nothing imports:
      - Import / ImportFile return either every record or every error
      - ValidationError carries the row number (0 = whole file)
      - Processing stops after ErrorThreshold errors

For a fixed schema, see the inventory package for a complete example.
*/

// Result is the outcome of a successful import.
type Result[T any] struct {
	FileName string
	RowCount int
	Records  []Record[T]
}

// Import validates an in-memory .xlsx file and converts every data row to T.
// On failure the error is ValidationErrors and the result is nil; a file is
// never partially imported.
func Import[T any](ctx context.Context, data []byte, fileName string, opts ...Option) (*Result[T], error) {
	o := newOptions(opts)
	log := o.Logger.With("file", fileName, "bytes", len(data))

	if errs := checkSize(int64(len(data)), &o); errs != nil {
		log.Warn("import rejected", "reason", "size", "max_mib", o.MaxSizeMiB)
		return nil, errs
	}

	pkg, err := ooxml.Open(data)
	if err != nil {
		log.Warn("import rejected", "reason", "unreadable", "error", err)
		return nil, fileError(ErrMalformedDocument, 0, "File could not be read as a spreadsheet")
	}
	defer pkg.Close()

	return importDocument[T](ctx, &PackageDocument{Package: pkg}, fileName, &o, log)
}

// ImportFile reads an .xlsx file from disk and imports it. The size gate is
// applied before the file is read.
func ImportFile[T any](ctx context.Context, path string, opts ...Option) (*Result[T], error) {
	o := newOptions(opts)
	name := filepath.Base(path)

	info, err := os.Stat(path)
	if err != nil {
		return nil, fileError(ErrUnreadableFile, 0, "File %s could not be read", name)
	}
	if errs := checkSize(info.Size(), &o); errs != nil {
		return nil, errs
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fileError(ErrUnreadableFile, 0, "File %s could not be read", name)
	}
	return Import[T](ctx, data, name, opts...)
}

// ImportDocument imports from an already opened document. The size gate
// does not apply.
func ImportDocument[T any](ctx context.Context, doc Document, fileName string, opts ...Option) (*Result[T], error) {
	o := newOptions(opts)
	return importDocument[T](ctx, doc, fileName, &o, o.Logger.With("file", fileName))
}

const mebibyte = 1024 * 1024

func checkSize(size int64, o *Options) ValidationErrors {
	if o.MaxSizeMiB < 0 {
		return nil
	}
	if float64(size)/mebibyte > o.MaxSizeMiB*o.SizeTolerance {
		return fileError(ErrSizeExceeded, 0, "File exceeds maximum size of %gMB", o.MaxSizeMiB)
	}
	return nil
}

/* =========================================================
 *  Row loop
 * ========================================================= */

func importDocument[T any](ctx context.Context, doc Document, fileName string, o *Options, log *slog.Logger) (res *Result[T], err error) {
	defer func() {
		if r := recover(); r != nil {
			log.Error("import panicked", "panic", r)
			res, err = nil, fileError(ErrUnexpected, 0, "Unexpected failure while importing file: %v", r)
		}
	}()

	sheet, serr := OpenSheet(doc, o.SheetName)
	if serr != nil {
		log.Warn("import rejected", "reason", "worksheet", "sheet", o.SheetName)
		if o.SheetName == "" {
			return nil, fileError(ErrNoWorksheet, 0, "File does not contain any worksheets")
		}
		return nil, fileError(ErrNoWorksheet, 0, "Worksheet %q was not found", o.SheetName)
	}
	log = log.With("sheet", sheet.Name())

	hasRows, rerr := sheet.HasAnyRows()
	if rerr != nil {
		return nil, structuralError(rerr)
	}
	if !hasRows {
		log.Warn("import rejected", "reason", "empty")
		return nil, fileError(ErrEmptyFile, 0, "File is empty")
	}

	names, herr := sheet.HeaderColumnNames(!o.NoHeader)
	if herr != nil {
		return nil, structuralError(herr)
	}

	conv, cerr := newRowConverter[T](o, doc.Date1904())
	if cerr != nil {
		return nil, fileError(ErrUnexpected, 0, "%v", cerr)
	}

	log.Info("import started", "columns", len(names))

	errs := &collector{threshold: o.ErrorThreshold}
	var records []Record[T]
	processed := 0
	bound := false

	rows := sheet.UsedRows()
	defer rows.Close()

	for rows.Next() {
		if ctx.Err() != nil {
			log.Warn("import cancelled", "rows", processed)
			return nil, fileError(ErrCancelled, 0, "Import was cancelled")
		}
		row := rows.Row()

		if !bound {
			if missing := conv.bind(names, rows.Columns()); len(missing) > 0 {
				log.Warn("import rejected", "reason", "schema", "missing", missing)
				return nil, fileError(ErrSchemaMismatch, row.Number,
					"Missing expected columns in data: %s", strings.Join(missing, ", "))
			}
			bound = true
		}

		rec, rowErrs := conv.convert(ctx, row)
		processed++
		if len(rowErrs) > 0 {
			log.Debug("row rejected", "row", row.Number, "errors", len(rowErrs))
			errs.add(rowErrs...)
		} else {
			records = append(records, rec)
		}

		if errs.full() {
			errs.add(ValidationError{
				Message: fmt.Sprintf("Stopped processing after %d or more errors", o.ErrorThreshold),
				Kind:    ErrTooManyErrors,
			})
			break
		}
	}
	if err := rows.Err(); err != nil {
		errs.add(structuralError(err)...)
		log.Warn("import rejected", "reason", "malformed", "rows", processed, "errors", len(errs.errs))
		return nil, errs.errs
	}

	if processed == 0 {
		log.Warn("import rejected", "reason", "no rows")
		return nil, fileError(ErrNoRows, 0, "No rows")
	}
	if !errs.empty() {
		log.Warn("import rejected", "rows", processed, "errors", len(errs.errs), "first_error", errs.errs[0].Error())
		return nil, errs.errs
	}

	log.Info("import completed", "rows", len(records))
	return &Result[T]{FileName: fileName, RowCount: len(records), Records: records}, nil
}

// structuralError reports a problem with the document itself, attributed to
// the row where it was found when known.
func structuralError(err error) ValidationErrors {
	row, cause := 0, err
	var rf *rowFault
	if errors.As(err, &rf) {
		row, cause = rf.Row, rf.Err
	}
	return fileError(ErrMalformedDocument, row, "File could not be read as a spreadsheet: %v", cause)
}
