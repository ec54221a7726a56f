package sheetimport

import (
	"fmt"
	"io"
	"reflect"

	"github.com/xuri/excelize/v2"
)

/* =========================================================
 *  Writers: template & error report
 * ========================================================= */

// TemplateHeaders returns the header row T expects: the first `excel` name
// of every mapped field, in field order. Fields mapped only by position or
// letter contribute their label.
func TemplateHeaders[T any]() ([]string, error) {
	meta, err := getTypeMeta(reflect.TypeOf((*T)(nil)).Elem())
	if err != nil {
		return nil, err
	}
	headers := make([]string, 0, len(meta.Fields))
	for _, fm := range meta.Fields {
		if fm.Header != "" {
			headers = append(headers, fm.Header)
			continue
		}
		headers = append(headers, fm.Label)
	}
	return headers, nil
}

// WriteTemplate writes a new workbook whose only sheet holds the bold header
// row T expects. A blank sheet name keeps the default "Sheet1".
func WriteTemplate[T any](w io.Writer, sheet string) error {
	headers, err := TemplateHeaders[T]()
	if err != nil {
		return err
	}
	row := make([]any, len(headers))
	for i, h := range headers {
		row[i] = h
	}
	return writeSheet(w, sheet, [][]any{row})
}

// WriteErrorReport writes a new workbook listing every diagnostic of a failed
// import on an "Errors" sheet, one per row, in order.
func WriteErrorReport(w io.Writer, errs ValidationErrors) error {
	rows := make([][]any, 0, len(errs)+1)
	rows = append(rows, []any{"Row", "Message", "Kind"})
	for _, e := range errs {
		kind := ""
		if e.Kind != nil {
			kind = e.Kind.Error()
		}
		var row any = e.Row
		if e.Row == 0 {
			row = ""
		}
		rows = append(rows, []any{row, e.Message, kind})
	}
	return writeSheet(w, "Errors", rows)
}

// writeSheet writes rows to a fresh workbook, the first one styled as a
// header.
func writeSheet(w io.Writer, sheet string, rows [][]any) error {
	f := excelize.NewFile()
	defer f.Close()

	name := f.GetSheetName(0)
	if sheet != "" && sheet != name {
		if err := f.SetSheetName(name, sheet); err != nil {
			return fmt.Errorf("sheetimport: rename sheet: %w", err)
		}
		name = sheet
	}

	for i, r := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(name, cell, &r); err != nil {
			return fmt.Errorf("sheetimport: write row %d: %w", i+1, err)
		}
	}

	if len(rows) > 0 && len(rows[0]) > 0 {
		style, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
		if err != nil {
			return err
		}
		last, err := excelize.CoordinatesToCellName(len(rows[0]), 1)
		if err != nil {
			return err
		}
		if err := f.SetCellStyle(name, "A1", last, style); err != nil {
			return err
		}
	}

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("sheetimport: write workbook: %w", err)
	}
	return nil
}
