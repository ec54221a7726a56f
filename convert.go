package sheetimport

import (
	"fmt"
	"reflect"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/xuri/excelize/v2"
)

/* =========================================================
 *  Type Metadata & Tags
 * ========================================================= */

// Record structs map columns through field tags:
//
//	`excel:"IssueNumber,Issue"` header name(s), compared after NormalizeHeader
//	`excelcol:"C"`              column letter
//	`col:"2"`                   column position (1-based)
//	`label:"Issue Number"`      display name in messages (default: first header name)
//	`fmt:"2006-01-02"`          time layout tried before the built-in ones
//	`validate:"required"`       go-playground/validator rules

// fieldMeta stores mapping info for a single struct field.
type fieldMeta struct {
	Index        []int
	FieldName    string
	Header       string   // First `excel` name as written
	ColumnNames  []string // Normalized `excel` names
	ColIndexTag  int      // From `col:"2"` (0-based). -1 = none
	ColLetterTag string   // From `excelcol:"C"` (normalized uppercase)
	Label        string
	TimeFormat   string
}

// typeMeta stores metadata for a struct type.
type typeMeta struct {
	Fields      []*fieldMeta
	FieldByName map[string]*fieldMeta
}

var metaCache sync.Map // map[reflect.Type]*typeMeta

// splitAndTrim splits a comma-separated string and trims each part.
func splitAndTrim(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

// getTypeMeta builds and caches metadata for a struct type.
func getTypeMeta(t reflect.Type) (*typeMeta, error) {
	if v, ok := metaCache.Load(t); ok {
		return v.(*typeMeta), nil
	}
	if t.Kind() != reflect.Struct {
		return nil, fmt.Errorf("sheetimport: record type %s is not a struct", t)
	}

	m := &typeMeta{FieldByName: make(map[string]*fieldMeta)}
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		if f.PkgPath != "" {
			continue
		}

		excelTag := f.Tag.Get("excel")
		colTag := f.Tag.Get("col")
		excelColTag := f.Tag.Get("excelcol")
		if excelTag == "" && colTag == "" && excelColTag == "" {
			continue
		}

		fm := &fieldMeta{
			Index:       f.Index,
			FieldName:   f.Name,
			ColIndexTag: -1,
			Label:       strings.TrimSpace(f.Tag.Get("label")),
			TimeFormat:  f.Tag.Get("fmt"),
		}

		for _, name := range splitAndTrim(excelTag) {
			if fm.Header == "" {
				fm.Header = name
			}
			if n := NormalizeHeader(name); n != "" {
				fm.ColumnNames = append(fm.ColumnNames, n)
			}
		}
		if colTag != "" {
			if n, err := strconv.Atoi(strings.TrimSpace(colTag)); err == nil && n > 0 {
				fm.ColIndexTag = n - 1
			}
		}
		if excelColTag != "" {
			fm.ColLetterTag = strings.ToUpper(strings.TrimSpace(excelColTag))
		}

		if fm.Label == "" {
			fm.Label = fm.Header
		}
		if fm.Label == "" {
			fm.Label = f.Name
		}

		m.Fields = append(m.Fields, fm)
		m.FieldByName[f.Name] = fm
	}

	actual, _ := metaCache.LoadOrStore(t, m)
	return actual.(*typeMeta), nil
}

/* =========================================================
 *  Column binding
 * ========================================================= */

// binding is the resolved position of every mapped field for one sheet.
type binding struct {
	pos     map[*fieldMeta]int
	missing []string
}

// bind resolves each field to a position in the materialized row and lists
// required names that the sheet does not provide. Positions come from, in
// order: `col`, `excelcol`, then the first matching `excel` name.
func (m *typeMeta) bind(names []string, cols Columns, extra []string) binding {
	nameIdx := make(map[string]int, len(names))
	for i, n := range names {
		key := NormalizeHeader(n)
		if _, dup := nameIdx[key]; !dup && key != "" {
			nameIdx[key] = i
		}
	}

	b := binding{pos: make(map[*fieldMeta]int, len(m.Fields))}
	for _, fm := range m.Fields {
		if fm.ColIndexTag >= 0 {
			if fm.ColIndexTag < cols.Len() {
				b.pos[fm] = fm.ColIndexTag
			}
			continue
		}
		if fm.ColLetterTag != "" {
			if idx, ok := cols.Index(fm.ColLetterTag); ok {
				b.pos[fm] = idx
			}
			continue
		}
		found := false
		for _, name := range fm.ColumnNames {
			if idx, ok := nameIdx[name]; ok {
				b.pos[fm] = idx
				found = true
				break
			}
		}
		if !found && len(fm.ColumnNames) > 0 {
			b.missing = append(b.missing, fm.ColumnNames[0])
		}
	}

	for _, name := range extra {
		key := NormalizeHeader(name)
		if _, ok := nameIdx[key]; !ok && key != "" {
			b.missing = append(b.missing, key)
		}
	}
	return b
}

/* =========================================================
 *  Type Conversion
 * ========================================================= */

// parseBool converts various common boolean strings into bool.
func parseBool(raw string) (bool, error) {
	switch strings.ToLower(raw) {
	case "1", "true", "t", "yes", "y", "on":
		return true, nil
	case "0", "false", "f", "no", "n", "off":
		return false, nil
	}
	return false, fmt.Errorf("invalid bool: %q", raw)
}

// timeLayouts are tried after the field's own layout and RFC3339.
var timeLayouts = []string{
	"2006-01-02",
	"02/01/2006",
	"02-01-2006",
	"2006/01/02",
	"02/01/2006 15:04",
	"2006-01-02 15:04",
	"02-01-2006 15:04",
}

// parseTime attempts to parse a time value from the cell text.
// It tries in this order:
//  1. Custom format from fieldMeta.TimeFormat
//  2. RFC3339
//  3. Several common date/time layouts
//  4. Spreadsheet serial number, in the workbook's date system
// Serial dates end at 9999-12-31, day 2958465 of the 1900 system.
const (
	maxSerial1900  = 2958466.0
	serial1904Days = 1462.0
)

func serialLimit(date1904 bool) float64 {
	if date1904 {
		return maxSerial1900 - serial1904Days
	}
	return maxSerial1900
}

func parseTime(s string, fm *fieldMeta, date1904 bool) (time.Time, error) {
	if fm != nil && fm.TimeFormat != "" {
		if t, err := time.Parse(fm.TimeFormat, s); err == nil {
			return t, nil
		}
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil && f > 0 && f < serialLimit(date1904) {
		if t, err := excelize.ExcelDateToTime(f, date1904); err == nil {
			return t.Round(time.Millisecond), nil
		}
	}
	return time.Time{}, fmt.Errorf("cannot parse time: %q", s)
}

// setFieldValue sets a field from trimmed, non-empty cell text, allocating
// pointer fields as needed.
func setFieldValue(field reflect.Value, fm *fieldMeta, s string, date1904 bool) error {
	if field.Kind() == reflect.Ptr {
		elem := reflect.New(field.Type().Elem()).Elem()
		if err := convertAndSet(elem, fm, s, date1904); err != nil {
			return err
		}
		field.Set(elem.Addr())
		return nil
	}
	return convertAndSet(field, fm, s, date1904)
}

// convertAndSet performs conversion for the underlying concrete kind.
func convertAndSet(field reflect.Value, fm *fieldMeta, s string, date1904 bool) error {
	switch field.Kind() {
	case reflect.String:
		field.SetString(s)
		return nil

	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		i, err := strconv.ParseInt(s, 10, field.Type().Bits())
		if err != nil {
			return err
		}
		field.SetInt(i)
		return nil

	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		u, err := strconv.ParseUint(s, 10, field.Type().Bits())
		if err != nil {
			return err
		}
		field.SetUint(u)
		return nil

	case reflect.Float32, reflect.Float64:
		f, err := strconv.ParseFloat(s, field.Type().Bits())
		if err != nil {
			return err
		}
		field.SetFloat(f)
		return nil

	case reflect.Bool:
		b, err := parseBool(s)
		if err != nil {
			return err
		}
		field.SetBool(b)
		return nil

	case reflect.Struct:
		if field.Type() == reflect.TypeOf(time.Time{}) {
			tm, err := parseTime(s, fm, date1904)
			if err != nil {
				return err
			}
			field.Set(reflect.ValueOf(tm))
			return nil
		}
	}

	return fmt.Errorf("unsupported kind %s for value %q", field.Kind(), s)
}
