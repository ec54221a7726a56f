package sheetimport

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

// PastDateTag is the validator rule that rejects times after the reference
// clock.
const PastDateTag = "pastdate"

// Record is one converted and validated row.
type Record[T any] struct {
	ID    uuid.UUID // Correlation identifier, unique per record
	Row   int       // Source row number
	Value T
}

// rowConverter turns materialized rows into records of type T.
type rowConverter[T any] struct {
	typ      reflect.Type
	meta     *typeMeta
	validate *validator.Validate
	now      func() time.Time
	date1904 bool
	extra    []string
	binding  binding
}

func newRowConverter[T any](o *Options, date1904 bool) (*rowConverter[T], error) {
	t := reflect.TypeOf((*T)(nil)).Elem()
	meta, err := getTypeMeta(t)
	if err != nil {
		return nil, err
	}
	if err := registerPastDate(o.GoValidator, o.sharedValidator); err != nil {
		return nil, fmt.Errorf("sheetimport: register %s rule: %w", PastDateTag, err)
	}

	return &rowConverter[T]{
		typ:      t,
		meta:     meta,
		validate: o.GoValidator,
		now:      o.Now,
		date1904: date1904,
		extra:    o.RequiredColumns,
	}, nil
}

/* =========================================================
 *  pastdate rule
 * ========================================================= */

type clockKey struct{}

// withClock makes now the reference clock of the pastdate rule for
// validations run with the returned context.
func withClock(ctx context.Context, now func() time.Time) context.Context {
	return context.WithValue(ctx, clockKey{}, now)
}

func clockFrom(ctx context.Context) func() time.Time {
	if now, ok := ctx.Value(clockKey{}).(func() time.Time); ok && now != nil {
		return now
	}
	return time.Now
}

func pastDate(ctx context.Context, fl validator.FieldLevel) bool {
	tm, ok := fl.Field().Interface().(time.Time)
	return ok && !tm.After(clockFrom(ctx)())
}

type registration struct {
	once sync.Once
	err  error
}

// registered tracks caller-supplied validators. Each gets the rule exactly
// once, before its first import validates anything.
var registered sync.Map // map[*validator.Validate]*registration

// registerPastDate installs the pastdate rule on v. Validators created per
// import are registered directly; shared ones only once.
func registerPastDate(v *validator.Validate, shared bool) error {
	if !shared {
		return v.RegisterValidationCtx(PastDateTag, pastDate)
	}
	r, _ := registered.LoadOrStore(v, &registration{})
	reg := r.(*registration)
	reg.once.Do(func() {
		reg.err = v.RegisterValidationCtx(PastDateTag, pastDate)
	})
	return reg.err
}

// bind fixes the column layout for the sheet and returns the required
// column names the sheet lacks.
func (c *rowConverter[T]) bind(names []string, cols Columns) []string {
	c.binding = c.meta.bind(names, cols, c.extra)
	return c.binding.missing
}

// convert maps, converts and validates one row. Errors are returned in
// field order; a row with any error yields no record.
func (c *rowConverter[T]) convert(ctx context.Context, row MaterializedRow) (Record[T], []ValidationError) {
	v := reflect.New(c.typ).Elem()
	byField := make(map[string][]ValidationError)

	for _, fm := range c.meta.Fields {
		pos, ok := c.binding.pos[fm]
		if !ok {
			continue
		}
		raw := strings.TrimSpace(row.Value(pos))
		if raw == "" {
			continue
		}
		field := v.FieldByIndex(fm.Index)
		if !field.CanSet() {
			continue
		}
		if err := setFieldValue(field, fm, raw, c.date1904); err != nil {
			byField[fm.FieldName] = append(byField[fm.FieldName], ValidationError{
				Row:     row.Number,
				Message: fmt.Sprintf("%s has an invalid value %q", fm.Label, raw),
				Kind:    ErrFieldConversion,
			})
		}
	}

	obj := v.Interface().(T)
	var other []ValidationError

	if err := c.validate.StructCtx(withClock(ctx, c.now), obj); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			for _, fe := range verrs {
				name := fe.StructField()
				if hasKind(byField[name], ErrFieldConversion) {
					continue
				}
				label := fe.Field()
				if fm := c.meta.FieldByName[name]; fm != nil {
					label = fm.Label
				}
				byField[name] = append(byField[name], ValidationError{
					Row:     row.Number,
					Message: validationMessage(label, fe),
					Kind:    ErrFieldValidation,
				})
			}
		} else {
			other = append(other, ValidationError{
				Row:     row.Number,
				Message: fmt.Sprintf("Row failed validation: %v", err),
				Kind:    ErrFieldValidation,
			})
		}
	}

	var errs []ValidationError
	for _, fm := range c.meta.Fields {
		errs = append(errs, byField[fm.FieldName]...)
		delete(byField, fm.FieldName)
	}
	// Rules on untagged fields come after the mapped ones.
	for i := 0; i < c.typ.NumField(); i++ {
		errs = append(errs, byField[c.typ.Field(i).Name]...)
	}
	errs = append(errs, other...)

	if len(errs) > 0 {
		return Record[T]{}, errs
	}
	return Record[T]{ID: uuid.New(), Row: row.Number, Value: obj}, nil
}

func hasKind(errs []ValidationError, kind error) bool {
	for _, e := range errs {
		if errors.Is(e, kind) {
			return true
		}
	}
	return false
}

// validationMessage phrases a failed rule for the person fixing the file.
func validationMessage(label string, fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s cannot be left blank", label)
	case PastDateTag:
		return fmt.Sprintf("%s must be a past date", label)
	}
	if p := fe.Param(); p != "" {
		return fmt.Sprintf("%s failed the '%s=%s' rule", label, fe.Tag(), p)
	}
	return fmt.Sprintf("%s failed the '%s' rule", label, fe.Tag())
}
