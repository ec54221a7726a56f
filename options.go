package sheetimport

import (
	"log/slog"
	"time"

	"github.com/go-playground/validator/v10"
)

// Defaults used when an option is left at its zero value.
const (
	DefaultMaxSizeMiB     = 1.0
	DefaultSizeTolerance  = 1.1
	DefaultErrorThreshold = 10
)

// Option is the configuration option type for Import APIs.
type Option func(*Options)

// Options control how a workbook is selected, gated and mapped.
type Options struct {
	// Sheet selection: blank means the first sheet.
	SheetName string

	// NoHeader treats the first row as layout only and uses column letters
	// as column names.
	NoHeader bool

	// Size gate: files larger than MaxSizeMiB*SizeTolerance mebibytes are
	// rejected. A negative MaxSizeMiB disables the gate.
	MaxSizeMiB    float64
	SizeTolerance float64

	// ErrorThreshold stops the row loop once this many errors have been
	// collected. Negative disables it.
	ErrorThreshold int

	// RequiredColumns are header names that must be present on top of those
	// declared by the record's excel tags.
	RequiredColumns []string

	// Validation. The pastdate rule is registered on this instance; it reads
	// the reference clock from the validation context.
	GoValidator *validator.Validate

	// Now is the reference clock for time-dependent rules.
	Now func() time.Time

	Logger *slog.Logger

	// sharedValidator is set when GoValidator came from the caller and may
	// be in use by other imports.
	sharedValidator bool
}

func newOptions(opts []Option) Options {
	var o Options
	for _, opt := range opts {
		opt(&o)
	}
	applyDefaults(&o)
	return o
}

// applyDefaults fills in default values for unspecified options.
func applyDefaults(o *Options) {
	if o.MaxSizeMiB == 0 {
		o.MaxSizeMiB = DefaultMaxSizeMiB
	}
	if o.SizeTolerance <= 0 {
		o.SizeTolerance = DefaultSizeTolerance
	}
	if o.ErrorThreshold == 0 {
		o.ErrorThreshold = DefaultErrorThreshold
	}
	if o.GoValidator == nil {
		o.GoValidator = validator.New(validator.WithRequiredStructEnabled())
	} else {
		o.sharedValidator = true
	}
	if o.Now == nil {
		o.Now = time.Now
	}
	if o.Logger == nil {
		o.Logger = slog.Default()
	}
}

// Sheet selects a sheet by name.
func Sheet(name string) Option {
	return func(o *Options) { o.SheetName = name }
}

// NoHeader makes column letters ("A", "B", ...) the column names.
func NoHeader() Option {
	return func(o *Options) { o.NoHeader = true }
}

// MaxSizeMiB sets the maximum file size in mebibytes.
func MaxSizeMiB(n float64) Option {
	return func(o *Options) { o.MaxSizeMiB = n }
}

// SizeTolerance sets the factor applied to the maximum size before rejecting.
func SizeTolerance(f float64) Option {
	return func(o *Options) { o.SizeTolerance = f }
}

// ErrorThreshold sets how many errors stop processing.
func ErrorThreshold(n int) Option {
	return func(o *Options) { o.ErrorThreshold = n }
}

// RequireColumns adds header names that must be present.
func RequireColumns(names ...string) Option {
	return func(o *Options) { o.RequiredColumns = append(o.RequiredColumns, names...) }
}

// UseValidator sets the go-playground/validator instance used for struct
// validation. The pastdate rule is added to it on first use; the instance
// may be shared by concurrent imports.
func UseValidator(v *validator.Validate) Option {
	return func(o *Options) { o.GoValidator = v }
}

// WithClock sets the reference clock.
func WithClock(now func() time.Time) Option {
	return func(o *Options) { o.Now = now }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(o *Options) { o.Logger = l }
}
