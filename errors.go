package sheetimport

import (
	"errors"
	"fmt"
	"strings"
)

// Error kinds. Every ValidationError unwraps to one of these.
var (
	ErrSizeExceeded      = errors.New("file exceeds maximum size")
	ErrUnreadableFile    = errors.New("file cannot be read")
	ErrEmptyFile         = errors.New("file is empty")
	ErrNoWorksheet       = errors.New("no matching worksheet")
	ErrMalformedDocument = errors.New("malformed document")
	ErrSchemaMismatch    = errors.New("missing expected columns")
	ErrFieldConversion   = errors.New("field conversion failed")
	ErrFieldValidation   = errors.New("field validation failed")
	ErrTooManyErrors     = errors.New("too many errors")
	ErrNoRows            = errors.New("no rows")
	ErrCancelled         = errors.New("import cancelled")
	ErrUnexpected        = errors.New("unexpected failure")
)

// ValidationError is one diagnostic of an import attempt.
// Row is 0 for file-level problems.
type ValidationError struct {
	Row     int
	Message string
	Kind    error
}

func (e ValidationError) Error() string {
	if e.Row == 0 {
		return e.Message
	}
	return fmt.Sprintf("Error while processing row %d: %s", e.Row, e.Message)
}

func (e ValidationError) Unwrap() error {
	return e.Kind
}

// ValidationErrors is the ordered error collection of a failed import.
type ValidationErrors []ValidationError

func (e ValidationErrors) Error() string {
	switch len(e) {
	case 0:
		return "no errors"
	case 1:
		return e[0].Error()
	}
	return fmt.Sprintf("%s (and %d more)", e[0].Error(), len(e)-1)
}

// Unwrap lets errors.Is and errors.As look at every entry.
func (e ValidationErrors) Unwrap() []error {
	errs := make([]error, len(e))
	for i := range e {
		errs[i] = e[i]
	}
	return errs
}

// Messages returns the human-readable form of every entry, in order.
func (e ValidationErrors) Messages() []string {
	msgs := make([]string, len(e))
	for i := range e {
		msgs[i] = e[i].Error()
	}
	return msgs
}

// String joins all messages, one per line.
func (e ValidationErrors) String() string {
	return strings.Join(e.Messages(), "\n")
}

// fileError builds a single-entry collection for a failure that ends the attempt.
func fileError(kind error, row int, format string, args ...any) ValidationErrors {
	return ValidationErrors{{Row: row, Message: fmt.Sprintf(format, args...), Kind: kind}}
}

// rowFault carries the row number of a structural failure found while
// reading a sheet, so the orchestrator can attribute it.
type rowFault struct {
	Row int
	Err error
}

func (e *rowFault) Error() string {
	return fmt.Sprintf("row %d: %v", e.Row, e.Err)
}

func (e *rowFault) Unwrap() error {
	return e.Err
}

// collector accumulates the errors of one import attempt. It only grows.
type collector struct {
	errs      ValidationErrors
	threshold int
}

func (c *collector) add(errs ...ValidationError) {
	c.errs = append(c.errs, errs...)
}

// full reports whether the threshold has been reached. A negative threshold
// never fills.
func (c *collector) full() bool {
	return c.threshold >= 0 && len(c.errs) >= c.threshold
}

func (c *collector) empty() bool {
	return len(c.errs) == 0
}
