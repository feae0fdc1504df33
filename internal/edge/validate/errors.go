package validate

import (
	"errors"
	"fmt"
	"strings"
)

var (
	errEmptyURL  = errors.New("URL is empty")
	errURLScheme = errors.New("scheme must be http or https")
	errURLHost   = errors.New("host is missing")
)

// ValidationError represents a single validation error with file location
type ValidationError struct {
	File    string
	Line    int // 0 if line number not available
	Message string
}

// String renders "file line N: message", dropping the line when unknown
func (e ValidationError) String() string {
	if e.Line > 0 {
		return fmt.Sprintf("%s line %d: %s", e.File, e.Line, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.File, e.Message)
}

// ErrorCollector collects validation errors and warnings
type ErrorCollector struct {
	errors   []ValidationError
	warnings []ValidationError
}

// NewErrorCollector creates a new error collector
func NewErrorCollector() *ErrorCollector {
	return &ErrorCollector{
		errors:   make([]ValidationError, 0),
		warnings: make([]ValidationError, 0),
	}
}

// Add adds a validation error with formatted message
func (ec *ErrorCollector) Add(file string, line int, format string, args ...interface{}) {
	ec.errors = append(ec.errors, ValidationError{
		File:    file,
		Line:    line,
		Message: fmt.Sprintf(format, args...),
	})
}

// AddWarning adds a validation warning with formatted message
func (ec *ErrorCollector) AddWarning(file string, line int, format string, args ...interface{}) {
	ec.warnings = append(ec.warnings, ValidationError{
		File:    file,
		Line:    line,
		Message: fmt.Sprintf(format, args...),
	})
}

func (ec *ErrorCollector) HasErrors() bool {
	return len(ec.errors) > 0
}

func (ec *ErrorCollector) Errors() []ValidationError {
	return ec.errors
}

func (ec *ErrorCollector) Warnings() []ValidationError {
	return ec.warnings
}

func (ec *ErrorCollector) Count() int {
	return len(ec.errors)
}

// AsError folds validation errors into one runtime error: the first error
// in full plus a count of the rest. Returns nil when the result is valid.
func (r *ValidationResult) AsError() error {
	if r == nil || r.Valid {
		return nil
	}
	if len(r.Errors) == 0 {
		return fmt.Errorf("configuration validation failed")
	}

	var b strings.Builder
	b.WriteString(r.Errors[0].String())
	if len(r.Errors) > 1 {
		fmt.Fprintf(&b, " (and %d more errors)", len(r.Errors)-1)
	}
	return errors.New(b.String())
}
