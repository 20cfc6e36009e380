// Package errors provides structured error types for fetchbench.
// Every error carries a category, a code and a message; benchmark failures
// also carry details (strategy, expected and actual counts) so a run can be
// diagnosed from its output alone.
package errors

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// ErrorCategory classifies errors by system component.
type ErrorCategory string

const (
	ErrCategoryValidation ErrorCategory = "VALIDATION"
	ErrCategoryStore      ErrorCategory = "STORE"
	ErrCategorySeed       ErrorCategory = "SEED"
	ErrCategoryBenchmark  ErrorCategory = "BENCHMARK"
	ErrCategoryReport     ErrorCategory = "REPORT"
)

// Error codes for each category.
const (
	// Validation codes
	CodeInvalidConfig   = "INVALID_CONFIG"
	CodeInvalidCount    = "INVALID_COUNT"
	CodeUnknownStrategy = "UNKNOWN_STRATEGY"

	// Store codes
	CodeOpenFailed        = "OPEN_FAILED"
	CodeSessionOpenFailed = "SESSION_OPEN_FAILED"
	CodeQueryFailed       = "QUERY_FAILED"
	CodeUnmappedColumn    = "UNMAPPED_COLUMN"

	// Seed codes
	CodeWriteRejected = "WRITE_REJECTED"

	// Benchmark codes
	CodeRowCountMismatch    = "ROW_COUNT_MISMATCH"
	CodeFingerprintMismatch = "FINGERPRINT_MISMATCH"
	CodeFetchFailed         = "FETCH_FAILED"

	// Report codes
	CodeWriteFailed   = "WRITE_FAILED"
	CodeArchiveFailed = "ARCHIVE_FAILED"
)

// BenchError is the structured error type used throughout the system.
type BenchError struct {
	Category ErrorCategory
	Code     string
	Message  string
	Details  map[string]interface{}
	Cause    error
}

// Error returns a formatted error string. Details are rendered in key order.
func (e *BenchError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "[%s:%s] %s", e.Category, e.Code, e.Message)
	if len(e.Details) > 0 {
		keys := make([]string, 0, len(e.Details))
		for k := range e.Details {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		b.WriteString(" (")
		for i, k := range keys {
			if i > 0 {
				b.WriteString(", ")
			}
			fmt.Fprintf(&b, "%s=%v", k, e.Details[k])
		}
		b.WriteString(")")
	}
	if e.Cause != nil {
		fmt.Fprintf(&b, ": %v", e.Cause)
	}
	return b.String()
}

// Unwrap returns the underlying cause for errors.Is/As compatibility.
func (e *BenchError) Unwrap() error {
	return e.Cause
}

// Is reports whether the target matches this error's category and code.
func (e *BenchError) Is(target error) bool {
	var t *BenchError
	if errors.As(target, &t) {
		return e.Category == t.Category && e.Code == t.Code
	}
	return false
}

// New creates a new BenchError.
func New(category ErrorCategory, code, message string) *BenchError {
	return &BenchError{
		Category: category,
		Code:     code,
		Message:  message,
	}
}

// Wrap creates a new BenchError wrapping an existing error.
func Wrap(category ErrorCategory, code, message string, cause error) *BenchError {
	return &BenchError{
		Category: category,
		Code:     code,
		Message:  message,
		Cause:    cause,
	}
}

// WithDetails returns a copy of the error with additional details.
func (e *BenchError) WithDetails(details map[string]interface{}) *BenchError {
	cp := *e
	cp.Details = details
	return &cp
}

// GetCategory extracts the error category from an error chain.
// Returns empty string if the error is not a BenchError.
func GetCategory(err error) ErrorCategory {
	var be *BenchError
	if errors.As(err, &be) {
		return be.Category
	}
	return ""
}

// GetCode extracts the error code from an error chain.
// Returns empty string if the error is not a BenchError.
func GetCode(err error) string {
	var be *BenchError
	if errors.As(err, &be) {
		return be.Code
	}
	return ""
}

// GetDetail extracts a detail value from the first BenchError in the chain.
func GetDetail(err error, key string) (interface{}, bool) {
	var be *BenchError
	if errors.As(err, &be) && be.Details != nil {
		v, ok := be.Details[key]
		return v, ok
	}
	return nil, false
}

// Convenience constructors for common errors.

func NewValidationError(code, message string) *BenchError {
	return New(ErrCategoryValidation, code, message)
}

func NewStoreError(code, message string, cause error) *BenchError {
	return Wrap(ErrCategoryStore, code, message, cause)
}

func NewSeedError(code, message string, cause error) *BenchError {
	return Wrap(ErrCategorySeed, code, message, cause)
}

func NewBenchmarkError(code, message string) *BenchError {
	return New(ErrCategoryBenchmark, code, message)
}

func NewReportError(code, message string, cause error) *BenchError {
	return Wrap(ErrCategoryReport, code, message, cause)
}

// RowCountMismatch reports a fetch that returned the wrong number of rows.
func RowCountMismatch(strategy string, expected, actual, trial int) *BenchError {
	return NewBenchmarkError(CodeRowCountMismatch,
		fmt.Sprintf("%s returned %d rows, expected %d", strategy, actual, expected),
	).WithDetails(map[string]interface{}{
		"strategy": strategy,
		"expected": expected,
		"actual":   actual,
		"trial":    trial,
	})
}
