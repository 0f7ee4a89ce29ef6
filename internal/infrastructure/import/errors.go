package csvimport

import (
	"errors"
	"fmt"
)

// Row error codes
const (
	ErrCodeInvalidType = "INVALID_TYPE"
	ErrCodeValidation  = "VALIDATION_ERROR"
)

// File level errors
var (
	ErrEmptyFile          = errors.New("CSV file is empty")
	ErrInvalidEncoding    = errors.New("CSV file is not valid UTF-8")
	ErrUnsupportedCharset = errors.New("unsupported charset")
	ErrMissingHeader      = errors.New("CSV file missing header row")
	ErrDuplicateHeader    = errors.New("CSV file has a duplicate column")
	ErrNoDataRows         = errors.New("CSV file contains no data rows")
	ErrTooManyRows        = errors.New("CSV file has too many rows")
)

// RowError describes why one line of the file was not imported
type RowError struct {
	Row     int    `json:"row"`
	Column  string `json:"column,omitempty"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (e RowError) Error() string {
	if e.Column != "" {
		return fmt.Sprintf("row %d, column '%s': %s", e.Row, e.Column, e.Message)
	}
	return fmt.Sprintf("row %d: %s", e.Row, e.Message)
}

// ErrorCollection keeps up to a fixed number of row errors and counts the rest
type ErrorCollection struct {
	errors    []RowError
	maxErrors int
	total     int
}

// NewErrorCollection creates a collection; maxErrors <= 0 means unbounded
func NewErrorCollection(maxErrors int) *ErrorCollection {
	return &ErrorCollection{maxErrors: maxErrors}
}

// Add records err, dropping it once the cap is reached
func (ec *ErrorCollection) Add(err RowError) {
	ec.total++
	if ec.maxErrors > 0 && len(ec.errors) >= ec.maxErrors {
		return
	}
	ec.errors = append(ec.errors, err)
}

// Errors returns the kept errors
func (ec *ErrorCollection) Errors() []RowError {
	return ec.errors
}

// TotalCount includes errors dropped by the cap
func (ec *ErrorCollection) TotalCount() int {
	return ec.total
}

// IsTruncated reports whether errors were dropped
func (ec *ErrorCollection) IsTruncated() bool {
	return ec.total > len(ec.errors)
}
