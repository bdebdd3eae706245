package catalogimport

import (
	"errors"
	"fmt"
	"strings"
)

// ErrUnsupportedFileType is returned for uploads whose extension is not accepted.
var ErrUnsupportedFileType = errors.New("unsupported file type: upload a .csv or .xlsx file")

// DecodeError means the upload could not be read as its declared format.
type DecodeError struct {
	Kind FileKind
	Err  error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("cannot decode %s file: %v", e.Kind, e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

// SchemaError lists the required columns absent from the header row.
type SchemaError struct {
	Missing []string
}

func (e *SchemaError) Error() string {
	return "missing required columns: " + strings.Join(e.Missing, ", ")
}

// RowError rejects one row. Row is the line number in the uploaded file.
type RowError struct {
	Row     int
	Message string
}

func (e *RowError) Error() string {
	return fmt.Sprintf("row %d: %s", e.Row, e.Message)
}

func rowErrorf(row int, format string, args ...interface{}) *RowError {
	return &RowError{Row: row, Message: fmt.Sprintf(format, args...)}
}

// StorageError wraps a database failure that forced a batch to roll back.
type StorageError struct {
	FirstRow int
	LastRow  int
	Err      error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("rows %d-%d: batch rolled back: %v", e.FirstRow, e.LastRow, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }
