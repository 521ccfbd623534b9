package errors

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// Recoverable: reported to the caller, nothing on disk or in memory changed.
	ErrTableExists      = errors.New("table already exists")
	ErrSchemaMismatch   = errors.New("row does not match schema")
	ErrInvalidTableName = errors.New("invalid table name")
	ErrInvalidCell      = errors.New("value cannot be stored")

	// Fatal: the stored data (or the request against it) is not usable.
	ErrTableNotFound = errors.New("table not found")
	ErrIntegrity     = errors.New("data integrity violation")
)

// IsFatal reports whether err belongs to the unrecoverable class
// (missing table file, malformed rows, unknown join column).
func IsFatal(err error) bool {
	return errors.Is(err, ErrIntegrity) || errors.Is(err, ErrTableNotFound)
}

// SchemaMismatchError is returned when a row's cell count differs from
// the table's column count on insert
type SchemaMismatchError struct {
	Table    string
	Expected int
	Got      int
}

func (e *SchemaMismatchError) Error() string {
	return fmt.Sprintf("row does not match schema of %s: expected %d cells, got %d",
		e.Table, e.Expected, e.Got)
}

func (e *SchemaMismatchError) Unwrap() error {
	return ErrSchemaMismatch
}

// InvalidCellError is returned when a schema name or cell cannot be written
// to a table file and read back unchanged. Row is the index used by
// Table.Row, or -1 for the schema line; Column is -1 when unknown.
type InvalidCellError struct {
	Table  string
	Row    int
	Column int
	Reason string
}

func (e *InvalidCellError) Error() string {
	var parts []string

	parts = append(parts, fmt.Sprintf("invalid value in %s", e.Table))
	if e.Row < 0 {
		parts = append(parts, "schema line")
	} else {
		parts = append(parts, fmt.Sprintf("row %d", e.Row))
	}
	if e.Column >= 0 {
		parts = append(parts, fmt.Sprintf("column %d", e.Column))
	}
	parts = append(parts, e.Reason)

	return strings.Join(parts, " - ")
}

func (e *InvalidCellError) Unwrap() error {
	return ErrInvalidCell
}

// MalformedRowError describes a data line whose field count disagrees with
// the schema line of the same file. Line is 1-based and counts the schema line.
type MalformedRowError struct {
	File     string
	Line     int
	Expected int
	Got      int
}

func (e *MalformedRowError) Error() string {
	var parts []string

	parts = append(parts, fmt.Sprintf("malformed row in %s", e.File))
	if e.Line > 0 {
		parts = append(parts, fmt.Sprintf("line %d", e.Line))
	}
	parts = append(parts, fmt.Sprintf("expected %d columns, got %d", e.Expected, e.Got))

	return strings.Join(parts, " - ")
}

func (e *MalformedRowError) Unwrap() error {
	return ErrIntegrity
}

// ColumnNotFoundError is returned when a column lookup by name fails
type ColumnNotFoundError struct {
	TableName  string
	ColumnName string
}

func (e *ColumnNotFoundError) Error() string {
	return fmt.Sprintf("column '%s' not found in table '%s'", e.ColumnName, e.TableName)
}

func (e *ColumnNotFoundError) Unwrap() error {
	return ErrIntegrity
}

// NewTableNotFound wraps ErrTableNotFound with the table name and its file path
func NewTableNotFound(name, path string) error {
	return fmt.Errorf("%w: %s (%s)", ErrTableNotFound, name, path)
}
