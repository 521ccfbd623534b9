package schema

import (
	"fmt"
	"iter"
	"slices"
	"sync"

	"github.com/leengari/zeptodb/internal/domain/errors"
)

// Table is an in-memory table: an ordered schema plus a flat row-major
// cell buffer. Cell (i, j) lives at contents[i*nCols+j].
//
// Invariants: len(contents) == nRows*nCols and len(schema) == nCols.
// InsertRow is the only mutator.
type Table struct {
	mu       sync.RWMutex
	name     string
	schema   []string
	nCols    int
	nRows    int
	contents []string
}

// NewEmpty creates a table with no rows. The schema slice is copied.
func NewEmpty(name string, columns []string) *Table {
	return &Table{
		name:     name,
		schema:   slices.Clone(columns),
		nCols:    len(columns),
		contents: make([]string, 0),
	}
}

// FromCells builds a fully populated table from an already validated flat
// buffer. The row count is derived from the buffer length.
func FromCells(name string, columns []string, cells []string) (*Table, error) {
	nCols := len(columns)
	if nCols == 0 {
		return nil, fmt.Errorf("%w: table %s has no columns", errors.ErrIntegrity, name)
	}
	if len(cells)%nCols != 0 {
		return nil, fmt.Errorf("%w: table %s has %d cells, not a multiple of %d columns",
			errors.ErrIntegrity, name, len(cells), nCols)
	}

	return &Table{
		name:     name,
		schema:   slices.Clone(columns),
		nCols:    nCols,
		nRows:    len(cells) / nCols,
		contents: slices.Clone(cells),
	}, nil
}

// Name returns the table name
func (t *Table) Name() string {
	return t.name
}

// Schema returns a copy of the ordered column names
func (t *Table) Schema() []string {
	return slices.Clone(t.schema)
}

// NumCols returns the number of columns
func (t *Table) NumCols() int {
	return t.nCols
}

// NumRows returns the number of stored rows
func (t *Table) NumRows() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.nRows
}

// InsertRow appends a row. The row must have exactly NumCols cells,
// otherwise a *errors.SchemaMismatchError is returned and the table is untouched.
//
// Cell contents are not checked here. A cell with a line break, the
// delimiter or surrounding whitespace (see CellIssue) is held in memory but
// refused when the table is saved.
func (t *Table) InsertRow(row []string) error {
	if len(row) != t.nCols {
		return &errors.SchemaMismatchError{
			Table:    t.name,
			Expected: t.nCols,
			Got:      len(row),
		}
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	t.contents = append(t.contents, row...)
	t.nRows++

	return nil
}

// Row returns a copy of row i. It panics if i is out of range, like slice indexing.
func (t *Table) Row(i int) []string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.rowUnsafe(i)
}

// Cell returns the value at row i, column j
func (t *Table) Cell(i, j int) string {
	t.mu.RLock()
	defer t.mu.RUnlock()

	if j < 0 || j >= t.nCols {
		panic(fmt.Sprintf("column %d out of range [0,%d)", j, t.nCols))
	}
	return t.contents[i*t.nCols+j]
}

// Rows returns a lazy sequence over the rows in storage order. Each yielded
// row is a fresh copy that the caller may keep or modify.
//
// Every call starts a new traversal from row 0. The row count is captured when
// the traversal starts, so rows inserted afterwards are not observed. Calling
// InsertRow concurrently with an ongoing traversal is undefined; concurrent
// readers without a writer are fine.
func (t *Table) Rows() iter.Seq[[]string] {
	return func(yield func([]string) bool) {
		n := t.NumRows()
		for i := 0; i < n; i++ {
			if !yield(t.Row(i)) {
				return
			}
		}
	}
}

// Clone returns a deep copy of the table under a new name
func (t *Table) Clone(name string) *Table {
	t.mu.RLock()
	defer t.mu.RUnlock()

	return &Table{
		name:     name,
		schema:   slices.Clone(t.schema),
		nCols:    t.nCols,
		nRows:    t.nRows,
		contents: slices.Clone(t.contents),
	}
}

// rowUnsafe copies row i out of the buffer.
// IMPORTANT: caller must hold at least the read lock!
func (t *Table) rowUnsafe(i int) []string {
	if i < 0 || i >= t.nRows {
		panic(fmt.Sprintf("row %d out of range [0,%d)", i, t.nRows))
	}
	start := i * t.nCols
	return slices.Clone(t.contents[start : start+t.nCols])
}

// String returns a short description for debugging
func (t *Table) String() string {
	return fmt.Sprintf("Table{%s %v rows=%d}", t.name, t.schema, t.NumRows())
}
