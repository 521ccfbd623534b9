package indexing

import (
	"log/slog"

	"github.com/leengari/zeptodb/internal/domain/errors"
	"github.com/leengari/zeptodb/internal/domain/schema"
)

// Index maps a cell value of one column to the positions of the rows
// holding it, in storage order
type Index struct {
	Column string
	Data   map[string][]int
}

// Build scans table once and groups its row positions by the value of
// column. The column is resolved by first occurrence.
func Build(table *schema.Table, column string) (*Index, error) {
	col := schema.IndexOf(table.Schema(), column)
	if col < 0 {
		return nil, &errors.ColumnNotFoundError{
			TableName:  table.Name(),
			ColumnName: column,
		}
	}

	n := table.NumRows()
	idx := &Index{
		Column: column,
		Data:   make(map[string][]int),
	}
	for rowPos := 0; rowPos < n; rowPos++ {
		val := table.Cell(rowPos, col)
		idx.Data[val] = append(idx.Data[val], rowPos)
	}

	slog.Debug("index built",
		slog.String("table", table.Name()),
		slog.String("column", column),
		slog.Int("rows", n),
		slog.Int("unique_values", len(idx.Data)),
	)

	return idx, nil
}

// Lookup returns the row positions whose cell equals key, or nil.
// The returned slice belongs to the index.
func (idx *Index) Lookup(key string) []int {
	return idx.Data[key]
}

// Len returns the number of distinct values
func (idx *Index) Len() int {
	return len(idx.Data)
}
