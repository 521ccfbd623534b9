package join

import (
	"fmt"

	"github.com/leengari/zeptodb/internal/domain/errors"
	"github.com/leengari/zeptodb/internal/domain/schema"
)

// joinColumns holds the position of the join column in each input
type joinColumns struct {
	left  int
	right int
}

// validateJoinColumns resolves column in both schemas by first occurrence
func validateJoinColumns(leftTable, rightTable *schema.Table, column string) (joinColumns, error) {
	if leftTable == nil {
		return joinColumns{}, fmt.Errorf("left table is nil")
	}
	if rightTable == nil {
		return joinColumns{}, fmt.Errorf("right table is nil")
	}

	left := schema.IndexOf(leftTable.Schema(), column)
	if left < 0 {
		return joinColumns{}, &errors.ColumnNotFoundError{TableName: leftTable.Name(), ColumnName: column}
	}
	right := schema.IndexOf(rightTable.Schema(), column)
	if right < 0 {
		return joinColumns{}, &errors.ColumnNotFoundError{TableName: rightTable.Name(), ColumnName: column}
	}

	return joinColumns{left: left, right: right}, nil
}

// newOutputTable creates the empty result: the left schema followed by the
// right schema without its join column
func newOutputTable(leftTable, rightTable *schema.Table, rightCol int) *schema.Table {
	rightSchema := rightTable.Schema()
	columns := append(leftTable.Schema(), rightSchema[:rightCol]...)
	columns = append(columns, rightSchema[rightCol+1:]...)

	return schema.NewEmpty(OutputName(leftTable, rightTable), columns)
}

// OutputName is the name given to the result of joining left with right
func OutputName(leftTable, rightTable *schema.Table) string {
	return leftTable.Name() + "_" + rightTable.Name()
}

// combineRows concatenates leftRow with rightRow minus the cell at rightCol
// into a new slice
func combineRows(leftRow, rightRow []string, rightCol int) []string {
	joined := make([]string, 0, len(leftRow)+len(rightRow)-1)
	joined = append(joined, leftRow...)
	joined = append(joined, rightRow[:rightCol]...)
	joined = append(joined, rightRow[rightCol+1:]...)
	return joined
}
