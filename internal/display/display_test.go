package display

import (
	"bytes"
	"strings"
	"testing"

	"gotest.tools/v3/assert"

	"github.com/leengari/zeptodb/internal/domain/schema"
)

func createTable(t *testing.T, name string, columns []string, rows ...[]string) *schema.Table {
	t.Helper()
	table := schema.NewEmpty(name, columns)
	for _, row := range rows {
		assert.NilError(t, table.InsertRow(row))
	}
	return table
}

func TestRender(t *testing.T) {
	table := createTable(t, "locations", []string{"location", "value"},
		[]string{"ab", "1"},
		[]string{"cd", "2"},
	)

	var buf bytes.Buffer
	assert.NilError(t, Render(&buf, table))

	expected := "Table name: locations\n" +
		" location | value \n" +
		"------------------\n" +
		"    ab    |   1   \n" +
		"    cd    |   2   \n"
	assert.Equal(t, buf.String(), expected)
}

func TestRender_WidestCellWins(t *testing.T) {
	table := createTable(t, "t", []string{"a"}, []string{"wide"})

	var buf bytes.Buffer
	assert.NilError(t, Render(&buf, table))

	lines := strings.Split(strings.TrimSuffix(buf.String(), "\n"), "\n")
	assert.Equal(t, len(lines), 4)
	// single column: no separator
	assert.Equal(t, lines[2], "------")
	assert.Equal(t, lines[3], " wide ")
	assert.Equal(t, len(lines[1]), 6)
	assert.Equal(t, strings.TrimSpace(lines[1]), "a")
}

func TestRender_Empty(t *testing.T) {
	table := createTable(t, "empty", []string{"id", "name"})

	var buf bytes.Buffer
	assert.NilError(t, Render(&buf, table))

	assert.Equal(t, buf.String(), "Table name: empty\n id | name \n-----------\n")
}

func TestColumnWidths_MultiByte(t *testing.T) {
	table := createTable(t, "cities", []string{"city", "n"},
		[]string{"Zürich", "1"},
		[]string{"東京", "22"},
	)

	// "Zürich" is 6 cells wide, "東京" 4
	assert.DeepEqual(t, ColumnWidths(table), []int{8, 4})
}
