package display

import (
	"bufio"
	"fmt"
	"io"
	"iter"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// View is the read surface of a table needed for display
type View interface {
	Name() string
	Schema() []string
	NumCols() int
	NumRows() int
	Rows() iter.Seq[[]string]
}

// cellPadding is added to the widest value of every column
const cellPadding = 2

// Render writes v as a text grid:
//
//	Table name: people
//	 name  | age
//	-------------
//	 alice | 30
//
// Values are centred in columns as wide as their widest value plus two.
// Columns are separated by "|" and the dash bar spans the full line.
func Render(w io.Writer, v View) error {
	bw := bufio.NewWriter(w)

	fmt.Fprintf(bw, "Table name: %s\n", v.Name())

	columns := v.Schema()
	widths := ColumnWidths(v)

	writeLine(bw, columns, widths)
	fmt.Fprintln(bw, strings.Repeat("-", lineWidth(widths)))
	for row := range v.Rows() {
		writeLine(bw, row, widths)
	}

	return bw.Flush()
}

// ColumnWidths returns the display width of every column of v: the widest
// of its header and cells plus padding
func ColumnWidths(v View) []int {
	columns := v.Schema()
	widths := make([]int, len(columns))
	for i, col := range columns {
		widths[i] = lipgloss.Width(col)
	}
	for row := range v.Rows() {
		for i, cell := range row {
			widths[i] = max(widths[i], lipgloss.Width(cell))
		}
	}
	for i := range widths {
		widths[i] += cellPadding
	}
	return widths
}

func writeLine(w io.Writer, cells []string, widths []int) {
	for i, cell := range cells {
		if i > 0 {
			io.WriteString(w, "|")
		}
		io.WriteString(w, lipgloss.PlaceHorizontal(widths[i], lipgloss.Center, cell))
	}
	io.WriteString(w, "\n")
}

func lineWidth(widths []int) int {
	total := 0
	for _, w := range widths {
		total += w
	}
	if len(widths) > 1 {
		total += len(widths) - 1
	}
	return total
}
