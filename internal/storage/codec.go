package storage

import (
	"bufio"
	"fmt"
	"io"

	"github.com/leengari/zeptodb/internal/domain/errors"
	"github.com/leengari/zeptodb/internal/domain/schema"
)

// maxLineSize caps a single schema or data line
const maxLineSize = 16 * 1024 * 1024

// decodeTable reads a whole table file: the schema line, then one row per
// non-empty line. file is only used for error reporting.
func decodeTable(r io.Reader, name, file string) (*schema.Table, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)

	if !scanner.Scan() {
		if err := scanner.Err(); err != nil {
			return nil, fmt.Errorf("failed to read schema of %s: %w", file, err)
		}
		return nil, fmt.Errorf("%w: %s has no schema line", errors.ErrIntegrity, file)
	}

	columns := schema.Parse(scanner.Text())
	nCols := len(columns)

	var cells []string
	lineNo := 1
	for scanner.Scan() {
		lineNo++
		line := scanner.Text()

		// Blank lines (usually the last one) are not rows
		if line == "" {
			continue
		}

		fields := schema.ParseRow(line)
		if len(fields) != nCols {
			return nil, &errors.MalformedRowError{
				File:     file,
				Line:     lineNo,
				Expected: nCols,
				Got:      len(fields),
			}
		}
		cells = append(cells, fields...)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read %s at line %d: %w", file, lineNo+1, err)
	}

	return schema.FromCells(name, columns, cells)
}

// decodeSchema reads only the schema line
func decodeSchema(r io.Reader, file string) ([]string, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)

	if !scanner.Scan() {
		if err := scanner.Err(); err != nil {
			return nil, fmt.Errorf("failed to read schema of %s: %w", file, err)
		}
		return nil, fmt.Errorf("%w: %s has no schema line", errors.ErrIntegrity, file)
	}
	return schema.Parse(scanner.Text()), nil
}

// encodeTable writes the schema line followed by one line per row.
// The table is checked first, so nothing is written for a table that
// would not load back unchanged.
func encodeTable(w io.Writer, t *schema.Table) error {
	if err := checkEncodable(t); err != nil {
		return err
	}

	bw := bufio.NewWriter(w)

	if _, err := bw.WriteString(schema.Format(t.Schema()) + "\n"); err != nil {
		return err
	}
	for row := range t.Rows() {
		if _, err := bw.WriteString(schema.Format(row) + "\n"); err != nil {
			return err
		}
	}

	return bw.Flush()
}

// checkEncodable returns an *errors.InvalidCellError for the first schema
// name or cell that decodeTable would not return as written
func checkEncodable(t *schema.Table) error {
	for j, col := range t.Schema() {
		if issue := schema.CellIssue(col); issue != "" {
			return &errors.InvalidCellError{Table: t.Name(), Row: -1, Column: j, Reason: issue}
		}
	}

	i := 0
	for row := range t.Rows() {
		for j, cell := range row {
			if issue := schema.CellIssue(cell); issue != "" {
				return &errors.InvalidCellError{Table: t.Name(), Row: i, Column: j, Reason: issue}
			}
		}
		// a lone empty cell encodes to a blank line, which is skipped on load
		if len(row) == 1 && row[0] == "" {
			return &errors.InvalidCellError{Table: t.Name(), Row: i, Column: 0, Reason: "empty row would be read as a blank line"}
		}
		i++
	}
	return nil
}
