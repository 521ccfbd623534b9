package schema

import (
	"strconv"
	"strings"
)

// Delimiter separates column names in the schema line and cells in data lines.
// There is no quoting, so a literal comma inside a value cannot be stored.
const Delimiter = ","

// Parse splits a schema line into its ordered column names.
// Tokens are trimmed of surrounding whitespace; empty and duplicate
// names are kept as-is, callers must not assume uniqueness.
func Parse(headerLine string) []string {
	return ParseRow(headerLine)
}

// ParseRow tokenises a data line (or a row payload) the same way as Parse
func ParseRow(line string) []string {
	fields := strings.Split(line, Delimiter)
	for i, f := range fields {
		fields[i] = strings.TrimSpace(f)
	}
	return fields
}

// Format joins column names (or cells) back into a single line
func Format(columns []string) string {
	return strings.Join(columns, Delimiter)
}

// IndexOf returns the position of the first column named exactly name, or -1
func IndexOf(columns []string, name string) int {
	for i, c := range columns {
		if c == name {
			return i
		}
	}
	return -1
}

// CellIssue returns why value would not read back unchanged from a table
// file, or "" if it would
func CellIssue(value string) string {
	switch {
	case strings.ContainsAny(value, "\r\n"):
		return "contains a line break"
	case strings.Contains(value, Delimiter):
		return "contains the delimiter " + strconv.Quote(Delimiter)
	case strings.TrimSpace(value) != value:
		return "has leading or trailing whitespace"
	}
	return ""
}
