package join

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/leengari/zeptodb/internal/domain/schema"
	"github.com/leengari/zeptodb/internal/query/indexing"
)

// Execute joins leftTable with rightTable on column using the given strategy.
// Both strategies return the same rows in the same order.
//
// Left rows without a match in rightTable are dropped, so the result holds
// only matched pairs. Neither input is modified.
func Execute(leftTable, rightTable *schema.Table, column string, strategy Strategy) (*schema.Table, error) {
	switch strategy {
	case StrategyNaive:
		return LeftNaive(leftTable, rightTable, column)
	case StrategyHashed:
		return LeftHashed(leftTable, rightTable, column)
	default:
		return nil, fmt.Errorf("unknown join strategy: %v", strategy)
	}
}

// LeftNaive compares every row of leftTable with every row of rightTable
func LeftNaive(leftTable, rightTable *schema.Table, column string) (*schema.Table, error) {
	cols, err := validateJoinColumns(leftTable, rightTable, column)
	if err != nil {
		return nil, err
	}

	slog.Debug("Starting naive LEFT JOIN",
		slog.String("left_table", leftTable.Name()),
		slog.String("right_table", rightTable.Name()),
		slog.String("column", column),
	)
	start := time.Now()

	out := newOutputTable(leftTable, rightTable, cols.right)
	nRight := rightTable.NumRows()
	unmatched := 0

	for leftRow := range leftTable.Rows() {
		key := leftRow[cols.left]
		matched := false

		for rightPos := 0; rightPos < nRight; rightPos++ {
			if rightTable.Cell(rightPos, cols.right) != key {
				continue
			}
			matched = true
			if err := out.InsertRow(combineRows(leftRow, rightTable.Row(rightPos), cols.right)); err != nil {
				return nil, err
			}
		}

		if !matched {
			unmatched++
		}
	}

	slog.Info("naive LEFT JOIN completed",
		slog.String("output_table", out.Name()),
		slog.Int("result_rows", out.NumRows()),
		slog.Int("dropped_left", unmatched),
		slog.Duration("elapsed", time.Since(start)),
	)

	return out, nil
}

// LeftHashed indexes rightTable on column once, then looks up each row of
// leftTable in the index
func LeftHashed(leftTable, rightTable *schema.Table, column string) (*schema.Table, error) {
	cols, err := validateJoinColumns(leftTable, rightTable, column)
	if err != nil {
		return nil, err
	}

	slog.Debug("Starting hashed LEFT JOIN",
		slog.String("left_table", leftTable.Name()),
		slog.String("right_table", rightTable.Name()),
		slog.String("column", column),
	)
	start := time.Now()

	idx, err := indexing.Build(rightTable, column)
	if err != nil {
		return nil, err
	}

	out := newOutputTable(leftTable, rightTable, cols.right)
	unmatched := 0

	for leftRow := range leftTable.Rows() {
		positions := idx.Lookup(leftRow[cols.left])
		if len(positions) == 0 {
			unmatched++
			continue
		}

		for _, rightPos := range positions {
			if err := out.InsertRow(combineRows(leftRow, rightTable.Row(rightPos), cols.right)); err != nil {
				return nil, err
			}
		}
	}

	slog.Info("hashed LEFT JOIN completed",
		slog.String("output_table", out.Name()),
		slog.Int("result_rows", out.NumRows()),
		slog.Int("dropped_left", unmatched),
		slog.Int("distinct_keys", idx.Len()),
		slog.Duration("elapsed", time.Since(start)),
	)

	return out, nil
}
