package cli

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"strings"

	"github.com/leengari/zeptodb/internal/display"
	domainerrors "github.com/leengari/zeptodb/internal/domain/errors"
	"github.com/leengari/zeptodb/internal/domain/schema"
	"github.com/leengari/zeptodb/internal/query/join"
	"github.com/leengari/zeptodb/internal/storage/history"
)

func runCreate(_ context.Context, app *App, logger *slog.Logger, fs *flag.FlagSet, args []string) error {
	name := fs.String("t", "", "table name")
	rawSchema := fs.String("s", "", "comma separated column names")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *name == "" || *rawSchema == "" {
		return usageError(fs, "-t and -s are required")
	}

	store := app.Store.WithLogger(logger)
	if err := store.CreateTable(*name, *rawSchema); err != nil {
		return err
	}

	fmt.Fprintf(app.Out, "Created table %s (%s)\n", *name, schema.Format(schema.Parse(*rawSchema)))
	return nil
}

func runInsert(_ context.Context, app *App, logger *slog.Logger, fs *flag.FlagSet, args []string) error {
	name := fs.String("t", "", "table name")
	payload := fs.String("p", "", "comma separated row values")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *name == "" {
		return usageError(fs, "-t is required")
	}

	store := app.Store.WithLogger(logger)
	table, err := store.LoadTable(*name)
	if err != nil {
		return err
	}
	if err := table.InsertRow(schema.ParseRow(*payload)); err != nil {
		return err
	}
	if err := store.SaveTable(table); err != nil {
		return err
	}

	fmt.Fprintf(app.Out, "Inserted 1 row into %s (%d rows)\n", *name, table.NumRows())
	return nil
}

func runSelect(_ context.Context, app *App, logger *slog.Logger, fs *flag.FlagSet, args []string) error {
	name := fs.String("t", "", "table name")
	where := fs.String("w", "", "COLUMN=VALUE filter")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *name == "" {
		return usageError(fs, "-t is required")
	}

	table, err := app.Store.WithLogger(logger).LoadTable(*name)
	if err != nil {
		return err
	}

	if *where != "" {
		column, value, ok := strings.Cut(*where, "=")
		if !ok {
			return usageError(fs, "-w must be COLUMN=VALUE, got %q", *where)
		}
		table, err = filterRows(table, strings.TrimSpace(column), strings.TrimSpace(value))
		if err != nil {
			return err
		}
	}

	logger.Debug("rows selected", slog.String("table", *name), slog.Int("rows", table.NumRows()))
	return display.Render(app.Out, table)
}

// filterRows keeps the rows whose column equals value, in storage order
func filterRows(table *schema.Table, column, value string) (*schema.Table, error) {
	col := schema.IndexOf(table.Schema(), column)
	if col < 0 {
		return nil, &domainerrors.ColumnNotFoundError{TableName: table.Name(), ColumnName: column}
	}

	out := schema.NewEmpty(table.Name(), table.Schema())
	for row := range table.Rows() {
		if row[col] != value {
			continue
		}
		if err := out.InsertRow(row); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func runDisplay(_ context.Context, app *App, logger *slog.Logger, fs *flag.FlagSet, args []string) error {
	name := fs.String("t", "", "table name")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *name == "" {
		return usageError(fs, "-t is required")
	}

	table, err := app.Store.WithLogger(logger).LoadTable(*name)
	if err != nil {
		return err
	}
	return display.Render(app.Out, table)
}

func runSchema(_ context.Context, app *App, logger *slog.Logger, fs *flag.FlagSet, args []string) error {
	name := fs.String("t", "", "table name")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *name == "" {
		return usageError(fs, "-t is required")
	}

	columns, err := app.Store.WithLogger(logger).ReadSchema(*name)
	if err != nil {
		return err
	}
	fmt.Fprintln(app.Out, schema.Format(columns))
	return nil
}

func runJoin(_ context.Context, app *App, logger *slog.Logger, fs *flag.FlagSet, args []string) error {
	left := fs.String("l", "", "left table")
	right := fs.String("r", "", "right table")
	column := fs.String("c", "", "join column")
	strategyName := fs.String("strategy", join.StrategyHashed.String(), "naive or hashed")
	output := fs.String("o", "", "save the result as this table instead of displaying it")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *left == "" || *right == "" || *column == "" {
		return usageError(fs, "-l, -r and -c are required")
	}
	strategy, err := join.ParseStrategy(*strategyName)
	if err != nil {
		return usageError(fs, "%v", err)
	}

	store := app.Store.WithLogger(logger)
	leftTable, err := store.LoadTable(*left)
	if err != nil {
		return err
	}
	rightTable, err := store.LoadTable(*right)
	if err != nil {
		return err
	}

	result, err := join.Execute(leftTable, rightTable, *column, strategy)
	if err != nil {
		return err
	}

	if *output == "" {
		return display.Render(app.Out, result)
	}

	exists, err := store.Exists(*output)
	if err != nil {
		return err
	}
	if exists {
		return fmt.Errorf("%w: %s", domainerrors.ErrTableExists, *output)
	}
	if err := store.SaveTable(result.Clone(*output)); err != nil {
		return err
	}

	fmt.Fprintf(app.Out, "Saved %d rows to %s\n", result.NumRows(), *output)
	return nil
}

func runList(_ context.Context, app *App, logger *slog.Logger, fs *flag.FlagSet, args []string) error {
	if err := fs.Parse(args); err != nil {
		return err
	}

	names, err := app.Store.WithLogger(logger).ListTables()
	if err != nil {
		return err
	}
	for _, name := range names {
		fmt.Fprintln(app.Out, name)
	}
	return nil
}

func runExport(ctx context.Context, app *App, logger *slog.Logger, fs *flag.FlagSet, args []string) error {
	name := fs.String("t", "", "table name")
	to := fs.String("to", "", "destination: s3://bucket/key, file:// URL or path")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *name == "" || *to == "" {
		return usageError(fs, "-t and -to are required")
	}

	if err := app.Store.WithLogger(logger).Export(ctx, *name, *to); err != nil {
		return err
	}
	fmt.Fprintf(app.Out, "Exported %s to %s\n", *name, *to)
	return nil
}

func runImport(ctx context.Context, app *App, logger *slog.Logger, fs *flag.FlagSet, args []string) error {
	name := fs.String("t", "", "table name")
	from := fs.String("from", "", "source: s3://bucket/key, http(s):// URL, file:// URL or path")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *name == "" || *from == "" {
		return usageError(fs, "-t and -from are required")
	}

	if err := app.Store.WithLogger(logger).Import(ctx, *name, *from); err != nil {
		return err
	}
	fmt.Fprintf(app.Out, "Imported %s from %s\n", *name, *from)
	return nil
}

func runHistory(_ context.Context, app *App, _ *slog.Logger, fs *flag.FlagSet, args []string) error {
	limit := fs.Int("n", 20, "number of revisions to show (0 for all)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if app.History == nil {
		return ErrHistoryDisabled
	}

	revisions, err := app.History.Log(*limit)
	if errors.Is(err, history.ErrNoHistory) {
		fmt.Fprintln(app.Out, "No history recorded yet")
		return nil
	}
	if err != nil {
		return err
	}
	for _, rev := range revisions {
		fmt.Fprintln(app.Out, strings.TrimSpace(rev.String()))
	}
	return nil
}
