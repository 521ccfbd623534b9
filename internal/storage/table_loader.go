package storage

import (
	"errors"
	"fmt"
	"log/slog"
	"os"

	"go.uber.org/multierr"

	domainerrors "github.com/leengari/zeptodb/internal/domain/errors"
	"github.com/leengari/zeptodb/internal/domain/schema"
)

// LoadTable reads the whole file of table name into memory.
// A missing file yields ErrTableNotFound; a row whose cell count differs
// from the schema yields *errors.MalformedRowError and nothing is returned.
func (s *Store) LoadTable(name string) (table *schema.Table, err error) {
	if err := ValidateTableName(name); err != nil {
		return nil, err
	}
	path := s.Path(name)

	f, err := s.fs.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, domainerrors.NewTableNotFound(name, path)
		}
		return nil, fmt.Errorf("failed to open table %s: %w", name, err)
	}
	defer multierr.AppendInvoke(&err, multierr.Close(f))

	table, err = decodeTable(f, name, path)
	if err != nil {
		s.logger.Error("table load failed",
			slog.String("table", name),
			slog.String("path", path),
			slog.Any("error", err),
		)
		return nil, err
	}

	s.logger.Info("table loaded",
		slog.String("table", table.Name()),
		slog.Int("columns", table.NumCols()),
		slog.Int("rows", table.NumRows()),
	)

	return table, nil
}

// ReadSchema reads only the schema line of table name
func (s *Store) ReadSchema(name string) (columns []string, err error) {
	if err := ValidateTableName(name); err != nil {
		return nil, err
	}
	path := s.Path(name)

	f, err := s.fs.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, domainerrors.NewTableNotFound(name, path)
		}
		return nil, fmt.Errorf("failed to open table %s: %w", name, err)
	}
	defer multierr.AppendInvoke(&err, multierr.Close(f))

	return decodeSchema(f, path)
}
