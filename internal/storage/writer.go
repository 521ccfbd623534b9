package storage

import (
	"bytes"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/go-git/go-billy/v6/util"
	"go.uber.org/multierr"

	domainerrors "github.com/leengari/zeptodb/internal/domain/errors"
	"github.com/leengari/zeptodb/internal/domain/schema"
)

// CreateTable materializes an empty table on disk: the raw schema string
// followed by a single newline. It fails with ErrTableExists if the file
// is already there and never builds an in-memory table.
func (s *Store) CreateTable(name, rawSchema string) error {
	if err := ValidateTableName(name); err != nil {
		return err
	}
	if strings.ContainsAny(rawSchema, "\r\n") {
		return &domainerrors.InvalidCellError{Table: name, Row: -1, Column: -1, Reason: "contains a line break"}
	}
	path := s.Path(name)

	exists, err := s.exists(path)
	if err != nil {
		return fmt.Errorf("failed to check table %s: %w", name, err)
	}
	if exists {
		return fmt.Errorf("%w: %s", domainerrors.ErrTableExists, name)
	}

	f, err := s.fs.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0644)
	if err != nil {
		if errors.Is(err, os.ErrExist) {
			return fmt.Errorf("%w: %s", domainerrors.ErrTableExists, name)
		}
		return fmt.Errorf("failed to create table %s: %w", name, err)
	}

	if _, err := f.Write([]byte(rawSchema + "\n")); err != nil {
		return multierr.Append(
			fmt.Errorf("failed to write schema of %s: %w", name, err),
			f.Close(),
		)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("failed to close table %s: %w", name, err)
	}

	s.logger.Info("table created",
		slog.String("table", name),
		slog.String("path", path),
		slog.String("schema", rawSchema),
	)

	s.record(path, fmt.Sprintf("create table %s", name))

	return nil
}

// SaveTable persists the full contents of t to its file, replacing what
// is there, using a temp file and an atomic rename. A table holding a value
// that would not load back unchanged is refused with *errors.InvalidCellError
// and the file is left as it was.
func (s *Store) SaveTable(t *schema.Table) error {
	if t == nil {
		return fmt.Errorf("cannot save table: nil")
	}
	if err := ValidateTableName(t.Name()); err != nil {
		return err
	}

	var buf bytes.Buffer
	if err := encodeTable(&buf, t); err != nil {
		return fmt.Errorf("failed to encode table %s: %w", t.Name(), err)
	}

	path := s.Path(t.Name())
	if err := s.writeAtomic(path, buf.Bytes()); err != nil {
		return fmt.Errorf("failed to save table %s: %w", t.Name(), err)
	}

	s.logger.Info("table saved",
		slog.String("table", t.Name()),
		slog.String("path", path),
		slog.Int("row_count", t.NumRows()),
	)

	s.record(path, fmt.Sprintf("save table %s", t.Name()))

	return nil
}

// writeAtomic writes data next to path and renames it into place
func (s *Store) writeAtomic(path string, data []byte) error {
	tmpPath := "." + path + ".tmp"

	if err := util.WriteFile(s.fs, tmpPath, data, 0644); err != nil {
		return fmt.Errorf("failed to write temp file %s: %w", tmpPath, err)
	}

	if err := s.fs.Rename(tmpPath, path); err != nil {
		return multierr.Append(
			fmt.Errorf("failed to rename temp → %s: %w", path, err),
			s.fs.Remove(tmpPath),
		)
	}

	return nil
}
