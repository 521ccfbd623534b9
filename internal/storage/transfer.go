package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"go.uber.org/multierr"

	domainerrors "github.com/leengari/zeptodb/internal/domain/errors"
	"github.com/leengari/zeptodb/internal/storage/remote"
)

// Export copies the file of table name, unchanged, to url
// (s3://bucket/key, file:// or a local path)
func (s *Store) Export(ctx context.Context, name, url string) (err error) {
	if err := ValidateTableName(name); err != nil {
		return err
	}
	path := s.Path(name)

	src, err := s.fs.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return domainerrors.NewTableNotFound(name, path)
		}
		return fmt.Errorf("failed to open table %s: %w", name, err)
	}
	defer multierr.AppendInvoke(&err, multierr.Close(src))

	info, err := s.fs.Stat(path)
	if err != nil {
		return fmt.Errorf("failed to stat table %s: %w", name, err)
	}

	if err := remote.Put(ctx, url, src, info.Size(), s.s3); err != nil {
		return fmt.Errorf("failed to export table %s: %w", name, err)
	}

	s.logger.Info("table exported",
		slog.String("table", name),
		slog.String("destination", url),
		slog.Int64("bytes", info.Size()),
	)

	return nil
}

// Import reads a table file from url and stores it as table name.
// The payload is fully decoded first, so a malformed source never lands
// in the data directory. An existing table is never overwritten.
func (s *Store) Import(ctx context.Context, name, url string) error {
	exists, err := s.Exists(name)
	if err != nil {
		return err
	}
	if exists {
		return fmt.Errorf("%w: %s", domainerrors.ErrTableExists, name)
	}

	data, err := s.fetch(ctx, url)
	if err != nil {
		return err
	}

	table, err := decodeTable(bytes.NewReader(data), name, url)
	if err != nil {
		return err
	}

	var buf bytes.Buffer
	if err := encodeTable(&buf, table); err != nil {
		return fmt.Errorf("failed to encode table %s: %w", name, err)
	}

	path := s.Path(name)
	if err := s.writeAtomic(path, buf.Bytes()); err != nil {
		return fmt.Errorf("failed to import table %s: %w", name, err)
	}

	s.logger.Info("table imported",
		slog.String("table", name),
		slog.String("source", url),
		slog.Int("rows", table.NumRows()),
	)

	s.record(path, fmt.Sprintf("import table %s from %s", name, url))

	return nil
}

func (s *Store) fetch(ctx context.Context, url string) (data []byte, err error) {
	src, err := remote.Open(ctx, url, s.s3)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", url, err)
	}
	defer multierr.AppendInvoke(&err, multierr.Close(src))

	data, err = io.ReadAll(src)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", url, err)
	}
	return data, nil
}
