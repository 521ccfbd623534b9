package storage

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sort"
	"strings"

	"github.com/go-git/go-billy/v6"
	"github.com/go-git/go-billy/v6/osfs"
	"github.com/go-git/go-billy/v6/util"

	domainerrors "github.com/leengari/zeptodb/internal/domain/errors"
	"github.com/leengari/zeptodb/internal/storage/remote"
)

// FileExtension is appended to a table name to form its file name
const FileExtension = ".csv"

// Recorder is notified after the store writes a table file
type Recorder interface {
	Record(path, message string) error
}

// Store keeps one CSV file per table inside a data directory
type Store struct {
	fs       billy.Filesystem
	logger   *slog.Logger
	recorder Recorder
	s3       *remote.S3Config
}

// Option configures a Store
type Option func(*Store)

// WithRecorder reports every written table file to r
func WithRecorder(r Recorder) Option {
	return func(s *Store) {
		s.recorder = r
	}
}

// WithS3Config sets the credentials used by Export and Import for s3:// URLs
func WithS3Config(cfg remote.S3Config) Option {
	return func(s *Store) {
		s.s3 = &cfg
	}
}

// NewStore creates a store rooted at fs. The data directory itself is
// assumed to exist; the store never validates it.
func NewStore(fs billy.Filesystem, logger *slog.Logger, opts ...Option) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Store{
		fs:     fs,
		logger: logger,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// OpenDir creates a store over an OS directory
func OpenDir(dataDir string, logger *slog.Logger, opts ...Option) *Store {
	return NewStore(osfs.New(dataDir), logger, opts...)
}

// WithLogger returns a shallow copy of the store that logs to logger
func (s *Store) WithLogger(logger *slog.Logger) *Store {
	clone := *s
	clone.logger = logger
	return &clone
}

// Filesystem exposes the data directory
func (s *Store) Filesystem() billy.Filesystem {
	return s.fs
}

// Path derives the file path of a table, relative to the data directory
func (s *Store) Path(name string) string {
	return name + FileExtension
}

// Exists reports whether the file of table name is present
func (s *Store) Exists(name string) (bool, error) {
	if err := ValidateTableName(name); err != nil {
		return false, err
	}
	return s.exists(s.Path(name))
}

func (s *Store) exists(path string) (bool, error) {
	_, err := s.fs.Stat(path)
	if err == nil {
		return true, nil
	}
	if errors.Is(err, os.ErrNotExist) {
		return false, nil
	}
	return false, err
}

// ListTables returns the names of all tables in the data directory, sorted
func (s *Store) ListTables() ([]string, error) {
	matches, err := util.Glob(s.fs, "*"+FileExtension)
	if err != nil {
		return nil, fmt.Errorf("failed to read data directory: %w", err)
	}

	names := make([]string, 0, len(matches))
	for _, m := range matches {
		name := strings.TrimSuffix(m, FileExtension)
		if ValidateTableName(name) != nil {
			continue
		}
		names = append(names, name)
	}
	sort.Strings(names)

	s.logger.Debug("tables listed", slog.Int("table_count", len(names)))

	return names, nil
}

// ValidateTableName rejects names that cannot map to a single file
// directly inside the data directory
func ValidateTableName(name string) error {
	switch {
	case name == "":
		return fmt.Errorf("%w: name is empty", domainerrors.ErrInvalidTableName)
	case strings.ContainsAny(name, `/\`):
		return fmt.Errorf("%w: %q contains a path separator", domainerrors.ErrInvalidTableName, name)
	case strings.HasPrefix(name, "."):
		return fmt.Errorf("%w: %q starts with a dot", domainerrors.ErrInvalidTableName, name)
	case strings.Contains(name, ".."):
		return fmt.Errorf("%w: %q contains \"..\"", domainerrors.ErrInvalidTableName, name)
	}
	return nil
}

// record forwards a write to the recorder, if any. Failures are logged
// and never undo the write.
func (s *Store) record(path, message string) {
	if s.recorder == nil {
		return
	}
	if err := s.recorder.Record(path, message); err != nil {
		s.logger.Error("failed to record history",
			slog.String("path", path),
			slog.Any("error", err),
		)
	}
}
