// Package config reads the global command-line flags and their
// ZEPTODB_* environment fallbacks.
package config

import (
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"

	"github.com/leengari/zeptodb/internal/logging"
	"github.com/leengari/zeptodb/internal/storage/remote"
)

// EnvPrefix is prepended to every environment variable name
const EnvPrefix = "ZEPTODB_"

// Config holds the global settings shared by every command
type Config struct {
	DataDir  string
	SeqURL   string
	LogLevel slog.Level

	// History commits every written table file to a git repository
	// inside the data directory
	History bool
	Author  string
	Email   string

	S3 remote.S3Config

	// Args is what remains after the global flags: the command and its flags
	Args []string
}

// Load parses args (without the program name). Flags win over environment
// variables, which win over defaults.
func Load(args []string, getenv func(string) string, output io.Writer) (*Config, error) {
	env := func(key, def string) string {
		if v := getenv(EnvPrefix + key); v != "" {
			return v
		}
		return def
	}

	historyDefault, err := strconv.ParseBool(env("HISTORY", "false"))
	if err != nil {
		return nil, fmt.Errorf("invalid %sHISTORY: %w", EnvPrefix, err)
	}

	fs := flag.NewFlagSet("zeptodb", flag.ContinueOnError)
	fs.SetOutput(output)

	cfg := &Config{}
	fs.StringVar(&cfg.DataDir, "data", env("DATA", "data"), "Directory holding the table files")
	fs.StringVar(&cfg.SeqURL, "seq", env("SEQ_URL", ""), "Seq server URL for log shipping (disabled if empty)")
	logLevel := fs.String("log-level", env("LOG_LEVEL", "warn"), "Log level: debug, info, warn or error")
	fs.BoolVar(&cfg.History, "history", historyDefault, "Record every table write in a git repository")
	fs.StringVar(&cfg.Author, "author", env("AUTHOR", "zeptodb"), "Author name for history commits")
	fs.StringVar(&cfg.Email, "email", env("EMAIL", "zeptodb@localhost"), "Author email for history commits")
	fs.StringVar(&cfg.S3.Region, "s3-region", env("S3_REGION", ""), "S3 region for export/import")
	fs.StringVar(&cfg.S3.Endpoint, "s3-endpoint", env("S3_ENDPOINT", ""), "Custom S3-compatible endpoint")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	cfg.LogLevel, err = logging.ParseLevel(*logLevel)
	if err != nil {
		return nil, err
	}

	// Secrets are never taken from the command line
	cfg.S3.AccessKey = getenv(EnvPrefix + "S3_ACCESS_KEY")
	cfg.S3.SecretKey = getenv(EnvPrefix + "S3_SECRET_KEY")

	if cfg.DataDir == "" {
		return nil, fmt.Errorf("data directory must not be empty")
	}
	cfg.Args = fs.Args()

	return cfg, nil
}

// EnsureDataDir creates the data directory if it is missing
func (c *Config) EnsureDataDir() error {
	if err := os.MkdirAll(c.DataDir, 0755); err != nil {
		return fmt.Errorf("failed to create data directory %s: %w", c.DataDir, err)
	}
	return nil
}
