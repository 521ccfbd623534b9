package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"

	"github.com/go-git/go-billy/v6/osfs"

	"github.com/leengari/zeptodb/internal/cli"
	"github.com/leengari/zeptodb/internal/config"
	"github.com/leengari/zeptodb/internal/logging"
	"github.com/leengari/zeptodb/internal/storage"
	"github.com/leengari/zeptodb/internal/storage/history"
)

func main() {
	os.Exit(run())
}

func run() int {
	cfg, err := config.Load(os.Args[1:], os.Getenv, os.Stderr)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return cli.ExitError
	}

	logger, closeFn := logging.SetupLogger(logging.Options{
		Level:  cfg.LogLevel,
		SeqURL: cfg.SeqURL,
	})
	defer closeFn()

	slog.SetDefault(logger)

	// Ensure data directory exists
	if err := cfg.EnsureDataDir(); err != nil {
		slog.Error("failed to prepare data directory", "error", err)
		return cli.ExitError
	}

	dataFS := osfs.New(cfg.DataDir)
	opts := []storage.Option{storage.WithS3Config(cfg.S3)}

	var recorder *history.Recorder
	if cfg.History {
		recorder, err = history.Open(dataFS, history.Identity{Name: cfg.Author, Email: cfg.Email})
		if err != nil {
			slog.Error("failed to open history", "error", err)
			return cli.ExitError
		}
		opts = append(opts, storage.WithRecorder(recorder))
	}

	app := &cli.App{
		Store:   storage.NewStore(dataFS, logger, opts...),
		History: recorder,
		Logger:  logger,
		Out:     os.Stdout,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := app.Run(ctx, cfg.Args); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		return cli.ExitCode(err)
	}
	return cli.ExitOK
}
