// Package cli runs zeptodb commands against a table store.
package cli

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"

	domainerrors "github.com/leengari/zeptodb/internal/domain/errors"
	"github.com/leengari/zeptodb/internal/domain/operation"
	"github.com/leengari/zeptodb/internal/storage"
	"github.com/leengari/zeptodb/internal/storage/history"
)

// Exit codes
const (
	ExitOK        = 0
	ExitError     = 1 // usage errors and recoverable failures
	ExitIntegrity = 2 // missing tables and corrupt data
)

// ErrUsage marks a malformed command line
var ErrUsage = errors.New("usage error")

// ErrHistoryDisabled is returned by the history command when no recorder is set
var ErrHistoryDisabled = errors.New("history is disabled (run with -history)")

// App dispatches commands. History may be nil.
type App struct {
	Store   *storage.Store
	History *history.Recorder
	Logger  *slog.Logger
	Out     io.Writer
}

type command struct {
	kind  operation.Kind
	usage string
	run   func(ctx context.Context, app *App, logger *slog.Logger, fs *flag.FlagSet, args []string) error
}

var commands = map[string]command{
	"create":  {operation.KindCreate, "create -t NAME -s SCHEMA", runCreate},
	"insert":  {operation.KindInsert, "insert -t NAME -p PAYLOAD", runInsert},
	"select":  {operation.KindSelect, "select -t NAME [-w COLUMN=VALUE]", runSelect},
	"display": {operation.KindDisplay, "display -t NAME", runDisplay},
	"schema":  {operation.KindSchema, "schema -t NAME", runSchema},
	"join":    {operation.KindJoin, "join -l LEFT -r RIGHT -c COLUMN [-strategy naive|hashed] [-o OUT]", runJoin},
	"list":    {operation.KindList, "list", runList},
	"export":  {operation.KindExport, "export -t NAME -to URL", runExport},
	"import":  {operation.KindImport, "import -t NAME -from URL", runImport},
	"history": {operation.KindHistory, "history [-n N]", runHistory},
}

// Run executes the command named by args[0]
func (a *App) Run(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("%w: missing command\n%s", ErrUsage, Usage())
	}

	cmd, ok := commands[args[0]]
	if !ok {
		return fmt.Errorf("%w: unknown command %q\n%s", ErrUsage, args[0], Usage())
	}

	op := operation.Begin(cmd.kind)
	defer op.End()
	logger := op.Logger(a.logger())

	fs := flag.NewFlagSet(args[0], flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	logger.Debug("command started", slog.Any("args", args[1:]))

	if err := cmd.run(ctx, a, logger, fs, args[1:]); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return fmt.Errorf("%w: %s", ErrUsage, cmd.usage)
		}
		logger.Error("command failed",
			slog.Any("error", err),
			slog.Bool("fatal", domainerrors.IsFatal(err)),
			slog.Duration("elapsed", op.Elapsed()),
		)
		return err
	}

	logger.Info("command completed", slog.Duration("elapsed", op.Elapsed()))
	return nil
}

func (a *App) logger() *slog.Logger {
	if a.Logger == nil {
		return slog.Default()
	}
	return a.Logger
}

// ExitCode maps an error returned by Run to a process exit code
func ExitCode(err error) int {
	switch {
	case err == nil:
		return ExitOK
	case domainerrors.IsFatal(err):
		return ExitIntegrity
	default:
		return ExitError
	}
}

// Usage lists every command
func Usage() string {
	usage := "usage: zeptodb [global flags] COMMAND [flags]\ncommands:"
	for _, name := range commandNames() {
		usage += "\n  " + commands[name].usage
	}
	return usage
}

func commandNames() []string {
	return []string{"create", "insert", "select", "display", "schema", "join", "list", "export", "import", "history"}
}

// usageError reports a missing or invalid flag value
func usageError(fs *flag.FlagSet, format string, args ...any) error {
	return fmt.Errorf("%w: %s: %s", ErrUsage, fs.Name(), fmt.Sprintf(format, args...))
}
