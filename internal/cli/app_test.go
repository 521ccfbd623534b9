package cli

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"path/filepath"
	"strings"
	"testing"

	"github.com/go-git/go-billy/v6/memfs"
	"github.com/go-git/go-billy/v6/util"
	"gotest.tools/v3/assert"

	domainerrors "github.com/leengari/zeptodb/internal/domain/errors"
	"github.com/leengari/zeptodb/internal/storage"
	"github.com/leengari/zeptodb/internal/storage/history"
)

type testApp struct {
	*App
	out *bytes.Buffer
}

func newTestApp(t *testing.T, withHistory bool) *testApp {
	t.Helper()
	fs := memfs.New()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	var opts []storage.Option
	var recorder *history.Recorder
	if withHistory {
		var err error
		recorder, err = history.OpenMemory(fs, history.Identity{Name: "test", Email: "test@example.com"})
		assert.NilError(t, err)
		opts = append(opts, storage.WithRecorder(recorder))
	}

	out := &bytes.Buffer{}
	return &testApp{
		App: &App{
			Store:   storage.NewStore(fs, logger, opts...),
			History: recorder,
			Logger:  logger,
			Out:     out,
		},
		out: out,
	}
}

// run executes one command and returns its output
func (a *testApp) run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	a.out.Reset()
	err := a.Run(context.Background(), args)
	return a.out.String(), err
}

func (a *testApp) mustRun(t *testing.T, args ...string) string {
	t.Helper()
	out, err := a.run(t, args...)
	assert.NilError(t, err, "zeptodb %s", strings.Join(args, " "))
	return out
}

func seedLocations(t *testing.T, app *testApp) {
	t.Helper()
	app.mustRun(t, "create", "-t", "locations", "-s", "location,value")
	app.mustRun(t, "insert", "-t", "locations", "-p", "x,1")
	app.mustRun(t, "insert", "-t", "locations", "-p", "y,2")
	app.mustRun(t, "create", "-t", "numbers", "-s", "number,value")
	app.mustRun(t, "insert", "-t", "numbers", "-p", "10,2")
	app.mustRun(t, "insert", "-t", "numbers", "-p", "20,9")
}

func TestCreateAndDisplay(t *testing.T) {
	app := newTestApp(t, false)

	out := app.mustRun(t, "create", "-t", "people", "-s", "name, age")
	assert.Equal(t, out, "Created table people (name,age)\n")

	app.mustRun(t, "insert", "-t", "people", "-p", "alice,30")

	out = app.mustRun(t, "display", "-t", "people")
	assert.Equal(t, out, "Table name: people\n"+
		" name  | age \n"+
		"-------------\n"+
		" alice | 30  \n")
}

func TestCreate_Exists(t *testing.T) {
	app := newTestApp(t, false)
	app.mustRun(t, "create", "-t", "people", "-s", "id")

	_, err := app.run(t, "create", "-t", "people", "-s", "id")
	assert.Assert(t, errors.Is(err, domainerrors.ErrTableExists))
	assert.Equal(t, ExitCode(err), ExitError)
}

func TestInsert_SchemaMismatch(t *testing.T) {
	app := newTestApp(t, false)
	app.mustRun(t, "create", "-t", "people", "-s", "id,name")

	_, err := app.run(t, "insert", "-t", "people", "-p", "1,alice,extra")

	var mismatch *domainerrors.SchemaMismatchError
	assert.Assert(t, errors.As(err, &mismatch))
	assert.Equal(t, ExitCode(err), ExitError)

	// nothing was written
	out := app.mustRun(t, "select", "-t", "people")
	assert.Equal(t, strings.Count(out, "\n"), 3)
}

func TestInsert_UnstorableValue(t *testing.T) {
	app := newTestApp(t, false)
	app.mustRun(t, "create", "-t", "pairs", "-s", "a,b")
	app.mustRun(t, "insert", "-t", "pairs", "-p", "1,2")
	app.mustRun(t, "create", "-t", "single", "-s", "a")

	for _, tc := range []struct{ table, payload string }{
		{"pairs", "x\ny,z"},
		{"single", "one\ntwo"},
		{"single", ""},
	} {
		_, err := app.run(t, "insert", "-t", tc.table, "-p", tc.payload)

		var invalid *domainerrors.InvalidCellError
		assert.Assert(t, errors.As(err, &invalid), "insert %q into %s", tc.payload, tc.table)
		assert.Equal(t, ExitCode(err), ExitError)
	}

	// both tables still load with their previous rows
	table, err := app.Store.LoadTable("pairs")
	assert.NilError(t, err)
	assert.Equal(t, table.NumRows(), 1)

	table, err = app.Store.LoadTable("single")
	assert.NilError(t, err)
	assert.Equal(t, table.NumRows(), 0)
}

func TestInsert_MissingTable(t *testing.T) {
	app := newTestApp(t, false)

	_, err := app.run(t, "insert", "-t", "ghost", "-p", "1")
	assert.Assert(t, errors.Is(err, domainerrors.ErrTableNotFound))
	assert.Equal(t, ExitCode(err), ExitIntegrity)
}

func TestSelect_Where(t *testing.T) {
	app := newTestApp(t, false)
	seedLocations(t, app)

	out := app.mustRun(t, "select", "-t", "locations", "-w", "value = 2")
	assert.Assert(t, strings.Contains(out, " y "))
	assert.Assert(t, !strings.Contains(out, " x "))

	_, err := app.run(t, "select", "-t", "locations", "-w", "nope=1")
	var notFound *domainerrors.ColumnNotFoundError
	assert.Assert(t, errors.As(err, &notFound))

	_, err = app.run(t, "select", "-t", "locations", "-w", "value")
	assert.Assert(t, errors.Is(err, ErrUsage))
}

func TestSchema(t *testing.T) {
	app := newTestApp(t, false)
	app.mustRun(t, "create", "-t", "people", "-s", " id , name ")

	assert.Equal(t, app.mustRun(t, "schema", "-t", "people"), "id,name\n")
}

func TestJoin_Display(t *testing.T) {
	app := newTestApp(t, false)
	seedLocations(t, app)

	for _, strategy := range []string{"naive", "hashed"} {
		out := app.mustRun(t, "join", "-l", "locations", "-r", "numbers", "-c", "value", "-strategy", strategy)

		lines := strings.Split(strings.TrimSuffix(out, "\n"), "\n")
		assert.Equal(t, lines[0], "Table name: locations_numbers")
		assert.DeepEqual(t, strings.Fields(strings.ReplaceAll(lines[1], "|", " ")), []string{"location", "value", "number"})
		assert.Equal(t, len(lines), 4, strategy)
		assert.DeepEqual(t, strings.Fields(strings.ReplaceAll(lines[3], "|", " ")), []string{"y", "2", "10"})
	}
}

func TestJoin_SaveOutput(t *testing.T) {
	app := newTestApp(t, false)
	seedLocations(t, app)

	out := app.mustRun(t, "join", "-l", "locations", "-r", "numbers", "-c", "value", "-o", "joined")
	assert.Equal(t, out, "Saved 1 rows to joined\n")

	table, err := app.Store.LoadTable("joined")
	assert.NilError(t, err)
	assert.DeepEqual(t, table.Schema(), []string{"location", "value", "number"})
	assert.DeepEqual(t, table.Row(0), []string{"y", "2", "10"})

	_, err = app.run(t, "join", "-l", "locations", "-r", "numbers", "-c", "value", "-o", "joined")
	assert.Assert(t, errors.Is(err, domainerrors.ErrTableExists))
}

func TestJoin_Errors(t *testing.T) {
	app := newTestApp(t, false)
	seedLocations(t, app)

	_, err := app.run(t, "join", "-l", "locations", "-r", "numbers", "-c", "number")
	assert.Equal(t, ExitCode(err), ExitIntegrity)

	_, err = app.run(t, "join", "-l", "locations", "-r", "numbers", "-c", "value", "-strategy", "merge")
	assert.Assert(t, errors.Is(err, ErrUsage))

	_, err = app.run(t, "join", "-l", "locations")
	assert.Assert(t, errors.Is(err, ErrUsage))
}

func TestCorruptTable(t *testing.T) {
	app := newTestApp(t, false)
	err := util.WriteFile(app.Store.Filesystem(), "broken.csv", []byte("a,b\n1,2\n3\n"), 0644)
	assert.NilError(t, err)

	_, err = app.run(t, "display", "-t", "broken")

	var malformed *domainerrors.MalformedRowError
	assert.Assert(t, errors.As(err, &malformed))
	assert.Equal(t, malformed.Line, 3)
	assert.Equal(t, ExitCode(err), ExitIntegrity)
}

func TestList(t *testing.T) {
	app := newTestApp(t, false)
	assert.Equal(t, app.mustRun(t, "list"), "")

	seedLocations(t, app)
	assert.Equal(t, app.mustRun(t, "list"), "locations\nnumbers\n")
}

func TestExportImport(t *testing.T) {
	app := newTestApp(t, false)
	seedLocations(t, app)

	target := filepath.Join(t.TempDir(), "locations.csv")
	app.mustRun(t, "export", "-t", "locations", "-to", target)
	app.mustRun(t, "import", "-t", "copy", "-from", "file://"+target)

	table, err := app.Store.LoadTable("copy")
	assert.NilError(t, err)
	assert.Equal(t, table.NumRows(), 2)
}

func TestHistory(t *testing.T) {
	app := newTestApp(t, true)

	assert.Equal(t, app.mustRun(t, "history"), "No history recorded yet\n")

	app.mustRun(t, "create", "-t", "people", "-s", "id")
	app.mustRun(t, "insert", "-t", "people", "-p", "1")

	out := app.mustRun(t, "history")
	lines := strings.Split(strings.TrimSuffix(out, "\n"), "\n")
	assert.Equal(t, len(lines), 2)
	assert.Assert(t, strings.HasSuffix(lines[0], "save table people"), lines[0])
	assert.Assert(t, strings.HasSuffix(lines[1], "create table people"), lines[1])

	out = app.mustRun(t, "history", "-n", "1")
	assert.Equal(t, strings.Count(out, "\n"), 1)
}

func TestHistory_Disabled(t *testing.T) {
	app := newTestApp(t, false)

	_, err := app.run(t, "history")
	assert.Assert(t, errors.Is(err, ErrHistoryDisabled))
}

func TestUsageErrors(t *testing.T) {
	app := newTestApp(t, false)

	for _, args := range [][]string{
		nil,
		{"update", "-t", "people"},
		{"create", "-t", "people"},
		{"display"},
		{"export", "-t", "people"},
		{"display", "-h"},
	} {
		_, err := app.run(t, args...)
		assert.Assert(t, errors.Is(err, ErrUsage), "args %v: %v", args, err)
		assert.Equal(t, ExitCode(err), ExitError)
	}
}

func TestExitCode(t *testing.T) {
	assert.Equal(t, ExitCode(nil), ExitOK)
	assert.Equal(t, ExitCode(errors.New("boom")), ExitError)
	assert.Equal(t, ExitCode(domainerrors.NewTableNotFound("t", "t.csv")), ExitIntegrity)
}
