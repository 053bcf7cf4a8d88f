package main

import (
	"bytes"
	"context"
	"encoding/json"
	"net"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fbourgeois24/db-unified/internal/config"
	"github.com/fbourgeois24/db-unified/pkg/dbunified"
)

func runCLI(t *testing.T, stdin string, args ...string) (int, string, string) {
	t.Helper()
	t.Setenv("DBU_CONFIG", "")
	var stdout, stderr bytes.Buffer
	code := run(context.Background(), args, strings.NewReader(stdin), &stdout, &stderr)
	return code, stdout.String(), stderr.String()
}

func sqliteArgs(t *testing.T) []string {
	t.Helper()
	return []string{"--type", "sqlite", "--name", filepath.Join(t.TempDir(), "cli.db")}
}

func TestRun_Usage(t *testing.T) {
	code, _, stderr := runCLI(t, "")
	assert.Equal(t, ExitUsage, code)
	assert.Contains(t, stderr, "Usage: dbu")

	code, _, stderr = runCLI(t, "", "explode")
	assert.Equal(t, ExitUsage, code)
	assert.Contains(t, stderr, `unknown command "explode"`)

	code, _, _ = runCLI(t, "", "help")
	assert.Equal(t, ExitOK, code)

	code, _, _ = runCLI(t, "", "run", "--help")
	assert.Equal(t, ExitOK, code)
}

func TestRunStatement_SQLite(t *testing.T) {
	db := sqliteArgs(t)
	runArgs := func(extra ...string) []string {
		return append(append([]string{"run"}, db...), extra...)
	}

	code, stdout, stderr := runCLI(t, "", runArgs("CREATE TABLE users (name TEXT, age INTEGER)")...)
	require.Equal(t, ExitOK, code, stderr)
	assert.Equal(t, "OK\n", stdout)

	code, _, stderr = runCLI(t, "", runArgs("-p", "Ann", "-p", "30", "INSERT INTO users (name, age) VALUES (%s, %s)")...)
	require.Equal(t, ExitOK, code, stderr)

	code, _, stderr = runCLI(t, "", runArgs("--batch", `Bo;\N`, "--batch", "Cy;52", "INSERT INTO users (name, age) VALUES (%s, %s)")...)
	require.Equal(t, ExitOK, code, stderr)

	code, stdout, stderr = runCLI(t, "", runArgs("SELECT name, age FROM users ORDER BY name")...)
	require.Equal(t, ExitOK, code, stderr)
	assert.Contains(t, stdout, "| name | age |")
	assert.Contains(t, stdout, "| Ann  | 30  |")
	assert.Contains(t, stdout, "| Bo   |     |")
	assert.Contains(t, stdout, "(3 rows)")

	code, stdout, stderr = runCLI(t, "", runArgs("--fetch", "single", "SELECT count(*) FROM users")...)
	require.Equal(t, ExitOK, code, stderr)
	assert.Contains(t, stdout, "| count(*) |")
	assert.Contains(t, stdout, "| 3        |")
}

func TestRunStatement_JSON(t *testing.T) {
	db := sqliteArgs(t)
	code, _, stderr := runCLI(t, "", append(append([]string{"run"}, db...), "CREATE TABLE t (a TEXT, b INTEGER)")...)
	require.Equal(t, ExitOK, code, stderr)
	code, _, stderr = runCLI(t, "", append(append([]string{"run"}, db...), "INSERT INTO t VALUES ('x', 1)")...)
	require.Equal(t, ExitOK, code, stderr)

	code, stdout, stderr := runCLI(t, "", append(append([]string{"--json", "run"}, db...), "SELECT a, b FROM t")...)
	require.Equal(t, ExitOK, code, stderr)

	var got []any
	require.NoError(t, json.Unmarshal([]byte(stdout), &got))
	assert.Equal(t, []any{
		[]any{"a", "b"},
		[]any{[]any{"x", float64(1)}},
	}, got)

	code, stdout, stderr = runCLI(t, "", append(append([]string{"run", "--json", "--shape", "dict", "--fetch", "one"}, db...), "SELECT a, b FROM t")...)
	require.Equal(t, ExitOK, code, stderr)
	assert.JSONEq(t, `{"a":"x","b":1}`, stdout)
}

func TestRunStatement_Stdin(t *testing.T) {
	db := sqliteArgs(t)
	code, stdout, stderr := runCLI(t, "SELECT 7 AS n\n", append(append([]string{"run", "--fetch", "list"}, db...), "-")...)
	require.Equal(t, ExitOK, code, stderr)
	assert.Contains(t, stdout, "| 7 |")
}

func TestRunStatement_Errors(t *testing.T) {
	db := sqliteArgs(t)

	code, _, stderr := runCLI(t, "", append([]string{"run"}, db...)...)
	assert.Equal(t, ExitUsage, code)
	assert.Contains(t, stderr, "statement argument required")

	code, _, _ = runCLI(t, "", append(append([]string{"run", "--shape", "xml"}, db...), "SELECT 1")...)
	assert.Equal(t, ExitUsage, code)

	code, _, _ = runCLI(t, "", append(append([]string{"run"}, db...), "SELECT * FROM missing_table")...)
	assert.Equal(t, ExitStatement, code)

	code, _, stderr = runCLI(t, "", "run", "--type", "sqlite", "SELECT 1")
	assert.Equal(t, ExitConfig, code)
	assert.Contains(t, stderr, "database name not specified")

	code, _, _ = runCLI(t, "", "run", "--type", "db2", "--name", "x", "SELECT 1")
	assert.Equal(t, ExitConfig, code)
}

func TestRunStatement_ConfigFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "dbu.yaml")
	cfg := config.Default()
	cfg.Database = map[string]any{"type": "sqlite", "name": filepath.Join(dir, "from-config.db")}
	require.NoError(t, config.Save(context.Background(), cfg, path))

	code, stdout, stderr := runCLI(t, "", "-c", path, "run", "--fetch", "single", "SELECT 40 + 2")
	require.Equal(t, ExitOK, code, stderr)
	assert.Contains(t, stdout, "| 42     |")

	code, _, _ = runCLI(t, "", "-c", filepath.Join(dir, "missing.yaml"), "run", "SELECT 1")
	assert.Equal(t, ExitConfig, code)
}

func TestPing(t *testing.T) {
	code, stdout, stderr := runCLI(t, "", append([]string{"ping"}, sqliteArgs(t)...)...)
	require.Equal(t, ExitOK, code, stderr)
	assert.True(t, strings.HasPrefix(stdout, "ok: sqlite "), stdout)

	code, stdout, stderr = runCLI(t, "", append([]string{"--json", "ping"}, sqliteArgs(t)...)...)
	require.Equal(t, ExitOK, code, stderr)
	var got map[string]any
	require.NoError(t, json.Unmarshal([]byte(stdout), &got))
	assert.Equal(t, "ok", got["status"])
	assert.Equal(t, "sqlite", got["type"])
	assert.NotEmpty(t, got["session_id"])
}

func TestPing_Unreachable(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	_, port, err := net.SplitHostPort(ln.Addr().String())
	require.NoError(t, err)
	require.NoError(t, ln.Close())

	t.Setenv("DBU_PROBE_ENABLED", "true")
	t.Setenv("DBU_PROBE_TIMEOUT", "500ms")

	code, _, stderr := runCLI(t, "", "ping",
		"--type", "postgresql", "--name", "shop", "--addr", "127.0.0.1", "--port", port, "--user", "app")
	assert.Equal(t, ExitConnection, code)
	assert.Contains(t, stderr, dbunified.ErrUnreachable.Error())
}

func TestInit(t *testing.T) {
	path := filepath.Join(t.TempDir(), "dbu.yaml")

	code, stdout, stderr := runCLI(t, "", "init", "--type", "mariadb", path)
	require.Equal(t, ExitOK, code, stderr)
	assert.Contains(t, stdout, "Created "+path)

	cfg, err := config.Load(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, "mariadb", cfg.Database["type"])
	assert.Equal(t, 3306, cfg.Database["port"])

	code, _, stderr = runCLI(t, "", "init", path)
	assert.Equal(t, ExitUsage, code)
	assert.Contains(t, stderr, "already exists")

	code, _, stderr = runCLI(t, "", "init", "--force", "--type", "sqlite", path)
	require.Equal(t, ExitOK, code, stderr)
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "type: sqlite")

	code, _, _ = runCLI(t, "", "init", "--type", "db2", filepath.Join(t.TempDir(), "x.yaml"))
	assert.Equal(t, ExitUsage, code)
}

func TestTabulate(t *testing.T) {
	tests := []struct {
		name        string
		result      any
		quantity    dbunified.Quantity
		shape       dbunified.Shape
		wantHeaders []string
		wantRows    [][]any
	}{
		{
			name:        "with names all",
			result:      []any{[]string{"a"}, [][]any{{1}, {2}}},
			quantity:    dbunified.QuantityAll,
			shape:       dbunified.ShapeWithNames,
			wantHeaders: []string{"a"},
			wantRows:    [][]any{{1}, {2}},
		},
		{
			name:     "with names empty",
			result:   []any{},
			quantity: dbunified.QuantityAll,
			shape:    dbunified.ShapeWithNames,
		},
		{
			name:        "with names single",
			result:      []any{"n", 7},
			quantity:    dbunified.QuantitySingle,
			shape:       dbunified.ShapeWithNames,
			wantHeaders: []string{"n"},
			wantRows:    [][]any{{7}},
		},
		{
			name:     "tuple rows",
			result:   []dbunified.Row{{1, "x"}},
			quantity: dbunified.QuantityAll,
			shape:    dbunified.ShapeTuple,
			wantRows: [][]any{{1, "x"}},
		},
		{
			name:        "dict one",
			result:      dbunified.NamedRow{Columns: []string{"a"}, Values: []any{1}},
			quantity:    dbunified.QuantityOne,
			shape:       dbunified.ShapeDict,
			wantHeaders: []string{"a"},
			wantRows:    [][]any{{1}},
		},
		{
			name:     "list quantity",
			result:   []any{"x", "y"},
			quantity: dbunified.QuantityList,
			shape:    dbunified.ShapeTuple,
			wantRows: [][]any{{"x"}, {"y"}},
		},
		{
			name:     "single nil",
			result:   nil,
			quantity: dbunified.QuantitySingle,
			shape:    dbunified.ShapeTuple,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			headers, rows := tabulate(tt.result, tt.quantity, tt.shape)
			assert.Equal(t, tt.wantHeaders, headers)
			assert.Equal(t, tt.wantRows, rows)
		})
	}
}

func TestTable_Render(t *testing.T) {
	var buf bytes.Buffer
	table := NewTable(&buf)
	table.Header([]string{"name", "n"})
	table.Row([]string{"Zoé", "10"})
	table.Render()

	assert.Equal(t, ""+
		"+------+----+\n"+
		"| name | n  |\n"+
		"+------+----+\n"+
		"| Zoé  | 10 |\n"+
		"+------+----+\n", buf.String())
}

func TestFormatCell(t *testing.T) {
	assert.Equal(t, "NULL", formatCell(nil))
	assert.Equal(t, "abc", formatCell([]byte("abc")))
	assert.Equal(t, `a\nb`, formatCell("a\nb"))
	assert.Equal(t, "3.5", formatCell(3.5))
}
