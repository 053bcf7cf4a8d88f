package testdb

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/fbourgeois24/db-unified/pkg/dbunified"
)

// TestDB wraps a handle opened for one test.
type TestDB struct {
	Handle *dbunified.Handle
	// Path is the database file for SQLite handles.
	Path string
	t    *testing.T
}

var (
	// counterMu protects the database name counter
	counterMu sync.Mutex
	counter   int64
)

// uniqueName generates a unique database file name for test isolation
func uniqueName() string {
	counterMu.Lock()
	defer counterMu.Unlock()
	counter++
	return fmt.Sprintf("test_%d_%d.db", time.Now().UnixNano(), counter)
}

// NewSQLite creates a handle on a fresh SQLite file in t.TempDir().
// The handle is closed when the test ends.
func NewSQLite(t *testing.T, opts ...dbunified.Option) *TestDB {
	t.Helper()

	path := filepath.Join(t.TempDir(), uniqueName())
	base := []dbunified.Option{
		dbunified.WithKind(dbunified.KindSQLite),
		dbunified.WithDatabase(path),
	}
	h, err := dbunified.New(append(base, opts...)...)
	if err != nil {
		t.Fatalf("testdb: failed to create handle: %v", err)
	}

	tdb := &TestDB{Handle: h, Path: path, t: t}
	t.Cleanup(tdb.Close)
	return tdb
}

// liveConfig reads TEST_DB_<KIND>_{NAME,HOST,PORT,USER,PASSWORD,SSLMODE,OPTIONS}.
// ok is false when no host is configured.
func liveConfig(kind dbunified.Kind) (dbunified.Mapping, bool) {
	prefix := "TEST_DB_" + strings.ToUpper(string(kind)) + "_"

	host := os.Getenv(prefix + "HOST")
	if host == "" {
		return nil, false
	}

	name := os.Getenv(prefix + "NAME")
	if name == "" {
		name = "test"
	}

	m := dbunified.Mapping{
		dbunified.KeyType: string(kind),
		dbunified.KeyName: name,
		dbunified.KeyAddr: host,
	}
	for key, env := range map[string]string{
		dbunified.KeyPort:     "PORT",
		dbunified.KeyUser:     "USER",
		dbunified.KeyPassword: "PASSWORD",
		dbunified.KeySSLMode:  "SSLMODE",
		dbunified.KeyOptions:  "OPTIONS",
	} {
		if v, ok := os.LookupEnv(prefix + env); ok {
			m[key] = v
		}
	}
	return m, true
}

// NewLive creates a handle on a running server of the given kind. The test
// is skipped when TEST_DB_<KIND>_HOST is unset, and fails when the server
// cannot be reached.
func NewLive(t *testing.T, kind dbunified.Kind, opts ...dbunified.Option) *TestDB {
	t.Helper()

	m, ok := liveConfig(kind)
	if !ok {
		t.Skipf("testdb: TEST_DB_%s_HOST not set", strings.ToUpper(string(kind)))
	}

	h, err := dbunified.New(append([]dbunified.Option{dbunified.WithConfig(m)}, opts...)...)
	if err != nil {
		t.Fatalf("testdb: failed to create handle: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := h.Connect(ctx); err != nil {
		t.Fatalf("testdb: failed to connect: %v", err)
	}
	if err := h.Disconnect(); err != nil {
		t.Fatalf("testdb: failed to disconnect: %v", err)
	}

	tdb := &TestDB{Handle: h, t: t}
	t.Cleanup(tdb.Close)
	return tdb
}

// Close disconnects the handle. Errors are ignored.
func (tdb *TestDB) Close() {
	if tdb.Handle == nil {
		return
	}
	_ = tdb.Handle.Close()
}

// Ctx returns a context with a reasonable timeout for test operations.
func (tdb *TestDB) Ctx() context.Context {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	tdb.t.Cleanup(cancel)
	return ctx
}

// MustExec runs a mutating statement and fails the test on error.
func (tdb *TestDB) MustExec(statement string, params any, opts ...dbunified.RunOption) {
	tdb.t.Helper()
	if _, err := tdb.Handle.Run(tdb.Ctx(), statement, params, opts...); err != nil {
		tdb.t.Fatalf("testdb: exec failed: %v\nStatement: %s", err, statement)
	}
}

// MustRun runs a statement and returns its result, failing the test on error.
func (tdb *TestDB) MustRun(statement string, params any, opts ...dbunified.RunOption) any {
	tdb.t.Helper()
	result, err := tdb.Handle.Run(tdb.Ctx(), statement, params, opts...)
	if err != nil {
		tdb.t.Fatalf("testdb: run failed: %v\nStatement: %s", err, statement)
	}
	return result
}
