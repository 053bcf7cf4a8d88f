package dbunified

import (
	"context"
	"fmt"
)

// Capabilities describe what a backend adapter supports. The handle consults
// them instead of branching on the backend kind.
type Capabilities struct {
	// NamedRows is set when the cursor can produce NamedRow records for the
	// dict shape.
	NamedRows bool
	// NamedTitles is set when the cursor should produce NamedRow records for
	// the with_names shape. Otherwise titles come from Description.
	NamedTitles bool
	// Batch is set when ExecuteMany is supported.
	Batch bool
	// TLSMaterial is set when ssl_ca, ssl_key and ssl_cert are honoured.
	TLSMaterial bool
	// Networked is set when the backend is reached over the network, which
	// enables the pre-connect probe.
	Networked bool
}

// Backend is a capability-tagged adapter over one database engine.
type Backend interface {
	Kind() Kind
	Capabilities() Capabilities

	// Connect opens a native connection using the fields of p the backend
	// needs.
	Connect(ctx context.Context, p Profile) (Conn, error)

	// Rebind rewrites the portable %s placeholder into the backend's native
	// syntax. Every %s is rewritten, including one inside a string literal;
	// other text, a literal ? included, is left as written.
	Rebind(statement string) string
}

// Conn is a live native connection.
type Conn interface {
	// Cursor opens a cursor. named asks for NamedRow records.
	Cursor(ctx context.Context, named bool) (Cursor, error)
	Commit(ctx context.Context) error
	// Close releases the connection, rolling back anything uncommitted.
	Close() error
}

// Cursor executes statements and reads their rows.
type Cursor interface {
	Execute(ctx context.Context, statement string, args []any) error
	ExecuteMany(ctx context.Context, statement string, rows [][]any) error

	// FetchOne returns the next record, or nil when the result is exhausted.
	FetchOne(ctx context.Context) (Record, error)
	// FetchAll returns every remaining record.
	FetchAll(ctx context.Context) ([]Record, error)
	// Description returns the column names of the last result.
	Description() []string
	Close() error
}

var backends = map[Kind]func() Backend{
	KindPostgreSQL: func() Backend { return &postgresBackend{} },
	KindMariaDB:    func() Backend { return &mysqlBackend{kind: KindMariaDB} },
	KindMySQL:      func() Backend { return &mysqlBackend{kind: KindMySQL} },
	KindSQLServer:  func() Backend { return &sqlserverBackend{} },
	KindSQLite:     func() Backend { return &sqliteBackend{} },
	KindSurrealDB:  func() Backend { return &surrealBackend{} },
}

func lookupBackend(kind Kind) (Backend, error) {
	newBackend, ok := backends[kind]
	if !ok {
		return nil, fmt.Errorf("%w: unsupported database type %q", ErrConfig, kind)
	}
	return newBackend(), nil
}
