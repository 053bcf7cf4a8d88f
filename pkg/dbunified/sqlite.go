package dbunified

import (
	"context"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"
)

// sqliteBackend opens a local database file. Database is the file path.
type sqliteBackend struct{}

func (b *sqliteBackend) Kind() Kind { return KindSQLite }

func (b *sqliteBackend) Capabilities() Capabilities {
	return Capabilities{
		NamedRows:   true,
		NamedTitles: true,
		Batch:       true,
	}
}

func (b *sqliteBackend) Connect(ctx context.Context, p Profile) (Conn, error) {
	return openSQL(ctx, "sqlite", p.Database)
}

func (b *sqliteBackend) Rebind(statement string) string {
	return rebindPercent(sqlx.QUESTION, statement)
}
