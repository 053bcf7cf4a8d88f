package dbunified

import (
	"context"
	"strings"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
)

type postgresBackend struct{}

func (b *postgresBackend) Kind() Kind { return KindPostgreSQL }

func (b *postgresBackend) Capabilities() Capabilities {
	return Capabilities{
		NamedRows:   true,
		NamedTitles: true,
		Batch:       true,
		TLSMaterial: true,
		Networked:   true,
	}
}

func (b *postgresBackend) Connect(ctx context.Context, p Profile) (Conn, error) {
	return openSQL(ctx, "pgx", postgresDSN(p))
}

func (b *postgresBackend) Rebind(statement string) string {
	return rebindPercent(sqlx.DOLLAR, statement)
}

// postgresDSN builds a libpq keyword/value connection string.
func postgresDSN(p Profile) string {
	pairs := [][2]string{
		{"dbname", p.Database},
		{"host", p.Host},
		{"port", p.Port},
		{"user", p.User},
		{"password", p.Password},
		{"sslmode", p.SSLMode},
		{"options", p.Options},
		{"sslrootcert", p.TLS.CA},
		{"sslcert", p.TLS.Cert},
		{"sslkey", p.TLS.Key},
	}
	parts := make([]string, 0, len(pairs))
	for _, kv := range pairs {
		if kv[1] == "" {
			continue
		}
		parts = append(parts, kv[0]+"="+quoteDSNValue(kv[1]))
	}
	return strings.Join(parts, " ")
}

func quoteDSNValue(v string) string {
	r := strings.NewReplacer(`\`, `\\`, `'`, `\'`)
	return "'" + r.Replace(v) + "'"
}
