package dbunified

import (
	"context"
	"database/sql"
	"fmt"
	"net"
	"net/url"
	"slices"

	"github.com/jmoiron/sqlx"
	_ "github.com/microsoft/go-mssqldb"
)

// sqlserverDrivers lists acceptable driver names in order of preference.
var sqlserverDrivers = []string{"sqlserver", "mssql"}

type sqlserverBackend struct{}

func (b *sqlserverBackend) Kind() Kind { return KindSQLServer }

// Rows are positional for every shape; titles come from the description.
func (b *sqlserverBackend) Capabilities() Capabilities {
	return Capabilities{
		Batch:     true,
		Networked: true,
	}
}

func (b *sqlserverBackend) Connect(ctx context.Context, p Profile) (Conn, error) {
	driverName, err := sqlserverDriver(sql.Drivers())
	if err != nil {
		return nil, err
	}
	dsn, err := sqlserverDSN(p)
	if err != nil {
		return nil, err
	}
	return openSQL(ctx, driverName, dsn)
}

func (b *sqlserverBackend) Rebind(statement string) string {
	return rebindPercent(sqlx.AT, statement)
}

// sqlserverDriver picks the first registered driver able to talk to SQL Server.
func sqlserverDriver(registered []string) (string, error) {
	for _, name := range sqlserverDrivers {
		if slices.Contains(registered, name) {
			return name, nil
		}
	}
	return "", fmt.Errorf("no SQL Server driver registered (want one of %v)", sqlserverDrivers)
}

// sqlserverDSN builds a sqlserver:// URL. The server certificate is trusted
// unless the sslmode asks for verification. Options are extra URL-encoded
// query parameters.
func sqlserverDSN(p Profile) (string, error) {
	host := p.Host
	if p.Port != "" {
		host = net.JoinHostPort(p.Host, p.Port)
	}

	query := url.Values{}
	if p.Options != "" {
		extra, err := url.ParseQuery(p.Options)
		if err != nil {
			return "", fmt.Errorf("%w: invalid options %q: %v", ErrConfig, p.Options, err)
		}
		query = extra
	}
	query.Set("database", p.Database)

	switch p.SSLMode {
	case SSLDisable:
		query.Set("encrypt", "disable")
		query.Set("TrustServerCertificate", "true")
	case SSLRequire:
		query.Set("encrypt", "true")
		query.Set("TrustServerCertificate", "true")
	case SSLVerifyCA, SSLVerifyFull:
		query.Set("encrypt", "true")
		query.Set("TrustServerCertificate", "false")
	default:
		query.Set("TrustServerCertificate", "true")
	}

	u := &url.URL{
		Scheme:   "sqlserver",
		User:     url.UserPassword(p.User, p.Password),
		Host:     host,
		RawQuery: query.Encode(),
	}
	return u.String(), nil
}
