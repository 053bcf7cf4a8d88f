package dbunified

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"database/sql"
	"fmt"
	"net"
	"net/url"
	"os"

	"github.com/go-sql-driver/mysql"
	"github.com/jmoiron/sqlx"
)

// mysqlBackend serves both MariaDB and MySQL over the MySQL wire protocol.
type mysqlBackend struct {
	kind Kind
}

func (b *mysqlBackend) Kind() Kind { return b.kind }

func (b *mysqlBackend) Capabilities() Capabilities {
	return Capabilities{
		NamedRows:   true,
		Batch:       true,
		TLSMaterial: true,
		Networked:   true,
	}
}

func (b *mysqlBackend) Connect(ctx context.Context, p Profile) (Conn, error) {
	cfg, err := mysqlConfig(p)
	if err != nil {
		return nil, err
	}
	connector, err := mysql.NewConnector(cfg)
	if err != nil {
		return nil, err
	}
	return pinSQL(ctx, sqlx.NewDb(sql.OpenDB(connector), "mysql"))
}

func (b *mysqlBackend) Rebind(statement string) string {
	return rebindPercent(sqlx.QUESTION, statement)
}

// mysqlConfig maps a profile onto the driver configuration. Options are
// URL-encoded driver parameters ("charset=utf8mb4&timeout=5s").
func mysqlConfig(p Profile) (*mysql.Config, error) {
	cfg := mysql.NewConfig()
	cfg.User = p.User
	cfg.Passwd = p.Password
	cfg.Net = "tcp"
	cfg.Addr = net.JoinHostPort(p.Host, p.Port)
	cfg.DBName = p.Database

	if p.Options != "" {
		values, err := url.ParseQuery(p.Options)
		if err != nil {
			return nil, fmt.Errorf("%w: invalid options %q: %v", ErrConfig, p.Options, err)
		}
		cfg.Params = make(map[string]string, len(values))
		for k := range values {
			cfg.Params[k] = values.Get(k)
		}
	}

	cfg.TLSConfig = mysqlTLSMode(p.SSLMode)
	if cfg.TLSConfig != "false" && !p.TLS.IsZero() {
		tlsCfg, err := loadTLSConfig(p.Host, p.TLS)
		if err != nil {
			return nil, err
		}
		// A custom tls.Config replaces the driver's mode handling.
		switch p.SSLMode {
		case SSLAllow, SSLPrefer:
			tlsCfg.InsecureSkipVerify = true
			cfg.AllowFallbackToPlaintext = true
		case SSLRequire:
			tlsCfg.InsecureSkipVerify = true
		}
		cfg.TLS = tlsCfg
	}
	return cfg, nil
}

// mysqlTLSMode translates an sslmode into the driver's tls parameter.
func mysqlTLSMode(sslmode string) string {
	switch sslmode {
	case SSLDisable:
		return "false"
	case SSLAllow, SSLPrefer:
		return "preferred"
	case SSLRequire:
		return "skip-verify"
	case SSLVerifyCA, SSLVerifyFull:
		return "true"
	default:
		return ""
	}
}

func loadTLSConfig(host string, m TLSMaterial) (*tls.Config, error) {
	cfg := &tls.Config{ServerName: host}

	if m.CA != "" {
		pem, err := os.ReadFile(m.CA)
		if err != nil {
			return nil, fmt.Errorf("%w: read ssl_ca: %v", ErrConfig, err)
		}
		pool := x509.NewCertPool()
		if !pool.AppendCertsFromPEM(pem) {
			return nil, fmt.Errorf("%w: ssl_ca %s holds no certificate", ErrConfig, m.CA)
		}
		cfg.RootCAs = pool
	}

	if m.Cert != "" || m.Key != "" {
		cert, err := tls.LoadX509KeyPair(m.Cert, m.Key)
		if err != nil {
			return nil, fmt.Errorf("%w: load client certificate: %v", ErrConfig, err)
		}
		cfg.Certificates = []tls.Certificate{cert}
	}

	if m.VerifyCert != nil && !*m.VerifyCert {
		cfg.InsecureSkipVerify = true
	}
	return cfg, nil
}
