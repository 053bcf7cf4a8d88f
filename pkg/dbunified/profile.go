package dbunified

import (
	"fmt"
	"strconv"
	"strings"
)

// Kind identifies a backend engine.
type Kind string

const (
	KindPostgreSQL Kind = "postgresql"
	KindMariaDB    Kind = "mariadb"
	KindMySQL      Kind = "mysql"
	KindSQLServer  Kind = "sqlserver"
	KindSQLite     Kind = "sqlite"
	KindSurrealDB  Kind = "surrealdb"
)

// SSL modes accepted in a profile. Backends translate them to their own
// parameter names.
const (
	SSLDisable    = "disable"
	SSLAllow      = "allow"
	SSLPrefer     = "prefer"
	SSLRequire    = "require"
	SSLVerifyCA   = "verify-ca"
	SSLVerifyFull = "verify-full"
)

// Configuration mapping keys.
const (
	KeyType          = "type"
	KeyName          = "name"
	KeyAddr          = "addr"
	KeyPort          = "port"
	KeyUser          = "user"
	KeyPassword      = "passwd"
	KeySSLMode       = "sslmode"
	KeyOptions       = "options"
	KeySSLCA         = "ssl_ca"
	KeySSLKey        = "ssl_key"
	KeySSLCert       = "ssl_cert"
	KeySSLVerifyCert = "ssl_verify_cert"
)

// Mapping is a configuration mapping as read from a config file. A key that
// is present overrides the backend default, even when its value is empty.
type Mapping map[string]any

// TLSMaterial holds optional client TLS files. Only backends reporting the
// TLSMaterial capability use it.
type TLSMaterial struct {
	CA         string
	Key        string
	Cert       string
	VerifyCert *bool
}

// IsZero reports whether no TLS material was configured.
func (t TLSMaterial) IsZero() bool {
	return t.CA == "" && t.Key == "" && t.Cert == "" && t.VerifyCert == nil
}

// Profile is the resolved, validated set of fields needed to open a session.
type Profile struct {
	Kind     Kind
	Database string
	Host     string
	Port     string
	User     string
	Password string
	SSLMode  string
	Options  string
	TLS      TLSMaterial
}

// Fields are explicit per-field overrides. A nil field is absent and leaves
// the mapping or default value in place.
type Fields struct {
	Database *string
	Host     *string
	Port     *string
	User     *string
	Password *string
	SSLMode  *string
	Options  *string
}

// String returns a pointer to s, for building Fields literals.
func String(s string) *string {
	return &s
}

// profileDefaults returns the starting values for kind. A nil pointer means
// the field has no default and must come from the mapping or an override.
func profileDefaults(kind Kind) (fields Fields, ok bool) {
	empty := func() *string { return String("") }
	switch kind {
	case KindPostgreSQL:
		return Fields{Port: String("5432"), User: String("postgres"), SSLMode: String(SSLAllow), Options: empty()}, true
	case KindMariaDB, KindMySQL:
		return Fields{Port: String("3306"), SSLMode: String(SSLAllow), Options: empty()}, true
	case KindSQLServer:
		return Fields{Port: empty(), SSLMode: String(SSLAllow), Options: empty()}, true
	case KindSQLite:
		// A local file has no host, port, credentials or TLS.
		return Fields{Host: empty(), Port: empty(), User: empty(), Password: empty(), SSLMode: empty(), Options: empty()}, true
	case KindSurrealDB:
		return Fields{Port: String("8000"), User: String("root"), SSLMode: String(SSLAllow), Options: empty()}, true
	default:
		return Fields{}, false
	}
}

// emptyAllowed reports whether field may be empty for kind: the server
// fields of an embedded database and the SQL Server port.
func emptyAllowed(kind Kind, field string) bool {
	switch {
	case field == "database name":
		return false
	case kind == KindSQLite:
		return true
	default:
		return field == "database port" && kind == KindSQLServer
	}
}

// Resolve merges backend defaults, the configuration mapping and explicit
// overrides (later layers win) into a validated Profile. An empty kind means
// the kind is taken from the mapping's "type" key.
func Resolve(kind Kind, explicit Fields, mapping Mapping) (Profile, error) {
	if kind == "" {
		if v, ok := mapping[KeyType]; ok && v != nil {
			kind = Kind(strings.ToLower(stringify(v)))
		}
	}
	if kind == "" {
		return Profile{}, fmt.Errorf("%w: database type not specified (type)", ErrConfig)
	}

	merged, ok := profileDefaults(kind)
	if !ok {
		return Profile{}, fmt.Errorf("%w: unsupported database type %q", ErrConfig, kind)
	}

	mergeMapping(&merged, mapping)
	mergeFields(&merged, explicit)

	required := []struct {
		value *string
		what  string
	}{
		{merged.Database, "database name"},
		{merged.Host, "database address"},
		{merged.Port, "database port"},
		{merged.User, "database user"},
	}
	for _, r := range required {
		if r.value == nil {
			return Profile{}, fmt.Errorf("%w: %s not specified", ErrConfig, r.what)
		}
		if *r.value == "" && !emptyAllowed(kind, r.what) {
			return Profile{}, fmt.Errorf("%w: %s not specified", ErrConfig, r.what)
		}
	}
	if merged.Password == nil {
		merged.Password = String("")
	}
	if merged.SSLMode == nil {
		return Profile{}, fmt.Errorf("%w: database ssl mode not specified", ErrConfig)
	}
	if merged.Options == nil {
		return Profile{}, fmt.Errorf("%w: database options not specified", ErrConfig)
	}

	return Profile{
		Kind:     kind,
		Database: *merged.Database,
		Host:     *merged.Host,
		Port:     *merged.Port,
		User:     *merged.User,
		Password: *merged.Password,
		SSLMode:  *merged.SSLMode,
		Options:  *merged.Options,
		TLS:      tlsFromMapping(mapping),
	}, nil
}

func mergeMapping(dst *Fields, mapping Mapping) {
	set := func(key string, field **string) {
		if v, ok := mapping[key]; ok && v != nil {
			*field = String(stringify(v))
		}
	}
	set(KeyName, &dst.Database)
	set(KeyAddr, &dst.Host)
	set(KeyPort, &dst.Port)
	set(KeyUser, &dst.User)
	set(KeyPassword, &dst.Password)
	set(KeySSLMode, &dst.SSLMode)
	set(KeyOptions, &dst.Options)
}

func mergeFields(dst *Fields, src Fields) {
	for _, pair := range []struct{ dst, src **string }{
		{&dst.Database, &src.Database},
		{&dst.Host, &src.Host},
		{&dst.Port, &src.Port},
		{&dst.User, &src.User},
		{&dst.Password, &src.Password},
		{&dst.SSLMode, &src.SSLMode},
		{&dst.Options, &src.Options},
	} {
		if *pair.src != nil {
			*pair.dst = *pair.src
		}
	}
}

func tlsFromMapping(mapping Mapping) TLSMaterial {
	tls := TLSMaterial{
		CA:   stringify(mapping[KeySSLCA]),
		Key:  stringify(mapping[KeySSLKey]),
		Cert: stringify(mapping[KeySSLCert]),
	}
	if v, ok := mapping[KeySSLVerifyCert]; ok && v != nil {
		switch b := v.(type) {
		case bool:
			tls.VerifyCert = &b
		default:
			if parsed, err := strconv.ParseBool(stringify(v)); err == nil {
				tls.VerifyCert = &parsed
			}
		}
	}
	return tls
}

// stringify renders scalar mapping values (YAML may decode ports as ints).
func stringify(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case []byte:
		return string(t)
	default:
		return fmt.Sprint(t)
	}
}
