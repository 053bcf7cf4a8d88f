package dbunified

import "log/slog"

// Option configures a Handle at construction.
type Option func(*handleOptions)

type handleOptions struct {
	kind    Kind
	fields  Fields
	mapping Mapping
	logger  *slog.Logger
	probe   Prober
	backend Backend
}

// WithKind selects the backend engine, overriding the mapping's "type".
func WithKind(kind Kind) Option {
	return func(o *handleOptions) { o.kind = kind }
}

// WithDatabase sets the database name (file path for SQLite).
func WithDatabase(name string) Option {
	return func(o *handleOptions) { o.fields.Database = String(name) }
}

// WithHost sets the server address.
func WithHost(host string) Option {
	return func(o *handleOptions) { o.fields.Host = String(host) }
}

// WithPort sets the server port.
func WithPort(port string) Option {
	return func(o *handleOptions) { o.fields.Port = String(port) }
}

// WithUser sets the login user.
func WithUser(user string) Option {
	return func(o *handleOptions) { o.fields.User = String(user) }
}

// WithPassword sets the login password.
func WithPassword(password string) Option {
	return func(o *handleOptions) { o.fields.Password = String(password) }
}

// WithSSLMode sets the TLS mode (disable, allow, prefer, require, verify-ca,
// verify-full).
func WithSSLMode(mode string) Option {
	return func(o *handleOptions) { o.fields.SSLMode = String(mode) }
}

// WithOptions sets the backend specific options string.
func WithOptions(options string) Option {
	return func(o *handleOptions) { o.fields.Options = String(options) }
}

// WithFields applies every non-nil field of f as an override.
func WithFields(f Fields) Option {
	return func(o *handleOptions) { mergeFields(&o.fields, f) }
}

// WithConfig supplies a configuration mapping. Overrides given through the
// other options win over it.
func WithConfig(mapping Mapping) Option {
	return func(o *handleOptions) { o.mapping = mapping }
}

// WithLogger sets the logger. Defaults to slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(o *handleOptions) { o.logger = logger }
}

// WithProbe enables a reachability check before each connect.
func WithProbe(p Prober) Option {
	return func(o *handleOptions) { o.probe = p }
}

// WithBackend replaces the adapter chosen from the kind. The backend's Kind
// must match the resolved kind.
func WithBackend(b Backend) Option {
	return func(o *handleOptions) { o.backend = b }
}

// RunOption configures a single Run call.
type RunOption func(*runOptions)

type runOptions struct {
	quantity    Quantity
	shape       Shape
	autoConnect bool
	batch       bool
	deferCommit bool
}

func defaultRunOptions() runOptions {
	return runOptions{
		quantity:    QuantityAll,
		shape:       ShapeTuple,
		autoConnect: true,
	}
}

// Fetch selects how many rows a projecting statement returns.
func Fetch(q Quantity) RunOption {
	return func(o *runOptions) { o.quantity = q }
}

// As selects the result shape.
func As(s Shape) RunOption {
	return func(o *runOptions) { o.shape = s }
}

// AutoConnect controls whether Run connects before and disconnects after
// the statement. When false the caller manages the session.
func AutoConnect(on bool) RunOption {
	return func(o *runOptions) { o.autoConnect = on }
}

// Batch executes the statement once per parameter row. Params must be a
// [][]any. Backends without batch support run the statement once with params
// as given.
func Batch(on bool) RunOption {
	return func(o *runOptions) { o.batch = on }
}
