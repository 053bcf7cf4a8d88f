// Package dbunified provides one call surface over several database engines.
//
// A Handle hides the per-engine differences callers usually have to know:
// placeholder syntax, how rows and column names come back, bulk execution,
// and how TLS is configured. Supported kinds are postgresql, mariadb, mysql,
// sqlserver, sqlite and surrealdb.
//
// # Configuration
//
// Connection fields are resolved in three layers, later layers winning:
// the backend defaults, a configuration Mapping (the keys type, name, addr,
// port, user, passwd, sslmode, options, ssl_ca, ssl_key, ssl_cert and
// ssl_verify_cert), then explicit options:
//
//	h, err := dbunified.New(
//	    dbunified.WithConfig(dbunified.Mapping{"type": "postgresql", "name": "shop", "addr": "db1"}),
//	    dbunified.WithUser("reporting"),
//	)
//
// # Running statements
//
// Run connects, executes, fetches, commits and disconnects in one call.
// Statements are classified from their text: anything whose first 20
// characters mention neither SELECT nor SHOW is committed, and RETURNING
// makes a statement return rows as well. Write placeholders as %s; they are
// rewritten for the backend.
//
//	rows, err := h.Run(ctx, "SELECT name, age FROM users WHERE age > %s", []any{18},
//	    dbunified.Fetch(dbunified.QuantityAll), dbunified.As(dbunified.ShapeWithNames))
//
// Fetch chooses the quantity (all, one, single, list) and As the shape
// (tuple, list, dict, with_names). with_names returns a two element slice of
// titles and data, with nil values replaced by "".
//
// # Sessions
//
// To run several statements on one connection, pass AutoConnect(false) and
// manage the session yourself, or use With:
//
//	err := h.With(ctx, func(h *dbunified.Handle) error {
//	    _, err := h.Run(ctx, "UPDATE stock SET qty = qty - 1 WHERE id = %s", []any{id}, dbunified.AutoConnect(false))
//	    return err
//	})
//
// Pipeline runs a list of statements in one transaction.
//
// # Error Handling
//
// Configuration problems wrap ErrConfig and failures to obtain a cursor wrap
// ErrDispatch. Driver errors raised while executing or committing are
// returned as they are.
//
//	if errors.Is(err, dbunified.ErrDispatch) {
//	    // Backend down or credentials rejected
//	}
package dbunified
