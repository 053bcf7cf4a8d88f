package dbunified

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"strconv"

	"github.com/surrealdb/surrealdb.go"
)

// surrealBackend talks to SurrealDB over its WebSocket RPC endpoint. Options
// holds the namespace; an empty namespace means the database name is used.
type surrealBackend struct{}

func (b *surrealBackend) Kind() Kind { return KindSurrealDB }

func (b *surrealBackend) Capabilities() Capabilities {
	return Capabilities{
		NamedRows:   true,
		NamedTitles: true,
		Networked:   true,
	}
}

func (b *surrealBackend) Connect(ctx context.Context, p Profile) (Conn, error) {
	db, err := surrealdb.FromEndpointURLString(ctx, surrealEndpoint(p))
	if err != nil {
		return nil, err
	}

	_, err = db.SignIn(ctx, &surrealdb.Auth{
		Username: p.User,
		Password: p.Password,
	})
	if err != nil {
		_ = db.Close(ctx)
		return nil, fmt.Errorf("signin failed: %w", err)
	}

	namespace := p.Options
	if namespace == "" {
		namespace = p.Database
	}
	if err := db.Use(ctx, namespace, p.Database); err != nil {
		_ = db.Close(ctx)
		return nil, fmt.Errorf("use failed: %w", err)
	}

	return &surrealConn{db: db}, nil
}

// Rebind numbers %s placeholders as $p1, $p2 ... to match surrealVars.
func (b *surrealBackend) Rebind(statement string) string {
	return numberPercent("$p", statement)
}

func surrealEndpoint(p Profile) string {
	scheme := "ws"
	switch p.SSLMode {
	case SSLRequire, SSLVerifyCA, SSLVerifyFull:
		scheme = "wss"
	}
	return fmt.Sprintf("%s://%s:%s", scheme, p.Host, p.Port)
}

type surrealConn struct {
	db *surrealdb.DB
}

func (c *surrealConn) Cursor(_ context.Context, named bool) (Cursor, error) {
	if c.db == nil {
		return nil, ErrNotConnected
	}
	return &surrealCursor{db: c.db, named: named}, nil
}

// Commit is a no-op: each SurrealDB query commits on its own.
func (c *surrealConn) Commit(_ context.Context) error {
	return nil
}

func (c *surrealConn) Close() error {
	if c.db == nil {
		return nil
	}
	db := c.db
	c.db = nil
	return db.Close(context.Background())
}

// surrealCursor buffers the documents of the last result. Unnamed cursors
// return each document's values in sorted field order.
type surrealCursor struct {
	db      *surrealdb.DB
	named   bool
	records []NamedRow
	columns []string
	pos     int
	closed  bool
}

func (c *surrealCursor) Execute(ctx context.Context, statement string, args []any) error {
	if c.closed {
		return ErrNoCursor
	}
	c.records, c.columns, c.pos = nil, nil, 0

	results, err := surrealdb.Query[any](ctx, c.db, statement, surrealVars(args))
	if err != nil {
		return err
	}
	if results == nil || len(*results) == 0 {
		return nil
	}
	for _, r := range *results {
		if r.Status != "OK" {
			if r.Error != nil {
				return errors.New(r.Error.Message)
			}
			return fmt.Errorf("query status %s", r.Status)
		}
	}

	// The last statement's result is the result set.
	last := (*results)[len(*results)-1]
	c.records, c.columns = surrealRecords(last.Result)
	return nil
}

// ExecuteMany runs the statement once per parameter row.
func (c *surrealCursor) ExecuteMany(ctx context.Context, statement string, rows [][]any) error {
	for _, args := range rows {
		if err := c.Execute(ctx, statement, args); err != nil {
			return err
		}
	}
	return nil
}

func (c *surrealCursor) FetchOne(_ context.Context) (Record, error) {
	if c.closed {
		return nil, ErrNoCursor
	}
	if c.pos >= len(c.records) {
		return nil, nil
	}
	rec := c.records[c.pos]
	c.pos++
	return c.record(rec), nil
}

func (c *surrealCursor) FetchAll(_ context.Context) ([]Record, error) {
	if c.closed {
		return nil, ErrNoCursor
	}
	out := make([]Record, 0, len(c.records)-c.pos)
	for _, rec := range c.records[c.pos:] {
		out = append(out, c.record(rec))
	}
	c.pos = len(c.records)
	return out, nil
}

func (c *surrealCursor) record(rec NamedRow) Record {
	if c.named {
		return rec
	}
	return Row(rec.Values)
}

func (c *surrealCursor) Description() []string {
	return c.columns
}

func (c *surrealCursor) Close() error {
	c.closed = true
	c.records = nil
	return nil
}

// surrealVars turns positional arguments into p1..pn variables and named
// arguments into variables of the same name.
func surrealVars(args []any) map[string]any {
	if len(args) == 0 {
		return nil
	}
	vars := make(map[string]any, len(args))
	for i, arg := range args {
		if named, ok := arg.(sql.NamedArg); ok {
			vars[named.Name] = named.Value
			continue
		}
		vars["p"+strconv.Itoa(i+1)] = arg
	}
	return vars
}

// surrealRecords converts a query result into named records. Documents keep
// their fields sorted by name; scalars become a single "value" column.
func surrealRecords(result any) ([]NamedRow, []string) {
	var items []any
	switch v := result.(type) {
	case nil:
		return nil, nil
	case []any:
		items = v
	default:
		items = []any{v}
	}

	records := make([]NamedRow, 0, len(items))
	var columns []string
	for _, item := range items {
		rec := surrealRecord(item)
		if columns == nil {
			columns = rec.Columns
		}
		records = append(records, rec)
	}
	return records, columns
}

func surrealRecord(item any) NamedRow {
	doc, ok := documentFields(item)
	if !ok {
		return NamedRow{Columns: []string{"value"}, Values: []any{item}}
	}
	keys := make([]string, 0, len(doc))
	for k := range doc {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	values := make([]any, len(keys))
	for i, k := range keys {
		values[i] = doc[k]
	}
	return NamedRow{Columns: keys, Values: values}
}

// documentFields accepts both map shapes the CBOR decoder can produce.
func documentFields(item any) (map[string]any, bool) {
	switch m := item.(type) {
	case map[string]any:
		return m, true
	case map[any]any:
		out := make(map[string]any, len(m))
		for k, v := range m {
			out[fmt.Sprint(k)] = v
		}
		return out, true
	default:
		return nil, false
	}
}
