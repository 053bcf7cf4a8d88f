package dbunified

import (
	"context"
	"database/sql"
	"errors"
	"strconv"
	"strings"

	"github.com/jmoiron/sqlx"
)

// sqlConn adapts a database/sql driver to Conn. It pins one physical
// connection and runs every statement inside a transaction that begins on
// first use and ends on Commit or Close.
type sqlConn struct {
	db   *sqlx.DB
	conn *sqlx.Conn
	tx   *sqlx.Tx
	rows *sqlx.Rows
}

func openSQL(ctx context.Context, driverName, dsn string) (*sqlConn, error) {
	db, err := sqlx.Open(driverName, dsn)
	if err != nil {
		return nil, err
	}
	return pinSQL(ctx, db)
}

// pinSQL takes the single physical connection the session runs on.
func pinSQL(ctx context.Context, db *sqlx.DB) (*sqlConn, error) {
	db.SetMaxOpenConns(1)

	conn, err := db.Connx(ctx)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	return &sqlConn{db: db, conn: conn}, nil
}

func (c *sqlConn) Cursor(_ context.Context, named bool) (Cursor, error) {
	if c.conn == nil {
		return nil, ErrNotConnected
	}
	return &sqlCursor{conn: c, named: named}, nil
}

func (c *sqlConn) begin(ctx context.Context) (*sqlx.Tx, error) {
	if c.tx != nil {
		return c.tx, nil
	}
	tx, err := c.conn.BeginTxx(ctx, nil)
	if err != nil {
		return nil, err
	}
	c.tx = tx
	return tx, nil
}

// setRows replaces the conn's open result set. A connection carries a single
// result set at a time.
func (c *sqlConn) setRows(rows *sqlx.Rows) error {
	var err error
	if c.rows != nil {
		err = c.rows.Close()
	}
	c.rows = rows
	return err
}

func (c *sqlConn) Commit(_ context.Context) error {
	if err := c.setRows(nil); err != nil {
		return err
	}
	if c.tx == nil {
		return nil
	}
	tx := c.tx
	c.tx = nil
	return tx.Commit()
}

func (c *sqlConn) Close() error {
	var errs []error
	if err := c.setRows(nil); err != nil {
		errs = append(errs, err)
	}
	if c.tx != nil {
		if err := c.tx.Rollback(); err != nil && !errors.Is(err, sql.ErrTxDone) {
			errs = append(errs, err)
		}
		c.tx = nil
	}
	if c.conn != nil {
		if err := c.conn.Close(); err != nil {
			errs = append(errs, err)
		}
		c.conn = nil
	}
	if c.db != nil {
		if err := c.db.Close(); err != nil {
			errs = append(errs, err)
		}
		c.db = nil
	}
	return errors.Join(errs...)
}

// sqlCursor reads the conn's current result set.
type sqlCursor struct {
	conn    *sqlConn
	named   bool
	rows    *sqlx.Rows
	columns []string
	closed  bool
}

func (c *sqlCursor) Execute(ctx context.Context, statement string, args []any) error {
	if c.closed {
		return ErrNoCursor
	}
	tx, err := c.conn.begin(ctx)
	if err != nil {
		return err
	}
	if err := c.conn.setRows(nil); err != nil {
		return err
	}
	c.rows, c.columns = nil, nil

	if !Classify(statement).Projecting() {
		_, err := tx.ExecContext(ctx, statement, args...)
		return err
	}

	rows, err := tx.QueryxContext(ctx, statement, args...)
	if err != nil {
		return err
	}
	columns, err := rows.Columns()
	if err != nil {
		_ = rows.Close()
		return err
	}
	c.rows, c.columns = rows, columns
	return c.conn.setRows(rows)
}

func (c *sqlCursor) ExecuteMany(ctx context.Context, statement string, rows [][]any) error {
	if c.closed {
		return ErrNoCursor
	}
	tx, err := c.conn.begin(ctx)
	if err != nil {
		return err
	}
	if err := c.conn.setRows(nil); err != nil {
		return err
	}
	c.rows, c.columns = nil, nil

	stmt, err := tx.PreparexContext(ctx, statement)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, args := range rows {
		if _, err := stmt.ExecContext(ctx, args...); err != nil {
			return err
		}
	}
	return nil
}

func (c *sqlCursor) FetchOne(_ context.Context) (Record, error) {
	if c.closed {
		return nil, ErrNoCursor
	}
	if c.rows == nil {
		return nil, nil
	}
	if !c.rows.Next() {
		return nil, c.rows.Err()
	}
	values, err := c.rows.SliceScan()
	if err != nil {
		return nil, err
	}
	return c.record(values), nil
}

func (c *sqlCursor) FetchAll(ctx context.Context) ([]Record, error) {
	var out []Record
	for {
		rec, err := c.FetchOne(ctx)
		if err != nil {
			return nil, err
		}
		if rec == nil {
			return out, nil
		}
		out = append(out, rec)
	}
}

func (c *sqlCursor) record(values []any) Record {
	for i, v := range values {
		if b, ok := v.([]byte); ok {
			values[i] = string(b)
		}
	}
	if c.named {
		return NamedRow{Columns: c.columns, Values: values}
	}
	return Row(values)
}

func (c *sqlCursor) Description() []string {
	return c.columns
}

func (c *sqlCursor) Close() error {
	if c.closed {
		return nil
	}
	c.closed = true
	if c.rows == nil {
		return nil
	}
	rows := c.rows
	c.rows = nil
	if c.conn.rows == rows {
		return c.conn.setRows(nil)
	}
	return nil
}

// rebindPercent rewrites %s placeholders to bindType. Only %s tokens are
// touched, so a literal ? (jsonb operators, string contents) survives.
func rebindPercent(bindType int, statement string) string {
	switch bindType {
	case sqlx.DOLLAR:
		return numberPercent("$", statement)
	case sqlx.AT:
		return numberPercent("@p", statement)
	default:
		return strings.ReplaceAll(statement, "%s", "?")
	}
}

// numberPercent replaces each %s with prefix followed by its 1-based
// position.
func numberPercent(prefix, statement string) string {
	var sb strings.Builder
	n := 0
	for {
		i := strings.Index(statement, "%s")
		if i < 0 {
			sb.WriteString(statement)
			return sb.String()
		}
		n++
		sb.WriteString(statement[:i])
		sb.WriteString(prefix + strconv.Itoa(n))
		statement = statement[i+2:]
	}
}
