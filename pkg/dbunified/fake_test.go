package dbunified

import (
	"context"
	"errors"
	"strings"
)

// fakeBackend records every call made through it. Rows are served from
// result for every projecting statement.
type fakeBackend struct {
	kind        Kind
	caps        Capabilities
	result      []Row
	columns     []string
	connectErr  error
	executeErr  error
	commitErr   error
	nilConn     bool
	nilCursor   bool
	connects    int
	closes      int
	commits     int
	executed    []string
	args        [][]any
	batches     [][][]any
	cursorNamed []bool
}

func newFakeBackend(kind Kind) *fakeBackend {
	return &fakeBackend{
		kind:    kind,
		caps:    Capabilities{NamedRows: true, NamedTitles: true, Batch: true, Networked: true},
		columns: []string{"name", "age"},
	}
}

func (b *fakeBackend) Kind() Kind                 { return b.kind }
func (b *fakeBackend) Capabilities() Capabilities { return b.caps }

func (b *fakeBackend) Connect(_ context.Context, _ Profile) (Conn, error) {
	b.connects++
	if b.connectErr != nil {
		return nil, b.connectErr
	}
	if b.nilConn {
		return nil, nil
	}
	return &fakeConn{b: b}, nil
}

// Rebind rewrites %s to ? so tests can see the rewrite happened.
func (b *fakeBackend) Rebind(statement string) string {
	return strings.ReplaceAll(statement, "%s", "?")
}

type fakeConn struct {
	b      *fakeBackend
	closed bool
}

func (c *fakeConn) Cursor(_ context.Context, named bool) (Cursor, error) {
	c.b.cursorNamed = append(c.b.cursorNamed, named)
	if c.b.nilCursor {
		return nil, nil
	}
	return &fakeCursor{b: c.b, named: named}, nil
}

func (c *fakeConn) Commit(_ context.Context) error {
	if c.b.commitErr != nil {
		return c.b.commitErr
	}
	c.b.commits++
	return nil
}

func (c *fakeConn) Close() error {
	if c.closed {
		return errors.New("connection closed twice")
	}
	c.closed = true
	c.b.closes++
	return nil
}

type fakeCursor struct {
	b       *fakeBackend
	named   bool
	pending []Row
	columns []string
}

func (c *fakeCursor) Execute(_ context.Context, statement string, args []any) error {
	c.b.executed = append(c.b.executed, statement)
	c.b.args = append(c.b.args, args)
	if c.b.executeErr != nil {
		return c.b.executeErr
	}
	c.pending, c.columns = nil, nil
	if Classify(statement).Projecting() {
		c.pending = append([]Row(nil), c.b.result...)
		c.columns = c.b.columns
	}
	return nil
}

func (c *fakeCursor) ExecuteMany(_ context.Context, statement string, rows [][]any) error {
	c.b.executed = append(c.b.executed, statement)
	c.b.batches = append(c.b.batches, rows)
	return c.b.executeErr
}

func (c *fakeCursor) FetchOne(_ context.Context) (Record, error) {
	if len(c.pending) == 0 {
		return nil, nil
	}
	row := append(Row(nil), c.pending[0]...)
	c.pending = c.pending[1:]
	if c.named {
		return NamedRow{Columns: c.columns, Values: row}, nil
	}
	return row, nil
}

func (c *fakeCursor) FetchAll(ctx context.Context) ([]Record, error) {
	var out []Record
	for {
		rec, _ := c.FetchOne(ctx)
		if rec == nil {
			return out, nil
		}
		out = append(out, rec)
	}
}

func (c *fakeCursor) Description() []string { return c.columns }

func (c *fakeCursor) Close() error { return nil }

func newFakeHandle(b *fakeBackend, opts ...Option) (*Handle, error) {
	base := []Option{
		WithKind(b.kind),
		WithDatabase("db"),
		WithHost("localhost"),
		WithUser("u"),
		WithBackend(b),
	}
	return New(append(base, opts...)...)
}
