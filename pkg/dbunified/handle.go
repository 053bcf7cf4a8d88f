package dbunified

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
)

// Handle is a database session over one backend. It owns at most one native
// connection and at most one cursor.
//
// A Handle is not safe for concurrent use.
type Handle struct {
	id      string
	logger  *slog.Logger
	profile Profile
	backend Backend
	probe   Prober

	conn   Conn
	cursor Cursor
	named  bool
}

// New resolves the configuration and returns a disconnected handle.
func New(opts ...Option) (*Handle, error) {
	var o handleOptions
	for _, opt := range opts {
		opt(&o)
	}

	profile, err := Resolve(o.kind, o.fields, o.mapping)
	if err != nil {
		return nil, err
	}

	backend := o.backend
	if backend == nil {
		backend, err = lookupBackend(profile.Kind)
		if err != nil {
			return nil, err
		}
	} else if backend.Kind() != profile.Kind {
		return nil, fmt.Errorf("%w: backend %s does not serve %s", ErrConfig, backend.Kind(), profile.Kind)
	}

	logger := o.logger
	if logger == nil {
		logger = slog.Default()
	}
	id := uuid.New().String()

	return &Handle{
		id: id,
		logger: logger.With(
			slog.String("session_id", id),
			slog.String("backend", string(profile.Kind)),
		),
		profile: profile,
		backend: backend,
		probe:   o.probe,
	}, nil
}

// ID returns the session identifier attached to log records.
func (h *Handle) ID() string { return h.id }

// Profile returns the resolved configuration.
func (h *Handle) Profile() Profile { return h.profile }

// Capabilities returns the backend's capabilities.
func (h *Handle) Capabilities() Capabilities { return h.backend.Capabilities() }

// Connected reports whether a native connection is open.
func (h *Handle) Connected() bool { return h.conn != nil }

// Connect opens the native connection, closing any previous one first.
func (h *Handle) Connect(ctx context.Context) error {
	if h.conn != nil {
		if err := h.Disconnect(); err != nil {
			h.logger.Warn("closing previous connection failed", slog.String("error", err.Error()))
		}
	}

	if err := h.Ping(ctx); err != nil {
		return err
	}

	conn, err := h.backend.Connect(ctx, h.profile)
	if err != nil {
		return fmt.Errorf("%w: connect: %w", ErrDispatch, err)
	}
	if conn == nil {
		return fmt.Errorf("%w: %w: backend returned no connection", ErrDispatch, ErrNotConnected)
	}
	h.conn = conn

	h.logger.Debug("connected",
		slog.String("database", h.profile.Database),
		slog.String("addr", h.profile.Host),
	)
	return nil
}

// Ping runs the reachability probe when one is configured and the backend
// is networked. It is a no-op otherwise.
func (h *Handle) Ping(ctx context.Context) error {
	if h.probe == nil || !h.backend.Capabilities().Networked || h.profile.Port == "" {
		return nil
	}
	if err := h.probe.Reachable(ctx, h.profile.Host, h.profile.Port); err != nil {
		h.logger.Warn("backend unreachable",
			slog.String("addr", h.profile.Host),
			slog.String("port", h.profile.Port),
			slog.String("error", err.Error()),
		)
		return fmt.Errorf("%w: %w: %v", ErrDispatch, ErrUnreachable, err)
	}
	return nil
}

// Disconnect closes the cursor and the native connection. Uncommitted work is
// rolled back. Disconnecting a disconnected handle does nothing.
func (h *Handle) Disconnect() error {
	if h.conn == nil {
		return nil
	}
	if h.cursor != nil {
		if err := h.cursor.Close(); err != nil {
			h.logger.Debug("cursor close failed", slog.String("error", err.Error()))
		}
		h.cursor = nil
	}
	conn := h.conn
	h.conn = nil
	if err := conn.Close(); err != nil {
		return err
	}
	h.logger.Debug("disconnected")
	return nil
}

// OpenCursor prepares the cursor for the next statement. With autoConnect it
// connects first. Any previous cursor is closed.
func (h *Handle) OpenCursor(ctx context.Context, autoConnect bool, shape Shape) error {
	shape, err := ParseShape(string(shape))
	if err != nil {
		return err
	}

	if autoConnect {
		if err := h.Connect(ctx); err != nil {
			return err
		}
	}
	if h.conn == nil {
		return fmt.Errorf("%w: %w", ErrDispatch, ErrNotConnected)
	}

	if h.cursor != nil {
		err := h.cursor.Close()
		h.cursor = nil
		if err != nil {
			return err
		}
	}

	caps := h.backend.Capabilities()
	named := (shape == ShapeDict && caps.NamedRows) || (shape == ShapeWithNames && caps.NamedTitles)

	cursor, err := h.conn.Cursor(ctx, named)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrDispatch, err)
	}
	if cursor == nil {
		return fmt.Errorf("%w: backend returned no cursor", ErrDispatch)
	}
	h.cursor, h.named = cursor, named

	h.logger.Debug("cursor opened", slog.String("shape", string(shape)), slog.Bool("named", named))
	return nil
}

// Commit commits the current transaction.
func (h *Handle) Commit(ctx context.Context) error {
	if h.conn == nil {
		return ErrNotConnected
	}
	if err := h.conn.Commit(ctx); err != nil {
		return err
	}
	h.logger.Debug("committed")
	return nil
}

// CloseCursor commits when asked, closes the cursor, and disconnects when
// autoDisconnect is set.
func (h *Handle) CloseCursor(ctx context.Context, commit, autoDisconnect bool) error {
	if commit {
		if err := h.Commit(ctx); err != nil {
			return err
		}
	}
	if h.cursor != nil {
		err := h.cursor.Close()
		h.cursor = nil
		if err != nil {
			return err
		}
	}
	if autoDisconnect {
		return h.Disconnect()
	}
	return nil
}

// Execute runs statement on the open cursor. Placeholders written as %s are
// rewritten for the backend.
func (h *Handle) Execute(ctx context.Context, statement string, params any) error {
	if h.cursor == nil {
		return ErrNoCursor
	}
	args, err := statementArgs(params)
	if err != nil {
		return err
	}
	return h.execute(ctx, h.backend.Rebind(statement), args)
}

func (h *Handle) execute(ctx context.Context, statement string, args []any) error {
	h.logger.Debug("execute", slog.String("statement", statement), slog.Int("params", len(args)))
	return h.cursor.Execute(ctx, statement, args)
}

// ExecuteMany runs statement once per parameter row on the open cursor.
func (h *Handle) ExecuteMany(ctx context.Context, statement string, params any) error {
	if h.cursor == nil {
		return ErrNoCursor
	}
	rows, err := batchArgs(params)
	if err != nil {
		return err
	}
	return h.executeMany(ctx, h.backend.Rebind(statement), rows)
}

func (h *Handle) executeMany(ctx context.Context, statement string, rows [][]any) error {
	h.logger.Debug("execute many", slog.String("statement", statement), slog.Int("rows", len(rows)))
	return h.cursor.ExecuteMany(ctx, statement, rows)
}

// FetchOne returns the next raw record, or nil when none is left.
func (h *Handle) FetchOne(ctx context.Context) (Record, error) {
	if h.cursor == nil {
		return nil, ErrNoCursor
	}
	return h.cursor.FetchOne(ctx)
}

// FetchAll returns every remaining raw record.
func (h *Handle) FetchAll(ctx context.Context) ([]Record, error) {
	if h.cursor == nil {
		return nil, ErrNoCursor
	}
	return h.cursor.FetchAll(ctx)
}

// Description returns the column names of the last result, or nil.
func (h *Handle) Description() []string {
	if h.cursor == nil {
		return nil
	}
	return h.cursor.Description()
}

// With connects, runs fn and always disconnects. fn's error wins over a
// disconnect error.
func (h *Handle) With(ctx context.Context, fn func(*Handle) error) (err error) {
	if err := h.Connect(ctx); err != nil {
		return err
	}
	defer func() {
		if cerr := h.Disconnect(); cerr != nil && err == nil {
			err = cerr
		}
	}()
	return fn(h)
}

// Close disconnects the handle. It is safe to defer.
func (h *Handle) Close() error {
	return h.Disconnect()
}

// abort releases the cursor without committing, and the connection when the
// caller let Run manage it. Errors are logged, not returned.
func (h *Handle) abort(disconnect bool) {
	if h.cursor != nil {
		if err := h.cursor.Close(); err != nil {
			h.logger.Debug("cursor close failed", slog.String("error", err.Error()))
		}
		h.cursor = nil
	}
	if disconnect {
		if err := h.Disconnect(); err != nil {
			h.logger.Warn("disconnect after failure", slog.String("error", err.Error()))
		}
	}
}
