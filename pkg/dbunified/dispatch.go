package dbunified

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
)

// classifyPrefix is how many leading characters decide whether a statement
// reads or writes.
const classifyPrefix = 20

// StatementClass is the read/write classification of a statement.
type StatementClass struct {
	mutating  bool
	returning bool
}

// Classify inspects the statement text. A statement whose first 20
// characters contain neither SELECT nor SHOW is mutating. RETURNING anywhere
// makes it produce rows as well.
func Classify(statement string) StatementClass {
	upper := strings.ToUpper(statement)
	prefix := upper
	if runes := []rune(upper); len(runes) > classifyPrefix {
		prefix = string(runes[:classifyPrefix])
	}
	return StatementClass{
		mutating:  !strings.Contains(prefix, "SELECT") && !strings.Contains(prefix, "SHOW"),
		returning: strings.Contains(upper, "RETURNING"),
	}
}

// Projecting reports whether the statement produces rows to fetch.
func (c StatementClass) Projecting() bool { return !c.mutating || c.returning }

// Commits reports whether the statement's transaction is committed.
func (c StatementClass) Commits() bool { return c.mutating }

// Quantity selects how many rows Run returns.
type Quantity string

const (
	// QuantityAll returns every row.
	QuantityAll Quantity = "all"
	// QuantityOne returns the first row.
	QuantityOne Quantity = "one"
	// QuantitySingle returns the first field of the first row.
	QuantitySingle Quantity = "single"
	// QuantityList returns the first field of every row.
	QuantityList Quantity = "list"
)

// ParseQuantity validates a quantity name.
func ParseQuantity(s string) (Quantity, error) {
	switch q := Quantity(strings.ToLower(s)); q {
	case QuantityAll, QuantityOne, QuantitySingle, QuantityList:
		return q, nil
	default:
		return "", fmt.Errorf("%w: wrong fetch quantity %q", ErrConfig, s)
	}
}

// Shape selects the representation of returned rows.
type Shape string

const (
	ShapeTuple     Shape = "tuple"
	ShapeList      Shape = "list"
	ShapeDict      Shape = "dict"
	ShapeWithNames Shape = "with_names"
)

var shapeAliases = map[string]Shape{
	"with-titles": ShapeWithNames,
	"with_titles": ShapeWithNames,
	"dict_name":   ShapeWithNames,
}

// ParseShape validates a shape name, accepting the with-titles and dict_name
// synonyms of with_names.
func ParseShape(s string) (Shape, error) {
	name := strings.ToLower(s)
	if alias, ok := shapeAliases[name]; ok {
		return alias, nil
	}
	switch sh := Shape(name); sh {
	case ShapeTuple, ShapeList, ShapeDict, ShapeWithNames:
		return sh, nil
	default:
		return "", fmt.Errorf("%w: incorrect fetch type %q", ErrConfig, s)
	}
}

// Run executes statement and returns its normalized result. Mutating
// statements are committed and return nil. With AutoConnect (the default)
// the handle connects before and disconnects after; on failure the cursor is
// closed without commit and the statement error is returned as is.
//
// params may be nil, []any, Row, map[string]any (named parameters) or, with
// Batch, [][]any.
func (h *Handle) Run(ctx context.Context, statement string, params any, opts ...RunOption) (result any, err error) {
	o := defaultRunOptions()
	for _, opt := range opts {
		opt(&o)
	}

	shape, err := ParseShape(string(o.shape))
	if err != nil {
		return nil, err
	}
	class := Classify(statement)
	quantity := o.quantity
	if class.Projecting() {
		if quantity, err = ParseQuantity(string(o.quantity)); err != nil {
			return nil, err
		}
	}

	batch := o.batch && h.backend.Capabilities().Batch
	var (
		args []any
		rows [][]any
	)
	if batch {
		rows, err = batchArgs(params)
	} else {
		args, err = statementArgs(params)
	}
	if err != nil {
		return nil, err
	}

	if err = h.OpenCursor(ctx, o.autoConnect, shape); err != nil {
		h.abort(o.autoConnect)
		if !errors.Is(err, ErrDispatch) {
			err = fmt.Errorf("%w: %w", ErrDispatch, err)
		}
		return nil, err
	}
	defer func() {
		if err != nil {
			h.logger.Debug("statement failed", slog.String("error", err.Error()))
			h.abort(o.autoConnect)
		}
	}()

	native := h.backend.Rebind(statement)
	if batch {
		err = h.executeMany(ctx, native, rows)
	} else {
		err = h.execute(ctx, native, args)
	}
	if err != nil {
		return nil, err
	}

	if !class.Projecting() {
		if err = h.CloseCursor(ctx, !o.deferCommit, o.autoConnect); err != nil {
			return nil, err
		}
		return nil, nil
	}

	raw, err := h.fetch(ctx, quantity, shape)
	if err != nil {
		return nil, err
	}
	result = normalize(raw, quantity, shape, h.cursor.Description())

	if err = h.CloseCursor(ctx, class.Commits() && !o.deferCommit, o.autoConnect); err != nil {
		return nil, err
	}
	return result, nil
}

// fetch reads the rows quantity asks for and drains the rest so the cursor
// can be closed cleanly.
func (h *Handle) fetch(ctx context.Context, quantity Quantity, shape Shape) (any, error) {
	switch quantity {
	case QuantityAll:
		records, err := h.cursor.FetchAll(ctx)
		if err != nil {
			return nil, err
		}
		return h.typedRows(records), nil

	case QuantityOne, QuantitySingle:
		rec, err := h.cursor.FetchOne(ctx)
		if err != nil {
			return nil, err
		}
		if _, err := h.cursor.FetchAll(ctx); err != nil {
			return nil, err
		}
		if rec == nil {
			return nil, nil
		}
		if quantity == QuantitySingle && shape != ShapeWithNames {
			return firstField(rec), nil
		}
		return rec, nil

	case QuantityList:
		records, err := h.cursor.FetchAll(ctx)
		if err != nil {
			return nil, err
		}
		out := make([]any, 0, len(records))
		for _, rec := range records {
			out = append(out, firstField(rec))
		}
		return out, nil

	default:
		return nil, fmt.Errorf("%w: wrong fetch quantity %q", ErrConfig, quantity)
	}
}

// typedRows converts records to []NamedRow for a named cursor and to []Row
// otherwise.
func (h *Handle) typedRows(records []Record) any {
	if h.named {
		out := make([]NamedRow, 0, len(records))
		for _, rec := range records {
			if nr, ok := rec.(NamedRow); ok {
				out = append(out, nr)
				continue
			}
			out = append(out, NamedRow{Columns: h.cursor.Description(), Values: rec.Fields()})
		}
		return out
	}
	out := make([]Row, 0, len(records))
	for _, rec := range records {
		out = append(out, Row(rec.Fields()))
	}
	return out
}

// statementArgs converts Run params into driver arguments. Named parameters
// are passed in key order.
func statementArgs(params any) ([]any, error) {
	switch p := params.(type) {
	case nil:
		return []any{}, nil
	case []any:
		return p, nil
	case Row:
		return []any(p), nil
	case []string:
		out := make([]any, len(p))
		for i, v := range p {
			out[i] = v
		}
		return out, nil
	case map[string]any:
		keys := make([]string, 0, len(p))
		for k := range p {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		out := make([]any, len(keys))
		for i, k := range keys {
			out[i] = sql.Named(k, p[k])
		}
		return out, nil
	default:
		return nil, fmt.Errorf("%w: unsupported statement parameters %T", ErrConfig, params)
	}
}

// batchArgs converts Run params into one argument list per execution.
func batchArgs(params any) ([][]any, error) {
	switch p := params.(type) {
	case nil:
		return [][]any{}, nil
	case [][]any:
		return p, nil
	case []Row:
		out := make([][]any, len(p))
		for i, r := range p {
			out[i] = r
		}
		return out, nil
	default:
		return nil, fmt.Errorf("%w: batch parameters must be rows, got %T", ErrConfig, params)
	}
}
