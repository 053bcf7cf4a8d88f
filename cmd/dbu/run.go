package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	flag "github.com/spf13/pflag"

	"github.com/fbourgeois24/db-unified/pkg/dbunified"
)

// nullParam is the parameter literal bound as SQL NULL.
const nullParam = `\N`

// runStatement executes one statement and prints its result.
func (c *command) runStatement(ctx context.Context, args []string) int {
	fs := flag.NewFlagSet("run", flag.ContinueOnError)
	fs.SetOutput(c.stderr)

	var cf connFlags
	cf.register(fs)
	fetch := fs.String("fetch", string(dbunified.QuantityAll), "Rows to return (all, one, single, list)")
	shape := fs.String("shape", string(dbunified.ShapeWithNames), "Row shape (tuple, list, dict, with_names)")
	params := fs.StringArrayP("param", "p", nil, `Statement parameter, repeatable; \N binds NULL`)
	batch := fs.StringArray("batch", nil, "Semicolon-separated parameter row, repeatable; runs the statement once per row")
	fs.BoolVar(&c.globals.JSON, "json", c.globals.JSON, "Output as JSON")

	fs.Usage = func() {
		fmt.Fprintf(c.stderr, `Usage: dbu run [options] <statement>

Description:
  Execute a statement against the configured database. Placeholders are
  written %%s and bound from --param (or --batch rows) in order. A statement
  of "-" is read from standard input.

Options:
`)
		fs.PrintDefaults()
		fmt.Fprintf(c.stderr, `
Examples:
  dbu run --type sqlite --name app.db "SELECT * FROM users"
  dbu -c prod.yaml run --fetch single "SELECT count(*) FROM orders"
  dbu run -p Ann -p 30 "INSERT INTO users (name, age) VALUES (%%s, %%s)"
  dbu run --batch "Ann;30" --batch "Bo;41" "INSERT INTO users VALUES (%%s, %%s)"

`)
	}

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return ExitOK
		}
		return ExitUsage
	}

	statement, err := c.statement(fs.Args())
	if err != nil {
		fmt.Fprintf(c.stderr, "Error: %v\n", err)
		return ExitUsage
	}
	quantity, err := dbunified.ParseQuantity(*fetch)
	if err != nil {
		fmt.Fprintf(c.stderr, "Error: %v\n", err)
		return ExitUsage
	}
	rowShape, err := dbunified.ParseShape(*shape)
	if err != nil {
		fmt.Fprintf(c.stderr, "Error: %v\n", err)
		return ExitUsage
	}

	h, code := c.openHandle(ctx, fs, &cf)
	if code != ExitOK {
		return code
	}
	defer func() { _ = h.Close() }()

	if err := h.Connect(ctx); err != nil {
		fmt.Fprintf(c.stderr, "Error: %v\n", err)
		return ExitConnection
	}

	opts := []dbunified.RunOption{
		dbunified.Fetch(quantity),
		dbunified.As(rowShape),
		dbunified.AutoConnect(false),
	}
	var bound any = bindParams(*params)
	if len(*batch) > 0 {
		if !h.Capabilities().Batch {
			fmt.Fprintf(c.stderr, "Error: %s does not support batch execution\n", h.Profile().Kind)
			return ExitUsage
		}
		rows := make([][]any, len(*batch))
		for i, row := range *batch {
			rows[i] = bindParams(strings.Split(row, ";"))
		}
		bound = rows
		opts = append(opts, dbunified.Batch(true))
	}

	result, err := h.Run(ctx, statement, bound, opts...)
	if err != nil {
		fmt.Fprintf(c.stderr, "Error: %v\n", err)
		return exitCode(err)
	}

	if c.globals.JSON {
		enc := json.NewEncoder(c.stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(result); err != nil {
			fmt.Fprintf(c.stderr, "Error: encode result: %v\n", err)
			return ExitStatement
		}
		return ExitOK
	}

	if !dbunified.Classify(statement).Projecting() {
		if !c.globals.Quiet {
			fmt.Fprintln(c.stdout, "OK")
		}
		return ExitOK
	}
	renderResult(c.stdout, result, quantity, rowShape)
	return ExitOK
}

// statement joins the positional arguments, reading stdin for "-".
func (c *command) statement(args []string) (string, error) {
	if len(args) == 0 {
		return "", errors.New("statement argument required")
	}
	if len(args) == 1 && args[0] == "-" {
		data, err := io.ReadAll(c.stdin)
		if err != nil {
			return "", fmt.Errorf("read statement: %w", err)
		}
		args = []string{string(data)}
	}
	stmt := strings.TrimSpace(strings.Join(args, " "))
	if stmt == "" {
		return "", errors.New("empty statement")
	}
	return stmt, nil
}

func bindParams(values []string) []any {
	out := make([]any, len(values))
	for i, v := range values {
		if v == nullParam {
			continue
		}
		out[i] = v
	}
	return out
}

// renderResult prints a Run result as a table.
func renderResult(w io.Writer, result any, quantity dbunified.Quantity, shape dbunified.Shape) {
	headers, rows := tabulate(result, quantity, shape)
	if len(rows) == 0 {
		fmt.Fprintln(w, "(no rows)")
		return
	}

	t := NewTable(w)
	t.Header(headers)
	for _, row := range rows {
		cells := make([]string, len(row))
		for i, v := range row {
			cells[i] = formatCell(v)
		}
		t.Row(cells)
	}
	t.Render()
	if len(rows) != 1 {
		fmt.Fprintf(w, "(%d rows)\n", len(rows))
	}
}

// tabulate flattens any Run result into headers and rows.
func tabulate(result any, quantity dbunified.Quantity, shape dbunified.Shape) ([]string, [][]any) {
	if shape == dbunified.ShapeWithNames && quantity != dbunified.QuantityList {
		parts, _ := result.([]any)
		if len(parts) != 2 {
			return nil, nil
		}
		switch quantity {
		case dbunified.QuantityAll:
			headers, _ := parts[0].([]string)
			rows, _ := parts[1].([][]any)
			return headers, rows
		case dbunified.QuantityOne:
			headers, _ := parts[0].([]string)
			row, _ := parts[1].([]any)
			return headers, [][]any{row}
		case dbunified.QuantitySingle:
			title, _ := parts[0].(string)
			return []string{title}, [][]any{{parts[1]}}
		}
	}

	switch quantity {
	case dbunified.QuantityList:
		values, _ := result.([]any)
		rows := make([][]any, len(values))
		for i, v := range values {
			rows[i] = []any{v}
		}
		return nil, rows
	case dbunified.QuantitySingle:
		if result == nil {
			return nil, nil
		}
		return nil, [][]any{{result}}
	}

	switch r := result.(type) {
	case []dbunified.Row:
		rows := make([][]any, len(r))
		for i, row := range r {
			rows[i] = row
		}
		return nil, rows
	case []dbunified.NamedRow:
		if len(r) == 0 {
			return nil, nil
		}
		rows := make([][]any, len(r))
		for i, row := range r {
			rows[i] = row.Values
		}
		return r[0].Columns, rows
	case [][]any:
		return nil, r
	case dbunified.Row:
		return nil, [][]any{r}
	case dbunified.NamedRow:
		return r.Columns, [][]any{r.Values}
	case []any:
		return nil, [][]any{r}
	default:
		return nil, nil
	}
}
