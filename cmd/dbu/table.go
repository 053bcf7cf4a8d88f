package main

import (
	"fmt"
	"io"
	"strings"
	"time"
	"unicode/utf8"
)

// Table renders rows as a boxed text table.
type Table struct {
	writer  io.Writer
	headers []string
	rows    [][]string
}

// NewTable creates a table writing to w.
func NewTable(w io.Writer) *Table {
	return &Table{writer: w}
}

// Header sets the column titles. A table without headers prints rows only.
func (t *Table) Header(headers []string) {
	t.headers = headers
}

// Row adds a single row.
func (t *Table) Row(row []string) {
	t.rows = append(t.rows, row)
}

// Render writes the table.
func (t *Table) Render() {
	if len(t.headers) == 0 && len(t.rows) == 0 {
		return
	}

	widths := t.widths()
	separator := separatorLine(widths)

	fmt.Fprintln(t.writer, separator)
	if len(t.headers) > 0 {
		fmt.Fprintln(t.writer, formatRow(t.headers, widths))
		fmt.Fprintln(t.writer, separator)
	}
	for _, row := range t.rows {
		fmt.Fprintln(t.writer, formatRow(row, widths))
	}
	fmt.Fprintln(t.writer, separator)
}

func (t *Table) widths() []int {
	cols := len(t.headers)
	for _, row := range t.rows {
		cols = max(cols, len(row))
	}

	widths := make([]int, cols)
	for i, h := range t.headers {
		widths[i] = max(widths[i], utf8.RuneCountInString(h))
	}
	for _, row := range t.rows {
		for i, cell := range row {
			widths[i] = max(widths[i], utf8.RuneCountInString(cell))
		}
	}
	for i := range widths {
		widths[i] = max(widths[i], 1)
	}
	return widths
}

func separatorLine(widths []int) string {
	parts := make([]string, len(widths))
	for i, w := range widths {
		parts[i] = strings.Repeat("-", w+2)
	}
	return "+" + strings.Join(parts, "+") + "+"
}

func formatRow(row []string, widths []int) string {
	parts := make([]string, len(widths))
	for i, w := range widths {
		cell := ""
		if i < len(row) {
			cell = row[i]
		}
		parts[i] = " " + cell + strings.Repeat(" ", w-utf8.RuneCountInString(cell)+1)
	}
	return "|" + strings.Join(parts, "|") + "|"
}

// formatCell renders a driver value for display.
func formatCell(v any) string {
	switch t := v.(type) {
	case nil:
		return "NULL"
	case []byte:
		return string(t)
	case time.Time:
		return t.Format(time.RFC3339)
	case string:
		return strings.ReplaceAll(t, "\n", `\n`)
	default:
		return fmt.Sprint(t)
	}
}
