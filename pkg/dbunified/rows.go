package dbunified

import (
	"bytes"
	"encoding/json"
)

// Record is one raw row read from a cursor: a positional Row or a NamedRow.
type Record interface {
	Fields() []any
}

// Row is a positional row.
type Row []any

// Fields returns the row values in column order.
func (r Row) Fields() []any {
	return r
}

// NamedRow is a row keyed by column name. Column order is the order the
// backend reported.
type NamedRow struct {
	Columns []string
	Values  []any
}

// Fields returns the row values in column order.
func (r NamedRow) Fields() []any {
	return r.Values
}

// Keys returns the column names in order.
func (r NamedRow) Keys() []string {
	return r.Columns
}

// Get returns the value of column name.
func (r NamedRow) Get(name string) (any, bool) {
	for i, c := range r.Columns {
		if c == name && i < len(r.Values) {
			return r.Values[i], true
		}
	}
	return nil, false
}

// Map returns the row as an unordered map.
func (r NamedRow) Map() map[string]any {
	m := make(map[string]any, len(r.Columns))
	for i, c := range r.Columns {
		if i < len(r.Values) {
			m[c] = r.Values[i]
		}
	}
	return m
}

// MarshalJSON encodes the row as a JSON object with keys in column order.
func (r NamedRow) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, c := range r.Columns {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(c)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		var v any
		if i < len(r.Values) {
			v = r.Values[i]
		}
		val, err := json.Marshal(v)
		if err != nil {
			return nil, err
		}
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// firstField returns the first value of rec, or nil for a nil or empty record.
func firstField(rec Record) any {
	if rec == nil {
		return nil
	}
	fields := rec.Fields()
	if len(fields) == 0 {
		return nil
	}
	return fields[0]
}
