package dbunified

// normalize reshapes fetched rows into the representation shape asks for.
//
// raw is what fetch produced: []Row or []NamedRow for QuantityAll, a Record
// or nil for QuantityOne (and QuantitySingle with ShapeWithNames), a bare
// value for QuantitySingle, and []any for QuantityList. description supplies
// titles when records carry no column names.
func normalize(raw any, quantity Quantity, shape Shape, description []string) any {
	if quantity == QuantityList {
		return raw
	}
	if shape != ShapeWithNames {
		if shape == ShapeList {
			return plainLists(raw, quantity)
		}
		return raw
	}

	switch quantity {
	case QuantityAll:
		records := recordsOf(raw)
		if len(records) == 0 {
			return []any{}
		}
		data := make([][]any, len(records))
		for i, rec := range records {
			data[i] = ReplaceMissing(cloneValues(rec.Fields()))
		}
		return []any{titles(records[0], description), data}

	case QuantityOne:
		rec, ok := raw.(Record)
		if !ok || rec == nil {
			return []any{}
		}
		return []any{titles(rec, description), ReplaceMissing(cloneValues(rec.Fields()))}

	case QuantitySingle:
		rec, ok := raw.(Record)
		if !ok || rec == nil {
			return []any{}
		}
		names := titles(rec, description)
		values := rec.Fields()
		if len(names) == 0 || len(values) == 0 {
			return []any{}
		}
		return []any{names[0], replaceValue(values[0])}
	}
	return raw
}

// plainLists turns positional rows into plain []any values.
func plainLists(raw any, quantity Quantity) any {
	switch quantity {
	case QuantityAll:
		records := recordsOf(raw)
		out := make([][]any, len(records))
		for i, rec := range records {
			out[i] = cloneValues(rec.Fields())
		}
		return out
	case QuantityOne:
		rec, ok := raw.(Record)
		if !ok || rec == nil {
			return nil
		}
		return cloneValues(rec.Fields())
	}
	return raw
}

func recordsOf(raw any) []Record {
	switch rows := raw.(type) {
	case []Record:
		return rows
	case []Row:
		out := make([]Record, len(rows))
		for i, r := range rows {
			out[i] = r
		}
		return out
	case []NamedRow:
		out := make([]Record, len(rows))
		for i, r := range rows {
			out[i] = r
		}
		return out
	default:
		return nil
	}
}

// titles prefers the record's own column names over the cursor description.
func titles(rec Record, description []string) []string {
	if nr, ok := rec.(NamedRow); ok && len(nr.Columns) > 0 {
		return append([]string(nil), nr.Columns...)
	}
	return append([]string(nil), description...)
}

func cloneValues(values []any) []any {
	return append(make([]any, 0, len(values)), values...)
}

// ReplaceMissing replaces nil values with "" in place and returns values.
// Applying it twice changes nothing.
func ReplaceMissing(values []any) []any {
	for i, v := range values {
		values[i] = replaceValue(v)
	}
	return values
}

// ReplaceMissingRows applies ReplaceMissing to every row.
func ReplaceMissingRows(rows [][]any) [][]any {
	for _, row := range rows {
		ReplaceMissing(row)
	}
	return rows
}

func replaceValue(v any) any {
	if v == nil {
		return ""
	}
	return v
}
