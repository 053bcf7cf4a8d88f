package dbunified

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalize_WithNamesEmpty(t *testing.T) {
	assert.Equal(t, []any{}, normalize([]Row{}, QuantityAll, ShapeWithNames, []string{"a"}))
	assert.Equal(t, []any{}, normalize(nil, QuantityOne, ShapeWithNames, []string{"a"}))
	assert.Equal(t, []any{}, normalize(nil, QuantitySingle, ShapeWithNames, []string{"a"}))
}

func TestNormalize_WithNamesAllFromDescription(t *testing.T) {
	raw := []Row{{"Ann", int64(30)}, {"Bo", nil}}

	got := normalize(raw, QuantityAll, ShapeWithNames, []string{"name", "age"})

	assert.Equal(t, []any{
		[]string{"name", "age"},
		[][]any{{"Ann", int64(30)}, {"Bo", ""}},
	}, got)
	// The raw rows are left untouched.
	assert.Nil(t, raw[1][1])
}

func TestNormalize_WithNamesAllFromNamedRows(t *testing.T) {
	raw := []NamedRow{
		{Columns: []string{"id", "note"}, Values: []any{1, nil}},
	}

	got := normalize(raw, QuantityAll, ShapeWithNames, nil)

	assert.Equal(t, []any{[]string{"id", "note"}, [][]any{{1, ""}}}, got)
}

func TestNormalize_WithNamesOne(t *testing.T) {
	rec := NamedRow{Columns: []string{"id", "name"}, Values: []any{7, nil}}

	got := normalize(rec, QuantityOne, ShapeWithNames, nil)

	assert.Equal(t, []any{[]string{"id", "name"}, []any{7, ""}}, got)
}

func TestNormalize_WithNamesSingle(t *testing.T) {
	got := normalize(Row{nil, 2}, QuantitySingle, ShapeWithNames, []string{"total", "n"})
	assert.Equal(t, []any{"total", ""}, got)
}

func TestNormalize_ListShape(t *testing.T) {
	all := normalize([]Row{{1, 2}, {3, 4}}, QuantityAll, ShapeList, nil)
	assert.Equal(t, [][]any{{1, 2}, {3, 4}}, all)

	one := normalize(Row{1, 2}, QuantityOne, ShapeList, nil)
	assert.Equal(t, []any{1, 2}, one)

	assert.Nil(t, normalize(nil, QuantityOne, ShapeList, nil))
	assert.Equal(t, 5, normalize(5, QuantitySingle, ShapeList, nil))
}

func TestNormalize_TuplePassesThrough(t *testing.T) {
	raw := []Row{{1, nil}}
	assert.Equal(t, raw, normalize(raw, QuantityAll, ShapeTuple, nil))

	rec := NamedRow{Columns: []string{"a"}, Values: []any{nil}}
	assert.Equal(t, rec, normalize(rec, QuantityOne, ShapeDict, nil))
}

func TestNormalize_ListQuantityPassesThrough(t *testing.T) {
	raw := []any{"a", nil}
	assert.Equal(t, []any{"a", nil}, normalize(raw, QuantityList, ShapeWithNames, []string{"x"}))
}

func TestReplaceMissing_Idempotent(t *testing.T) {
	once := ReplaceMissing([]any{nil, 1, "x", nil})
	assert.Equal(t, []any{"", 1, "x", ""}, once)

	twice := ReplaceMissing(append([]any(nil), once...))
	assert.Equal(t, once, twice)
}

func TestReplaceMissingRows(t *testing.T) {
	rows := ReplaceMissingRows([][]any{{nil, 1}, {2, nil}})
	assert.Equal(t, [][]any{{"", 1}, {2, ""}}, rows)
}

func TestNamedRow_MarshalJSONKeepsOrder(t *testing.T) {
	rec := NamedRow{Columns: []string{"z", "a"}, Values: []any{1, "x"}}

	b, err := rec.MarshalJSON()

	assert.NoError(t, err)
	assert.JSONEq(t, `{"z":1,"a":"x"}`, string(b))
	assert.Equal(t, `{"z":1,"a":"x"}`, string(b))
}

func TestNamedRow_Get(t *testing.T) {
	rec := NamedRow{Columns: []string{"id", "name"}, Values: []any{1, "Ann"}}

	v, ok := rec.Get("name")
	assert.True(t, ok)
	assert.Equal(t, "Ann", v)

	_, ok = rec.Get("missing")
	assert.False(t, ok)
	assert.Equal(t, map[string]any{"id": 1, "name": "Ann"}, rec.Map())
}
