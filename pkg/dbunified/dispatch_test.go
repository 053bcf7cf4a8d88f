package dbunified

import (
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		statement  string
		projecting bool
		commits    bool
	}{
		{"SELECT * FROM t", true, false},
		{"select id from t", true, false},
		{"  SHOW TABLES", true, false},
		{"UPDATE t SET a=1", false, true},
		{"DELETE FROM t", false, true},
		{"INSERT INTO t VALUES (1) RETURNING id", true, true},
		{"WITH x AS (SELECT 1) SELECT * FROM x", true, false},
		// SELECT past the 20th character does not count.
		{"INSERT INTO archive_2024 SELECT * FROM t", false, true},
		{"CREATE TABLE t (id int)", false, true},
	}

	for _, tt := range tests {
		t.Run(tt.statement, func(t *testing.T) {
			c := Classify(tt.statement)
			assert.Equal(t, tt.projecting, c.Projecting())
			assert.Equal(t, tt.commits, c.Commits())
		})
	}
}

func TestParseShape(t *testing.T) {
	for in, want := range map[string]Shape{
		"tuple":       ShapeTuple,
		"list":        ShapeList,
		"dict":        ShapeDict,
		"with_names":  ShapeWithNames,
		"with-titles": ShapeWithNames,
		"dict_name":   ShapeWithNames,
		"DICT":        ShapeDict,
	} {
		got, err := ParseShape(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	_, err := ParseShape("table")
	require.ErrorIs(t, err, ErrConfig)
}

func TestParseQuantity(t *testing.T) {
	q, err := ParseQuantity("single")
	require.NoError(t, err)
	assert.Equal(t, QuantitySingle, q)

	_, err = ParseQuantity("many")
	require.ErrorIs(t, err, ErrConfig)
}

func TestStatementArgs(t *testing.T) {
	args, err := statementArgs(nil)
	require.NoError(t, err)
	assert.Empty(t, args)

	args, err = statementArgs([]any{1, "a"})
	require.NoError(t, err)
	assert.Equal(t, []any{1, "a"}, args)

	args, err = statementArgs(Row{2})
	require.NoError(t, err)
	assert.Equal(t, []any{2}, args)

	args, err = statementArgs(map[string]any{"b": 2, "a": 1})
	require.NoError(t, err)
	assert.Equal(t, []any{sql.Named("a", 1), sql.Named("b", 2)}, args)

	_, err = statementArgs(42)
	require.ErrorIs(t, err, ErrConfig)
}

func TestBatchArgs(t *testing.T) {
	rows, err := batchArgs([][]any{{1}, {2}})
	require.NoError(t, err)
	assert.Len(t, rows, 2)

	rows, err = batchArgs([]Row{{"a", 1}})
	require.NoError(t, err)
	assert.Equal(t, [][]any{{"a", 1}}, rows)

	_, err = batchArgs([]any{1, 2})
	require.ErrorIs(t, err, ErrConfig)
}
