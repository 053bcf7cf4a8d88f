package dbunified_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/fbourgeois24/db-unified/internal/testing/testdb"
	"github.com/fbourgeois24/db-unified/pkg/dbunified"
)

// These tests run against real servers configured through TEST_DB_<KIND>_*
// and are skipped otherwise.

func TestLive_SelectWithNames(t *testing.T) {
	for _, kind := range []dbunified.Kind{
		dbunified.KindPostgreSQL,
		dbunified.KindMariaDB,
		dbunified.KindMySQL,
		dbunified.KindSQLServer,
	} {
		t.Run(string(kind), func(t *testing.T) {
			tdb := testdb.NewLive(t, kind)

			result := tdb.MustRun("SELECT 1 AS one, NULL AS nothing", nil,
				dbunified.Fetch(dbunified.QuantityOne), dbunified.As(dbunified.ShapeWithNames))

			titled, ok := result.([]any)
			if assert.True(t, ok) && assert.Len(t, titled, 2) {
				assert.Equal(t, []string{"one", "nothing"}, titled[0])
				values := titled[1].([]any)
				assert.Equal(t, "", values[1])
			}
		})
	}
}

func TestLive_SurrealDB(t *testing.T) {
	tdb := testdb.NewLive(t, dbunified.KindSurrealDB)

	tdb.MustExec("CREATE person:ann SET name = %s, age = %s", []any{"Ann", 30})
	defer tdb.MustExec("DELETE person", nil)

	result := tdb.MustRun("SELECT name, age FROM person", nil, dbunified.As(dbunified.ShapeWithNames))

	titled, ok := result.([]any)
	if assert.True(t, ok) && assert.Len(t, titled, 2) {
		assert.Equal(t, []string{"age", "name"}, titled[0])
	}
}
