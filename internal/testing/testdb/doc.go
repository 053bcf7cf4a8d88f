// Package testdb provides test database utilities for dbunified.
//
// # SQLite
//
// Every test gets its own database file in t.TempDir():
//
//	func TestA(t *testing.T) {
//	    tdb := testdb.NewSQLite(t) // closed by t.Cleanup
//	}
//
// # Live servers
//
// Handles for server backends read their connection fields from
// TEST_DB_<KIND>_HOST, _PORT, _NAME, _USER, _PASSWORD, _SSLMODE and
// _OPTIONS, where KIND is POSTGRESQL, MARIADB, MYSQL, SQLSERVER or
// SURREALDB. Tests are skipped when the host variable is unset:
//
//	func TestPostgres(t *testing.T) {
//	    tdb := testdb.NewLive(t, dbunified.KindPostgreSQL)
//	    tdb.MustExec("CREATE TABLE IF NOT EXISTS t (id int)", nil)
//	}
package testdb
