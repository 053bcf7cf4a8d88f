// Package fixtures provides test data factories for handle tests.
//
// # Factory Pattern
//
// Create a factory on a test handle:
//
//	tdb := testdb.NewSQLite(t)
//	f := fixtures.New(tdb.Handle)
//
// # Creating Test Data
//
//	f.CreateUsersTable(t)
//	ann := f.CreateUser(t, fixtures.WithName("Ann"), fixtures.WithAge(30))
//	bo := f.CreateUser(t, fixtures.WithName("Bo"), fixtures.WithNullAge())
//	many := f.CreateUsers(t, 50) // one batch insert
//
// # Random Data
//
// Names default to user_<random hex>, so repeated calls never collide.
//
// Statements use portable column types and %s placeholders, so the same
// fixtures seed SQLite and live server handles.
package fixtures
