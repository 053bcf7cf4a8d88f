// Package helpers provides test utility functions for handle tests.
//
// # Assertion Helpers
//
// Row assertions run through the handle under test, so they hold for every
// backend:
//
//	helpers.AssertRowCount(t, tdb.Handle, "users", 2)
//	helpers.AssertRecordExists(t, tdb.Handle, "users", "name", "Ann")
//	helpers.AssertRecordNotExists(t, tdb.Handle, "users", "name", "Bo")
package helpers
