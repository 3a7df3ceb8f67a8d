// Package testdb provides utilities for tests that need a real PostgreSQL
// database.
//
// Tests call GetTestDBWithT, which skips the test when no database URL is
// configured, applies the migrations from the source tree and closes the
// connection on cleanup. ResetTables empties the task tables between tests
// and WithTx runs a function in a transaction that is always rolled back.
//
// # Basic Usage
//
//	func TestMyFeature(t *testing.T) {
//	    db := testdb.GetTestDBWithT(t)
//	    testdb.ResetTables(t, db)
//
//	    testdb.WithTx(t, db, func(t *testing.T, tx *sql.Tx) {
//	        // changes made through tx are discarded afterwards
//	    })
//	}
//
// The database URL is read from DATABASE_URL, then TASKD_TEST_DATABASE_URL,
// then TASKD_STORAGE_DATABASE_URL.
package testdb
