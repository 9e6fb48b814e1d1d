package testutil

import (
	"database/sql"
	"testing"

	"patronite-snapshot/internal/db"

	_ "modernc.org/sqlite"
)

// SetupDB returns an in-memory sqlite database with the schema applied, it is
// closed when the test finishes.
func SetupDB(t testing.TB) *sql.DB {
	t.Helper()

	sqlite, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatal(err)
	}
	// every connection to :memory: is a different database
	sqlite.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlite.Close() })

	_, err = sqlite.Exec(db.Schema)
	if err != nil {
		t.Fatal(err)
	}
	return sqlite
}
