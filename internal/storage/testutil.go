package storage

import (
	"database/sql"
	"testing"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/require"
)

// NewTestDB creates an in-memory SQLite database with the full schema.
// Cleanup is registered with t.Cleanup().
//
// Example:
//
//	func TestSomething(t *testing.T) {
//	    db := storage.NewTestDB(t)
//	    store := storage.NewStore(db)
//	    // ... test code ...
//	}
func NewTestDB(t testing.TB) *sql.DB {
	t.Helper()

	db, err := sql.Open("sqlite3", ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	// Every connection to ":memory:" is a separate database.
	db.SetMaxOpenConns(1)

	require.NoError(t, CreateSchema(db))
	return db
}

// NewTestStore creates a store on a fresh test database whose clock returns
// the times produced by clock.
func NewTestStore(t testing.TB, clock func() time.Time) *Store {
	t.Helper()

	s := NewStore(NewTestDB(t))
	if clock != nil {
		s.now = clock
	}
	return s
}
