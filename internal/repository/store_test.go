package repository

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"

	"github.com/atinyakov/foodsai/internal/db"
)

var fixedNow = time.Date(2024, 5, 17, 10, 30, 0, 0, time.UTC)

// newSQLiteStore opens a fresh on-disk database in a temp dir.
func newSQLiteStore(t *testing.T) *Store {
	t.Helper()
	conn, err := db.InitSQLite(filepath.Join(t.TempDir(), "foodsai.db"))
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return NewStore(conn)
}

// setupMock returns a Store over sqlmock with a fixed clock and id.
func setupMock(t *testing.T) (*Store, sqlmock.Sqlmock, func()) {
	t.Helper()
	conn, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to open sqlmock database: %v", err)
	}
	store := NewStore(conn)
	store.Now = func() time.Time { return fixedNow }
	store.NewID = func() string { return "id-1" }
	cleanup := func() { conn.Close() }
	return store, mock, cleanup
}

func ptr[T any](v T) *T {
	return &v
}
