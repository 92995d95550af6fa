package db_test

import (
	"path/filepath"
	"testing"

	"github.com/atinyakov/foodsai/internal/db"
)

func TestInitSQLite_CreatesSchema(t *testing.T) {
	conn, err := db.InitSQLite(filepath.Join(t.TempDir(), "foodsai.db"))
	if err != nil {
		t.Fatalf("InitSQLite returned error: %v", err)
	}
	defer conn.Close()

	var version int
	if err := conn.QueryRow("PRAGMA user_version").Scan(&version); err != nil {
		t.Fatalf("read user_version: %v", err)
	}
	if version != db.SchemaVersion {
		t.Errorf("user_version = %d; want %d", version, db.SchemaVersion)
	}

	for _, table := range []string{
		"guest_users", "settings", "inventory_items", "categories", "recipes",
		"consumption_history", "custom_icons", "pending_migrations", "kv_store", "backups",
	} {
		var name string
		err := conn.QueryRow(`SELECT name FROM sqlite_master WHERE type = 'table' AND name = ?`, table).Scan(&name)
		if err != nil {
			t.Errorf("table %q missing: %v", table, err)
		}
	}
}

func TestInitSQLite_Reopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "foodsai.db")
	first, err := db.InitSQLite(path)
	if err != nil {
		t.Fatalf("first InitSQLite: %v", err)
	}
	if _, err := first.Exec(`INSERT INTO kv_store (key, value) VALUES ('k', 'v')`); err != nil {
		t.Fatalf("insert: %v", err)
	}
	first.Close()

	second, err := db.InitSQLite(path)
	if err != nil {
		t.Fatalf("second InitSQLite: %v", err)
	}
	defer second.Close()

	var value string
	if err := second.QueryRow(`SELECT value FROM kv_store WHERE key = 'k'`).Scan(&value); err != nil {
		t.Fatalf("data lost on reopen: %v", err)
	}
	if value != "v" {
		t.Errorf("value = %q; want %q", value, "v")
	}
}

func TestInitSQLite_ErrorPaths(t *testing.T) {
	dir := t.TempDir()
	cases := []struct {
		name string
		path string
	}{
		{"directory as file", dir},
		{"missing parent", filepath.Join(dir, "no", "such", "dir", "x.db")},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := db.InitSQLite(tc.path)
			if err == nil {
				t.Fatalf("InitSQLite(%q) did not return error", tc.path)
			}
		})
	}
}
