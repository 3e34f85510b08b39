package database

import "testing"

func TestOpenRunsMigrations(t *testing.T) {
	db, err := Open(":memory:")
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer db.Close()

	v, err := SchemaVersion(db)
	if err != nil {
		t.Fatalf("schema version: %v", err)
	}
	if v != 6 {
		t.Errorf("schema version = %d, want 6", v)
	}

	var n int
	if err := db.QueryRow(`SELECT COUNT(*) FROM categories WHERE is_default = 1`).Scan(&n); err != nil {
		t.Fatalf("count categories: %v", err)
	}
	if n != 5 {
		t.Errorf("default categories = %d, want 5", n)
	}

	var fk int
	if err := db.QueryRow(`PRAGMA foreign_keys`).Scan(&fk); err != nil || fk != 1 {
		t.Errorf("foreign_keys = %d, %v", fk, err)
	}
}

func TestOpenTwiceIsIdempotent(t *testing.T) {
	path := t.TempDir() + "/choreify.db"
	for i := 0; i < 2; i++ {
		db, err := Open(path)
		if err != nil {
			t.Fatalf("open #%d: %v", i+1, err)
		}
		db.Close()
	}
}
