package main

import (
	"context"
	"testing"
	"time"
)

func setupTestStore(t *testing.T) *sqliteStore {
	t.Helper()
	s, err := newSQLiteStore(":memory:")
	if err != nil {
		t.Fatalf("opening test store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestOpenDB(t *testing.T) {
	db, err := openDB(":memory:")
	if err != nil {
		t.Fatalf("openDB() error: %v", err)
	}
	defer db.Close()

	if err := db.Ping(); err != nil {
		t.Errorf("db.Ping() error: %v", err)
	}

	var fk int
	if err := db.QueryRow("PRAGMA foreign_keys").Scan(&fk); err != nil {
		t.Fatalf("reading foreign_keys pragma: %v", err)
	}
	if fk != 1 {
		t.Error("expected foreign keys to be enabled")
	}
}

func TestInitDB(t *testing.T) {
	db, err := openDB(":memory:")
	if err != nil {
		t.Fatalf("openDB() error: %v", err)
	}
	defer db.Close()

	if err := initDB(db); err != nil {
		t.Fatalf("initDB() error: %v", err)
	}

	// Verify users table exists with correct columns
	var count int
	err = db.QueryRow(`SELECT COUNT(*) FROM pragma_table_info('users') WHERE name IN ('id', 'username', 'email', 'password_hash', 'date_joined')`).Scan(&count)
	if err != nil {
		t.Fatalf("querying users schema: %v", err)
	}
	if count != 5 {
		t.Errorf("users table: expected 5 columns, got %d", count)
	}

	// Verify posts table exists with correct columns
	err = db.QueryRow(`SELECT COUNT(*) FROM pragma_table_info('posts') WHERE name IN ('id', 'user_id', 'title', 'content', 'created_at')`).Scan(&count)
	if err != nil {
		t.Fatalf("querying posts schema: %v", err)
	}
	if count != 5 {
		t.Errorf("posts table: expected 5 columns, got %d", count)
	}

	err = db.QueryRow(`SELECT COUNT(*) FROM sqlite_master WHERE type = 'index' AND name = 'idx_posts_user_created'`).Scan(&count)
	if err != nil {
		t.Fatalf("querying indexes: %v", err)
	}
	if count != 1 {
		t.Error("expected idx_posts_user_created to exist")
	}
}

func TestInitDB_Idempotent(t *testing.T) {
	db, err := openDB(":memory:")
	if err != nil {
		t.Fatalf("openDB() error: %v", err)
	}
	defer db.Close()

	// Call initDB twice - should not error
	if err := initDB(db); err != nil {
		t.Fatalf("first initDB() error: %v", err)
	}
	if err := initDB(db); err != nil {
		t.Fatalf("second initDB() error: %v", err)
	}
}

func TestMigrateDB_AddsPostsIndex(t *testing.T) {
	db, err := openDB(":memory:")
	if err != nil {
		t.Fatalf("openDB() error: %v", err)
	}
	defer db.Close()

	// Create posts table WITHOUT the user/created_at index (old schema)
	_, err = db.Exec(`
		CREATE TABLE posts (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			user_id INTEGER NOT NULL,
			title TEXT NOT NULL,
			content TEXT NOT NULL,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)
	`)
	if err != nil {
		t.Fatalf("creating old schema: %v", err)
	}

	if err := migrateDB(db); err != nil {
		t.Fatalf("migrateDB() error: %v", err)
	}

	var count int
	err = db.QueryRow(`SELECT COUNT(*) FROM sqlite_master WHERE type = 'index' AND name = 'idx_posts_user_created'`).Scan(&count)
	if err != nil {
		t.Fatalf("querying indexes: %v", err)
	}
	if count != 1 {
		t.Error("index was not added by migration")
	}
}

func TestInitDB_EmailDefault(t *testing.T) {
	s := setupTestStore(t)

	if _, err := s.db.Exec(`INSERT INTO users (username, password_hash) VALUES ('noemail', 'x')`); err != nil {
		t.Fatalf("inserting user without email: %v", err)
	}

	var email string
	if err := s.db.QueryRow(`SELECT email FROM users WHERE username = 'noemail'`).Scan(&email); err != nil {
		t.Fatalf("reading email: %v", err)
	}
	if email != "" {
		t.Errorf("expected empty default email, got %q", email)
	}
}

func TestSQLiteStore(t *testing.T) {
	testStore(t, setupTestStore(t))
}

func TestSQLiteStore_DateJoinedDefault(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	if _, err := s.CreateUser(ctx, "erin", "", "x"); err != nil {
		t.Fatalf("CreateUser() error: %v", err)
	}
	u, err := s.UserByUsername(ctx, "erin")
	if err != nil {
		t.Fatalf("UserByUsername() error: %v", err)
	}
	if u.DateJoined.IsZero() {
		t.Error("expected date_joined to default to the insert time")
	}
	if time.Since(u.DateJoined) > time.Hour {
		t.Errorf("date_joined %v is not recent", u.DateJoined)
	}
}
