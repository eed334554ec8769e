package main

import (
	"context"
	"testing"

	"golang.org/x/crypto/bcrypt"
)

func TestHashPassword(t *testing.T) {
	hash, err := hashPassword("hunter2")
	if err != nil {
		t.Fatalf("hashPassword() error: %v", err)
	}
	if hash == "hunter2" {
		t.Fatal("hash must not equal the password")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte("hunter2")); err != nil {
		t.Errorf("hash does not verify: %v", err)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte("wrong")); err == nil {
		t.Error("wrong password verified")
	}
}

func TestSeedDB(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	if err := seedDB(ctx, s, "secret", fixtureNow); err != nil {
		t.Fatalf("seedDB() error: %v", err)
	}

	users, err := s.Users(ctx)
	if err != nil {
		t.Fatalf("Users() error: %v", err)
	}
	if len(users) != 3 {
		t.Errorf("expected 3 users, got %d", len(users))
	}

	posts, err := s.Posts(ctx)
	if err != nil {
		t.Fatalf("Posts() error: %v", err)
	}
	if len(posts) != 5 {
		t.Errorf("expected 5 posts, got %d", len(posts))
	}

	authors := make(map[string]int)
	for _, p := range posts {
		authors[p.Username]++
	}
	if len(authors) != 3 {
		t.Errorf("expected posts split across 3 users, got %v", authors)
	}
}

func TestSeedDB_SkipsWhenDataExists(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	if _, err := s.CreateUser(ctx, "existing", "", "x"); err != nil {
		t.Fatalf("CreateUser() error: %v", err)
	}

	if err := seedDB(ctx, s, "secret", fixtureNow); err != nil {
		t.Fatalf("seedDB() error: %v", err)
	}

	users, err := s.Users(ctx)
	if err != nil {
		t.Fatalf("Users() error: %v", err)
	}
	if len(users) != 1 {
		t.Errorf("expected seeding to be skipped, got %d users", len(users))
	}
}
