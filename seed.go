package main

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/crypto/bcrypt"
)

func hashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

type seedPost struct {
	author  string
	title   string
	content string
	age     time.Duration
}

var seedUsers = []string{"alice", "bob", "carol"}

var seedPosts = []seedPost{
	{"alice", "Hello world", "First post on here.", 72 * time.Hour},
	{"bob", "Weekend plans", "Hiking if the weather holds.\n\nOtherwise, books.", 48 * time.Hour},
	{"alice", "Coffee", "Tried a new roaster today.", 24 * time.Hour},
	{"carol", "Reading list", "Three novels and a cookbook.", 6 * time.Hour},
	{"alice", "Finally weekend!", "Nothing planned at all.", time.Hour},
}

// seedDB loads the fixture users and posts unless the store already has users.
func seedDB(ctx context.Context, s WriteStore, password string, now time.Time) error {
	users, err := s.Users(ctx)
	if err != nil {
		return err
	}
	if len(users) > 0 {
		return nil
	}

	hash, err := hashPassword(password)
	if err != nil {
		return fmt.Errorf("hashing seed password: %w", err)
	}

	ids := make(map[string]int64, len(seedUsers))
	for _, name := range seedUsers {
		id, err := s.CreateUser(ctx, name, name+"@example.com", hash)
		if err != nil {
			return err
		}
		ids[name] = id
	}

	for _, p := range seedPosts {
		_, err := s.CreatePost(ctx, ids[p.author], p.title, p.content, now.Add(-p.age))
		if err != nil {
			return err
		}
	}

	return nil
}
