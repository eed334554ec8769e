package main

import "time"

type User struct {
	ID           int64
	Username     string
	Email        string
	PasswordHash string
	DateJoined   time.Time
}

// Post is authored by exactly one user. Username is filled from the
// author's row so list pages can link to the profile without another query.
type Post struct {
	ID        int64
	UserID    int64
	Username  string
	Title     string
	Content   string
	CreatedAt time.Time
}
