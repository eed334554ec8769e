package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

const postColumns = `p.id, p.user_id, u.username, p.title, p.content, p.created_at
	FROM posts p JOIN users u ON u.id = p.user_id`

func scanPosts(rows *sql.Rows) ([]Post, error) {
	defer rows.Close()

	var posts []Post
	for rows.Next() {
		var post Post
		err := rows.Scan(&post.ID, &post.UserID, &post.Username, &post.Title, &post.Content, &post.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("scanning post: %w", err)
		}
		posts = append(posts, post)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating posts: %w", err)
	}

	return posts, nil
}

func (s *sqliteStore) Posts(ctx context.Context) ([]Post, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT "+postColumns+" ORDER BY p.id")
	if err != nil {
		return nil, fmt.Errorf("querying posts: %w", err)
	}
	return scanPosts(rows)
}

func (s *sqliteStore) PostsByUser(ctx context.Context, userID int64) ([]Post, error) {
	query := "SELECT " + postColumns + " WHERE p.user_id = ? ORDER BY p.created_at DESC, p.id DESC"
	rows, err := s.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("querying posts for user %d: %w", userID, err)
	}
	return scanPosts(rows)
}

func (s *sqliteStore) PostByID(ctx context.Context, id int64) (*Post, error) {
	row := s.db.QueryRowContext(ctx, "SELECT "+postColumns+" WHERE p.id = ?", id)

	var post Post
	err := row.Scan(&post.ID, &post.UserID, &post.Username, &post.Title, &post.Content, &post.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, postNotFound(id)
	}
	if err != nil {
		return nil, fmt.Errorf("getting post %d: %w", id, err)
	}

	return &post, nil
}

func (s *sqliteStore) CreatePost(ctx context.Context, userID int64, title, content string, createdAt time.Time) (int64, error) {
	result, err := s.db.ExecContext(ctx, `
		INSERT INTO posts (user_id, title, content, created_at)
		VALUES (?, ?, ?, ?)`, userID, title, content, createdAt.UTC())
	if err != nil {
		return 0, fmt.Errorf("inserting post: %w", err)
	}
	return result.LastInsertId()
}
