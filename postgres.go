package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type postgresStore struct {
	pool *pgxpool.Pool
}

const postgresSchema = `
CREATE TABLE IF NOT EXISTS users (
	id BIGSERIAL PRIMARY KEY,
	username TEXT UNIQUE NOT NULL,
	email TEXT NOT NULL DEFAULT '',
	password_hash TEXT NOT NULL,
	date_joined TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS posts (
	id BIGSERIAL PRIMARY KEY,
	user_id BIGINT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
	title TEXT NOT NULL,
	content TEXT NOT NULL,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_posts_user_created ON posts(user_id, created_at DESC);
`

// newPostgresStore connects a pool to dsn and makes sure the schema exists.
func newPostgresStore(ctx context.Context, dsn string, maxConns int32) (*postgresStore, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse postgres dsn: %w", err)
	}
	cfg.MaxConns = maxConns
	cfg.ConnConfig.DefaultQueryExecMode = pgx.QueryExecModeCacheStatement
	cfg.ConnConfig.StatementCacheCapacity = 64

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	if _, err := pool.Exec(ctx, postgresSchema); err != nil {
		pool.Close()
		return nil, fmt.Errorf("create postgres schema: %w", err)
	}
	return &postgresStore{pool: pool}, nil
}

func (s *postgresStore) Close() error {
	s.pool.Close()
	return nil
}

func (s *postgresStore) Users(ctx context.Context) ([]User, error) {
	const q = `SELECT id, username, email, password_hash, date_joined FROM users ORDER BY id`
	rows, err := s.pool.Query(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("query users: %w", err)
	}
	defer rows.Close()

	var res []User
	for rows.Next() {
		var u User
		if err := rows.Scan(&u.ID, &u.Username, &u.Email, &u.PasswordHash, &u.DateJoined); err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		res = append(res, u)
	}
	return res, rows.Err()
}

func (s *postgresStore) UserByUsername(ctx context.Context, username string) (*User, error) {
	const q = `SELECT id, username, email, password_hash, date_joined FROM users WHERE username = $1`
	var u User
	err := s.pool.QueryRow(ctx, q, username).Scan(&u.ID, &u.Username, &u.Email, &u.PasswordHash, &u.DateJoined)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, userNotFound(username)
	}
	if err != nil {
		return nil, fmt.Errorf("query user %q: %w", username, err)
	}
	return &u, nil
}

const pgPostSelect = `
	SELECT p.id, p.user_id, u.username, p.title, p.content, p.created_at
	FROM posts p JOIN users u ON u.id = p.user_id`

func (s *postgresStore) queryPosts(ctx context.Context, q string, args ...any) ([]Post, error) {
	rows, err := s.pool.Query(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("query posts: %w", err)
	}
	defer rows.Close()

	var res []Post
	for rows.Next() {
		var p Post
		if err := rows.Scan(&p.ID, &p.UserID, &p.Username, &p.Title, &p.Content, &p.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan post: %w", err)
		}
		res = append(res, p)
	}
	return res, rows.Err()
}

func (s *postgresStore) Posts(ctx context.Context) ([]Post, error) {
	return s.queryPosts(ctx, pgPostSelect+` ORDER BY p.id`)
}

func (s *postgresStore) PostsByUser(ctx context.Context, userID int64) ([]Post, error) {
	return s.queryPosts(ctx, pgPostSelect+` WHERE p.user_id = $1 ORDER BY p.created_at DESC, p.id DESC`, userID)
}

func (s *postgresStore) PostByID(ctx context.Context, id int64) (*Post, error) {
	var p Post
	err := s.pool.QueryRow(ctx, pgPostSelect+` WHERE p.id = $1`, id).
		Scan(&p.ID, &p.UserID, &p.Username, &p.Title, &p.Content, &p.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, postNotFound(id)
	}
	if err != nil {
		return nil, fmt.Errorf("query post %d: %w", id, err)
	}
	return &p, nil
}

func (s *postgresStore) CreateUser(ctx context.Context, username, email, passwordHash string) (int64, error) {
	const q = `INSERT INTO users (username, email, password_hash) VALUES ($1, $2, $3) RETURNING id`
	var id int64
	if err := s.pool.QueryRow(ctx, q, username, email, passwordHash).Scan(&id); err != nil {
		return 0, fmt.Errorf("insert user %q: %w", username, err)
	}
	return id, nil
}

func (s *postgresStore) CreatePost(ctx context.Context, userID int64, title, content string, createdAt time.Time) (int64, error) {
	const q = `INSERT INTO posts (user_id, title, content, created_at) VALUES ($1, $2, $3, $4) RETURNING id`
	var id int64
	if err := s.pool.QueryRow(ctx, q, userID, title, content, createdAt).Scan(&id); err != nil {
		return 0, fmt.Errorf("insert post: %w", err)
	}
	return id, nil
}
