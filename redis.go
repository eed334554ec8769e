package main

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/go-redis/redis/v8"
)

// redisStore keeps users and posts in hashes. Each user's posts are also
// indexed in a sorted set scored by creation time in microseconds.
type redisStore struct {
	rdb *redis.Client
}

func newRedisStore(ctx context.Context, addr string, db int) (*redisStore, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr: addr,
		DB:   db,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		rdb.Close()
		return nil, fmt.Errorf("ping redis %s: %w", addr, err)
	}
	return &redisStore{rdb: rdb}, nil
}

func userKey(id int64) string            { return fmt.Sprintf("user:%d", id) }
func usernameKey(username string) string { return "user:by_username:" + username }
func userPostsKey(id int64) string       { return fmt.Sprintf("user:%d:posts", id) }
func postKey(id int64) string            { return fmt.Sprintf("post:%d", id) }

func (s *redisStore) Close() error {
	return s.rdb.Close()
}

func (s *redisStore) Users(ctx context.Context) ([]User, error) {
	ids, err := s.rdb.ZRange(ctx, "users", 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("listing users: %w", err)
	}

	hashes, err := s.hashes(ctx, "user:", ids)
	if err != nil {
		return nil, fmt.Errorf("loading users: %w", err)
	}

	var users []User
	for _, h := range hashes {
		u, err := decodeUser(h)
		if err != nil {
			return nil, err
		}
		users = append(users, *u)
	}
	return users, nil
}

func (s *redisStore) UserByUsername(ctx context.Context, username string) (*User, error) {
	id, err := s.rdb.Get(ctx, usernameKey(username)).Int64()
	if errors.Is(err, redis.Nil) {
		return nil, userNotFound(username)
	}
	if err != nil {
		return nil, fmt.Errorf("resolving user %q: %w", username, err)
	}

	h, err := s.rdb.HGetAll(ctx, userKey(id)).Result()
	if err != nil {
		return nil, fmt.Errorf("loading user %q: %w", username, err)
	}
	if len(h) == 0 {
		return nil, userNotFound(username)
	}
	return decodeUser(h)
}

func (s *redisStore) Posts(ctx context.Context) ([]Post, error) {
	ids, err := s.rdb.ZRange(ctx, "posts", 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("listing posts: %w", err)
	}
	return s.loadPosts(ctx, ids)
}

func (s *redisStore) PostsByUser(ctx context.Context, userID int64) ([]Post, error) {
	ids, err := s.rdb.ZRevRange(ctx, userPostsKey(userID), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("listing posts for user %d: %w", userID, err)
	}
	return s.loadPosts(ctx, ids)
}

func (s *redisStore) PostByID(ctx context.Context, id int64) (*Post, error) {
	h, err := s.rdb.HGetAll(ctx, postKey(id)).Result()
	if err != nil {
		return nil, fmt.Errorf("loading post %d: %w", id, err)
	}
	if len(h) == 0 {
		return nil, postNotFound(id)
	}
	return decodePost(h)
}

func (s *redisStore) CreateUser(ctx context.Context, username, email, passwordHash string) (int64, error) {
	id, err := s.rdb.Incr(ctx, "seq:users").Result()
	if err != nil {
		return 0, fmt.Errorf("allocating user id: %w", err)
	}

	ok, err := s.rdb.SetNX(ctx, usernameKey(username), id, 0).Result()
	if err != nil {
		return 0, fmt.Errorf("reserving username %q: %w", username, err)
	}
	if !ok {
		return 0, fmt.Errorf("username %q already taken", username)
	}

	_, err = s.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HSet(ctx, userKey(id), map[string]interface{}{
			"id":            id,
			"username":      username,
			"email":         email,
			"password_hash": passwordHash,
			"date_joined":   time.Now().UTC().Format(time.RFC3339Nano),
		})
		pipe.ZAdd(ctx, "users", &redis.Z{Score: float64(id), Member: id})
		return nil
	})
	if err != nil {
		// EXEC does not roll back, so drop whatever part of the user was
		// written and release the username.
		_, cleanupErr := s.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.ZRem(ctx, "users", id)
			pipe.Del(ctx, userKey(id), usernameKey(username))
			return nil
		})
		if cleanupErr != nil {
			return 0, fmt.Errorf("inserting user %q: %w (cleanup: %v)", username, err, cleanupErr)
		}
		return 0, fmt.Errorf("inserting user %q: %w", username, err)
	}
	return id, nil
}

func (s *redisStore) CreatePost(ctx context.Context, userID int64, title, content string, createdAt time.Time) (int64, error) {
	username, err := s.rdb.HGet(ctx, userKey(userID), "username").Result()
	if errors.Is(err, redis.Nil) {
		return 0, fmt.Errorf("inserting post: user %d does not exist", userID)
	}
	if err != nil {
		return 0, fmt.Errorf("inserting post: %w", err)
	}

	id, err := s.rdb.Incr(ctx, "seq:posts").Result()
	if err != nil {
		return 0, fmt.Errorf("allocating post id: %w", err)
	}

	_, err = s.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HSet(ctx, postKey(id), map[string]interface{}{
			"id":         id,
			"user_id":    userID,
			"username":   username,
			"title":      title,
			"content":    content,
			"created_at": createdAt.UTC().Format(time.RFC3339Nano),
		})
		pipe.ZAdd(ctx, "posts", &redis.Z{Score: float64(id), Member: id})
		pipe.ZAdd(ctx, userPostsKey(userID), &redis.Z{Score: float64(createdAt.UnixMicro()), Member: id})
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("inserting post: %w", err)
	}
	return id, nil
}

func (s *redisStore) loadPosts(ctx context.Context, ids []string) ([]Post, error) {
	hashes, err := s.hashes(ctx, "post:", ids)
	if err != nil {
		return nil, fmt.Errorf("loading posts: %w", err)
	}

	var posts []Post
	for _, h := range hashes {
		p, err := decodePost(h)
		if err != nil {
			return nil, err
		}
		posts = append(posts, *p)
	}
	return posts, nil
}

// hashes fetches prefix+id for every id in one round trip, keeping order
// and skipping keys that no longer exist.
func (s *redisStore) hashes(ctx context.Context, prefix string, ids []string) ([]map[string]string, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	pipe := s.rdb.Pipeline()
	cmds := make([]*redis.StringStringMapCmd, len(ids))
	for i, id := range ids {
		cmds[i] = pipe.HGetAll(ctx, prefix+id)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return nil, err
	}

	res := make([]map[string]string, 0, len(cmds))
	for _, cmd := range cmds {
		h := cmd.Val()
		if len(h) == 0 {
			continue
		}
		res = append(res, h)
	}
	return res, nil
}

func decodeUser(h map[string]string) (*User, error) {
	id, err := strconv.ParseInt(h["id"], 10, 64)
	if err != nil {
		return nil, fmt.Errorf("decoding user id %q: %w", h["id"], err)
	}
	joined, err := time.Parse(time.RFC3339Nano, h["date_joined"])
	if err != nil {
		return nil, fmt.Errorf("decoding user %d date_joined: %w", id, err)
	}
	return &User{
		ID:           id,
		Username:     h["username"],
		Email:        h["email"],
		PasswordHash: h["password_hash"],
		DateJoined:   joined,
	}, nil
}

func decodePost(h map[string]string) (*Post, error) {
	id, err := strconv.ParseInt(h["id"], 10, 64)
	if err != nil {
		return nil, fmt.Errorf("decoding post id %q: %w", h["id"], err)
	}
	userID, err := strconv.ParseInt(h["user_id"], 10, 64)
	if err != nil {
		return nil, fmt.Errorf("decoding post %d user_id: %w", id, err)
	}
	created, err := time.Parse(time.RFC3339Nano, h["created_at"])
	if err != nil {
		return nil, fmt.Errorf("decoding post %d created_at: %w", id, err)
	}
	return &Post{
		ID:        id,
		UserID:    userID,
		Username:  h["username"],
		Title:     h["title"],
		Content:   h["content"],
		CreatedAt: created,
	}, nil
}
