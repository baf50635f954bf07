// Package tokens holds the Redis implementation of the auth token store.
// The SQL implementation lives with the other tables in internal/repos.
package tokens

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/IngKendrys/scrap-backend/internal/domain"
)

// issue returns the existing key of a user or stores the candidate.
// KEYS[1] = user:<id>, ARGV[1] = candidate key, ARGV[2] = user id.
var issueScript = redis.NewScript(`
local existing = redis.call("GET", KEYS[1])
if existing then
  return existing
end
redis.call("SET", KEYS[1], ARGV[1])
redis.call("SET", "token:" .. ARGV[1], ARGV[2])
return ARGV[1]
`)

// revoke drops both directions of a key. Returns 1 if the key existed.
var revokeScript = redis.NewScript(`
local uid = redis.call("GET", KEYS[1])
if not uid then
  return 0
end
redis.call("DEL", KEYS[1])
redis.call("DEL", "user:" .. uid)
return 1
`)

type RedisStore struct {
	rdb *redis.Client
}

// NewRedisStore connects and pings the server.
func NewRedisStore(addr, password string, db int) (*RedisStore, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, errors.Wrap(err, "redis ping")
	}
	return &RedisStore{rdb: rdb}, nil
}

func (s *RedisStore) Close() error { return s.rdb.Close() }

func (s *RedisStore) Issue(ctx context.Context, userID int64) (string, error) {
	candidate := strings.ReplaceAll(uuid.NewString(), "-", "")
	key, err := issueScript.Run(ctx, s.rdb, []string{userKey(userID)}, candidate, userID).Text()
	if err != nil {
		return "", errors.Wrap(err, "issue token")
	}
	return key, nil
}

func (s *RedisStore) Resolve(ctx context.Context, key string) (int64, error) {
	id, err := s.rdb.Get(ctx, tokenKey(key)).Int64()
	if err == redis.Nil {
		return 0, domain.ErrTokenNotFound
	}
	if err != nil {
		return 0, errors.Wrap(err, "resolve token")
	}
	return id, nil
}

func (s *RedisStore) Revoke(ctx context.Context, key string) (bool, error) {
	n, err := revokeScript.Run(ctx, s.rdb, []string{tokenKey(key)}).Int64()
	if err != nil {
		return false, errors.Wrap(err, "revoke token")
	}
	return n == 1, nil
}

func tokenKey(k string) string { return "token:" + k }
func userKey(id int64) string { return fmt.Sprintf("user:%d", id) }
