package store

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/studyai/studyai/internal/config"
	"github.com/studyai/studyai/internal/schema"
)

const keyPrefix = "session:"

// RedisStore persists sessions as JSON blobs under "session:<id>" with a
// server-enforced TTL, so expired sessions disappear without any sweep.
type RedisStore struct {
	client *redis.Client
}

// NewRedisStore creates a RedisStore from config. The connection is lazy;
// call Ping to verify reachability before committing to this backend.
func NewRedisStore(cfg config.RedisConfig) *RedisStore {
	return &RedisStore{
		client: redis.NewClient(&redis.Options{
			Addr:     cfg.Addr,
			Password: cfg.Password,
			DB:       cfg.DB,
		}),
	}
}

// Ping checks that the Redis server is reachable.
func (r *RedisStore) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

// Get loads a session. A missing key maps to ErrSessionNotFound; any other
// Redis failure is logged and also reported as not-found so the caller can
// recreate the session instead of failing the request.
func (r *RedisStore) Get(ctx context.Context, id string) (*schema.Session, error) {
	data, err := r.client.Get(ctx, sessionKey(id)).Bytes()
	if err == redis.Nil {
		return nil, ErrSessionNotFound
	}
	if err != nil {
		slog.Warn("redis get failed, treating session as missing", "id", id, "err", err)
		return nil, ErrSessionNotFound
	}

	var s schema.Session
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("decode session %s: %w", id, err)
	}
	return &s, nil
}

// Put writes the whole session as one value and refreshes its TTL.
func (r *RedisStore) Put(ctx context.Context, s *schema.Session, ttl time.Duration) error {
	data, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("encode session %s: %w", s.SessionID, err)
	}
	if err := r.client.Set(ctx, sessionKey(s.SessionID), data, ttl).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", s.SessionID, err)
	}
	return nil
}

// Delete removes a session. Deleting a missing key is not an error.
func (r *RedisStore) Delete(ctx context.Context, id string) error {
	if err := r.client.Del(ctx, sessionKey(id)).Err(); err != nil {
		return fmt.Errorf("redis del %s: %w", id, err)
	}
	return nil
}

// Close releases the underlying connection pool.
func (r *RedisStore) Close() error {
	return r.client.Close()
}

func sessionKey(id string) string {
	return keyPrefix + id
}
