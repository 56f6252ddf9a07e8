// Package store persists study sessions behind a single key-addressed
// contract with expiry. Two backends exist: Redis (durable, server-side
// TTL) and in-memory (process-local, swept explicitly). The manager never
// knows which one it is talking to.
package store

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/studyai/studyai/internal/config"
	"github.com/studyai/studyai/internal/schema"
)

// ErrSessionNotFound is returned by Get when the id is unknown or the
// entry has expired. It is the only store error callers are expected to
// branch on.
var ErrSessionNotFound = errors.New("session not found")

// SessionStore is the persistence contract. Put always writes the whole
// session as one value and refreshes its TTL; consistency is
// last-write-wins with no isolation between concurrent read-modify-write
// cycles (the session manager serializes those per session id).
type SessionStore interface {
	Get(ctx context.Context, id string) (*schema.Session, error)
	Put(ctx context.Context, s *schema.Session, ttl time.Duration) error
	Delete(ctx context.Context, id string) error
}

// Select picks the backend once at startup: Redis when configured and
// reachable, otherwise the in-memory fallback. The choice is logged; the
// caller treats the result uniformly either way.
func Select(ctx context.Context, cfg config.RedisConfig) SessionStore {
	if cfg.Addr == "" {
		slog.Info("no redis configured, using in-memory session store")
		return NewMemoryStore()
	}

	rs := NewRedisStore(cfg)
	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := rs.Ping(pingCtx); err != nil {
		slog.Warn("redis unreachable, falling back to in-memory session store",
			"addr", cfg.Addr, "err", err)
		return NewMemoryStore()
	}

	slog.Info("using redis session store", "addr", cfg.Addr)
	return rs
}
