package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

// ErrNotFound indicates no live session exists for the user.
var ErrNotFound = errors.New("session not found")

const cacheKeyPrefix = "session:"

// DurableStore is the authoritative session backend. The Redis cache in
// front of it may be flushed or unavailable at any time.
type DurableStore interface {
	Get(ctx context.Context, userID string) (Session, error)
	Put(ctx context.Context, userID string, sess Session, expiresAt time.Time) error
	Delete(ctx context.Context, userID string) error
}

// Store reads and writes sessions through a Redis fast path with a durable
// fallback. A write targets whichever backend is reachable; callers must not
// assume both were updated.
type Store struct {
	cache   *redis.Client
	durable DurableStore
	ttl     time.Duration
	logger  *slog.Logger
}

// NewStore builds a layered session store. cache may be nil, which disables
// the fast path entirely.
func NewStore(cache *redis.Client, durable DurableStore, ttl time.Duration, logger *slog.Logger) *Store {
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &Store{cache: cache, durable: durable, ttl: ttl, logger: logger}
}

// Get returns the user's session, trying the cache first and falling back to
// the durable store on a miss or a cache error.
func (s *Store) Get(ctx context.Context, userID string) (Session, error) {
	if s.cache != nil {
		raw, err := s.cache.Get(ctx, cacheKeyPrefix+userID).Result()
		switch {
		case err == nil:
			var sess Session
			if err := json.Unmarshal([]byte(raw), &sess); err == nil {
				return sess, nil
			}
			s.logger.Warn("corrupt cached session, falling back", "user", userID)
		case errors.Is(err, redis.Nil):
			// cache miss, check durable
		default:
			s.logger.Warn("session cache read failed", "user", userID, "error", err)
		}
	}
	return s.durable.Get(ctx, userID)
}

// Put persists the session with a sliding TTL. The cache is attempted first;
// on any cache failure the durable store is written instead. CreatedAt marks
// when the conversation began and is stamped only when the caller left it
// zero.
func (s *Store) Put(ctx context.Context, userID string, sess Session) error {
	if sess.CreatedAt.IsZero() {
		sess.CreatedAt = time.Now().UTC()
	}

	if s.cache != nil {
		payload, err := json.Marshal(sess)
		if err != nil {
			return fmt.Errorf("encode session: %w", err)
		}
		if err := s.cache.Set(ctx, cacheKeyPrefix+userID, payload, s.ttl).Err(); err == nil {
			return nil
		} else {
			s.logger.Warn("session cache write failed", "user", userID, "error", err)
		}
	}

	if err := s.durable.Put(ctx, userID, sess, time.Now().UTC().Add(s.ttl)); err != nil {
		return fmt.Errorf("persist session: %w", err)
	}
	return nil
}

// Delete removes the session from both backends. Cache errors are logged
// only; the durable delete decides the outcome.
func (s *Store) Delete(ctx context.Context, userID string) error {
	if s.cache != nil {
		if err := s.cache.Del(ctx, cacheKeyPrefix+userID).Err(); err != nil {
			s.logger.Warn("session cache delete failed", "user", userID, "error", err)
		}
	}
	return s.durable.Delete(ctx, userID)
}
