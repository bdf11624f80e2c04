package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/jonasXchen/magicblock-hacker-house/core"
)

// RedisStore is a Redis implementation of the SessionStore interface.
// Keys carry the session's remaining lifetime as their TTL.
type RedisStore struct {
	client *redis.Client
	prefix string
	now    func() time.Time
}

type redisSession struct {
	WalletIdentity string    `json:"wallet_identity"`
	IssuedAt       time.Time `json:"issued_at"`
	ExpiresAt      time.Time `json:"expires_at"`
}

// NewRedisStore creates a new Redis session store
func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{
		client: client,
		prefix: "hackerhouse:session:",
		now:    time.Now,
	}
}

// Save stores a session with an expiry matching its own
func (s *RedisStore) Save(ctx context.Context, session *core.Session) error {
	ttl := session.ExpiresAt.Sub(s.now())
	if ttl <= 0 {
		return core.ErrSessionExpired
	}

	payload, err := json.Marshal(redisSession{
		WalletIdentity: session.WalletIdentity,
		IssuedAt:       session.IssuedAt,
		ExpiresAt:      session.ExpiresAt,
	})
	if err != nil {
		return fmt.Errorf("failed to marshal session: %w", err)
	}

	if err := s.client.Set(ctx, s.prefix+session.ID, payload, ttl).Err(); err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}
	return nil
}

// Get loads a session from Redis
func (s *RedisStore) Get(ctx context.Context, sessionID string) (*core.Session, error) {
	raw, err := s.client.Get(ctx, s.prefix+sessionID).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, core.ErrSessionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load session: %w", err)
	}

	var stored redisSession
	if err := json.Unmarshal(raw, &stored); err != nil {
		return nil, fmt.Errorf("failed to decode session: %w", err)
	}

	session := &core.Session{
		ID:             sessionID,
		WalletIdentity: stored.WalletIdentity,
		IssuedAt:       stored.IssuedAt,
		ExpiresAt:      stored.ExpiresAt,
	}
	if session.Expired(s.now()) {
		return nil, core.ErrSessionExpired
	}
	return session, nil
}

// Delete removes a session from Redis
func (s *RedisStore) Delete(ctx context.Context, sessionID string) error {
	if err := s.client.Del(ctx, s.prefix+sessionID).Err(); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return nil
}

// Ping checks the Redis connection; used by the readiness probe
func (s *RedisStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}
