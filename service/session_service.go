package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/jonasXchen/magicblock-hacker-house/core"
	"github.com/jonasXchen/magicblock-hacker-house/ports"
)

const DefaultSessionTTL = time.Hour

// SessionService issues and resolves opaque wallet sessions
type SessionService struct {
	tokenizer ports.Tokenizer
	store     ports.SessionStore

	ttl time.Duration
	now func() time.Time
}

// NewSessionService creates a new session service. A zero ttl means one hour.
func NewSessionService(tokenizer ports.Tokenizer, store ports.SessionStore, ttl time.Duration) *SessionService {
	if ttl <= 0 {
		ttl = DefaultSessionTTL
	}
	return &SessionService{
		tokenizer: tokenizer,
		store:     store,
		ttl:       ttl,
		now:       time.Now,
	}
}

// TTL returns the lifetime of newly issued sessions
func (s *SessionService) TTL() time.Duration {
	return s.ttl
}

// Issue creates a session for a verified wallet and returns its token
func (s *SessionService) Issue(ctx context.Context, walletIdentity string) (string, *core.Session, error) {
	// Token claims carry whole seconds; the session matches them exactly.
	now := s.now().Truncate(time.Second)
	session := &core.Session{
		ID:             uuid.New().String(),
		WalletIdentity: walletIdentity,
		IssuedAt:       now,
		ExpiresAt:      now.Add(s.ttl).Truncate(time.Second),
	}

	if err := s.store.Save(ctx, session); err != nil {
		return "", nil, fmt.Errorf("failed to store session: %w", err)
	}

	token, err := s.tokenizer.SessionToToken(session)
	if err != nil {
		_ = s.store.Delete(ctx, session.ID)
		return "", nil, fmt.Errorf("failed to create session token: %w", err)
	}

	return token, session, nil
}

// Validate resolves a token to its live session
func (s *SessionService) Validate(ctx context.Context, token string) (*core.Session, error) {
	if token == "" {
		return nil, core.ErrInvalidToken
	}

	sessionID, err := s.tokenizer.TokenToSessionID(token)
	if err != nil {
		return nil, err
	}

	session, err := s.store.Get(ctx, sessionID)
	if err != nil {
		if errors.Is(err, core.ErrSessionNotFound) || errors.Is(err, core.ErrSessionExpired) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to load session: %w", err)
	}

	if session.Expired(s.now()) {
		return nil, core.ErrSessionExpired
	}

	return session, nil
}

// Revoke deletes the session behind token and returns it
func (s *SessionService) Revoke(ctx context.Context, token string) (*core.Session, error) {
	session, err := s.Validate(ctx, token)
	if err != nil {
		return nil, err
	}

	if err := s.store.Delete(ctx, session.ID); err != nil {
		return nil, fmt.Errorf("failed to delete session: %w", err)
	}

	return session, nil
}
