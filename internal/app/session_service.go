package app

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"time"

	"docvault/internal/model"
)

const tokenBytes = 32 // 256 bits of entropy

// SessionStore is the durable session table surface.
type SessionStore interface {
	Create(session *model.Session) error
	GetByToken(token string) (*model.Session, error)
	DeleteByToken(token string) error
}

// SessionReadCache fronts the store on validation; misses and failures
// fall through to the store, so the cache is never load-bearing for
// correctness.
type SessionReadCache interface {
	Get(ctx context.Context, token string) (*model.Session, bool, error)
	Set(ctx context.Context, session *model.Session) error
	Delete(ctx context.Context, token string) error
}

// SessionService issues, validates, and revokes login sessions. Expired and
// revoked sessions are indistinguishable to callers: both fail validation
// and the row is gone afterward.
type SessionService struct {
	sessions SessionStore
	cache    SessionReadCache
	ttl      time.Duration

	now func() time.Time
}

func NewSessionService(sessions SessionStore, cache SessionReadCache, ttl time.Duration) *SessionService {
	if ttl <= 0 {
		ttl = 7 * 24 * time.Hour
	}
	return &SessionService{
		sessions: sessions,
		cache:    cache,
		ttl:      ttl,
		now:      time.Now,
	}
}

func (s *SessionService) Start(ctx context.Context, account *model.Account) (*model.Session, error) {
	if account == nil || account.ID == 0 {
		return nil, ErrInvalidInput
	}

	buf := make([]byte, tokenBytes)
	if _, err := rand.Read(buf); err != nil {
		return nil, fmt.Errorf("generate session token failed: %w", err)
	}

	now := s.now()
	session := &model.Session{
		Token:     hex.EncodeToString(buf),
		AccountID: account.ID,
		CreatedAt: now,
		ExpiresAt: now.Add(s.ttl),
	}
	if err := s.sessions.Create(session); err != nil {
		return nil, err
	}
	if s.cache != nil {
		// Cache failures must not fail login; the store is authoritative.
		_ = s.cache.Set(ctx, session)
	}
	return session, nil
}

// Validate resolves a token to its owning account id, failing closed:
// unknown tokens and expired sessions never resolve.
func (s *SessionService) Validate(ctx context.Context, token string) (uint, error) {
	if token == "" {
		return 0, ErrSessionNotFound
	}

	var session *model.Session
	if s.cache != nil {
		if cached, ok, err := s.cache.Get(ctx, token); err == nil && ok {
			session = cached
		}
	}
	if session == nil {
		stored, err := s.sessions.GetByToken(token)
		if err != nil {
			return 0, err
		}
		if stored == nil {
			return 0, ErrSessionNotFound
		}
		session = stored
	}

	if session.Expired(s.now()) {
		// Lazy reaping: the expired row is purged on first touch.
		_ = s.End(ctx, token)
		return 0, ErrSessionExpired
	}

	if s.cache != nil {
		_ = s.cache.Set(ctx, session)
	}
	return session.AccountID, nil
}

// End revokes a session. Idempotent: ending an absent session is not an
// error.
func (s *SessionService) End(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}
	if s.cache != nil {
		_ = s.cache.Delete(ctx, token)
	}
	return s.sessions.DeleteByToken(token)
}
