package session

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	redislib "github.com/redis/go-redis/v9"

	"github.com/adee-tech/adee-backend/pkg/config"
	pkgerrors "github.com/adee-tech/adee-backend/pkg/errors"
	redisclient "github.com/adee-tech/adee-backend/pkg/redis"
)

type sessionStore interface {
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	Get(ctx context.Context, key string) (string, error)
	Del(ctx context.Context, keys ...string) error
}

type sessionKeyer interface {
	RefreshTokenKey(userID string) string
}

// Manager is the server-side authority over refresh sessions. A user has at
// most one live refresh token at a time, stored in Redis under their id; a
// signed token that is absent from the store is revoked, not merely stale.
type Manager struct {
	store sessionStore
	keyer sessionKeyer
	ttl   time.Duration
}

// NewManager constructs a session manager backed by Redis.
func NewManager(client *redisclient.Client, cfg config.JWTConfig) (*Manager, error) {
	if client == nil {
		return nil, fmt.Errorf("redis client is required")
	}
	ttl := cfg.RefreshTTL()
	if ttl <= 0 {
		return nil, fmt.Errorf("refresh token ttl must be positive")
	}
	if ttl <= cfg.AccessTTL() {
		return nil, fmt.Errorf("refresh token ttl (%s) must exceed access token ttl (%s)", ttl, cfg.AccessTTL())
	}

	return &Manager{
		store: client,
		keyer: client,
		ttl:   ttl,
	}, nil
}

// Store records token as the user's current refresh token, displacing any
// previous one. Logging in on a second device logs the first one out.
func (m *Manager) Store(ctx context.Context, userID uuid.UUID, token string) error {
	if userID == uuid.Nil {
		return fmt.Errorf("user id is required")
	}
	if strings.TrimSpace(token) == "" {
		return fmt.Errorf("refresh token is required")
	}
	return m.store.Set(ctx, m.keyer.RefreshTokenKey(userID.String()), token, m.ttl)
}

// Validate checks that provided is exactly the user's stored refresh token.
// A missing or mismatched token yields TOKEN_REVOKED.
func (m *Manager) Validate(ctx context.Context, userID uuid.UUID, provided string) error {
	if userID == uuid.Nil || strings.TrimSpace(provided) == "" {
		return pkgerrors.New(pkgerrors.CodeTokenRevoked, "refresh session not found")
	}

	stored, err := m.store.Get(ctx, m.keyer.RefreshTokenKey(userID.String()))
	if err != nil {
		if errors.Is(err, redislib.Nil) {
			return pkgerrors.New(pkgerrors.CodeTokenRevoked, "refresh session not found")
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reading refresh session")
	}

	if subtle.ConstantTimeCompare([]byte(stored), []byte(provided)) != 1 {
		return pkgerrors.New(pkgerrors.CodeTokenRevoked, "refresh token superseded")
	}
	return nil
}

// Revoke deletes the user's refresh session. Deleting an absent session is
// not an error.
func (m *Manager) Revoke(ctx context.Context, userID uuid.UUID) error {
	if userID == uuid.Nil {
		return fmt.Errorf("user id is required")
	}
	return m.store.Del(ctx, m.keyer.RefreshTokenKey(userID.String()))
}
