package session

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	redislib "github.com/redis/go-redis/v9"

	pkgerrors "github.com/adee-tech/adee-backend/pkg/errors"
)

type mockStore struct {
	mu   sync.Mutex
	data map[string]string
}

func newMockStore() *mockStore {
	return &mockStore{data: make(map[string]string)}
}

func (m *mockStore) Set(ctx context.Context, key string, value any, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = fmt.Sprint(value)
	return nil
}

func (m *mockStore) Get(ctx context.Context, key string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	val, ok := m.data[key]
	if !ok {
		return "", redislib.Nil
	}
	return val, nil
}

func (m *mockStore) Del(ctx context.Context, keys ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, key := range keys {
		delete(m.data, key)
	}
	return nil
}

func (m *mockStore) RefreshTokenKey(userID string) string {
	return fmt.Sprintf("refresh:%s", userID)
}

func newTestManager() (*Manager, *mockStore) {
	store := newMockStore()
	return &Manager{
		store: store,
		keyer: store,
		ttl:   time.Hour,
	}, store
}

func TestManagerStoreAndValidate(t *testing.T) {
	manager, store := newTestManager()
	ctx := context.Background()
	userID := uuid.New()

	if err := manager.Store(ctx, userID, "token-one"); err != nil {
		t.Fatalf("store: %v", err)
	}
	if stored := store.data[store.RefreshTokenKey(userID.String())]; stored != "token-one" {
		t.Fatalf("expected stored token, got %q", stored)
	}

	if err := manager.Validate(ctx, userID, "token-one"); err != nil {
		t.Fatalf("validate: %v", err)
	}
}

func TestManagerStoreDisplacesPrevious(t *testing.T) {
	manager, _ := newTestManager()
	ctx := context.Background()
	userID := uuid.New()

	if err := manager.Store(ctx, userID, "token-one"); err != nil {
		t.Fatalf("store: %v", err)
	}
	if err := manager.Store(ctx, userID, "token-two"); err != nil {
		t.Fatalf("store: %v", err)
	}

	err := manager.Validate(ctx, userID, "token-one")
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeTokenRevoked {
		t.Fatalf("expected TOKEN_REVOKED for displaced token, got %v", err)
	}
	if err := manager.Validate(ctx, userID, "token-two"); err != nil {
		t.Fatalf("validate current token: %v", err)
	}
}

func TestManagerValidateMissingSession(t *testing.T) {
	manager, _ := newTestManager()

	err := manager.Validate(context.Background(), uuid.New(), "anything")
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeTokenRevoked {
		t.Fatalf("expected TOKEN_REVOKED for missing session, got %v", err)
	}
}

func TestManagerRevoke(t *testing.T) {
	manager, store := newTestManager()
	ctx := context.Background()
	userID := uuid.New()

	if err := manager.Store(ctx, userID, "token-one"); err != nil {
		t.Fatalf("store: %v", err)
	}
	if err := manager.Revoke(ctx, userID); err != nil {
		t.Fatalf("revoke: %v", err)
	}
	if _, exists := store.data[store.RefreshTokenKey(userID.String())]; exists {
		t.Fatal("refresh key left behind")
	}

	err := manager.Validate(ctx, userID, "token-one")
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeTokenRevoked {
		t.Fatalf("expected TOKEN_REVOKED after revoke, got %v", err)
	}

	// Revoking twice is a no-op.
	if err := manager.Revoke(ctx, userID); err != nil {
		t.Fatalf("revoke absent session: %v", err)
	}
}
