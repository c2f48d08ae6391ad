package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/angelmondragon/repairdesk-backend/pkg/security"
	redislib "github.com/redis/go-redis/v9"
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

func (m *mockStore) AccessSessionKey(accessID string) string {
	return fmt.Sprintf("sess:%s", accessID)
}

func newTestManager() (*Manager, *mockStore) {
	store := newMockStore()
	return &Manager{store: store, keyer: store, ttl: time.Hour}, store
}

func TestManagerOpenStoresFingerprint(t *testing.T) {
	manager, store := newTestManager()
	ctx := context.Background()

	if err := manager.Open(ctx, "access-123", "refresh.jwt"); err != nil {
		t.Fatalf("open: %v", err)
	}
	stored := store.data[store.AccessSessionKey("access-123")]
	if stored == "refresh.jwt" {
		t.Fatalf("raw refresh token must not be stored")
	}
	if stored != security.TokenFingerprint("refresh.jwt") {
		t.Fatalf("unexpected stored value %q", stored)
	}

	ok, err := manager.HasSession(ctx, "access-123")
	if err != nil || !ok {
		t.Fatalf("expected session, got %v %v", ok, err)
	}
}

func TestManagerRotate(t *testing.T) {
	manager, store := newTestManager()
	ctx := context.Background()

	if err := manager.Open(ctx, "old", "refresh-1"); err != nil {
		t.Fatalf("open: %v", err)
	}

	if err := manager.Rotate(ctx, "old", "wrong", "new", "refresh-2"); !errors.Is(err, ErrInvalidRefreshToken) {
		t.Fatalf("expected invalid refresh token error, got %v", err)
	}

	if err := manager.Rotate(ctx, "old", "refresh-1", "new", "refresh-2"); err != nil {
		t.Fatalf("rotate: %v", err)
	}
	if _, exists := store.data[store.AccessSessionKey("old")]; exists {
		t.Fatalf("old access key left behind")
	}
	if err := manager.Verify(ctx, "new", "refresh-2"); err != nil {
		t.Fatalf("expected new session to verify: %v", err)
	}
	if err := manager.Rotate(ctx, "old", "refresh-1", "newer", "refresh-3"); !errors.Is(err, ErrInvalidRefreshToken) {
		t.Fatalf("replayed refresh token should fail, got %v", err)
	}
}

func TestManagerRevoke(t *testing.T) {
	manager, _ := newTestManager()
	ctx := context.Background()

	if err := manager.Open(ctx, "access", "refresh"); err != nil {
		t.Fatalf("open: %v", err)
	}
	if err := manager.Revoke(ctx, "access"); err != nil {
		t.Fatalf("revoke: %v", err)
	}
	ok, err := manager.HasSession(ctx, "access")
	if err != nil || ok {
		t.Fatalf("expected no session after revoke, got %v %v", ok, err)
	}
	if err := manager.Revoke(ctx, ""); err == nil {
		t.Fatal("expected error for empty access id")
	}
}
