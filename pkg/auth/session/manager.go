package session

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/angelmondragon/repairdesk-backend/pkg/config"
	redisclient "github.com/angelmondragon/repairdesk-backend/pkg/redis"
	"github.com/angelmondragon/repairdesk-backend/pkg/security"
	"github.com/google/uuid"
	redislib "github.com/redis/go-redis/v9"
)

var ErrInvalidRefreshToken = errors.New("invalid refresh token")

type sessionStore interface {
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	Get(ctx context.Context, key string) (string, error)
	Del(ctx context.Context, keys ...string) error
}

type sessionKeyer interface {
	AccessSessionKey(accessID string) string
}

// Manager binds each access token id (jti) to the fingerprint of the refresh
// token issued with it. Deleting the binding invalidates both tokens.
type Manager struct {
	store sessionStore
	keyer sessionKeyer
	ttl   time.Duration
}

// AccessSessionChecker exposes the read-only surface needed by middleware.
type AccessSessionChecker interface {
	HasSession(ctx context.Context, accessID string) (bool, error)
}

// NewManager constructs a session manager backed by Redis.
func NewManager(client *redisclient.Client, cfg config.JWTConfig) (*Manager, error) {
	if client == nil {
		return nil, fmt.Errorf("redis client is required")
	}
	ttl := cfg.RefreshTokenTTL()
	if ttl <= 0 {
		return nil, fmt.Errorf("refresh token ttl must be positive")
	}
	if ttl <= cfg.AccessTokenTTL() {
		return nil, fmt.Errorf("refresh token ttl (%s) must exceed access token ttl (%s)", ttl, cfg.AccessTokenTTL())
	}

	return &Manager{
		store: client,
		keyer: client,
		ttl:   ttl,
	}, nil
}

// Open stores the refresh token fingerprint for a freshly minted access id.
func (m *Manager) Open(ctx context.Context, accessID, refreshToken string) error {
	if strings.TrimSpace(accessID) == "" {
		return fmt.Errorf("access id is required")
	}
	if strings.TrimSpace(refreshToken) == "" {
		return fmt.Errorf("refresh token is required")
	}
	return m.store.Set(ctx, m.keyer.AccessSessionKey(accessID), security.TokenFingerprint(refreshToken), m.ttl)
}

// Rotate checks the presented refresh token against the session of oldAccessID,
// then moves the session to newAccessID/newRefresh.
func (m *Manager) Rotate(ctx context.Context, oldAccessID, provided, newAccessID, newRefresh string) error {
	if err := m.Verify(ctx, oldAccessID, provided); err != nil {
		return err
	}
	if err := m.Open(ctx, newAccessID, newRefresh); err != nil {
		return err
	}
	return m.store.Del(ctx, m.keyer.AccessSessionKey(oldAccessID))
}

// Verify reports ErrInvalidRefreshToken unless provided matches the stored session.
func (m *Manager) Verify(ctx context.Context, accessID, provided string) error {
	if strings.TrimSpace(accessID) == "" || strings.TrimSpace(provided) == "" {
		return ErrInvalidRefreshToken
	}
	stored, err := m.store.Get(ctx, m.keyer.AccessSessionKey(accessID))
	if err != nil {
		return wrapNotFound(err)
	}
	expected := security.TokenFingerprint(provided)
	if subtle.ConstantTimeCompare([]byte(stored), []byte(expected)) != 1 {
		return ErrInvalidRefreshToken
	}
	return nil
}

// Revoke deletes the session tied to the access identifier.
func (m *Manager) Revoke(ctx context.Context, accessID string) error {
	if strings.TrimSpace(accessID) == "" {
		return fmt.Errorf("access id is required")
	}
	return m.store.Del(ctx, m.keyer.AccessSessionKey(accessID))
}

// HasSession reports whether the provided access ID still has an active session.
func (m *Manager) HasSession(ctx context.Context, accessID string) (bool, error) {
	if strings.TrimSpace(accessID) == "" {
		return false, fmt.Errorf("access id is required")
	}
	if _, err := m.store.Get(ctx, m.keyer.AccessSessionKey(accessID)); err != nil {
		if errors.Is(err, redislib.Nil) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// NewAccessID produces the identifier used as the JWT jti and Redis key.
func NewAccessID() string {
	return uuid.NewString()
}

func wrapNotFound(err error) error {
	if errors.Is(err, redislib.Nil) {
		return ErrInvalidRefreshToken
	}
	return err
}
