package auth

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/angelmondragon/repairdesk-backend/pkg/config"
	"github.com/angelmondragon/repairdesk-backend/pkg/enums"
	"github.com/google/uuid"
)

func testJWTConfig() config.JWTConfig {
	return config.JWTConfig{
		Secret:                 "secret",
		Issuer:                 "repairdesk",
		ExpirationMinutes:      30,
		RefreshTokenTTLMinutes: 60 * 24,
		OneTimeTokenTTLMinutes: 3600,
	}
}

func TestMintAndParseAccessToken(t *testing.T) {
	cfg := testJWTConfig()
	now := time.Now().UTC()
	userID := uuid.New()

	token, err := MintAccessToken(cfg, now, TokenPayload{
		UserID: userID,
		Role:   enums.RoleMaster,
		Email:  "master@example.com",
		JTI:    "access-1",
	})
	if err != nil {
		t.Fatalf("mint access token: %v", err)
	}

	claims, err := ParseAccessToken(cfg, token)
	if err != nil {
		t.Fatalf("parse access token: %v", err)
	}

	if claims.UserID != userID {
		t.Fatalf("expected user_id %s, got %s", userID, claims.UserID)
	}
	if claims.Role != enums.RoleMaster {
		t.Fatalf("unexpected role %s", claims.Role)
	}
	if claims.ID != "access-1" {
		t.Fatalf("expected jti access-1, got %s", claims.ID)
	}
	if claims.Subject != userID.String() {
		t.Fatalf("expected subject %s, got %s", userID, claims.Subject)
	}
	if claims.Issuer != cfg.Issuer {
		t.Fatalf("expected issuer %s, got %s", cfg.Issuer, claims.Issuer)
	}

	exp := now.Add(cfg.AccessTokenTTL())
	diff := claims.ExpiresAt.Sub(exp)
	if diff < 0 {
		diff = -diff
	}
	if diff >= time.Second {
		t.Fatalf("expected exp roughly %v, got %v", exp, claims.ExpiresAt.UTC())
	}
}

func TestOneTimeTokenUsesConfiguredTTL(t *testing.T) {
	cfg := testJWTConfig()
	now := time.Now().UTC()

	token, err := MintOneTimeToken(cfg, now, TokenPayload{UserID: uuid.New()})
	if err != nil {
		t.Fatalf("mint one-time token: %v", err)
	}
	claims, err := Parse(cfg, enums.TokenTypeOneTime, token)
	if err != nil {
		t.Fatalf("parse one-time token: %v", err)
	}
	if got := claims.ExpiresAt.Sub(claims.IssuedAt.Time); got != 3600*time.Minute {
		t.Fatalf("expected 3600m ttl, got %v", got)
	}
}

func TestParseRejectsWrongTokenType(t *testing.T) {
	cfg := testJWTConfig()
	refresh, err := MintRefreshToken(cfg, time.Now(), TokenPayload{UserID: uuid.New(), Role: enums.RoleUser})
	if err != nil {
		t.Fatalf("mint refresh token: %v", err)
	}

	if _, err := ParseAccessToken(cfg, refresh); !errors.Is(err, ErrTokenTypeMismatch) {
		t.Fatalf("expected token type mismatch, got %v", err)
	}
	if _, err := Parse(cfg, enums.TokenTypeRefresh, refresh); err != nil {
		t.Fatalf("refresh token should parse as refresh: %v", err)
	}
}

func TestParseAccessTokenInvalidSignature(t *testing.T) {
	cfg := testJWTConfig()
	token, err := MintAccessToken(cfg, time.Now(), TokenPayload{UserID: uuid.New(), Role: enums.RoleManager})
	if err != nil {
		t.Fatalf("mint access token: %v", err)
	}

	if _, err := ParseAccessToken(cfg, token+"x"); err == nil {
		t.Fatal("expected invalid signature error")
	}

	other := cfg
	other.Secret = "other"
	if _, err := ParseAccessToken(other, token); err == nil {
		t.Fatal("expected signature mismatch with different secret")
	}
}

func TestParseAccessTokenExpired(t *testing.T) {
	cfg := testJWTConfig()
	token, err := MintAccessToken(cfg, time.Now().Add(-time.Hour), TokenPayload{UserID: uuid.New(), Role: enums.RoleUser})
	if err != nil {
		t.Fatalf("mint access token: %v", err)
	}

	_, err = ParseAccessToken(cfg, token)
	if err == nil {
		t.Fatal("expected expiration error")
	}
	if !strings.Contains(err.Error(), "expired") {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestMintAccessTokenInvalidRole(t *testing.T) {
	if _, err := MintAccessToken(testJWTConfig(), time.Now(), TokenPayload{UserID: uuid.New()}); err == nil {
		t.Fatal("expected invalid role error")
	}
	if _, err := MintAccessToken(testJWTConfig(), time.Now(), TokenPayload{Role: enums.RoleUser}); err == nil {
		t.Fatal("expected missing user id error")
	}
}
