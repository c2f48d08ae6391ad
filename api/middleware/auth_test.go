package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/angelmondragon/repairdesk-backend/pkg/auth"
	"github.com/angelmondragon/repairdesk-backend/pkg/auth/session"
	"github.com/angelmondragon/repairdesk-backend/pkg/config"
	"github.com/angelmondragon/repairdesk-backend/pkg/enums"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testJWT = config.JWTConfig{Secret: "secret", Issuer: "issuer", ExpirationMinutes: 60, RefreshTokenTTLMinutes: 120, OneTimeTokenTTLMinutes: 60}

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func serve(handler http.Handler, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)
	return resp
}

func TestAuthRejectsMissingToken(t *testing.T) {
	handler := Auth(testJWT, stubSessionVerifier{ok: true}, nil)(okHandler())
	assert.Equal(t, http.StatusUnauthorized, serve(handler, "").Code)
}

func TestAuthRejectsInvalidToken(t *testing.T) {
	handler := Auth(testJWT, stubSessionVerifier{ok: true}, nil)(okHandler())
	assert.Equal(t, http.StatusUnauthorized, serve(handler, "invalid").Code)
}

func TestAuthAllowsValidToken(t *testing.T) {
	userID := uuid.New()
	token := mintTestToken(t, userID, enums.RoleMaster)

	var gotID uuid.UUID
	var gotRole enums.Role
	handler := Auth(testJWT, stubSessionVerifier{ok: true}, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotID, gotRole, _ = IdentityFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	}))

	require.Equal(t, http.StatusOK, serve(handler, token).Code)
	assert.Equal(t, userID, gotID)
	assert.Equal(t, enums.RoleMaster, gotRole)
}

func TestAuthRejectsRevokedSession(t *testing.T) {
	token := mintTestToken(t, uuid.New(), enums.RoleUser)
	handler := Auth(testJWT, stubSessionVerifier{ok: false}, nil)(okHandler())
	assert.Equal(t, http.StatusUnauthorized, serve(handler, token).Code)

	handler = Auth(testJWT, stubSessionVerifier{err: errors.New("redis down")}, nil)(okHandler())
	assert.Equal(t, http.StatusServiceUnavailable, serve(handler, token).Code)
}

func TestOptionalAuth(t *testing.T) {
	var anonymous bool
	handler := OptionalAuth(testJWT, stubSessionVerifier{ok: true}, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _, ok := IdentityFromContext(r.Context())
		anonymous = !ok
		w.WriteHeader(http.StatusOK)
	}))

	require.Equal(t, http.StatusOK, serve(handler, "").Code)
	assert.True(t, anonymous)

	require.Equal(t, http.StatusOK, serve(handler, mintTestToken(t, uuid.New(), enums.RoleManager)).Code)
	assert.False(t, anonymous)

	assert.Equal(t, http.StatusUnauthorized, serve(handler, "garbage").Code)
}

func TestRequireRoles(t *testing.T) {
	handler := RequireRoles(nil, enums.RoleManager, enums.RoleMaster)(okHandler())

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)
	assert.Equal(t, http.StatusUnauthorized, resp.Code)

	for role, want := range map[enums.Role]int{
		enums.RoleUser:    http.StatusForbidden,
		enums.RoleManager: http.StatusOK,
		enums.RoleMaster:  http.StatusOK,
	} {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req = req.WithContext(WithIdentity(req.Context(), uuid.New(), role))
		resp := httptest.NewRecorder()
		handler.ServeHTTP(resp, req)
		assert.Equal(t, want, resp.Code, "role %s", role)
	}
}

func mintTestToken(t *testing.T, userID uuid.UUID, role enums.Role) string {
	t.Helper()
	token, err := auth.MintAccessToken(testJWT, time.Now(), auth.TokenPayload{
		UserID: userID,
		Role:   role,
		JTI:    session.NewAccessID(),
	})
	require.NoError(t, err)
	return token
}

type stubSessionVerifier struct {
	ok  bool
	err error
}

func (s stubSessionVerifier) HasSession(ctx context.Context, accessID string) (bool, error) {
	if s.err != nil {
		return false, s.err
	}
	return s.ok, nil
}
