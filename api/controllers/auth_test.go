package controllers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/angelmondragon/repairdesk-backend/internal/auth"
	"github.com/angelmondragon/repairdesk-backend/internal/users"
	pkgerrors "github.com/angelmondragon/repairdesk-backend/pkg/errors"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubAuthService struct {
	auth.Service

	loginFn   func(ctx context.Context, req auth.LoginRequest) (*auth.Session, error)
	refreshFn func(ctx context.Context, token string) (*auth.Session, error)
	logoutFn  func(ctx context.Context, token string) error
	sendFn    func(ctx context.Context, req auth.SendLinkRequest) error
}

func (s *stubAuthService) Login(ctx context.Context, req auth.LoginRequest) (*auth.Session, error) {
	return s.loginFn(ctx, req)
}

func (s *stubAuthService) Refresh(ctx context.Context, token string) (*auth.Session, error) {
	return s.refreshFn(ctx, token)
}

func (s *stubAuthService) Logout(ctx context.Context, token string) error {
	return s.logoutFn(ctx, token)
}

func (s *stubAuthService) SendLink(ctx context.Context, req auth.SendLinkRequest) error {
	return s.sendFn(ctx, req)
}

var testCookies = CookieSettings{Secure: false, MaxAge: 7 * 24 * time.Hour}

func refreshCookie(t *testing.T, rec *httptest.ResponseRecorder) *http.Cookie {
	t.Helper()
	for _, c := range rec.Result().Cookies() {
		if c.Name == refreshCookieName {
			return c
		}
	}
	t.Fatalf("refresh cookie not set")
	return nil
}

func TestAuthLoginSetsRefreshCookie(t *testing.T) {
	svc := &stubAuthService{
		loginFn: func(_ context.Context, req auth.LoginRequest) (*auth.Session, error) {
			assert.Equal(t, "a@example.com", req.Email)
			return &auth.Session{AccessToken: "access", RefreshToken: "refresh", User: &users.UserDTO{ID: uuid.New()}}, nil
		},
	}
	req := newJSONRequest(t, http.MethodPost, "/api/v1/auth/login", map[string]string{"email": "a@example.com", "password": "secret-pass"})
	rec := httptest.NewRecorder()

	AuthLogin(svc, testCookies, testLogger())(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	cookie := refreshCookie(t, rec)
	assert.Equal(t, "refresh", cookie.Value)
	assert.True(t, cookie.HttpOnly)
	assert.Equal(t, refreshCookiePath, cookie.Path)
	assert.NotContains(t, rec.Body.String(), "\"refresh\"")
	assert.Contains(t, rec.Body.String(), "access")
}

func TestAuthRefreshRequiresCookie(t *testing.T) {
	svc := &stubAuthService{}
	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/refresh", nil)
	rec := httptest.NewRecorder()

	AuthRefresh(svc, testCookies, testLogger())(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAuthRefreshClearsCookieOnUnauthorized(t *testing.T) {
	svc := &stubAuthService{
		refreshFn: func(context.Context, string) (*auth.Session, error) {
			return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "session expired")
		},
	}
	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/refresh", nil)
	req.AddCookie(&http.Cookie{Name: refreshCookieName, Value: "stale"})
	rec := httptest.NewRecorder()

	AuthRefresh(svc, testCookies, testLogger())(rec, req)

	require.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, -1, refreshCookie(t, rec).MaxAge)
}

func TestAuthLogoutClearsCookie(t *testing.T) {
	var got string
	svc := &stubAuthService{
		logoutFn: func(_ context.Context, token string) error {
			got = token
			return nil
		},
	}
	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/logout", nil)
	req.AddCookie(&http.Cookie{Name: refreshCookieName, Value: "refresh"})
	rec := httptest.NewRecorder()

	AuthLogout(svc, testCookies, testLogger())(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "refresh", got)
	cookie := refreshCookie(t, rec)
	assert.Empty(t, cookie.Value)
	assert.Equal(t, -1, cookie.MaxAge)
}

func TestAuthSendLinkAccepted(t *testing.T) {
	svc := &stubAuthService{
		sendFn: func(_ context.Context, req auth.SendLinkRequest) error {
			assert.Equal(t, "link@example.com", req.Email)
			return nil
		},
	}
	req := newJSONRequest(t, http.MethodPost, "/api/v1/auth/send-link", map[string]string{"email": "link@example.com"})
	rec := httptest.NewRecorder()

	AuthSendLink(svc, testLogger())(rec, req)

	assert.Equal(t, http.StatusAccepted, rec.Code)
}

func TestCookieSettingsSecureUsesSameSiteNone(t *testing.T) {
	rec := httptest.NewRecorder()
	CookieSettings{Secure: true, MaxAge: time.Hour}.set(rec, "token")

	cookie := refreshCookie(t, rec)
	assert.True(t, cookie.Secure)
	assert.Equal(t, http.SameSiteNoneMode, cookie.SameSite)
	assert.Equal(t, 3600, cookie.MaxAge)
}
