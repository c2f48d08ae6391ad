package controllers

import (
	"net/http"
	"time"

	"github.com/angelmondragon/repairdesk-backend/api/responses"
	"github.com/angelmondragon/repairdesk-backend/api/validators"
	"github.com/angelmondragon/repairdesk-backend/internal/auth"
	"github.com/angelmondragon/repairdesk-backend/pkg/config"
	pkgerrors "github.com/angelmondragon/repairdesk-backend/pkg/errors"
	"github.com/angelmondragon/repairdesk-backend/pkg/logger"
	"github.com/go-chi/chi/v5"
)

const (
	refreshCookieName = "refresh_token"
	refreshCookiePath = "/api/v1/auth"
)

// CookieSettings controls how the refresh token cookie is written.
type CookieSettings struct {
	Secure bool
	MaxAge time.Duration
}

// NewCookieSettings derives cookie settings from config.
func NewCookieSettings(cfg *config.Config) CookieSettings {
	return CookieSettings{
		Secure: cfg.App.SecureCookie,
		MaxAge: time.Duration(cfg.JWT.RefreshTokenTTLMinutes) * time.Minute,
	}
}

func (c CookieSettings) set(w http.ResponseWriter, token string) {
	http.SetCookie(w, &http.Cookie{
		Name:     refreshCookieName,
		Value:    token,
		Path:     refreshCookiePath,
		MaxAge:   int(c.MaxAge.Seconds()),
		HttpOnly: true,
		Secure:   c.Secure,
		SameSite: c.sameSite(),
	})
}

func (c CookieSettings) clear(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     refreshCookieName,
		Value:    "",
		Path:     refreshCookiePath,
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   c.Secure,
		SameSite: c.sameSite(),
	})
}

// cross-site SPAs need SameSite=None, which browsers only accept on secure cookies
func (c CookieSettings) sameSite() http.SameSite {
	if c.Secure {
		return http.SameSiteNoneMode
	}
	return http.SameSiteLaxMode
}

func refreshFromCookie(r *http.Request) (string, error) {
	cookie, err := r.Cookie(refreshCookieName)
	if err != nil || cookie.Value == "" {
		return "", pkgerrors.New(pkgerrors.CodeUnauthorized, "refresh token missing")
	}
	return cookie.Value, nil
}

func writeSession(w http.ResponseWriter, cookies CookieSettings, status int, sess *auth.Session) {
	cookies.set(w, sess.RefreshToken)
	responses.WriteSuccessStatus(w, status, sess)
}

// AuthSendLink emails a one-time sign-in link, creating a shadow account when needed.
func AuthSendLink(svc auth.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body auth.SendLinkRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if err := svc.SendLink(r.Context(), body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusAccepted, map[string]string{"status": "sent"})
	}
}

// AuthVerifyLink exchanges a one-time token for a session.
func AuthVerifyLink(svc auth.Service, cookies CookieSettings, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		token := chi.URLParam(r, "token")
		if token == "" {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "token required"))
			return
		}
		sess, err := svc.VerifyLink(r.Context(), token)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		writeSession(w, cookies, http.StatusOK, sess)
	}
}

func AuthLogin(svc auth.Service, cookies CookieSettings, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body auth.LoginRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		sess, err := svc.Login(r.Context(), body)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		writeSession(w, cookies, http.StatusOK, sess)
	}
}

func AuthRegister(svc auth.Service, cookies CookieSettings, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body auth.RegisterRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		sess, err := svc.Register(r.Context(), body)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		writeSession(w, cookies, http.StatusCreated, sess)
	}
}

// AuthRefresh rotates the session held in the refresh cookie.
func AuthRefresh(svc auth.Service, cookies CookieSettings, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		token, err := refreshFromCookie(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		sess, err := svc.Refresh(r.Context(), token)
		if err != nil {
			if pkgerrors.IsCode(err, pkgerrors.CodeUnauthorized) {
				cookies.clear(w)
			}
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		writeSession(w, cookies, http.StatusOK, sess)
	}
}

// AuthLogout blacklists the refresh token, revokes the session and clears the cookie.
func AuthLogout(svc auth.Service, cookies CookieSettings, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		token, err := refreshFromCookie(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if err := svc.Logout(r.Context(), token); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		cookies.clear(w)
		responses.WriteSuccess(w, map[string]string{"status": "logged_out"})
	}
}

func AuthMe(svc auth.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, _, err := requireIdentity(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		user, err := svc.Me(r.Context(), userID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, user)
	}
}
