package auth

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/angelmondragon/repairdesk-backend/pkg/config"
	"github.com/angelmondragon/repairdesk-backend/pkg/enums"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

var jwtSigningMethod = jwt.SigningMethodHS256

// ErrTokenTypeMismatch is returned when a token minted for one purpose is presented for another.
var ErrTokenTypeMismatch = errors.New("token type mismatch")

// MintAccessToken issues a short-lived token used to authenticate API calls.
func MintAccessToken(cfg config.JWTConfig, now time.Time, payload TokenPayload) (string, error) {
	return Mint(cfg, now, enums.TokenTypeAccess, payload)
}

// MintRefreshToken issues the long-lived token delivered in the refresh cookie.
func MintRefreshToken(cfg config.JWTConfig, now time.Time, payload TokenPayload) (string, error) {
	return Mint(cfg, now, enums.TokenTypeRefresh, payload)
}

// MintOneTimeToken issues the single-use token embedded in emailed login links.
func MintOneTimeToken(cfg config.JWTConfig, now time.Time, payload TokenPayload) (string, error) {
	return Mint(cfg, now, enums.TokenTypeOneTime, payload)
}

// Mint signs a JWT of the given type using the TTL configured for that type.
func Mint(cfg config.JWTConfig, now time.Time, tokenType enums.TokenType, payload TokenPayload) (string, error) {
	if cfg.Secret == "" {
		return "", fmt.Errorf("jwt secret is required")
	}
	if cfg.Issuer == "" {
		return "", fmt.Errorf("jwt issuer is required")
	}
	if payload.UserID == uuid.Nil {
		return "", fmt.Errorf("user id is required")
	}
	if tokenType == enums.TokenTypeAccess && !payload.Role.IsValid() {
		return "", fmt.Errorf("invalid role %q", payload.Role)
	}

	ttl, err := ttlFor(cfg, tokenType)
	if err != nil {
		return "", err
	}

	jti := strings.TrimSpace(payload.JTI)
	if jti == "" {
		jti = uuid.NewString()
	}

	claims := Claims{
		UserID:    payload.UserID,
		Role:      payload.Role,
		Email:     payload.Email,
		TokenType: tokenType,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    cfg.Issuer,
			Subject:   payload.UserID.String(),
			Audience:  jwt.ClaimStrings{string(tokenType)},
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			ID:        jti,
		},
	}

	signed, err := jwt.NewWithClaims(jwtSigningMethod, claims).SignedString([]byte(cfg.Secret))
	if err != nil {
		return "", fmt.Errorf("signing jwt: %w", err)
	}
	return signed, nil
}

func ttlFor(cfg config.JWTConfig, tokenType enums.TokenType) (time.Duration, error) {
	var ttl time.Duration
	switch tokenType {
	case enums.TokenTypeAccess:
		ttl = cfg.AccessTokenTTL()
	case enums.TokenTypeRefresh:
		ttl = cfg.RefreshTokenTTL()
	case enums.TokenTypeOneTime:
		ttl = cfg.OneTimeTokenTTL()
	default:
		return 0, fmt.Errorf("invalid token type %q", tokenType)
	}
	if ttl <= 0 {
		return 0, fmt.Errorf("%s token ttl must be positive", tokenType)
	}
	return ttl, nil
}

// ParseAccessToken validates an access JWT and returns typed claims.
func ParseAccessToken(cfg config.JWTConfig, tokenString string) (*Claims, error) {
	return Parse(cfg, enums.TokenTypeAccess, tokenString)
}

// Parse validates signature, issuer, expiry and audience for the expected token type.
func Parse(cfg config.JWTConfig, expected enums.TokenType, tokenString string) (*Claims, error) {
	if cfg.Secret == "" {
		return nil, fmt.Errorf("jwt secret is required")
	}
	if strings.TrimSpace(tokenString) == "" {
		return nil, fmt.Errorf("token is required")
	}

	claims := &Claims{}
	_, err := jwt.ParseWithClaims(
		tokenString,
		claims,
		func(token *jwt.Token) (interface{}, error) {
			if token.Method != jwtSigningMethod {
				return nil, fmt.Errorf("unexpected signing method %s", token.Header["alg"])
			}
			return []byte(cfg.Secret), nil
		},
		jwt.WithValidMethods([]string{jwtSigningMethod.Alg()}),
		jwt.WithIssuer(cfg.Issuer),
		jwt.WithAudience(string(expected)),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenInvalidAudience) {
			return nil, fmt.Errorf("%w: %v", ErrTokenTypeMismatch, err)
		}
		return nil, err
	}
	if claims.TokenType != expected {
		return nil, ErrTokenTypeMismatch
	}
	if claims.UserID == uuid.Nil {
		return nil, fmt.Errorf("token missing user id")
	}

	return claims, nil
}
