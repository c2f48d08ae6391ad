package auth

import (
	"github.com/angelmondragon/repairdesk-backend/pkg/enums"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// TokenPayload captures the data available when minting a JWT.
type TokenPayload struct {
	UserID uuid.UUID
	Role   enums.Role
	Email  string
	// JTI is optional; a random id is generated when empty.
	JTI string
}

// Claims represents the typed JWT issued to clients. The audience carries
// the token type.
type Claims struct {
	UserID    uuid.UUID       `json:"user_id"`
	Role      enums.Role      `json:"role,omitempty"`
	Email     string          `json:"email,omitempty"`
	TokenType enums.TokenType `json:"token_type"`
	jwt.RegisteredClaims
}
