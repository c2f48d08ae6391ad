package auth

import (
	"github.com/angelmondragon/repairdesk-backend/internal/users"
)

// LoginRequest captures the user credentials sent to the login endpoint.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// SendLinkRequest asks for a passwordless sign-in link.
type SendLinkRequest struct {
	Email string `json:"email" validate:"required,email"`
}

// RegisterRequest creates an account or claims a shadow user with the same email.
type RegisterRequest struct {
	FirstName     string  `json:"first_name" validate:"required,max=100"`
	LastName      string  `json:"last_name" validate:"required,max=100"`
	Email         string  `json:"email" validate:"required,email"`
	Password      string  `json:"password" validate:"required,min=8,max=128"`
	IsLegalEntity bool    `json:"is_legal_entity"`
	CompanyName   *string `json:"company_name,omitempty" validate:"omitempty,max=200"`
}

// Session is the result of any flow that signs a user in. The refresh token
// travels in a cookie and is never serialized into the body.
type Session struct {
	AccessToken  string         `json:"access_token"`
	RefreshToken string         `json:"-"`
	User         *users.UserDTO `json:"user"`
}
