package users

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/repairdesk-backend/pkg/db/models"
	"github.com/angelmondragon/repairdesk-backend/pkg/enums"
)

// UserDTO is the transport shape that omits sensitive credentials.
type UserDTO struct {
	ID            uuid.UUID  `json:"id"`
	Email         string     `json:"email"`
	FirstName     *string    `json:"first_name"`
	LastName      *string    `json:"last_name"`
	Role          enums.Role `json:"role"`
	IsLegalEntity bool       `json:"is_legal_entity"`
	CompanyName   *string    `json:"company_name,omitempty"`
	HasPassword   bool       `json:"has_password"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
}

// CreateUserDTO holds the data required by the repo to persist a new user.
// An empty PasswordHash produces a shadow user.
type CreateUserDTO struct {
	Email         string
	PasswordHash  string
	FirstName     *string
	LastName      *string
	Role          enums.Role
	IsLegalEntity bool
	CompanyName   *string
}

func FromModel(u *models.User) *UserDTO {
	if u == nil {
		return nil
	}

	return &UserDTO{
		ID:            u.ID,
		Email:         u.Email,
		FirstName:     u.FirstName,
		LastName:      u.LastName,
		Role:          u.Role,
		IsLegalEntity: u.IsLegalEntity,
		CompanyName:   u.CompanyName,
		HasPassword:   u.HasPassword(),
		CreatedAt:     u.CreatedAt,
		UpdatedAt:     u.UpdatedAt,
	}
}

func FromModels(list []models.User) []UserDTO {
	out := make([]UserDTO, 0, len(list))
	for i := range list {
		out = append(out, *FromModel(&list[i]))
	}
	return out
}

func (c CreateUserDTO) ToModel() *models.User {
	role := c.Role
	if role == "" {
		role = enums.RoleUser
	}

	user := &models.User{
		Email:         NormalizeEmail(c.Email),
		FirstName:     c.FirstName,
		LastName:      c.LastName,
		Role:          role,
		IsLegalEntity: c.IsLegalEntity,
		CompanyName:   c.CompanyName,
	}
	if c.PasswordHash != "" {
		hash := c.PasswordHash
		user.PasswordHash = &hash
	}
	return user
}

// NormalizeEmail lower-cases and trims an address before it is stored or looked up.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
