package models

import (
	"time"

	"github.com/angelmondragon/repairdesk-backend/pkg/enums"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// User represents any actor: requester, manager or master.
// Shadow users created from an email reference have no password hash.
type User struct {
	ID            uuid.UUID  `gorm:"type:uuid;primaryKey"`
	Email         string     `gorm:"type:text;not null;uniqueIndex"`
	PasswordHash  *string    `gorm:"column:password_hash"`
	FirstName     *string    `gorm:"column:first_name"`
	LastName      *string    `gorm:"column:last_name"`
	Role          enums.Role `gorm:"type:text;not null;default:user"`
	IsLegalEntity bool       `gorm:"column:is_legal_entity;not null;default:false"`
	CompanyName   *string    `gorm:"column:company_name"`
	CreatedAt     time.Time  `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt     time.Time  `gorm:"column:updated_at;autoUpdateTime"`
}

func (u *User) BeforeCreate(*gorm.DB) error {
	ensureID(&u.ID)
	if u.Role == "" {
		u.Role = enums.RoleUser
	}
	return nil
}

// HasPassword reports whether the account can log in with a password.
func (u *User) HasPassword() bool {
	return u.PasswordHash != nil && *u.PasswordHash != ""
}
