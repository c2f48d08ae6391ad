package models

import (
	"time"

	"github.com/angelmondragon/repairdesk-backend/pkg/enums"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// BlacklistedToken records a revoked refresh or one-time token.
type BlacklistedToken struct {
	ID        uuid.UUID       `gorm:"type:uuid;primaryKey"`
	Token     string          `gorm:"type:text;not null;uniqueIndex"`
	Type      enums.TokenType `gorm:"type:text;not null"`
	CreatedAt time.Time       `gorm:"column:created_at;autoCreateTime"`
}

func (b *BlacklistedToken) BeforeCreate(*gorm.DB) error {
	ensureID(&b.ID)
	return nil
}
