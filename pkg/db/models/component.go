package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Component is a stocked repair part.
type Component struct {
	ID          uuid.UUID        `gorm:"type:uuid;primaryKey"`
	Name        string           `gorm:"type:text;not null;uniqueIndex"`
	Description *string          `gorm:"type:text"`
	InStock     int              `gorm:"column:in_stock;not null;default:0;check:in_stock >= 0"`
	Price       *decimal.Decimal `gorm:"type:numeric(12,2)"`
	CreatedAt   time.Time        `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time        `gorm:"column:updated_at;autoUpdateTime"`
}

func (c *Component) BeforeCreate(*gorm.DB) error {
	ensureID(&c.ID)
	return nil
}
