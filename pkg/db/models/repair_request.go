package models

import (
	"time"

	"github.com/angelmondragon/repairdesk-backend/pkg/enums"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// RepairRequest is a single device-repair ticket.
type RepairRequest struct {
	ID          uuid.UUID                 `gorm:"type:uuid;primaryKey"`
	OwnerID     uuid.UUID                 `gorm:"type:uuid;not null;index"`
	MasterID    *uuid.UUID                `gorm:"type:uuid;index"`
	DeviceModel string                    `gorm:"column:device_model;type:text;not null"`
	IssueType   enums.IssueType           `gorm:"column:issue_type;type:text;not null"`
	ProblemArea string                    `gorm:"column:problem_area;type:text;not null"`
	Description string                    `gorm:"type:text;not null"`
	Location    string                    `gorm:"type:text;not null"`
	Status      enums.RepairRequestStatus `gorm:"type:text;not null;default:created;index"`
	Price       *decimal.Decimal          `gorm:"type:numeric(12,2)"`
	EndTime     *time.Time                `gorm:"column:end_time"`
	CreatedAt   time.Time                 `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time                 `gorm:"column:updated_at;autoUpdateTime"`

	Owner      *User                    `gorm:"foreignKey:OwnerID;constraint:OnDelete:CASCADE"`
	Master     *User                    `gorm:"foreignKey:MasterID;constraint:OnDelete:SET NULL"`
	Components []RepairRequestComponent `gorm:"foreignKey:RepairRequestID;constraint:OnDelete:CASCADE"`
}

func (r *RepairRequest) BeforeCreate(*gorm.DB) error {
	ensureID(&r.ID)
	if r.Status == "" {
		r.Status = enums.RepairRequestStatusCreated
	}
	return nil
}

// RepairRequestComponent links a component (and the reserved quantity) to a request.
type RepairRequestComponent struct {
	RepairRequestID uuid.UUID  `gorm:"type:uuid;primaryKey"`
	ComponentID     uuid.UUID  `gorm:"type:uuid;primaryKey"`
	Quantity        int        `gorm:"not null;check:quantity > 0"`
	CreatedAt       time.Time  `gorm:"column:created_at;autoCreateTime"`
	Component       *Component `gorm:"foreignKey:ComponentID;constraint:OnDelete:CASCADE"`
}
