package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/repairdesk-backend/pkg/enums"
)

// Notification stores an addressed in-app message. Sender and receiver are
// cleared, not cascaded, when the referenced user is deleted.
type Notification struct {
	ID              uuid.UUID                `gorm:"type:uuid;primaryKey"`
	SenderID        *uuid.UUID               `gorm:"type:uuid"`
	ReceiverID      *uuid.UUID               `gorm:"type:uuid;index"`
	RepairRequestID *uuid.UUID               `gorm:"type:uuid"`
	Title           string                   `gorm:"type:text;not null"`
	Message         string                   `gorm:"type:text;not null"`
	ForAction       enums.NotificationAction `gorm:"column:for_action;type:text;not null;default:none"`
	Seen            bool                     `gorm:"not null;default:false"`
	SeenAt          *time.Time               `gorm:"column:seen_at"`
	CreatedAt       time.Time                `gorm:"column:created_at;autoCreateTime"`

	Sender        *User          `gorm:"foreignKey:SenderID;constraint:OnDelete:SET NULL"`
	Receiver      *User          `gorm:"foreignKey:ReceiverID;constraint:OnDelete:SET NULL"`
	RepairRequest *RepairRequest `gorm:"foreignKey:RepairRequestID;constraint:OnDelete:SET NULL"`
}

func (n *Notification) BeforeCreate(*gorm.DB) error {
	ensureID(&n.ID)
	if n.ForAction == "" {
		n.ForAction = enums.NotificationActionNone
	}
	return nil
}
