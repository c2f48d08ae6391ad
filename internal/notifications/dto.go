package notifications

import (
	"time"

	"github.com/angelmondragon/repairdesk-backend/pkg/db/models"
	"github.com/angelmondragon/repairdesk-backend/pkg/enums"
	"github.com/google/uuid"
)

// NotificationDTO is the API shape of a notification.
type NotificationDTO struct {
	ID              uuid.UUID                `json:"id"`
	SenderID        *uuid.UUID               `json:"sender_id"`
	ReceiverID      *uuid.UUID               `json:"receiver_id"`
	RepairRequestID *uuid.UUID               `json:"repair_request_id"`
	Title           string                   `json:"title"`
	Message         string                   `json:"message"`
	ForAction       enums.NotificationAction `json:"for_action"`
	Seen            bool                     `json:"seen"`
	SeenAt          *time.Time               `json:"seen_at,omitempty"`
	CreatedAt       time.Time                `json:"created_at"`
}

// SendInput is a manual notification addressed by one user to another.
type SendInput struct {
	ReceiverID      uuid.UUID                 `json:"receiver_id" validate:"required"`
	Title           string                    `json:"title" validate:"required,max=200"`
	Message         string                    `json:"message" validate:"required,max=2000"`
	RepairRequestID *uuid.UUID                `json:"repair_request_id,omitempty"`
	ForAction       *enums.NotificationAction `json:"for_action,omitempty"`
}

// MarkReadInput lists the notifications to flag as seen.
type MarkReadInput struct {
	IDs []uuid.UUID `json:"ids" validate:"required,min=1,max=100,dive,required"`
}

func FromModel(n *models.Notification) NotificationDTO {
	return NotificationDTO{
		ID:              n.ID,
		SenderID:        n.SenderID,
		ReceiverID:      n.ReceiverID,
		RepairRequestID: n.RepairRequestID,
		Title:           n.Title,
		Message:         n.Message,
		ForAction:       n.ForAction,
		Seen:            n.Seen,
		SeenAt:          n.SeenAt,
		CreatedAt:       n.CreatedAt,
	}
}
