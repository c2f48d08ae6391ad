package repairrequests

import (
	"time"

	"github.com/angelmondragon/repairdesk-backend/internal/components"
	"github.com/angelmondragon/repairdesk-backend/pkg/db/models"
	"github.com/angelmondragon/repairdesk-backend/pkg/enums"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// RepairRequestDTO is the API representation of a repair ticket.
type RepairRequestDTO struct {
	ID          uuid.UUID                  `json:"id"`
	OwnerID     uuid.UUID                  `json:"owner_id"`
	MasterID    *uuid.UUID                 `json:"master_id"`
	DeviceModel string                     `json:"device_model"`
	IssueType   enums.IssueType            `json:"issue_type"`
	ProblemArea string                     `json:"problem_area"`
	Description string                     `json:"description"`
	Location    string                     `json:"location"`
	Status      enums.RepairRequestStatus  `json:"status"`
	Price       *decimal.Decimal           `json:"price"`
	EndTime     *time.Time                 `json:"end_time"`
	Components  []components.AttachmentDTO `json:"components"`
	CreatedAt   time.Time                  `json:"created_at"`
	UpdatedAt   time.Time                  `json:"updated_at"`
}

// CreateInput describes the device and problem being reported.
type CreateInput struct {
	DeviceModel string `json:"device_model" validate:"required,max=200"`
	IssueType   string `json:"issue_type" validate:"required,oneof=hardware software other"`
	ProblemArea string `json:"problem_area" validate:"required,max=200"`
	Description string `json:"description" validate:"required,max=5000"`
	Location    string `json:"location" validate:"required,max=500"`
}

// CreateForEmailInput files a request on behalf of the account owning Email.
type CreateForEmailInput struct {
	CreateInput
	Email string `json:"email" validate:"required,email"`
}

// PersonalizeInput is a master's quote for a request.
type PersonalizeInput struct {
	Price      decimal.Decimal   `json:"price"`
	EndTime    time.Time         `json:"end_time" validate:"required"`
	Components []components.Item `json:"components" validate:"dive"`
}

// Patch enumerates the fields a manager may change outside the lifecycle.
// Nil fields are untouched.
type Patch struct {
	MasterID *uuid.UUID       `json:"master_id,omitempty"`
	EndTime  *time.Time       `json:"end_time,omitempty"`
	Price    *decimal.Decimal `json:"price,omitempty"`
}

func (p Patch) empty() bool {
	return p.MasterID == nil && p.EndTime == nil && p.Price == nil
}

func (p Patch) updates() map[string]any {
	updates := map[string]any{}
	if p.MasterID != nil {
		updates["master_id"] = *p.MasterID
	}
	if p.EndTime != nil {
		updates["end_time"] = p.EndTime.UTC()
	}
	if p.Price != nil {
		updates["price"] = *p.Price
	}
	return updates
}

func FromModel(r *models.RepairRequest) *RepairRequestDTO {
	if r == nil {
		return nil
	}
	return &RepairRequestDTO{
		ID:          r.ID,
		OwnerID:     r.OwnerID,
		MasterID:    r.MasterID,
		DeviceModel: r.DeviceModel,
		IssueType:   r.IssueType,
		ProblemArea: r.ProblemArea,
		Description: r.Description,
		Location:    r.Location,
		Status:      r.Status,
		Price:       r.Price,
		EndTime:     r.EndTime,
		Components:  components.AttachmentsFromModels(r.Components),
		CreatedAt:   r.CreatedAt,
		UpdatedAt:   r.UpdatedAt,
	}
}

func FromModels(list []models.RepairRequest) []RepairRequestDTO {
	out := make([]RepairRequestDTO, 0, len(list))
	for i := range list {
		out = append(out, *FromModel(&list[i]))
	}
	return out
}
