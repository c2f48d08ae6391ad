package components

import (
	"time"

	"github.com/angelmondragon/repairdesk-backend/pkg/db/models"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ComponentDTO is the API representation of a stocked part.
type ComponentDTO struct {
	ID          uuid.UUID        `json:"id"`
	Name        string           `json:"name"`
	Description *string          `json:"description,omitempty"`
	InStock     int              `json:"in_stock"`
	Price       *decimal.Decimal `json:"price,omitempty"`
	CreatedAt   time.Time        `json:"created_at"`
	UpdatedAt   time.Time        `json:"updated_at"`
}

// CreateInput carries a new component.
type CreateInput struct {
	Name        string           `json:"name" validate:"required,max=200"`
	Description *string          `json:"description,omitempty" validate:"omitempty,max=2000"`
	InStock     int              `json:"in_stock" validate:"gte=0"`
	Price       *decimal.Decimal `json:"price,omitempty"`
}

// Patch enumerates the mutable component fields. Nil fields are untouched.
type Patch struct {
	Name        *string          `json:"name,omitempty" validate:"omitempty,min=1,max=200"`
	Description *string          `json:"description,omitempty" validate:"omitempty,max=2000"`
	InStock     *int             `json:"in_stock,omitempty" validate:"omitempty,gte=0"`
	Price       *decimal.Decimal `json:"price,omitempty"`
}

// Item is one (component, quantity) pair requested for a repair.
type Item struct {
	ComponentID uuid.UUID `json:"component_id" validate:"required"`
	Quantity    int       `json:"quantity" validate:"required,gt=0"`
}

// AttachmentDTO describes a component reserved for a repair request.
type AttachmentDTO struct {
	ComponentID uuid.UUID `json:"component_id"`
	Name        string    `json:"name,omitempty"`
	Quantity    int       `json:"quantity"`
}

func FromModel(c *models.Component) *ComponentDTO {
	if c == nil {
		return nil
	}
	return &ComponentDTO{
		ID:          c.ID,
		Name:        c.Name,
		Description: c.Description,
		InStock:     c.InStock,
		Price:       c.Price,
		CreatedAt:   c.CreatedAt,
		UpdatedAt:   c.UpdatedAt,
	}
}

func FromModels(list []models.Component) []ComponentDTO {
	out := make([]ComponentDTO, 0, len(list))
	for i := range list {
		out = append(out, *FromModel(&list[i]))
	}
	return out
}

// AttachmentsFromModels maps join rows; the component name is included when preloaded.
func AttachmentsFromModels(list []models.RepairRequestComponent) []AttachmentDTO {
	out := make([]AttachmentDTO, 0, len(list))
	for _, row := range list {
		dto := AttachmentDTO{ComponentID: row.ComponentID, Quantity: row.Quantity}
		if row.Component != nil {
			dto.Name = row.Component.Name
		}
		out = append(out, dto)
	}
	return out
}

func (p Patch) updates() map[string]any {
	updates := map[string]any{}
	if p.Name != nil {
		updates["name"] = *p.Name
	}
	if p.Description != nil {
		updates["description"] = *p.Description
	}
	if p.InStock != nil {
		updates["in_stock"] = *p.InStock
	}
	if p.Price != nil {
		updates["price"] = *p.Price
	}
	return updates
}
