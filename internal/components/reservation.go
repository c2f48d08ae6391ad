package components

import (
	"context"
	"errors"
	"time"

	"github.com/angelmondragon/repairdesk-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/repairdesk-backend/pkg/errors"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// InsufficientStock is attached as error details when a component cannot cover a request.
type InsufficientStock struct {
	ComponentID uuid.UUID `json:"component_id"`
	Component   string    `json:"component"`
	Available   int       `json:"available"`
	Requested   int       `json:"requested"`
}

type reservationObserver interface {
	ObserveReservation(duration time.Duration, err error)
}

// Reserver replaces the component set of a repair request inside the
// caller's transaction, keeping stock consistent.
type Reserver struct {
	metrics reservationObserver
}

func NewReserver(metrics reservationObserver) *Reserver {
	return &Reserver{metrics: metrics}
}

// Replace refunds the request's current attachments, then reserves items in
// input order. Any failure leaves the transaction to be rolled back by the caller.
func (r *Reserver) Replace(ctx context.Context, tx *gorm.DB, requestID uuid.UUID, items []Item) (attached []models.RepairRequestComponent, err error) {
	start := time.Now()
	defer func() {
		if r.metrics != nil {
			r.metrics.ObserveReservation(time.Since(start), err)
		}
	}()

	merged, err := MergeItems(items)
	if err != nil {
		return nil, err
	}
	repo := NewRepository(tx)

	previous, err := repo.ListAttachments(ctx, requestID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load attachments")
	}
	for _, row := range previous {
		if err := repo.Increment(ctx, row.ComponentID, row.Quantity); err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "refund component stock")
		}
	}
	if err := repo.DeleteAttachments(ctx, requestID); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "clear attachments")
	}

	attached = make([]models.RepairRequestComponent, 0, len(merged))
	for _, item := range merged {
		component, err := repo.LockByID(ctx, item.ComponentID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, pkgerrors.Newf(pkgerrors.CodeNotFound, "component %s not found", item.ComponentID)
			}
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "lock component")
		}
		if component.InStock < item.Quantity {
			return nil, insufficient(component, item.Quantity)
		}

		ok, err := repo.Decrement(ctx, component.ID, item.Quantity)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reserve component stock")
		}
		if !ok {
			return nil, insufficient(component, item.Quantity)
		}

		row := models.RepairRequestComponent{
			RepairRequestID: requestID,
			ComponentID:     component.ID,
			Quantity:        item.Quantity,
			Component:       component,
		}
		if err := repo.CreateAttachment(ctx, &row); err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "attach component")
		}
		component.InStock -= item.Quantity
		attached = append(attached, row)
	}
	return attached, nil
}

// MergeItems validates quantities and folds repeated component ids into one
// entry, keeping the position of the first occurrence.
func MergeItems(items []Item) ([]Item, error) {
	merged := make([]Item, 0, len(items))
	index := make(map[uuid.UUID]int, len(items))
	for _, item := range items {
		if item.ComponentID == uuid.Nil {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "component id is required")
		}
		if item.Quantity <= 0 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "quantity must be positive").
				WithDetails(map[string]any{"component_id": item.ComponentID, "quantity": item.Quantity})
		}
		if pos, ok := index[item.ComponentID]; ok {
			merged[pos].Quantity += item.Quantity
			continue
		}
		index[item.ComponentID] = len(merged)
		merged = append(merged, item)
	}
	return merged, nil
}

func insufficient(component *models.Component, requested int) error {
	return pkgerrors.Newf(pkgerrors.CodeValidation, "not enough %s in stock", component.Name).
		WithDetails(InsufficientStock{
			ComponentID: component.ID,
			Component:   component.Name,
			Available:   component.InStock,
			Requested:   requested,
		})
}
