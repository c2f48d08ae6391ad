package components

import (
	"context"

	"github.com/angelmondragon/repairdesk-backend/pkg/db"
	"github.com/angelmondragon/repairdesk-backend/pkg/db/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Repository persists components and their attachments to repair requests.
type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// WithTx returns a repository bound to the provided transaction.
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	if tx == nil {
		return r
	}
	return &Repository{db: tx}
}

func (r *Repository) Create(ctx context.Context, component *models.Component) error {
	return r.db.WithContext(ctx).Create(component).Error
}

func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Component, error) {
	var component models.Component
	if err := r.db.WithContext(ctx).First(&component, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &component, nil
}

// LockByID loads the component holding a row lock until the transaction ends.
// SQLite serializes writers itself and has no FOR UPDATE.
func (r *Repository) LockByID(ctx context.Context, id uuid.UUID) (*models.Component, error) {
	query := r.db.WithContext(ctx)
	if r.db.Dialector.Name() != db.DriverSQLite {
		query = query.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	var component models.Component
	if err := query.First(&component, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &component, nil
}

func (r *Repository) List(ctx context.Context) ([]models.Component, error) {
	var list []models.Component
	if err := r.db.WithContext(ctx).Order("name ASC").Find(&list).Error; err != nil {
		return nil, err
	}
	return list, nil
}

// Update writes the given columns, returning gorm.ErrRecordNotFound for unknown ids.
func (r *Repository) Update(ctx context.Context, id uuid.UUID, updates map[string]any) error {
	if len(updates) == 0 {
		return nil
	}
	result := r.db.WithContext(ctx).Model(&models.Component{}).Where("id = ?", id).Updates(updates)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *Repository) Delete(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Delete(&models.Component{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// Decrement removes qty from stock only if enough remains. ok is false when
// the guard did not match.
func (r *Repository) Decrement(ctx context.Context, id uuid.UUID, qty int) (ok bool, err error) {
	result := r.db.WithContext(ctx).
		Model(&models.Component{}).
		Where("id = ? AND in_stock >= ?", id, qty).
		UpdateColumn("in_stock", gorm.Expr("in_stock - ?", qty))
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}

// Increment returns qty to stock.
func (r *Repository) Increment(ctx context.Context, id uuid.UUID, qty int) error {
	return r.db.WithContext(ctx).
		Model(&models.Component{}).
		Where("id = ?", id).
		UpdateColumn("in_stock", gorm.Expr("in_stock + ?", qty)).Error
}

// ListAttachments returns the components attached to a request with the component preloaded.
func (r *Repository) ListAttachments(ctx context.Context, requestID uuid.UUID) ([]models.RepairRequestComponent, error) {
	var rows []models.RepairRequestComponent
	if err := r.db.WithContext(ctx).
		Preload("Component").
		Where("repair_request_id = ?", requestID).
		Order("created_at ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *Repository) DeleteAttachments(ctx context.Context, requestID uuid.UUID) error {
	return r.db.WithContext(ctx).
		Where("repair_request_id = ?", requestID).
		Delete(&models.RepairRequestComponent{}).Error
}

func (r *Repository) CreateAttachment(ctx context.Context, row *models.RepairRequestComponent) error {
	return r.db.WithContext(ctx).Create(row).Error
}
