package repairrequests

import (
	"context"

	"github.com/angelmondragon/repairdesk-backend/internal/users"
	"github.com/angelmondragon/repairdesk-backend/pkg/db"
	"github.com/angelmondragon/repairdesk-backend/pkg/db/models"
	"github.com/angelmondragon/repairdesk-backend/pkg/enums"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Repository exposes repair request persistence plus the user lookups the
// lifecycle needs inside the same transaction.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, request *models.RepairRequest) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.RepairRequest, error)
	LockByID(ctx context.Context, id uuid.UUID) (*models.RepairRequest, error)
	List(ctx context.Context, filter listFilter) ([]models.RepairRequest, error)
	Update(ctx context.Context, id uuid.UUID, updates map[string]any) error
	Delete(ctx context.Context, id uuid.UUID) error
	FindUser(ctx context.Context, id uuid.UUID) (*models.User, error)
	FindOrCreateShadowUser(ctx context.Context, email string) (*models.User, bool, error)
}

type listFilter struct {
	Status   *enums.RepairRequestStatus
	OwnerID  *uuid.UUID
	MasterID *uuid.UUID
}

type repositoryImpl struct {
	db *gorm.DB
}

// NewRepository returns a repair request repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repositoryImpl{db: db}
}

func (r *repositoryImpl) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repositoryImpl{db: tx}
}

func (r *repositoryImpl) Create(ctx context.Context, request *models.RepairRequest) error {
	return r.db.WithContext(ctx).Create(request).Error
}

func (r *repositoryImpl) FindByID(ctx context.Context, id uuid.UUID) (*models.RepairRequest, error) {
	var request models.RepairRequest
	if err := r.withComponents(ctx).First(&request, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &request, nil
}

// LockByID loads the request holding a row lock until the transaction ends.
func (r *repositoryImpl) LockByID(ctx context.Context, id uuid.UUID) (*models.RepairRequest, error) {
	query := r.db.WithContext(ctx)
	if r.db.Dialector.Name() != db.DriverSQLite {
		query = query.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	var request models.RepairRequest
	if err := query.First(&request, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &request, nil
}

func (r *repositoryImpl) List(ctx context.Context, filter listFilter) ([]models.RepairRequest, error) {
	query := r.withComponents(ctx)
	if filter.Status != nil {
		query = query.Where("status = ?", *filter.Status)
	}
	if filter.OwnerID != nil {
		query = query.Where("owner_id = ?", *filter.OwnerID)
	}
	if filter.MasterID != nil {
		query = query.Where("master_id = ?", *filter.MasterID)
	}
	var list []models.RepairRequest
	if err := query.Order("created_at DESC, id DESC").Find(&list).Error; err != nil {
		return nil, err
	}
	return list, nil
}

// Update writes the given columns, returning gorm.ErrRecordNotFound for unknown ids.
func (r *repositoryImpl) Update(ctx context.Context, id uuid.UUID, updates map[string]any) error {
	if len(updates) == 0 {
		return nil
	}
	result := r.db.WithContext(ctx).Model(&models.RepairRequest{}).Where("id = ?", id).Updates(updates)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// Delete removes the request; attachments cascade and notifications keep a null reference.
func (r *repositoryImpl) Delete(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Delete(&models.RepairRequest{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *repositoryImpl) FindUser(ctx context.Context, id uuid.UUID) (*models.User, error) {
	return users.NewRepository(r.db).FindByID(ctx, id)
}

func (r *repositoryImpl) FindOrCreateShadowUser(ctx context.Context, email string) (*models.User, bool, error) {
	return users.NewRepository(r.db).FindOrCreateShadow(ctx, email)
}

func (r *repositoryImpl) withComponents(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).
		Preload("Components", func(tx *gorm.DB) *gorm.DB { return tx.Order("created_at ASC") }).
		Preload("Components.Component")
}
