package components

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/angelmondragon/repairdesk-backend/pkg/db"
	"github.com/angelmondragon/repairdesk-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/repairdesk-backend/pkg/errors"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Service exposes component catalogue management.
type Service interface {
	Create(ctx context.Context, input CreateInput) (*ComponentDTO, error)
	List(ctx context.Context) ([]ComponentDTO, error)
	Get(ctx context.Context, id uuid.UUID) (*ComponentDTO, error)
	Update(ctx context.Context, id uuid.UUID, patch Patch) (*ComponentDTO, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type componentStore interface {
	Create(ctx context.Context, component *models.Component) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.Component, error)
	List(ctx context.Context) ([]models.Component, error)
	Update(ctx context.Context, id uuid.UUID, updates map[string]any) error
	Delete(ctx context.Context, id uuid.UUID) error
}

type service struct {
	repo componentStore
}

func NewService(repo componentStore) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("components repository required")
	}
	return &service{repo: repo}, nil
}

func (s *service) Create(ctx context.Context, input CreateInput) (*ComponentDTO, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "name is required")
	}
	if input.InStock < 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "in_stock cannot be negative")
	}
	if input.Price != nil && input.Price.IsNegative() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "price cannot be negative")
	}

	component := &models.Component{
		Name:        name,
		Description: input.Description,
		InStock:     input.InStock,
		Price:       input.Price,
	}
	if err := s.repo.Create(ctx, component); err != nil {
		if db.IsUniqueViolation(err, "") {
			return nil, pkgerrors.Newf(pkgerrors.CodeConflict, "component %q already exists", name)
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create component")
	}
	return FromModel(component), nil
}

func (s *service) List(ctx context.Context) ([]ComponentDTO, error) {
	list, err := s.repo.List(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list components")
	}
	return FromModels(list), nil
}

func (s *service) Get(ctx context.Context, id uuid.UUID) (*ComponentDTO, error) {
	component, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, notFoundOr(err, "load component")
	}
	return FromModel(component), nil
}

func (s *service) Update(ctx context.Context, id uuid.UUID, patch Patch) (*ComponentDTO, error) {
	if patch.Name != nil {
		trimmed := strings.TrimSpace(*patch.Name)
		if trimmed == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "name cannot be empty")
		}
		patch.Name = &trimmed
	}
	if patch.InStock != nil && *patch.InStock < 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "in_stock cannot be negative")
	}
	if patch.Price != nil && patch.Price.IsNegative() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "price cannot be negative")
	}

	if err := s.repo.Update(ctx, id, patch.updates()); err != nil {
		if db.IsUniqueViolation(err, "") {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "component name already exists")
		}
		return nil, notFoundOr(err, "update component")
	}
	return s.Get(ctx, id)
}

func (s *service) Delete(ctx context.Context, id uuid.UUID) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return notFoundOr(err, "delete component")
	}
	return nil
}

func notFoundOr(err error, action string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return pkgerrors.New(pkgerrors.CodeNotFound, "component not found")
	}
	return pkgerrors.Wrap(pkgerrors.CodeDependency, err, action)
}
