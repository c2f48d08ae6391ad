package users

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/angelmondragon/repairdesk-backend/pkg/db"
	"github.com/angelmondragon/repairdesk-backend/pkg/db/models"
	"github.com/angelmondragon/repairdesk-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/repairdesk-backend/pkg/errors"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

const minPasswordLength = 8

// Service covers user administration and self-service profile updates.
type Service interface {
	Create(ctx context.Context, input CreateInput) (*UserDTO, error)
	List(ctx context.Context, role *enums.Role) ([]UserDTO, error)
	Get(ctx context.Context, id uuid.UUID) (*UserDTO, error)
	UpdateSelf(ctx context.Context, id uuid.UUID, patch Patch) (*UserDTO, error)
	ChangeRole(ctx context.Context, id uuid.UUID, role enums.Role) (*UserDTO, error)
}

type userStore interface {
	Create(ctx context.Context, dto CreateUserDTO) (*models.User, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	List(ctx context.Context, role *enums.Role) ([]models.User, error)
	Update(ctx context.Context, id uuid.UUID, updates map[string]any) error
}

type passwordHasher interface {
	Hash(password string) (string, error)
	Verify(password, encoded string) (bool, error)
}

type service struct {
	repo   userStore
	hasher passwordHasher
}

// CreateInput is what a manager supplies when creating an account directly.
// Password is optional; omitting it creates a shadow user.
type CreateInput struct {
	Email         string
	Password      string
	FirstName     *string
	LastName      *string
	Role          enums.Role
	IsLegalEntity bool
	CompanyName   *string
}

// Patch enumerates the fields a user may change on their own profile.
// Nil fields are left untouched.
type Patch struct {
	FirstName     *string
	LastName      *string
	Email         *string
	IsLegalEntity *bool
	CompanyName   *string
	Password      *string
	OldPassword   *string
}

func NewService(repo userStore, hasher passwordHasher) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("users repository required")
	}
	if hasher == nil {
		return nil, fmt.Errorf("password hasher required")
	}
	return &service{repo: repo, hasher: hasher}, nil
}

func (s *service) Create(ctx context.Context, input CreateInput) (*UserDTO, error) {
	email := NormalizeEmail(input.Email)
	if email == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "email is required")
	}
	role := input.Role
	if role == "" {
		role = enums.RoleUser
	}
	if !role.IsValid() {
		return nil, pkgerrors.Newf(pkgerrors.CodeValidation, "invalid role %q", role)
	}

	dto := CreateUserDTO{
		Email:         email,
		FirstName:     input.FirstName,
		LastName:      input.LastName,
		Role:          role,
		IsLegalEntity: input.IsLegalEntity,
		CompanyName:   input.CompanyName,
	}
	if input.Password != "" {
		hash, err := s.hashPassword(input.Password)
		if err != nil {
			return nil, err
		}
		dto.PasswordHash = hash
	}

	user, err := s.repo.Create(ctx, dto)
	if err != nil {
		if db.IsUniqueViolation(err, "") {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "email already in use")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create user")
	}
	return FromModel(user), nil
}

func (s *service) List(ctx context.Context, role *enums.Role) ([]UserDTO, error) {
	if role != nil && !role.IsValid() {
		return nil, pkgerrors.Newf(pkgerrors.CodeValidation, "invalid role %q", *role)
	}
	list, err := s.repo.List(ctx, role)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list users")
	}
	return FromModels(list), nil
}

func (s *service) Get(ctx context.Context, id uuid.UUID) (*UserDTO, error) {
	user, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	return FromModel(user), nil
}

// UpdateSelf applies patch to the caller's own account. Changing the password
// requires the current one unless the account never had a password.
func (s *service) UpdateSelf(ctx context.Context, id uuid.UUID, patch Patch) (*UserDTO, error) {
	user, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}

	updates := map[string]any{}
	if patch.FirstName != nil {
		updates["first_name"] = strings.TrimSpace(*patch.FirstName)
	}
	if patch.LastName != nil {
		updates["last_name"] = strings.TrimSpace(*patch.LastName)
	}
	if patch.IsLegalEntity != nil {
		updates["is_legal_entity"] = *patch.IsLegalEntity
	}
	if patch.CompanyName != nil {
		updates["company_name"] = strings.TrimSpace(*patch.CompanyName)
	}

	if patch.Email != nil {
		email := NormalizeEmail(*patch.Email)
		if email == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "email cannot be empty")
		}
		if email != user.Email {
			existing, err := s.repo.FindByEmail(ctx, email)
			switch {
			case err == nil && existing.ID != user.ID:
				return nil, pkgerrors.New(pkgerrors.CodeConflict, "email already in use")
			case err != nil && !errors.Is(err, gorm.ErrRecordNotFound):
				return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check email")
			}
			updates["email"] = email
		}
	}

	if patch.Password != nil {
		if user.HasPassword() {
			if patch.OldPassword == nil || *patch.OldPassword == "" {
				return nil, pkgerrors.New(pkgerrors.CodeValidation, "old password is required")
			}
			ok, err := s.hasher.Verify(*patch.OldPassword, *user.PasswordHash)
			if err != nil {
				return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "verify password")
			}
			if !ok {
				return nil, pkgerrors.New(pkgerrors.CodeValidation, "old password does not match")
			}
		}
		hash, err := s.hashPassword(*patch.Password)
		if err != nil {
			return nil, err
		}
		updates["password_hash"] = hash
	}

	if len(updates) == 0 {
		return FromModel(user), nil
	}
	if err := s.repo.Update(ctx, id, updates); err != nil {
		if db.IsUniqueViolation(err, "") {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "email already in use")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update user")
	}
	return s.Get(ctx, id)
}

func (s *service) ChangeRole(ctx context.Context, id uuid.UUID, role enums.Role) (*UserDTO, error) {
	if !role.IsValid() {
		return nil, pkgerrors.Newf(pkgerrors.CodeValidation, "invalid role %q", role)
	}
	if _, err := s.load(ctx, id); err != nil {
		return nil, err
	}
	if err := s.repo.Update(ctx, id, map[string]any{"role": role}); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update role")
	}
	return s.Get(ctx, id)
}

func (s *service) load(ctx context.Context, id uuid.UUID) (*models.User, error) {
	if id == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id required")
	}
	user, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "user not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load user")
	}
	return user, nil
}

func (s *service) hashPassword(password string) (string, error) {
	if len(password) < minPasswordLength {
		return "", pkgerrors.Newf(pkgerrors.CodeValidation, "password must be at least %d characters", minPasswordLength)
	}
	hash, err := s.hasher.Hash(password)
	if err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeInternal, err, "hash password")
	}
	return hash, nil
}
