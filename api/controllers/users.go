package controllers

import (
	"net/http"
	"strings"

	"github.com/angelmondragon/repairdesk-backend/api/responses"
	"github.com/angelmondragon/repairdesk-backend/api/validators"
	"github.com/angelmondragon/repairdesk-backend/internal/users"
	"github.com/angelmondragon/repairdesk-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/repairdesk-backend/pkg/errors"
	"github.com/angelmondragon/repairdesk-backend/pkg/logger"
)

type createUserRequest struct {
	Email         string  `json:"email" validate:"required,email"`
	Password      string  `json:"password,omitempty" validate:"omitempty,min=8,max=128"`
	FirstName     *string `json:"first_name,omitempty" validate:"omitempty,max=100"`
	LastName      *string `json:"last_name,omitempty" validate:"omitempty,max=100"`
	Role          string  `json:"role,omitempty" validate:"omitempty,oneof=user manager master"`
	IsLegalEntity bool    `json:"is_legal_entity"`
	CompanyName   *string `json:"company_name,omitempty" validate:"omitempty,max=200"`
}

type updateSelfRequest struct {
	FirstName     *string `json:"first_name,omitempty" validate:"omitempty,max=100"`
	LastName      *string `json:"last_name,omitempty" validate:"omitempty,max=100"`
	Email         *string `json:"email,omitempty" validate:"omitempty,email"`
	IsLegalEntity *bool   `json:"is_legal_entity,omitempty"`
	CompanyName   *string `json:"company_name,omitempty" validate:"omitempty,max=200"`
	Password      *string `json:"password,omitempty" validate:"omitempty,min=8,max=128"`
	OldPassword   *string `json:"old_password,omitempty"`
}

type changeRoleRequest struct {
	Role string `json:"role" validate:"required,oneof=user manager master"`
}

// UserCreate lets a manager register an account directly. Without a
// password the account is a shadow user that can sign in by link.
func UserCreate(svc users.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body createUserRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		dto, err := svc.Create(r.Context(), users.CreateInput{
			Email:         body.Email,
			Password:      body.Password,
			FirstName:     body.FirstName,
			LastName:      body.LastName,
			Role:          enums.Role(body.Role),
			IsLegalEntity: body.IsLegalEntity,
			CompanyName:   body.CompanyName,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, dto)
	}
}

func UserList(svc users.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var role *enums.Role
		if raw := strings.TrimSpace(r.URL.Query().Get("role")); raw != "" {
			parsed, err := enums.ParseRole(raw)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid role filter").WithDetails(map[string]any{"field": "role"}))
				return
			}
			role = &parsed
		}
		list, err := svc.List(r.Context(), role)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, list)
	}
}

func UserGet(svc users.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := validators.ParseUUIDParam(r, "id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		dto, err := svc.Get(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, dto)
	}
}

func UserUpdateSelf(svc users.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, _, err := requireIdentity(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var body updateSelfRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		dto, err := svc.UpdateSelf(r.Context(), userID, users.Patch{
			FirstName:     body.FirstName,
			LastName:      body.LastName,
			Email:         body.Email,
			IsLegalEntity: body.IsLegalEntity,
			CompanyName:   body.CompanyName,
			Password:      body.Password,
			OldPassword:   body.OldPassword,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, dto)
	}
}

func UserChangeRole(svc users.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := validators.ParseUUIDParam(r, "id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var body changeRoleRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		dto, err := svc.ChangeRole(r.Context(), id, enums.Role(body.Role))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, dto)
	}
}
