package controllers

import (
	"net/http"
	"strings"

	"github.com/angelmondragon/repairdesk-backend/api/responses"
	"github.com/angelmondragon/repairdesk-backend/api/validators"
	"github.com/angelmondragon/repairdesk-backend/internal/repairrequests"
	"github.com/angelmondragon/repairdesk-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/repairdesk-backend/pkg/errors"
	"github.com/angelmondragon/repairdesk-backend/pkg/logger"
	"github.com/google/uuid"
)

type repairRequestAction func(svc repairrequests.Service, r *http.Request, actor repairrequests.Actor, id uuid.UUID) (*repairrequests.RepairRequestDTO, error)

func sanitizeCreateInput(input *repairrequests.CreateInput) {
	input.DeviceModel = validators.SanitizeString(input.DeviceModel, 200)
	input.ProblemArea = validators.SanitizeString(input.ProblemArea, 200)
	input.Description = validators.SanitizeString(input.Description, 5000)
	input.Location = validators.SanitizeString(input.Location, 500)
}

// RepairRequestCreate files a ticket owned by the caller.
func RepairRequestCreate(svc repairrequests.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body repairrequests.CreateInput
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		sanitizeCreateInput(&body)
		dto, err := svc.Create(r.Context(), actorFromRequest(r), body)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, dto)
	}
}

// RepairRequestCreateForEmail files a ticket on behalf of an email address.
// Anonymous callers are allowed; the owner is resolved or created by email.
func RepairRequestCreateForEmail(svc repairrequests.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body repairrequests.CreateForEmailInput
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		sanitizeCreateInput(&body.CreateInput)
		dto, err := svc.CreateForEmail(r.Context(), actorFromRequest(r), body)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, dto)
	}
}

func RepairRequestList(svc repairrequests.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var status *enums.RepairRequestStatus
		if raw := strings.TrimSpace(r.URL.Query().Get("status")); raw != "" {
			parsed, err := enums.ParseRepairRequestStatus(raw)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid status filter").WithDetails(map[string]any{"field": "status"}))
				return
			}
			status = &parsed
		}
		list, err := svc.List(r.Context(), actorFromRequest(r), status)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, list)
	}
}

func RepairRequestListMine(svc repairrequests.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		list, err := svc.ListMine(r.Context(), actorFromRequest(r))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, list)
	}
}

func RepairRequestListAssigned(svc repairrequests.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		list, err := svc.ListAssigned(r.Context(), actorFromRequest(r))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, list)
	}
}

func RepairRequestGet(svc repairrequests.Service, logg *logger.Logger) http.HandlerFunc {
	return repairRequestHandler(svc, logg, func(svc repairrequests.Service, r *http.Request, actor repairrequests.Actor, id uuid.UUID) (*repairrequests.RepairRequestDTO, error) {
		return svc.Get(r.Context(), actor, id)
	})
}

func RepairRequestUpdate(svc repairrequests.Service, logg *logger.Logger) http.HandlerFunc {
	return repairRequestHandler(svc, logg, func(svc repairrequests.Service, r *http.Request, actor repairrequests.Actor, id uuid.UUID) (*repairrequests.RepairRequestDTO, error) {
		var body repairrequests.Patch
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			return nil, err
		}
		return svc.Update(r.Context(), actor, id, body)
	})
}

// RepairRequestPersonalize records a master's quote and reserves components.
func RepairRequestPersonalize(svc repairrequests.Service, logg *logger.Logger) http.HandlerFunc {
	return repairRequestHandler(svc, logg, func(svc repairrequests.Service, r *http.Request, actor repairrequests.Actor, id uuid.UUID) (*repairrequests.RepairRequestDTO, error) {
		var body repairrequests.PersonalizeInput
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			return nil, err
		}
		return svc.Personalize(r.Context(), actor, id, body)
	})
}

func RepairRequestApprove(svc repairrequests.Service, logg *logger.Logger) http.HandlerFunc {
	return repairRequestHandler(svc, logg, func(svc repairrequests.Service, r *http.Request, actor repairrequests.Actor, id uuid.UUID) (*repairrequests.RepairRequestDTO, error) {
		return svc.Approve(r.Context(), actor, id)
	})
}

func RepairRequestReject(svc repairrequests.Service, logg *logger.Logger) http.HandlerFunc {
	return repairRequestHandler(svc, logg, func(svc repairrequests.Service, r *http.Request, actor repairrequests.Actor, id uuid.UUID) (*repairrequests.RepairRequestDTO, error) {
		return svc.Reject(r.Context(), actor, id)
	})
}

func RepairRequestMarkInProgress(svc repairrequests.Service, logg *logger.Logger) http.HandlerFunc {
	return repairRequestHandler(svc, logg, func(svc repairrequests.Service, r *http.Request, actor repairrequests.Actor, id uuid.UUID) (*repairrequests.RepairRequestDTO, error) {
		return svc.MarkInProgress(r.Context(), actor, id)
	})
}

func RepairRequestMarkChecked(svc repairrequests.Service, logg *logger.Logger) http.HandlerFunc {
	return repairRequestHandler(svc, logg, func(svc repairrequests.Service, r *http.Request, actor repairrequests.Actor, id uuid.UUID) (*repairrequests.RepairRequestDTO, error) {
		return svc.MarkChecked(r.Context(), actor, id)
	})
}

func RepairRequestMarkCompleted(svc repairrequests.Service, logg *logger.Logger) http.HandlerFunc {
	return repairRequestHandler(svc, logg, func(svc repairrequests.Service, r *http.Request, actor repairrequests.Actor, id uuid.UUID) (*repairrequests.RepairRequestDTO, error) {
		return svc.MarkCompleted(r.Context(), actor, id)
	})
}

func RepairRequestDelete(svc repairrequests.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := validators.ParseUUIDParam(r, "id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if err := svc.Delete(r.Context(), actorFromRequest(r), id); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func repairRequestHandler(svc repairrequests.Service, logg *logger.Logger, action repairRequestAction) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := validators.ParseUUIDParam(r, "id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		dto, err := action(svc, r, actorFromRequest(r), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, dto)
	}
}
