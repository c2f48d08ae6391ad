package controllers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/angelmondragon/repairdesk-backend/internal/repairrequests"
	"github.com/angelmondragon/repairdesk-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/repairdesk-backend/pkg/errors"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubRepairRequestService struct {
	repairrequests.Service

	createFn         func(ctx context.Context, actor repairrequests.Actor, input repairrequests.CreateInput) (*repairrequests.RepairRequestDTO, error)
	createForEmailFn func(ctx context.Context, actor repairrequests.Actor, input repairrequests.CreateForEmailInput) (*repairrequests.RepairRequestDTO, error)
	listFn           func(ctx context.Context, actor repairrequests.Actor, status *enums.RepairRequestStatus) ([]repairrequests.RepairRequestDTO, error)
	rejectFn         func(ctx context.Context, actor repairrequests.Actor, id uuid.UUID) (*repairrequests.RepairRequestDTO, error)
	deleteFn         func(ctx context.Context, actor repairrequests.Actor, id uuid.UUID) error
}

func (s *stubRepairRequestService) Create(ctx context.Context, actor repairrequests.Actor, input repairrequests.CreateInput) (*repairrequests.RepairRequestDTO, error) {
	return s.createFn(ctx, actor, input)
}

func (s *stubRepairRequestService) CreateForEmail(ctx context.Context, actor repairrequests.Actor, input repairrequests.CreateForEmailInput) (*repairrequests.RepairRequestDTO, error) {
	return s.createForEmailFn(ctx, actor, input)
}

func (s *stubRepairRequestService) List(ctx context.Context, actor repairrequests.Actor, status *enums.RepairRequestStatus) ([]repairrequests.RepairRequestDTO, error) {
	return s.listFn(ctx, actor, status)
}

func (s *stubRepairRequestService) Reject(ctx context.Context, actor repairrequests.Actor, id uuid.UUID) (*repairrequests.RepairRequestDTO, error) {
	return s.rejectFn(ctx, actor, id)
}

func (s *stubRepairRequestService) Delete(ctx context.Context, actor repairrequests.Actor, id uuid.UUID) error {
	return s.deleteFn(ctx, actor, id)
}

func TestRepairRequestCreatePassesActorAndTrimsInput(t *testing.T) {
	userID := uuid.New()
	var gotActor repairrequests.Actor
	var gotInput repairrequests.CreateInput
	svc := &stubRepairRequestService{
		createFn: func(_ context.Context, actor repairrequests.Actor, input repairrequests.CreateInput) (*repairrequests.RepairRequestDTO, error) {
			gotActor = actor
			gotInput = input
			return &repairrequests.RepairRequestDTO{ID: uuid.New(), OwnerID: actor.ID, Status: enums.RepairRequestStatusCreated}, nil
		},
	}

	req := newJSONRequest(t, http.MethodPost, "/api/v1/repair-requests", map[string]any{
		"device_model": "  Laptop X ",
		"issue_type":   "hardware",
		"problem_area": "keyboard",
		"description":  "keys stuck",
		"location":     "Tashkent",
	})
	req = withIdentity(req, userID, enums.RoleUser)
	rec := httptest.NewRecorder()

	RepairRequestCreate(svc, testLogger())(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, repairrequests.Actor{ID: userID, Role: enums.RoleUser}, gotActor)
	assert.Equal(t, "Laptop X", gotInput.DeviceModel)

	var dto repairrequests.RepairRequestDTO
	require.NoError(t, json.Unmarshal(decodeEnvelope(t, rec).Data, &dto))
	assert.Equal(t, enums.RepairRequestStatusCreated, dto.Status)
	assert.Equal(t, userID, dto.OwnerID)
}

func TestRepairRequestCreateRejectsUnknownIssueType(t *testing.T) {
	svc := &stubRepairRequestService{}
	req := newJSONRequest(t, http.MethodPost, "/api/v1/repair-requests", map[string]any{
		"device_model": "Laptop X",
		"issue_type":   "cosmic",
		"problem_area": "keyboard",
		"description":  "keys stuck",
		"location":     "Tashkent",
	})
	rec := httptest.NewRecorder()

	RepairRequestCreate(svc, testLogger())(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	env := decodeEnvelope(t, rec)
	require.NotNil(t, env.Error)
	assert.Equal(t, string(pkgerrors.CodeValidation), env.Error.Code)
	assert.Contains(t, env.Error.Details, "issue_type")
}

func TestRepairRequestCreateForEmailAllowsAnonymous(t *testing.T) {
	var gotActor repairrequests.Actor
	var gotEmail string
	svc := &stubRepairRequestService{
		createForEmailFn: func(_ context.Context, actor repairrequests.Actor, input repairrequests.CreateForEmailInput) (*repairrequests.RepairRequestDTO, error) {
			gotActor = actor
			gotEmail = input.Email
			return &repairrequests.RepairRequestDTO{ID: uuid.New()}, nil
		},
	}
	req := newJSONRequest(t, http.MethodPost, "/api/v1/repair-requests/with-user", map[string]any{
		"email":        "walkin@example.com",
		"device_model": "Phone Y",
		"issue_type":   "software",
		"problem_area": "os",
		"description":  "boot loop",
		"location":     "Samarkand",
	})
	rec := httptest.NewRecorder()

	RepairRequestCreateForEmail(svc, testLogger())(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, uuid.Nil, gotActor.ID)
	assert.Equal(t, enums.Role(""), gotActor.Role)
	assert.Equal(t, "walkin@example.com", gotEmail)
}

func TestRepairRequestListParsesStatusFilter(t *testing.T) {
	var gotStatus *enums.RepairRequestStatus
	svc := &stubRepairRequestService{
		listFn: func(_ context.Context, _ repairrequests.Actor, status *enums.RepairRequestStatus) ([]repairrequests.RepairRequestDTO, error) {
			gotStatus = status
			return []repairrequests.RepairRequestDTO{}, nil
		},
	}

	req := withIdentity(httptest.NewRequest(http.MethodGet, "/api/v1/repair-requests?status=approved", nil), uuid.New(), enums.RoleManager)
	rec := httptest.NewRecorder()
	RepairRequestList(svc, testLogger())(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, gotStatus)
	assert.Equal(t, enums.RepairRequestStatusApproved, *gotStatus)

	req = withIdentity(httptest.NewRequest(http.MethodGet, "/api/v1/repair-requests?status=lost", nil), uuid.New(), enums.RoleManager)
	rec = httptest.NewRecorder()
	RepairRequestList(svc, testLogger())(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRepairRequestTransitionMapsStateConflict(t *testing.T) {
	id := uuid.New()
	svc := &stubRepairRequestService{
		rejectFn: func(_ context.Context, _ repairrequests.Actor, got uuid.UUID) (*repairrequests.RepairRequestDTO, error) {
			assert.Equal(t, id, got)
			return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "transition not allowed from rejected")
		},
	}

	req := httptest.NewRequest(http.MethodPost, "/api/v1/repair-requests/"+id.String()+"/reject", nil)
	req = withURLParams(withIdentity(req, uuid.New(), enums.RoleManager), map[string]string{"id": id.String()})
	rec := httptest.NewRecorder()

	RepairRequestReject(svc, testLogger())(rec, req)

	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	env := decodeEnvelope(t, rec)
	require.NotNil(t, env.Error)
	assert.Equal(t, string(pkgerrors.CodeStateConflict), env.Error.Code)
}

func TestRepairRequestTransitionRejectsBadID(t *testing.T) {
	svc := &stubRepairRequestService{}
	req := httptest.NewRequest(http.MethodPost, "/api/v1/repair-requests/nope/reject", nil)
	req = withURLParams(req, map[string]string{"id": "nope"})
	rec := httptest.NewRecorder()

	RepairRequestReject(svc, testLogger())(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRepairRequestDeleteReturnsNoContent(t *testing.T) {
	id := uuid.New()
	deleted := false
	svc := &stubRepairRequestService{
		deleteFn: func(_ context.Context, _ repairrequests.Actor, got uuid.UUID) error {
			deleted = got == id
			return nil
		},
	}
	req := httptest.NewRequest(http.MethodDelete, "/api/v1/repair-requests/"+id.String(), nil)
	req = withURLParams(withIdentity(req, uuid.New(), enums.RoleManager), map[string]string{"id": id.String()})
	rec := httptest.NewRecorder()

	RepairRequestDelete(svc, testLogger())(rec, req)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.True(t, deleted)
}
