package controllers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/angelmondragon/repairdesk-backend/internal/notifications"
	"github.com/angelmondragon/repairdesk-backend/pkg/enums"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubNotificationService struct {
	notifications.Service

	listFn     func(ctx context.Context, params notifications.ListParams) (*notifications.ListResult, error)
	markReadFn func(ctx context.Context, receiverID uuid.UUID, ids []uuid.UUID) (int64, error)
}

func (s *stubNotificationService) List(ctx context.Context, params notifications.ListParams) (*notifications.ListResult, error) {
	return s.listFn(ctx, params)
}

func (s *stubNotificationService) MarkRead(ctx context.Context, receiverID uuid.UUID, ids []uuid.UUID) (int64, error) {
	return s.markReadFn(ctx, receiverID, ids)
}

func TestNotificationListRequiresIdentity(t *testing.T) {
	rec := httptest.NewRecorder()
	NotificationList(&stubNotificationService{}, testLogger())(rec, httptest.NewRequest(http.MethodGet, "/api/v1/notifications", nil))

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestNotificationListForwardsQuery(t *testing.T) {
	userID := uuid.New()
	var got notifications.ListParams
	svc := &stubNotificationService{
		listFn: func(_ context.Context, params notifications.ListParams) (*notifications.ListResult, error) {
			got = params
			return &notifications.ListResult{Items: []notifications.NotificationDTO{}}, nil
		},
	}
	req := withIdentity(httptest.NewRequest(http.MethodGet, "/api/v1/notifications?limit=10&cursor=abc&unread=true", nil), userID, enums.RoleUser)
	rec := httptest.NewRecorder()

	NotificationList(svc, testLogger())(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, notifications.ListParams{ReceiverID: userID, Limit: 10, Cursor: "abc", UnreadOnly: true}, got)
}

func TestNotificationListRejectsOversizedLimit(t *testing.T) {
	req := withIdentity(httptest.NewRequest(http.MethodGet, "/api/v1/notifications?limit=1000", nil), uuid.New(), enums.RoleUser)
	rec := httptest.NewRecorder()

	NotificationList(&stubNotificationService{}, testLogger())(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestNotificationMarkRead(t *testing.T) {
	userID := uuid.New()
	ids := []uuid.UUID{uuid.New(), uuid.New()}
	svc := &stubNotificationService{
		markReadFn: func(_ context.Context, receiverID uuid.UUID, got []uuid.UUID) (int64, error) {
			assert.Equal(t, userID, receiverID)
			assert.Equal(t, ids, got)
			return 2, nil
		},
	}
	req := withIdentity(newJSONRequest(t, http.MethodPost, "/api/v1/notifications/read", map[string]any{"ids": ids}), userID, enums.RoleManager)
	rec := httptest.NewRecorder()

	NotificationMarkRead(svc, testLogger())(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"updated":2}`, string(decodeEnvelope(t, rec).Data))
}

func TestNotificationMarkReadRequiresIDs(t *testing.T) {
	req := withIdentity(newJSONRequest(t, http.MethodPost, "/api/v1/notifications/read", map[string]any{"ids": []string{}}), uuid.New(), enums.RoleUser)
	rec := httptest.NewRecorder()

	NotificationMarkRead(&stubNotificationService{}, testLogger())(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
