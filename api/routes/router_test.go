package routes

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/angelmondragon/repairdesk-backend/internal/components"
	"github.com/angelmondragon/repairdesk-backend/internal/repairrequests"
	pkgAuth "github.com/angelmondragon/repairdesk-backend/pkg/auth"
	"github.com/angelmondragon/repairdesk-backend/pkg/auth/session"
	"github.com/angelmondragon/repairdesk-backend/pkg/config"
	"github.com/angelmondragon/repairdesk-backend/pkg/enums"
	"github.com/angelmondragon/repairdesk-backend/pkg/logger"
	"github.com/angelmondragon/repairdesk-backend/pkg/metrics"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubPinger struct{}

func (stubPinger) Ping(context.Context) error {
	return nil
}

type stubSessionManager struct{}

func (stubSessionManager) HasSession(ctx context.Context, accessID string) (bool, error) {
	return true, nil
}

type stubComponentService struct {
	components.Service
}

func (stubComponentService) List(ctx context.Context) ([]components.ComponentDTO, error) {
	return []components.ComponentDTO{}, nil
}

type stubRepairRequestService struct {
	repairrequests.Service
	listCalls int
}

func (s *stubRepairRequestService) List(ctx context.Context, actor repairrequests.Actor, status *enums.RepairRequestStatus) ([]repairrequests.RepairRequestDTO, error) {
	s.listCalls++
	return []repairrequests.RepairRequestDTO{}, nil
}

func testConfig() *config.Config {
	return &config.Config{
		JWT: config.JWTConfig{
			Secret:                 "router-secret",
			Issuer:                 "repairdesk-test",
			ExpirationMinutes:      15,
			RefreshTokenTTLMinutes: 60,
			OneTimeTokenTTLMinutes: 60,
		},
		CORS: config.CORSConfig{AllowedOrigins: []string{"http://localhost:3000"}},
	}
}

func newTestRouter(t *testing.T, rr *stubRepairRequestService) (http.Handler, *config.Config) {
	t.Helper()
	cfg := testConfig()
	reg := prometheus.NewRegistry()
	metrics.NewWorkflow(reg).IncTransition("create", "none", "created")

	return NewRouter(Deps{
		Config:         cfg,
		Logger:         logger.Nop(),
		DB:             stubPinger{},
		Redis:          stubPinger{},
		Sessions:       stubSessionManager{},
		Gatherer:       reg,
		Components:     stubComponentService{},
		RepairRequests: rr,
	}), cfg
}

func bearer(t *testing.T, cfg *config.Config, role enums.Role) string {
	t.Helper()
	token, err := pkgAuth.MintAccessToken(cfg.JWT, time.Now(), pkgAuth.TokenPayload{
		UserID: uuid.New(),
		Role:   role,
		JTI:    session.NewAccessID(),
	})
	require.NoError(t, err)
	return "Bearer " + token
}

func do(router http.Handler, method, path, auth string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	if auth != "" {
		req.Header.Set("Authorization", auth)
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestHealthRoutes(t *testing.T) {
	router, _ := newTestRouter(t, &stubRepairRequestService{})

	assert.Equal(t, http.StatusOK, do(router, http.MethodGet, "/health/live", "").Code)
	assert.Equal(t, http.StatusOK, do(router, http.MethodGet, "/health/ready", "").Code)
}

func TestMetricsEndpointExposesWorkflowCounters(t *testing.T) {
	router, _ := newTestRouter(t, &stubRepairRequestService{})

	rec := do(router, http.MethodGet, "/metrics", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, strings.Contains(rec.Body.String(), "repair_request_transitions_total"))
}

func TestRepairRequestListRequiresStaffRole(t *testing.T) {
	rr := &stubRepairRequestService{}
	router, cfg := newTestRouter(t, rr)

	assert.Equal(t, http.StatusUnauthorized, do(router, http.MethodGet, "/api/v1/repair-requests", "").Code)
	assert.Equal(t, http.StatusForbidden, do(router, http.MethodGet, "/api/v1/repair-requests", bearer(t, cfg, enums.RoleUser)).Code)
	assert.Equal(t, 0, rr.listCalls)

	assert.Equal(t, http.StatusOK, do(router, http.MethodGet, "/api/v1/repair-requests", bearer(t, cfg, enums.RoleManager)).Code)
	assert.Equal(t, http.StatusOK, do(router, http.MethodGet, "/api/v1/repair-requests", bearer(t, cfg, enums.RoleMaster)).Code)
	assert.Equal(t, 2, rr.listCalls)
}

func TestComponentMutationsRequireManager(t *testing.T) {
	router, cfg := newTestRouter(t, &stubRepairRequestService{})

	assert.Equal(t, http.StatusOK, do(router, http.MethodGet, "/api/v1/components", bearer(t, cfg, enums.RoleMaster)).Code)
	assert.Equal(t, http.StatusForbidden, do(router, http.MethodPost, "/api/v1/components", bearer(t, cfg, enums.RoleMaster)).Code)
}

func TestUserAdministrationRequiresManager(t *testing.T) {
	router, cfg := newTestRouter(t, &stubRepairRequestService{})

	assert.Equal(t, http.StatusForbidden, do(router, http.MethodGet, "/api/v1/users", bearer(t, cfg, enums.RoleUser)).Code)
	assert.Equal(t, http.StatusForbidden, do(router, http.MethodPatch, "/api/v1/users/"+uuid.NewString()+"/role", bearer(t, cfg, enums.RoleMaster)).Code)
}

func TestCORSPreflight(t *testing.T) {
	router, _ := newTestRouter(t, &stubRepairRequestService{})

	req := httptest.NewRequest(http.MethodOptions, "/api/v1/components", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	req.Header.Set("Access-Control-Request-Method", http.MethodGet)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, "http://localhost:3000", rec.Header().Get("Access-Control-Allow-Origin"))
}
