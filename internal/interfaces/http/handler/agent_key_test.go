package handler

import (
	"context"
	"net/http"
	"testing"
	"time"

	appactivity "github.com/crm/backend/internal/application/activity"
	appidentity "github.com/crm/backend/internal/application/identity"
	"github.com/crm/backend/internal/domain/identity"
	"github.com/crm/backend/internal/domain/shared"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockAgentKeyService struct {
	mock.Mock
}

func (m *mockAgentKeyService) IssueKey(ctx context.Context, tenantID, createdBy int64, input appidentity.IssueAgentKeyInput) (*appidentity.IssuedAgentKey, error) {
	args := m.Called(ctx, tenantID, createdBy, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*appidentity.IssuedAgentKey), args.Error(1)
}

func (m *mockAgentKeyService) List(ctx context.Context, tenantID int64) ([]appidentity.AgentKeyInfo, error) {
	args := m.Called(ctx, tenantID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]appidentity.AgentKeyInfo), args.Error(1)
}

func (m *mockAgentKeyService) Revoke(ctx context.Context, tenantID, keyID int64) error {
	return m.Called(ctx, tenantID, keyID).Error(0)
}

func newAgentKeyRouter(principal *identity.Principal, svc *mockAgentKeyService) *gin.Engine {
	h := NewAgentKeyHandler(svc)
	router := newTestRouter(principal)
	router.POST("/agent-keys", h.Issue)
	router.GET("/agent-keys", h.List)
	router.DELETE("/agent-keys/:id", h.Revoke)
	return router
}

func TestAgentKeyHandler_Issue(t *testing.T) {
	svc := new(mockAgentKeyService)
	router := newAgentKeyRouter(userPrincipal(), svc)
	svc.On("IssueKey", mock.Anything, testTenantID, testUserID, appidentity.IssueAgentKeyInput{AgentName: "lead-enricher"}).
		Return(&appidentity.IssuedAgentKey{
			AgentKeyInfo: appidentity.AgentKeyInfo{ID: 3, AgentName: "lead-enricher", KeyPrefix: "crm_abcd", CreatedBy: testUserID, CreatedAt: time.Now()},
			Key:          "crm_abcd_secret",
		}, nil)

	w := doJSON(t, router, http.MethodPost, "/agent-keys", map[string]string{"agent_name": "lead-enricher"})

	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	got := decodeData[IssuedAgentKeyResponse](t, w)
	assert.Equal(t, int64(3), got.ID)
	assert.Equal(t, "crm_abcd_secret", got.Key)
	assert.Equal(t, "crm_abcd", got.KeyPrefix)
}

func TestAgentKeyHandler_CallerRules(t *testing.T) {
	tests := []struct {
		name      string
		principal *identity.Principal
		status    int
		code      string
	}{
		{"agent", agentPrincipal(), http.StatusForbidden, "FORBIDDEN"},
		{"no active company", tenantlessPrincipal(), http.StatusPreconditionRequired, "NO_ACTIVE_TENANT"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(mockAgentKeyService)
			router := newAgentKeyRouter(tt.principal, svc)

			requireErrorCode(t, doJSON(t, router, http.MethodPost, "/agent-keys", map[string]string{"agent_name": "x"}), tt.status, tt.code)
			requireErrorCode(t, doJSON(t, router, http.MethodGet, "/agent-keys", nil), tt.status, tt.code)
			requireErrorCode(t, doJSON(t, router, http.MethodDelete, "/agent-keys/3", nil), tt.status, tt.code)
			svc.AssertExpectations(t)
		})
	}
}

func TestAgentKeyHandler_ListAndRevoke(t *testing.T) {
	svc := new(mockAgentKeyService)
	router := newAgentKeyRouter(userPrincipal(), svc)
	revokedAt := time.Now()
	svc.On("List", mock.Anything, testTenantID).Return([]appidentity.AgentKeyInfo{
		{ID: 3, AgentName: "lead-enricher", KeyPrefix: "crm_abcd"},
		{ID: 4, AgentName: "old", KeyPrefix: "crm_efgh", RevokedAt: &revokedAt},
	}, nil)
	svc.On("Revoke", mock.Anything, testTenantID, int64(3)).Return(nil)
	svc.On("Revoke", mock.Anything, testTenantID, int64(4)).Return(shared.NewDomainError("ALREADY_REVOKED", "API key is already revoked"))

	got := decodeData[[]AgentKeyResponse](t, doJSON(t, router, http.MethodGet, "/agent-keys", nil))
	require.Len(t, got, 2)
	assert.Nil(t, got[0].RevokedAt)
	assert.NotNil(t, got[1].RevokedAt)

	w := doJSON(t, router, http.MethodDelete, "/agent-keys/3", nil)
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = doJSON(t, router, http.MethodDelete, "/agent-keys/4", nil)
	requireErrorCode(t, w, http.StatusUnprocessableEntity, "ALREADY_REVOKED")
}

type mockTimelineService struct {
	mock.Mock
}

func (m *mockTimelineService) ListForEntity(ctx context.Context, principal *identity.Principal, entityType string, entityID int64) ([]appactivity.EntryResponse, error) {
	args := m.Called(ctx, principal, entityType, entityID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]appactivity.EntryResponse), args.Error(1)
}

func TestActivityHandler_Timeline(t *testing.T) {
	svc := new(mockTimelineService)
	router := newTestRouter(userPrincipal())
	router.GET("/activity/:entity_type/:id", NewActivityHandler(svc).Timeline)

	svc.On("ListForEntity", mock.Anything, mock.Anything, "lead", int64(11)).Return([]appactivity.EntryResponse{
		{ID: 2, EntityType: "lead", EntityID: 11, Action: "converted"},
		{ID: 1, EntityType: "lead", EntityID: 11, Action: "created"},
	}, nil)
	svc.On("ListForEntity", mock.Anything, mock.Anything, "invoice", int64(11)).Return(nil, appactivity.ErrInvalidEntityType)

	got := decodeData[[]appactivity.EntryResponse](t, doJSON(t, router, http.MethodGet, "/activity/lead/11", nil))
	require.Len(t, got, 2)
	assert.Equal(t, "converted", got[0].Action)

	w := doJSON(t, router, http.MethodGet, "/activity/invoice/11", nil)
	requireErrorCode(t, w, http.StatusBadRequest, "INVALID_ENTITY_TYPE")
}
