package handler

import (
	"context"
	"net/http"
	"testing"

	salesapp "github.com/crm/backend/internal/application/sales"
	"github.com/crm/backend/internal/domain/identity"
	"github.com/crm/backend/internal/domain/sales"
	"github.com/crm/backend/internal/domain/shared"
	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockOpportunityService struct {
	mock.Mock
}

func (m *mockOpportunityService) opportunity(args mock.Arguments) (*salesapp.OpportunityResponse, error) {
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*salesapp.OpportunityResponse), args.Error(1)
}

func (m *mockOpportunityService) Create(ctx context.Context, p *identity.Principal, req salesapp.CreateOpportunityRequest) (*salesapp.OpportunityResponse, error) {
	return m.opportunity(m.Called(ctx, p, req))
}

func (m *mockOpportunityService) Get(ctx context.Context, p *identity.Principal, id int64) (*salesapp.OpportunityResponse, error) {
	return m.opportunity(m.Called(ctx, p, id))
}

func (m *mockOpportunityService) List(ctx context.Context, p *identity.Principal, filter salesapp.OpportunityListFilter) (*shared.Paginated[salesapp.OpportunityResponse], error) {
	args := m.Called(ctx, p, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*shared.Paginated[salesapp.OpportunityResponse]), args.Error(1)
}

func (m *mockOpportunityService) Update(ctx context.Context, p *identity.Principal, id int64, req salesapp.UpdateOpportunityRequest) (*salesapp.OpportunityResponse, error) {
	return m.opportunity(m.Called(ctx, p, id, req))
}

func (m *mockOpportunityService) Assign(ctx context.Context, p *identity.Principal, id int64, userID *int64) (*salesapp.OpportunityResponse, error) {
	return m.opportunity(m.Called(ctx, p, id, userID))
}

func (m *mockOpportunityService) MoveToStage(ctx context.Context, p *identity.Principal, id, stageID int64) (*salesapp.OpportunityResponse, error) {
	return m.opportunity(m.Called(ctx, p, id, stageID))
}

func (m *mockOpportunityService) MarkWon(ctx context.Context, p *identity.Principal, id int64) (*salesapp.OpportunityResponse, error) {
	return m.opportunity(m.Called(ctx, p, id))
}

func (m *mockOpportunityService) MarkLost(ctx context.Context, p *identity.Principal, id int64, reason string) (*salesapp.OpportunityResponse, error) {
	return m.opportunity(m.Called(ctx, p, id, reason))
}

func newOpportunityRouter(principal *identity.Principal, svc *mockOpportunityService) *gin.Engine {
	h := NewOpportunityHandler(svc)
	router := newTestRouter(principal)
	router.POST("/opportunities", h.Create)
	router.GET("/opportunities", h.List)
	router.GET("/opportunities/:id", h.GetByID)
	router.PUT("/opportunities/:id", h.Update)
	router.POST("/opportunities/:id/assign", h.Assign)
	router.POST("/opportunities/:id/stage", h.MoveToStage)
	router.POST("/opportunities/:id/win", h.MarkWon)
	router.POST("/opportunities/:id/lose", h.MarkLost)
	return router
}

func TestOpportunityHandler_Create(t *testing.T) {
	svc := new(mockOpportunityService)
	router := newOpportunityRouter(userPrincipal(), svc)
	amount := decimal.RequireFromString("1500.50")
	svc.On("Create", mock.Anything, mock.Anything, mock.MatchedBy(func(req salesapp.CreateOpportunityRequest) bool {
		return req.Name == "Renewal" && req.Amount != nil && req.Amount.Equal(amount) && req.PipelineStageID == nil
	})).Return(&salesapp.OpportunityResponse{ID: 20, Name: "Renewal", Amount: amount, Status: "open", PipelineStageID: 1}, nil)

	w := doJSON(t, router, http.MethodPost, "/opportunities", `{"name":"Renewal","amount":"1500.50","currency":"USD"}`)

	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	got := decodeData[salesapp.OpportunityResponse](t, w)
	assert.True(t, got.Amount.Equal(amount))
	assert.Equal(t, int64(1), got.PipelineStageID)
}

func TestOpportunityHandler_Create_NoStages(t *testing.T) {
	svc := new(mockOpportunityService)
	router := newOpportunityRouter(userPrincipal(), svc)
	svc.On("Create", mock.Anything, mock.Anything, mock.Anything).Return(nil, shared.NewDomainError("NO_PIPELINE_STAGES", "No active pipeline stages"))

	w := doJSON(t, router, http.MethodPost, "/opportunities", `{"name":"Renewal"}`)

	requireErrorCode(t, w, http.StatusUnprocessableEntity, "NO_PIPELINE_STAGES")
}

func TestOpportunityHandler_List(t *testing.T) {
	svc := new(mockOpportunityService)
	router := newOpportunityRouter(userPrincipal(), svc)
	stageID := int64(3)
	svc.On("List", mock.Anything, mock.Anything, salesapp.OpportunityListFilter{Status: "open", PipelineStageID: &stageID}).
		Return(&shared.Paginated[salesapp.OpportunityResponse]{Items: []salesapp.OpportunityResponse{{ID: 20}}, Total: 1, Page: 1, PageSize: 20, TotalPages: 1}, nil)

	w := doJSON(t, router, http.MethodGet, "/opportunities?status=open&pipeline_stage_id=3", nil)
	env := decode(t, w)
	require.True(t, env.Success, w.Body.String())
	assert.Equal(t, 20, env.Meta.PageSize)

	w = doJSON(t, router, http.MethodGet, "/opportunities?status=pending", nil)
	requireErrorCode(t, w, http.StatusBadRequest, "BAD_REQUEST")
}

func TestOpportunityHandler_Lifecycle(t *testing.T) {
	svc := new(mockOpportunityService)
	router := newOpportunityRouter(userPrincipal(), svc)
	svc.On("MoveToStage", mock.Anything, mock.Anything, int64(20), int64(4)).Return(&salesapp.OpportunityResponse{ID: 20, PipelineStageID: 4, Status: "open"}, nil)
	svc.On("MoveToStage", mock.Anything, mock.Anything, int64(20), int64(99)).Return(nil, sales.ErrStageNotFound)
	svc.On("MarkWon", mock.Anything, mock.Anything, int64(20)).Return(&salesapp.OpportunityResponse{ID: 20, Status: "won"}, nil)
	svc.On("MarkLost", mock.Anything, mock.Anything, int64(21), "").Return(&salesapp.OpportunityResponse{ID: 21, Status: "lost"}, nil)
	svc.On("MarkLost", mock.Anything, mock.Anything, int64(20), "budget cut").Return(nil, sales.ErrOpportunityClosed)

	w := doJSON(t, router, http.MethodPost, "/opportunities/20/stage", map[string]int64{"stage_id": 4})
	assert.Equal(t, int64(4), decodeData[salesapp.OpportunityResponse](t, w).PipelineStageID)

	w = doJSON(t, router, http.MethodPost, "/opportunities/20/stage", map[string]int64{"stage_id": 99})
	requireErrorCode(t, w, http.StatusNotFound, "PIPELINE_STAGE_NOT_FOUND")

	w = doJSON(t, router, http.MethodPost, "/opportunities/20/stage", `{}`)
	requireErrorCode(t, w, http.StatusBadRequest, "VALIDATION_ERROR")

	w = doJSON(t, router, http.MethodPost, "/opportunities/20/win", nil)
	assert.Equal(t, "won", decodeData[salesapp.OpportunityResponse](t, w).Status)

	w = doJSON(t, router, http.MethodPost, "/opportunities/21/lose", nil)
	assert.Equal(t, "lost", decodeData[salesapp.OpportunityResponse](t, w).Status)

	w = doJSON(t, router, http.MethodPost, "/opportunities/20/lose", map[string]string{"reason": "budget cut"})
	requireErrorCode(t, w, http.StatusUnprocessableEntity, "OPPORTUNITY_CLOSED")
	svc.AssertExpectations(t)
}

func TestOpportunityHandler_Assign(t *testing.T) {
	svc := new(mockOpportunityService)
	router := newOpportunityRouter(userPrincipal(), svc)
	userID := int64(55)
	svc.On("Assign", mock.Anything, mock.Anything, int64(20), &userID).Return(&salesapp.OpportunityResponse{ID: 20, AssignedUserID: &userID}, nil)
	svc.On("Assign", mock.Anything, mock.Anything, int64(20), (*int64)(nil)).Return(&salesapp.OpportunityResponse{ID: 20}, nil)

	w := doJSON(t, router, http.MethodPost, "/opportunities/20/assign", map[string]int64{"user_id": 55})
	got := decodeData[salesapp.OpportunityResponse](t, w)
	require.NotNil(t, got.AssignedUserID)
	assert.Equal(t, userID, *got.AssignedUserID)

	w = doJSON(t, router, http.MethodPost, "/opportunities/20/assign", `{}`)
	assert.Nil(t, decodeData[salesapp.OpportunityResponse](t, w).AssignedUserID)
}
