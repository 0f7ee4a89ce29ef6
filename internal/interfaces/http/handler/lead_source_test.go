package handler

import (
	"context"
	"net/http"
	"testing"

	"github.com/crm/backend/internal/application/marketing"
	salesapp "github.com/crm/backend/internal/application/sales"
	"github.com/crm/backend/internal/domain/identity"
	domainmarketing "github.com/crm/backend/internal/domain/marketing"
	"github.com/crm/backend/internal/domain/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockLeadSourceService struct {
	mock.Mock
}

func (m *mockLeadSourceService) Create(ctx context.Context, p *identity.Principal, input marketing.LeadSourceInput) (*marketing.LeadSourceResponse, error) {
	args := m.Called(ctx, p, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*marketing.LeadSourceResponse), args.Error(1)
}

func (m *mockLeadSourceService) List(ctx context.Context, p *identity.Principal, activeOnly bool) ([]marketing.LeadSourceResponse, error) {
	args := m.Called(ctx, p, activeOnly)
	return args.Get(0).([]marketing.LeadSourceResponse), args.Error(1)
}

func (m *mockLeadSourceService) Deactivate(ctx context.Context, p *identity.Principal, id int64) (*marketing.LeadSourceResponse, error) {
	args := m.Called(ctx, p, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*marketing.LeadSourceResponse), args.Error(1)
}

func TestLeadSourceHandler(t *testing.T) {
	svc := new(mockLeadSourceService)
	h := NewLeadSourceHandler(svc)
	router := newTestRouter(userPrincipal())
	router.POST("/lead-sources", h.Create)
	router.GET("/lead-sources", h.List)
	router.POST("/lead-sources/:id/deactivate", h.Deactivate)

	svc.On("Create", mock.Anything, mock.Anything, marketing.LeadSourceInput{Name: "Webinar"}).
		Return(&marketing.LeadSourceResponse{ID: 4, Name: "Webinar", IsActive: true}, nil)
	svc.On("List", mock.Anything, mock.Anything, true).Return([]marketing.LeadSourceResponse{{ID: 4, Name: "Webinar", IsActive: true}}, nil)
	svc.On("List", mock.Anything, mock.Anything, false).Return([]marketing.LeadSourceResponse{{ID: 4}, {ID: 5}}, nil)
	svc.On("Deactivate", mock.Anything, mock.Anything, int64(8)).Return(nil, domainmarketing.ErrLeadSourceNotFound)

	w := doJSON(t, router, http.MethodPost, "/lead-sources", map[string]string{"name": "Webinar"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	assert.Len(t, decodeData[[]marketing.LeadSourceResponse](t, doJSON(t, router, http.MethodGet, "/lead-sources?active_only=true", nil)), 1)
	assert.Len(t, decodeData[[]marketing.LeadSourceResponse](t, doJSON(t, router, http.MethodGet, "/lead-sources", nil)), 2)

	requireErrorCode(t, doJSON(t, router, http.MethodPost, "/lead-sources/8/deactivate", nil), http.StatusNotFound, "LEAD_SOURCE_NOT_FOUND")
}

type mockPipelineStageService struct {
	mock.Mock
}

func (m *mockPipelineStageService) Create(ctx context.Context, p *identity.Principal, req salesapp.CreateStageRequest) (*salesapp.StageResponse, error) {
	args := m.Called(ctx, p, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*salesapp.StageResponse), args.Error(1)
}

func (m *mockPipelineStageService) List(ctx context.Context, p *identity.Principal, activeOnly bool) ([]salesapp.StageResponse, error) {
	args := m.Called(ctx, p, activeOnly)
	return args.Get(0).([]salesapp.StageResponse), args.Error(1)
}

func (m *mockPipelineStageService) Deactivate(ctx context.Context, p *identity.Principal, id int64) (*salesapp.StageResponse, error) {
	args := m.Called(ctx, p, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*salesapp.StageResponse), args.Error(1)
}

func TestPipelineStageHandler(t *testing.T) {
	svc := new(mockPipelineStageService)
	h := NewPipelineStageHandler(svc)
	router := newTestRouter(userPrincipal())
	router.POST("/pipeline-stages", h.Create)
	router.GET("/pipeline-stages", h.List)
	router.POST("/pipeline-stages/:id/deactivate", h.Deactivate)

	svc.On("Create", mock.Anything, mock.Anything, salesapp.CreateStageRequest{Name: "Demo", DisplayOrder: 3, DefaultProbability: 40, Kind: "open"}).
		Return(&salesapp.StageResponse{ID: 9, Name: "Demo", DisplayOrder: 3, DefaultProbability: 40, Kind: "open", IsActive: true}, nil)
	svc.On("List", mock.Anything, mock.Anything, false).Return([]salesapp.StageResponse{{ID: 1, Name: "New"}, {ID: 9, Name: "Demo"}}, nil)
	svc.On("Deactivate", mock.Anything, mock.Anything, int64(1)).Return(nil, shared.NewDomainError("ALREADY_DEACTIVATED", "Stage is already inactive"))

	w := doJSON(t, router, http.MethodPost, "/pipeline-stages", map[string]any{"name": "Demo", "display_order": 3, "default_probability": 40, "kind": "open"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	assert.Equal(t, int64(9), decodeData[salesapp.StageResponse](t, w).ID)

	stages := decodeData[[]salesapp.StageResponse](t, doJSON(t, router, http.MethodGet, "/pipeline-stages", nil))
	require.Len(t, stages, 2)
	assert.Equal(t, "New", stages[0].Name)

	requireErrorCode(t, doJSON(t, router, http.MethodPost, "/pipeline-stages/1/deactivate", nil), http.StatusUnprocessableEntity, "ALREADY_DEACTIVATED")
}
