package handler

import (
	"context"
	"net/http"
	"testing"
	"time"

	appidentity "github.com/crm/backend/internal/application/identity"
	"github.com/crm/backend/internal/domain/identity"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockCompanyService struct {
	mock.Mock
}

func (m *mockCompanyService) CreateCompany(ctx context.Context, userID int64, input appidentity.CreateCompanyInput) (*appidentity.CompanyInfo, error) {
	args := m.Called(ctx, userID, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*appidentity.CompanyInfo), args.Error(1)
}

func (m *mockCompanyService) SwitchActiveCompany(ctx context.Context, userID, companyID int64) error {
	return m.Called(ctx, userID, companyID).Error(0)
}

func (m *mockCompanyService) ListMemberships(ctx context.Context, userID int64) ([]appidentity.MembershipInfo, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]appidentity.MembershipInfo), args.Error(1)
}

func (m *mockCompanyService) GetCompany(ctx context.Context, userID, companyID int64) (*appidentity.CompanyInfo, error) {
	args := m.Called(ctx, userID, companyID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*appidentity.CompanyInfo), args.Error(1)
}

func (m *mockCompanyService) AddMember(ctx context.Context, companyID, userID int64) error {
	return m.Called(ctx, companyID, userID).Error(0)
}

func (m *mockCompanyService) RemoveMember(ctx context.Context, companyID, userID int64) error {
	return m.Called(ctx, companyID, userID).Error(0)
}

func newCompanyRouter(principal *identity.Principal, svc *mockCompanyService) *gin.Engine {
	h := NewCompanyHandler(svc)
	router := newTestRouter(principal)
	router.GET("/me/companies", h.ListMyCompanies)
	router.POST("/me/companies", h.CreateCompany)
	router.PUT("/me/active-company", h.SwitchActiveCompany)
	router.GET("/companies/:id", h.GetCompany)
	router.POST("/companies/:id/members", h.AddMember)
	router.DELETE("/companies/:id/members/:user_id", h.RemoveMember)
	return router
}

func TestCompanyHandler_ListMyCompanies(t *testing.T) {
	svc := new(mockCompanyService)
	router := newCompanyRouter(userPrincipal(), svc)
	svc.On("ListMemberships", mock.Anything, testUserID).Return([]appidentity.MembershipInfo{
		{CompanyID: testTenantID, CompanyName: "Acme", Role: identity.MembershipRoleOwner, IsActive: true, IsCurrent: true, JoinedAt: time.Now()},
		{CompanyID: 8, CompanyName: "Globex", Role: identity.MembershipRoleMember, IsActive: true},
	}, nil)

	w := doJSON(t, router, http.MethodGet, "/me/companies", nil)

	got := decodeData[[]MembershipResponse](t, w)
	require.Len(t, got, 2)
	assert.Equal(t, "owner", got[0].Role)
	assert.True(t, got[0].IsCurrent)
	assert.False(t, got[1].IsCurrent)
}

func TestCompanyHandler_CreateCompany(t *testing.T) {
	svc := new(mockCompanyService)
	router := newCompanyRouter(tenantlessPrincipal(), svc)
	svc.On("CreateCompany", mock.Anything, testUserID, appidentity.CreateCompanyInput{Name: "Acme", Industry: "Manufacturing"}).
		Return(&appidentity.CompanyInfo{ID: testTenantID, Name: "Acme", Industry: "Manufacturing", Status: identity.CompanyStatusActive, OwnerUserID: testUserID}, nil)

	w := doJSON(t, router, http.MethodPost, "/me/companies", map[string]string{"name": "Acme", "industry": "Manufacturing"})

	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	got := decodeData[CompanyResponse](t, w)
	assert.Equal(t, testTenantID, got.ID)
	assert.Equal(t, "active", got.Status)

	w = doJSON(t, router, http.MethodPost, "/me/companies", map[string]string{"name": "Acme", "website": "not a url"})
	requireErrorCode(t, w, http.StatusBadRequest, "VALIDATION_ERROR")

	agentRouter := newCompanyRouter(agentPrincipal(), svc)
	w = doJSON(t, agentRouter, http.MethodPost, "/me/companies", map[string]string{"name": "Acme"})
	requireErrorCode(t, w, http.StatusForbidden, "FORBIDDEN")
	svc.AssertNumberOfCalls(t, "CreateCompany", 1)
}

func TestCompanyHandler_SwitchActiveCompany(t *testing.T) {
	svc := new(mockCompanyService)
	router := newCompanyRouter(userPrincipal(), svc)
	svc.On("SwitchActiveCompany", mock.Anything, testUserID, int64(8)).Return(nil)
	svc.On("SwitchActiveCompany", mock.Anything, testUserID, int64(99)).Return(identity.ErrNotMember)

	w := doJSON(t, router, http.MethodPut, "/me/active-company", map[string]int64{"company_id": 8})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, int64(8), decodeData[ActiveCompanyResponse](t, w).ActiveCompanyID)

	w = doJSON(t, router, http.MethodPut, "/me/active-company", map[string]int64{"company_id": 99})
	requireErrorCode(t, w, http.StatusForbidden, "FORBIDDEN")

	w = doJSON(t, router, http.MethodPut, "/me/active-company", map[string]int64{"company_id": 0})
	requireErrorCode(t, w, http.StatusBadRequest, "VALIDATION_ERROR")
}

func TestCompanyHandler_MemberManagement(t *testing.T) {
	owned := &appidentity.CompanyInfo{ID: testTenantID, Name: "Acme", OwnerUserID: testUserID}
	foreign := &appidentity.CompanyInfo{ID: 8, Name: "Globex", OwnerUserID: 100}

	t.Run("owner adds and removes members", func(t *testing.T) {
		svc := new(mockCompanyService)
		router := newCompanyRouter(userPrincipal(), svc)
		svc.On("GetCompany", mock.Anything, testUserID, testTenantID).Return(owned, nil)
		svc.On("AddMember", mock.Anything, testTenantID, int64(55)).Return(nil)
		svc.On("RemoveMember", mock.Anything, testTenantID, int64(55)).Return(nil)

		w := doJSON(t, router, http.MethodPost, "/companies/7/members", map[string]int64{"user_id": 55})
		assert.Equal(t, http.StatusNoContent, w.Code)

		w = doJSON(t, router, http.MethodDelete, "/companies/7/members/55", nil)
		assert.Equal(t, http.StatusNoContent, w.Code)
		svc.AssertExpectations(t)
	})

	t.Run("non-owner member is refused", func(t *testing.T) {
		svc := new(mockCompanyService)
		router := newCompanyRouter(userPrincipal(), svc)
		svc.On("GetCompany", mock.Anything, testUserID, int64(8)).Return(foreign, nil)

		w := doJSON(t, router, http.MethodPost, "/companies/8/members", map[string]int64{"user_id": 55})

		requireErrorCode(t, w, http.StatusForbidden, "FORBIDDEN")
		assert.Equal(t, identity.ErrNotOwner.Message, decode(t, w).Error.Message)
		svc.AssertNotCalled(t, "AddMember", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("outsider is refused", func(t *testing.T) {
		svc := new(mockCompanyService)
		router := newCompanyRouter(userPrincipal(), svc)
		svc.On("GetCompany", mock.Anything, testUserID, int64(9)).Return(nil, identity.ErrNotMember)

		w := doJSON(t, router, http.MethodDelete, "/companies/9/members/55", nil)

		requireErrorCode(t, w, http.StatusForbidden, "FORBIDDEN")
		svc.AssertNotCalled(t, "RemoveMember", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("agents cannot manage members", func(t *testing.T) {
		svc := new(mockCompanyService)
		router := newCompanyRouter(agentPrincipal(), svc)

		w := doJSON(t, router, http.MethodPost, "/companies/7/members", map[string]int64{"user_id": 55})

		requireErrorCode(t, w, http.StatusForbidden, "FORBIDDEN")
		svc.AssertNotCalled(t, "GetCompany", mock.Anything, mock.Anything, mock.Anything)
	})
}

func TestCompanyHandler_GetCompany(t *testing.T) {
	svc := new(mockCompanyService)
	router := newCompanyRouter(userPrincipal(), svc)
	svc.On("GetCompany", mock.Anything, testUserID, testTenantID).
		Return(&appidentity.CompanyInfo{ID: testTenantID, Name: "Acme", OwnerUserID: testUserID}, nil)

	w := doJSON(t, router, http.MethodGet, "/companies/7", nil)
	assert.Equal(t, "Acme", decodeData[CompanyResponse](t, w).Name)

	w = doJSON(t, router, http.MethodGet, "/companies/x", nil)
	requireErrorCode(t, w, http.StatusBadRequest, "BAD_REQUEST")
}
