package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	appidentity "github.com/crm/backend/internal/application/identity"
	"github.com/crm/backend/internal/domain/identity"
	"github.com/crm/backend/internal/infrastructure/logger"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockPrincipalResolver struct {
	mock.Mock
}

func (m *mockPrincipalResolver) ResolvePrincipal(ctx context.Context, claims appidentity.Claims) (*identity.Principal, error) {
	args := m.Called(ctx, claims)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*identity.Principal), args.Error(1)
}

// withClaims stands in for Authenticate
func withClaims(claims appidentity.Claims) gin.HandlerFunc {
	return func(c *gin.Context) {
		if claims != nil {
			c.Set(JWTClaimsKey, claims)
		}
		c.Next()
	}
}

func userPrincipal(userID int64, tenantID *int64) *identity.Principal {
	p := identity.NewUserPrincipal(userID, tenantID, map[string]any{identity.ClaimSubject: "42"})
	return &p
}

func TestResolvePrincipal(t *testing.T) {
	claims := appidentity.Claims{identity.ClaimSubject: "42"}
	tenantID := int64(5)

	t.Run("stores principal and enriches context", func(t *testing.T) {
		resolver := new(mockPrincipalResolver)
		resolver.On("ResolvePrincipal", mock.Anything, claims).Return(userPrincipal(42, &tenantID), nil)

		router := gin.New()
		router.Use(withClaims(claims), ResolvePrincipal(resolver, nil))
		router.GET("/test", func(c *gin.Context) {
			p := GetPrincipal(c)
			require.NotNil(t, p)
			userID, _ := GetUserID(c)
			tid, ok := GetTenantID(c)
			assert.True(t, ok)
			assert.Equal(t, int64(42), userID)
			assert.Equal(t, int64(5), tid)
			ctxUser, _ := logger.GetUserID(c.Request.Context())
			ctxTenant, _ := logger.GetTenantID(c.Request.Context())
			assert.Equal(t, int64(42), ctxUser)
			assert.Equal(t, int64(5), ctxTenant)
			c.Status(http.StatusOK)
		})

		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/test", nil))

		assert.Equal(t, http.StatusOK, w.Code)
		resolver.AssertExpectations(t)
	})

	t.Run("no tenant leaves tenant unset", func(t *testing.T) {
		resolver := new(mockPrincipalResolver)
		resolver.On("ResolvePrincipal", mock.Anything, claims).Return(userPrincipal(42, nil), nil)

		router := gin.New()
		router.Use(withClaims(claims), ResolvePrincipal(resolver, nil))
		router.GET("/test", func(c *gin.Context) {
			_, ok := GetTenantID(c)
			assert.False(t, ok)
			c.Status(http.StatusOK)
		})

		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/test", nil))
		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("resolver error is returned", func(t *testing.T) {
		resolver := new(mockPrincipalResolver)
		resolver.On("ResolvePrincipal", mock.Anything, claims).Return(nil, identity.ErrUnauthenticated.WithMessage("User not found"))

		router := gin.New()
		router.Use(withClaims(claims), ResolvePrincipal(resolver, nil))
		router.GET("/test", func(c *gin.Context) {
			t.Fatal("handler must not run")
		})

		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/test", nil))

		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Equal(t, "User not found", decodeEnvelope(t, w).Error.Message)
	})

	t.Run("missing claims", func(t *testing.T) {
		resolver := new(mockPrincipalResolver)

		router := gin.New()
		router.Use(withClaims(nil), ResolvePrincipal(resolver, nil))
		router.GET("/test", func(c *gin.Context) {
			c.Status(http.StatusOK)
		})

		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/test", nil))

		assert.Equal(t, http.StatusUnauthorized, w.Code)
		resolver.AssertNotCalled(t, "ResolvePrincipal", mock.Anything, mock.Anything)
	})
}

func TestRequireTenant(t *testing.T) {
	tenantID := int64(5)

	tests := []struct {
		name      string
		principal *identity.Principal
		status    int
		code      string
	}{
		{"with tenant", userPrincipal(42, &tenantID), http.StatusOK, ""},
		{"without tenant", userPrincipal(42, nil), http.StatusPreconditionRequired, "NO_ACTIVE_TENANT"},
		{"no principal", nil, http.StatusUnauthorized, "UNAUTHENTICATED"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := gin.New()
			router.Use(func(c *gin.Context) {
				if tt.principal != nil {
					c.Set(PrincipalKey, tt.principal)
				}
				c.Next()
			}, RequireTenant())
			router.GET("/test", func(c *gin.Context) {
				c.Status(http.StatusOK)
			})

			w := httptest.NewRecorder()
			router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/test", nil))

			assert.Equal(t, tt.status, w.Code)
			if tt.code != "" {
				assert.Equal(t, tt.code, decodeEnvelope(t, w).Error.Code)
			}
		})
	}
}

func TestGetPrincipal_WrongType(t *testing.T) {
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	c.Set(PrincipalKey, "not a principal")
	c.Set(TenantIDKey, "5")

	assert.Nil(t, GetPrincipal(c))
	_, ok := GetTenantID(c)
	assert.False(t, ok)
}
