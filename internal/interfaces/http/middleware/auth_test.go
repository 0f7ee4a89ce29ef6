package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	appidentity "github.com/crm/backend/internal/application/identity"
	"github.com/crm/backend/internal/domain/identity"
	"github.com/crm/backend/internal/infrastructure/auth"
	"github.com/crm/backend/internal/infrastructure/config"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func newTestJWTService() *auth.JWTService {
	return auth.NewJWTService(config.JWTConfig{
		Secret:                 "test-secret-key-at-least-32-chars",
		RefreshSecret:          "test-refresh-secret-key-32-chars",
		AccessTokenExpiration:  15 * time.Minute,
		RefreshTokenExpiration: 7 * 24 * time.Hour,
		Issuer:                 "test-issuer",
		MaxRefreshCount:        10,
	})
}

// jwtVerifier verifies tokens with the JWT service alone, without a blacklist
type jwtVerifier struct {
	svc *auth.JWTService
}

func (v jwtVerifier) VerifyAccessToken(_ context.Context, token string) (*auth.VerifiedToken, error) {
	verified, err := v.svc.ValidateAccessToken(token)
	if err != nil {
		return nil, identity.ErrUnauthenticated.WithMessage("Invalid token")
	}
	return verified, nil
}

type mockAgentAuthenticator struct {
	mock.Mock
}

func (m *mockAgentAuthenticator) Authenticate(ctx context.Context, rawKey string) (*appidentity.AgentIdentity, error) {
	args := m.Called(ctx, rawKey)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*appidentity.AgentIdentity), args.Error(1)
}

func newAuthRouter(cfg AuthConfig) *gin.Engine {
	router := gin.New()
	router.Use(RequestID(), Authenticate(cfg))
	router.GET("/protected", func(c *gin.Context) {
		claims, ok := GetClaims(c)
		if !ok {
			c.Status(http.StatusInternalServerError)
			return
		}
		subject, _ := claims.String(identity.ClaimSubject)
		c.JSON(http.StatusOK, gin.H{
			"method":  c.GetString(AuthMethodKey),
			"subject": subject,
			"has_jwt": GetVerifiedToken(c) != nil,
		})
	})
	return router
}

func TestAuthenticate_JWT(t *testing.T) {
	jwtService := newTestJWTService()
	tenantID := int64(3)
	pair, err := jwtService.GenerateTokenPair(auth.GenerateTokenInput{UserID: 42, TenantID: &tenantID, Username: "alice"})
	require.NoError(t, err)

	router := newAuthRouter(AuthConfig{Tokens: jwtVerifier{svc: jwtService}})

	t.Run("valid access token", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/protected", nil)
		req.Header.Set(AuthHeaderKey, BearerPrefix+pair.AccessToken)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		require.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, `{"method":"jwt","subject":"42","has_jwt":true}`, w.Body.String())
	})

	t.Run("refresh token is rejected", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/protected", nil)
		req.Header.Set(AuthHeaderKey, BearerPrefix+pair.RefreshToken)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Equal(t, "UNAUTHENTICATED", decodeEnvelope(t, w).Error.Code)
	})

	t.Run("garbage token", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/protected", nil)
		req.Header.Set(AuthHeaderKey, "Bearer not-a-jwt")
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("missing credentials", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/protected", nil)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
		resp := decodeEnvelope(t, w)
		assert.Equal(t, "Missing credentials", resp.Error.Message)
		assert.NotEmpty(t, resp.Error.RequestID)
	})

	t.Run("basic scheme is not accepted", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/protected", nil)
		req.Header.Set(AuthHeaderKey, "Basic dXNlcjpwYXNz")
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})
}

func TestAuthenticate_AgentKey(t *testing.T) {
	const rawKey = identity.AgentKeyPrefix + "abcdef0123456789"
	agent := &appidentity.AgentIdentity{KeyID: 9, AgentID: 9, TenantID: 3, UserID: 42, AgentName: "intake-bot"}

	tests := []struct {
		name   string
		header string
		value  string
	}{
		{"x-api-key header", APIKeyHeader, rawKey},
		{"apikey scheme", AuthHeaderKey, APIKeyPrefix + rawKey},
		{"bearer with key prefix", AuthHeaderKey, BearerPrefix + rawKey},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			agents := new(mockAgentAuthenticator)
			agents.On("Authenticate", mock.Anything, rawKey).Return(agent, nil).Once()
			router := newAuthRouter(AuthConfig{Tokens: jwtVerifier{svc: newTestJWTService()}, Agents: agents})

			req := httptest.NewRequest(http.MethodGet, "/protected", nil)
			req.Header.Set(tt.header, tt.value)
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			require.Equal(t, http.StatusOK, w.Code)
			assert.JSONEq(t, `{"method":"api_key","subject":"42","has_jwt":false}`, w.Body.String())
			agents.AssertExpectations(t)
		})
	}

	t.Run("unknown key", func(t *testing.T) {
		agents := new(mockAgentAuthenticator)
		agents.On("Authenticate", mock.Anything, rawKey).Return(nil, identity.ErrInvalidAPIKey)
		router := newAuthRouter(AuthConfig{Tokens: jwtVerifier{svc: newTestJWTService()}, Agents: agents})

		req := httptest.NewRequest(http.MethodGet, "/protected", nil)
		req.Header.Set(APIKeyHeader, rawKey)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Equal(t, "Invalid API key", decodeEnvelope(t, w).Error.Message)
	})

	t.Run("agent keys disabled", func(t *testing.T) {
		router := newAuthRouter(AuthConfig{Tokens: jwtVerifier{svc: newTestJWTService()}})

		req := httptest.NewRequest(http.MethodGet, "/protected", nil)
		req.Header.Set(APIKeyHeader, rawKey)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})
}

func TestExtractCredential(t *testing.T) {
	tests := []struct {
		name      string
		headers   map[string]string
		wantValue string
		wantAgent bool
	}{
		{"none", nil, "", false},
		{"bearer jwt", map[string]string{AuthHeaderKey: "Bearer eyJ.abc.def"}, "eyJ.abc.def", false},
		{"bearer agent", map[string]string{AuthHeaderKey: "Bearer crm_123"}, "crm_123", true},
		{"x-api-key wins", map[string]string{APIKeyHeader: "crm_k", AuthHeaderKey: "Bearer eyJ"}, "crm_k", true},
		{"apikey scheme", map[string]string{AuthHeaderKey: "ApiKey  crm_x "}, "crm_x", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, _ := gin.CreateTestContext(httptest.NewRecorder())
			c.Request = httptest.NewRequest(http.MethodGet, "/", nil)
			for k, v := range tt.headers {
				c.Request.Header.Set(k, v)
			}

			value, agent := extractCredential(c)
			assert.Equal(t, tt.wantValue, value)
			assert.Equal(t, tt.wantAgent, agent)
		})
	}
}

func TestGetClaims_Missing(t *testing.T) {
	c, _ := gin.CreateTestContext(httptest.NewRecorder())

	_, ok := GetClaims(c)
	assert.False(t, ok)
	assert.Nil(t, GetVerifiedToken(c))
}
