package middleware

import (
	"context"
	"strings"

	appidentity "github.com/crm/backend/internal/application/identity"
	"github.com/crm/backend/internal/domain/identity"
	"github.com/crm/backend/internal/infrastructure/auth"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Authentication context keys and headers
const (
	JWTClaimsKey   = "jwt_claims"
	JWTTokenKey    = "jwt_token"
	AuthHeaderKey  = "Authorization"
	APIKeyHeader   = "X-API-Key"
	BearerPrefix   = "Bearer "
	APIKeyPrefix   = "ApiKey "
	AuthMethodKey  = "auth_method"
	AuthMethodJWT  = "jwt"
	AuthMethodKeys = "api_key"
)

// TokenVerifier validates access tokens, including revocation
type TokenVerifier interface {
	VerifyAccessToken(ctx context.Context, token string) (*auth.VerifiedToken, error)
}

// AgentAuthenticator resolves plaintext agent API keys
type AgentAuthenticator interface {
	Authenticate(ctx context.Context, rawKey string) (*appidentity.AgentIdentity, error)
}

// AuthConfig holds configuration for the authentication middleware
type AuthConfig struct {
	// Tokens verifies JWT access tokens. Required.
	Tokens TokenVerifier
	// Agents verifies agent API keys. Nil disables agent keys.
	Agents AgentAuthenticator
	Logger *zap.Logger
}

// Authenticate accepts a JWT access token or an agent API key and stores the
// verified claim set under JWTClaimsKey.
//
// Agent keys are read from "Authorization: Bearer crm_...",
// "Authorization: ApiKey ..." or "X-API-Key".
func Authenticate(cfg AuthConfig) gin.HandlerFunc {
	log := cfg.Logger
	if log == nil {
		log = zap.NewNop()
	}

	return func(c *gin.Context) {
		credential, isAgentKey := extractCredential(c)
		if credential == "" {
			abortWithError(c, identity.ErrUnauthenticated.WithMessage("Missing credentials"))
			return
		}

		ctx := c.Request.Context()
		var claims appidentity.Claims
		if isAgentKey {
			if cfg.Agents == nil {
				abortWithError(c, identity.ErrInvalidAPIKey)
				return
			}
			agent, err := cfg.Agents.Authenticate(ctx, credential)
			if err != nil {
				log.Warn("Agent key authentication failed",
					zap.String("path", c.Request.URL.Path),
					zap.Error(err))
				abortWithError(c, err)
				return
			}
			claims = agent.Claims()
			c.Set(AuthMethodKey, AuthMethodKeys)
		} else {
			verified, err := cfg.Tokens.VerifyAccessToken(ctx, credential)
			if err != nil {
				log.Warn("JWT authentication failed",
					zap.String("path", c.Request.URL.Path),
					zap.Error(err))
				abortWithError(c, err)
				return
			}
			claims = appidentity.Claims(verified.Raw)
			c.Set(JWTTokenKey, verified)
			c.Set(AuthMethodKey, AuthMethodJWT)
		}

		c.Set(JWTClaimsKey, claims)
		c.Next()
	}
}

// extractCredential returns the presented credential and whether it is an agent key
func extractCredential(c *gin.Context) (string, bool) {
	if key := strings.TrimSpace(c.GetHeader(APIKeyHeader)); key != "" {
		return key, true
	}

	header := c.GetHeader(AuthHeaderKey)
	switch {
	case strings.HasPrefix(header, APIKeyPrefix):
		return strings.TrimSpace(strings.TrimPrefix(header, APIKeyPrefix)), true
	case strings.HasPrefix(header, BearerPrefix):
		token := strings.TrimSpace(strings.TrimPrefix(header, BearerPrefix))
		return token, strings.HasPrefix(token, identity.AgentKeyPrefix)
	}
	return "", false
}

// GetClaims retrieves the verified claim set from gin.Context
func GetClaims(c *gin.Context) (appidentity.Claims, bool) {
	v, ok := c.Get(JWTClaimsKey)
	if !ok {
		return nil, false
	}
	claims, ok := v.(appidentity.Claims)
	return claims, ok
}

// GetVerifiedToken retrieves the verified JWT, nil for agent keys
func GetVerifiedToken(c *gin.Context) *auth.VerifiedToken {
	if v, ok := c.Get(JWTTokenKey); ok {
		if token, ok := v.(*auth.VerifiedToken); ok {
			return token
		}
	}
	return nil
}
