package identity

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/crm/backend/internal/domain/identity"
	"github.com/crm/backend/internal/domain/shared"
	"go.uber.org/zap"
)

// Claims is a read-only view over the claims of a verified credential
type Claims map[string]any

// Get returns the raw value of one claim
func (c Claims) Get(name string) (any, bool) {
	v, ok := c[name]
	return v, ok
}

// String returns a claim rendered as a string, false when absent or not scalar
func (c Claims) String(name string) (string, bool) {
	v, ok := c[name]
	if !ok || v == nil {
		return "", false
	}
	switch val := v.(type) {
	case string:
		return val, true
	case fmt.Stringer:
		return val.String(), true
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64), true
	case int64:
		return strconv.FormatInt(val, 10), true
	case int:
		return strconv.Itoa(val), true
	default:
		return "", false
	}
}

// ClaimExtractor pulls the user identifier out of a claim set
type ClaimExtractor interface {
	Extract(claims Claims) (string, bool)
}

// ClaimExtractorFunc adapts a function to ClaimExtractor
type ClaimExtractorFunc func(claims Claims) (string, bool)

// Extract calls f(claims)
func (f ClaimExtractorFunc) Extract(claims Claims) (string, bool) {
	return f(claims)
}

// NamedClaim extracts the non-empty value of a single claim
func NamedClaim(name string) ClaimExtractor {
	return ClaimExtractorFunc(func(claims Claims) (string, bool) {
		s, ok := claims.String(name)
		if !ok || strings.TrimSpace(s) == "" {
			return "", false
		}
		return s, true
	})
}

// DefaultUserIDExtractors tries the service's own user_id claim, then the
// registered subject.
func DefaultUserIDExtractors() []ClaimExtractor {
	return []ClaimExtractor{
		NamedClaim(identity.ClaimUserID),
		NamedClaim(identity.ClaimSubject),
	}
}

// Resolver turns verified claims into the request principal
type Resolver struct {
	userRepo       identity.UserRepository
	membershipRepo identity.MembershipRepository
	extractors     []ClaimExtractor
	logger         *zap.Logger
}

// NewResolver creates a resolver. With no extractors the defaults are used.
func NewResolver(
	userRepo identity.UserRepository,
	membershipRepo identity.MembershipRepository,
	logger *zap.Logger,
	extractors ...ClaimExtractor,
) *Resolver {
	if len(extractors) == 0 {
		extractors = DefaultUserIDExtractors()
	}
	return &Resolver{
		userRepo:       userRepo,
		membershipRepo: membershipRepo,
		extractors:     extractors,
		logger:         logger,
	}
}

// ResolveUserID returns the numeric user id named by the first matching extractor
func (r *Resolver) ResolveUserID(claims Claims) (int64, error) {
	for _, extractor := range r.extractors {
		raw, ok := extractor.Extract(claims)
		if !ok {
			continue
		}
		id, ok := identity.ParseNumericID(raw)
		if !ok {
			return 0, identity.ErrUnauthenticated.WithMessage("User identifier is not numeric")
		}
		return id, nil
	}
	return 0, identity.ErrUnauthenticated
}

// ResolvePrincipal builds the principal for a verified claim set.
// It only reads; resolving the same claims twice yields equal principals.
func (r *Resolver) ResolvePrincipal(ctx context.Context, claims Claims) (*identity.Principal, error) {
	userID, err := r.ResolveUserID(claims)
	if err != nil {
		return nil, err
	}

	user, err := r.userRepo.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			r.logger.Warn("Credential names an unknown user", zap.Int64("user_id", userID))
			return nil, identity.ErrUnauthenticated
		}
		return nil, fmt.Errorf("load user %d: %w", userID, err)
	}
	if user.Status == identity.UserStatusDeactivated {
		return nil, identity.ErrUnauthenticated
	}

	if isAgentClaims(claims) {
		return r.agentPrincipal(user.ID, claims)
	}

	tenantID, err := activeCompanyOf(ctx, r.membershipRepo, user)
	if err != nil {
		return nil, err
	}
	p := identity.NewUserPrincipal(user.ID, tenantID, claims)
	return &p, nil
}

// GetActiveTenant returns the principal's tenant or ErrNoActiveTenant
func (r *Resolver) GetActiveTenant(_ context.Context, principal *identity.Principal) (int64, error) {
	if principal == nil {
		return 0, identity.ErrUnauthenticated
	}
	tenantID, ok := principal.TenantID()
	if !ok {
		return 0, identity.ErrNoActiveTenant
	}
	return tenantID, nil
}

// GetActiveTenantOrNull returns the principal's tenant, nil when there is none
func (r *Resolver) GetActiveTenantOrNull(_ context.Context, principal *identity.Principal) (*int64, error) {
	if principal == nil {
		return nil, identity.ErrUnauthenticated
	}
	return principal.TenantIDOrNil(), nil
}

// activeCompanyOf returns the user's active company when its membership is still active
func activeCompanyOf(ctx context.Context, memberships identity.MembershipRepository, user *identity.User) (*int64, error) {
	if !user.HasActiveCompany() {
		return nil, nil
	}
	companyID := *user.ActiveCompanyID
	membership, err := memberships.Find(ctx, user.ID, companyID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("load membership: %w", err)
	}
	if !membership.IsActive {
		return nil, nil
	}
	return &companyID, nil
}

func (r *Resolver) agentPrincipal(userID int64, claims Claims) (*identity.Principal, error) {
	agentID, ok1 := identity.ParseNumericID(claims[identity.ClaimAgentID])
	keyID, ok2 := identity.ParseNumericID(claims[identity.ClaimAPIKeyID])
	companyID, ok3 := identity.ParseNumericID(claims[identity.ClaimCompanyID])
	if !ok1 || !ok2 || !ok3 {
		return nil, identity.ErrUnauthenticated.WithMessage("Incomplete agent credentials")
	}
	p := identity.NewAgentPrincipal(userID, companyID, agentID, keyID, claims)
	return &p, nil
}

func isAgentClaims(claims Claims) bool {
	authType, _ := claims.String(identity.ClaimAuthType)
	return authType == identity.AuthTypeAPIKey
}
