package identity

import (
	"time"

	"github.com/crm/backend/internal/domain/identity"
)

// RegisterInput contains the input for sign-up
type RegisterInput struct {
	Username    string
	Email       string
	Password    string
	DisplayName string
}

// LoginInput contains the input for user login.
// Login is a username or an email address.
type LoginInput struct {
	Login    string
	Password string
}

// LoginResult contains the result of a successful login
type LoginResult struct {
	Tokens TokenResult
	User   UserInfo
}

// TokenResult carries a freshly issued token pair
type TokenResult struct {
	AccessToken           string
	RefreshToken          string
	AccessTokenExpiresAt  time.Time
	RefreshTokenExpiresAt time.Time
	TokenType             string
}

// UserInfo contains basic user information
type UserInfo struct {
	ID              int64
	Username        string
	DisplayName     string
	Email           string
	ActiveCompanyID *int64
	LastLoginAt     *time.Time
}

// LogoutInput contains the input for user logout
type LogoutInput struct {
	UserID   int64
	TokenJTI string
	TokenTTL time.Duration
}

// CreateCompanyInput contains the input for company onboarding
type CreateCompanyInput struct {
	Name        string
	Description string
	Industry    string
	Website     string
	Email       string
	Phone       string
}

// MembershipInfo describes one company the user belongs to
type MembershipInfo struct {
	CompanyID   int64
	CompanyName string
	Role        identity.MembershipRole
	IsActive    bool
	IsCurrent   bool
	JoinedAt    time.Time
}

// CompanyInfo describes a company
type CompanyInfo struct {
	ID          int64
	Name        string
	Description string
	Industry    string
	Website     string
	Email       string
	Phone       string
	Status      identity.CompanyStatus
	OwnerUserID int64
	CreatedAt   time.Time
}

// IssueAgentKeyInput contains the input for issuing an agent API key
type IssueAgentKeyInput struct {
	AgentName string
	ExpiresAt *time.Time
}

// AgentKeyInfo describes an agent key without its secret
type AgentKeyInfo struct {
	ID         int64
	AgentName  string
	KeyPrefix  string
	CreatedBy  int64
	ExpiresAt  *time.Time
	LastUsedAt *time.Time
	RevokedAt  *time.Time
	CreatedAt  time.Time
}

// IssuedAgentKey is returned once, when the plaintext is still known
type IssuedAgentKey struct {
	AgentKeyInfo
	Key string
}

// AgentIdentity is the outcome of a successful API key authentication
type AgentIdentity struct {
	KeyID     int64
	AgentID   int64
	TenantID  int64
	UserID    int64
	AgentName string
}

// Claims renders the identity as the claim set understood by the resolver
func (a AgentIdentity) Claims() Claims {
	return Claims{
		identity.ClaimSubject:   a.UserID,
		identity.ClaimAgentID:   a.AgentID,
		identity.ClaimAPIKeyID:  a.KeyID,
		identity.ClaimCompanyID: a.TenantID,
		identity.ClaimAuthType:  identity.AuthTypeAPIKey,
	}
}

func toUserInfo(u *identity.User) UserInfo {
	return UserInfo{
		ID:              u.ID,
		Username:        u.Username,
		DisplayName:     u.GetDisplayNameOrUsername(),
		Email:           u.Email,
		ActiveCompanyID: u.ActiveCompanyID,
		LastLoginAt:     u.LastLoginAt,
	}
}

func toCompanyInfo(c *identity.Company) CompanyInfo {
	return CompanyInfo{
		ID:          c.ID,
		Name:        c.Name,
		Description: c.Description,
		Industry:    c.Industry,
		Website:     c.Website,
		Email:       c.Email,
		Phone:       c.Phone,
		Status:      c.Status,
		OwnerUserID: c.OwnerUserID,
		CreatedAt:   c.CreatedAt,
	}
}

func toAgentKeyInfo(k *identity.AgentAPIKey) AgentKeyInfo {
	return AgentKeyInfo{
		ID:         k.ID,
		AgentName:  k.AgentName,
		KeyPrefix:  k.KeyPrefix,
		CreatedBy:  k.IssuedBy(),
		ExpiresAt:  k.ExpiresAt,
		LastUsedAt: k.LastUsedAt,
		RevokedAt:  k.RevokedAt,
		CreatedAt:  k.CreatedAt,
	}
}
