package models

import (
	"time"

	"github.com/crm/backend/internal/domain/identity"
)

// UserModel is the persistence model for the User domain entity.
type UserModel struct {
	AggregateModel
	Username        string              `gorm:"type:varchar(100);not null;uniqueIndex"`
	Email           string              `gorm:"type:varchar(200);not null;uniqueIndex"`
	PasswordHash    string              `gorm:"type:varchar(255);not null"`
	DisplayName     string              `gorm:"type:varchar(200)"`
	Status          identity.UserStatus `gorm:"type:varchar(20);not null;default:'active'"`
	ActiveCompanyID *int64              `gorm:"index"`
	LastLoginAt     *time.Time
	FailedAttempts  int `gorm:"not null;default:0"`
	LockedUntil     *time.Time
}

// TableName returns the table name for GORM
func (UserModel) TableName() string {
	return "users"
}

// ToDomain converts the persistence model to a domain User entity.
func (m *UserModel) ToDomain() *identity.User {
	return &identity.User{
		BaseAggregateRoot: m.ToAggregateRoot(),
		Username:          m.Username,
		Email:             m.Email,
		PasswordHash:      m.PasswordHash,
		DisplayName:       m.DisplayName,
		Status:            m.Status,
		ActiveCompanyID:   m.ActiveCompanyID,
		LastLoginAt:       m.LastLoginAt,
		FailedAttempts:    m.FailedAttempts,
		LockedUntil:       m.LockedUntil,
	}
}

// FromDomain populates the persistence model from a domain User entity.
func (m *UserModel) FromDomain(u *identity.User) {
	m.FromDomainAggregateRoot(u.BaseAggregateRoot)
	m.Username = u.Username
	m.Email = u.Email
	m.PasswordHash = u.PasswordHash
	m.DisplayName = u.DisplayName
	m.Status = u.Status
	m.ActiveCompanyID = u.ActiveCompanyID
	m.LastLoginAt = u.LastLoginAt
	m.FailedAttempts = u.FailedAttempts
	m.LockedUntil = u.LockedUntil
}

// UserModelFromDomain creates a new persistence model from a domain User entity.
func UserModelFromDomain(u *identity.User) *UserModel {
	m := &UserModel{}
	m.FromDomain(u)
	return m
}

// CompanyModel is the persistence model for the Company (tenant) aggregate.
type CompanyModel struct {
	AggregateModel
	Name        string                 `gorm:"type:varchar(200);not null"`
	Description string                 `gorm:"type:text"`
	Industry    string                 `gorm:"type:varchar(100)"`
	Website     string                 `gorm:"type:varchar(500)"`
	Email       string                 `gorm:"type:varchar(200)"`
	Phone       string                 `gorm:"type:varchar(50)"`
	Status      identity.CompanyStatus `gorm:"type:varchar(20);not null;default:'active'"`
	OwnerUserID int64                  `gorm:"not null;index"`
}

// TableName returns the table name for GORM
func (CompanyModel) TableName() string {
	return "companies"
}

// ToDomain converts the persistence model to a domain Company.
func (m *CompanyModel) ToDomain() *identity.Company {
	return &identity.Company{
		BaseAggregateRoot: m.ToAggregateRoot(),
		Name:              m.Name,
		Description:       m.Description,
		Industry:          m.Industry,
		Website:           m.Website,
		Email:             m.Email,
		Phone:             m.Phone,
		Status:            m.Status,
		OwnerUserID:       m.OwnerUserID,
	}
}

// FromDomain populates the persistence model from a domain Company.
func (m *CompanyModel) FromDomain(c *identity.Company) {
	m.FromDomainAggregateRoot(c.BaseAggregateRoot)
	m.Name = c.Name
	m.Description = c.Description
	m.Industry = c.Industry
	m.Website = c.Website
	m.Email = c.Email
	m.Phone = c.Phone
	m.Status = c.Status
	m.OwnerUserID = c.OwnerUserID
}

// CompanyModelFromDomain creates a new persistence model from a domain Company.
func CompanyModelFromDomain(c *identity.Company) *CompanyModel {
	m := &CompanyModel{}
	m.FromDomain(c)
	return m
}

// MembershipModel links users and companies (table user_companies).
type MembershipModel struct {
	ID        int64                   `gorm:"primaryKey;autoIncrement"`
	UserID    int64                   `gorm:"not null;uniqueIndex:idx_user_company,priority:1"`
	CompanyID int64                   `gorm:"not null;uniqueIndex:idx_user_company,priority:2;index"`
	Role      identity.MembershipRole `gorm:"type:varchar(20);not null;default:'member'"`
	IsActive  bool                    `gorm:"not null;default:true"`
	JoinedAt  time.Time               `gorm:"not null"`
	LeftAt    *time.Time
}

// TableName returns the table name for GORM
func (MembershipModel) TableName() string {
	return "user_companies"
}

// ToDomain converts the persistence model to a domain Membership.
func (m *MembershipModel) ToDomain() *identity.Membership {
	return &identity.Membership{
		ID:        m.ID,
		UserID:    m.UserID,
		CompanyID: m.CompanyID,
		Role:      m.Role,
		IsActive:  m.IsActive,
		JoinedAt:  m.JoinedAt,
		LeftAt:    m.LeftAt,
	}
}

// MembershipModelFromDomain creates a persistence model from a domain Membership.
func MembershipModelFromDomain(ms *identity.Membership) *MembershipModel {
	return &MembershipModel{
		ID:        ms.ID,
		UserID:    ms.UserID,
		CompanyID: ms.CompanyID,
		Role:      ms.Role,
		IsActive:  ms.IsActive,
		JoinedAt:  ms.JoinedAt,
		LeftAt:    ms.LeftAt,
	}
}

// AgentAPIKeyModel is the persistence model for agent API keys.
type AgentAPIKeyModel struct {
	TenantAggregateModel
	AgentName  string `gorm:"type:varchar(100);not null"`
	KeyPrefix  string `gorm:"type:varchar(20);not null"`
	KeyHash    string `gorm:"type:varchar(64);not null;uniqueIndex"`
	ExpiresAt  *time.Time
	LastUsedAt *time.Time
	RevokedAt  *time.Time
}

// TableName returns the table name for GORM
func (AgentAPIKeyModel) TableName() string {
	return "agent_api_keys"
}

// ToDomain converts the persistence model to a domain AgentAPIKey.
func (m *AgentAPIKeyModel) ToDomain() *identity.AgentAPIKey {
	return &identity.AgentAPIKey{
		TenantAggregateRoot: m.ToTenantAggregateRoot(),
		AgentName:           m.AgentName,
		KeyPrefix:           m.KeyPrefix,
		KeyHash:             m.KeyHash,
		ExpiresAt:           m.ExpiresAt,
		LastUsedAt:          m.LastUsedAt,
		RevokedAt:           m.RevokedAt,
	}
}

// AgentAPIKeyModelFromDomain creates a persistence model from a domain AgentAPIKey.
func AgentAPIKeyModelFromDomain(k *identity.AgentAPIKey) *AgentAPIKeyModel {
	m := &AgentAPIKeyModel{
		AgentName:  k.AgentName,
		KeyPrefix:  k.KeyPrefix,
		KeyHash:    k.KeyHash,
		ExpiresAt:  k.ExpiresAt,
		LastUsedAt: k.LastUsedAt,
		RevokedAt:  k.RevokedAt,
	}
	m.FromDomainTenantAggregateRoot(k.TenantAggregateRoot)
	return m
}
