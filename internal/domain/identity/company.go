package identity

import (
	"strings"

	"github.com/crm/backend/internal/domain/shared"
)

// CompanyStatus represents the status of a company
type CompanyStatus string

const (
	CompanyStatusActive   CompanyStatus = "active"
	CompanyStatusInactive CompanyStatus = "inactive"
)

// Company is a tenant: the unit of data isolation. Every CRM record
// carries the id of the company that owns it.
type Company struct {
	shared.BaseAggregateRoot
	Name        string
	Description string
	Industry    string
	Website     string
	Email       string
	Phone       string
	Status      CompanyStatus
	OwnerUserID int64
}

// NewCompany creates an active company owned by ownerUserID
func NewCompany(name string, ownerUserID int64) (*Company, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, shared.NewDomainError("INVALID_COMPANY_NAME", "Company name cannot be empty")
	}
	if len(name) > 200 {
		return nil, shared.NewDomainError("INVALID_COMPANY_NAME", "Company name cannot exceed 200 characters")
	}
	if ownerUserID <= 0 {
		return nil, shared.NewDomainError("INVALID_OWNER", "Company owner is required")
	}

	return &Company{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		Name:              name,
		Status:            CompanyStatusActive,
		OwnerUserID:       ownerUserID,
	}, nil
}

// UpdateProfile replaces the descriptive fields
func (c *Company) UpdateProfile(name, description, industry, website, email, phone string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return shared.NewDomainError("INVALID_COMPANY_NAME", "Company name cannot be empty")
	}
	c.Name = name
	c.Description = description
	c.Industry = industry
	c.Website = website
	c.Email = email
	c.Phone = phone
	c.Touch()
	return nil
}

// Deactivate marks the company inactive
func (c *Company) Deactivate() {
	c.Status = CompanyStatusInactive
	c.Touch()
}

// IsActive returns true for active companies
func (c *Company) IsActive() bool {
	return c.Status == CompanyStatusActive
}
