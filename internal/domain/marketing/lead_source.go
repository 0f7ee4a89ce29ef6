package marketing

import (
	"strings"

	"github.com/crm/backend/internal/domain/shared"
)

// LeadSource is a tenant-defined origin of leads (web form, referral, fair...)
type LeadSource struct {
	shared.TenantAggregateRoot
	Name        string
	Description string
	IsActive    bool
}

// NewLeadSource creates an active lead source
func NewLeadSource(tenantID int64, name, description string) (*LeadSource, error) {
	if tenantID <= 0 {
		return nil, shared.NewDomainError("INVALID_TENANT", "Tenant ID is required")
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, shared.NewDomainError("INVALID_NAME", "Lead source name cannot be empty")
	}
	if len(name) > 100 {
		return nil, shared.NewDomainError("INVALID_NAME", "Lead source name cannot exceed 100 characters")
	}
	return &LeadSource{
		TenantAggregateRoot: shared.NewTenantAggregateRoot(tenantID),
		Name:                name,
		Description:         strings.TrimSpace(description),
		IsActive:            true,
	}, nil
}

// Deactivate hides the source from new leads
func (s *LeadSource) Deactivate() error {
	if !s.IsActive {
		return shared.NewDomainError("ALREADY_INACTIVE", "Lead source is already inactive")
	}
	s.IsActive = false
	s.Touch()
	return nil
}
