package marketing

import (
	"context"

	"github.com/crm/backend/internal/domain/shared"
)

// LeadRepository defines the interface for lead persistence
type LeadRepository interface {
	// FindByID finds a lead by ID regardless of tenant
	FindByID(ctx context.Context, id int64) (*Lead, error)

	// FindByIDForTenant finds a lead by ID within a tenant
	// Returns ErrLeadNotFound when the lead is absent or owned by another tenant
	FindByIDForTenant(ctx context.Context, tenantID, id int64) (*Lead, error)

	// FindAllForTenant lists leads of a tenant and returns the total count
	FindAllForTenant(ctx context.Context, tenantID int64, filter LeadFilter) ([]Lead, int64, error)

	// Create inserts a new lead and assigns its ID
	Create(ctx context.Context, lead *Lead) error

	// SaveWithLock saves a non-converted lead with optimistic locking
	// Returns ErrLeadAlreadyConverted if the stored lead is converted,
	// shared.ErrConcurrencyConflict if the version has changed
	SaveWithLock(ctx context.Context, lead *Lead) error

	// MarkConverted persists the conversion outcome with a guarded update that
	// only matches the loaded version of a lead that is not yet converted.
	// Returns ErrLeadAlreadyConverted when no row matched.
	MarkConverted(ctx context.Context, lead *Lead) error

	// DeleteForTenant deletes a non-converted lead within a tenant
	DeleteForTenant(ctx context.Context, tenantID, id int64) error
}

// LeadFilter narrows lead listings
type LeadFilter struct {
	shared.Filter
	Status         LeadStatus
	Rating         LeadRating
	AssignedUserID *int64
	SourceID       *int64
}

// LeadSourceRepository defines the interface for lead source persistence
type LeadSourceRepository interface {
	FindByID(ctx context.Context, id int64) (*LeadSource, error)
	FindByIDForTenant(ctx context.Context, tenantID, id int64) (*LeadSource, error)
	ListForTenant(ctx context.Context, tenantID int64, activeOnly bool) ([]LeadSource, error)
	Create(ctx context.Context, source *LeadSource) error
	Save(ctx context.Context, source *LeadSource) error
}
