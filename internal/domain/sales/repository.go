package sales

import (
	"context"

	"github.com/crm/backend/internal/domain/shared"
)

// OpportunityRepository defines the interface for opportunity persistence
type OpportunityRepository interface {
	FindByID(ctx context.Context, id int64) (*Opportunity, error)
	FindByIDForTenant(ctx context.Context, tenantID, id int64) (*Opportunity, error)
	FindAllForTenant(ctx context.Context, tenantID int64, filter OpportunityFilter) ([]Opportunity, int64, error)
	Create(ctx context.Context, opportunity *Opportunity) error

	// SaveWithLock saves an opportunity with optimistic locking
	// Returns shared.ErrConcurrencyConflict if the version has changed
	SaveWithLock(ctx context.Context, opportunity *Opportunity) error
}

// OpportunityFilter narrows opportunity listings
type OpportunityFilter struct {
	shared.Filter
	Status          OpportunityStatus
	PipelineStageID *int64
	CustomerID      *int64
	AssignedUserID  *int64
}

// PipelineStageRepository defines the interface for pipeline stage persistence
type PipelineStageRepository interface {
	FindByID(ctx context.Context, id int64) (*PipelineStage, error)
	FindByIDForTenant(ctx context.Context, tenantID, id int64) (*PipelineStage, error)

	// ListForTenant returns stages ordered by display order
	ListForTenant(ctx context.Context, tenantID int64, activeOnly bool) ([]PipelineStage, error)

	// FindDefault returns the active stage with the lowest display order
	// Returns shared.ErrNotFound when the tenant has no active stage
	FindDefault(ctx context.Context, tenantID int64) (*PipelineStage, error)

	Create(ctx context.Context, stage *PipelineStage) error
	Save(ctx context.Context, stage *PipelineStage) error
}
