// Package access decides whether a tenant may touch a tenant-scoped record.
package access

import (
	"context"
	"errors"
	"sync"

	"github.com/crm/backend/internal/domain/marketing"
	"github.com/crm/backend/internal/domain/partner"
	"github.com/crm/backend/internal/domain/sales"
	"github.com/crm/backend/internal/domain/shared"
	"go.uber.org/zap"
)

// Kind names a tenant-scoped entity type
type Kind string

const (
	KindCustomer      Kind = "customer"
	KindLead          Kind = "lead"
	KindOpportunity   Kind = "opportunity"
	KindPipelineStage Kind = "pipeline_stage"
	KindLeadSource    Kind = "lead_source"
)

// OwnerLookup returns the owning tenant of the entity with the given id.
// A missing entity is reported with an error matching shared.ErrNotFound.
type OwnerLookup func(ctx context.Context, id int64) (int64, error)

// Guard checks entity ownership through per-kind lookups
type Guard struct {
	mu      sync.RWMutex
	lookups map[Kind]OwnerLookup
	logger  *zap.Logger
}

// NewGuard creates a guard with no registered kinds
func NewGuard(logger *zap.Logger) *Guard {
	return &Guard{
		lookups: make(map[Kind]OwnerLookup),
		logger:  logger,
	}
}

// Register installs the lookup for kind, replacing any previous one
func (g *Guard) Register(kind Kind, lookup OwnerLookup) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.lookups[kind] = lookup
}

// VerifyAccess reports whether entityID of kind exists and is owned by tenantID.
// Lookup failures deny access.
func (g *Guard) VerifyAccess(ctx context.Context, kind Kind, entityID, tenantID int64) bool {
	if entityID <= 0 || tenantID <= 0 {
		return false
	}

	g.mu.RLock()
	lookup, ok := g.lookups[kind]
	g.mu.RUnlock()
	if !ok {
		g.logger.Error("No owner lookup registered", zap.String("kind", string(kind)))
		return false
	}

	owner, err := lookup(ctx, entityID)
	if err != nil {
		if !isNotFound(err) {
			g.logger.Error("Owner lookup failed",
				zap.String("kind", string(kind)),
				zap.Int64("entity_id", entityID),
				zap.Error(err))
		}
		return false
	}
	return owner == tenantID
}

// VerifyCustomerAccess reports whether the customer belongs to tenantID
func (g *Guard) VerifyCustomerAccess(ctx context.Context, customerID, tenantID int64) bool {
	return g.VerifyAccess(ctx, KindCustomer, customerID, tenantID)
}

// Require returns shared.ErrForbidden unless VerifyAccess holds.
// The error is the same whether the entity is absent or owned elsewhere.
func (g *Guard) Require(ctx context.Context, kind Kind, entityID, tenantID int64) error {
	if g.VerifyAccess(ctx, kind, entityID, tenantID) {
		return nil
	}
	g.logger.Warn("Cross-tenant access denied",
		zap.String("kind", string(kind)),
		zap.Int64("entity_id", entityID),
		zap.Int64("tenant_id", tenantID))
	return shared.ErrForbidden
}

func isNotFound(err error) bool {
	if errors.Is(err, shared.ErrNotFound) {
		return true
	}
	switch shared.CodeOf(err) {
	case marketing.ErrLeadNotFound.Code, marketing.ErrLeadSourceNotFound.Code,
		sales.ErrOpportunityNotFound.Code, sales.ErrStageNotFound.Code:
		return true
	}
	return false
}

// Repositories are the lookups the CRM guard is built from
type Repositories struct {
	Customers      partner.CustomerRepository
	Leads          marketing.LeadRepository
	Opportunities  sales.OpportunityRepository
	PipelineStages sales.PipelineStageRepository
	LeadSources    marketing.LeadSourceRepository
}

// NewRepositoryGuard registers an owner lookup for every CRM entity kind
func NewRepositoryGuard(repos Repositories, logger *zap.Logger) *Guard {
	g := NewGuard(logger)
	g.Register(KindCustomer, func(ctx context.Context, id int64) (int64, error) {
		c, err := repos.Customers.FindByID(ctx, id)
		if err != nil {
			return 0, err
		}
		return c.TenantID, nil
	})
	g.Register(KindLead, func(ctx context.Context, id int64) (int64, error) {
		l, err := repos.Leads.FindByID(ctx, id)
		if err != nil {
			return 0, err
		}
		return l.TenantID, nil
	})
	g.Register(KindOpportunity, func(ctx context.Context, id int64) (int64, error) {
		o, err := repos.Opportunities.FindByID(ctx, id)
		if err != nil {
			return 0, err
		}
		return o.TenantID, nil
	})
	g.Register(KindPipelineStage, func(ctx context.Context, id int64) (int64, error) {
		s, err := repos.PipelineStages.FindByID(ctx, id)
		if err != nil {
			return 0, err
		}
		return s.TenantID, nil
	})
	g.Register(KindLeadSource, func(ctx context.Context, id int64) (int64, error) {
		s, err := repos.LeadSources.FindByID(ctx, id)
		if err != nil {
			return 0, err
		}
		return s.TenantID, nil
	})
	return g
}
