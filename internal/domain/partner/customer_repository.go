package partner

import (
	"context"

	"github.com/crm/backend/internal/domain/shared"
)

// CustomerRepository defines the interface for customer persistence
type CustomerRepository interface {
	// FindByID finds a customer by its ID regardless of tenant
	FindByID(ctx context.Context, id int64) (*Customer, error)

	// FindByIDForTenant finds a customer by ID within a tenant
	FindByIDForTenant(ctx context.Context, tenantID, id int64) (*Customer, error)

	// FindAllForTenant lists customers of a tenant and returns the total count
	FindAllForTenant(ctx context.Context, tenantID int64, filter CustomerFilter) ([]Customer, int64, error)

	// Create inserts a new customer and assigns its ID
	Create(ctx context.Context, customer *Customer) error

	// SaveWithLock saves a customer with optimistic locking (version check)
	// Returns shared.ErrConcurrencyConflict if the version has changed
	SaveWithLock(ctx context.Context, customer *Customer) error

	// DeleteForTenant deletes a customer within a tenant
	DeleteForTenant(ctx context.Context, tenantID, id int64) error
}

// CustomerFilter narrows customer listings
type CustomerFilter struct {
	shared.Filter
	Status CustomerStatus
}
