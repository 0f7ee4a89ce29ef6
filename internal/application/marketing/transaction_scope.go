package marketing

import (
	"context"

	"github.com/crm/backend/internal/domain/marketing"
	"github.com/crm/backend/internal/domain/partner"
	"github.com/crm/backend/internal/domain/sales"
)

// TransactionScope provides transactional access to the repositories a
// conversion touches. Everything written inside Execute commits or rolls
// back together.
type TransactionScope interface {
	// Execute runs fn within a database transaction.
	// If fn returns an error, the transaction is rolled back.
	Execute(ctx context.Context, fn func(repos TransactionalRepositories) error) error
}

// TransactionalRepositories returns repositories bound to the current transaction
type TransactionalRepositories interface {
	LeadRepo() marketing.LeadRepository
	CustomerRepo() partner.CustomerRepository
	OpportunityRepo() sales.OpportunityRepository
	StageRepo() sales.PipelineStageRepository
}
