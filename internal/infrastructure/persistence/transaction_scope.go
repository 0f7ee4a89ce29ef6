package persistence

import (
	"context"

	appmarketing "github.com/crm/backend/internal/application/marketing"
	"github.com/crm/backend/internal/domain/marketing"
	"github.com/crm/backend/internal/domain/partner"
	"github.com/crm/backend/internal/domain/sales"
	"gorm.io/gorm"
)

// GormTransactionScope implements TransactionScope using GORM transactions.
type GormTransactionScope struct {
	db *gorm.DB
}

// NewGormTransactionScope creates a new GormTransactionScope.
func NewGormTransactionScope(db *gorm.DB) *GormTransactionScope {
	return &GormTransactionScope{db: db}
}

// Execute runs fn within a database transaction.
// If fn returns an error, the transaction is rolled back; otherwise it commits.
func (s *GormTransactionScope) Execute(ctx context.Context, fn func(repos appmarketing.TransactionalRepositories) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&gormTransactionalRepositories{tx: tx})
	})
}

// gormTransactionalRepositories hands out repositories bound to one transaction
type gormTransactionalRepositories struct {
	tx *gorm.DB
}

// LeadRepo returns the lead repository scoped to the current transaction.
func (r *gormTransactionalRepositories) LeadRepo() marketing.LeadRepository {
	return NewGormLeadRepository(r.tx)
}

// CustomerRepo returns the customer repository scoped to the current transaction.
func (r *gormTransactionalRepositories) CustomerRepo() partner.CustomerRepository {
	return NewGormCustomerRepository(r.tx)
}

// OpportunityRepo returns the opportunity repository scoped to the current transaction.
func (r *gormTransactionalRepositories) OpportunityRepo() sales.OpportunityRepository {
	return NewGormOpportunityRepository(r.tx)
}

// StageRepo returns the pipeline stage repository scoped to the current transaction.
func (r *gormTransactionalRepositories) StageRepo() sales.PipelineStageRepository {
	return NewGormPipelineStageRepository(r.tx)
}

// Ensure GormTransactionScope implements TransactionScope
var _ appmarketing.TransactionScope = (*GormTransactionScope)(nil)

// Ensure gormTransactionalRepositories implements TransactionalRepositories
var _ appmarketing.TransactionalRepositories = (*gormTransactionalRepositories)(nil)
