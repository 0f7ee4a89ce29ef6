package persistence

import (
	"context"
	"errors"
	"time"

	"github.com/crm/backend/internal/domain/sales"
	"github.com/crm/backend/internal/domain/shared"
	"github.com/crm/backend/internal/infrastructure/persistence/models"
	"github.com/crm/backend/internal/infrastructure/persistence/tenant"
	"gorm.io/gorm"
)

// GormOpportunityRepository implements OpportunityRepository using GORM
type GormOpportunityRepository struct {
	db *gorm.DB
}

// NewGormOpportunityRepository creates a new GormOpportunityRepository
func NewGormOpportunityRepository(db *gorm.DB) *GormOpportunityRepository {
	return &GormOpportunityRepository{db: db}
}

// FindByID finds an opportunity by ID regardless of tenant
func (r *GormOpportunityRepository) FindByID(ctx context.Context, id int64) (*sales.Opportunity, error) {
	var model models.OpportunityModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, sales.ErrOpportunityNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByIDForTenant finds an opportunity by ID within a tenant
func (r *GormOpportunityRepository) FindByIDForTenant(ctx context.Context, tenantID, id int64) (*sales.Opportunity, error) {
	var model models.OpportunityModel
	if err := r.db.WithContext(ctx).
		Scopes(tenant.Scope(tenantID)).
		Where("id = ?", id).
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, sales.ErrOpportunityNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindAllForTenant lists opportunities of a tenant and returns the total count
func (r *GormOpportunityRepository) FindAllForTenant(ctx context.Context, tenantID int64, filter sales.OpportunityFilter) ([]sales.Opportunity, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.OpportunityModel{}).Scopes(tenant.Scope(tenantID))
	if filter.Search != "" {
		query = query.Where("LOWER(name) LIKE ?", searchPattern(filter.Search))
	}
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	if filter.PipelineStageID != nil {
		query = query.Where("pipeline_stage_id = ?", *filter.PipelineStageID)
	}
	if filter.CustomerID != nil {
		query = query.Where("customer_id = ?", *filter.CustomerID)
	}
	if filter.AssignedUserID != nil {
		query = query.Where("assigned_user_id = ?", *filter.AssignedUserID)
	}
	query = query.Session(&gorm.Session{})

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var oppModels []models.OpportunityModel
	if err := paginate(query, filter.Filter, OpportunitySortFields).Find(&oppModels).Error; err != nil {
		return nil, 0, err
	}

	opportunities := make([]sales.Opportunity, len(oppModels))
	for i, model := range oppModels {
		opportunities[i] = *model.ToDomain()
	}
	return opportunities, total, nil
}

// Create inserts a new opportunity and assigns its ID
func (r *GormOpportunityRepository) Create(ctx context.Context, opportunity *sales.Opportunity) error {
	model := models.OpportunityModelFromDomain(opportunity)
	if err := r.db.WithContext(ctx).Create(model).Error; err != nil {
		return err
	}
	opportunity.ID = model.ID
	return nil
}

// SaveWithLock saves an opportunity with optimistic locking
func (r *GormOpportunityRepository) SaveWithLock(ctx context.Context, opportunity *sales.Opportunity) error {
	model := models.OpportunityModelFromDomain(opportunity)
	result := r.db.WithContext(ctx).
		Model(&models.OpportunityModel{}).
		Where("id = ? AND tenant_id = ? AND version = ?", opportunity.ID, opportunity.TenantID, opportunity.Version).
		Updates(map[string]any{
			"name":                model.Name,
			"description":         model.Description,
			"amount":              model.Amount,
			"currency":            model.Currency,
			"probability":         model.Probability,
			"status":              model.Status,
			"pipeline_stage_id":   model.PipelineStageID,
			"customer_id":         model.CustomerID,
			"assigned_user_id":    model.AssignedUserID,
			"expected_close_date": model.ExpectedCloseDate,
			"closed_at":           model.ClosedAt,
			"lost_reason":         model.LostReason,
			"version":             gorm.Expr("version + 1"),
			"updated_at":          time.Now(),
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrConcurrencyConflict
	}
	opportunity.IncrementVersion()
	return nil
}

// Ensure GormOpportunityRepository implements OpportunityRepository
var _ sales.OpportunityRepository = (*GormOpportunityRepository)(nil)
