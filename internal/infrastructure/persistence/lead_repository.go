package persistence

import (
	"context"
	"errors"
	"time"

	"github.com/crm/backend/internal/domain/marketing"
	"github.com/crm/backend/internal/domain/shared"
	"github.com/crm/backend/internal/infrastructure/persistence/models"
	"github.com/crm/backend/internal/infrastructure/persistence/tenant"
	"gorm.io/gorm"
)

// GormLeadRepository implements LeadRepository using GORM
type GormLeadRepository struct {
	db *gorm.DB
}

// NewGormLeadRepository creates a new GormLeadRepository
func NewGormLeadRepository(db *gorm.DB) *GormLeadRepository {
	return &GormLeadRepository{db: db}
}

// FindByID finds a lead by its ID regardless of tenant
func (r *GormLeadRepository) FindByID(ctx context.Context, id int64) (*marketing.Lead, error) {
	var model models.LeadModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, marketing.ErrLeadNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByIDForTenant finds a lead by ID within a tenant. A lead owned by
// another tenant is reported exactly like a missing one.
func (r *GormLeadRepository) FindByIDForTenant(ctx context.Context, tenantID, id int64) (*marketing.Lead, error) {
	var model models.LeadModel
	if err := r.db.WithContext(ctx).
		Scopes(tenant.Scope(tenantID)).
		Where("id = ?", id).
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, marketing.ErrLeadNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindAllForTenant lists leads of a tenant and returns the total count
func (r *GormLeadRepository) FindAllForTenant(ctx context.Context, tenantID int64, filter marketing.LeadFilter) ([]marketing.Lead, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.LeadModel{}).Scopes(tenant.Scope(tenantID))
	if filter.Search != "" {
		p := searchPattern(filter.Search)
		query = query.Where(
			"LOWER(first_name) LIKE ? OR LOWER(last_name) LIKE ? OR LOWER(company_name) LIKE ? OR LOWER(email) LIKE ?",
			p, p, p, p)
	}
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	if filter.Rating != "" {
		query = query.Where("rating = ?", filter.Rating)
	}
	if filter.AssignedUserID != nil {
		query = query.Where("assigned_user_id = ?", *filter.AssignedUserID)
	}
	if filter.SourceID != nil {
		query = query.Where("source_id = ?", *filter.SourceID)
	}
	query = query.Session(&gorm.Session{})

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var leadModels []models.LeadModel
	if err := paginate(query, filter.Filter, LeadSortFields).Find(&leadModels).Error; err != nil {
		return nil, 0, err
	}

	leads := make([]marketing.Lead, len(leadModels))
	for i, model := range leadModels {
		leads[i] = *model.ToDomain()
	}
	return leads, total, nil
}

// Create inserts a new lead and assigns its ID
func (r *GormLeadRepository) Create(ctx context.Context, lead *marketing.Lead) error {
	model := models.LeadModelFromDomain(lead)
	if err := r.db.WithContext(ctx).Create(model).Error; err != nil {
		return err
	}
	lead.ID = model.ID
	return nil
}

// SaveWithLock saves a non-converted lead with optimistic locking.
// The status guard keeps a concurrent conversion from being overwritten.
func (r *GormLeadRepository) SaveWithLock(ctx context.Context, lead *marketing.Lead) error {
	model := models.LeadModelFromDomain(lead)
	result := r.db.WithContext(ctx).
		Model(&models.LeadModel{}).
		Where("id = ? AND tenant_id = ? AND version = ? AND status <> ?",
			lead.ID, lead.TenantID, lead.Version, marketing.LeadStatusConverted).
		Updates(map[string]any{
			"first_name":       model.FirstName,
			"last_name":        model.LastName,
			"company_name":     model.CompanyName,
			"title":            model.Title,
			"email":            model.Email,
			"phone":            model.Phone,
			"mobile":           model.Mobile,
			"website":          model.Website,
			"address":          model.Address,
			"city":             model.City,
			"state":            model.State,
			"country":          model.Country,
			"postal_code":      model.PostalCode,
			"industry":         model.Industry,
			"description":      model.Description,
			"estimated_value":  model.EstimatedValue,
			"currency":         model.Currency,
			"rating":           model.Rating,
			"source_id":        model.SourceID,
			"status":           model.Status,
			"score":            model.Score,
			"assigned_user_id": model.AssignedUserID,
			"version":          gorm.Expr("version + 1"),
			"updated_at":       time.Now(),
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return r.explainMiss(ctx, lead.TenantID, lead.ID)
	}
	lead.IncrementVersion()
	return nil
}

// MarkConverted writes the conversion outcome with a single guarded
// statement. It matches only the version that was loaded and only while the
// stored status is not yet converted, so of two concurrent conversions at
// most one can succeed. A miss is reported as already converted, as a
// concurrency conflict or as not found, depending on the stored row.
func (r *GormLeadRepository) MarkConverted(ctx context.Context, lead *marketing.Lead) error {
	convertedAt := time.Now()
	if lead.ConvertedAt != nil {
		convertedAt = *lead.ConvertedAt
	}
	result := r.db.WithContext(ctx).
		Model(&models.LeadModel{}).
		Where("id = ? AND tenant_id = ? AND version = ? AND status <> ?",
			lead.ID, lead.TenantID, lead.Version, marketing.LeadStatusConverted).
		Updates(map[string]any{
			"status":                      marketing.LeadStatusConverted,
			"converted_to_customer_id":    lead.ConvertedToCustomerID,
			"converted_to_opportunity_id": lead.ConvertedToOpportunityID,
			"converted_at":                convertedAt,
			"converted_by_user_id":        lead.ConvertedByUserID,
			"version":                     gorm.Expr("version + 1"),
			"updated_at":                  convertedAt,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return r.explainMiss(ctx, lead.TenantID, lead.ID)
	}
	lead.IncrementVersion()
	return nil
}

// DeleteForTenant deletes a non-converted lead within a tenant
func (r *GormLeadRepository) DeleteForTenant(ctx context.Context, tenantID, id int64) error {
	result := r.db.WithContext(ctx).
		Scopes(tenant.Scope(tenantID)).
		Where("status <> ?", marketing.LeadStatusConverted).
		Delete(&models.LeadModel{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return r.explainMiss(ctx, tenantID, id)
	}
	return nil
}

// explainMiss tells why a guarded write matched no row
func (r *GormLeadRepository) explainMiss(ctx context.Context, tenantID, id int64) error {
	current, err := r.FindByIDForTenant(ctx, tenantID, id)
	if err != nil {
		return err
	}
	if current.IsConverted() {
		return marketing.ErrLeadAlreadyConverted
	}
	return shared.ErrConcurrencyConflict
}

// Ensure GormLeadRepository implements LeadRepository
var _ marketing.LeadRepository = (*GormLeadRepository)(nil)

// GormLeadSourceRepository implements LeadSourceRepository using GORM
type GormLeadSourceRepository struct {
	db *gorm.DB
}

// NewGormLeadSourceRepository creates a new GormLeadSourceRepository
func NewGormLeadSourceRepository(db *gorm.DB) *GormLeadSourceRepository {
	return &GormLeadSourceRepository{db: db}
}

// FindByID finds a lead source by ID regardless of tenant
func (r *GormLeadSourceRepository) FindByID(ctx context.Context, id int64) (*marketing.LeadSource, error) {
	var model models.LeadSourceModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, marketing.ErrLeadSourceNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByIDForTenant finds a lead source by ID within a tenant
func (r *GormLeadSourceRepository) FindByIDForTenant(ctx context.Context, tenantID, id int64) (*marketing.LeadSource, error) {
	var model models.LeadSourceModel
	if err := r.db.WithContext(ctx).
		Scopes(tenant.Scope(tenantID)).
		Where("id = ?", id).
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, marketing.ErrLeadSourceNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// ListForTenant returns the tenant's lead sources by name
func (r *GormLeadSourceRepository) ListForTenant(ctx context.Context, tenantID int64, activeOnly bool) ([]marketing.LeadSource, error) {
	query := r.db.WithContext(ctx).Scopes(tenant.Scope(tenantID))
	if activeOnly {
		query = query.Where("is_active = ?", true)
	}

	var sourceModels []models.LeadSourceModel
	if err := query.Order("name ASC").Find(&sourceModels).Error; err != nil {
		return nil, err
	}

	sources := make([]marketing.LeadSource, len(sourceModels))
	for i, model := range sourceModels {
		sources[i] = *model.ToDomain()
	}
	return sources, nil
}

// Create inserts a new lead source and assigns its ID
func (r *GormLeadSourceRepository) Create(ctx context.Context, source *marketing.LeadSource) error {
	model := models.LeadSourceModelFromDomain(source)
	if err := r.db.WithContext(ctx).Create(model).Error; err != nil {
		return err
	}
	source.ID = model.ID
	return nil
}

// Save updates a lead source with optimistic locking
func (r *GormLeadSourceRepository) Save(ctx context.Context, source *marketing.LeadSource) error {
	result := r.db.WithContext(ctx).
		Model(&models.LeadSourceModel{}).
		Where("id = ? AND tenant_id = ? AND version = ?", source.ID, source.TenantID, source.Version).
		Updates(map[string]any{
			"name":        source.Name,
			"description": source.Description,
			"is_active":   source.IsActive,
			"version":     gorm.Expr("version + 1"),
			"updated_at":  time.Now(),
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrConcurrencyConflict
	}
	source.IncrementVersion()
	return nil
}

// Ensure GormLeadSourceRepository implements LeadSourceRepository
var _ marketing.LeadSourceRepository = (*GormLeadSourceRepository)(nil)
