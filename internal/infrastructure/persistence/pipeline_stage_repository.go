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

// GormPipelineStageRepository implements PipelineStageRepository using GORM
type GormPipelineStageRepository struct {
	db *gorm.DB
}

// NewGormPipelineStageRepository creates a new GormPipelineStageRepository
func NewGormPipelineStageRepository(db *gorm.DB) *GormPipelineStageRepository {
	return &GormPipelineStageRepository{db: db}
}

// FindByID finds a stage by ID regardless of tenant
func (r *GormPipelineStageRepository) FindByID(ctx context.Context, id int64) (*sales.PipelineStage, error) {
	var model models.PipelineStageModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, sales.ErrStageNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByIDForTenant finds a stage by ID within a tenant
func (r *GormPipelineStageRepository) FindByIDForTenant(ctx context.Context, tenantID, id int64) (*sales.PipelineStage, error) {
	var model models.PipelineStageModel
	if err := r.db.WithContext(ctx).
		Scopes(tenant.Scope(tenantID)).
		Where("id = ?", id).
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, sales.ErrStageNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// ListForTenant returns stages ordered by display order
func (r *GormPipelineStageRepository) ListForTenant(ctx context.Context, tenantID int64, activeOnly bool) ([]sales.PipelineStage, error) {
	query := r.db.WithContext(ctx).Scopes(tenant.Scope(tenantID))
	if activeOnly {
		query = query.Where("is_active = ?", true)
	}

	var stageModels []models.PipelineStageModel
	if err := query.Order("display_order ASC").Order("id ASC").Find(&stageModels).Error; err != nil {
		return nil, err
	}

	stages := make([]sales.PipelineStage, len(stageModels))
	for i, model := range stageModels {
		stages[i] = *model.ToDomain()
	}
	return stages, nil
}

// FindDefault returns the active stage with the lowest display order.
// Ties are broken by ID so the choice is stable.
func (r *GormPipelineStageRepository) FindDefault(ctx context.Context, tenantID int64) (*sales.PipelineStage, error) {
	var model models.PipelineStageModel
	err := r.db.WithContext(ctx).
		Scopes(tenant.Scope(tenantID)).
		Where("is_active = ?", true).
		Order("display_order ASC").
		Order("id ASC").
		First(&model).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// Create inserts a new stage and assigns its ID
func (r *GormPipelineStageRepository) Create(ctx context.Context, stage *sales.PipelineStage) error {
	model := models.PipelineStageModelFromDomain(stage)
	if err := r.db.WithContext(ctx).Create(model).Error; err != nil {
		return err
	}
	stage.ID = model.ID
	return nil
}

// Save updates a stage with optimistic locking
func (r *GormPipelineStageRepository) Save(ctx context.Context, stage *sales.PipelineStage) error {
	result := r.db.WithContext(ctx).
		Model(&models.PipelineStageModel{}).
		Where("id = ? AND tenant_id = ? AND version = ?", stage.ID, stage.TenantID, stage.Version).
		Updates(map[string]any{
			"name":                stage.Name,
			"description":         stage.Description,
			"display_order":       stage.DisplayOrder,
			"default_probability": stage.DefaultProbability,
			"kind":                stage.Kind,
			"color":               stage.Color,
			"is_active":           stage.IsActive,
			"version":             gorm.Expr("version + 1"),
			"updated_at":          time.Now(),
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrConcurrencyConflict
	}
	stage.IncrementVersion()
	return nil
}

// Ensure GormPipelineStageRepository implements PipelineStageRepository
var _ sales.PipelineStageRepository = (*GormPipelineStageRepository)(nil)
