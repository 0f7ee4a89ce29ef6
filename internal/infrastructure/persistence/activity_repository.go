package persistence

import (
	"context"

	"github.com/crm/backend/internal/domain/activity"
	"github.com/crm/backend/internal/infrastructure/persistence/models"
	"github.com/crm/backend/internal/infrastructure/persistence/tenant"
	"gorm.io/gorm"
)

const defaultActivityLimit = 50

// GormActivityRepository implements activity.Repository using GORM
type GormActivityRepository struct {
	db *gorm.DB
}

// NewGormActivityRepository creates a new GormActivityRepository
func NewGormActivityRepository(db *gorm.DB) *GormActivityRepository {
	return &GormActivityRepository{db: db}
}

// Append writes one timeline entry
func (r *GormActivityRepository) Append(ctx context.Context, entry *activity.Entry) error {
	model := models.ActivityModelFromDomain(entry)
	if err := r.db.WithContext(ctx).Create(model).Error; err != nil {
		return err
	}
	entry.ID = model.ID
	return nil
}

// ListForEntity returns the entity's entries, newest first
func (r *GormActivityRepository) ListForEntity(ctx context.Context, tenantID int64, entityType activity.EntityType, entityID int64, limit int) ([]activity.Entry, error) {
	if limit <= 0 || limit > 500 {
		limit = defaultActivityLimit
	}

	var rows []models.ActivityModel
	if err := r.db.WithContext(ctx).
		Scopes(tenant.Scope(tenantID)).
		Where("entity_type = ? AND entity_id = ?", entityType, entityID).
		Order("created_at DESC").
		Order("id DESC").
		Limit(limit).
		Find(&rows).Error; err != nil {
		return nil, err
	}

	entries := make([]activity.Entry, len(rows))
	for i, row := range rows {
		entries[i] = *row.ToDomain()
	}
	return entries, nil
}

// Ensure GormActivityRepository implements activity.Repository
var _ activity.Repository = (*GormActivityRepository)(nil)
