package persistence

import (
	"context"
	"errors"
	"time"

	"github.com/crm/backend/internal/domain/identity"
	"github.com/crm/backend/internal/domain/shared"
	"github.com/crm/backend/internal/infrastructure/persistence/models"
	"github.com/crm/backend/internal/infrastructure/persistence/tenant"
	"gorm.io/gorm"
)

// GormAgentKeyRepository implements AgentKeyRepository using GORM
type GormAgentKeyRepository struct {
	db *gorm.DB
}

// NewGormAgentKeyRepository creates a new GormAgentKeyRepository
func NewGormAgentKeyRepository(db *gorm.DB) *GormAgentKeyRepository {
	return &GormAgentKeyRepository{db: db}
}

// Create inserts a new key and assigns its ID
func (r *GormAgentKeyRepository) Create(ctx context.Context, key *identity.AgentAPIKey) error {
	model := models.AgentAPIKeyModelFromDomain(key)
	if err := r.db.WithContext(ctx).Create(model).Error; err != nil {
		return err
	}
	key.ID = model.ID
	return nil
}

// Update saves usage and revocation state. Last-used stamps race freely,
// so only revocation bumps the version.
func (r *GormAgentKeyRepository) Update(ctx context.Context, key *identity.AgentAPIKey) error {
	result := r.db.WithContext(ctx).
		Model(&models.AgentAPIKeyModel{}).
		Where("id = ? AND tenant_id = ?", key.ID, key.TenantID).
		Updates(map[string]any{
			"agent_name":   key.AgentName,
			"expires_at":   key.ExpiresAt,
			"last_used_at": key.LastUsedAt,
			"revoked_at":   key.RevokedAt,
			"updated_at":   time.Now(),
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// FindByHash finds a key by the hash of its plaintext
func (r *GormAgentKeyRepository) FindByHash(ctx context.Context, keyHash string) (*identity.AgentAPIKey, error) {
	var model models.AgentAPIKeyModel
	if err := r.db.WithContext(ctx).Where("key_hash = ?", keyHash).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByIDForTenant finds a key by ID within a tenant
func (r *GormAgentKeyRepository) FindByIDForTenant(ctx context.Context, tenantID, id int64) (*identity.AgentAPIKey, error) {
	var model models.AgentAPIKeyModel
	if err := r.db.WithContext(ctx).
		Scopes(tenant.Scope(tenantID)).
		Where("id = ?", id).
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// ListByTenant returns the tenant's keys, newest first
func (r *GormAgentKeyRepository) ListByTenant(ctx context.Context, tenantID int64) ([]*identity.AgentAPIKey, error) {
	var rows []models.AgentAPIKeyModel
	if err := r.db.WithContext(ctx).
		Scopes(tenant.Scope(tenantID)).
		Order("created_at DESC").
		Order("id DESC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	keys := make([]*identity.AgentAPIKey, len(rows))
	for i := range rows {
		keys[i] = rows[i].ToDomain()
	}
	return keys, nil
}

// Ensure GormAgentKeyRepository implements AgentKeyRepository
var _ identity.AgentKeyRepository = (*GormAgentKeyRepository)(nil)
