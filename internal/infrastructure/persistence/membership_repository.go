package persistence

import (
	"context"
	"errors"

	"github.com/crm/backend/internal/domain/identity"
	"github.com/crm/backend/internal/domain/shared"
	"github.com/crm/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

// GormMembershipRepository implements MembershipRepository using GORM
type GormMembershipRepository struct {
	db *gorm.DB
}

// NewGormMembershipRepository creates a new GormMembershipRepository
func NewGormMembershipRepository(db *gorm.DB) *GormMembershipRepository {
	return &GormMembershipRepository{db: db}
}

// Save inserts a new membership or updates an existing one
func (r *GormMembershipRepository) Save(ctx context.Context, membership *identity.Membership) error {
	model := models.MembershipModelFromDomain(membership)
	if membership.ID == 0 {
		if err := r.db.WithContext(ctx).Create(model).Error; err != nil {
			return err
		}
		membership.ID = model.ID
		return nil
	}
	return r.db.WithContext(ctx).Save(model).Error
}

// Find returns the membership of userID in companyID, active or not
func (r *GormMembershipRepository) Find(ctx context.Context, userID, companyID int64) (*identity.Membership, error) {
	var model models.MembershipModel
	if err := r.db.WithContext(ctx).
		Where("user_id = ? AND company_id = ?", userID, companyID).
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// ListByUser returns every membership of a user
func (r *GormMembershipRepository) ListByUser(ctx context.Context, userID int64) ([]*identity.Membership, error) {
	return r.list(ctx, "user_id = ?", userID)
}

// ListByCompany returns every membership of a company
func (r *GormMembershipRepository) ListByCompany(ctx context.Context, companyID int64) ([]*identity.Membership, error) {
	return r.list(ctx, "company_id = ?", companyID)
}

func (r *GormMembershipRepository) list(ctx context.Context, cond string, arg int64) ([]*identity.Membership, error) {
	var rows []models.MembershipModel
	if err := r.db.WithContext(ctx).Where(cond, arg).Order("id ASC").Find(&rows).Error; err != nil {
		return nil, err
	}
	memberships := make([]*identity.Membership, len(rows))
	for i := range rows {
		memberships[i] = rows[i].ToDomain()
	}
	return memberships, nil
}

// Ensure GormMembershipRepository implements MembershipRepository
var _ identity.MembershipRepository = (*GormMembershipRepository)(nil)
