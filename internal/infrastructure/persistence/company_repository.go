package persistence

import (
	"context"
	"errors"
	"time"

	"github.com/crm/backend/internal/domain/identity"
	"github.com/crm/backend/internal/domain/shared"
	"github.com/crm/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

// GormCompanyRepository implements CompanyRepository using GORM
type GormCompanyRepository struct {
	db *gorm.DB
}

// NewGormCompanyRepository creates a new GormCompanyRepository
func NewGormCompanyRepository(db *gorm.DB) *GormCompanyRepository {
	return &GormCompanyRepository{db: db}
}

// Create inserts a new company and assigns its ID
func (r *GormCompanyRepository) Create(ctx context.Context, company *identity.Company) error {
	model := models.CompanyModelFromDomain(company)
	if err := r.db.WithContext(ctx).Create(model).Error; err != nil {
		return err
	}
	company.ID = model.ID
	return nil
}

// Update saves a company with optimistic locking
func (r *GormCompanyRepository) Update(ctx context.Context, company *identity.Company) error {
	result := r.db.WithContext(ctx).
		Model(&models.CompanyModel{}).
		Where("id = ? AND version = ?", company.ID, company.Version).
		Updates(map[string]any{
			"name":        company.Name,
			"description": company.Description,
			"industry":    company.Industry,
			"website":     company.Website,
			"email":       company.Email,
			"phone":       company.Phone,
			"status":      company.Status,
			"version":     gorm.Expr("version + 1"),
			"updated_at":  time.Now(),
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrConcurrencyConflict
	}
	company.IncrementVersion()
	return nil
}

// FindByID finds a company by its ID
func (r *GormCompanyRepository) FindByID(ctx context.Context, id int64) (*identity.Company, error) {
	var model models.CompanyModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByIDs loads the given companies ordered by ID; unknown IDs are skipped
func (r *GormCompanyRepository) FindByIDs(ctx context.Context, ids []int64) ([]*identity.Company, error) {
	if len(ids) == 0 {
		return []*identity.Company{}, nil
	}
	var companyModels []models.CompanyModel
	if err := r.db.WithContext(ctx).
		Where("id IN ?", ids).
		Order("id ASC").
		Find(&companyModels).Error; err != nil {
		return nil, err
	}

	companies := make([]*identity.Company, len(companyModels))
	for i := range companyModels {
		companies[i] = companyModels[i].ToDomain()
	}
	return companies, nil
}

// Ensure GormCompanyRepository implements CompanyRepository
var _ identity.CompanyRepository = (*GormCompanyRepository)(nil)
