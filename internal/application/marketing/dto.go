package marketing

import (
	"time"

	"github.com/crm/backend/internal/domain/marketing"
	"github.com/shopspring/decimal"
)

// LeadInput is the editable part of a lead, shared by create and update
type LeadInput struct {
	FirstName      string           `json:"first_name"`
	LastName       string           `json:"last_name"`
	CompanyName    string           `json:"company_name"`
	Title          string           `json:"title"`
	Email          string           `json:"email"`
	Phone          string           `json:"phone"`
	Mobile         string           `json:"mobile"`
	Website        string           `json:"website"`
	Address        string           `json:"address"`
	City           string           `json:"city"`
	State          string           `json:"state"`
	Country        string           `json:"country"`
	PostalCode     string           `json:"postal_code"`
	Industry       string           `json:"industry"`
	Description    string           `json:"description"`
	EstimatedValue *decimal.Decimal `json:"estimated_value"`
	Currency       string           `json:"currency"`
	Rating         string           `json:"rating"`
	SourceID       *int64           `json:"source_id"`
}

func (in LeadInput) profile() marketing.LeadProfile {
	return marketing.LeadProfile{
		FirstName:      in.FirstName,
		LastName:       in.LastName,
		CompanyName:    in.CompanyName,
		Title:          in.Title,
		Email:          in.Email,
		Phone:          in.Phone,
		Mobile:         in.Mobile,
		Website:        in.Website,
		Address:        in.Address,
		City:           in.City,
		State:          in.State,
		Country:        in.Country,
		PostalCode:     in.PostalCode,
		Industry:       in.Industry,
		Description:    in.Description,
		EstimatedValue: in.EstimatedValue,
		Currency:       in.Currency,
		Rating:         marketing.LeadRating(in.Rating),
		SourceID:       in.SourceID,
	}
}

// CreateLeadInput creates a lead. AssignedUserID defaults to nobody.
type CreateLeadInput struct {
	LeadInput
	AssignedUserID *int64 `json:"assigned_user_id"`
}

// UpdateLeadInput replaces a lead's profile. Version enables optimistic locking.
type UpdateLeadInput struct {
	LeadInput
	Version *int `json:"version"`
}

// LeadListFilter narrows lead listings
type LeadListFilter struct {
	Search         string
	Status         string
	Rating         string
	AssignedUserID *int64
	SourceID       *int64
	Page           int
	PageSize       int
	OrderBy        string
	OrderDir       string
}

// LeadResponse represents a lead in API responses
type LeadResponse struct {
	ID             int64            `json:"id"`
	TenantID       int64            `json:"tenant_id"`
	FirstName      string           `json:"first_name"`
	LastName       string           `json:"last_name"`
	FullName       string           `json:"full_name"`
	CompanyName    string           `json:"company_name"`
	Title          string           `json:"title"`
	Email          string           `json:"email"`
	Phone          string           `json:"phone"`
	Mobile         string           `json:"mobile"`
	Website        string           `json:"website"`
	Address        string           `json:"address"`
	City           string           `json:"city"`
	State          string           `json:"state"`
	Country        string           `json:"country"`
	PostalCode     string           `json:"postal_code"`
	Industry       string           `json:"industry"`
	Description    string           `json:"description"`
	EstimatedValue *decimal.Decimal `json:"estimated_value,omitempty"`
	Currency       string           `json:"currency"`
	Rating         string           `json:"rating"`
	Status         string           `json:"status"`
	Score          int              `json:"score"`
	SourceID       *int64           `json:"source_id,omitempty"`
	AssignedUserID *int64           `json:"assigned_user_id,omitempty"`

	ConvertedToCustomerID    *int64     `json:"converted_to_customer_id,omitempty"`
	ConvertedToOpportunityID *int64     `json:"converted_to_opportunity_id,omitempty"`
	ConvertedAt              *time.Time `json:"converted_at,omitempty"`
	ConvertedByUserID        *int64     `json:"converted_by_user_id,omitempty"`

	CreatedBy *int64    `json:"created_by,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
	Version   int       `json:"version"`
}

// ToLeadResponse converts a domain lead to its response form
func ToLeadResponse(l *marketing.Lead) LeadResponse {
	return LeadResponse{
		ID:                       l.ID,
		TenantID:                 l.TenantID,
		FirstName:                l.FirstName,
		LastName:                 l.LastName,
		FullName:                 l.FullName(),
		CompanyName:              l.CompanyName,
		Title:                    l.Title,
		Email:                    l.Email,
		Phone:                    l.Phone,
		Mobile:                   l.Mobile,
		Website:                  l.Website,
		Address:                  l.Address,
		City:                     l.City,
		State:                    l.State,
		Country:                  l.Country,
		PostalCode:               l.PostalCode,
		Industry:                 l.Industry,
		Description:              l.Description,
		EstimatedValue:           l.EstimatedValue,
		Currency:                 l.Currency,
		Rating:                   string(l.Rating),
		Status:                   l.Status.String(),
		Score:                    l.Score,
		SourceID:                 l.SourceID,
		AssignedUserID:           l.AssignedUserID,
		ConvertedToCustomerID:    l.ConvertedToCustomerID,
		ConvertedToOpportunityID: l.ConvertedToOpportunityID,
		ConvertedAt:              l.ConvertedAt,
		ConvertedByUserID:        l.ConvertedByUserID,
		CreatedBy:                l.CreatedBy,
		CreatedAt:                l.CreatedAt,
		UpdatedAt:                l.UpdatedAt,
		Version:                  l.Version,
	}
}

// ToLeadResponses converts a slice of leads
func ToLeadResponses(leads []marketing.Lead) []LeadResponse {
	out := make([]LeadResponse, len(leads))
	for i := range leads {
		out[i] = ToLeadResponse(&leads[i])
	}
	return out
}

// LeadSourceInput creates a lead source
type LeadSourceInput struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

// LeadSourceResponse represents a lead source in API responses
type LeadSourceResponse struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	IsActive    bool      `json:"is_active"`
	CreatedAt   time.Time `json:"created_at"`
}

// ToLeadSourceResponse converts a domain lead source
func ToLeadSourceResponse(s *marketing.LeadSource) LeadSourceResponse {
	return LeadSourceResponse{
		ID:          s.ID,
		Name:        s.Name,
		Description: s.Description,
		IsActive:    s.IsActive,
		CreatedAt:   s.CreatedAt,
	}
}
