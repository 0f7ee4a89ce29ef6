package sales

import (
	"time"

	"github.com/crm/backend/internal/domain/sales"
	"github.com/shopspring/decimal"
)

// CreateOpportunityRequest creates an opportunity.
// A missing stage means the company's default stage; a missing
// probability means the stage's default probability.
type CreateOpportunityRequest struct {
	Name              string           `json:"name"`
	Description       string           `json:"description"`
	Amount            *decimal.Decimal `json:"amount"`
	Currency          string           `json:"currency"`
	Probability       *int             `json:"probability"`
	PipelineStageID   *int64           `json:"pipeline_stage_id"`
	CustomerID        *int64           `json:"customer_id"`
	AssignedUserID    *int64           `json:"assigned_user_id"`
	ExpectedCloseDate *time.Time       `json:"expected_close_date"`
}

// UpdateOpportunityRequest replaces the descriptive fields of an open opportunity
type UpdateOpportunityRequest struct {
	Name              string           `json:"name"`
	Description       string           `json:"description"`
	Amount            *decimal.Decimal `json:"amount"`
	Currency          string           `json:"currency"`
	Probability       int              `json:"probability"`
	ExpectedCloseDate *time.Time       `json:"expected_close_date"`
	Version           *int             `json:"version"`
}

// OpportunityListFilter narrows opportunity listings
type OpportunityListFilter struct {
	Search          string
	Status          string
	PipelineStageID *int64
	CustomerID      *int64
	AssignedUserID  *int64
	Page            int
	PageSize        int
	OrderBy         string
	OrderDir        string
}

// OpportunityResponse represents an opportunity in API responses
type OpportunityResponse struct {
	ID                  int64           `json:"id"`
	TenantID            int64           `json:"tenant_id"`
	Name                string          `json:"name"`
	Description         string          `json:"description"`
	Amount              decimal.Decimal `json:"amount"`
	Currency            string          `json:"currency"`
	Probability         int             `json:"probability"`
	WeightedAmount      decimal.Decimal `json:"weighted_amount"`
	Status              string          `json:"status"`
	PipelineStageID     int64           `json:"pipeline_stage_id"`
	CustomerID          *int64          `json:"customer_id,omitempty"`
	AssignedUserID      *int64          `json:"assigned_user_id,omitempty"`
	SourceID            *int64          `json:"source_id,omitempty"`
	ConvertedFromLeadID *int64          `json:"converted_from_lead_id,omitempty"`
	ExpectedCloseDate   *time.Time      `json:"expected_close_date,omitempty"`
	ClosedAt            *time.Time      `json:"closed_at,omitempty"`
	LostReason          string          `json:"lost_reason,omitempty"`
	CreatedBy           *int64          `json:"created_by,omitempty"`
	CreatedAt           time.Time       `json:"created_at"`
	UpdatedAt           time.Time       `json:"updated_at"`
	Version             int             `json:"version"`
}

// ToOpportunityResponse converts a domain opportunity
func ToOpportunityResponse(o *sales.Opportunity) OpportunityResponse {
	return OpportunityResponse{
		ID:                  o.ID,
		TenantID:            o.TenantID,
		Name:                o.Name,
		Description:         o.Description,
		Amount:              o.Amount.Amount(),
		Currency:            string(o.Amount.Currency()),
		Probability:         o.Probability,
		WeightedAmount:      o.WeightedAmount().Amount(),
		Status:              string(o.Status),
		PipelineStageID:     o.PipelineStageID,
		CustomerID:          o.CustomerID,
		AssignedUserID:      o.AssignedUserID,
		SourceID:            o.SourceID,
		ConvertedFromLeadID: o.ConvertedFromLeadID,
		ExpectedCloseDate:   o.ExpectedCloseDate,
		ClosedAt:            o.ClosedAt,
		LostReason:          o.LostReason,
		CreatedBy:           o.CreatedBy,
		CreatedAt:           o.CreatedAt,
		UpdatedAt:           o.UpdatedAt,
		Version:             o.Version,
	}
}

// ToOpportunityResponses converts a slice of opportunities
func ToOpportunityResponses(opportunities []sales.Opportunity) []OpportunityResponse {
	out := make([]OpportunityResponse, len(opportunities))
	for i := range opportunities {
		out[i] = ToOpportunityResponse(&opportunities[i])
	}
	return out
}

// CreateStageRequest creates a pipeline stage
type CreateStageRequest struct {
	Name               string `json:"name"`
	Description        string `json:"description"`
	DisplayOrder       int    `json:"display_order"`
	DefaultProbability int    `json:"default_probability"`
	Kind               string `json:"kind"`
	Color              string `json:"color"`
}

// StageResponse represents a pipeline stage in API responses
type StageResponse struct {
	ID                 int64  `json:"id"`
	Name               string `json:"name"`
	Description        string `json:"description"`
	DisplayOrder       int    `json:"display_order"`
	DefaultProbability int    `json:"default_probability"`
	Kind               string `json:"kind"`
	Color              string `json:"color"`
	IsActive           bool   `json:"is_active"`
}

// ToStageResponse converts a domain pipeline stage
func ToStageResponse(s *sales.PipelineStage) StageResponse {
	return StageResponse{
		ID:                 s.ID,
		Name:               s.Name,
		Description:        s.Description,
		DisplayOrder:       s.DisplayOrder,
		DefaultProbability: s.DefaultProbability,
		Kind:               string(s.Kind),
		Color:              s.Color,
		IsActive:           s.IsActive,
	}
}
