package models

import (
	"time"

	"github.com/crm/backend/internal/domain/sales"
	"github.com/crm/backend/internal/domain/shared/valueobject"
	"github.com/shopspring/decimal"
)

// OpportunityModel is the persistence model for the Opportunity aggregate.
// The weighted amount is derived and has no column.
type OpportunityModel struct {
	TenantAggregateModel
	Name                string                  `gorm:"type:varchar(200);not null"`
	Description         string                  `gorm:"type:text"`
	Amount              decimal.Decimal         `gorm:"type:decimal(18,4);not null;default:0"`
	Currency            string                  `gorm:"type:varchar(3);not null;default:'USD'"`
	Probability         int                     `gorm:"not null;default:0"`
	Status              sales.OpportunityStatus `gorm:"type:varchar(20);not null;default:'open';index"`
	PipelineStageID     int64                   `gorm:"not null;index"`
	CustomerID          *int64                  `gorm:"index"`
	AssignedUserID      *int64                  `gorm:"index"`
	SourceID            *int64
	ConvertedFromLeadID *int64 `gorm:"index"`
	ExpectedCloseDate   *time.Time
	ClosedAt            *time.Time
	LostReason          string `gorm:"type:varchar(500)"`
}

// TableName returns the table name for GORM
func (OpportunityModel) TableName() string {
	return "opportunities"
}

// ToDomain converts the persistence model to a domain Opportunity.
func (m *OpportunityModel) ToDomain() *sales.Opportunity {
	currency := valueobject.Currency(m.Currency)
	if currency == "" {
		currency = valueobject.DefaultCurrency
	}
	amount, _ := valueobject.NewMoney(m.Amount, currency)
	return &sales.Opportunity{
		TenantAggregateRoot: m.ToTenantAggregateRoot(),
		Name:                m.Name,
		Description:         m.Description,
		Amount:              amount,
		Probability:         m.Probability,
		Status:              m.Status,
		PipelineStageID:     m.PipelineStageID,
		CustomerID:          m.CustomerID,
		AssignedUserID:      m.AssignedUserID,
		SourceID:            m.SourceID,
		ConvertedFromLeadID: m.ConvertedFromLeadID,
		ExpectedCloseDate:   m.ExpectedCloseDate,
		ClosedAt:            m.ClosedAt,
		LostReason:          m.LostReason,
	}
}

// FromDomain populates the persistence model from a domain Opportunity.
func (m *OpportunityModel) FromDomain(o *sales.Opportunity) {
	m.FromDomainTenantAggregateRoot(o.TenantAggregateRoot)
	m.Name = o.Name
	m.Description = o.Description
	m.Amount = o.Amount.Amount()
	m.Currency = string(o.Amount.Currency())
	m.Probability = o.Probability
	m.Status = o.Status
	m.PipelineStageID = o.PipelineStageID
	m.CustomerID = o.CustomerID
	m.AssignedUserID = o.AssignedUserID
	m.SourceID = o.SourceID
	m.ConvertedFromLeadID = o.ConvertedFromLeadID
	m.ExpectedCloseDate = o.ExpectedCloseDate
	m.ClosedAt = o.ClosedAt
	m.LostReason = o.LostReason
}

// OpportunityModelFromDomain creates a new persistence model from a domain Opportunity.
func OpportunityModelFromDomain(o *sales.Opportunity) *OpportunityModel {
	m := &OpportunityModel{}
	m.FromDomain(o)
	return m
}

// PipelineStageModel is the persistence model for pipeline stages.
type PipelineStageModel struct {
	TenantAggregateModel
	Name               string          `gorm:"type:varchar(100);not null"`
	Description        string          `gorm:"type:text"`
	DisplayOrder       int             `gorm:"not null;default:0"`
	DefaultProbability int             `gorm:"not null;default:0"`
	Kind               sales.StageKind `gorm:"type:varchar(10);not null;default:'open'"`
	Color              string          `gorm:"type:varchar(20)"`
	IsActive           bool            `gorm:"not null;default:true"`
}

// TableName returns the table name for GORM
func (PipelineStageModel) TableName() string {
	return "pipeline_stages"
}

// ToDomain converts the persistence model to a domain PipelineStage.
func (m *PipelineStageModel) ToDomain() *sales.PipelineStage {
	return &sales.PipelineStage{
		TenantAggregateRoot: m.ToTenantAggregateRoot(),
		Name:                m.Name,
		Description:         m.Description,
		DisplayOrder:        m.DisplayOrder,
		DefaultProbability:  m.DefaultProbability,
		Kind:                m.Kind,
		Color:               m.Color,
		IsActive:            m.IsActive,
	}
}

// PipelineStageModelFromDomain creates a persistence model from a domain PipelineStage.
func PipelineStageModelFromDomain(s *sales.PipelineStage) *PipelineStageModel {
	m := &PipelineStageModel{
		Name:               s.Name,
		Description:        s.Description,
		DisplayOrder:       s.DisplayOrder,
		DefaultProbability: s.DefaultProbability,
		Kind:               s.Kind,
		Color:              s.Color,
		IsActive:           s.IsActive,
	}
	m.FromDomainTenantAggregateRoot(s.TenantAggregateRoot)
	return m
}
