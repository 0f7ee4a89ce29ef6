package models

import (
	"time"

	"github.com/crm/backend/internal/domain/marketing"
	"github.com/shopspring/decimal"
)

// LeadModel is the persistence model for the Lead aggregate.
type LeadModel struct {
	TenantAggregateModel
	FirstName      string               `gorm:"type:varchar(100)"`
	LastName       string               `gorm:"type:varchar(100)"`
	CompanyName    string               `gorm:"type:varchar(200)"`
	Title          string               `gorm:"type:varchar(100)"`
	Email          string               `gorm:"type:varchar(200);index"`
	Phone          string               `gorm:"type:varchar(50)"`
	Mobile         string               `gorm:"type:varchar(50)"`
	Website        string               `gorm:"type:varchar(500)"`
	Address        string               `gorm:"type:text"`
	City           string               `gorm:"type:varchar(100)"`
	State          string               `gorm:"type:varchar(100)"`
	Country        string               `gorm:"type:varchar(100)"`
	PostalCode     string               `gorm:"type:varchar(20)"`
	Industry       string               `gorm:"type:varchar(100)"`
	Description    string               `gorm:"type:text"`
	EstimatedValue decimal.NullDecimal  `gorm:"type:decimal(18,4)"`
	Currency       string               `gorm:"type:varchar(3)"`
	Rating         marketing.LeadRating `gorm:"type:varchar(10);not null;default:'cold'"`
	SourceID       *int64               `gorm:"index"`
	Status         marketing.LeadStatus `gorm:"type:varchar(20);not null;default:'new';index"`
	Score          int                  `gorm:"not null;default:0"`
	AssignedUserID *int64               `gorm:"index"`

	ConvertedToCustomerID    *int64
	ConvertedToOpportunityID *int64
	ConvertedAt              *time.Time
	ConvertedByUserID        *int64
}

// TableName returns the table name for GORM
func (LeadModel) TableName() string {
	return "leads"
}

// ToDomain converts the persistence model to a domain Lead.
func (m *LeadModel) ToDomain() *marketing.Lead {
	var estimated *decimal.Decimal
	if m.EstimatedValue.Valid {
		v := m.EstimatedValue.Decimal
		estimated = &v
	}
	return &marketing.Lead{
		TenantAggregateRoot: m.ToTenantAggregateRoot(),
		LeadProfile: marketing.LeadProfile{
			FirstName:      m.FirstName,
			LastName:       m.LastName,
			CompanyName:    m.CompanyName,
			Title:          m.Title,
			Email:          m.Email,
			Phone:          m.Phone,
			Mobile:         m.Mobile,
			Website:        m.Website,
			Address:        m.Address,
			City:           m.City,
			State:          m.State,
			Country:        m.Country,
			PostalCode:     m.PostalCode,
			Industry:       m.Industry,
			Description:    m.Description,
			EstimatedValue: estimated,
			Currency:       m.Currency,
			Rating:         m.Rating,
			SourceID:       m.SourceID,
		},
		Status:                   m.Status,
		Score:                    m.Score,
		AssignedUserID:           m.AssignedUserID,
		ConvertedToCustomerID:    m.ConvertedToCustomerID,
		ConvertedToOpportunityID: m.ConvertedToOpportunityID,
		ConvertedAt:              m.ConvertedAt,
		ConvertedByUserID:        m.ConvertedByUserID,
	}
}

// FromDomain populates the persistence model from a domain Lead.
func (m *LeadModel) FromDomain(l *marketing.Lead) {
	m.FromDomainTenantAggregateRoot(l.TenantAggregateRoot)
	m.FirstName = l.FirstName
	m.LastName = l.LastName
	m.CompanyName = l.CompanyName
	m.Title = l.Title
	m.Email = l.Email
	m.Phone = l.Phone
	m.Mobile = l.Mobile
	m.Website = l.Website
	m.Address = l.Address
	m.City = l.City
	m.State = l.State
	m.Country = l.Country
	m.PostalCode = l.PostalCode
	m.Industry = l.Industry
	m.Description = l.Description
	m.EstimatedValue = decimal.NullDecimal{}
	if l.EstimatedValue != nil {
		m.EstimatedValue = decimal.NewNullDecimal(*l.EstimatedValue)
	}
	m.Currency = l.Currency
	m.Rating = l.Rating
	m.SourceID = l.SourceID
	m.Status = l.Status
	m.Score = l.Score
	m.AssignedUserID = l.AssignedUserID
	m.ConvertedToCustomerID = l.ConvertedToCustomerID
	m.ConvertedToOpportunityID = l.ConvertedToOpportunityID
	m.ConvertedAt = l.ConvertedAt
	m.ConvertedByUserID = l.ConvertedByUserID
}

// LeadModelFromDomain creates a new persistence model from a domain Lead.
func LeadModelFromDomain(l *marketing.Lead) *LeadModel {
	m := &LeadModel{}
	m.FromDomain(l)
	return m
}

// LeadSourceModel is the persistence model for lead sources.
type LeadSourceModel struct {
	TenantAggregateModel
	Name        string `gorm:"type:varchar(100);not null"`
	Description string `gorm:"type:text"`
	IsActive    bool   `gorm:"not null;default:true"`
}

// TableName returns the table name for GORM
func (LeadSourceModel) TableName() string {
	return "lead_sources"
}

// ToDomain converts the persistence model to a domain LeadSource.
func (m *LeadSourceModel) ToDomain() *marketing.LeadSource {
	return &marketing.LeadSource{
		TenantAggregateRoot: m.ToTenantAggregateRoot(),
		Name:                m.Name,
		Description:         m.Description,
		IsActive:            m.IsActive,
	}
}

// LeadSourceModelFromDomain creates a persistence model from a domain LeadSource.
func LeadSourceModelFromDomain(s *marketing.LeadSource) *LeadSourceModel {
	m := &LeadSourceModel{
		Name:        s.Name,
		Description: s.Description,
		IsActive:    s.IsActive,
	}
	m.FromDomainTenantAggregateRoot(s.TenantAggregateRoot)
	return m
}
