package models

import (
	"github.com/crm/backend/internal/domain/partner"
)

// CustomerModel is the persistence model for the Customer domain entity.
type CustomerModel struct {
	TenantAggregateModel
	Name                string                 `gorm:"type:varchar(200);not null"`
	Email               string                 `gorm:"type:varchar(200);index"`
	Phone               string                 `gorm:"type:varchar(50)"`
	Address             string                 `gorm:"type:text"`
	City                string                 `gorm:"type:varchar(100)"`
	Country             string                 `gorm:"type:varchar(100)"`
	Latitude            *float64               `gorm:"type:double precision"`
	Longitude           *float64               `gorm:"type:double precision"`
	Status              partner.CustomerStatus `gorm:"type:varchar(20);not null;default:'active'"`
	Notes               string                 `gorm:"type:text"`
	ConvertedFromLeadID *int64                 `gorm:"index"`
}

// TableName returns the table name for GORM
func (CustomerModel) TableName() string {
	return "customers"
}

// ToDomain converts the persistence model to a domain Customer entity.
func (m *CustomerModel) ToDomain() *partner.Customer {
	return &partner.Customer{
		TenantAggregateRoot: m.ToTenantAggregateRoot(),
		Name:                m.Name,
		Email:               m.Email,
		Phone:               m.Phone,
		Address:             m.Address,
		City:                m.City,
		Country:             m.Country,
		Latitude:            m.Latitude,
		Longitude:           m.Longitude,
		Status:              m.Status,
		Notes:               m.Notes,
		ConvertedFromLeadID: m.ConvertedFromLeadID,
	}
}

// FromDomain populates the persistence model from a domain Customer entity.
func (m *CustomerModel) FromDomain(c *partner.Customer) {
	m.FromDomainTenantAggregateRoot(c.TenantAggregateRoot)
	m.Name = c.Name
	m.Email = c.Email
	m.Phone = c.Phone
	m.Address = c.Address
	m.City = c.City
	m.Country = c.Country
	m.Latitude = c.Latitude
	m.Longitude = c.Longitude
	m.Status = c.Status
	m.Notes = c.Notes
	m.ConvertedFromLeadID = c.ConvertedFromLeadID
}

// CustomerModelFromDomain creates a new persistence model from a domain Customer entity.
func CustomerModelFromDomain(c *partner.Customer) *CustomerModel {
	m := &CustomerModel{}
	m.FromDomain(c)
	return m
}
