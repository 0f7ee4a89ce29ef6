package partner

import (
	"regexp"
	"strings"

	"github.com/crm/backend/internal/domain/shared"
)

// CustomerStatus represents the status of a customer
type CustomerStatus string

const (
	CustomerStatusActive   CustomerStatus = "active"
	CustomerStatusInactive CustomerStatus = "inactive"
)

var emailPattern = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)

// Customer represents a customer account of a company
// It is the aggregate root for customer-related operations
type Customer struct {
	shared.TenantAggregateRoot
	Name                string
	Email               string
	Phone               string
	Address             string
	City                string
	Country             string
	Latitude            *float64
	Longitude           *float64
	Status              CustomerStatus
	Notes               string
	ConvertedFromLeadID *int64
}

// NewCustomer creates a new active customer
func NewCustomer(tenantID int64, name string) (*Customer, error) {
	if tenantID <= 0 {
		return nil, shared.NewDomainError("INVALID_TENANT", "Tenant ID is required")
	}
	name = strings.TrimSpace(name)
	if err := validateCustomerName(name); err != nil {
		return nil, err
	}

	return &Customer{
		TenantAggregateRoot: shared.NewTenantAggregateRoot(tenantID),
		Name:                name,
		Status:              CustomerStatusActive,
	}, nil
}

// RecordCreated raises the creation event once the customer has an id
func (c *Customer) RecordCreated() {
	c.AddDomainEvent(NewCustomerCreatedEvent(c))
}

// Rename updates the customer's display name
func (c *Customer) Rename(name string) error {
	name = strings.TrimSpace(name)
	if err := validateCustomerName(name); err != nil {
		return err
	}
	c.Name = name
	c.Touch()
	return nil
}

// SetContact sets email and phone
func (c *Customer) SetContact(email, phone string) error {
	email = strings.ToLower(strings.TrimSpace(email))
	if email != "" && (len(email) > 200 || !emailPattern.MatchString(email)) {
		return shared.NewDomainError("INVALID_EMAIL", "Invalid email format")
	}
	phone = strings.TrimSpace(phone)
	if len(phone) > 50 {
		return shared.NewDomainError("INVALID_PHONE", "Phone cannot exceed 50 characters")
	}
	c.Email = email
	c.Phone = phone
	c.Touch()
	return nil
}

// SetAddress sets the postal address
func (c *Customer) SetAddress(address, city, country string) {
	c.Address = strings.TrimSpace(address)
	c.City = strings.TrimSpace(city)
	c.Country = strings.TrimSpace(country)
	c.Touch()
}

// SetLocation sets the geographic coordinates; nil clears them
func (c *Customer) SetLocation(latitude, longitude *float64) error {
	if (latitude == nil) != (longitude == nil) {
		return shared.NewDomainError("INVALID_LOCATION", "Latitude and longitude must be set together")
	}
	if latitude != nil && (*latitude < -90 || *latitude > 90) {
		return shared.NewDomainError("INVALID_LOCATION", "Latitude must be between -90 and 90")
	}
	if longitude != nil && (*longitude < -180 || *longitude > 180) {
		return shared.NewDomainError("INVALID_LOCATION", "Longitude must be between -180 and 180")
	}
	c.Latitude = latitude
	c.Longitude = longitude
	c.Touch()
	return nil
}

// SetNotes sets free-form notes
func (c *Customer) SetNotes(notes string) {
	c.Notes = notes
	c.Touch()
}

// MarkConvertedFrom records the lead this customer was created from
func (c *Customer) MarkConvertedFrom(leadID int64) {
	c.ConvertedFromLeadID = &leadID
}

// Activate activates the customer
func (c *Customer) Activate() error {
	if c.Status == CustomerStatusActive {
		return shared.NewDomainError("ALREADY_ACTIVE", "Customer is already active")
	}
	old := c.Status
	c.Status = CustomerStatusActive
	c.Touch()
	c.AddDomainEvent(NewCustomerStatusChangedEvent(c, old))
	return nil
}

// Deactivate deactivates the customer
func (c *Customer) Deactivate() error {
	if c.Status == CustomerStatusInactive {
		return shared.NewDomainError("ALREADY_INACTIVE", "Customer is already inactive")
	}
	old := c.Status
	c.Status = CustomerStatusInactive
	c.Touch()
	c.AddDomainEvent(NewCustomerStatusChangedEvent(c, old))
	return nil
}

// IsActive returns true if the customer is active
func (c *Customer) IsActive() bool {
	return c.Status == CustomerStatusActive
}

func validateCustomerName(name string) error {
	if name == "" {
		return shared.NewDomainError("INVALID_NAME", "Customer name cannot be empty")
	}
	if len(name) > 200 {
		return shared.NewDomainError("INVALID_NAME", "Customer name cannot exceed 200 characters")
	}
	return nil
}
