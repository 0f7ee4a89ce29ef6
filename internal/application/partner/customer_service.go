package partner

import (
	"context"

	"github.com/crm/backend/internal/application/access"
	"github.com/crm/backend/internal/application/validation"
	"github.com/crm/backend/internal/domain/identity"
	"github.com/crm/backend/internal/domain/partner"
	"github.com/crm/backend/internal/domain/shared"
	"go.uber.org/zap"
)

// AccessGuard is the ownership check applied before detail reads and mutations
type AccessGuard interface {
	Require(ctx context.Context, kind access.Kind, entityID, tenantID int64) error
}

// CustomerService handles customer-related business operations
type CustomerService struct {
	customerRepo   partner.CustomerRepository
	guard          AccessGuard
	eventPublisher shared.EventPublisher
	logger         *zap.Logger
}

// NewCustomerService creates a new CustomerService
func NewCustomerService(customerRepo partner.CustomerRepository, guard AccessGuard, logger *zap.Logger) *CustomerService {
	return &CustomerService{
		customerRepo: customerRepo,
		guard:        guard,
		logger:       logger,
	}
}

// SetEventPublisher sets the event publisher for customer events
func (s *CustomerService) SetEventPublisher(publisher shared.EventPublisher) {
	s.eventPublisher = publisher
}

// Create creates a new customer in the principal's active company
func (s *CustomerService) Create(ctx context.Context, principal *identity.Principal, req CreateCustomerRequest) (*CustomerResponse, error) {
	tenantID, err := activeTenant(principal)
	if err != nil {
		return nil, err
	}
	if err := validation.Validate(validation.KindCustomer, req); err != nil {
		return nil, err
	}

	customer, err := partner.NewCustomer(tenantID, req.Name)
	if err != nil {
		return nil, err
	}
	customer.SetCreatedBy(principal.UserID())
	if err := customer.SetContact(req.Email, req.Phone); err != nil {
		return nil, err
	}
	customer.SetAddress(req.Address, req.City, req.Country)
	if err := customer.SetLocation(req.Latitude, req.Longitude); err != nil {
		return nil, err
	}
	if req.Notes != "" {
		customer.SetNotes(req.Notes)
	}

	if err := s.customerRepo.Create(ctx, customer); err != nil {
		return nil, err
	}
	customer.RecordCreated()
	s.publish(ctx, customer)

	response := ToCustomerResponse(customer)
	return &response, nil
}

// GetByID retrieves a customer by ID
func (s *CustomerService) GetByID(ctx context.Context, principal *identity.Principal, customerID int64) (*CustomerResponse, error) {
	customer, err := s.load(ctx, principal, customerID)
	if err != nil {
		return nil, err
	}
	response := ToCustomerResponse(customer)
	return &response, nil
}

// List retrieves a list of customers with filtering and pagination
func (s *CustomerService) List(ctx context.Context, principal *identity.Principal, filter CustomerListFilter) (*shared.Paginated[CustomerResponse], error) {
	tenantID, err := activeTenant(principal)
	if err != nil {
		return nil, err
	}

	if filter.Page <= 0 {
		filter.Page = 1
	}
	if filter.OrderBy == "" {
		filter.OrderBy = "name"
	}
	if filter.OrderDir == "" {
		filter.OrderDir = "asc"
	}

	domainFilter := partner.CustomerFilter{
		Filter: shared.Filter{
			Page:     filter.Page,
			PageSize: filter.PageSize,
			OrderBy:  filter.OrderBy,
			OrderDir: filter.OrderDir,
			Search:   filter.Search,
		},
		Status: partner.CustomerStatus(filter.Status),
	}

	customers, total, err := s.customerRepo.FindAllForTenant(ctx, tenantID, domainFilter)
	if err != nil {
		return nil, err
	}
	page := shared.NewPaginated(ToCustomerResponses(customers), total, domainFilter.Page, domainFilter.Limit())
	return &page, nil
}

// Update updates a customer
func (s *CustomerService) Update(ctx context.Context, principal *identity.Principal, customerID int64, req UpdateCustomerRequest) (*CustomerResponse, error) {
	if err := validation.ValidatePatch(validation.KindCustomer, req); err != nil {
		return nil, err
	}
	customer, err := s.load(ctx, principal, customerID)
	if err != nil {
		return nil, err
	}
	if req.Version != nil && *req.Version != customer.Version {
		return nil, shared.ErrConcurrencyConflict
	}

	if req.Name != nil {
		if err := customer.Rename(*req.Name); err != nil {
			return nil, err
		}
	}

	if req.Email != nil || req.Phone != nil {
		email, phone := customer.Email, customer.Phone
		if req.Email != nil {
			email = *req.Email
		}
		if req.Phone != nil {
			phone = *req.Phone
		}
		if err := customer.SetContact(email, phone); err != nil {
			return nil, err
		}
	}

	if req.Address != nil || req.City != nil || req.Country != nil {
		address, city, country := customer.Address, customer.City, customer.Country
		if req.Address != nil {
			address = *req.Address
		}
		if req.City != nil {
			city = *req.City
		}
		if req.Country != nil {
			country = *req.Country
		}
		customer.SetAddress(address, city, country)
	}

	if req.Latitude != nil || req.Longitude != nil {
		if err := customer.SetLocation(req.Latitude, req.Longitude); err != nil {
			return nil, err
		}
	}

	if req.Notes != nil {
		customer.SetNotes(*req.Notes)
	}

	customer.AddDomainEvent(partner.NewCustomerUpdatedEvent(customer))
	if err := s.customerRepo.SaveWithLock(ctx, customer); err != nil {
		return nil, err
	}
	s.publish(ctx, customer)

	response := ToCustomerResponse(customer)
	return &response, nil
}

// Delete deletes a customer
func (s *CustomerService) Delete(ctx context.Context, principal *identity.Principal, customerID int64) error {
	customer, err := s.load(ctx, principal, customerID)
	if err != nil {
		return err
	}
	if err := s.customerRepo.DeleteForTenant(ctx, customer.TenantID, customer.ID); err != nil {
		return err
	}
	customer.AddDomainEvent(partner.NewCustomerDeletedEvent(customer))
	s.publish(ctx, customer)
	return nil
}

// Activate activates a customer
func (s *CustomerService) Activate(ctx context.Context, principal *identity.Principal, customerID int64) (*CustomerResponse, error) {
	return s.changeStatus(ctx, principal, customerID, (*partner.Customer).Activate)
}

// Deactivate deactivates a customer
func (s *CustomerService) Deactivate(ctx context.Context, principal *identity.Principal, customerID int64) (*CustomerResponse, error) {
	return s.changeStatus(ctx, principal, customerID, (*partner.Customer).Deactivate)
}

func (s *CustomerService) changeStatus(ctx context.Context, principal *identity.Principal, customerID int64, apply func(*partner.Customer) error) (*CustomerResponse, error) {
	customer, err := s.load(ctx, principal, customerID)
	if err != nil {
		return nil, err
	}
	if err := apply(customer); err != nil {
		return nil, err
	}
	if err := s.customerRepo.SaveWithLock(ctx, customer); err != nil {
		return nil, err
	}
	s.publish(ctx, customer)

	response := ToCustomerResponse(customer)
	return &response, nil
}

func (s *CustomerService) load(ctx context.Context, principal *identity.Principal, customerID int64) (*partner.Customer, error) {
	tenantID, err := activeTenant(principal)
	if err != nil {
		return nil, err
	}
	if err := s.guard.Require(ctx, access.KindCustomer, customerID, tenantID); err != nil {
		return nil, err
	}
	return s.customerRepo.FindByIDForTenant(ctx, tenantID, customerID)
}

func (s *CustomerService) publish(ctx context.Context, customer *partner.Customer) {
	events := customer.GetDomainEvents()
	if s.eventPublisher != nil && len(events) > 0 {
		if err := s.eventPublisher.Publish(ctx, events...); err != nil {
			s.logger.Warn("Failed to publish customer events",
				zap.Int64("customer_id", customer.ID),
				zap.Error(err))
		}
	}
	customer.ClearDomainEvents()
}

func activeTenant(principal *identity.Principal) (int64, error) {
	if principal == nil {
		return 0, identity.ErrUnauthenticated
	}
	tenantID, ok := principal.TenantID()
	if !ok {
		return 0, identity.ErrNoActiveTenant
	}
	return tenantID, nil
}
