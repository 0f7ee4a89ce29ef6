package identity

import "github.com/crm/backend/internal/domain/shared"

const (
	AggregateTypeUser    = "User"
	AggregateTypeCompany = "Company"
)

const (
	EventTypeUserActiveCompanyChanged = "UserActiveCompanyChanged"
	EventTypeCompanyCreated           = "CompanyCreated"
)

// UserActiveCompanyChangedEvent is published when a user switches or loses
// the active company
type UserActiveCompanyChangedEvent struct {
	shared.BaseDomainEvent
	PreviousCompanyID *int64 `json:"previous_company_id,omitempty"`
	CompanyID         *int64 `json:"company_id,omitempty"`
}

// NewUserActiveCompanyChangedEvent creates a new UserActiveCompanyChangedEvent
func NewUserActiveCompanyChangedEvent(user *User, previous *int64) *UserActiveCompanyChangedEvent {
	var tenantID int64
	if user.HasActiveCompany() {
		tenantID = *user.ActiveCompanyID
	} else if previous != nil {
		tenantID = *previous
	}
	e := &UserActiveCompanyChangedEvent{
		BaseDomainEvent:   shared.NewBaseDomainEvent(EventTypeUserActiveCompanyChanged, AggregateTypeUser, user.ID, tenantID),
		PreviousCompanyID: previous,
		CompanyID:         copyID(user.ActiveCompanyID),
	}
	e.ActorID = user.ID
	return e
}

// CompanyCreatedEvent is published when a company is created during onboarding
type CompanyCreatedEvent struct {
	shared.BaseDomainEvent
	Name string `json:"name"`
}

// NewCompanyCreatedEvent creates a new CompanyCreatedEvent
func NewCompanyCreatedEvent(company *Company) *CompanyCreatedEvent {
	e := &CompanyCreatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeCompanyCreated, AggregateTypeCompany, company.ID, company.ID),
		Name:            company.Name,
	}
	e.ActorID = company.OwnerUserID
	return e
}
