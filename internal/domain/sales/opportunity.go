package sales

import (
	"strings"
	"time"

	"github.com/crm/backend/internal/domain/shared"
	"github.com/crm/backend/internal/domain/shared/valueobject"
	"github.com/shopspring/decimal"
)

// OpportunityStatus represents the status of an opportunity
type OpportunityStatus string

const (
	OpportunityStatusOpen      OpportunityStatus = "open"
	OpportunityStatusWon       OpportunityStatus = "won"
	OpportunityStatusLost      OpportunityStatus = "lost"
	OpportunityStatusAbandoned OpportunityStatus = "abandoned"
)

// IsClosed returns true for every status but Open
func (s OpportunityStatus) IsClosed() bool {
	return s != OpportunityStatusOpen
}

// Opportunity is a potential sale tracked through the pipeline
type Opportunity struct {
	shared.TenantAggregateRoot
	Name                string
	Description         string
	Amount              valueobject.Money
	Probability         int
	Status              OpportunityStatus
	PipelineStageID     int64
	CustomerID          *int64
	AssignedUserID      *int64
	SourceID            *int64
	ConvertedFromLeadID *int64
	ExpectedCloseDate   *time.Time
	ClosedAt            *time.Time
	LostReason          string
}

// NewOpportunity creates an open opportunity in the given stage
func NewOpportunity(tenantID, createdBy int64, name string, stage *PipelineStage, amount valueobject.Money, probability int) (*Opportunity, error) {
	if tenantID <= 0 {
		return nil, shared.NewDomainError("INVALID_TENANT", "Tenant ID is required")
	}
	if stage == nil || !stage.BelongsTo(tenantID) {
		return nil, shared.NewDomainError("INVALID_STAGE", "Pipeline stage must belong to the same company")
	}
	name = strings.TrimSpace(name)
	if err := validateOpportunityName(name); err != nil {
		return nil, err
	}
	if amount.IsNegative() {
		return nil, shared.NewDomainError("INVALID_AMOUNT", "Amount cannot be negative")
	}
	if err := validateProbability(probability); err != nil {
		return nil, err
	}

	return &Opportunity{
		TenantAggregateRoot: shared.NewTenantAggregateRootWithCreator(tenantID, createdBy),
		Name:                name,
		Amount:              amount,
		Probability:         probability,
		Status:              OpportunityStatusOpen,
		PipelineStageID:     stage.ID,
	}, nil
}

// RecordCreated raises the creation event once the opportunity has an id
func (o *Opportunity) RecordCreated() {
	o.AddDomainEvent(NewOpportunityCreatedEvent(o))
}

// WeightedAmount is Amount x Probability / 100. It is derived, never stored.
func (o *Opportunity) WeightedAmount() valueobject.Money {
	return o.Amount.Percent(o.Probability)
}

// Update changes the descriptive fields and the amount
func (o *Opportunity) Update(name, description string, amount valueobject.Money, probability int, expectedClose *time.Time) error {
	if o.Status.IsClosed() {
		return ErrOpportunityClosed
	}
	name = strings.TrimSpace(name)
	if err := validateOpportunityName(name); err != nil {
		return err
	}
	if amount.IsNegative() {
		return shared.NewDomainError("INVALID_AMOUNT", "Amount cannot be negative")
	}
	if err := validateProbability(probability); err != nil {
		return err
	}
	o.Name = name
	o.Description = description
	o.Amount = amount
	o.Probability = probability
	o.ExpectedCloseDate = expectedClose
	o.Touch()
	return nil
}

// AssignTo sets the responsible user
func (o *Opportunity) AssignTo(userID *int64) {
	o.AssignedUserID = userID
	o.Touch()
}

// LinkCustomer attaches the opportunity to a customer
func (o *Opportunity) LinkCustomer(customerID int64) {
	o.CustomerID = &customerID
	o.Touch()
}

// MarkConvertedFrom records the lead this opportunity was created from
func (o *Opportunity) MarkConvertedFrom(leadID int64) {
	o.ConvertedFromLeadID = &leadID
}

// MoveToStage moves the opportunity and adopts the stage's default probability.
// Won and lost stages close the opportunity.
func (o *Opportunity) MoveToStage(stage *PipelineStage) error {
	if o.Status.IsClosed() {
		return ErrOpportunityClosed
	}
	if stage == nil || !stage.BelongsTo(o.TenantID) {
		return shared.NewDomainError("INVALID_STAGE", "Pipeline stage must belong to the same company")
	}
	if !stage.IsActive {
		return shared.NewDomainError("INACTIVE_STAGE", "Pipeline stage is not active")
	}
	from := o.PipelineStageID
	o.PipelineStageID = stage.ID
	o.Probability = stage.DefaultProbability
	o.Touch()
	o.AddDomainEvent(NewOpportunityStageChangedEvent(o, from))

	switch stage.Kind {
	case StageKindWon:
		return o.close(OpportunityStatusWon, "")
	case StageKindLost:
		return o.close(OpportunityStatusLost, "")
	}
	return nil
}

// MarkWon closes the opportunity as won
func (o *Opportunity) MarkWon() error {
	if o.Status.IsClosed() {
		return ErrOpportunityClosed
	}
	o.Probability = 100
	return o.close(OpportunityStatusWon, "")
}

// MarkLost closes the opportunity as lost
func (o *Opportunity) MarkLost(reason string) error {
	if o.Status.IsClosed() {
		return ErrOpportunityClosed
	}
	o.Probability = 0
	return o.close(OpportunityStatusLost, strings.TrimSpace(reason))
}

// Abandon closes the opportunity without an outcome
func (o *Opportunity) Abandon() error {
	if o.Status.IsClosed() {
		return ErrOpportunityClosed
	}
	return o.close(OpportunityStatusAbandoned, "")
}

func (o *Opportunity) close(status OpportunityStatus, reason string) error {
	now := time.Now()
	o.Status = status
	o.ClosedAt = &now
	o.LostReason = reason
	o.Touch()
	o.AddDomainEvent(NewOpportunityClosedEvent(o))
	return nil
}

func validateOpportunityName(name string) error {
	if name == "" {
		return shared.NewDomainError("INVALID_NAME", "Opportunity name cannot be empty")
	}
	if len(name) > 200 {
		return shared.NewDomainError("INVALID_NAME", "Opportunity name cannot exceed 200 characters")
	}
	return nil
}

func validateProbability(p int) error {
	if p < 0 || p > 100 {
		return shared.NewDomainError("INVALID_PROBABILITY", "Probability must be between 0 and 100")
	}
	return nil
}

// AmountFrom builds an amount from an optional decimal
func AmountFrom(value *decimal.Decimal, currency valueobject.Currency) (valueobject.Money, error) {
	if value == nil {
		return valueobject.Zero(currency), nil
	}
	return valueobject.NewMoney(*value, currency)
}
