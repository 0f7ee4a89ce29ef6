package sales

import "github.com/crm/backend/internal/domain/shared"

// AggregateTypeOpportunity is the aggregate type of opportunity events
const AggregateTypeOpportunity = "Opportunity"

// Event type constants
const (
	EventTypeOpportunityCreated      = "OpportunityCreated"
	EventTypeOpportunityStageChanged = "OpportunityStageChanged"
	EventTypeOpportunityClosed       = "OpportunityClosed"
)

// OpportunityCreatedEvent is published when an opportunity is created
type OpportunityCreatedEvent struct {
	shared.BaseDomainEvent
	Name                string `json:"name"`
	Amount              string `json:"amount"`
	CustomerID          *int64 `json:"customer_id,omitempty"`
	ConvertedFromLeadID *int64 `json:"converted_from_lead_id,omitempty"`
}

// NewOpportunityCreatedEvent creates a new OpportunityCreatedEvent
func NewOpportunityCreatedEvent(o *Opportunity) *OpportunityCreatedEvent {
	e := &OpportunityCreatedEvent{
		BaseDomainEvent:     shared.NewBaseDomainEvent(EventTypeOpportunityCreated, AggregateTypeOpportunity, o.ID, o.TenantID),
		Name:                o.Name,
		Amount:              o.Amount.String(),
		CustomerID:          o.CustomerID,
		ConvertedFromLeadID: o.ConvertedFromLeadID,
	}
	if o.CreatedBy != nil {
		e.ActorID = *o.CreatedBy
	}
	return e
}

// OpportunityStageChangedEvent is published when an opportunity moves through the pipeline
type OpportunityStageChangedEvent struct {
	shared.BaseDomainEvent
	FromStageID int64 `json:"from_stage_id"`
	ToStageID   int64 `json:"to_stage_id"`
	Probability int   `json:"probability"`
}

// NewOpportunityStageChangedEvent creates a new OpportunityStageChangedEvent
func NewOpportunityStageChangedEvent(o *Opportunity, fromStageID int64) *OpportunityStageChangedEvent {
	return &OpportunityStageChangedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeOpportunityStageChanged, AggregateTypeOpportunity, o.ID, o.TenantID),
		FromStageID:     fromStageID,
		ToStageID:       o.PipelineStageID,
		Probability:     o.Probability,
	}
}

// OpportunityClosedEvent is published when an opportunity is won, lost or abandoned
type OpportunityClosedEvent struct {
	shared.BaseDomainEvent
	Status OpportunityStatus `json:"status"`
	Amount string            `json:"amount"`
	Reason string            `json:"reason,omitempty"`
}

// NewOpportunityClosedEvent creates a new OpportunityClosedEvent
func NewOpportunityClosedEvent(o *Opportunity) *OpportunityClosedEvent {
	return &OpportunityClosedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeOpportunityClosed, AggregateTypeOpportunity, o.ID, o.TenantID),
		Status:          o.Status,
		Amount:          o.Amount.String(),
		Reason:          o.LostReason,
	}
}
