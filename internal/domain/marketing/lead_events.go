package marketing

import (
	"time"

	"github.com/crm/backend/internal/domain/shared"
)

// AggregateTypeLead is the aggregate type of lead events
const AggregateTypeLead = "Lead"

// Event type constants
const (
	EventTypeLeadCreated       = "LeadCreated"
	EventTypeLeadStatusChanged = "LeadStatusChanged"
	EventTypeLeadConverted     = "LeadConverted"
)

// LeadCreatedEvent is published when a lead is captured
type LeadCreatedEvent struct {
	shared.BaseDomainEvent
	DisplayName string `json:"display_name"`
	Score       int    `json:"score"`
}

// NewLeadCreatedEvent creates a new LeadCreatedEvent
func NewLeadCreatedEvent(lead *Lead) *LeadCreatedEvent {
	e := &LeadCreatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeLeadCreated, AggregateTypeLead, lead.ID, lead.TenantID),
		DisplayName:     lead.DisplayName(),
		Score:           lead.Score,
	}
	if lead.CreatedBy != nil {
		e.ActorID = *lead.CreatedBy
	}
	return e
}

// LeadStatusChangedEvent is published on manual status changes
type LeadStatusChangedEvent struct {
	shared.BaseDomainEvent
	OldStatus LeadStatus `json:"old_status"`
	NewStatus LeadStatus `json:"new_status"`
}

// NewLeadStatusChangedEvent creates a new LeadStatusChangedEvent
func NewLeadStatusChangedEvent(lead *Lead, oldStatus LeadStatus) *LeadStatusChangedEvent {
	return &LeadStatusChangedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeLeadStatusChanged, AggregateTypeLead, lead.ID, lead.TenantID),
		OldStatus:       oldStatus,
		NewStatus:       lead.Status,
	}
}

// LeadConvertedEvent is published after a conversion commits
type LeadConvertedEvent struct {
	shared.BaseDomainEvent
	DisplayName   string    `json:"display_name"`
	CustomerID    *int64    `json:"customer_id,omitempty"`
	OpportunityID *int64    `json:"opportunity_id,omitempty"`
	ConvertedAt   time.Time `json:"converted_at"`
}

// NewLeadConvertedEvent creates a new LeadConvertedEvent
func NewLeadConvertedEvent(lead *Lead) *LeadConvertedEvent {
	e := &LeadConvertedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeLeadConverted, AggregateTypeLead, lead.ID, lead.TenantID),
		DisplayName:     lead.DisplayName(),
		CustomerID:      lead.ConvertedToCustomerID,
		OpportunityID:   lead.ConvertedToOpportunityID,
	}
	if lead.ConvertedAt != nil {
		e.ConvertedAt = *lead.ConvertedAt
	}
	if lead.ConvertedByUserID != nil {
		e.ActorID = *lead.ConvertedByUserID
	}
	return e
}
