package activity

import (
	"context"
	"fmt"

	"github.com/crm/backend/internal/domain/activity"
	"github.com/crm/backend/internal/domain/marketing"
	"github.com/crm/backend/internal/domain/partner"
	"github.com/crm/backend/internal/domain/sales"
	"github.com/crm/backend/internal/domain/shared"
	"go.uber.org/zap"
)

// TimelineRecorder turns lead, customer and opportunity events into
// timeline entries
type TimelineRecorder struct {
	repo   activity.Repository
	logger *zap.Logger
}

// NewTimelineRecorder creates a new TimelineRecorder
func NewTimelineRecorder(repo activity.Repository, logger *zap.Logger) *TimelineRecorder {
	return &TimelineRecorder{repo: repo, logger: logger}
}

// EventTypes returns the event types this handler is interested in
func (r *TimelineRecorder) EventTypes() []string {
	return []string{
		marketing.EventTypeLeadCreated,
		marketing.EventTypeLeadStatusChanged,
		marketing.EventTypeLeadConverted,
		partner.EventTypeCustomerCreated,
		partner.EventTypeCustomerStatusChanged,
		sales.EventTypeOpportunityCreated,
		sales.EventTypeOpportunityStageChanged,
		sales.EventTypeOpportunityClosed,
	}
}

// Handle appends the entries describing event
func (r *TimelineRecorder) Handle(ctx context.Context, event shared.DomainEvent) error {
	entries := r.entriesFor(event)
	for _, e := range entries {
		if err := r.repo.Append(ctx, e); err != nil {
			return fmt.Errorf("append %s entry for %s %d: %w", e.Action, e.EntityType, e.EntityID, err)
		}
	}
	if len(entries) > 0 {
		r.logger.Debug("Timeline updated",
			zap.String("event_type", event.EventType()),
			zap.Int64("tenant_id", event.TenantID()),
			zap.Int("entries", len(entries)))
	}
	return nil
}

func (r *TimelineRecorder) entriesFor(event shared.DomainEvent) []*activity.Entry {
	tenantID := event.TenantID()
	actor := actorOf(event)
	var entries []*activity.Entry
	add := func(entityType activity.EntityType, entityID int64, action activity.Action, description string) {
		entry, err := activity.NewEntry(tenantID, entityType, entityID, action, description, actor)
		if err != nil {
			r.logger.Warn("Skipping timeline entry",
				zap.String("event_type", event.EventType()),
				zap.Int64("entity_id", entityID),
				zap.Error(err))
			return
		}
		entries = append(entries, entry)
	}

	switch e := event.(type) {
	case *marketing.LeadCreatedEvent:
		add(activity.EntityLead, e.AggregateID(), activity.ActionCreated,
			fmt.Sprintf("Lead %s created", e.DisplayName))
	case *marketing.LeadStatusChangedEvent:
		add(activity.EntityLead, e.AggregateID(), activity.ActionStatusChanged,
			fmt.Sprintf("Status changed from %s to %s", e.OldStatus, e.NewStatus))
	case *marketing.LeadConvertedEvent:
		add(activity.EntityLead, e.AggregateID(), activity.ActionConverted,
			fmt.Sprintf("Lead %s converted", e.DisplayName))
		if e.CustomerID != nil {
			add(activity.EntityCustomer, *e.CustomerID, activity.ActionConverted,
				fmt.Sprintf("Converted from lead %s", e.DisplayName))
		}
		if e.OpportunityID != nil {
			add(activity.EntityOpportunity, *e.OpportunityID, activity.ActionConverted,
				fmt.Sprintf("Converted from lead %s", e.DisplayName))
		}
	case *partner.CustomerCreatedEvent:
		add(activity.EntityCustomer, e.AggregateID(), activity.ActionCreated,
			fmt.Sprintf("Customer %s created", e.Name))
	case *partner.CustomerStatusChangedEvent:
		add(activity.EntityCustomer, e.AggregateID(), activity.ActionStatusChanged,
			fmt.Sprintf("Status changed from %s to %s", e.OldStatus, e.NewStatus))
	case *sales.OpportunityCreatedEvent:
		add(activity.EntityOpportunity, e.AggregateID(), activity.ActionCreated,
			fmt.Sprintf("Opportunity %s created", e.Name))
	case *sales.OpportunityStageChangedEvent:
		add(activity.EntityOpportunity, e.AggregateID(), activity.ActionStageChanged,
			fmt.Sprintf("Moved to stage %d at %d%%", e.ToStageID, e.Probability))
	case *sales.OpportunityClosedEvent:
		description := fmt.Sprintf("Closed as %s", e.Status)
		if e.Reason != "" {
			description += ": " + e.Reason
		}
		add(activity.EntityOpportunity, e.AggregateID(), activity.ActionClosed, description)
	}
	return entries
}

func actorOf(event shared.DomainEvent) int64 {
	if a, ok := event.(interface{ Actor() int64 }); ok {
		return a.Actor()
	}
	return 0
}

var _ shared.EventHandler = (*TimelineRecorder)(nil)
