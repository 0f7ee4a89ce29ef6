package activity

import (
	"context"
	"time"

	"github.com/crm/backend/internal/application/access"
	"github.com/crm/backend/internal/domain/activity"
	"github.com/crm/backend/internal/domain/identity"
	"github.com/crm/backend/internal/domain/shared"
)

// ErrInvalidEntityType is returned for timelines of unknown entity types
var ErrInvalidEntityType = shared.NewDomainError("INVALID_ENTITY_TYPE", "Timeline is available for leads, customers and opportunities")

// AccessGuard is the ownership check applied to the requested entity
type AccessGuard interface {
	Require(ctx context.Context, kind access.Kind, entityID, tenantID int64) error
}

// EntryResponse represents a timeline entry in API responses
type EntryResponse struct {
	ID          int64     `json:"id"`
	EntityType  string    `json:"entity_type"`
	EntityID    int64     `json:"entity_id"`
	Action      string    `json:"action"`
	Description string    `json:"description"`
	UserID      *int64    `json:"user_id,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// TimelineService reads entity timelines
type TimelineService struct {
	repo  activity.Repository
	guard AccessGuard
	limit int
}

// NewTimelineService creates a new TimelineService returning at most limit entries
func NewTimelineService(repo activity.Repository, guard AccessGuard, limit int) *TimelineService {
	return &TimelineService{repo: repo, guard: guard, limit: limit}
}

// ListForEntity returns the newest entries of an entity owned by the active company
func (s *TimelineService) ListForEntity(ctx context.Context, principal *identity.Principal, entityType string, entityID int64) ([]EntryResponse, error) {
	if principal == nil {
		return nil, identity.ErrUnauthenticated
	}
	tenantID, ok := principal.TenantID()
	if !ok {
		return nil, identity.ErrNoActiveTenant
	}

	kind, err := guardKind(activity.EntityType(entityType))
	if err != nil {
		return nil, err
	}
	if err := s.guard.Require(ctx, kind, entityID, tenantID); err != nil {
		return nil, err
	}

	entries, err := s.repo.ListForEntity(ctx, tenantID, activity.EntityType(entityType), entityID, s.limit)
	if err != nil {
		return nil, err
	}
	out := make([]EntryResponse, len(entries))
	for i, e := range entries {
		out[i] = EntryResponse{
			ID:          e.ID,
			EntityType:  string(e.EntityType),
			EntityID:    e.EntityID,
			Action:      string(e.Action),
			Description: e.Description,
			UserID:      e.UserID,
			CreatedAt:   e.CreatedAt,
		}
	}
	return out, nil
}

func guardKind(entityType activity.EntityType) (access.Kind, error) {
	switch entityType {
	case activity.EntityLead:
		return access.KindLead, nil
	case activity.EntityCustomer:
		return access.KindCustomer, nil
	case activity.EntityOpportunity:
		return access.KindOpportunity, nil
	}
	return "", ErrInvalidEntityType
}
