package activity

import (
	"context"
	"strings"
	"time"

	"github.com/crm/backend/internal/domain/shared"
)

// EntityType names the kind of record a timeline entry is attached to
type EntityType string

const (
	EntityLead        EntityType = "lead"
	EntityCustomer    EntityType = "customer"
	EntityOpportunity EntityType = "opportunity"
)

// IsValid checks if the entity type is a known value
func (t EntityType) IsValid() bool {
	switch t {
	case EntityLead, EntityCustomer, EntityOpportunity:
		return true
	}
	return false
}

// Action names what happened to the entity
type Action string

const (
	ActionCreated       Action = "created"
	ActionConverted     Action = "converted"
	ActionStatusChanged Action = "status_changed"
	ActionStageChanged  Action = "stage_changed"
	ActionClosed        Action = "closed"
)

// Entry is one line of an entity's activity timeline. Entries are append-only.
type Entry struct {
	ID          int64
	TenantID    int64
	EntityType  EntityType
	EntityID    int64
	Action      Action
	Description string
	UserID      *int64
	CreatedAt   time.Time
}

// NewEntry creates a timeline entry
func NewEntry(tenantID int64, entityType EntityType, entityID int64, action Action, description string, userID int64) (*Entry, error) {
	if tenantID <= 0 || entityID <= 0 {
		return nil, shared.NewDomainError("INVALID_ENTRY", "Timeline entry needs a tenant and an entity")
	}
	if !entityType.IsValid() {
		return nil, shared.NewDomainError("INVALID_ENTITY_TYPE", "Unknown entity type")
	}
	e := &Entry{
		TenantID:    tenantID,
		EntityType:  entityType,
		EntityID:    entityID,
		Action:      action,
		Description: strings.TrimSpace(description),
		CreatedAt:   time.Now(),
	}
	if userID > 0 {
		e.UserID = &userID
	}
	return e, nil
}

// Repository persists timeline entries
type Repository interface {
	Append(ctx context.Context, entry *Entry) error

	// ListForEntity returns the entity's entries, newest first
	ListForEntity(ctx context.Context, tenantID int64, entityType EntityType, entityID int64, limit int) ([]Entry, error)
}
