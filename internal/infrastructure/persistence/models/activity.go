package models

import (
	"time"

	"github.com/crm/backend/internal/domain/activity"
)

// ActivityModel is one row of the activity timeline.
type ActivityModel struct {
	ID          int64               `gorm:"primaryKey;autoIncrement"`
	TenantID    int64               `gorm:"not null;index:idx_activity_entity,priority:1"`
	EntityType  activity.EntityType `gorm:"type:varchar(20);not null;index:idx_activity_entity,priority:2"`
	EntityID    int64               `gorm:"not null;index:idx_activity_entity,priority:3"`
	Action      activity.Action     `gorm:"type:varchar(30);not null"`
	Description string              `gorm:"type:text"`
	UserID      *int64
	CreatedAt   time.Time `gorm:"not null"`
}

// TableName returns the table name for GORM
func (ActivityModel) TableName() string {
	return "activities"
}

// ToDomain converts the persistence model to a domain Entry.
func (m *ActivityModel) ToDomain() *activity.Entry {
	return &activity.Entry{
		ID:          m.ID,
		TenantID:    m.TenantID,
		EntityType:  m.EntityType,
		EntityID:    m.EntityID,
		Action:      m.Action,
		Description: m.Description,
		UserID:      m.UserID,
		CreatedAt:   m.CreatedAt,
	}
}

// ActivityModelFromDomain creates a persistence model from a domain Entry.
func ActivityModelFromDomain(e *activity.Entry) *ActivityModel {
	return &ActivityModel{
		ID:          e.ID,
		TenantID:    e.TenantID,
		EntityType:  e.EntityType,
		EntityID:    e.EntityID,
		Action:      e.Action,
		Description: e.Description,
		UserID:      e.UserID,
		CreatedAt:   e.CreatedAt,
	}
}
