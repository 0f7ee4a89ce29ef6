package sales

import (
	"strings"

	"github.com/crm/backend/internal/domain/shared"
)

// StageKind classifies a pipeline stage
type StageKind string

const (
	StageKindOpen StageKind = "open"
	StageKindWon  StageKind = "won"
	StageKindLost StageKind = "lost"
)

// IsValid checks if the kind is a known value
func (k StageKind) IsValid() bool {
	switch k {
	case StageKindOpen, StageKindWon, StageKindLost:
		return true
	}
	return false
}

// PipelineStage is one step of a company's sales pipeline
type PipelineStage struct {
	shared.TenantAggregateRoot
	Name               string
	Description        string
	DisplayOrder       int
	DefaultProbability int
	Kind               StageKind
	Color              string
	IsActive           bool
}

// NewPipelineStage creates an active pipeline stage
func NewPipelineStage(tenantID int64, name string, order, probability int, kind StageKind) (*PipelineStage, error) {
	if tenantID <= 0 {
		return nil, shared.NewDomainError("INVALID_TENANT", "Tenant ID is required")
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, shared.NewDomainError("INVALID_NAME", "Stage name cannot be empty")
	}
	if len(name) > 100 {
		return nil, shared.NewDomainError("INVALID_NAME", "Stage name cannot exceed 100 characters")
	}
	if order < 0 {
		return nil, shared.NewDomainError("INVALID_ORDER", "Display order cannot be negative")
	}
	if err := validateProbability(probability); err != nil {
		return nil, err
	}
	if kind == "" {
		kind = StageKindOpen
	}
	if !kind.IsValid() {
		return nil, shared.NewDomainError("INVALID_STAGE_KIND", "Stage kind must be one of open, won, lost")
	}
	return &PipelineStage{
		TenantAggregateRoot: shared.NewTenantAggregateRoot(tenantID),
		Name:                name,
		DisplayOrder:        order,
		DefaultProbability:  probability,
		Kind:                kind,
		IsActive:            true,
	}, nil
}

// Deactivate removes the stage from the active pipeline
func (s *PipelineStage) Deactivate() error {
	if !s.IsActive {
		return shared.NewDomainError("ALREADY_INACTIVE", "Pipeline stage is already inactive")
	}
	s.IsActive = false
	s.Touch()
	return nil
}

// IsClosing returns true for won and lost stages
func (s *PipelineStage) IsClosing() bool {
	return s.Kind == StageKindWon || s.Kind == StageKindLost
}
