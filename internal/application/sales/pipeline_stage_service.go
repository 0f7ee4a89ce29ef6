package sales

import (
	"context"
	"fmt"

	"github.com/crm/backend/internal/application/validation"
	"github.com/crm/backend/internal/domain/identity"
	"github.com/crm/backend/internal/domain/sales"
	"github.com/crm/backend/internal/domain/shared"
	"go.uber.org/zap"
)

// StageTemplate describes one stage of the starter pipeline
type StageTemplate struct {
	Name        string
	Probability int
	Kind        sales.StageKind
}

// DefaultPipeline is seeded into every new company
var DefaultPipeline = []StageTemplate{
	{Name: "Prospecting", Probability: 10, Kind: sales.StageKindOpen},
	{Name: "Qualification", Probability: 25, Kind: sales.StageKindOpen},
	{Name: "Proposal", Probability: 50, Kind: sales.StageKindOpen},
	{Name: "Negotiation", Probability: 75, Kind: sales.StageKindOpen},
	{Name: "Closed Won", Probability: 100, Kind: sales.StageKindWon},
	{Name: "Closed Lost", Probability: 0, Kind: sales.StageKindLost},
}

// PipelineStageService manages a company's pipeline stages
type PipelineStageService struct {
	stageRepo sales.PipelineStageRepository
	logger    *zap.Logger
}

// NewPipelineStageService creates a new PipelineStageService
func NewPipelineStageService(stageRepo sales.PipelineStageRepository, logger *zap.Logger) *PipelineStageService {
	return &PipelineStageService{stageRepo: stageRepo, logger: logger}
}

// Create adds a stage to the active company's pipeline
func (s *PipelineStageService) Create(ctx context.Context, principal *identity.Principal, req CreateStageRequest) (*StageResponse, error) {
	tenantID, err := activeTenant(principal)
	if err != nil {
		return nil, err
	}
	if err := validation.Validate(validation.KindPipelineStage, req); err != nil {
		return nil, err
	}

	stage, err := sales.NewPipelineStage(tenantID, req.Name, req.DisplayOrder, req.DefaultProbability, sales.StageKind(req.Kind))
	if err != nil {
		return nil, err
	}
	stage.Description = req.Description
	stage.Color = req.Color
	stage.SetCreatedBy(principal.UserID())

	if err := s.stageRepo.Create(ctx, stage); err != nil {
		return nil, err
	}
	response := ToStageResponse(stage)
	return &response, nil
}

// List returns the stages ordered by display order
func (s *PipelineStageService) List(ctx context.Context, principal *identity.Principal, activeOnly bool) ([]StageResponse, error) {
	tenantID, err := activeTenant(principal)
	if err != nil {
		return nil, err
	}
	stages, err := s.stageRepo.ListForTenant(ctx, tenantID, activeOnly)
	if err != nil {
		return nil, err
	}
	out := make([]StageResponse, len(stages))
	for i := range stages {
		out[i] = ToStageResponse(&stages[i])
	}
	return out, nil
}

// Deactivate removes a stage from the active pipeline.
// Opportunities already in the stage keep it.
func (s *PipelineStageService) Deactivate(ctx context.Context, principal *identity.Principal, stageID int64) (*StageResponse, error) {
	tenantID, err := activeTenant(principal)
	if err != nil {
		return nil, err
	}
	stage, err := s.stageRepo.FindByIDForTenant(ctx, tenantID, stageID)
	if err != nil {
		return nil, err
	}
	if err := stage.Deactivate(); err != nil {
		return nil, err
	}
	if err := s.stageRepo.Save(ctx, stage); err != nil {
		return nil, err
	}
	response := ToStageResponse(stage)
	return &response, nil
}

// SeedDefaults creates DefaultPipeline for a company that has no stages yet
func (s *PipelineStageService) SeedDefaults(ctx context.Context, tenantID int64) error {
	existing, err := s.stageRepo.ListForTenant(ctx, tenantID, false)
	if err != nil {
		return fmt.Errorf("list stages: %w", err)
	}
	if len(existing) > 0 {
		return nil
	}

	for i, tmpl := range DefaultPipeline {
		stage, err := sales.NewPipelineStage(tenantID, tmpl.Name, i+1, tmpl.Probability, tmpl.Kind)
		if err != nil {
			return err
		}
		if err := s.stageRepo.Create(ctx, stage); err != nil {
			return fmt.Errorf("create stage %q: %w", tmpl.Name, err)
		}
	}
	s.logger.Info("Seeded default pipeline",
		zap.Int64("tenant_id", tenantID),
		zap.Int("stages", len(DefaultPipeline)))
	return nil
}

// CompanyCreatedHandler seeds the default pipeline of new companies
type CompanyCreatedHandler struct {
	stages *PipelineStageService
}

// NewCompanyCreatedHandler creates a new CompanyCreatedHandler
func NewCompanyCreatedHandler(stages *PipelineStageService) *CompanyCreatedHandler {
	return &CompanyCreatedHandler{stages: stages}
}

// EventTypes returns the event types this handler is interested in
func (h *CompanyCreatedHandler) EventTypes() []string {
	return []string{identity.EventTypeCompanyCreated}
}

// Handle seeds the pipeline of the created company
func (h *CompanyCreatedHandler) Handle(ctx context.Context, event shared.DomainEvent) error {
	return h.stages.SeedDefaults(ctx, event.TenantID())
}

var _ shared.EventHandler = (*CompanyCreatedHandler)(nil)
