package marketing

import (
	"context"

	"github.com/crm/backend/internal/application/validation"
	"github.com/crm/backend/internal/domain/identity"
	"github.com/crm/backend/internal/domain/marketing"
	"go.uber.org/zap"
)

// LeadSourceService manages the lead sources of a company
type LeadSourceService struct {
	sourceRepo marketing.LeadSourceRepository
	logger     *zap.Logger
}

// NewLeadSourceService creates a new LeadSourceService
func NewLeadSourceService(sourceRepo marketing.LeadSourceRepository, logger *zap.Logger) *LeadSourceService {
	return &LeadSourceService{sourceRepo: sourceRepo, logger: logger}
}

// Create adds a lead source to the active company
func (s *LeadSourceService) Create(ctx context.Context, principal *identity.Principal, input LeadSourceInput) (*LeadSourceResponse, error) {
	tenantID, err := activeTenant(principal)
	if err != nil {
		return nil, err
	}
	if err := validation.Validate(validation.KindLeadSource, input); err != nil {
		return nil, err
	}

	source, err := marketing.NewLeadSource(tenantID, input.Name, input.Description)
	if err != nil {
		return nil, err
	}
	source.SetCreatedBy(principal.UserID())
	if err := s.sourceRepo.Create(ctx, source); err != nil {
		return nil, err
	}

	s.logger.Info("Lead source created",
		zap.Int64("tenant_id", tenantID),
		zap.Int64("source_id", source.ID))
	response := ToLeadSourceResponse(source)
	return &response, nil
}

// List returns the active company's lead sources
func (s *LeadSourceService) List(ctx context.Context, principal *identity.Principal, activeOnly bool) ([]LeadSourceResponse, error) {
	tenantID, err := activeTenant(principal)
	if err != nil {
		return nil, err
	}
	sources, err := s.sourceRepo.ListForTenant(ctx, tenantID, activeOnly)
	if err != nil {
		return nil, err
	}
	out := make([]LeadSourceResponse, len(sources))
	for i := range sources {
		out[i] = ToLeadSourceResponse(&sources[i])
	}
	return out, nil
}

// Deactivate hides a source from new leads; existing leads keep it
func (s *LeadSourceService) Deactivate(ctx context.Context, principal *identity.Principal, sourceID int64) (*LeadSourceResponse, error) {
	tenantID, err := activeTenant(principal)
	if err != nil {
		return nil, err
	}
	source, err := s.sourceRepo.FindByIDForTenant(ctx, tenantID, sourceID)
	if err != nil {
		return nil, err
	}
	if err := source.Deactivate(); err != nil {
		return nil, err
	}
	if err := s.sourceRepo.Save(ctx, source); err != nil {
		return nil, err
	}
	response := ToLeadSourceResponse(source)
	return &response, nil
}
