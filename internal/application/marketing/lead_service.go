package marketing

import (
	"context"
	"strings"

	"github.com/crm/backend/internal/application/access"
	"github.com/crm/backend/internal/application/validation"
	"github.com/crm/backend/internal/domain/identity"
	"github.com/crm/backend/internal/domain/marketing"
	"github.com/crm/backend/internal/domain/shared"
	"github.com/crm/backend/internal/infrastructure/telemetry"
	"go.uber.org/zap"
)

// LeadService handles lead capture and maintenance
type LeadService struct {
	leadRepo       marketing.LeadRepository
	guard          AccessGuard
	eventPublisher shared.EventPublisher
	metrics        *telemetry.ConversionMetrics
	logger         *zap.Logger
}

// NewLeadService creates a new LeadService
func NewLeadService(leadRepo marketing.LeadRepository, guard AccessGuard, logger *zap.Logger) *LeadService {
	return &LeadService{
		leadRepo: leadRepo,
		guard:    guard,
		logger:   logger,
	}
}

// SetEventPublisher sets the event publisher for lead events
func (s *LeadService) SetEventPublisher(publisher shared.EventPublisher) {
	s.eventPublisher = publisher
}

// SetMetrics sets the lead counters; nil disables them
func (s *LeadService) SetMetrics(metrics *telemetry.ConversionMetrics) {
	s.metrics = metrics
}

// Create captures a new lead in the principal's active company
func (s *LeadService) Create(ctx context.Context, principal *identity.Principal, input CreateLeadInput) (*LeadResponse, error) {
	tenantID, err := activeTenant(principal)
	if err != nil {
		return nil, err
	}
	if err := validation.Validate(validation.KindLead, input); err != nil {
		return nil, err
	}
	if err := s.checkSource(ctx, tenantID, input.SourceID); err != nil {
		return nil, err
	}

	lead, err := marketing.NewLead(tenantID, principal.UserID(), input.profile())
	if err != nil {
		return nil, err
	}
	if input.AssignedUserID != nil {
		if err := lead.Assign(input.AssignedUserID); err != nil {
			return nil, err
		}
	}

	if err := s.leadRepo.Create(ctx, lead); err != nil {
		return nil, err
	}
	lead.RecordCreated()
	s.publish(ctx, lead)
	s.metrics.RecordLeadCreated(ctx, tenantID)

	s.logger.Info("Lead created",
		zap.Int64("tenant_id", tenantID),
		zap.Int64("lead_id", lead.ID),
		zap.Int("score", lead.Score))

	response := ToLeadResponse(lead)
	return &response, nil
}

// Get returns a lead of the active company
func (s *LeadService) Get(ctx context.Context, principal *identity.Principal, leadID int64) (*LeadResponse, error) {
	lead, err := s.load(ctx, principal, leadID)
	if err != nil {
		return nil, err
	}
	response := ToLeadResponse(lead)
	return &response, nil
}

// List returns a page of the active company's leads
func (s *LeadService) List(ctx context.Context, principal *identity.Principal, filter LeadListFilter) (*shared.Paginated[LeadResponse], error) {
	tenantID, err := activeTenant(principal)
	if err != nil {
		return nil, err
	}

	domainFilter := marketing.LeadFilter{
		Filter: shared.Filter{
			Page:     filter.Page,
			PageSize: filter.PageSize,
			OrderBy:  filter.OrderBy,
			OrderDir: filter.OrderDir,
			Search:   strings.TrimSpace(filter.Search),
		},
		Status:         marketing.LeadStatus(filter.Status),
		Rating:         marketing.LeadRating(filter.Rating),
		AssignedUserID: filter.AssignedUserID,
		SourceID:       filter.SourceID,
	}
	if domainFilter.Page <= 0 {
		domainFilter.Page = 1
	}
	if domainFilter.Status != "" && !domainFilter.Status.IsValid() {
		return nil, marketing.ErrInvalidLeadStatus
	}

	leads, total, err := s.leadRepo.FindAllForTenant(ctx, tenantID, domainFilter)
	if err != nil {
		return nil, err
	}
	page := shared.NewPaginated(ToLeadResponses(leads), total, domainFilter.Page, domainFilter.Limit())
	return &page, nil
}

// Update replaces the profile of a lead that is not yet converted
func (s *LeadService) Update(ctx context.Context, principal *identity.Principal, leadID int64, input UpdateLeadInput) (*LeadResponse, error) {
	if err := validation.Validate(validation.KindLead, input); err != nil {
		return nil, err
	}
	lead, err := s.load(ctx, principal, leadID)
	if err != nil {
		return nil, err
	}
	if input.Version != nil && *input.Version != lead.Version {
		return nil, shared.ErrConcurrencyConflict
	}
	if err := s.checkSource(ctx, lead.TenantID, input.SourceID); err != nil {
		return nil, err
	}
	if err := lead.UpdateProfile(input.profile()); err != nil {
		return nil, err
	}
	return s.save(ctx, lead)
}

// Assign sets or clears the responsible user of a lead
func (s *LeadService) Assign(ctx context.Context, principal *identity.Principal, leadID int64, userID *int64) (*LeadResponse, error) {
	lead, err := s.load(ctx, principal, leadID)
	if err != nil {
		return nil, err
	}
	if err := lead.Assign(userID); err != nil {
		return nil, err
	}
	return s.save(ctx, lead)
}

// ChangeStatus moves a lead through the manual statuses
func (s *LeadService) ChangeStatus(ctx context.Context, principal *identity.Principal, leadID int64, status string) (*LeadResponse, error) {
	lead, err := s.load(ctx, principal, leadID)
	if err != nil {
		return nil, err
	}
	if err := lead.ChangeStatus(marketing.LeadStatus(strings.ToLower(strings.TrimSpace(status)))); err != nil {
		return nil, err
	}
	return s.save(ctx, lead)
}

// RecalculateScore recomputes a lead's score, saving only when it changed
func (s *LeadService) RecalculateScore(ctx context.Context, principal *identity.Principal, leadID int64) (*LeadResponse, error) {
	lead, err := s.load(ctx, principal, leadID)
	if err != nil {
		return nil, err
	}
	changed, err := lead.RecalculateScore()
	if err != nil {
		return nil, err
	}
	if !changed {
		response := ToLeadResponse(lead)
		return &response, nil
	}
	return s.save(ctx, lead)
}

// Delete removes a lead that was never converted
func (s *LeadService) Delete(ctx context.Context, principal *identity.Principal, leadID int64) error {
	lead, err := s.load(ctx, principal, leadID)
	if err != nil {
		return err
	}
	if err := lead.EnsureDeletable(); err != nil {
		return err
	}
	if err := s.leadRepo.DeleteForTenant(ctx, lead.TenantID, lead.ID); err != nil {
		return err
	}
	s.logger.Info("Lead deleted",
		zap.Int64("tenant_id", lead.TenantID),
		zap.Int64("lead_id", lead.ID))
	return nil
}

func (s *LeadService) load(ctx context.Context, principal *identity.Principal, leadID int64) (*marketing.Lead, error) {
	tenantID, err := activeTenant(principal)
	if err != nil {
		return nil, err
	}
	return s.leadRepo.FindByIDForTenant(ctx, tenantID, leadID)
}

func (s *LeadService) save(ctx context.Context, lead *marketing.Lead) (*LeadResponse, error) {
	if err := s.leadRepo.SaveWithLock(ctx, lead); err != nil {
		return nil, err
	}
	s.publish(ctx, lead)
	response := ToLeadResponse(lead)
	return &response, nil
}

// checkSource rejects a source id owned by another company
func (s *LeadService) checkSource(ctx context.Context, tenantID int64, sourceID *int64) error {
	if sourceID == nil {
		return nil
	}
	return s.guard.Require(ctx, access.KindLeadSource, *sourceID, tenantID)
}

func (s *LeadService) publish(ctx context.Context, lead *marketing.Lead) {
	events := lead.GetDomainEvents()
	if s.eventPublisher != nil && len(events) > 0 {
		if err := s.eventPublisher.Publish(ctx, events...); err != nil {
			s.logger.Warn("Failed to publish lead events",
				zap.Int64("lead_id", lead.ID),
				zap.Error(err))
		}
	}
	lead.ClearDomainEvents()
}

// activeTenant returns the principal's active company
func activeTenant(principal *identity.Principal) (int64, error) {
	if principal == nil {
		return 0, identity.ErrUnauthenticated
	}
	tenantID, ok := principal.TenantID()
	if !ok {
		return 0, identity.ErrNoActiveTenant
	}
	return tenantID, nil
}
