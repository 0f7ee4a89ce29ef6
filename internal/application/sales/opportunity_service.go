package sales

import (
	"context"
	"errors"
	"fmt"

	"github.com/crm/backend/internal/application/access"
	"github.com/crm/backend/internal/application/validation"
	"github.com/crm/backend/internal/domain/identity"
	"github.com/crm/backend/internal/domain/sales"
	"github.com/crm/backend/internal/domain/shared"
	"github.com/crm/backend/internal/domain/shared/valueobject"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// AccessGuard is the ownership check applied to caller-supplied ids
type AccessGuard interface {
	Require(ctx context.Context, kind access.Kind, entityID, tenantID int64) error
}

// ErrNoDefaultStage is returned when an opportunity is created without a
// stage and the company has no active stage
var ErrNoDefaultStage = shared.NewDomainError("NO_PIPELINE_STAGES", "No active pipeline stage is configured for this company")

// OpportunityService handles the opportunity lifecycle
type OpportunityService struct {
	opportunityRepo sales.OpportunityRepository
	stageRepo       sales.PipelineStageRepository
	guard           AccessGuard
	eventPublisher  shared.EventPublisher
	defaultCurrency valueobject.Currency
	logger          *zap.Logger
}

// NewOpportunityService creates a new OpportunityService
func NewOpportunityService(
	opportunityRepo sales.OpportunityRepository,
	stageRepo sales.PipelineStageRepository,
	guard AccessGuard,
	defaultCurrency valueobject.Currency,
	logger *zap.Logger,
) *OpportunityService {
	if defaultCurrency == "" {
		defaultCurrency = valueobject.DefaultCurrency
	}
	return &OpportunityService{
		opportunityRepo: opportunityRepo,
		stageRepo:       stageRepo,
		guard:           guard,
		defaultCurrency: defaultCurrency,
		logger:          logger,
	}
}

// SetEventPublisher sets the event publisher for opportunity events
func (s *OpportunityService) SetEventPublisher(publisher shared.EventPublisher) {
	s.eventPublisher = publisher
}

// Create opens a new opportunity in the active company
func (s *OpportunityService) Create(ctx context.Context, principal *identity.Principal, req CreateOpportunityRequest) (*OpportunityResponse, error) {
	tenantID, err := activeTenant(principal)
	if err != nil {
		return nil, err
	}
	if err := validation.Validate(validation.KindOpportunity, req); err != nil {
		return nil, err
	}

	stage, err := s.resolveStage(ctx, tenantID, req.PipelineStageID)
	if err != nil {
		return nil, err
	}
	if req.CustomerID != nil {
		if err := s.guard.Require(ctx, access.KindCustomer, *req.CustomerID, tenantID); err != nil {
			return nil, err
		}
	}

	amount, err := s.amount(req.Amount, req.Currency)
	if err != nil {
		return nil, err
	}
	probability := stage.DefaultProbability
	if req.Probability != nil {
		probability = *req.Probability
	}

	opportunity, err := sales.NewOpportunity(tenantID, principal.UserID(), req.Name, stage, amount, probability)
	if err != nil {
		return nil, err
	}
	opportunity.Description = req.Description
	opportunity.ExpectedCloseDate = req.ExpectedCloseDate
	if req.CustomerID != nil {
		opportunity.LinkCustomer(*req.CustomerID)
	}
	assignee := req.AssignedUserID
	if assignee == nil {
		userID := principal.UserID()
		assignee = &userID
	}
	opportunity.AssignTo(assignee)

	if err := s.opportunityRepo.Create(ctx, opportunity); err != nil {
		return nil, err
	}
	opportunity.RecordCreated()
	s.publish(ctx, opportunity)

	s.logger.Info("Opportunity created",
		zap.Int64("tenant_id", tenantID),
		zap.Int64("opportunity_id", opportunity.ID),
		zap.Int64("stage_id", stage.ID))

	response := ToOpportunityResponse(opportunity)
	return &response, nil
}

// Get returns an opportunity of the active company
func (s *OpportunityService) Get(ctx context.Context, principal *identity.Principal, opportunityID int64) (*OpportunityResponse, error) {
	opportunity, err := s.load(ctx, principal, opportunityID)
	if err != nil {
		return nil, err
	}
	response := ToOpportunityResponse(opportunity)
	return &response, nil
}

// List returns a page of the active company's opportunities
func (s *OpportunityService) List(ctx context.Context, principal *identity.Principal, filter OpportunityListFilter) (*shared.Paginated[OpportunityResponse], error) {
	tenantID, err := activeTenant(principal)
	if err != nil {
		return nil, err
	}

	domainFilter := sales.OpportunityFilter{
		Filter: shared.Filter{
			Page:     filter.Page,
			PageSize: filter.PageSize,
			OrderBy:  filter.OrderBy,
			OrderDir: filter.OrderDir,
			Search:   filter.Search,
		},
		Status:          sales.OpportunityStatus(filter.Status),
		PipelineStageID: filter.PipelineStageID,
		CustomerID:      filter.CustomerID,
		AssignedUserID:  filter.AssignedUserID,
	}
	if domainFilter.Page <= 0 {
		domainFilter.Page = 1
	}

	opportunities, total, err := s.opportunityRepo.FindAllForTenant(ctx, tenantID, domainFilter)
	if err != nil {
		return nil, err
	}
	page := shared.NewPaginated(ToOpportunityResponses(opportunities), total, domainFilter.Page, domainFilter.Limit())
	return &page, nil
}

// Update changes the descriptive fields of an open opportunity
func (s *OpportunityService) Update(ctx context.Context, principal *identity.Principal, opportunityID int64, req UpdateOpportunityRequest) (*OpportunityResponse, error) {
	if err := validation.Validate(validation.KindOpportunity, req); err != nil {
		return nil, err
	}
	opportunity, err := s.load(ctx, principal, opportunityID)
	if err != nil {
		return nil, err
	}
	if req.Version != nil && *req.Version != opportunity.Version {
		return nil, shared.ErrConcurrencyConflict
	}

	currency := req.Currency
	if currency == "" {
		currency = string(opportunity.Amount.Currency())
	}
	amount, err := s.amount(req.Amount, currency)
	if err != nil {
		return nil, err
	}
	if err := opportunity.Update(req.Name, req.Description, amount, req.Probability, req.ExpectedCloseDate); err != nil {
		return nil, err
	}
	return s.save(ctx, opportunity)
}

// Assign sets or clears the responsible user
func (s *OpportunityService) Assign(ctx context.Context, principal *identity.Principal, opportunityID int64, userID *int64) (*OpportunityResponse, error) {
	opportunity, err := s.load(ctx, principal, opportunityID)
	if err != nil {
		return nil, err
	}
	if opportunity.Status.IsClosed() {
		return nil, sales.ErrOpportunityClosed
	}
	opportunity.AssignTo(userID)
	return s.save(ctx, opportunity)
}

// MoveToStage moves an open opportunity to another stage of the same company
func (s *OpportunityService) MoveToStage(ctx context.Context, principal *identity.Principal, opportunityID, stageID int64) (*OpportunityResponse, error) {
	opportunity, err := s.load(ctx, principal, opportunityID)
	if err != nil {
		return nil, err
	}
	stage, err := s.stageRepo.FindByIDForTenant(ctx, opportunity.TenantID, stageID)
	if err != nil {
		return nil, err
	}
	if err := opportunity.MoveToStage(stage); err != nil {
		return nil, err
	}
	return s.save(ctx, opportunity)
}

// MarkWon closes the opportunity as won
func (s *OpportunityService) MarkWon(ctx context.Context, principal *identity.Principal, opportunityID int64) (*OpportunityResponse, error) {
	opportunity, err := s.load(ctx, principal, opportunityID)
	if err != nil {
		return nil, err
	}
	if err := opportunity.MarkWon(); err != nil {
		return nil, err
	}
	return s.save(ctx, opportunity)
}

// MarkLost closes the opportunity as lost with an optional reason
func (s *OpportunityService) MarkLost(ctx context.Context, principal *identity.Principal, opportunityID int64, reason string) (*OpportunityResponse, error) {
	opportunity, err := s.load(ctx, principal, opportunityID)
	if err != nil {
		return nil, err
	}
	if err := opportunity.MarkLost(reason); err != nil {
		return nil, err
	}
	return s.save(ctx, opportunity)
}

func (s *OpportunityService) resolveStage(ctx context.Context, tenantID int64, stageID *int64) (*sales.PipelineStage, error) {
	if stageID != nil {
		return s.stageRepo.FindByIDForTenant(ctx, tenantID, *stageID)
	}
	stage, err := s.stageRepo.FindDefault(ctx, tenantID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, ErrNoDefaultStage
		}
		return nil, fmt.Errorf("load default stage: %w", err)
	}
	return stage, nil
}

func (s *OpportunityService) amount(value *decimal.Decimal, currencyCode string) (valueobject.Money, error) {
	currency, err := valueobject.ParseCurrency(currencyCode, s.defaultCurrency)
	if err != nil {
		return valueobject.Money{}, shared.NewDomainError("INVALID_CURRENCY", err.Error())
	}
	return sales.AmountFrom(value, currency)
}

func (s *OpportunityService) load(ctx context.Context, principal *identity.Principal, opportunityID int64) (*sales.Opportunity, error) {
	tenantID, err := activeTenant(principal)
	if err != nil {
		return nil, err
	}
	if err := s.guard.Require(ctx, access.KindOpportunity, opportunityID, tenantID); err != nil {
		return nil, err
	}
	return s.opportunityRepo.FindByIDForTenant(ctx, tenantID, opportunityID)
}

func (s *OpportunityService) save(ctx context.Context, opportunity *sales.Opportunity) (*OpportunityResponse, error) {
	if err := s.opportunityRepo.SaveWithLock(ctx, opportunity); err != nil {
		return nil, err
	}
	s.publish(ctx, opportunity)
	response := ToOpportunityResponse(opportunity)
	return &response, nil
}

func (s *OpportunityService) publish(ctx context.Context, opportunity *sales.Opportunity) {
	events := opportunity.GetDomainEvents()
	if s.eventPublisher != nil && len(events) > 0 {
		if err := s.eventPublisher.Publish(ctx, events...); err != nil {
			s.logger.Warn("Failed to publish opportunity events",
				zap.Int64("opportunity_id", opportunity.ID),
				zap.Error(err))
		}
	}
	opportunity.ClearDomainEvents()
}

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
