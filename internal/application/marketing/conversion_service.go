package marketing

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/crm/backend/internal/application/access"
	"github.com/crm/backend/internal/domain/identity"
	"github.com/crm/backend/internal/domain/marketing"
	"github.com/crm/backend/internal/domain/partner"
	"github.com/crm/backend/internal/domain/sales"
	"github.com/crm/backend/internal/domain/shared"
	"github.com/crm/backend/internal/domain/shared/valueobject"
	"github.com/crm/backend/internal/infrastructure/telemetry"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

// AccessGuard is the ownership check applied to caller-supplied ids
type AccessGuard interface {
	Require(ctx context.Context, kind access.Kind, entityID, tenantID int64) error
}

// ConversionConfig holds the defaults applied to converted records
type ConversionConfig struct {
	DefaultCurrency    valueobject.Currency
	DefaultProbability int
}

// DefaultConversionConfig returns USD and a 50% probability
func DefaultConversionConfig() ConversionConfig {
	return ConversionConfig{
		DefaultCurrency:    valueobject.DefaultCurrency,
		DefaultProbability: 50,
	}
}

// ConvertLeadOptions controls what a conversion produces.
// Nil Create flags mean true. An explicit id wins over the matching Create flag.
type ConvertLeadOptions struct {
	CreateCustomer    *bool
	CustomerID        *int64
	CustomerName      string
	CreateOpportunity *bool
	OpportunityID     *int64
}

func (o ConvertLeadOptions) createCustomer() bool {
	return o.CreateCustomer == nil || *o.CreateCustomer
}

func (o ConvertLeadOptions) createOpportunity() bool {
	return o.CreateOpportunity == nil || *o.CreateOpportunity
}

// ConversionResult reports the outcome of a conversion
type ConversionResult struct {
	LeadID             int64
	CustomerID         *int64
	OpportunityID      *int64
	CustomerCreated    bool
	OpportunityCreated bool
	ConvertedAt        time.Time
	ConvertedByUserID  int64
}

// ConversionService turns a lead into a customer and an opportunity in one transaction
type ConversionService struct {
	leadRepo       marketing.LeadRepository
	txScope        TransactionScope
	guard          AccessGuard
	eventPublisher shared.EventPublisher
	metrics        *telemetry.ConversionMetrics
	config         ConversionConfig
	logger         *zap.Logger
	now            func() time.Time
}

// NewConversionService creates a new ConversionService
func NewConversionService(
	leadRepo marketing.LeadRepository,
	txScope TransactionScope,
	guard AccessGuard,
	config ConversionConfig,
	logger *zap.Logger,
) *ConversionService {
	if config.DefaultCurrency == "" {
		config.DefaultCurrency = valueobject.DefaultCurrency
	}
	return &ConversionService{
		leadRepo: leadRepo,
		txScope:  txScope,
		guard:    guard,
		config:   config,
		logger:   logger,
		now:      time.Now,
	}
}

// SetEventPublisher sets the publisher for post-commit events
func (s *ConversionService) SetEventPublisher(publisher shared.EventPublisher) {
	s.eventPublisher = publisher
}

// SetMetrics sets the conversion instruments; nil disables them
func (s *ConversionService) SetMetrics(metrics *telemetry.ConversionMetrics) {
	s.metrics = metrics
}

// ConvertLead converts a lead of the principal's active tenant.
// Every record it writes commits together or not at all; a lead that was
// converted concurrently fails with ErrLeadAlreadyConverted, one edited
// concurrently with ErrConcurrencyConflict.
func (s *ConversionService) ConvertLead(ctx context.Context, principal *identity.Principal, leadID int64, opts ConvertLeadOptions) (result *ConversionResult, err error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "lead_conversion", "convert",
		attribute.Int64(telemetry.SpanAttrLeadID, leadID))
	defer span.End()

	start := s.now()
	var tenantID int64
	defer func() {
		s.recordOutcome(ctx, tenantID, err, s.now().Sub(start))
		telemetry.RecordError(span, err)
	}()

	tenantID, err = activeTenant(principal)
	if err != nil {
		return nil, err
	}
	span.SetAttributes(attribute.Int64(telemetry.SpanAttrTenantID, tenantID))

	lead, err := s.leadRepo.FindByIDForTenant(ctx, tenantID, leadID)
	if err != nil {
		return nil, err
	}
	if lead.IsConverted() {
		return nil, marketing.ErrLeadAlreadyConverted
	}

	if opts.CustomerID != nil {
		if err := s.guard.Require(ctx, access.KindCustomer, *opts.CustomerID, tenantID); err != nil {
			return nil, err
		}
	}
	if opts.OpportunityID != nil {
		if err := s.guard.Require(ctx, access.KindOpportunity, *opts.OpportunityID, tenantID); err != nil {
			return nil, err
		}
	}

	var (
		customer    *partner.Customer
		opportunity *sales.Opportunity
		convertedAt = s.now()
	)
	err = s.txScope.Execute(ctx, func(repos TransactionalRepositories) error {
		customerID := opts.CustomerID
		if customerID == nil && opts.createCustomer() {
			c, err := s.buildCustomer(lead, principal.UserID(), opts.CustomerName)
			if err != nil {
				return err
			}
			if err := repos.CustomerRepo().Create(ctx, c); err != nil {
				return fmt.Errorf("create customer: %w", err)
			}
			customer = c
			customerID = &c.ID
		}

		opportunityID := opts.OpportunityID
		if opportunityID == nil && opts.createOpportunity() {
			o, err := s.buildOpportunity(ctx, repos.StageRepo(), lead, principal.UserID(), customerID)
			if err != nil {
				return err
			}
			if err := repos.OpportunityRepo().Create(ctx, o); err != nil {
				return fmt.Errorf("create opportunity: %w", err)
			}
			opportunity = o
			opportunityID = &o.ID
		}

		if err := lead.Convert(customerID, opportunityID, principal.UserID(), convertedAt); err != nil {
			return err
		}
		return repos.LeadRepo().MarkConverted(ctx, lead)
	})
	if err != nil {
		s.logger.Info("Lead conversion rolled back",
			zap.Int64("tenant_id", tenantID),
			zap.Int64("lead_id", leadID),
			zap.Error(err))
		return nil, err
	}

	result = &ConversionResult{
		LeadID:             lead.ID,
		CustomerID:         lead.ConvertedToCustomerID,
		OpportunityID:      lead.ConvertedToOpportunityID,
		CustomerCreated:    customer != nil,
		OpportunityCreated: opportunity != nil,
		ConvertedAt:        convertedAt,
		ConvertedByUserID:  principal.UserID(),
	}
	telemetry.SetInt64(span, telemetry.SpanAttrCustomerID, result.CustomerID)
	telemetry.SetInt64(span, telemetry.SpanAttrOpportunityID, result.OpportunityID)

	s.publishAfterCommit(ctx, lead, customer, opportunity)

	s.logger.Info("Lead converted",
		zap.Int64("tenant_id", tenantID),
		zap.Int64("lead_id", lead.ID),
		zap.Int64("user_id", principal.UserID()),
		zap.Bool("customer_created", result.CustomerCreated),
		zap.Bool("opportunity_created", result.OpportunityCreated))
	return result, nil
}

func (s *ConversionService) buildCustomer(lead *marketing.Lead, userID int64, nameOverride string) (*partner.Customer, error) {
	name := strings.TrimSpace(nameOverride)
	if name == "" {
		name = lead.DisplayName()
	}
	customer, err := partner.NewCustomer(lead.TenantID, name)
	if err != nil {
		return nil, err
	}
	customer.SetCreatedBy(userID)

	phone := lead.Phone
	if phone == "" {
		phone = lead.Mobile
	}
	if err := customer.SetContact(lead.Email, phone); err != nil {
		return nil, err
	}
	customer.SetAddress(lead.Address, lead.City, lead.Country)
	customer.MarkConvertedFrom(lead.ID)
	return customer, nil
}

func (s *ConversionService) buildOpportunity(
	ctx context.Context,
	stages sales.PipelineStageRepository,
	lead *marketing.Lead,
	userID int64,
	customerID *int64,
) (*sales.Opportunity, error) {
	stage, err := stages.FindDefault(ctx, lead.TenantID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, marketing.ErrNoPipelineStages
		}
		return nil, fmt.Errorf("load default stage: %w", err)
	}

	currency, err := valueobject.ParseCurrency(lead.Currency, s.config.DefaultCurrency)
	if err != nil {
		return nil, shared.NewDomainError("INVALID_CURRENCY", err.Error())
	}
	amount, err := sales.AmountFrom(lead.EstimatedValue, currency)
	if err != nil {
		return nil, err
	}

	name := strings.TrimSpace(fmt.Sprintf("Opportunity for %s %s", lead.FirstName, lead.LastName))
	opportunity, err := sales.NewOpportunity(lead.TenantID, userID, name, stage, amount, s.config.DefaultProbability)
	if err != nil {
		return nil, err
	}
	opportunity.Description = "Converted from lead: " + lead.CompanyName
	opportunity.SourceID = lead.SourceID

	assignee := lead.AssignedUserID
	if assignee == nil {
		assignee = &userID
	}
	opportunity.AssignTo(assignee)
	if customerID != nil {
		opportunity.LinkCustomer(*customerID)
	}
	opportunity.MarkConvertedFrom(lead.ID)
	return opportunity, nil
}

// publishAfterCommit emits the conversion events. Handler failures are logged
// by the bus and never undo the committed conversion.
func (s *ConversionService) publishAfterCommit(ctx context.Context, lead *marketing.Lead, customer *partner.Customer, opportunity *sales.Opportunity) {
	events := lead.GetDomainEvents()
	if customer != nil {
		customer.RecordCreated()
		events = append(events, customer.GetDomainEvents()...)
	}
	if opportunity != nil {
		opportunity.RecordCreated()
		events = append(events, opportunity.GetDomainEvents()...)
	}

	if s.eventPublisher != nil && len(events) > 0 {
		if err := s.eventPublisher.Publish(ctx, events...); err != nil {
			s.logger.Warn("Failed to publish conversion events",
				zap.Int64("lead_id", lead.ID),
				zap.Error(err))
		}
	}
	lead.ClearDomainEvents()
	if customer != nil {
		customer.ClearDomainEvents()
	}
	if opportunity != nil {
		opportunity.ClearDomainEvents()
	}
}

func (s *ConversionService) recordOutcome(ctx context.Context, tenantID int64, err error, elapsed time.Duration) {
	switch {
	case err == nil:
		s.metrics.RecordConversion(ctx, tenantID, telemetry.OutcomeConverted, "", elapsed)
	case shared.CodeOf(err) != "":
		s.metrics.RecordConversion(ctx, tenantID, telemetry.OutcomeRejected, shared.CodeOf(err), elapsed)
	default:
		s.metrics.RecordConversion(ctx, tenantID, telemetry.OutcomeFailed, "INTERNAL_ERROR", elapsed)
	}
}
