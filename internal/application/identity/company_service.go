package identity

import (
	"context"
	"errors"
	"sort"

	"github.com/crm/backend/internal/domain/identity"
	"github.com/crm/backend/internal/domain/shared"
	"go.uber.org/zap"
)

// CompanyService manages companies and the memberships linking users to them
type CompanyService struct {
	userRepo       identity.UserRepository
	companyRepo    identity.CompanyRepository
	membershipRepo identity.MembershipRepository
	eventPublisher shared.EventPublisher
	logger         *zap.Logger
}

// NewCompanyService creates a new company service
func NewCompanyService(
	userRepo identity.UserRepository,
	companyRepo identity.CompanyRepository,
	membershipRepo identity.MembershipRepository,
	eventPublisher shared.EventPublisher,
	logger *zap.Logger,
) *CompanyService {
	return &CompanyService{
		userRepo:       userRepo,
		companyRepo:    companyRepo,
		membershipRepo: membershipRepo,
		eventPublisher: eventPublisher,
		logger:         logger,
	}
}

// CreateCompany creates a company owned by userID. The owner becomes an
// active member, and the company becomes active if the user had none.
func (s *CompanyService) CreateCompany(ctx context.Context, userID int64, input CreateCompanyInput) (*CompanyInfo, error) {
	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	company, err := identity.NewCompany(input.Name, user.ID)
	if err != nil {
		return nil, err
	}
	if err := company.UpdateProfile(input.Name, input.Description, input.Industry, input.Website, input.Email, input.Phone); err != nil {
		return nil, err
	}
	if err := s.companyRepo.Create(ctx, company); err != nil {
		s.logger.Error("Failed to create company", zap.Error(err))
		return nil, err
	}
	company.AddDomainEvent(identity.NewCompanyCreatedEvent(company))

	if err := s.membershipRepo.Save(ctx, identity.NewMembership(user.ID, company.ID, identity.MembershipRoleOwner)); err != nil {
		s.logger.Error("Failed to create owner membership", zap.Error(err))
		return nil, err
	}

	hasActive, err := activeCompanyOf(ctx, s.membershipRepo, user)
	if err != nil {
		return nil, err
	}
	if hasActive == nil {
		if err := user.SwitchCompany(company.ID); err != nil {
			return nil, err
		}
		if err := s.userRepo.Update(ctx, user); err != nil {
			return nil, err
		}
	}

	s.publish(ctx, company.GetDomainEvents()...)
	s.publish(ctx, user.GetDomainEvents()...)

	s.logger.Info("Company created",
		zap.Int64("company_id", company.ID),
		zap.Int64("owner_id", user.ID))
	info := toCompanyInfo(company)
	return &info, nil
}

// SwitchActiveCompany makes companyID the user's active company.
// The user must hold an active membership in it.
func (s *CompanyService) SwitchActiveCompany(ctx context.Context, userID, companyID int64) error {
	membership, err := s.membershipRepo.Find(ctx, userID, companyID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return identity.ErrNotMember
		}
		return err
	}
	if !membership.IsActive {
		return identity.ErrNotMember
	}

	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		return err
	}
	if err := user.SwitchCompany(companyID); err != nil {
		return err
	}
	if len(user.GetDomainEvents()) == 0 {
		return nil
	}
	if err := s.userRepo.Update(ctx, user); err != nil {
		return err
	}
	s.publish(ctx, user.GetDomainEvents()...)

	s.logger.Info("Active company switched",
		zap.Int64("user_id", userID),
		zap.Int64("company_id", companyID))
	return nil
}

// ListMemberships returns the user's memberships, active first, then by company name
func (s *CompanyService) ListMemberships(ctx context.Context, userID int64) ([]MembershipInfo, error) {
	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	memberships, err := s.membershipRepo.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if len(memberships) == 0 {
		return []MembershipInfo{}, nil
	}

	ids := make([]int64, 0, len(memberships))
	for _, m := range memberships {
		ids = append(ids, m.CompanyID)
	}
	companies, err := s.companyRepo.FindByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	names := make(map[int64]string, len(companies))
	for _, c := range companies {
		names[c.ID] = c.Name
	}

	result := make([]MembershipInfo, 0, len(memberships))
	for _, m := range memberships {
		result = append(result, MembershipInfo{
			CompanyID:   m.CompanyID,
			CompanyName: names[m.CompanyID],
			Role:        m.Role,
			IsActive:    m.IsActive,
			IsCurrent:   m.IsActive && user.HasActiveCompany() && *user.ActiveCompanyID == m.CompanyID,
			JoinedAt:    m.JoinedAt,
		})
	}
	sort.SliceStable(result, func(i, j int) bool {
		if result[i].IsActive != result[j].IsActive {
			return result[i].IsActive
		}
		return result[i].CompanyName < result[j].CompanyName
	})
	return result, nil
}

// AddMember grants userID an active membership in companyID
func (s *CompanyService) AddMember(ctx context.Context, companyID, userID int64) error {
	if _, err := s.companyRepo.FindByID(ctx, companyID); err != nil {
		return err
	}
	if _, err := s.userRepo.FindByID(ctx, userID); err != nil {
		return err
	}

	existing, err := s.membershipRepo.Find(ctx, userID, companyID)
	switch {
	case err == nil:
		if existing.IsActive {
			return nil
		}
		existing.Reactivate()
		return s.membershipRepo.Save(ctx, existing)
	case errors.Is(err, shared.ErrNotFound):
		return s.membershipRepo.Save(ctx, identity.NewMembership(userID, companyID, identity.MembershipRoleMember))
	default:
		return err
	}
}

// RemoveMember ends the membership. A user whose active company it was
// loses the active company.
func (s *CompanyService) RemoveMember(ctx context.Context, companyID, userID int64) error {
	membership, err := s.membershipRepo.Find(ctx, userID, companyID)
	if err != nil {
		return err
	}
	if !membership.IsActive {
		return nil
	}
	membership.Deactivate()
	if err := s.membershipRepo.Save(ctx, membership); err != nil {
		return err
	}

	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		return err
	}
	if user.HasActiveCompany() && *user.ActiveCompanyID == companyID {
		user.ClearActiveCompany()
		if err := s.userRepo.Update(ctx, user); err != nil {
			return err
		}
		s.publish(ctx, user.GetDomainEvents()...)
	}

	s.logger.Info("Member removed",
		zap.Int64("company_id", companyID),
		zap.Int64("user_id", userID))
	return nil
}

// GetCompany returns a company the caller belongs to
func (s *CompanyService) GetCompany(ctx context.Context, userID, companyID int64) (*CompanyInfo, error) {
	membership, err := s.membershipRepo.Find(ctx, userID, companyID)
	if err != nil || !membership.IsActive {
		return nil, identity.ErrNotMember
	}
	company, err := s.companyRepo.FindByID(ctx, companyID)
	if err != nil {
		return nil, err
	}
	info := toCompanyInfo(company)
	return &info, nil
}

func (s *CompanyService) publish(ctx context.Context, events ...shared.DomainEvent) {
	if s.eventPublisher == nil || len(events) == 0 {
		return
	}
	if err := s.eventPublisher.Publish(ctx, events...); err != nil {
		s.logger.Warn("Failed to publish identity events", zap.Error(err))
	}
}
