package identity

import (
	"context"

	"github.com/crm/backend/internal/domain/identity"
	"github.com/crm/backend/internal/domain/shared"
	"github.com/stretchr/testify/mock"
)

// MockUserRepository is a mock implementation of identity.UserRepository
type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) Create(ctx context.Context, user *identity.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *MockUserRepository) Update(ctx context.Context, user *identity.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *MockUserRepository) FindByID(ctx context.Context, id int64) (*identity.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*identity.User), args.Error(1)
}

func (m *MockUserRepository) FindByLogin(ctx context.Context, login string) (*identity.User, error) {
	args := m.Called(ctx, login)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*identity.User), args.Error(1)
}

func (m *MockUserRepository) ExistsByUsername(ctx context.Context, username string) (bool, error) {
	args := m.Called(ctx, username)
	return args.Bool(0), args.Error(1)
}

func (m *MockUserRepository) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	args := m.Called(ctx, email)
	return args.Bool(0), args.Error(1)
}

// MockMembershipRepository is a mock implementation of identity.MembershipRepository
type MockMembershipRepository struct {
	mock.Mock
}

func (m *MockMembershipRepository) Save(ctx context.Context, membership *identity.Membership) error {
	args := m.Called(ctx, membership)
	return args.Error(0)
}

func (m *MockMembershipRepository) Find(ctx context.Context, userID, companyID int64) (*identity.Membership, error) {
	args := m.Called(ctx, userID, companyID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*identity.Membership), args.Error(1)
}

func (m *MockMembershipRepository) ListByUser(ctx context.Context, userID int64) ([]*identity.Membership, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).([]*identity.Membership), args.Error(1)
}

func (m *MockMembershipRepository) ListByCompany(ctx context.Context, companyID int64) ([]*identity.Membership, error) {
	args := m.Called(ctx, companyID)
	return args.Get(0).([]*identity.Membership), args.Error(1)
}

// MockCompanyRepository is a mock implementation of identity.CompanyRepository
type MockCompanyRepository struct {
	mock.Mock
}

func (m *MockCompanyRepository) Create(ctx context.Context, company *identity.Company) error {
	args := m.Called(ctx, company)
	return args.Error(0)
}

func (m *MockCompanyRepository) Update(ctx context.Context, company *identity.Company) error {
	args := m.Called(ctx, company)
	return args.Error(0)
}

func (m *MockCompanyRepository) FindByID(ctx context.Context, id int64) (*identity.Company, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*identity.Company), args.Error(1)
}

func (m *MockCompanyRepository) FindByIDs(ctx context.Context, ids []int64) ([]*identity.Company, error) {
	args := m.Called(ctx, ids)
	return args.Get(0).([]*identity.Company), args.Error(1)
}

// MockAgentKeyRepository is a mock implementation of identity.AgentKeyRepository
type MockAgentKeyRepository struct {
	mock.Mock
}

func (m *MockAgentKeyRepository) Create(ctx context.Context, key *identity.AgentAPIKey) error {
	args := m.Called(ctx, key)
	return args.Error(0)
}

func (m *MockAgentKeyRepository) Update(ctx context.Context, key *identity.AgentAPIKey) error {
	args := m.Called(ctx, key)
	return args.Error(0)
}

func (m *MockAgentKeyRepository) FindByHash(ctx context.Context, keyHash string) (*identity.AgentAPIKey, error) {
	args := m.Called(ctx, keyHash)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*identity.AgentAPIKey), args.Error(1)
}

func (m *MockAgentKeyRepository) FindByIDForTenant(ctx context.Context, tenantID, id int64) (*identity.AgentAPIKey, error) {
	args := m.Called(ctx, tenantID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*identity.AgentAPIKey), args.Error(1)
}

func (m *MockAgentKeyRepository) ListByTenant(ctx context.Context, tenantID int64) ([]*identity.AgentAPIKey, error) {
	args := m.Called(ctx, tenantID)
	return args.Get(0).([]*identity.AgentAPIKey), args.Error(1)
}

// MockEventPublisher records published events
type MockEventPublisher struct {
	mock.Mock
}

func (m *MockEventPublisher) Publish(ctx context.Context, events ...shared.DomainEvent) error {
	args := m.Called(ctx, events)
	return args.Error(0)
}
