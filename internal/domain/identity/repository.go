package identity

import "context"

// UserRepository defines the interface for user persistence
type UserRepository interface {
	Create(ctx context.Context, user *User) error
	// Update saves the user; it fails with a concurrency conflict when the version moved
	Update(ctx context.Context, user *User) error
	FindByID(ctx context.Context, id int64) (*User, error)
	// FindByLogin finds a user by username or email
	FindByLogin(ctx context.Context, login string) (*User, error)
	ExistsByUsername(ctx context.Context, username string) (bool, error)
	ExistsByEmail(ctx context.Context, email string) (bool, error)
}

// CompanyRepository defines the interface for company persistence
type CompanyRepository interface {
	Create(ctx context.Context, company *Company) error
	Update(ctx context.Context, company *Company) error
	FindByID(ctx context.Context, id int64) (*Company, error)
	FindByIDs(ctx context.Context, ids []int64) ([]*Company, error)
}

// MembershipRepository persists user/company links
type MembershipRepository interface {
	Save(ctx context.Context, membership *Membership) error
	// Find returns the membership of userID in companyID, active or not
	Find(ctx context.Context, userID, companyID int64) (*Membership, error)
	ListByUser(ctx context.Context, userID int64) ([]*Membership, error)
	ListByCompany(ctx context.Context, companyID int64) ([]*Membership, error)
}

// AgentKeyRepository persists agent API keys
type AgentKeyRepository interface {
	Create(ctx context.Context, key *AgentAPIKey) error
	Update(ctx context.Context, key *AgentAPIKey) error
	FindByHash(ctx context.Context, keyHash string) (*AgentAPIKey, error)
	FindByIDForTenant(ctx context.Context, tenantID, id int64) (*AgentAPIKey, error)
	ListByTenant(ctx context.Context, tenantID int64) ([]*AgentAPIKey, error)
}
