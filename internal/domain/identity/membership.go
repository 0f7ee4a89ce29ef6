package identity

import (
	"time"
)

// MembershipRole is the user's role inside a company
type MembershipRole string

const (
	MembershipRoleOwner  MembershipRole = "owner"
	MembershipRoleMember MembershipRole = "member"
)

// Membership links a user to a company. Only active memberships
// authorize the company as the user's active tenant.
type Membership struct {
	ID        int64
	UserID    int64
	CompanyID int64
	Role      MembershipRole
	IsActive  bool
	JoinedAt  time.Time
	LeftAt    *time.Time
}

// NewMembership creates an active membership
func NewMembership(userID, companyID int64, role MembershipRole) *Membership {
	if role == "" {
		role = MembershipRoleMember
	}
	return &Membership{
		UserID:    userID,
		CompanyID: companyID,
		Role:      role,
		IsActive:  true,
		JoinedAt:  time.Now(),
	}
}

// Deactivate ends the membership
func (m *Membership) Deactivate() {
	if !m.IsActive {
		return
	}
	now := time.Now()
	m.IsActive = false
	m.LeftAt = &now
}

// Reactivate restores an ended membership
func (m *Membership) Reactivate() {
	m.IsActive = true
	m.LeftAt = nil
	m.JoinedAt = time.Now()
}
