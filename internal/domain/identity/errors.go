package identity

import "github.com/crm/backend/internal/domain/shared"

var (
	// ErrUnauthenticated means the caller's identity could not be established
	ErrUnauthenticated = shared.ErrUnauthenticated
	// ErrNoActiveTenant means the user has not selected (or lost) a company
	ErrNoActiveTenant = shared.NewDomainError("NO_ACTIVE_TENANT", "User has no active company")

	ErrInvalidCredentials = shared.NewDomainError("INVALID_CREDENTIALS", "Invalid username or password")
	ErrAccountLocked      = shared.NewDomainError("ACCOUNT_LOCKED", "Account is locked")
	ErrAccountDisabled    = shared.NewDomainError("ACCOUNT_DISABLED", "Account is disabled")
	ErrUsernameTaken      = shared.NewDomainError("USERNAME_TAKEN", "Username is already taken")
	ErrEmailTaken         = shared.NewDomainError("EMAIL_TAKEN", "Email is already registered")
	ErrNotMember          = shared.ErrForbidden.WithMessage("User is not an active member of this company")
	ErrInvalidAPIKey      = shared.ErrUnauthenticated.WithMessage("Invalid API key")
	ErrNotOwner           = shared.ErrForbidden.WithMessage("Only the company owner can manage members")
	ErrAgentNotAllowed    = shared.ErrForbidden.WithMessage("Agents cannot perform this operation")
)
