package handler

import (
	"time"

	"github.com/crm/backend/internal/application/identity"
)

// =====================
// Company Request DTOs
// =====================

// CreateCompanyRequest represents the request body for company onboarding
type CreateCompanyRequest struct {
	Name        string `json:"name" binding:"required,min=1,max=200"`
	Description string `json:"description" binding:"omitempty,max=2000"`
	Industry    string `json:"industry" binding:"omitempty,max=100"`
	Website     string `json:"website" binding:"omitempty,url,max=500"`
	Email       string `json:"email" binding:"omitempty,email,max=200"`
	Phone       string `json:"phone" binding:"omitempty,max=50"`
}

// SwitchCompanyRequest selects the caller's active company
type SwitchCompanyRequest struct {
	CompanyID int64 `json:"company_id" binding:"required,min=1"`
}

// AddMemberRequest grants a user membership in a company
type AddMemberRequest struct {
	UserID int64 `json:"user_id" binding:"required,min=1"`
}

// =====================
// Company Response DTOs
// =====================

// CompanyResponse describes a company
type CompanyResponse struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	Industry    string    `json:"industry,omitempty"`
	Website     string    `json:"website,omitempty"`
	Email       string    `json:"email,omitempty"`
	Phone       string    `json:"phone,omitempty"`
	Status      string    `json:"status"`
	OwnerUserID int64     `json:"owner_user_id"`
	CreatedAt   time.Time `json:"created_at"`
}

// MembershipResponse describes one company the caller belongs to
type MembershipResponse struct {
	CompanyID   int64     `json:"company_id"`
	CompanyName string    `json:"company_name"`
	Role        string    `json:"role"`
	IsActive    bool      `json:"is_active"`
	IsCurrent   bool      `json:"is_current"`
	JoinedAt    time.Time `json:"joined_at"`
}

// ActiveCompanyResponse confirms a company switch. A fresh token pair is
// not issued here; clients call /auth/refresh to pick up the new company.
type ActiveCompanyResponse struct {
	ActiveCompanyID int64 `json:"active_company_id"`
}

func toCompanyResponse(c identity.CompanyInfo) CompanyResponse {
	return CompanyResponse{
		ID:          c.ID,
		Name:        c.Name,
		Description: c.Description,
		Industry:    c.Industry,
		Website:     c.Website,
		Email:       c.Email,
		Phone:       c.Phone,
		Status:      string(c.Status),
		OwnerUserID: c.OwnerUserID,
		CreatedAt:   c.CreatedAt,
	}
}

func toMembershipResponses(memberships []identity.MembershipInfo) []MembershipResponse {
	out := make([]MembershipResponse, len(memberships))
	for i, m := range memberships {
		out[i] = MembershipResponse{
			CompanyID:   m.CompanyID,
			CompanyName: m.CompanyName,
			Role:        string(m.Role),
			IsActive:    m.IsActive,
			IsCurrent:   m.IsCurrent,
			JoinedAt:    m.JoinedAt,
		}
	}
	return out
}
