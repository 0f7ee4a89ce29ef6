package handler

import (
	"time"

	"github.com/crm/backend/internal/application/marketing"
)

// LeadListQuery represents query parameters for listing leads
type LeadListQuery struct {
	Page           int    `form:"page" binding:"omitempty,min=1"`
	PageSize       int    `form:"page_size" binding:"omitempty,min=1,max=100"`
	OrderBy        string `form:"order_by" binding:"omitempty,max=50"`
	OrderDir       string `form:"order_dir" binding:"omitempty,oneof=asc desc"`
	Search         string `form:"search" binding:"omitempty,max=100"`
	Status         string `form:"status"`
	Rating         string `form:"rating" binding:"omitempty,oneof=hot warm cold"`
	AssignedUserID *int64 `form:"assigned_user_id" binding:"omitempty,min=1"`
	SourceID       *int64 `form:"source_id" binding:"omitempty,min=1"`
}

// AssignRequest assigns a record to a user. A null user_id unassigns it.
type AssignRequest struct {
	UserID *int64 `json:"user_id" binding:"omitempty,min=1"`
}

// ChangeLeadStatusRequest moves a lead to another status
type ChangeLeadStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

// ConvertLeadRequest controls what a conversion produces.
// Omitted create flags default to true; an explicit id links an existing record instead.
type ConvertLeadRequest struct {
	CreateCustomer    *bool  `json:"create_customer"`
	CustomerID        *int64 `json:"customer_id" binding:"omitempty,min=1"`
	CustomerName      string `json:"customer_name" binding:"omitempty,max=200"`
	CreateOpportunity *bool  `json:"create_opportunity"`
	OpportunityID     *int64 `json:"opportunity_id" binding:"omitempty,min=1"`
}

// ConversionResponse reports the outcome of a lead conversion
type ConversionResponse struct {
	LeadID             int64     `json:"lead_id"`
	CustomerID         *int64    `json:"customer_id,omitempty"`
	OpportunityID      *int64    `json:"opportunity_id,omitempty"`
	CustomerCreated    bool      `json:"customer_created"`
	OpportunityCreated bool      `json:"opportunity_created"`
	ConvertedAt        time.Time `json:"converted_at"`
	ConvertedByUserID  int64     `json:"converted_by_user_id"`
}

func (r ConvertLeadRequest) options() marketing.ConvertLeadOptions {
	return marketing.ConvertLeadOptions{
		CreateCustomer:    r.CreateCustomer,
		CustomerID:        r.CustomerID,
		CustomerName:      r.CustomerName,
		CreateOpportunity: r.CreateOpportunity,
		OpportunityID:     r.OpportunityID,
	}
}

func toConversionResponse(r *marketing.ConversionResult) ConversionResponse {
	return ConversionResponse{
		LeadID:             r.LeadID,
		CustomerID:         r.CustomerID,
		OpportunityID:      r.OpportunityID,
		CustomerCreated:    r.CustomerCreated,
		OpportunityCreated: r.OpportunityCreated,
		ConvertedAt:        r.ConvertedAt,
		ConvertedByUserID:  r.ConvertedByUserID,
	}
}
