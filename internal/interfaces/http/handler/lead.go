package handler

import (
	"context"

	"github.com/crm/backend/internal/application/marketing"
	"github.com/crm/backend/internal/domain/identity"
	"github.com/crm/backend/internal/domain/shared"
	csvimport "github.com/crm/backend/internal/infrastructure/import"
	"github.com/gin-gonic/gin"
)

// LeadService is the lead surface used by LeadHandler
type LeadService interface {
	Create(ctx context.Context, principal *identity.Principal, input marketing.CreateLeadInput) (*marketing.LeadResponse, error)
	Get(ctx context.Context, principal *identity.Principal, leadID int64) (*marketing.LeadResponse, error)
	List(ctx context.Context, principal *identity.Principal, filter marketing.LeadListFilter) (*shared.Paginated[marketing.LeadResponse], error)
	Update(ctx context.Context, principal *identity.Principal, leadID int64, input marketing.UpdateLeadInput) (*marketing.LeadResponse, error)
	Assign(ctx context.Context, principal *identity.Principal, leadID int64, userID *int64) (*marketing.LeadResponse, error)
	ChangeStatus(ctx context.Context, principal *identity.Principal, leadID int64, status string) (*marketing.LeadResponse, error)
	RecalculateScore(ctx context.Context, principal *identity.Principal, leadID int64) (*marketing.LeadResponse, error)
	Delete(ctx context.Context, principal *identity.Principal, leadID int64) error
	Import(ctx context.Context, principal *identity.Principal, rows []*csvimport.Row) (*marketing.LeadImportResult, error)
}

// LeadConverter runs the lead conversion workflow
type LeadConverter interface {
	ConvertLead(ctx context.Context, principal *identity.Principal, leadID int64, opts marketing.ConvertLeadOptions) (*marketing.ConversionResult, error)
}

// LeadHandler handles lead-related API endpoints
type LeadHandler struct {
	BaseHandler
	leadService LeadService
	converter   LeadConverter
}

// NewLeadHandler creates a new LeadHandler
func NewLeadHandler(leadService LeadService, converter LeadConverter) *LeadHandler {
	return &LeadHandler{
		leadService: leadService,
		converter:   converter,
	}
}

// Create godoc
// @ID           createLead
// @Summary      Create a lead
// @Description  Create a lead in the active company. The lead starts as new and is scored on save.
// @Tags         leads
// @Accept       json
// @Produce      json
// @Param        request body marketing.CreateLeadInput true "Lead details"
// @Success      201 {object} APIResponse[marketing.LeadResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      401 {object} ErrorResponse
// @Failure      428 {object} ErrorResponse
// @Failure      500 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /leads [post]
func (h *LeadHandler) Create(c *gin.Context) {
	principal, ok := h.principal(c)
	if !ok {
		return
	}

	var req marketing.CreateLeadInput
	if !h.bindJSON(c, &req) {
		return
	}

	lead, err := h.leadService.Create(c.Request.Context(), principal, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Created(c, lead)
}

// GetByID godoc
// @ID           getLeadById
// @Summary      Get a lead
// @Description  Get a lead of the active company by ID
// @Tags         leads
// @Produce      json
// @Param        id path int true "Lead ID"
// @Success      200 {object} APIResponse[marketing.LeadResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Failure      500 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /leads/{id} [get]
func (h *LeadHandler) GetByID(c *gin.Context) {
	principal, ok := h.principal(c)
	if !ok {
		return
	}
	leadID, ok := h.pathID(c, "id")
	if !ok {
		return
	}

	lead, err := h.leadService.Get(c.Request.Context(), principal, leadID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, lead)
}

// List godoc
// @ID           listLeads
// @Summary      List leads
// @Description  List the active company's leads with filtering and pagination
// @Tags         leads
// @Produce      json
// @Param        search query string false "Search name, company or email"
// @Param        status query string false "Lead status" Enums(new, contacted, qualified, unqualified, converted, lost)
// @Param        rating query string false "Lead rating" Enums(hot, warm, cold)
// @Param        assigned_user_id query int false "Assigned user ID"
// @Param        source_id query int false "Lead source ID"
// @Param        page query int false "Page number" default(1)
// @Param        page_size query int false "Page size" default(20) maximum(100)
// @Param        order_by query string false "Order by field" default(created_at)
// @Param        order_dir query string false "Order direction" Enums(asc, desc) default(desc)
// @Success      200 {object} APIResponse[[]marketing.LeadResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      500 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /leads [get]
func (h *LeadHandler) List(c *gin.Context) {
	principal, ok := h.principal(c)
	if !ok {
		return
	}

	var query LeadListQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		h.BadRequest(c, "Invalid query parameters")
		return
	}

	page, err := h.leadService.List(c.Request.Context(), principal, marketing.LeadListFilter{
		Search:         query.Search,
		Status:         query.Status,
		Rating:         query.Rating,
		AssignedUserID: query.AssignedUserID,
		SourceID:       query.SourceID,
		Page:           query.Page,
		PageSize:       query.PageSize,
		OrderBy:        query.OrderBy,
		OrderDir:       query.OrderDir,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.SuccessWithMeta(c, page.Items, page.Total, page.Page, page.PageSize)
}

// Update godoc
// @ID           updateLead
// @Summary      Update a lead
// @Description  Replace the profile of a lead that has not been converted
// @Tags         leads
// @Accept       json
// @Produce      json
// @Param        id path int true "Lead ID"
// @Param        request body marketing.UpdateLeadInput true "Lead details"
// @Success      200 {object} APIResponse[marketing.LeadResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Failure      409 {object} ErrorResponse
// @Failure      500 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /leads/{id} [put]
func (h *LeadHandler) Update(c *gin.Context) {
	principal, ok := h.principal(c)
	if !ok {
		return
	}
	leadID, ok := h.pathID(c, "id")
	if !ok {
		return
	}

	var req marketing.UpdateLeadInput
	if !h.bindJSON(c, &req) {
		return
	}

	lead, err := h.leadService.Update(c.Request.Context(), principal, leadID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, lead)
}

// Delete godoc
// @ID           deleteLead
// @Summary      Delete a lead
// @Description  Delete a lead of the active company
// @Tags         leads
// @Param        id path int true "Lead ID"
// @Success      204
// @Failure      400 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Failure      500 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /leads/{id} [delete]
func (h *LeadHandler) Delete(c *gin.Context) {
	principal, ok := h.principal(c)
	if !ok {
		return
	}
	leadID, ok := h.pathID(c, "id")
	if !ok {
		return
	}

	if err := h.leadService.Delete(c.Request.Context(), principal, leadID); err != nil {
		h.HandleError(c, err)
		return
	}

	h.NoContent(c)
}

// Convert godoc
// @ID           convertLead
// @Summary      Convert a lead
// @Description  Convert a qualified lead into a customer and an opportunity in one transaction.
// @Description  The body is optional; by default both records are created.
// @Tags         leads
// @Accept       json
// @Produce      json
// @Param        id path int true "Lead ID"
// @Param        request body ConvertLeadRequest false "Conversion options"
// @Success      200 {object} APIResponse[ConversionResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      401 {object} ErrorResponse
// @Failure      403 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Failure      409 {object} ErrorResponse
// @Failure      422 {object} ErrorResponse
// @Failure      428 {object} ErrorResponse
// @Failure      500 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /leads/{id}/convert [post]
func (h *LeadHandler) Convert(c *gin.Context) {
	principal, ok := h.principal(c)
	if !ok {
		return
	}
	leadID, ok := h.pathID(c, "id")
	if !ok {
		return
	}

	var req ConvertLeadRequest
	if c.Request.ContentLength != 0 {
		if !h.bindJSON(c, &req) {
			return
		}
	}

	result, err := h.converter.ConvertLead(c.Request.Context(), principal, leadID, req.options())
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, toConversionResponse(result))
}

// Assign godoc
// @ID           assignLead
// @Summary      Assign a lead
// @Description  Assign a lead to a user, or unassign it with a null user_id
// @Tags         leads
// @Accept       json
// @Produce      json
// @Param        id path int true "Lead ID"
// @Param        request body AssignRequest true "Assignee"
// @Success      200 {object} APIResponse[marketing.LeadResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Failure      500 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /leads/{id}/assign [post]
func (h *LeadHandler) Assign(c *gin.Context) {
	principal, ok := h.principal(c)
	if !ok {
		return
	}
	leadID, ok := h.pathID(c, "id")
	if !ok {
		return
	}

	var req AssignRequest
	if !h.bindJSON(c, &req) {
		return
	}

	lead, err := h.leadService.Assign(c.Request.Context(), principal, leadID, req.UserID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, lead)
}

// ChangeStatus godoc
// @ID           changeLeadStatus
// @Summary      Change lead status
// @Description  Move a lead to another status. Converted leads cannot change status.
// @Tags         leads
// @Accept       json
// @Produce      json
// @Param        id path int true "Lead ID"
// @Param        request body ChangeLeadStatusRequest true "New status"
// @Success      200 {object} APIResponse[marketing.LeadResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Failure      409 {object} ErrorResponse
// @Failure      500 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /leads/{id}/status [post]
func (h *LeadHandler) ChangeStatus(c *gin.Context) {
	principal, ok := h.principal(c)
	if !ok {
		return
	}
	leadID, ok := h.pathID(c, "id")
	if !ok {
		return
	}

	var req ChangeLeadStatusRequest
	if !h.bindJSON(c, &req) {
		return
	}

	lead, err := h.leadService.ChangeStatus(c.Request.Context(), principal, leadID, req.Status)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, lead)
}

// RecalculateScore godoc
// @ID           scoreLead
// @Summary      Recalculate lead score
// @Description  Recompute a lead's score from its profile
// @Tags         leads
// @Produce      json
// @Param        id path int true "Lead ID"
// @Success      200 {object} APIResponse[marketing.LeadResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Failure      500 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /leads/{id}/score [post]
func (h *LeadHandler) RecalculateScore(c *gin.Context) {
	principal, ok := h.principal(c)
	if !ok {
		return
	}
	leadID, ok := h.pathID(c, "id")
	if !ok {
		return
	}

	lead, err := h.leadService.RecalculateScore(c.Request.Context(), principal, leadID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, lead)
}
