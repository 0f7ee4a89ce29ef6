package handler

import (
	"context"

	salesapp "github.com/crm/backend/internal/application/sales"
	"github.com/crm/backend/internal/domain/identity"
	"github.com/crm/backend/internal/domain/shared"
	"github.com/gin-gonic/gin"
)

// OpportunityService is the opportunity surface used by OpportunityHandler
type OpportunityService interface {
	Create(ctx context.Context, principal *identity.Principal, req salesapp.CreateOpportunityRequest) (*salesapp.OpportunityResponse, error)
	Get(ctx context.Context, principal *identity.Principal, opportunityID int64) (*salesapp.OpportunityResponse, error)
	List(ctx context.Context, principal *identity.Principal, filter salesapp.OpportunityListFilter) (*shared.Paginated[salesapp.OpportunityResponse], error)
	Update(ctx context.Context, principal *identity.Principal, opportunityID int64, req salesapp.UpdateOpportunityRequest) (*salesapp.OpportunityResponse, error)
	Assign(ctx context.Context, principal *identity.Principal, opportunityID int64, userID *int64) (*salesapp.OpportunityResponse, error)
	MoveToStage(ctx context.Context, principal *identity.Principal, opportunityID, stageID int64) (*salesapp.OpportunityResponse, error)
	MarkWon(ctx context.Context, principal *identity.Principal, opportunityID int64) (*salesapp.OpportunityResponse, error)
	MarkLost(ctx context.Context, principal *identity.Principal, opportunityID int64, reason string) (*salesapp.OpportunityResponse, error)
}

// OpportunityHandler handles opportunity endpoints
type OpportunityHandler struct {
	BaseHandler
	opportunityService OpportunityService
}

// NewOpportunityHandler creates a new OpportunityHandler
func NewOpportunityHandler(opportunityService OpportunityService) *OpportunityHandler {
	return &OpportunityHandler{opportunityService: opportunityService}
}

// OpportunityListQuery represents query parameters for listing opportunities
type OpportunityListQuery struct {
	Page            int    `form:"page" binding:"omitempty,min=1"`
	PageSize        int    `form:"page_size" binding:"omitempty,min=1,max=100"`
	OrderBy         string `form:"order_by" binding:"omitempty,max=50"`
	OrderDir        string `form:"order_dir" binding:"omitempty,oneof=asc desc"`
	Search          string `form:"search" binding:"omitempty,max=100"`
	Status          string `form:"status" binding:"omitempty,oneof=open won lost abandoned"`
	PipelineStageID *int64 `form:"pipeline_stage_id" binding:"omitempty,min=1"`
	CustomerID      *int64 `form:"customer_id" binding:"omitempty,min=1"`
	AssignedUserID  *int64 `form:"assigned_user_id" binding:"omitempty,min=1"`
}

// MoveStageRequest moves an opportunity to another pipeline stage
type MoveStageRequest struct {
	StageID int64 `json:"stage_id" binding:"required,min=1"`
}

// MarkLostRequest closes an opportunity as lost
type MarkLostRequest struct {
	Reason string `json:"reason" binding:"omitempty,max=500"`
}

// Create godoc
// @ID           createOpportunity
// @Summary      Create an opportunity
// @Description  Create an opportunity in the active company. Without a stage it starts in the
// @Description  company's first active stage.
// @Tags         opportunities
// @Accept       json
// @Produce      json
// @Param        request body salesapp.CreateOpportunityRequest true "Opportunity details"
// @Success      201 {object} APIResponse[salesapp.OpportunityResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      403 {object} ErrorResponse
// @Failure      422 {object} ErrorResponse
// @Failure      500 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /opportunities [post]
func (h *OpportunityHandler) Create(c *gin.Context) {
	principal, ok := h.principal(c)
	if !ok {
		return
	}

	var req salesapp.CreateOpportunityRequest
	if !h.bindJSON(c, &req) {
		return
	}

	opportunity, err := h.opportunityService.Create(c.Request.Context(), principal, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Created(c, opportunity)
}

// GetByID godoc
// @ID           getOpportunityById
// @Summary      Get an opportunity
// @Tags         opportunities
// @Produce      json
// @Param        id path int true "Opportunity ID"
// @Success      200 {object} APIResponse[salesapp.OpportunityResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      403 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Failure      500 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /opportunities/{id} [get]
func (h *OpportunityHandler) GetByID(c *gin.Context) {
	principal, ok := h.principal(c)
	if !ok {
		return
	}
	opportunityID, ok := h.pathID(c, "id")
	if !ok {
		return
	}

	opportunity, err := h.opportunityService.Get(c.Request.Context(), principal, opportunityID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, opportunity)
}

// List godoc
// @ID           listOpportunities
// @Summary      List opportunities
// @Tags         opportunities
// @Produce      json
// @Param        search query string false "Search name"
// @Param        status query string false "Status" Enums(open, won, lost, abandoned)
// @Param        pipeline_stage_id query int false "Pipeline stage ID"
// @Param        customer_id query int false "Customer ID"
// @Param        assigned_user_id query int false "Assigned user ID"
// @Param        page query int false "Page number" default(1)
// @Param        page_size query int false "Page size" default(20) maximum(100)
// @Param        order_by query string false "Order by field" default(created_at)
// @Param        order_dir query string false "Order direction" Enums(asc, desc) default(desc)
// @Success      200 {object} APIResponse[[]salesapp.OpportunityResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      500 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /opportunities [get]
func (h *OpportunityHandler) List(c *gin.Context) {
	principal, ok := h.principal(c)
	if !ok {
		return
	}

	var query OpportunityListQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		h.BadRequest(c, "Invalid query parameters")
		return
	}

	page, err := h.opportunityService.List(c.Request.Context(), principal, salesapp.OpportunityListFilter{
		Search:          query.Search,
		Status:          query.Status,
		PipelineStageID: query.PipelineStageID,
		CustomerID:      query.CustomerID,
		AssignedUserID:  query.AssignedUserID,
		Page:            query.Page,
		PageSize:        query.PageSize,
		OrderBy:         query.OrderBy,
		OrderDir:        query.OrderDir,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.SuccessWithMeta(c, page.Items, page.Total, page.Page, page.PageSize)
}

// Update godoc
// @ID           updateOpportunity
// @Summary      Update an opportunity
// @Description  Replace the descriptive fields of an open opportunity
// @Tags         opportunities
// @Accept       json
// @Produce      json
// @Param        id path int true "Opportunity ID"
// @Param        request body salesapp.UpdateOpportunityRequest true "Opportunity details"
// @Success      200 {object} APIResponse[salesapp.OpportunityResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Failure      409 {object} ErrorResponse
// @Failure      422 {object} ErrorResponse
// @Failure      500 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /opportunities/{id} [put]
func (h *OpportunityHandler) Update(c *gin.Context) {
	principal, ok := h.principal(c)
	if !ok {
		return
	}
	opportunityID, ok := h.pathID(c, "id")
	if !ok {
		return
	}

	var req salesapp.UpdateOpportunityRequest
	if !h.bindJSON(c, &req) {
		return
	}

	opportunity, err := h.opportunityService.Update(c.Request.Context(), principal, opportunityID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, opportunity)
}

// Assign godoc
// @ID           assignOpportunity
// @Summary      Assign an opportunity
// @Description  Assign an open opportunity to a user, or unassign it with a null user_id
// @Tags         opportunities
// @Accept       json
// @Produce      json
// @Param        id path int true "Opportunity ID"
// @Param        request body AssignRequest true "Assignee"
// @Success      200 {object} APIResponse[salesapp.OpportunityResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Failure      422 {object} ErrorResponse
// @Failure      500 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /opportunities/{id}/assign [post]
func (h *OpportunityHandler) Assign(c *gin.Context) {
	principal, ok := h.principal(c)
	if !ok {
		return
	}
	opportunityID, ok := h.pathID(c, "id")
	if !ok {
		return
	}

	var req AssignRequest
	if !h.bindJSON(c, &req) {
		return
	}

	opportunity, err := h.opportunityService.Assign(c.Request.Context(), principal, opportunityID, req.UserID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, opportunity)
}

// MoveToStage godoc
// @ID           moveOpportunityStage
// @Summary      Move to pipeline stage
// @Description  Move an open opportunity to another stage; it adopts the stage's default
// @Description  probability and closes when the stage is a won or lost stage.
// @Tags         opportunities
// @Accept       json
// @Produce      json
// @Param        id path int true "Opportunity ID"
// @Param        request body MoveStageRequest true "Target stage"
// @Success      200 {object} APIResponse[salesapp.OpportunityResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Failure      422 {object} ErrorResponse
// @Failure      500 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /opportunities/{id}/stage [post]
func (h *OpportunityHandler) MoveToStage(c *gin.Context) {
	principal, ok := h.principal(c)
	if !ok {
		return
	}
	opportunityID, ok := h.pathID(c, "id")
	if !ok {
		return
	}

	var req MoveStageRequest
	if !h.bindJSON(c, &req) {
		return
	}

	opportunity, err := h.opportunityService.MoveToStage(c.Request.Context(), principal, opportunityID, req.StageID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, opportunity)
}

// MarkWon godoc
// @ID           winOpportunity
// @Summary      Mark opportunity won
// @Tags         opportunities
// @Produce      json
// @Param        id path int true "Opportunity ID"
// @Success      200 {object} APIResponse[salesapp.OpportunityResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Failure      422 {object} ErrorResponse
// @Failure      500 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /opportunities/{id}/win [post]
func (h *OpportunityHandler) MarkWon(c *gin.Context) {
	principal, ok := h.principal(c)
	if !ok {
		return
	}
	opportunityID, ok := h.pathID(c, "id")
	if !ok {
		return
	}

	opportunity, err := h.opportunityService.MarkWon(c.Request.Context(), principal, opportunityID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, opportunity)
}

// MarkLost godoc
// @ID           loseOpportunity
// @Summary      Mark opportunity lost
// @Tags         opportunities
// @Accept       json
// @Produce      json
// @Param        id path int true "Opportunity ID"
// @Param        request body MarkLostRequest false "Loss reason"
// @Success      200 {object} APIResponse[salesapp.OpportunityResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Failure      422 {object} ErrorResponse
// @Failure      500 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /opportunities/{id}/lose [post]
func (h *OpportunityHandler) MarkLost(c *gin.Context) {
	principal, ok := h.principal(c)
	if !ok {
		return
	}
	opportunityID, ok := h.pathID(c, "id")
	if !ok {
		return
	}

	var req MarkLostRequest
	if c.Request.ContentLength != 0 {
		if !h.bindJSON(c, &req) {
			return
		}
	}

	opportunity, err := h.opportunityService.MarkLost(c.Request.Context(), principal, opportunityID, req.Reason)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, opportunity)
}
