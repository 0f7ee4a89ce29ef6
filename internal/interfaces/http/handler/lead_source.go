package handler

import (
	"context"

	"github.com/crm/backend/internal/application/marketing"
	"github.com/crm/backend/internal/domain/identity"
	"github.com/gin-gonic/gin"
)

// LeadSourceService is the lead source surface used by LeadSourceHandler
type LeadSourceService interface {
	Create(ctx context.Context, principal *identity.Principal, input marketing.LeadSourceInput) (*marketing.LeadSourceResponse, error)
	List(ctx context.Context, principal *identity.Principal, activeOnly bool) ([]marketing.LeadSourceResponse, error)
	Deactivate(ctx context.Context, principal *identity.Principal, sourceID int64) (*marketing.LeadSourceResponse, error)
}

// LeadSourceHandler handles lead source endpoints
type LeadSourceHandler struct {
	BaseHandler
	sourceService LeadSourceService
}

// NewLeadSourceHandler creates a new LeadSourceHandler
func NewLeadSourceHandler(sourceService LeadSourceService) *LeadSourceHandler {
	return &LeadSourceHandler{sourceService: sourceService}
}

// Create godoc
// @ID           createLeadSource
// @Summary      Create a lead source
// @Tags         lead-sources
// @Accept       json
// @Produce      json
// @Param        request body marketing.LeadSourceInput true "Lead source"
// @Success      201 {object} APIResponse[marketing.LeadSourceResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      409 {object} ErrorResponse
// @Failure      500 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /lead-sources [post]
func (h *LeadSourceHandler) Create(c *gin.Context) {
	principal, ok := h.principal(c)
	if !ok {
		return
	}

	var req marketing.LeadSourceInput
	if !h.bindJSON(c, &req) {
		return
	}

	source, err := h.sourceService.Create(c.Request.Context(), principal, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Created(c, source)
}

// List godoc
// @ID           listLeadSources
// @Summary      List lead sources
// @Tags         lead-sources
// @Produce      json
// @Param        active_only query bool false "Only active sources" default(false)
// @Success      200 {object} APIResponse[[]marketing.LeadSourceResponse]
// @Failure      500 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /lead-sources [get]
func (h *LeadSourceHandler) List(c *gin.Context) {
	principal, ok := h.principal(c)
	if !ok {
		return
	}

	sources, err := h.sourceService.List(c.Request.Context(), principal, c.Query("active_only") == "true")
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, sources)
}

// Deactivate godoc
// @ID           deactivateLeadSource
// @Summary      Deactivate a lead source
// @Description  Deactivated sources stay on existing leads but cannot be chosen for new ones
// @Tags         lead-sources
// @Produce      json
// @Param        id path int true "Lead source ID"
// @Success      200 {object} APIResponse[marketing.LeadSourceResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Failure      500 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /lead-sources/{id}/deactivate [post]
func (h *LeadSourceHandler) Deactivate(c *gin.Context) {
	principal, ok := h.principal(c)
	if !ok {
		return
	}
	sourceID, ok := h.pathID(c, "id")
	if !ok {
		return
	}

	source, err := h.sourceService.Deactivate(c.Request.Context(), principal, sourceID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, source)
}
