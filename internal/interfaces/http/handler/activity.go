package handler

import (
	"context"

	"github.com/crm/backend/internal/application/activity"
	"github.com/crm/backend/internal/domain/identity"
	"github.com/gin-gonic/gin"
)

// TimelineService reads entity timelines
type TimelineService interface {
	ListForEntity(ctx context.Context, principal *identity.Principal, entityType string, entityID int64) ([]activity.EntryResponse, error)
}

// ActivityHandler serves entity timelines
type ActivityHandler struct {
	BaseHandler
	timeline TimelineService
}

// NewActivityHandler creates a new ActivityHandler
func NewActivityHandler(timeline TimelineService) *ActivityHandler {
	return &ActivityHandler{timeline: timeline}
}

// Timeline godoc
// @ID           getEntityTimeline
// @Summary      Get an entity timeline
// @Description  Newest activity recorded for a lead, customer or opportunity
// @Tags         activity
// @Produce      json
// @Param        entity_type path string true "Entity type" Enums(lead, customer, opportunity)
// @Param        id path int true "Entity ID"
// @Success      200 {object} APIResponse[[]activity.EntryResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      403 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Failure      500 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /activity/{entity_type}/{id} [get]
func (h *ActivityHandler) Timeline(c *gin.Context) {
	principal, ok := h.principal(c)
	if !ok {
		return
	}
	entityID, ok := h.pathID(c, "id")
	if !ok {
		return
	}

	entries, err := h.timeline.ListForEntity(c.Request.Context(), principal, c.Param("entity_type"), entityID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, entries)
}
