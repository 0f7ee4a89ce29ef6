package handler

import (
	"context"

	salesapp "github.com/crm/backend/internal/application/sales"
	"github.com/crm/backend/internal/domain/identity"
	"github.com/gin-gonic/gin"
)

// PipelineStageService is the stage surface used by PipelineStageHandler
type PipelineStageService interface {
	Create(ctx context.Context, principal *identity.Principal, req salesapp.CreateStageRequest) (*salesapp.StageResponse, error)
	List(ctx context.Context, principal *identity.Principal, activeOnly bool) ([]salesapp.StageResponse, error)
	Deactivate(ctx context.Context, principal *identity.Principal, stageID int64) (*salesapp.StageResponse, error)
}

// PipelineStageHandler handles pipeline stage endpoints
type PipelineStageHandler struct {
	BaseHandler
	stageService PipelineStageService
}

// NewPipelineStageHandler creates a new PipelineStageHandler
func NewPipelineStageHandler(stageService PipelineStageService) *PipelineStageHandler {
	return &PipelineStageHandler{stageService: stageService}
}

// Create godoc
// @ID           createPipelineStage
// @Summary      Create a pipeline stage
// @Tags         pipeline-stages
// @Accept       json
// @Produce      json
// @Param        request body salesapp.CreateStageRequest true "Stage details"
// @Success      201 {object} APIResponse[salesapp.StageResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      409 {object} ErrorResponse
// @Failure      500 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /pipeline-stages [post]
func (h *PipelineStageHandler) Create(c *gin.Context) {
	principal, ok := h.principal(c)
	if !ok {
		return
	}

	var req salesapp.CreateStageRequest
	if !h.bindJSON(c, &req) {
		return
	}

	stage, err := h.stageService.Create(c.Request.Context(), principal, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Created(c, stage)
}

// List godoc
// @ID           listPipelineStages
// @Summary      List pipeline stages
// @Description  List the active company's stages in display order
// @Tags         pipeline-stages
// @Produce      json
// @Param        active_only query bool false "Only active stages" default(false)
// @Success      200 {object} APIResponse[[]salesapp.StageResponse]
// @Failure      500 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /pipeline-stages [get]
func (h *PipelineStageHandler) List(c *gin.Context) {
	principal, ok := h.principal(c)
	if !ok {
		return
	}

	stages, err := h.stageService.List(c.Request.Context(), principal, c.Query("active_only") == "true")
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, stages)
}

// Deactivate godoc
// @ID           deactivatePipelineStage
// @Summary      Deactivate a pipeline stage
// @Tags         pipeline-stages
// @Produce      json
// @Param        id path int true "Stage ID"
// @Success      200 {object} APIResponse[salesapp.StageResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Failure      422 {object} ErrorResponse
// @Failure      500 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /pipeline-stages/{id}/deactivate [post]
func (h *PipelineStageHandler) Deactivate(c *gin.Context) {
	principal, ok := h.principal(c)
	if !ok {
		return
	}
	stageID, ok := h.pathID(c, "id")
	if !ok {
		return
	}

	stage, err := h.stageService.Deactivate(c.Request.Context(), principal, stageID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, stage)
}
