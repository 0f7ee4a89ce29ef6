package handler

import (
	"context"
	"time"

	"github.com/crm/backend/internal/application/identity"
	domain "github.com/crm/backend/internal/domain/identity"
	"github.com/gin-gonic/gin"
)

// AgentKeyService is the API key surface used by AgentKeyHandler
type AgentKeyService interface {
	IssueKey(ctx context.Context, tenantID, createdBy int64, input identity.IssueAgentKeyInput) (*identity.IssuedAgentKey, error)
	List(ctx context.Context, tenantID int64) ([]identity.AgentKeyInfo, error)
	Revoke(ctx context.Context, tenantID, keyID int64) error
}

// AgentKeyHandler manages API keys for automated agents
type AgentKeyHandler struct {
	BaseHandler
	keyService AgentKeyService
}

// NewAgentKeyHandler creates a new AgentKeyHandler
func NewAgentKeyHandler(keyService AgentKeyService) *AgentKeyHandler {
	return &AgentKeyHandler{keyService: keyService}
}

// IssueAgentKeyRequest represents the request body for issuing an agent key
type IssueAgentKeyRequest struct {
	AgentName string     `json:"agent_name" binding:"required,min=1,max=100" example:"lead-enricher"`
	ExpiresAt *time.Time `json:"expires_at"`
}

// AgentKeyResponse describes an agent key without its secret
type AgentKeyResponse struct {
	ID         int64      `json:"id"`
	AgentName  string     `json:"agent_name"`
	KeyPrefix  string     `json:"key_prefix"`
	CreatedBy  int64      `json:"created_by"`
	ExpiresAt  *time.Time `json:"expires_at,omitempty"`
	LastUsedAt *time.Time `json:"last_used_at,omitempty"`
	RevokedAt  *time.Time `json:"revoked_at,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
}

// IssuedAgentKeyResponse carries the plaintext key, shown only once
type IssuedAgentKeyResponse struct {
	AgentKeyResponse
	Key string `json:"key"`
}

func toAgentKeyResponse(k identity.AgentKeyInfo) AgentKeyResponse {
	return AgentKeyResponse{
		ID:         k.ID,
		AgentName:  k.AgentName,
		KeyPrefix:  k.KeyPrefix,
		CreatedBy:  k.CreatedBy,
		ExpiresAt:  k.ExpiresAt,
		LastUsedAt: k.LastUsedAt,
		RevokedAt:  k.RevokedAt,
		CreatedAt:  k.CreatedAt,
	}
}

// Issue godoc
// @ID           issueAgentKey
// @Summary      Issue an agent key
// @Description  Issue an API key acting on behalf of the caller in the active company.
// @Description  The plaintext key is returned once and cannot be retrieved later.
// @Tags         agent-keys
// @Accept       json
// @Produce      json
// @Param        request body IssueAgentKeyRequest true "Agent details"
// @Success      201 {object} APIResponse[IssuedAgentKeyResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      403 {object} ErrorResponse
// @Failure      428 {object} ErrorResponse
// @Failure      500 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /agent-keys [post]
func (h *AgentKeyHandler) Issue(c *gin.Context) {
	tenantID, userID, ok := h.humanInTenant(c)
	if !ok {
		return
	}

	var req IssueAgentKeyRequest
	if !h.bindJSON(c, &req) {
		return
	}

	issued, err := h.keyService.IssueKey(c.Request.Context(), tenantID, userID, identity.IssueAgentKeyInput{
		AgentName: req.AgentName,
		ExpiresAt: req.ExpiresAt,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Created(c, IssuedAgentKeyResponse{
		AgentKeyResponse: toAgentKeyResponse(issued.AgentKeyInfo),
		Key:              issued.Key,
	})
}

// List godoc
// @ID           listAgentKeys
// @Summary      List agent keys
// @Tags         agent-keys
// @Produce      json
// @Success      200 {object} APIResponse[[]AgentKeyResponse]
// @Failure      403 {object} ErrorResponse
// @Failure      500 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /agent-keys [get]
func (h *AgentKeyHandler) List(c *gin.Context) {
	tenantID, _, ok := h.humanInTenant(c)
	if !ok {
		return
	}

	keys, err := h.keyService.List(c.Request.Context(), tenantID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	out := make([]AgentKeyResponse, len(keys))
	for i, k := range keys {
		out[i] = toAgentKeyResponse(k)
	}
	h.Success(c, out)
}

// Revoke godoc
// @ID           revokeAgentKey
// @Summary      Revoke an agent key
// @Tags         agent-keys
// @Param        id path int true "Key ID"
// @Success      204
// @Failure      400 {object} ErrorResponse
// @Failure      403 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Failure      500 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /agent-keys/{id} [delete]
func (h *AgentKeyHandler) Revoke(c *gin.Context) {
	tenantID, _, ok := h.humanInTenant(c)
	if !ok {
		return
	}
	keyID, ok := h.pathID(c, "id")
	if !ok {
		return
	}

	if err := h.keyService.Revoke(c.Request.Context(), tenantID, keyID); err != nil {
		h.HandleError(c, err)
		return
	}

	h.NoContent(c)
}

// humanInTenant returns the active tenant and user of a human caller.
// Agents manage no keys.
func (h *AgentKeyHandler) humanInTenant(c *gin.Context) (tenantID, userID int64, ok bool) {
	principal, ok := h.principal(c)
	if !ok {
		return 0, 0, false
	}
	if principal.IsAgent() {
		h.HandleError(c, domain.ErrAgentNotAllowed)
		return 0, 0, false
	}
	tenantID, ok = principal.TenantID()
	if !ok {
		h.HandleError(c, domain.ErrNoActiveTenant)
		return 0, 0, false
	}
	return tenantID, principal.UserID(), true
}
