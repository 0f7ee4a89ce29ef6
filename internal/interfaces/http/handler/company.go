package handler

import (
	"context"

	"github.com/crm/backend/internal/application/identity"
	domain "github.com/crm/backend/internal/domain/identity"
	"github.com/gin-gonic/gin"
)

// CompanyService is the membership surface used by CompanyHandler
type CompanyService interface {
	CreateCompany(ctx context.Context, userID int64, input identity.CreateCompanyInput) (*identity.CompanyInfo, error)
	SwitchActiveCompany(ctx context.Context, userID, companyID int64) error
	ListMemberships(ctx context.Context, userID int64) ([]identity.MembershipInfo, error)
	GetCompany(ctx context.Context, userID, companyID int64) (*identity.CompanyInfo, error)
	AddMember(ctx context.Context, companyID, userID int64) error
	RemoveMember(ctx context.Context, companyID, userID int64) error
}

// CompanyHandler handles company onboarding and membership requests
type CompanyHandler struct {
	BaseHandler
	companyService CompanyService
}

// NewCompanyHandler creates a new company handler
func NewCompanyHandler(companyService CompanyService) *CompanyHandler {
	return &CompanyHandler{companyService: companyService}
}

// ListMyCompanies godoc
// @ID           listMyCompanies
// @Summary      List my companies
// @Description  List the companies the caller belongs to, marking the active one
// @Tags         companies
// @Produce      json
// @Success      200 {object} APIResponse[[]MembershipResponse]
// @Failure      401 {object} ErrorResponse
// @Failure      500 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /me/companies [get]
func (h *CompanyHandler) ListMyCompanies(c *gin.Context) {
	principal, ok := h.principal(c)
	if !ok {
		return
	}

	memberships, err := h.companyService.ListMemberships(c.Request.Context(), principal.UserID())
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, toMembershipResponses(memberships))
}

// CreateCompany godoc
// @ID           createCompany
// @Summary      Create a company
// @Description  Create a company owned by the caller. It becomes the caller's active company
// @Description  when the caller had none.
// @Tags         companies
// @Accept       json
// @Produce      json
// @Param        request body CreateCompanyRequest true "Company details"
// @Success      201 {object} APIResponse[CompanyResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      401 {object} ErrorResponse
// @Failure      500 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /me/companies [post]
func (h *CompanyHandler) CreateCompany(c *gin.Context) {
	principal, ok := h.principal(c)
	if !ok {
		return
	}
	if principal.IsAgent() {
		h.HandleError(c, domain.ErrAgentNotAllowed)
		return
	}

	var req CreateCompanyRequest
	if !h.bindJSON(c, &req) {
		return
	}

	company, err := h.companyService.CreateCompany(c.Request.Context(), principal.UserID(), identity.CreateCompanyInput{
		Name:        req.Name,
		Description: req.Description,
		Industry:    req.Industry,
		Website:     req.Website,
		Email:       req.Email,
		Phone:       req.Phone,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Created(c, toCompanyResponse(*company))
}

// SwitchActiveCompany godoc
// @ID           switchActiveCompany
// @Summary      Switch active company
// @Description  Make one of the caller's companies the active tenant
// @Tags         companies
// @Accept       json
// @Produce      json
// @Param        request body SwitchCompanyRequest true "Company to activate"
// @Success      200 {object} APIResponse[ActiveCompanyResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      401 {object} ErrorResponse
// @Failure      403 {object} ErrorResponse
// @Failure      500 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /me/active-company [put]
func (h *CompanyHandler) SwitchActiveCompany(c *gin.Context) {
	principal, ok := h.principal(c)
	if !ok {
		return
	}
	if principal.IsAgent() {
		h.HandleError(c, domain.ErrAgentNotAllowed)
		return
	}

	var req SwitchCompanyRequest
	if !h.bindJSON(c, &req) {
		return
	}

	if err := h.companyService.SwitchActiveCompany(c.Request.Context(), principal.UserID(), req.CompanyID); err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, ActiveCompanyResponse{ActiveCompanyID: req.CompanyID})
}

// GetCompany godoc
// @ID           getCompany
// @Summary      Get a company
// @Description  Get a company the caller is a member of
// @Tags         companies
// @Produce      json
// @Param        id path int true "Company ID"
// @Success      200 {object} APIResponse[CompanyResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      403 {object} ErrorResponse
// @Failure      500 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /companies/{id} [get]
func (h *CompanyHandler) GetCompany(c *gin.Context) {
	principal, ok := h.principal(c)
	if !ok {
		return
	}
	companyID, ok := h.pathID(c, "id")
	if !ok {
		return
	}

	company, err := h.companyService.GetCompany(c.Request.Context(), principal.UserID(), companyID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, toCompanyResponse(*company))
}

// AddMember godoc
// @ID           addCompanyMember
// @Summary      Add a member
// @Description  Grant a user membership in a company owned by the caller
// @Tags         companies
// @Accept       json
// @Produce      json
// @Param        id path int true "Company ID"
// @Param        request body AddMemberRequest true "User to add"
// @Success      204
// @Failure      400 {object} ErrorResponse
// @Failure      403 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Failure      500 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /companies/{id}/members [post]
func (h *CompanyHandler) AddMember(c *gin.Context) {
	companyID, ok := h.requireOwner(c)
	if !ok {
		return
	}

	var req AddMemberRequest
	if !h.bindJSON(c, &req) {
		return
	}

	if err := h.companyService.AddMember(c.Request.Context(), companyID, req.UserID); err != nil {
		h.HandleError(c, err)
		return
	}

	h.NoContent(c)
}

// RemoveMember godoc
// @ID           removeCompanyMember
// @Summary      Remove a member
// @Description  End a user's membership in a company owned by the caller
// @Tags         companies
// @Produce      json
// @Param        id path int true "Company ID"
// @Param        user_id path int true "User ID"
// @Success      204
// @Failure      400 {object} ErrorResponse
// @Failure      403 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Failure      500 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /companies/{id}/members/{user_id} [delete]
func (h *CompanyHandler) RemoveMember(c *gin.Context) {
	companyID, ok := h.requireOwner(c)
	if !ok {
		return
	}
	userID, ok := h.pathID(c, "user_id")
	if !ok {
		return
	}

	if err := h.companyService.RemoveMember(c.Request.Context(), companyID, userID); err != nil {
		h.HandleError(c, err)
		return
	}

	h.NoContent(c)
}

// requireOwner resolves the :id company and answers 403 unless the
// caller is a human member who owns it.
func (h *CompanyHandler) requireOwner(c *gin.Context) (int64, bool) {
	principal, ok := h.principal(c)
	if !ok {
		return 0, false
	}
	if principal.IsAgent() {
		h.HandleError(c, domain.ErrAgentNotAllowed)
		return 0, false
	}
	companyID, ok := h.pathID(c, "id")
	if !ok {
		return 0, false
	}

	company, err := h.companyService.GetCompany(c.Request.Context(), principal.UserID(), companyID)
	if err != nil {
		h.HandleError(c, err)
		return 0, false
	}
	if company.OwnerUserID != principal.UserID() {
		h.HandleError(c, domain.ErrNotOwner)
		return 0, false
	}
	return companyID, true
}
