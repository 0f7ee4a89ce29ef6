package router

import (
	"github.com/crm/backend/internal/interfaces/http/handler"
	"github.com/gin-gonic/gin"
)

// Handlers are the HTTP handlers mounted under the versioned API
type Handlers struct {
	Auth          *handler.AuthHandler
	Company       *handler.CompanyHandler
	Lead          *handler.LeadHandler
	LeadSource    *handler.LeadSourceHandler
	Customer      *handler.CustomerHandler
	Opportunity   *handler.OpportunityHandler
	PipelineStage *handler.PipelineStageHandler
	AgentKey      *handler.AgentKeyHandler
	Activity      *handler.ActivityHandler
	System        *handler.SystemHandler
}

// Guards are the middleware chains protecting route groups
type Guards struct {
	// Authenticated resolves the caller (Authenticate, ResolvePrincipal, ...)
	Authenticated []gin.HandlerFunc
	// Tenant runs after Authenticated on routes that need an active company
	Tenant []gin.HandlerFunc
	// Credentials throttles login and sign-up. Optional.
	Credentials gin.HandlerFunc
}

// CRMRoutes builds the route groups of the CRM API
func CRMRoutes(h Handlers, g Guards) []*DomainGroup {
	authenticated := g.Authenticated
	tenant := chain(g.Authenticated, g.Tenant...)

	credentials := func(fn gin.HandlerFunc) []gin.HandlerFunc {
		if g.Credentials == nil {
			return []gin.HandlerFunc{fn}
		}
		return []gin.HandlerFunc{g.Credentials, fn}
	}

	system := NewDomainGroup("system", "")
	system.GET("/health", h.System.Health)
	system.Group("system-info", "/system").
		GET("/info", h.System.GetSystemInfo).
		GET("/ping", h.System.Ping)

	auth := NewDomainGroup("auth", "/auth")
	auth.POST("/register", credentials(h.Auth.Register)...)
	auth.POST("/login", credentials(h.Auth.Login)...)
	auth.POST("/refresh", h.Auth.RefreshToken)
	auth.POST("/logout", chain(authenticated, h.Auth.Logout)...)

	me := NewDomainGroup("me", "/me").Use(authenticated...)
	me.GET("", h.Auth.GetCurrentUser)
	me.PUT("/password", h.Auth.ChangePassword)
	me.GET("/companies", h.Company.ListMyCompanies)
	me.POST("/companies", h.Company.CreateCompany)
	me.PUT("/active-company", h.Company.SwitchActiveCompany)

	companies := NewDomainGroup("companies", "/companies").Use(authenticated...)
	companies.GET("/:id", h.Company.GetCompany)
	companies.POST("/:id/members", h.Company.AddMember)
	companies.DELETE("/:id/members/:user_id", h.Company.RemoveMember)

	leads := NewDomainGroup("leads", "/leads").Use(tenant...)
	leads.POST("", h.Lead.Create)
	leads.GET("", h.Lead.List)
	leads.POST("/import", h.Lead.Import)
	leads.GET("/:id", h.Lead.GetByID)
	leads.PUT("/:id", h.Lead.Update)
	leads.DELETE("/:id", h.Lead.Delete)
	leads.POST("/:id/assign", h.Lead.Assign)
	leads.POST("/:id/status", h.Lead.ChangeStatus)
	leads.POST("/:id/score", h.Lead.RecalculateScore)
	leads.POST("/:id/convert", h.Lead.Convert)

	leadSources := NewDomainGroup("lead-sources", "/lead-sources").Use(tenant...)
	leadSources.POST("", h.LeadSource.Create)
	leadSources.GET("", h.LeadSource.List)
	leadSources.POST("/:id/deactivate", h.LeadSource.Deactivate)

	customers := NewDomainGroup("customers", "/customers").Use(tenant...)
	customers.POST("", h.Customer.Create)
	customers.GET("", h.Customer.List)
	customers.GET("/:id", h.Customer.GetByID)
	customers.PUT("/:id", h.Customer.Update)
	customers.DELETE("/:id", h.Customer.Delete)
	customers.POST("/:id/activate", h.Customer.Activate)
	customers.POST("/:id/deactivate", h.Customer.Deactivate)

	opportunities := NewDomainGroup("opportunities", "/opportunities").Use(tenant...)
	opportunities.POST("", h.Opportunity.Create)
	opportunities.GET("", h.Opportunity.List)
	opportunities.GET("/:id", h.Opportunity.GetByID)
	opportunities.PUT("/:id", h.Opportunity.Update)
	opportunities.POST("/:id/assign", h.Opportunity.Assign)
	opportunities.POST("/:id/stage", h.Opportunity.MoveToStage)
	opportunities.POST("/:id/win", h.Opportunity.MarkWon)
	opportunities.POST("/:id/lose", h.Opportunity.MarkLost)

	stages := NewDomainGroup("pipeline-stages", "/pipeline-stages").Use(tenant...)
	stages.POST("", h.PipelineStage.Create)
	stages.GET("", h.PipelineStage.List)
	stages.POST("/:id/deactivate", h.PipelineStage.Deactivate)

	agentKeys := NewDomainGroup("agent-keys", "/agent-keys").Use(tenant...)
	agentKeys.POST("", h.AgentKey.Issue)
	agentKeys.GET("", h.AgentKey.List)
	agentKeys.DELETE("/:id", h.AgentKey.Revoke)

	activity := NewDomainGroup("activity", "/activity").Use(tenant...)
	activity.GET("/:entity_type/:id", h.Activity.Timeline)

	return []*DomainGroup{
		system, auth, me, companies,
		leads, leadSources, customers, opportunities, stages, agentKeys, activity,
	}
}

// RegisterCRM mounts the CRM route groups on r
func RegisterCRM(r *Router, h Handlers, g Guards) *Router {
	for _, group := range CRMRoutes(h, g) {
		r.Register(group)
	}
	return r
}

// chain returns a fresh slice holding base followed by extra
func chain(base []gin.HandlerFunc, extra ...gin.HandlerFunc) []gin.HandlerFunc {
	out := make([]gin.HandlerFunc, 0, len(base)+len(extra))
	out = append(out, base...)
	return append(out, extra...)
}
