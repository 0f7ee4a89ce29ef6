package sales

import "github.com/crm/backend/internal/domain/shared"

var (
	ErrOpportunityNotFound = shared.NewDomainError("OPPORTUNITY_NOT_FOUND", "Opportunity not found")
	ErrOpportunityClosed   = shared.NewDomainError("OPPORTUNITY_CLOSED", "Opportunity is already closed")
	ErrStageNotFound       = shared.NewDomainError("PIPELINE_STAGE_NOT_FOUND", "Pipeline stage not found")
)
