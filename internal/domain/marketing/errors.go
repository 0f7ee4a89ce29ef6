package marketing

import "github.com/crm/backend/internal/domain/shared"

// Lead workflow errors
var (
	ErrLeadNotFound         = shared.NewDomainError("LEAD_NOT_FOUND", "Lead not found")
	ErrLeadAlreadyConverted = shared.NewDomainError("LEAD_ALREADY_CONVERTED", "Lead has already been converted")
	ErrNoPipelineStages     = shared.NewDomainError("NO_PIPELINE_STAGES", "No active pipeline stage is configured for this company")
	ErrInvalidLeadStatus    = shared.NewDomainError("INVALID_LEAD_STATUS", "Invalid lead status")
	ErrLeadSourceNotFound   = shared.NewDomainError("LEAD_SOURCE_NOT_FOUND", "Lead source not found")
)
