package identity

import (
	"encoding/json"
	"strconv"
	"strings"
)

// Claim names understood by the CRM
const (
	ClaimUserID    = "user_id"
	ClaimSubject   = "sub"
	ClaimTenantID  = "tenant_id"
	ClaimUsername  = "username"
	ClaimAuthType  = "auth_type"
	ClaimAgentID   = "agent_id"
	ClaimAPIKeyID  = "api_key_id"
	ClaimCompanyID = "company_id"

	AuthTypeAPIKey = "api_key"
)

// ParseNumericID converts a raw claim value into a positive id.
// Claims decoded from JSON arrive as json.Number, float64 or string.
func ParseNumericID(v any) (int64, bool) {
	var id int64
	switch val := v.(type) {
	case int64:
		id = val
	case int:
		id = int64(val)
	case float64:
		if val != float64(int64(val)) {
			return 0, false
		}
		id = int64(val)
	case json.Number:
		n, err := val.Int64()
		if err != nil {
			return 0, false
		}
		id = n
	case string:
		n, err := strconv.ParseInt(strings.TrimSpace(val), 10, 64)
		if err != nil {
			return 0, false
		}
		id = n
	default:
		return 0, false
	}
	if id <= 0 {
		return 0, false
	}
	return id, true
}
