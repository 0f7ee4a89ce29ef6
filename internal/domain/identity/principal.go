package identity

// PrincipalKind distinguishes human users from machine callers
type PrincipalKind string

const (
	PrincipalKindUser  PrincipalKind = "user"
	PrincipalKindAgent PrincipalKind = "agent"
)

// Principal is the authenticated actor of one request. It is built once by
// the resolver and never mutated afterwards; accessors hand out copies.
type Principal struct {
	kind     PrincipalKind
	userID   int64
	tenantID *int64
	agentID  *int64
	apiKeyID *int64
	claims   map[string]any
}

// NewUserPrincipal builds the principal of a signed-in user.
// tenantID is nil when the user has no active company.
func NewUserPrincipal(userID int64, tenantID *int64, claims map[string]any) Principal {
	return Principal{
		kind:     PrincipalKindUser,
		userID:   userID,
		tenantID: copyID(tenantID),
		claims:   copyClaims(claims),
	}
}

// NewAgentPrincipal builds the principal of an AI agent calling with an API key.
// userID is the user who issued the key and is accountable for its actions.
func NewAgentPrincipal(userID, tenantID, agentID, apiKeyID int64, claims map[string]any) Principal {
	return Principal{
		kind:     PrincipalKindAgent,
		userID:   userID,
		tenantID: &tenantID,
		agentID:  &agentID,
		apiKeyID: &apiKeyID,
		claims:   copyClaims(claims),
	}
}

// Kind returns whether the principal is a user or an agent
func (p Principal) Kind() PrincipalKind {
	return p.kind
}

// UserID returns the acting user id
func (p Principal) UserID() int64 {
	return p.userID
}

// TenantID returns the active tenant, if any
func (p Principal) TenantID() (int64, bool) {
	if p.tenantID == nil {
		return 0, false
	}
	return *p.tenantID, true
}

// TenantIDOrNil returns a copy of the active tenant pointer
func (p Principal) TenantIDOrNil() *int64 {
	return copyID(p.tenantID)
}

// IsAgent reports whether the caller authenticated with an API key
func (p Principal) IsAgent() bool {
	return p.kind == PrincipalKindAgent
}

// AgentID returns the agent id for agent principals
func (p Principal) AgentID() (int64, bool) {
	if p.agentID == nil {
		return 0, false
	}
	return *p.agentID, true
}

// APIKeyID returns the key id for agent principals
func (p Principal) APIKeyID() (int64, bool) {
	if p.apiKeyID == nil {
		return 0, false
	}
	return *p.apiKeyID, true
}

// Claim returns one raw claim value
func (p Principal) Claim(name string) (any, bool) {
	v, ok := p.claims[name]
	return v, ok
}

// Claims returns a copy of all raw claims
func (p Principal) Claims() map[string]any {
	return copyClaims(p.claims)
}

func copyID(id *int64) *int64 {
	if id == nil {
		return nil
	}
	v := *id
	return &v
}

func copyClaims(claims map[string]any) map[string]any {
	out := make(map[string]any, len(claims))
	for k, v := range claims {
		out[k] = v
	}
	return out
}
