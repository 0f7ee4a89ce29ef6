package identity

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPrincipal_Immutability(t *testing.T) {
	tenant := int64(6)
	claims := map[string]any{"sub": "7"}
	p := NewUserPrincipal(7, &tenant, claims)

	tenant = 99
	claims["sub"] = "8"

	got, ok := p.TenantID()
	assert.True(t, ok)
	assert.Equal(t, int64(6), got)
	sub, _ := p.Claim("sub")
	assert.Equal(t, "7", sub)

	ptr := p.TenantIDOrNil()
	*ptr = 1
	got, _ = p.TenantID()
	assert.Equal(t, int64(6), got)

	all := p.Claims()
	all["sub"] = "x"
	sub, _ = p.Claim("sub")
	assert.Equal(t, "7", sub)
}

func TestPrincipal_Kinds(t *testing.T) {
	user := NewUserPrincipal(7, nil, nil)
	assert.Equal(t, PrincipalKindUser, user.Kind())
	assert.False(t, user.IsAgent())
	_, ok := user.TenantID()
	assert.False(t, ok)
	_, ok = user.AgentID()
	assert.False(t, ok)

	agent := NewAgentPrincipal(7, 6, 3, 11, nil)
	assert.True(t, agent.IsAgent())
	tenant, ok := agent.TenantID()
	assert.True(t, ok)
	assert.Equal(t, int64(6), tenant)
	agentID, _ := agent.AgentID()
	keyID, _ := agent.APIKeyID()
	assert.Equal(t, int64(3), agentID)
	assert.Equal(t, int64(11), keyID)
}
