package identity

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"time"

	"github.com/crm/backend/internal/domain/shared"
)

// AgentKeyPrefix marks plaintext agent API keys
const AgentKeyPrefix = "crm_"

// AgentAPIKey lets an AI agent call the API on behalf of a company.
// Only the SHA-256 digest of the key is stored.
type AgentAPIKey struct {
	shared.TenantAggregateRoot
	AgentName  string
	KeyPrefix  string
	KeyHash    string
	ExpiresAt  *time.Time
	LastUsedAt *time.Time
	RevokedAt  *time.Time
}

// IssueAgentAPIKey creates a key for tenantID and returns it with its plaintext.
// The plaintext is not recoverable afterwards.
func IssueAgentAPIKey(tenantID, createdBy int64, agentName string, expiresAt *time.Time) (*AgentAPIKey, string, error) {
	agentName = strings.TrimSpace(agentName)
	if agentName == "" {
		return nil, "", shared.NewDomainError("INVALID_AGENT_NAME", "Agent name cannot be empty")
	}
	if len(agentName) > 100 {
		return nil, "", shared.NewDomainError("INVALID_AGENT_NAME", "Agent name cannot exceed 100 characters")
	}
	if createdBy <= 0 {
		return nil, "", shared.NewDomainError("INVALID_OWNER", "API key owner is required")
	}
	if expiresAt != nil && !expiresAt.After(time.Now()) {
		return nil, "", shared.NewDomainError("INVALID_EXPIRY", "Expiry must be in the future")
	}

	secret := make([]byte, 16)
	if _, err := rand.Read(secret); err != nil {
		return nil, "", shared.NewDomainError("KEY_GENERATION_ERROR", "Failed to generate API key")
	}
	plaintext := AgentKeyPrefix + hex.EncodeToString(secret)

	key := &AgentAPIKey{
		TenantAggregateRoot: shared.NewTenantAggregateRootWithCreator(tenantID, createdBy),
		AgentName:           agentName,
		KeyPrefix:           plaintext[:len(AgentKeyPrefix)+8],
		KeyHash:             HashAgentKey(plaintext),
		ExpiresAt:           expiresAt,
	}
	return key, plaintext, nil
}

// HashAgentKey returns the lookup digest of a plaintext key
func HashAgentKey(plaintext string) string {
	sum := sha256.Sum256([]byte(plaintext))
	return hex.EncodeToString(sum[:])
}

// LooksLikeAgentKey reports whether token has the agent key shape
func LooksLikeAgentKey(token string) bool {
	return strings.HasPrefix(token, AgentKeyPrefix) && len(token) == len(AgentKeyPrefix)+32
}

// IsUsable reports whether the key can authenticate at now
func (k *AgentAPIKey) IsUsable(now time.Time) bool {
	if k.RevokedAt != nil {
		return false
	}
	return k.ExpiresAt == nil || now.Before(*k.ExpiresAt)
}

// MarkUsed records a successful authentication
func (k *AgentAPIKey) MarkUsed(now time.Time) {
	k.LastUsedAt = &now
}

// Revoke disables the key permanently
func (k *AgentAPIKey) Revoke() error {
	if k.RevokedAt != nil {
		return shared.NewDomainError("ALREADY_REVOKED", "API key is already revoked")
	}
	now := time.Now()
	k.RevokedAt = &now
	k.Touch()
	return nil
}

// IssuedBy returns the user accountable for the key
func (k *AgentAPIKey) IssuedBy() int64 {
	if k.CreatedBy == nil {
		return 0
	}
	return *k.CreatedBy
}
