package identity

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/crm/backend/internal/domain/identity"
	"github.com/crm/backend/internal/domain/shared"
	"go.uber.org/zap"
)

// AgentKeyService issues and authenticates API keys for AI agents
type AgentKeyService struct {
	keyRepo identity.AgentKeyRepository
	logger  *zap.Logger
	now     func() time.Time
}

// NewAgentKeyService creates a new agent key service
func NewAgentKeyService(keyRepo identity.AgentKeyRepository, logger *zap.Logger) *AgentKeyService {
	return &AgentKeyService{
		keyRepo: keyRepo,
		logger:  logger,
		now:     time.Now,
	}
}

// IssueKey creates a key for tenantID. The plaintext is returned only here.
func (s *AgentKeyService) IssueKey(ctx context.Context, tenantID, createdBy int64, input IssueAgentKeyInput) (*IssuedAgentKey, error) {
	key, plaintext, err := identity.IssueAgentAPIKey(tenantID, createdBy, input.AgentName, input.ExpiresAt)
	if err != nil {
		return nil, err
	}
	if err := s.keyRepo.Create(ctx, key); err != nil {
		s.logger.Error("Failed to store agent key", zap.Error(err))
		return nil, err
	}

	s.logger.Info("Agent key issued",
		zap.Int64("tenant_id", tenantID),
		zap.Int64("key_id", key.ID),
		zap.String("key_prefix", key.KeyPrefix))
	return &IssuedAgentKey{AgentKeyInfo: toAgentKeyInfo(key), Key: plaintext}, nil
}

// Authenticate resolves a plaintext key. Unknown, revoked and expired keys
// all fail the same way.
func (s *AgentKeyService) Authenticate(ctx context.Context, rawKey string) (*AgentIdentity, error) {
	rawKey = strings.TrimSpace(rawKey)
	if !identity.LooksLikeAgentKey(rawKey) {
		return nil, identity.ErrInvalidAPIKey
	}

	key, err := s.keyRepo.FindByHash(ctx, identity.HashAgentKey(rawKey))
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, identity.ErrInvalidAPIKey
		}
		return nil, err
	}

	now := s.now()
	if !key.IsUsable(now) {
		s.logger.Warn("Rejected unusable agent key", zap.Int64("key_id", key.ID))
		return nil, identity.ErrInvalidAPIKey
	}

	key.MarkUsed(now)
	if err := s.keyRepo.Update(ctx, key); err != nil {
		s.logger.Warn("Failed to record agent key use", zap.Int64("key_id", key.ID), zap.Error(err))
	}

	return &AgentIdentity{
		KeyID:     key.ID,
		AgentID:   key.ID,
		TenantID:  key.TenantID,
		UserID:    key.IssuedBy(),
		AgentName: key.AgentName,
	}, nil
}

// Revoke disables a key of the tenant
func (s *AgentKeyService) Revoke(ctx context.Context, tenantID, keyID int64) error {
	key, err := s.keyRepo.FindByIDForTenant(ctx, tenantID, keyID)
	if err != nil {
		return err
	}
	if err := key.Revoke(); err != nil {
		return err
	}
	if err := s.keyRepo.Update(ctx, key); err != nil {
		return err
	}
	s.logger.Info("Agent key revoked", zap.Int64("tenant_id", tenantID), zap.Int64("key_id", keyID))
	return nil
}

// List returns the tenant's keys, newest first
func (s *AgentKeyService) List(ctx context.Context, tenantID int64) ([]AgentKeyInfo, error) {
	keys, err := s.keyRepo.ListByTenant(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	result := make([]AgentKeyInfo, 0, len(keys))
	for _, k := range keys {
		result = append(result, toAgentKeyInfo(k))
	}
	return result, nil
}
