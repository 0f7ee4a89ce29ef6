package auth

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

const blacklistKeyPrefix = "crm:token:blacklist:"

// TokenBlacklist revokes tokens before they expire. Revocation is either
// per token (logout) or per user for every token issued before a moment
// (password change). Timestamps have JWT precision: whole seconds.
type TokenBlacklist interface {
	// Revoke blocks one token ID for ttl, normally its remaining lifetime
	Revoke(ctx context.Context, jti string, ttl time.Duration) error

	// RevokeIssuedBefore blocks every token of userID issued strictly before at.
	// ttl should cover the longest token lifetime.
	RevokeIssuedBefore(ctx context.Context, userID int64, at time.Time, ttl time.Duration) error

	// IsRevoked reports whether the token identified by jti, issued to
	// userID at issuedAt, has been revoked by either rule
	IsRevoked(ctx context.Context, jti string, userID int64, issuedAt time.Time) (bool, error)
}

// RedisTokenBlacklist shares revocations between replicas through Redis
type RedisTokenBlacklist struct {
	client    *redis.Client
	keyPrefix string
}

// NewRedisTokenBlacklist creates a blacklist on an existing Redis client.
// The client is owned by the caller.
func NewRedisTokenBlacklist(client *redis.Client) *RedisTokenBlacklist {
	return &RedisTokenBlacklist{client: client, keyPrefix: blacklistKeyPrefix}
}

func (b *RedisTokenBlacklist) jtiKey(jti string) string {
	return b.keyPrefix + "jti:" + jti
}

func (b *RedisTokenBlacklist) userKey(userID int64) string {
	return b.keyPrefix + "user:" + strconv.FormatInt(userID, 10)
}

// Revoke implements TokenBlacklist
func (b *RedisTokenBlacklist) Revoke(ctx context.Context, jti string, ttl time.Duration) error {
	if err := b.client.Set(ctx, b.jtiKey(jti), "1", ttl).Err(); err != nil {
		return fmt.Errorf("revoke token: %w", err)
	}
	return nil
}

// RevokeIssuedBefore implements TokenBlacklist
func (b *RedisTokenBlacklist) RevokeIssuedBefore(ctx context.Context, userID int64, at time.Time, ttl time.Duration) error {
	if err := b.client.Set(ctx, b.userKey(userID), at.Unix(), ttl).Err(); err != nil {
		return fmt.Errorf("revoke user tokens: %w", err)
	}
	return nil
}

// IsRevoked implements TokenBlacklist with a single round trip
func (b *RedisTokenBlacklist) IsRevoked(ctx context.Context, jti string, userID int64, issuedAt time.Time) (bool, error) {
	var (
		exists *redis.IntCmd
		cutoff *redis.StringCmd
	)
	_, err := b.client.Pipelined(ctx, func(p redis.Pipeliner) error {
		exists = p.Exists(ctx, b.jtiKey(jti))
		cutoff = p.Get(ctx, b.userKey(userID))
		return nil
	})
	if err != nil && !errors.Is(err, redis.Nil) {
		return false, fmt.Errorf("check token blacklist: %w", err)
	}
	if exists.Val() > 0 {
		return true, nil
	}

	revokedAt, err := cutoff.Int64()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("check token blacklist: %w", err)
	}
	return issuedAt.Unix() < revokedAt, nil
}

var _ TokenBlacklist = (*RedisTokenBlacklist)(nil)

// InMemoryTokenBlacklist keeps revocations in process memory.
// It serves tests and single-replica deployments without Redis.
type InMemoryTokenBlacklist struct {
	mu        sync.Mutex
	tokens    map[string]time.Time // jti -> expiry
	users     map[int64]memoryCutoff
	now       func() time.Time
	lastPrune time.Time
}

type memoryCutoff struct {
	before    int64
	expiresAt time.Time
}

// NewInMemoryTokenBlacklist creates an empty in-memory blacklist
func NewInMemoryTokenBlacklist() *InMemoryTokenBlacklist {
	return &InMemoryTokenBlacklist{
		tokens: make(map[string]time.Time),
		users:  make(map[int64]memoryCutoff),
		now:    time.Now,
	}
}

// Revoke implements TokenBlacklist
func (b *InMemoryTokenBlacklist) Revoke(_ context.Context, jti string, ttl time.Duration) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	now := b.now()
	b.pruneLocked(now)
	b.tokens[jti] = now.Add(ttl)
	return nil
}

// RevokeIssuedBefore implements TokenBlacklist
func (b *InMemoryTokenBlacklist) RevokeIssuedBefore(_ context.Context, userID int64, at time.Time, ttl time.Duration) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	now := b.now()
	b.pruneLocked(now)
	b.users[userID] = memoryCutoff{before: at.Unix(), expiresAt: now.Add(ttl)}
	return nil
}

// IsRevoked implements TokenBlacklist
func (b *InMemoryTokenBlacklist) IsRevoked(_ context.Context, jti string, userID int64, issuedAt time.Time) (bool, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	now := b.now()
	if exp, ok := b.tokens[jti]; ok && now.Before(exp) {
		return true, nil
	}
	if c, ok := b.users[userID]; ok && now.Before(c.expiresAt) {
		return issuedAt.Unix() < c.before, nil
	}
	return false, nil
}

// Len returns the number of live entries
func (b *InMemoryTokenBlacklist) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()

	now, n := b.now(), 0
	for _, exp := range b.tokens {
		if now.Before(exp) {
			n++
		}
	}
	for _, c := range b.users {
		if now.Before(c.expiresAt) {
			n++
		}
	}
	return n
}

// pruneLocked drops expired entries at most once a minute
func (b *InMemoryTokenBlacklist) pruneLocked(now time.Time) {
	if now.Sub(b.lastPrune) < time.Minute {
		return
	}
	b.lastPrune = now
	for jti, exp := range b.tokens {
		if !now.Before(exp) {
			delete(b.tokens, jti)
		}
	}
	for id, c := range b.users {
		if !now.Before(c.expiresAt) {
			delete(b.users, id)
		}
	}
}

var _ TokenBlacklist = (*InMemoryTokenBlacklist)(nil)
