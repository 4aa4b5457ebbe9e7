package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/marketbay/commerce-api/internal/core/domain"
)

const (
	refreshPrefix   = "refresh_token:"
	blacklistPrefix = "blacklist:"
)

// TokenStore is the Redis-backed revocation store. A refresh jti maps to its
// owning account id for the token's lifetime; deleting the key revokes the
// session regardless of the token's cryptographic expiry. Revoked access
// jtis sit on a blacklist keyed for their remaining life.
type TokenStore struct {
	client *redis.Client
}

// NewTokenStore wraps the given Redis client.
func NewTokenStore(client *redis.Client) *TokenStore {
	return &TokenStore{client: client}
}

// SaveRefresh records jti -> accountID with the refresh TTL.
func (s *TokenStore) SaveRefresh(ctx context.Context, jti, accountID string, ttl time.Duration) error {
	if err := s.client.Set(ctx, refreshPrefix+jti, accountID, ttl).Err(); err != nil {
		return fmt.Errorf("save refresh token: %w", err)
	}
	return nil
}

// GetRefresh returns the owning account id, or domain.ErrTokenNotFound when
// the record is absent.
func (s *TokenStore) GetRefresh(ctx context.Context, jti string) (string, error) {
	accountID, err := s.client.Get(ctx, refreshPrefix+jti).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", domain.ErrTokenNotFound
		}
		return "", fmt.Errorf("get refresh token: %w", err)
	}
	return accountID, nil
}

// DeleteRefresh revokes a refresh jti. domain.ErrTokenNotFound when nothing
// was deleted.
func (s *TokenStore) DeleteRefresh(ctx context.Context, jti string) error {
	n, err := s.client.Del(ctx, refreshPrefix+jti).Result()
	if err != nil {
		return fmt.Errorf("delete refresh token: %w", err)
	}
	if n == 0 {
		return domain.ErrTokenNotFound
	}
	return nil
}

// BlacklistAccess marks an access jti revoked for its remaining lifetime.
func (s *TokenStore) BlacklistAccess(ctx context.Context, jti string, ttl time.Duration) error {
	if err := s.client.Set(ctx, blacklistPrefix+jti, "1", ttl).Err(); err != nil {
		return fmt.Errorf("blacklist access token: %w", err)
	}
	return nil
}

// IsAccessBlacklisted reports whether the access jti has been revoked.
func (s *TokenStore) IsAccessBlacklisted(ctx context.Context, jti string) (bool, error) {
	n, err := s.client.Exists(ctx, blacklistPrefix+jti).Result()
	if err != nil {
		return false, fmt.Errorf("blacklist check: %w", err)
	}
	return n > 0, nil
}
