package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/marketbay/commerce-api/internal/core/domain"
	"github.com/marketbay/commerce-api/internal/core/ports"
)

// TokenService mints and verifies the HS256 access/refresh token pair.
// Access and refresh tokens are signed with distinct secrets; the revocation
// store decides current validity independently of cryptographic expiry.
type TokenService struct {
	store         ports.TokenStore
	accessSecret  []byte
	refreshSecret []byte
	accessTTL     time.Duration
	refreshTTL    time.Duration
}

func NewTokenService(store ports.TokenStore, accessSecret, refreshSecret string, accessTTL, refreshTTL time.Duration) *TokenService {
	if accessTTL <= 0 {
		accessTTL = 15 * time.Minute
	}
	if refreshTTL <= 0 {
		refreshTTL = 14 * 24 * time.Hour
	}
	return &TokenService{
		store:         store,
		accessSecret:  []byte(accessSecret),
		refreshSecret: []byte(refreshSecret),
		accessTTL:     accessTTL,
		refreshTTL:    refreshTTL,
	}
}

type accessTokenClaims struct {
	Role       string `json:"role"`
	StoreID    string `json:"store_id,omitempty"`
	RefreshJTI string `json:"rjti"`
	jwt.RegisteredClaims
}

type refreshTokenClaims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// IssuePair mints both tokens with fresh jtis and registers the refresh jti
// in the revocation store with a matching TTL. Registration happens before
// the pair is returned, so a caller never holds a refresh token whose
// session cannot be revoked.
func (s *TokenService) IssuePair(ctx context.Context, accountID, role, storeID string) (*domain.TokenPair, error) {
	now := time.Now().UTC()
	accessJTI := uuid.NewString()
	refreshJTI := uuid.NewString()

	access := jwt.NewWithClaims(jwt.SigningMethodHS256, accessTokenClaims{
		Role:       role,
		StoreID:    storeID,
		RefreshJTI: refreshJTI,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   accountID,
			ID:        accessJTI,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.accessTTL)),
		},
	})
	accessToken, err := access.SignedString(s.accessSecret)
	if err != nil {
		return nil, fmt.Errorf("sign access token: %w", err)
	}

	refresh := jwt.NewWithClaims(jwt.SigningMethodHS256, refreshTokenClaims{
		Role: role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   accountID,
			ID:        refreshJTI,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.refreshTTL)),
		},
	})
	refreshToken, err := refresh.SignedString(s.refreshSecret)
	if err != nil {
		return nil, fmt.Errorf("sign refresh token: %w", err)
	}

	if err := s.store.SaveRefresh(ctx, refreshJTI, accountID, s.refreshTTL); err != nil {
		return nil, fmt.Errorf("register refresh token: %w", err)
	}

	return &domain.TokenPair{
		AccessToken:       accessToken,
		RefreshToken:      refreshToken,
		AccessTTLSeconds:  int(s.accessTTL / time.Second),
		RefreshTTLSeconds: int(s.refreshTTL / time.Second),
	}, nil
}

// VerifyAccess checks signature and expiry, then rejects blacklisted jtis
// with domain.ErrTokenRevoked.
func (s *TokenService) VerifyAccess(ctx context.Context, token string) (*ports.AccessClaims, error) {
	claims := &accessTokenClaims{}
	if err := s.parse(token, claims, s.accessSecret); err != nil {
		return nil, err
	}

	revoked, err := s.store.IsAccessBlacklisted(ctx, claims.ID)
	if err != nil {
		return nil, fmt.Errorf("blacklist lookup: %w", err)
	}
	if revoked {
		return nil, domain.ErrTokenRevoked
	}

	return &ports.AccessClaims{
		AccountID:  claims.Subject,
		Role:       claims.Role,
		StoreID:    claims.StoreID,
		JTI:        claims.ID,
		RefreshJTI: claims.RefreshJTI,
	}, nil
}

// VerifyRefresh checks signature and expiry, then requires the revocation
// store to hold a record for the jti that maps back to the same account.
// A missing or mismatched record means logout-before-expiry or token
// substitution; both fail as domain.ErrTokenInvalid.
func (s *TokenService) VerifyRefresh(ctx context.Context, token string) (*ports.RefreshClaims, error) {
	claims := &refreshTokenClaims{}
	if err := s.parse(token, claims, s.refreshSecret); err != nil {
		return nil, err
	}

	owner, err := s.store.GetRefresh(ctx, claims.ID)
	if err != nil {
		if errors.Is(err, domain.ErrTokenNotFound) {
			return nil, domain.ErrTokenInvalid
		}
		return nil, fmt.Errorf("refresh lookup: %w", err)
	}
	if owner != claims.Subject {
		return nil, domain.ErrTokenInvalid
	}

	return &ports.RefreshClaims{
		AccountID: claims.Subject,
		Role:      claims.Role,
		JTI:       claims.ID,
	}, nil
}

// RevokeRefresh deletes the refresh record. Callers decide whether an
// already-absent record is an error; logout treats it as one.
func (s *TokenService) RevokeRefresh(ctx context.Context, jti string) error {
	return s.store.DeleteRefresh(ctx, jti)
}

// RevokeAccess blacklists the access jti for the token's remaining lifetime.
// An already-expired token needs no blacklist entry and is a no-op.
func (s *TokenService) RevokeAccess(ctx context.Context, token string) error {
	claims := &accessTokenClaims{}
	if err := s.parse(token, claims, s.accessSecret); err != nil {
		if errors.Is(err, domain.ErrTokenExpired) {
			return nil
		}
		return err
	}

	remaining := time.Until(claims.ExpiresAt.Time)
	if remaining <= 0 {
		return nil
	}
	return s.store.BlacklistAccess(ctx, claims.ID, remaining)
}

func (s *TokenService) parse(token string, claims jwt.Claims, secret []byte) error {
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		if t.Method.Alg() != jwt.SigningMethodHS256.Alg() {
			return nil, jwt.ErrTokenSignatureInvalid
		}
		return secret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return domain.ErrTokenExpired
		}
		return domain.ErrTokenInvalid
	}
	if !parsed.Valid {
		return domain.ErrTokenInvalid
	}
	return nil
}
