package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/marketbay/commerce-api/internal/core/domain"
	"github.com/marketbay/commerce-api/internal/core/ports"
	"github.com/marketbay/commerce-api/internal/pkg/password"
)

// SessionService owns login, logout, token refresh, password reset, and
// profile assembly.
type SessionService struct {
	accounts     ports.AccountRepository
	stores       ports.StoreRepository
	tokens       ports.TokenService
	otps         ports.OtpService
	tx           ports.Transactor
	email        ports.EmailSender
	emailTimeout time.Duration
	log          zerolog.Logger
}

func NewSessionService(
	accounts ports.AccountRepository,
	stores ports.StoreRepository,
	tokens ports.TokenService,
	otps ports.OtpService,
	tx ports.Transactor,
	email ports.EmailSender,
	emailTimeout time.Duration,
	log zerolog.Logger,
) *SessionService {
	if emailTimeout <= 0 {
		emailTimeout = defaultEmailTimeout
	}
	return &SessionService{
		accounts:     accounts,
		stores:       stores,
		tokens:       tokens,
		otps:         otps,
		tx:           tx,
		email:        email,
		emailTimeout: emailTimeout,
		log:          log,
	}
}

// Login authenticates by email and password and mints a session. A missing
// account and a wrong password both return ErrAuthFailed so responses carry
// no enumeration signal.
func (s *SessionService) Login(ctx context.Context, email, pass string) (*ports.LoginResult, error) {
	account, err := s.accounts.FindByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return nil, domain.ErrAuthFailed
		}
		return nil, err
	}

	ok, err := password.Verify(account.PasswordHash, pass)
	if err != nil {
		s.log.Error().Err(err).Str("account_id", account.ID).Msg("stored password hash unreadable")
		ok = false
	}
	if !ok {
		s.log.Warn().Str("email", account.Email).Msg("login failed: wrong password")
		return nil, domain.ErrAuthFailed
	}

	if !account.Verified() {
		return nil, domain.ErrEmailNotVerified
	}
	if account.Status != domain.StatusActive {
		return nil, domain.ErrAccountInactive
	}

	role, storeID, err := s.resolveRole(ctx, account.ID)
	if err != nil {
		return nil, err
	}

	pair, err := s.tokens.IssuePair(ctx, account.ID, role, storeID)
	if err != nil {
		return nil, err
	}

	return &ports.LoginResult{
		Account: ports.AccountSummary{
			ID:       account.ID,
			Username: account.Username,
			Email:    account.Email,
			Role:     role,
			StoreID:  storeID,
		},
		Tokens: pair,
	}, nil
}

// Logout revokes the presented refresh token and, when the caller also
// presents its access token, blacklists that too. A second logout with the
// same refresh token fails: its revocation record is already gone, which is
// indistinguishable from a token that was never valid.
func (s *SessionService) Logout(ctx context.Context, refreshToken, accessToken string) error {
	if strings.TrimSpace(refreshToken) == "" {
		return domain.ErrInvalidInput
	}

	claims, err := s.tokens.VerifyRefresh(ctx, refreshToken)
	if err != nil {
		return err
	}

	if err := s.tokens.RevokeRefresh(ctx, claims.JTI); err != nil {
		if errors.Is(err, domain.ErrTokenNotFound) {
			return domain.ErrTokenInvalid
		}
		return err
	}

	if accessToken = strings.TrimSpace(accessToken); accessToken != "" {
		// The session is already dead; a bad access token changes nothing.
		if err := s.tokens.RevokeAccess(ctx, accessToken); err != nil {
			s.log.Debug().Err(err).Msg("access token not blacklisted on logout")
		}
	}
	return nil
}

// Refresh exchanges a live refresh token for a brand-new pair. The old jti
// is revoked eagerly (rotation with invalidation), so a stolen refresh token
// is good for at most one exchange.
func (s *SessionService) Refresh(ctx context.Context, refreshToken string) (*domain.TokenPair, error) {
	if strings.TrimSpace(refreshToken) == "" {
		return nil, domain.ErrInvalidInput
	}

	claims, err := s.tokens.VerifyRefresh(ctx, refreshToken)
	if err != nil {
		return nil, err
	}

	account, err := s.accounts.FindByID(ctx, claims.AccountID)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			s.revokeQuietly(ctx, claims.JTI)
		}
		return nil, err
	}
	if account.Status != domain.StatusActive {
		// The session outlived the account; drop the stale record.
		s.revokeQuietly(ctx, claims.JTI)
		return nil, domain.ErrAccountInactive
	}

	role, storeID, err := s.resolveRole(ctx, account.ID)
	if err != nil {
		return nil, err
	}

	pair, err := s.tokens.IssuePair(ctx, account.ID, role, storeID)
	if err != nil {
		return nil, err
	}
	s.revokeQuietly(ctx, claims.JTI)

	return pair, nil
}

// RequestPasswordReset always returns the same success shape. The OTP is
// only issued and emailed when the account exists and is active.
func (s *SessionService) RequestPasswordReset(ctx context.Context, email string) (*ports.OtpDelivery, error) {
	emailAddr := strings.ToLower(strings.TrimSpace(email))
	delivery := &ports.OtpDelivery{Email: emailAddr, ExpiresInMinutes: s.otps.ExpiryMinutes()}

	account, err := s.accounts.FindByEmail(ctx, emailAddr)
	if err != nil {
		s.log.Debug().Str("email", emailAddr).Msg("password reset for unknown email")
		return delivery, nil
	}
	if account.Status != domain.StatusActive {
		return delivery, nil
	}

	code, _, err := s.otps.Issue(ctx, account.ID, domain.OtpPasswordReset)
	if err != nil {
		return nil, err
	}

	sendCtx, cancel := context.WithTimeout(ctx, s.emailTimeout)
	defer cancel()
	if err := s.email.SendOtp(sendCtx, emailAddr, code); err != nil {
		s.log.Error().Err(err).Str("email", emailAddr).Msg("password reset email delivery failed")
	}

	return delivery, nil
}

// ResetPassword verifies a password-reset code and stores the new
// credential hash.
func (s *SessionService) ResetPassword(ctx context.Context, email, code, newPassword string) error {
	account, err := s.accounts.FindByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		return err
	}
	if account.Status != domain.StatusActive {
		return domain.ErrAccountInactive
	}

	if err := s.otps.Verify(ctx, account.ID, domain.OtpPasswordReset, code); err != nil {
		return err
	}

	hash, err := password.Hash(newPassword)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	return s.accounts.UpdatePassword(ctx, account.ID, hash)
}

// Profile assembles the "who am I" view: account, effective role, and the
// owned store when the account is an admin.
func (s *SessionService) Profile(ctx context.Context, accountID string) (*ports.Profile, error) {
	account, err := s.accounts.FindByID(ctx, accountID)
	if err != nil {
		return nil, err
	}

	roles, err := s.accounts.RolesOf(ctx, account.ID)
	if err != nil {
		return nil, err
	}
	role := domain.EffectiveRole(roles)

	profile := &ports.Profile{Account: account, Role: role}
	if role == domain.RoleAdmin {
		store, err := s.stores.FindByOwner(ctx, account.ID)
		if err != nil && !errors.Is(err, domain.ErrStoreNotFound) {
			return nil, err
		}
		profile.Store = store
	}
	return profile, nil
}

// PromoteToStoreOwner opens a store for an active customer, grants the admin
// role, and mints a session that reflects the new role and store.
func (s *SessionService) PromoteToStoreOwner(ctx context.Context, accountID, storeName string) (*ports.StorePromotion, error) {
	account, err := s.accounts.FindByID(ctx, accountID)
	if err != nil {
		return nil, err
	}
	if account.Status != domain.StatusActive {
		return nil, domain.ErrAccountInactive
	}

	if _, err := s.stores.FindByOwner(ctx, account.ID); err == nil {
		return nil, domain.ErrStoreExists
	} else if !errors.Is(err, domain.ErrStoreNotFound) {
		return nil, err
	}

	roles, err := s.accounts.RolesOf(ctx, account.ID)
	if err != nil {
		return nil, err
	}
	if domain.EffectiveRole(roles) == domain.RoleAdmin {
		return nil, domain.ErrAlreadyAdmin
	}

	name := strings.TrimSpace(storeName)
	taken, err := s.stores.NameExists(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("check store name: %w", err)
	}
	if taken {
		return nil, domain.ErrStoreNameExists
	}

	var store *domain.Store
	err = s.tx.WithinTransaction(ctx, func(txCtx context.Context) error {
		now := time.Now().UTC()
		store, err = s.stores.Create(txCtx, &domain.Store{
			ID:        uuid.NewString(),
			OwnerID:   account.ID,
			Name:      name,
			CreatedAt: now,
			UpdatedAt: now,
		})
		if err != nil {
			return err
		}
		return s.accounts.AssignRole(txCtx, &domain.RoleAssignment{
			AccountID: account.ID,
			Role:      domain.RoleAdmin,
			CreatedAt: now,
		})
	})
	if err != nil {
		return nil, err
	}

	pair, err := s.tokens.IssuePair(ctx, account.ID, domain.RoleAdmin, store.ID)
	if err != nil {
		return nil, err
	}

	s.log.Info().Str("account_id", account.ID).Str("store", store.Name).Msg("account promoted to store owner")

	return &ports.StorePromotion{
		Store: store,
		Account: ports.AccountSummary{
			ID:       account.ID,
			Username: account.Username,
			Email:    account.Email,
			Role:     domain.RoleAdmin,
			StoreID:  store.ID,
		},
		Tokens: pair,
	}, nil
}

func (s *SessionService) resolveRole(ctx context.Context, accountID string) (role, storeID string, err error) {
	roles, err := s.accounts.RolesOf(ctx, accountID)
	if err != nil {
		return "", "", err
	}
	role = domain.EffectiveRole(roles)
	if role != domain.RoleAdmin {
		return role, "", nil
	}

	store, err := s.stores.FindByOwner(ctx, accountID)
	if err != nil {
		if errors.Is(err, domain.ErrStoreNotFound) {
			return role, "", nil
		}
		return "", "", err
	}
	return role, store.ID, nil
}

func (s *SessionService) revokeQuietly(ctx context.Context, jti string) {
	if err := s.tokens.RevokeRefresh(ctx, jti); err != nil && !errors.Is(err, domain.ErrTokenNotFound) {
		s.log.Error().Err(err).Str("jti", jti).Msg("refresh token revocation failed")
	}
}
