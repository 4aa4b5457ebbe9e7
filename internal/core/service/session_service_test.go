package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/marketbay/commerce-api/internal/core/domain"
	"github.com/marketbay/commerce-api/internal/pkg/password"
)

type sessionFixture struct {
	accounts   *stubAccountRepo
	stores     *stubStoreRepo
	otpRepo    *stubOtpRepo
	tokenStore *fakeTokenStore
	email      *recordingEmail
	svc        *SessionService
}

func newSessionFixture() *sessionFixture {
	accounts := newStubAccountRepo()
	stores := newStubStoreRepo()
	otpRepo := &stubOtpRepo{}
	tokenStore := newFakeTokenStore()
	email := &recordingEmail{}

	svc := NewSessionService(
		accounts,
		stores,
		newTokenService(tokenStore),
		newOtpService(otpRepo),
		stubTransactor{},
		email,
		time.Second,
		zerolog.Nop(),
	)
	return &sessionFixture{
		accounts:   accounts,
		stores:     stores,
		otpRepo:    otpRepo,
		tokenStore: tokenStore,
		email:      email,
		svc:        svc,
	}
}

// seedAccount creates a verified active customer unless mutated afterwards.
func (f *sessionFixture) seedAccount(t *testing.T, email, pass string) *domain.Account {
	t.Helper()

	hash, err := password.Hash(pass)
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	now := time.Now().UTC()
	account := &domain.Account{
		ID:              uuid.NewString(),
		Username:        "user-" + email,
		Email:           email,
		PasswordHash:    hash,
		EmailVerifiedAt: &now,
		Status:          domain.StatusActive,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if _, err := f.accounts.Create(context.Background(), account); err != nil {
		t.Fatalf("seed account: %v", err)
	}
	f.accounts.roles[account.ID] = []domain.RoleAssignment{
		{AccountID: account.ID, Role: domain.RoleCustomer, CreatedAt: now},
	}
	return account
}

func TestLogin_Success(t *testing.T) {
	f := newSessionFixture()
	account := f.seedAccount(t, "alice@example.com", "s3cret-pass")

	result, err := f.svc.Login(context.Background(), "alice@example.com", "s3cret-pass")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if result.Account.ID != account.ID || result.Account.Role != domain.RoleCustomer {
		t.Fatalf("unexpected summary: %+v", result.Account)
	}
	if result.Tokens.AccessToken == "" || result.Tokens.RefreshToken == "" {
		t.Fatalf("missing tokens")
	}

	// The refresh jti must be registered to the account in the cache.
	claims, err := f.svc.tokens.VerifyRefresh(context.Background(), result.Tokens.RefreshToken)
	if err != nil {
		t.Fatalf("VerifyRefresh: %v", err)
	}
	if f.tokenStore.refresh[claims.JTI] != account.ID {
		t.Fatalf("refresh jti not mapped to account")
	}
}

func TestLogin_AdminCarriesStoreID(t *testing.T) {
	f := newSessionFixture()
	account := f.seedAccount(t, "root@example.com", "s3cret-pass")
	f.accounts.roles[account.ID] = append(f.accounts.roles[account.ID],
		domain.RoleAssignment{AccountID: account.ID, Role: domain.RoleAdmin})
	store, err := f.stores.Create(context.Background(), &domain.Store{
		ID: uuid.NewString(), OwnerID: account.ID, Name: "Acme",
	})
	if err != nil {
		t.Fatalf("seed store: %v", err)
	}

	result, err := f.svc.Login(context.Background(), "root@example.com", "s3cret-pass")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if result.Account.Role != domain.RoleAdmin || result.Account.StoreID != store.ID {
		t.Fatalf("unexpected summary: %+v", result.Account)
	}
}

func TestLogin_WrongPasswordAndUnknownEmailIndistinguishable(t *testing.T) {
	f := newSessionFixture()
	f.seedAccount(t, "bob@example.com", "s3cret-pass")

	_, errWrong := f.svc.Login(context.Background(), "bob@example.com", "nope")
	_, errGhost := f.svc.Login(context.Background(), "ghost@example.com", "nope")

	if !errors.Is(errWrong, domain.ErrAuthFailed) || !errors.Is(errGhost, domain.ErrAuthFailed) {
		t.Fatalf("expected ErrAuthFailed for both, got %v and %v", errWrong, errGhost)
	}
}

func TestLogin_Unverified(t *testing.T) {
	f := newSessionFixture()
	account := f.seedAccount(t, "carol@example.com", "s3cret-pass")
	f.accounts.accounts[account.ID].EmailVerifiedAt = nil
	f.accounts.accounts[account.ID].Status = domain.StatusPending

	if _, err := f.svc.Login(context.Background(), "carol@example.com", "s3cret-pass"); !errors.Is(err, domain.ErrEmailNotVerified) {
		t.Fatalf("expected ErrEmailNotVerified, got %v", err)
	}
}

func TestLogin_Inactive(t *testing.T) {
	f := newSessionFixture()
	account := f.seedAccount(t, "dave@example.com", "s3cret-pass")
	f.accounts.accounts[account.ID].Status = domain.StatusSuspended

	if _, err := f.svc.Login(context.Background(), "dave@example.com", "s3cret-pass"); !errors.Is(err, domain.ErrAccountInactive) {
		t.Fatalf("expected ErrAccountInactive, got %v", err)
	}
}

func TestLogout_ThenSecondLogoutFails(t *testing.T) {
	f := newSessionFixture()
	f.seedAccount(t, "erin@example.com", "s3cret-pass")

	result, err := f.svc.Login(context.Background(), "erin@example.com", "s3cret-pass")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}

	if err := f.svc.Logout(context.Background(), result.Tokens.RefreshToken, ""); err != nil {
		t.Fatalf("Logout: %v", err)
	}
	if len(f.tokenStore.refresh) != 0 {
		t.Fatalf("refresh record survived logout")
	}

	// Logout is not idempotent: the record is gone, so the token no longer
	// verifies.
	if err := f.svc.Logout(context.Background(), result.Tokens.RefreshToken, ""); !errors.Is(err, domain.ErrTokenInvalid) {
		t.Fatalf("expected ErrTokenInvalid on second logout, got %v", err)
	}
}

func TestLogout_BlacklistsAccessToken(t *testing.T) {
	f := newSessionFixture()
	f.seedAccount(t, "oscar@example.com", "s3cret-pass")

	result, err := f.svc.Login(context.Background(), "oscar@example.com", "s3cret-pass")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}

	if _, err := f.svc.tokens.VerifyAccess(context.Background(), result.Tokens.AccessToken); err != nil {
		t.Fatalf("access token rejected before logout: %v", err)
	}

	if err := f.svc.Logout(context.Background(), result.Tokens.RefreshToken, result.Tokens.AccessToken); err != nil {
		t.Fatalf("Logout: %v", err)
	}

	if _, err := f.svc.tokens.VerifyAccess(context.Background(), result.Tokens.AccessToken); !errors.Is(err, domain.ErrTokenRevoked) {
		t.Fatalf("expected ErrTokenRevoked after logout, got %v", err)
	}
}

func TestLogout_EmptyToken(t *testing.T) {
	f := newSessionFixture()
	if err := f.svc.Logout(context.Background(), "  ", ""); !errors.Is(err, domain.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}

func TestRefresh_RotatesAndRevokesOld(t *testing.T) {
	f := newSessionFixture()
	f.seedAccount(t, "frank@example.com", "s3cret-pass")

	result, err := f.svc.Login(context.Background(), "frank@example.com", "s3cret-pass")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}

	pair, err := f.svc.Refresh(context.Background(), result.Tokens.RefreshToken)
	if err != nil {
		t.Fatalf("Refresh: %v", err)
	}
	if pair.RefreshToken == result.Tokens.RefreshToken {
		t.Fatalf("refresh token not rotated")
	}

	// The old token was revoked on rotation; replaying it fails.
	if _, err := f.svc.Refresh(context.Background(), result.Tokens.RefreshToken); !errors.Is(err, domain.ErrTokenInvalid) {
		t.Fatalf("expected ErrTokenInvalid for replayed token, got %v", err)
	}

	// The new one still works.
	if _, err := f.svc.Refresh(context.Background(), pair.RefreshToken); err != nil {
		t.Fatalf("fresh refresh token rejected: %v", err)
	}
}

func TestRefresh_InactiveAccountRevokes(t *testing.T) {
	f := newSessionFixture()
	account := f.seedAccount(t, "grace@example.com", "s3cret-pass")

	result, err := f.svc.Login(context.Background(), "grace@example.com", "s3cret-pass")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}

	f.accounts.accounts[account.ID].Status = domain.StatusBlocked

	if _, err := f.svc.Refresh(context.Background(), result.Tokens.RefreshToken); !errors.Is(err, domain.ErrAccountInactive) {
		t.Fatalf("expected ErrAccountInactive, got %v", err)
	}
	if len(f.tokenStore.refresh) != 0 {
		t.Fatalf("stale refresh record not revoked")
	}
}

func TestRequestPasswordReset_NoEnumeration(t *testing.T) {
	f := newSessionFixture()
	f.seedAccount(t, "hana@example.com", "s3cret-pass")

	known, err := f.svc.RequestPasswordReset(context.Background(), "hana@example.com")
	if err != nil {
		t.Fatalf("RequestPasswordReset: %v", err)
	}
	unknown, err := f.svc.RequestPasswordReset(context.Background(), "ghost@example.com")
	if err != nil {
		t.Fatalf("RequestPasswordReset: %v", err)
	}

	if known.ExpiresInMinutes != unknown.ExpiresInMinutes {
		t.Fatalf("response shapes differ: %+v vs %+v", known, unknown)
	}
	// Only the existing account got an email.
	if len(f.email.sent) != 1 {
		t.Fatalf("expected exactly one email, got %d", len(f.email.sent))
	}
}

func TestResetPassword_Success(t *testing.T) {
	f := newSessionFixture()
	f.seedAccount(t, "ivan@example.com", "old-password")

	if _, err := f.svc.RequestPasswordReset(context.Background(), "ivan@example.com"); err != nil {
		t.Fatalf("RequestPasswordReset: %v", err)
	}
	code := f.email.sent[0][len("ivan@example.com")+1:]

	if err := f.svc.ResetPassword(context.Background(), "ivan@example.com", code, "new-password"); err != nil {
		t.Fatalf("ResetPassword: %v", err)
	}

	if _, err := f.svc.Login(context.Background(), "ivan@example.com", "old-password"); !errors.Is(err, domain.ErrAuthFailed) {
		t.Fatalf("old password still works")
	}
	if _, err := f.svc.Login(context.Background(), "ivan@example.com", "new-password"); err != nil {
		t.Fatalf("new password rejected: %v", err)
	}
}

func TestResetPassword_WrongCode(t *testing.T) {
	f := newSessionFixture()
	f.seedAccount(t, "judy@example.com", "s3cret-pass")

	if _, err := f.svc.RequestPasswordReset(context.Background(), "judy@example.com"); err != nil {
		t.Fatalf("RequestPasswordReset: %v", err)
	}

	if err := f.svc.ResetPassword(context.Background(), "judy@example.com", "000000", "new-password"); !errors.Is(err, domain.ErrInvalidOtp) {
		t.Fatalf("expected ErrInvalidOtp, got %v", err)
	}
}

func TestProfile(t *testing.T) {
	f := newSessionFixture()
	account := f.seedAccount(t, "kate@example.com", "s3cret-pass")

	profile, err := f.svc.Profile(context.Background(), account.ID)
	if err != nil {
		t.Fatalf("Profile: %v", err)
	}
	if profile.Account.ID != account.ID || profile.Role != domain.RoleCustomer || profile.Store != nil {
		t.Fatalf("unexpected profile: %+v", profile)
	}

	if _, err := f.svc.Profile(context.Background(), "ghost"); !errors.Is(err, domain.ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}
}

func TestPromoteToStoreOwner(t *testing.T) {
	f := newSessionFixture()
	account := f.seedAccount(t, "liam@example.com", "s3cret-pass")

	promotion, err := f.svc.PromoteToStoreOwner(context.Background(), account.ID, "Liam Goods")
	if err != nil {
		t.Fatalf("PromoteToStoreOwner: %v", err)
	}
	if promotion.Store.OwnerID != account.ID {
		t.Fatalf("store owner mismatch")
	}
	if promotion.Account.Role != domain.RoleAdmin || promotion.Account.StoreID != promotion.Store.ID {
		t.Fatalf("unexpected summary: %+v", promotion.Account)
	}

	claims, err := f.svc.tokens.VerifyAccess(context.Background(), promotion.Tokens.AccessToken)
	if err != nil {
		t.Fatalf("VerifyAccess: %v", err)
	}
	if claims.Role != domain.RoleAdmin || claims.StoreID != promotion.Store.ID {
		t.Fatalf("new token missing promoted claims: %+v", claims)
	}

	// A second promotion is rejected.
	if _, err := f.svc.PromoteToStoreOwner(context.Background(), account.ID, "Another"); !errors.Is(err, domain.ErrStoreExists) {
		t.Fatalf("expected ErrStoreExists, got %v", err)
	}
}
