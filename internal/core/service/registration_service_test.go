package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/marketbay/commerce-api/internal/core/domain"
	"github.com/marketbay/commerce-api/internal/core/ports"
)

type stubAccountRepo struct {
	accounts map[string]*domain.Account // by id
	roles    map[string][]domain.RoleAssignment
}

func newStubAccountRepo() *stubAccountRepo {
	return &stubAccountRepo{
		accounts: make(map[string]*domain.Account),
		roles:    make(map[string][]domain.RoleAssignment),
	}
}

func cloneAccount(a *domain.Account) *domain.Account {
	if a == nil {
		return nil
	}
	clone := *a
	return &clone
}

func (r *stubAccountRepo) Create(_ context.Context, account *domain.Account) (*domain.Account, error) {
	for _, a := range r.accounts {
		if a.Email == account.Email && a.DeletedAt == nil {
			return nil, domain.ErrEmailExists
		}
	}
	r.accounts[account.ID] = cloneAccount(account)
	return cloneAccount(account), nil
}

func (r *stubAccountRepo) FindByID(_ context.Context, id string) (*domain.Account, error) {
	a, ok := r.accounts[id]
	if !ok || a.DeletedAt != nil {
		return nil, domain.ErrUserNotFound
	}
	return cloneAccount(a), nil
}

func (r *stubAccountRepo) FindByEmail(_ context.Context, email string) (*domain.Account, error) {
	for _, a := range r.accounts {
		if a.Email == email && a.DeletedAt == nil {
			return cloneAccount(a), nil
		}
	}
	return nil, domain.ErrUserNotFound
}

func (r *stubAccountRepo) EmailExists(_ context.Context, email string) (bool, error) {
	for _, a := range r.accounts {
		if a.Email == email && a.DeletedAt == nil {
			return true, nil
		}
	}
	return false, nil
}

func (r *stubAccountRepo) UpdatePassword(_ context.Context, id, passwordHash string) error {
	a, ok := r.accounts[id]
	if !ok {
		return domain.ErrUserNotFound
	}
	a.PasswordHash = passwordHash
	return nil
}

func (r *stubAccountRepo) MarkVerified(_ context.Context, id string) error {
	a, ok := r.accounts[id]
	if !ok {
		return domain.ErrUserNotFound
	}
	now := time.Now().UTC()
	a.EmailVerifiedAt = &now
	a.Status = domain.StatusActive
	return nil
}

func (r *stubAccountRepo) AssignRole(_ context.Context, assignment *domain.RoleAssignment) error {
	r.roles[assignment.AccountID] = append(r.roles[assignment.AccountID], *assignment)
	return nil
}

func (r *stubAccountRepo) RolesOf(_ context.Context, accountID string) ([]domain.RoleAssignment, error) {
	return r.roles[accountID], nil
}

type stubStoreRepo struct {
	stores map[string]*domain.Store // by owner
}

func newStubStoreRepo() *stubStoreRepo {
	return &stubStoreRepo{stores: make(map[string]*domain.Store)}
}

func (r *stubStoreRepo) Create(_ context.Context, store *domain.Store) (*domain.Store, error) {
	for _, s := range r.stores {
		if s.Name == store.Name {
			return nil, domain.ErrStoreNameExists
		}
	}
	clone := *store
	r.stores[store.OwnerID] = &clone
	return &clone, nil
}

func (r *stubStoreRepo) FindByOwner(_ context.Context, ownerID string) (*domain.Store, error) {
	s, ok := r.stores[ownerID]
	if !ok {
		return nil, domain.ErrStoreNotFound
	}
	clone := *s
	return &clone, nil
}

func (r *stubStoreRepo) NameExists(_ context.Context, name string) (bool, error) {
	for _, s := range r.stores {
		if s.Name == name {
			return true, nil
		}
	}
	return false, nil
}

// stubTransactor runs the callback directly; rollback is simulated only as
// error propagation.
type stubTransactor struct{}

func (stubTransactor) WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

type recordingEmail struct {
	sent []string // "email:code"
	err  error
}

func (e *recordingEmail) SendOtp(_ context.Context, email, code string) error {
	if e.err != nil {
		return e.err
	}
	e.sent = append(e.sent, email+":"+code)
	return nil
}

type regFixture struct {
	accounts *stubAccountRepo
	stores   *stubStoreRepo
	otps     *stubOtpRepo
	email    *recordingEmail
	svc      *RegistrationService
}

func newRegFixture() *regFixture {
	accounts := newStubAccountRepo()
	stores := newStubStoreRepo()
	otpRepo := &stubOtpRepo{}
	email := &recordingEmail{}
	otps := newOtpService(otpRepo)
	svc := NewRegistrationService(accounts, stores, otps, stubTransactor{}, email, time.Second, zerolog.Nop())
	return &regFixture{accounts: accounts, stores: stores, otps: otpRepo, email: email, svc: svc}
}

func TestRegister_Customer(t *testing.T) {
	f := newRegFixture()

	result, err := f.svc.Register(context.Background(), ports.RegisterInput{
		Username: "alice",
		Email:    "Alice@Example.com",
		Password: "s3cret-pass",
	})
	if err != nil {
		t.Fatalf("Register: %v", err)
	}

	if result.Account.Email != "alice@example.com" {
		t.Fatalf("email not normalized: %s", result.Account.Email)
	}
	if result.Account.Status != domain.StatusPending {
		t.Fatalf("expected pending status, got %s", result.Account.Status)
	}
	if result.Account.PasswordHash == "s3cret-pass" || result.Account.PasswordHash == "" {
		t.Fatalf("password not hashed")
	}
	if result.Role != domain.RoleCustomer {
		t.Fatalf("expected customer role, got %s", result.Role)
	}
	if result.Store != nil {
		t.Fatalf("unexpected store: %+v", result.Store)
	}

	// Exactly one role, one challenge, one email.
	if len(f.accounts.roles[result.Account.ID]) != 1 {
		t.Fatalf("expected one role assignment")
	}
	if len(f.otps.challenges) != 1 {
		t.Fatalf("expected one otp challenge, got %d", len(f.otps.challenges))
	}
	if len(f.email.sent) != 1 {
		t.Fatalf("expected one otp email, got %d", len(f.email.sent))
	}
}

func TestRegister_AdminWithStore(t *testing.T) {
	f := newRegFixture()

	result, err := f.svc.Register(context.Background(), ports.RegisterInput{
		Username:    "bob",
		Email:       "bob@example.com",
		Password:    "s3cret-pass",
		CreateStore: true,
		StoreName:   "Acme",
	})
	if err != nil {
		t.Fatalf("Register: %v", err)
	}

	if result.Role != domain.RoleAdmin {
		t.Fatalf("expected admin role, got %s", result.Role)
	}
	if result.Store == nil || result.Store.Name != "Acme" {
		t.Fatalf("expected store Acme, got %+v", result.Store)
	}
	if result.Store.OwnerID != result.Account.ID {
		t.Fatalf("store owner mismatch")
	}
}

func TestRegister_DerivedStoreName(t *testing.T) {
	f := newRegFixture()

	result, err := f.svc.Register(context.Background(), ports.RegisterInput{
		Username:    "carol",
		Email:       "carol@example.com",
		Password:    "s3cret-pass",
		CreateStore: true,
	})
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	if result.Store == nil || result.Store.Name != "carol" {
		t.Fatalf("expected store derived from username, got %+v", result.Store)
	}
}

func TestRegister_DuplicateEmail(t *testing.T) {
	f := newRegFixture()

	in := ports.RegisterInput{Username: "dave", Email: "dave@example.com", Password: "s3cret-pass"}
	if _, err := f.svc.Register(context.Background(), in); err != nil {
		t.Fatalf("first Register: %v", err)
	}

	if _, err := f.svc.Register(context.Background(), in); !errors.Is(err, domain.ErrEmailExists) {
		t.Fatalf("expected ErrEmailExists, got %v", err)
	}
	if len(f.accounts.accounts) != 1 {
		t.Fatalf("duplicate registration created rows")
	}
}

func TestRegister_StoreNameTaken(t *testing.T) {
	f := newRegFixture()

	first := ports.RegisterInput{
		Username: "erin", Email: "erin@example.com", Password: "s3cret-pass",
		CreateStore: true, StoreName: "Acme",
	}
	if _, err := f.svc.Register(context.Background(), first); err != nil {
		t.Fatalf("first Register: %v", err)
	}

	second := ports.RegisterInput{
		Username: "frank", Email: "frank@example.com", Password: "s3cret-pass",
		CreateStore: true, StoreName: "Acme",
	}
	if _, err := f.svc.Register(context.Background(), second); !errors.Is(err, domain.ErrStoreNameExists) {
		t.Fatalf("expected ErrStoreNameExists, got %v", err)
	}
}

func TestRegister_EmailFailureTolerated(t *testing.T) {
	f := newRegFixture()
	f.email.err = errors.New("smtp down")

	result, err := f.svc.Register(context.Background(), ports.RegisterInput{
		Username: "grace", Email: "grace@example.com", Password: "s3cret-pass",
	})
	if err != nil {
		t.Fatalf("Register should survive email failure, got %v", err)
	}
	if result.Account.Status != domain.StatusPending {
		t.Fatalf("account missing after email failure")
	}
}

func TestVerifyEmail_ActivatesAccount(t *testing.T) {
	f := newRegFixture()

	result, err := f.svc.Register(context.Background(), ports.RegisterInput{
		Username: "hana", Email: "hana@example.com", Password: "s3cret-pass",
	})
	if err != nil {
		t.Fatalf("Register: %v", err)
	}

	// The emailed code is recorded as "email:code".
	code := f.email.sent[0][len("hana@example.com")+1:]

	account, err := f.svc.VerifyEmail(context.Background(), "hana@example.com", code)
	if err != nil {
		t.Fatalf("VerifyEmail: %v", err)
	}
	if account.Status != domain.StatusActive {
		t.Fatalf("expected active status, got %s", account.Status)
	}
	if !account.Verified() {
		t.Fatalf("email_verified_at not set")
	}
	if account.ID != result.Account.ID {
		t.Fatalf("unexpected account returned")
	}
}

func TestResendOtp_UnknownEmail_NoSignal(t *testing.T) {
	f := newRegFixture()

	delivery, err := f.svc.ResendOtp(context.Background(), "ghost@example.com")
	if err != nil {
		t.Fatalf("ResendOtp: %v", err)
	}
	if delivery.Email != "ghost@example.com" || delivery.ExpiresInMinutes <= 0 {
		t.Fatalf("unexpected delivery shape: %+v", delivery)
	}
	if len(f.email.sent) != 0 {
		t.Fatalf("email sent for unknown account")
	}
}

func TestResendOtp_SupersedesPrevious(t *testing.T) {
	f := newRegFixture()

	if _, err := f.svc.Register(context.Background(), ports.RegisterInput{
		Username: "ivan", Email: "ivan@example.com", Password: "s3cret-pass",
	}); err != nil {
		t.Fatalf("Register: %v", err)
	}

	if _, err := f.svc.ResendOtp(context.Background(), "ivan@example.com"); err != nil {
		t.Fatalf("ResendOtp: %v", err)
	}
	if len(f.otps.challenges) != 2 {
		t.Fatalf("expected two challenges, got %d", len(f.otps.challenges))
	}
	if len(f.email.sent) != 2 {
		t.Fatalf("expected two emails, got %d", len(f.email.sent))
	}

	// Only the newest code verifies.
	oldCode := f.email.sent[0][len("ivan@example.com")+1:]
	newCode := f.email.sent[1][len("ivan@example.com")+1:]
	if err := f.svc.otps.Verify(context.Background(), accountIDByEmail(t, f, "ivan@example.com"), domain.OtpEmailVerification, oldCode); err == nil {
		t.Fatalf("superseded code verified")
	}
	if err := f.svc.otps.Verify(context.Background(), accountIDByEmail(t, f, "ivan@example.com"), domain.OtpEmailVerification, newCode); err != nil {
		t.Fatalf("fresh code rejected: %v", err)
	}
}

func accountIDByEmail(t *testing.T, f *regFixture, email string) string {
	t.Helper()
	account, err := f.accounts.FindByEmail(context.Background(), email)
	if err != nil {
		t.Fatalf("FindByEmail: %v", err)
	}
	return account.ID
}
