package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/marketbay/commerce-api/internal/core/domain"
	"github.com/marketbay/commerce-api/internal/core/ports"
	"github.com/marketbay/commerce-api/internal/pkg/password"
	"github.com/marketbay/commerce-api/internal/pkg/storename"
)

const defaultEmailTimeout = 5 * time.Second

// RegistrationService orchestrates signup: account, optional store, role,
// and the initial email-verification challenge are created in a single
// transaction; the code is emailed only after commit.
type RegistrationService struct {
	accounts     ports.AccountRepository
	stores       ports.StoreRepository
	otps         ports.OtpService
	tx           ports.Transactor
	email        ports.EmailSender
	emailTimeout time.Duration
	log          zerolog.Logger
}

func NewRegistrationService(
	accounts ports.AccountRepository,
	stores ports.StoreRepository,
	otps ports.OtpService,
	tx ports.Transactor,
	email ports.EmailSender,
	emailTimeout time.Duration,
	log zerolog.Logger,
) *RegistrationService {
	if emailTimeout <= 0 {
		emailTimeout = defaultEmailTimeout
	}
	return &RegistrationService{
		accounts:     accounts,
		stores:       stores,
		otps:         otps,
		tx:           tx,
		email:        email,
		emailTimeout: emailTimeout,
		log:          log,
	}
}

// Register creates a pending account. Any failure before commit rolls the
// whole transaction back; a failed OTP email after commit is logged and the
// account survives for the resend path.
func (s *RegistrationService) Register(ctx context.Context, in ports.RegisterInput) (*ports.RegisteredAccount, error) {
	emailAddr := strings.ToLower(strings.TrimSpace(in.Email))

	exists, err := s.accounts.EmailExists(ctx, emailAddr)
	if err != nil {
		return nil, fmt.Errorf("check email: %w", err)
	}
	if exists {
		return nil, domain.ErrEmailExists
	}

	var (
		result  ports.RegisteredAccount
		otpCode string
	)

	err = s.tx.WithinTransaction(ctx, func(txCtx context.Context) error {
		hash, err := password.Hash(in.Password)
		if err != nil {
			return fmt.Errorf("hash password: %w", err)
		}

		now := time.Now().UTC()
		account, err := s.accounts.Create(txCtx, &domain.Account{
			ID:           uuid.NewString(),
			Username:     in.Username,
			Email:        emailAddr,
			PasswordHash: hash,
			Status:       domain.StatusPending,
			CreatedAt:    now,
			UpdatedAt:    now,
		})
		if err != nil {
			return err
		}
		result.Account = account

		role := domain.RoleCustomer
		if in.CreateStore {
			name, err := s.resolveStoreName(txCtx, in.StoreName, in.Username)
			if err != nil {
				return err
			}
			store, err := s.stores.Create(txCtx, &domain.Store{
				ID:        uuid.NewString(),
				OwnerID:   account.ID,
				Name:      name,
				CreatedAt: now,
				UpdatedAt: now,
			})
			if err != nil {
				return err
			}
			result.Store = store
			role = domain.RoleAdmin
		}

		if err := s.accounts.AssignRole(txCtx, &domain.RoleAssignment{
			AccountID: account.ID,
			Role:      role,
			CreatedAt: now,
		}); err != nil {
			return fmt.Errorf("assign role: %w", err)
		}
		result.Role = role

		otpCode, _, err = s.otps.Issue(txCtx, account.ID, domain.OtpEmailVerification)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.deliverOtp(ctx, emailAddr, otpCode)

	return &result, nil
}

// VerifyEmail consumes an email-verification code and activates the account.
func (s *RegistrationService) VerifyEmail(ctx context.Context, email, code string) (*domain.Account, error) {
	account, err := s.accounts.FindByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		return nil, err
	}

	if err := s.otps.Verify(ctx, account.ID, domain.OtpEmailVerification, code); err != nil {
		return nil, err
	}

	if !account.Verified() {
		if err := s.accounts.MarkVerified(ctx, account.ID); err != nil {
			return nil, fmt.Errorf("mark verified: %w", err)
		}
	}
	return s.accounts.FindByID(ctx, account.ID)
}

// ResendOtp reissues the email-verification code for a pending account.
// The response shape never reveals whether the email is registered.
func (s *RegistrationService) ResendOtp(ctx context.Context, email string) (*ports.OtpDelivery, error) {
	emailAddr := strings.ToLower(strings.TrimSpace(email))
	delivery := &ports.OtpDelivery{Email: emailAddr, ExpiresInMinutes: s.otps.ExpiryMinutes()}

	account, err := s.accounts.FindByEmail(ctx, emailAddr)
	if err != nil {
		s.log.Debug().Str("email", emailAddr).Msg("otp resend for unknown email")
		return delivery, nil
	}
	if account.Verified() {
		return delivery, nil
	}

	code, _, err := s.otps.Issue(ctx, account.ID, domain.OtpEmailVerification)
	if err != nil {
		return nil, err
	}
	s.deliverOtp(ctx, emailAddr, code)

	return delivery, nil
}

func (s *RegistrationService) resolveStoreName(ctx context.Context, supplied, username string) (string, error) {
	if name := strings.TrimSpace(supplied); name != "" {
		taken, err := s.stores.NameExists(ctx, name)
		if err != nil {
			return "", fmt.Errorf("check store name: %w", err)
		}
		if taken {
			return "", domain.ErrStoreNameExists
		}
		return name, nil
	}
	return storename.GenerateUnique(ctx, username, s.stores)
}

// deliverOtp emails the code under a bounded timeout. Failures are logged,
// never surfaced: the account already exists and resend covers delivery.
func (s *RegistrationService) deliverOtp(ctx context.Context, email, code string) {
	sendCtx, cancel := context.WithTimeout(ctx, s.emailTimeout)
	defer cancel()

	if err := s.email.SendOtp(sendCtx, email, code); err != nil {
		s.log.Error().Err(err).Str("email", email).Msg("otp email delivery failed")
	}
}
