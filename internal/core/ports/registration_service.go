package ports

import (
	"context"

	"github.com/marketbay/commerce-api/internal/core/domain"
)

// RegisterInput carries a validated registration request.
type RegisterInput struct {
	Username    string
	Email       string
	Password    string
	CreateStore bool
	StoreName   string
}

// RegisteredAccount is what registration hands back to the HTTP layer.
type RegisteredAccount struct {
	Account *domain.Account
	Role    string
	Store   *domain.Store
}

// OtpDelivery describes a (re)issued verification code without leaking
// whether delivery actually happened.
type OtpDelivery struct {
	Email            string
	ExpiresInMinutes int
}

// RegistrationService owns signup and email verification.
type RegistrationService interface {
	Register(ctx context.Context, in RegisterInput) (*RegisteredAccount, error)
	// VerifyEmail consumes an email-verification code and activates the
	// account.
	VerifyEmail(ctx context.Context, email, code string) (*domain.Account, error)
	// ResendOtp reissues the email-verification code for a pending account.
	ResendOtp(ctx context.Context, email string) (*OtpDelivery, error)
}
