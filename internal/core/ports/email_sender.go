package ports

import "context"

// EmailSender delivers one-time codes to account holders.
type EmailSender interface {
	SendOtp(ctx context.Context, email, code string) error
}
