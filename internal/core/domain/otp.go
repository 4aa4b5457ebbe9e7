package domain

import "time"

// OtpPurpose identifies what a one-time code proves.
type OtpPurpose string

const (
	OtpEmailVerification OtpPurpose = "email_verification"
	OtpPasswordReset     OtpPurpose = "password_reset"
)

// OtpChallenge is one issued one-time code. Only the argon2id hash of the
// code is stored; the plaintext exists just long enough to be delivered.
type OtpChallenge struct {
	ID         string     `json:"id"`
	AccountID  string     `json:"account_id"`
	CodeHash   string     `json:"-"`
	Purpose    OtpPurpose `json:"purpose"`
	ExpiresAt  time.Time  `json:"expires_at"`
	VerifiedAt *time.Time `json:"verified_at,omitempty"`
	Attempts   int        `json:"attempts"`
	CreatedAt  time.Time  `json:"created_at"`
}

// Used reports whether the challenge has already been consumed.
func (o *OtpChallenge) Used() bool {
	return o.VerifiedAt != nil
}

// Expired reports whether the challenge is past its expiry at the given time.
func (o *OtpChallenge) Expired(now time.Time) bool {
	return now.After(o.ExpiresAt)
}
