package domain

import "errors"

// Sentinel domain errors. The HTTP layer maps each of these to a stable
// machine-readable code and status; anything unrecognized becomes a 500.
var (
	// ErrAuthFailed covers both "no such account" and "wrong password" so
	// that login responses cannot be used to enumerate emails.
	ErrAuthFailed       = errors.New("invalid email or password")
	ErrEmailNotVerified = errors.New("email not verified")
	ErrAccountInactive  = errors.New("account is not active")

	ErrEmailExists     = errors.New("email already registered")
	ErrStoreNameExists = errors.New("store name already exists")
	ErrStoreExists     = errors.New("account already owns a store")
	ErrAlreadyAdmin    = errors.New("account already has the admin role")
	ErrUserNotFound    = errors.New("user not found")
	ErrStoreNotFound   = errors.New("store not found")

	ErrOtpNotFound    = errors.New("no verification code found")
	ErrOtpAlreadyUsed = errors.New("verification code already used")
	ErrOtpExpired     = errors.New("verification code expired")
	ErrOtpMaxAttempts = errors.New("too many verification attempts")
	ErrInvalidOtp     = errors.New("invalid verification code")

	ErrTokenExpired  = errors.New("token expired")
	ErrTokenInvalid  = errors.New("token invalid")
	ErrTokenRevoked  = errors.New("token revoked")
	ErrTokenNotFound = errors.New("token not found")

	ErrInvalidInput = errors.New("invalid input")
)
