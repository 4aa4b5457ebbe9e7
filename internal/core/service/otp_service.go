package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/marketbay/commerce-api/internal/core/domain"
	"github.com/marketbay/commerce-api/internal/core/ports"
	"github.com/marketbay/commerce-api/internal/pkg/otp"
	"github.com/marketbay/commerce-api/internal/pkg/password"
)

const (
	defaultOtpExpiry      = 15 * time.Minute
	defaultOtpMaxAttempts = 5
)

// OtpService implements one-time-code issuance and verification on top of
// the challenge repository. Codes are stored hashed with the same argon2id
// discipline as passwords.
type OtpService struct {
	repo        ports.OtpRepository
	expiry      time.Duration
	maxAttempts int
	log         zerolog.Logger
}

func NewOtpService(repo ports.OtpRepository, expiry time.Duration, maxAttempts int, log zerolog.Logger) *OtpService {
	if expiry <= 0 {
		expiry = defaultOtpExpiry
	}
	if maxAttempts <= 0 {
		maxAttempts = defaultOtpMaxAttempts
	}
	return &OtpService{repo: repo, expiry: expiry, maxAttempts: maxAttempts, log: log}
}

// Issue supersedes any active challenge for (accountID, purpose) and creates
// a fresh one. Returns the plaintext code exactly once.
func (s *OtpService) Issue(ctx context.Context, accountID string, purpose domain.OtpPurpose) (string, *domain.OtpChallenge, error) {
	now := time.Now().UTC()

	if err := s.repo.ExpireActive(ctx, accountID, purpose, now); err != nil {
		return "", nil, fmt.Errorf("expire active challenges: %w", err)
	}

	code, err := otp.GenerateCode()
	if err != nil {
		return "", nil, err
	}
	hash, err := password.Hash(code)
	if err != nil {
		return "", nil, fmt.Errorf("hash otp: %w", err)
	}

	challenge := &domain.OtpChallenge{
		ID:        uuid.NewString(),
		AccountID: accountID,
		CodeHash:  hash,
		Purpose:   purpose,
		ExpiresAt: now.Add(s.expiry),
		Attempts:  0,
		CreatedAt: now,
	}

	created, err := s.repo.Create(ctx, challenge)
	if err != nil {
		return "", nil, fmt.Errorf("create challenge: %w", err)
	}
	return code, created, nil
}

// Verify checks a submitted code against the newest challenge for
// (accountID, purpose). The attempt counter increments and persists on every
// call that reaches the hash comparison, match or not, so retries stay
// bounded even across a success.
func (s *OtpService) Verify(ctx context.Context, accountID string, purpose domain.OtpPurpose, code string) error {
	challenge, err := s.repo.FindLatest(ctx, accountID, purpose)
	if err != nil {
		return err
	}

	now := time.Now().UTC()
	switch {
	case challenge.Used():
		return domain.ErrOtpAlreadyUsed
	case challenge.Expired(now):
		return domain.ErrOtpExpired
	case challenge.Attempts >= s.maxAttempts:
		return domain.ErrOtpMaxAttempts
	}

	ok, err := password.Verify(challenge.CodeHash, code)
	if err != nil {
		// Malformed stored hash: treat as mismatch, keep the evidence.
		s.log.Error().Err(err).
			Str("challenge_id", challenge.ID).
			Msg("stored otp hash unreadable")
		ok = false
	}

	challenge.Attempts++
	if ok {
		challenge.VerifiedAt = &now
	}
	if err := s.repo.Update(ctx, challenge); err != nil {
		return fmt.Errorf("persist attempt: %w", err)
	}

	if !ok {
		return domain.ErrInvalidOtp
	}
	return nil
}

// ExpiryMinutes reports the configured challenge lifetime.
func (s *OtpService) ExpiryMinutes() int {
	return int(s.expiry / time.Minute)
}
