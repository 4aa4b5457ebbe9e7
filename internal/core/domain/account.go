package domain

import "time"

// AccountStatus represents the lifecycle state of an account.
type AccountStatus string

const (
	StatusPending   AccountStatus = "pending"
	StatusActive    AccountStatus = "active"
	StatusSuspended AccountStatus = "suspended"
	StatusBlocked   AccountStatus = "blocked"
)

const (
	RoleAdmin    = "admin"
	RoleCustomer = "customer"
)

// Account models a registered identity and its credential state.
// PasswordHash is an argon2id-encoded string and never leaves the server.
type Account struct {
	ID              string        `json:"id"`
	Username        string        `json:"username"`
	Email           string        `json:"email"`
	PasswordHash    string        `json:"-"`
	EmailVerifiedAt *time.Time    `json:"email_verified_at,omitempty"`
	Status          AccountStatus `json:"status"`
	CreatedAt       time.Time     `json:"created_at"`
	UpdatedAt       time.Time     `json:"updated_at"`
	DeletedAt       *time.Time    `json:"-"`
}

// Verified reports whether the account has completed email verification.
func (a *Account) Verified() bool {
	return a.EmailVerifiedAt != nil
}

// RoleAssignment grants one role to one account. An account holds at most
// one assignment per role.
type RoleAssignment struct {
	AccountID string    `json:"account_id"`
	Role      string    `json:"role"`
	CreatedAt time.Time `json:"created_at"`
}

// EffectiveRole resolves the role used for authorization decisions:
// admin wins when present, customer otherwise.
func EffectiveRole(assignments []RoleAssignment) string {
	for _, ra := range assignments {
		if ra.Role == RoleAdmin {
			return RoleAdmin
		}
	}
	return RoleCustomer
}
