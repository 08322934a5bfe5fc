package domain

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Role is the coarse authorization label carried by every account.
type Role string

const (
	RoleUser    Role = "user"
	RoleAdmin   Role = "admin"
	RoleManager Role = "manager"
)

// ParseRole maps raw input onto the closed role set.
func ParseRole(raw string) (Role, error) {
	role := Role(strings.ToLower(strings.TrimSpace(raw)))
	if !role.Valid() {
		return "", fmt.Errorf("%w: role must be one of user, admin, manager", ErrValidation)
	}
	return role, nil
}

func (r Role) Valid() bool {
	switch r {
	case RoleUser, RoleAdmin, RoleManager:
		return true
	default:
		return false
	}
}

// Account is the persisted identity aggregate.
// PasswordHash and the reset fields are secrets and must never reach a response body.
type Account struct {
	ID               uuid.UUID
	Name             string
	Email            string
	PasswordHash     string
	Role             Role
	ResetTokenHash   *string
	ResetTokenExpiry *time.Time
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// AccountField names a mutable group of columns for partial saves.
// FieldResetToken always covers both the hash and the expiry.
type AccountField string

const (
	FieldName         AccountField = "name"
	FieldEmail        AccountField = "email"
	FieldPasswordHash AccountField = "password_hash"
	FieldRole         AccountField = "role"
	FieldResetToken   AccountField = "reset_token"
)

// AllAccountFields is used when a save does not restrict its field set.
var AllAccountFields = []AccountField{
	FieldName,
	FieldEmail,
	FieldPasswordHash,
	FieldRole,
	FieldResetToken,
}

// HasPendingReset reports whether a reset token is outstanding, regardless of expiry.
func (a Account) HasPendingReset() bool {
	return a.ResetTokenHash != nil && a.ResetTokenExpiry != nil
}

// SetResetToken records a pending reset. The expiry must be strictly after now.
func (a *Account) SetResetToken(tokenHash string, expiresAt, now time.Time) error {
	if strings.TrimSpace(tokenHash) == "" {
		return fmt.Errorf("%w: reset token hash is required", ErrValidation)
	}
	if !expiresAt.After(now) {
		return fmt.Errorf("%w: reset token expiry must be in the future", ErrValidation)
	}
	hash := tokenHash
	expiry := expiresAt.UTC()
	a.ResetTokenHash = &hash
	a.ResetTokenExpiry = &expiry
	return nil
}

// ClearResetToken drops both reset fields together.
func (a *Account) ClearResetToken() {
	a.ResetTokenHash = nil
	a.ResetTokenExpiry = nil
}

// ValidateResetPair enforces that the reset hash and expiry are present or absent together.
func (a Account) ValidateResetPair() error {
	if (a.ResetTokenHash == nil) != (a.ResetTokenExpiry == nil) {
		return fmt.Errorf("%w: reset token hash and expiry must be set together", ErrValidation)
	}
	return nil
}

// Validate checks a full account record before it is written.
func (a Account) Validate() error {
	if err := ValidateName(a.Name); err != nil {
		return err
	}
	if strings.TrimSpace(a.Email) == "" {
		return fmt.Errorf("%w: email is required", ErrValidation)
	}
	if a.PasswordHash == "" {
		return fmt.Errorf("%w: password hash is required", ErrValidation)
	}
	if !a.Role.Valid() {
		return fmt.Errorf("%w: invalid role %q", ErrValidation, a.Role)
	}
	return a.ValidateResetPair()
}
