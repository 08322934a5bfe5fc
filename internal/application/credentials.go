package application

import (
	"context"
	"fmt"
	"sync"

	"github.com/viralforge/tshirtstore/internal/domain"
	"github.com/viralforge/tshirtstore/internal/ports"
)

// dummyPassword is hashed once and compared against when a login names an unknown email,
// so both branches pay the same derivation cost.
const dummyPassword = "tshirtstore-timing-equalizer"

// CredentialStore owns password derivation and verification for accounts.
type CredentialStore struct {
	hasher ports.PasswordHasher

	dummyOnce sync.Once
	dummyHash string
	dummyErr  error
}

func NewCredentialStore(hasher ports.PasswordHasher) *CredentialStore {
	return &CredentialStore{hasher: hasher}
}

// SetPassword derives a salted hash of plaintext and stores it on the account.
// Outstanding sessions are left untouched.
func (c *CredentialStore) SetPassword(ctx context.Context, account *domain.Account, plaintext string) error {
	if account == nil {
		return fmt.Errorf("%w: account is required", domain.ErrValidation)
	}
	if err := domain.ValidatePassword(plaintext); err != nil {
		return err
	}
	hash, err := c.hasher.Hash(ctx, plaintext)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	account.PasswordHash = hash
	return nil
}

// VerifyPassword reports whether plaintext matches the stored hash.
// A mismatch is (false, nil); an error means the account record itself is unusable.
func (c *CredentialStore) VerifyPassword(ctx context.Context, account *domain.Account, plaintext string) (bool, error) {
	if account == nil {
		return false, fmt.Errorf("%w: account is required", domain.ErrValidation)
	}
	if account.PasswordHash == "" {
		return false, domain.ErrMissingPasswordHash
	}
	ok, err := c.hasher.Compare(ctx, account.PasswordHash, plaintext)
	if err != nil {
		return false, fmt.Errorf("compare password: %w", err)
	}
	return ok, nil
}

// BurnComparison runs one full comparison against a fixed hash and discards the result.
func (c *CredentialStore) BurnComparison(ctx context.Context, plaintext string) {
	c.dummyOnce.Do(func() {
		c.dummyHash, c.dummyErr = c.hasher.Hash(context.WithoutCancel(ctx), dummyPassword)
	})
	if c.dummyErr != nil {
		return
	}
	_, _ = c.hasher.Compare(ctx, c.dummyHash, plaintext)
}
