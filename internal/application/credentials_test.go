package application

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/viralforge/tshirtstore/internal/domain"
)

func TestCredentialStoreVerifiesOnlyTheSetPassword(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	ctx := context.Background()
	store := f.svc.credentials

	for _, pw := range []string{"secret1", "hunter22", "ça-va-bien", "0123456789"} {
		acct := &domain.Account{ID: uuid.New()}
		require.NoError(t, store.SetPassword(ctx, acct, pw))
		assert.NotContains(t, acct.PasswordHash, pw)

		ok, err := store.VerifyPassword(ctx, acct, pw)
		require.NoError(t, err)
		assert.True(t, ok, "password %q should verify", pw)

		for _, other := range []string{pw + "!", "x" + pw, "Secret1"} {
			ok, err := store.VerifyPassword(ctx, acct, other)
			require.NoError(t, err)
			assert.False(t, ok, "password %q must not verify against %q", other, pw)
		}
	}
}

func TestCredentialStoreRejectsMalformedInput(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	ctx := context.Background()
	store := f.svc.credentials

	assert.ErrorIs(t, store.SetPassword(ctx, &domain.Account{}, ""), domain.ErrValidation)
	assert.ErrorIs(t, store.SetPassword(ctx, nil, "secret1"), domain.ErrValidation)

	_, err := store.VerifyPassword(ctx, nil, "secret1")
	assert.ErrorIs(t, err, domain.ErrValidation)

	_, err = store.VerifyPassword(ctx, &domain.Account{ID: uuid.New()}, "secret1")
	assert.ErrorIs(t, err, domain.ErrMissingPasswordHash)

	_, err = store.VerifyPassword(ctx, &domain.Account{ID: uuid.New(), PasswordHash: "plain"}, "secret1")
	assert.Error(t, err)
}

func TestCredentialStoreBurnComparisonIsSilent(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	assert.NotPanics(t, func() {
		f.svc.credentials.BurnComparison(context.Background(), "whatever")
		f.svc.credentials.BurnComparison(context.Background(), "again")
	})
	assert.NotEmpty(t, f.svc.credentials.dummyHash)
}
