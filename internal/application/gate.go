package application

import (
	"context"
	"errors"
	"slices"
	"time"

	"github.com/google/uuid"
	"github.com/viralforge/tshirtstore/internal/domain"
	"github.com/viralforge/tshirtstore/internal/ports"
)

// Principal is the authenticated identity threaded through a request.
type Principal struct {
	AccountID        uuid.UUID
	Role             domain.Role
	SessionExpiresAt time.Time
}

type principalKey struct{}

func WithPrincipal(ctx context.Context, p Principal) context.Context {
	return context.WithValue(ctx, principalKey{}, p)
}

func PrincipalFromContext(ctx context.Context) (Principal, bool) {
	p, ok := ctx.Value(principalKey{}).(Principal)
	return p, ok && p.AccountID != uuid.Nil
}

// Gate runs the Authenticate and Authorize stages of the request pipeline.
// Each stage either fully succeeds or returns its coarse sentinel.
type Gate struct {
	accounts ports.AccountStore
	sessions *SessionIssuer
}

func NewGate(accounts ports.AccountStore, sessions *SessionIssuer) *Gate {
	return &Gate{accounts: accounts, sessions: sessions}
}

// Authenticate verifies the raw artifact and resolves it to a live account.
func (g *Gate) Authenticate(ctx context.Context, rawToken string) (Principal, error) {
	claims, err := g.sessions.Verify(rawToken)
	if err != nil {
		return Principal{}, err
	}
	account, err := g.accounts.FindByID(ctx, claims.Subject)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return Principal{}, domain.ErrAuthentication
		}
		return Principal{}, dependencyError("resolve session subject", err)
	}
	return Principal{
		AccountID:        account.ID,
		Role:             account.Role,
		SessionExpiresAt: claims.ExpiresAt,
	}, nil
}

// Authorize re-reads the principal's account and checks its current role.
// It denies when the record cannot be read.
func (g *Gate) Authorize(ctx context.Context, p Principal, roles ...domain.Role) (domain.Account, error) {
	if p.AccountID == uuid.Nil {
		return domain.Account{}, domain.ErrAuthentication
	}
	account, err := g.accounts.FindByID(ctx, p.AccountID)
	if err != nil {
		appLogger().WarnContext(ctx, "authorization re-read failed",
			"operation", "authorize",
			"outcome", "denied",
			"account_id", p.AccountID,
			"error", err,
		)
		return domain.Account{}, domain.ErrAuthorization
	}
	if !slices.Contains(roles, account.Role) {
		return domain.Account{}, domain.ErrAuthorization
	}
	return account, nil
}
