package application

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/viralforge/tshirtstore/internal/domain"
	"github.com/viralforge/tshirtstore/internal/ports"
)

// resetTokenBytes yields 256 bits of entropy per token.
const resetTokenBytes = 32

var resetTokenFields = []domain.AccountField{domain.FieldResetToken}

// ResetTokenManager issues, delivers and redeems one-time password reset tokens.
// Only the SHA-256 hash of a token is ever persisted.
type ResetTokenManager struct {
	accounts    ports.AccountStore
	credentials *CredentialStore
	sessions    *SessionIssuer
	mailer      ports.Mailer
	window      time.Duration
	nowFn       func() time.Time
}

func NewResetTokenManager(
	accounts ports.AccountStore,
	credentials *CredentialStore,
	sessions *SessionIssuer,
	mailer ports.Mailer,
	window time.Duration,
	nowFn func() time.Time,
) (*ResetTokenManager, error) {
	if accounts == nil || credentials == nil || sessions == nil || mailer == nil {
		return nil, errors.New("reset token manager dependencies are required")
	}
	if window <= 0 {
		return nil, errors.New("reset token window must be positive")
	}
	if nowFn == nil {
		nowFn = time.Now
	}
	return &ResetTokenManager{
		accounts:    accounts,
		credentials: credentials,
		sessions:    sessions,
		mailer:      mailer,
		window:      window,
		nowFn:       nowFn,
	}, nil
}

// Issue stores a fresh token hash on the account and returns the plaintext.
// Any earlier pending token is overwritten.
func (m *ResetTokenManager) Issue(ctx context.Context, account *domain.Account) (string, error) {
	token, _, err := m.issue(ctx, account)
	return token, err
}

func (m *ResetTokenManager) issue(ctx context.Context, account *domain.Account) (string, time.Time, error) {
	if account == nil {
		return "", time.Time{}, fmt.Errorf("%w: account is required", domain.ErrValidation)
	}
	token, err := randomHex(resetTokenBytes)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("generate reset token: %w", err)
	}
	now := m.nowFn().UTC()
	if err := account.SetResetToken(hashToken(token), now.Add(m.window), now); err != nil {
		return "", time.Time{}, err
	}
	account.UpdatedAt = now
	saved, err := m.accounts.Save(ctx, *account, ports.SaveOptions{
		Fields:         resetTokenFields,
		SkipValidation: true,
	})
	if err != nil {
		return "", time.Time{}, dependencyError("store reset token", err)
	}
	*account = saved
	return token, now, nil
}

// IssueAndDeliver issues a token and mails the reset link. When the mail cannot be sent
// the pending token is cleared again before the delivery failure is returned.
func (m *ResetTokenManager) IssueAndDeliver(ctx context.Context, account *domain.Account, baseURL string) error {
	token, issuedAt, err := m.issue(ctx, account)
	if err != nil {
		return err
	}
	issuedHash := *account.ResetTokenHash

	msg := ports.MailMessage{
		To:      account.Email,
		Subject: "Your password reset link",
		Body:    resetMailBody(resetURL(baseURL, token), m.window),
	}
	sendErr := m.mailer.Send(ctx, msg)
	if sendErr == nil {
		return nil
	}

	deliveryErr := fmt.Errorf("%w: deliver reset mail: %w", domain.ErrDependency, sendErr)
	account.ClearResetToken()
	account.UpdatedAt = m.nowFn().UTC()
	_, rollbackErr := m.accounts.Save(context.WithoutCancel(ctx), *account, ports.SaveOptions{
		Fields:         resetTokenFields,
		SkipValidation: true,
		// A newer token issued concurrently must survive this rollback.
		Guard: &ports.ResetTokenGuard{TokenHash: issuedHash, ValidAt: issuedAt},
	})
	if rollbackErr != nil && !errors.Is(rollbackErr, domain.ErrNotFound) {
		return errors.Join(deliveryErr, fmt.Errorf("clear reset token: %w", rollbackErr))
	}
	return deliveryErr
}

// Redeem consumes a token, sets the new password and mints a session.
// Unknown, expired and already-consumed tokens all fail with ErrTokenInvalidOrExpired.
func (m *ResetTokenManager) Redeem(ctx context.Context, token, newPassword string) (domain.Account, SessionArtifact, error) {
	if strings.TrimSpace(token) == "" {
		return domain.Account{}, SessionArtifact{}, domain.ErrTokenInvalidOrExpired
	}
	now := m.nowFn().UTC()
	tokenHash := hashToken(token)

	account, err := m.accounts.FindByResetTokenHash(ctx, tokenHash, now)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.Account{}, SessionArtifact{}, domain.ErrTokenInvalidOrExpired
		}
		return domain.Account{}, SessionArtifact{}, dependencyError("find reset token", err)
	}

	if err := m.credentials.SetPassword(ctx, &account, newPassword); err != nil {
		return domain.Account{}, SessionArtifact{}, err
	}
	account.ClearResetToken()
	account.UpdatedAt = now

	event := newAccountEvent(eventTypePasswordReset, account, now)
	saved, err := m.accounts.Save(ctx, account, ports.SaveOptions{
		Fields:         []domain.AccountField{domain.FieldPasswordHash, domain.FieldResetToken},
		SkipValidation: true,
		Guard:          &ports.ResetTokenGuard{TokenHash: tokenHash, ValidAt: now},
		Event:          &event,
	})
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			// Another redemption won the race for this token.
			return domain.Account{}, SessionArtifact{}, domain.ErrTokenInvalidOrExpired
		}
		return domain.Account{}, SessionArtifact{}, dependencyError("store new password", err)
	}

	session, err := m.sessions.Issue(saved)
	if err != nil {
		return domain.Account{}, SessionArtifact{}, err
	}
	return saved, session, nil
}

func resetURL(baseURL, token string) string {
	return strings.TrimRight(strings.TrimSpace(baseURL), "/") + "/api/v1/password/reset/" + token
}

func resetMailBody(link string, window time.Duration) string {
	return fmt.Sprintf(
		"We received a request to reset your password.\n\nOpen the link below within %d minutes to choose a new one:\n\n%s\n\nIf you did not ask for this, you can ignore this email.\n",
		int(window.Minutes()),
		link,
	)
}
