package application

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/viralforge/tshirtstore/internal/domain"
)

// errResetUnavailable is the single answer for an unknown email and for a failed delivery.
var errResetUnavailable = fmt.Errorf("%w: reset link could not be sent", domain.ErrNotFound)

// ForgotPassword mails a reset link to the account owning email.
func (s *Service) ForgotPassword(ctx context.Context, req ForgotPasswordRequest) error {
	if strings.TrimSpace(req.Email) == "" {
		return fmt.Errorf("%w: email is required", domain.ErrValidation)
	}
	email, err := domain.NormalizeEmail(req.Email)
	if err != nil {
		return err
	}
	if err := s.enforceRateLimit(ctx, "reset:"+email, s.cfg.ResetRequestThreshold, s.cfg.ResetRequestWindow); err != nil {
		return err
	}

	account, err := s.accounts.FindByEmail(ctx, email)
	if err != nil {
		if !errors.Is(err, domain.ErrNotFound) {
			appLogger().ErrorContext(ctx, "reset lookup failed",
				"operation", "forgot_password",
				"outcome", "failure",
				"error", err,
			)
		}
		return errResetUnavailable
	}

	if err := s.resets.IssueAndDeliver(ctx, &account, s.cfg.ResetURLBase); err != nil {
		appLogger().ErrorContext(ctx, "reset delivery failed",
			"operation", "forgot_password",
			"outcome", "failure",
			"account_id", account.ID,
			"error", err,
		)
		return errResetUnavailable
	}

	appLogger().InfoContext(ctx, "reset link sent",
		"operation", "forgot_password",
		"outcome", "success",
		"account_id", account.ID,
	)
	return nil
}

// ResetPassword redeems token after the confirm field is checked, so a typo never
// consumes the token.
func (s *Service) ResetPassword(ctx context.Context, token string, req ResetPasswordRequest) (AuthResult, error) {
	if req.Password == "" || req.ConfirmPassword == "" {
		return AuthResult{}, fmt.Errorf("%w: password and confirmPassword are required", domain.ErrValidation)
	}
	if req.Password != req.ConfirmPassword {
		return AuthResult{}, fmt.Errorf("%w: password and confirm password do not match", domain.ErrValidation)
	}
	if err := domain.ValidatePassword(req.Password); err != nil {
		return AuthResult{}, err
	}

	account, session, err := s.resets.Redeem(ctx, token, req.Password)
	if err != nil {
		return AuthResult{}, err
	}
	return AuthResult{Account: NewAccountView(account), Session: session}, nil
}
