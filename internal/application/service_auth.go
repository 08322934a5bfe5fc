package application

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/viralforge/tshirtstore/internal/domain"
	"github.com/viralforge/tshirtstore/internal/ports"
)

// Signup creates a user-role account, emits a registration event in the same
// transaction, and mints the first session.
func (s *Service) Signup(ctx context.Context, req SignupRequest) (AuthResult, error) {
	if strings.TrimSpace(req.Name) == "" || strings.TrimSpace(req.Email) == "" || req.Password == "" {
		return AuthResult{}, fmt.Errorf("%w: name, email and password are required", domain.ErrValidation)
	}
	if err := domain.ValidateName(req.Name); err != nil {
		return AuthResult{}, err
	}
	email, err := domain.NormalizeEmail(req.Email)
	if err != nil {
		return AuthResult{}, err
	}

	now := s.nowFn()
	account := domain.Account{
		ID:        uuid.New(),
		Name:      strings.TrimSpace(req.Name),
		Email:     email,
		Role:      domain.RoleUser,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.credentials.SetPassword(ctx, &account, req.Password); err != nil {
		return AuthResult{}, err
	}

	event := newAccountEvent(eventTypeAccountRegistered, account, now)
	created, err := s.accounts.Create(ctx, account, &event)
	if err != nil {
		return AuthResult{}, dependencyError("create account", err)
	}
	return s.authResult(created)
}

// Login checks credentials under lockout policy. Unknown emails and wrong passwords
// both return ErrCredential after a full-cost comparison.
func (s *Service) Login(ctx context.Context, req LoginRequest) (AuthResult, error) {
	if strings.TrimSpace(req.Email) == "" || req.Password == "" {
		return AuthResult{}, fmt.Errorf("%w: email and password are required", domain.ErrValidation)
	}
	email, err := domain.NormalizeEmail(req.Email)
	if err != nil {
		s.credentials.BurnComparison(ctx, req.Password)
		return AuthResult{}, domain.ErrCredential
	}

	lockKey := "login:" + email
	if s.lockouts != nil {
		state, err := s.lockouts.Get(ctx, lockKey)
		if err == nil && state.LockedUntil != nil && state.LockedUntil.After(s.nowFn()) {
			appLogger().WarnContext(ctx, "account lockout active",
				"operation", "login",
				"outcome", "blocked",
				"locked_until", state.LockedUntil,
			)
			return AuthResult{}, domain.ErrRateLimited
		}
	}

	account, err := s.accounts.FindByEmail(ctx, email)
	if err != nil {
		if !errors.Is(err, domain.ErrNotFound) {
			return AuthResult{}, dependencyError("find account", err)
		}
		s.credentials.BurnComparison(ctx, req.Password)
		s.recordLoginFailure(ctx, lockKey, "unknown_email")
		return AuthResult{}, domain.ErrCredential
	}

	ok, err := s.credentials.VerifyPassword(ctx, &account, req.Password)
	if err != nil {
		appLogger().ErrorContext(ctx, "stored credential unusable",
			"operation", "login",
			"outcome", "failure",
			"account_id", account.ID,
			"error", err,
		)
		return AuthResult{}, domain.ErrCredential
	}
	if !ok {
		s.recordLoginFailure(ctx, lockKey, "wrong_password")
		return AuthResult{}, domain.ErrCredential
	}

	if s.lockouts != nil {
		_ = s.lockouts.Clear(ctx, lockKey)
	}
	return s.authResult(account)
}

// ChangePassword requires the current password and mints a new session on success.
// Previously issued sessions stay valid until they expire.
func (s *Service) ChangePassword(ctx context.Context, p Principal, req ChangePasswordRequest) (AuthResult, error) {
	if req.OldPassword == "" || req.NewPassword == "" {
		return AuthResult{}, fmt.Errorf("%w: oldPassword and newPassword are required", domain.ErrValidation)
	}
	account, err := s.accounts.FindByID(ctx, p.AccountID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return AuthResult{}, domain.ErrAuthentication
		}
		return AuthResult{}, dependencyError("find account", err)
	}

	ok, err := s.credentials.VerifyPassword(ctx, &account, req.OldPassword)
	if err != nil {
		return AuthResult{}, err
	}
	if !ok {
		return AuthResult{}, domain.ErrCredential
	}
	if err := s.credentials.SetPassword(ctx, &account, req.NewPassword); err != nil {
		return AuthResult{}, err
	}

	now := s.nowFn()
	account.UpdatedAt = now
	event := newAccountEvent(eventTypePasswordChanged, account, now)
	saved, err := s.accounts.Save(ctx, account, ports.SaveOptions{
		Fields: []domain.AccountField{domain.FieldPasswordHash},
		Event:  &event,
	})
	if err != nil {
		return AuthResult{}, dependencyError("store password", err)
	}
	return s.authResult(saved)
}

func (s *Service) authResult(account domain.Account) (AuthResult, error) {
	session, err := s.sessions.Issue(account)
	if err != nil {
		return AuthResult{}, err
	}
	return AuthResult{Account: NewAccountView(account), Session: session}, nil
}

func (s *Service) recordLoginFailure(ctx context.Context, lockKey, reason string) {
	appLogger().WarnContext(ctx, "login rejected",
		"operation", "login",
		"outcome", "failure",
		"reason", reason,
	)
	if s.lockouts == nil {
		return
	}
	if _, err := s.lockouts.RecordFailure(ctx, lockKey, s.nowFn(), s.cfg.FailedLoginThreshold, s.cfg.LockoutDuration); err != nil {
		appLogger().WarnContext(ctx, "lockout state unavailable",
			"operation", "record_login_failure",
			"outcome", "warning",
			"error", err,
		)
	}
}
