package application

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/viralforge/tshirtstore/internal/domain"
	"github.com/viralforge/tshirtstore/internal/ports"
)

// CurrentAccount returns the dashboard view of the authenticated account.
func (s *Service) CurrentAccount(ctx context.Context, p Principal) (AccountView, error) {
	account, err := s.accounts.FindByID(ctx, p.AccountID)
	if err != nil {
		return AccountView{}, dependencyError("find account", err)
	}
	return NewAccountView(account), nil
}

// UpdateProfile changes the caller's own name and email. Role is never touched here.
func (s *Service) UpdateProfile(ctx context.Context, p Principal, req UpdateProfileRequest) (AccountView, error) {
	if strings.TrimSpace(req.Name) == "" && strings.TrimSpace(req.Email) == "" {
		return AccountView{}, fmt.Errorf("%w: name or email is required", domain.ErrValidation)
	}
	account, err := s.accounts.FindByID(ctx, p.AccountID)
	if err != nil {
		return AccountView{}, dependencyError("find account", err)
	}

	fields := make([]domain.AccountField, 0, 2)
	if strings.TrimSpace(req.Name) != "" {
		if err := domain.ValidateName(req.Name); err != nil {
			return AccountView{}, err
		}
		account.Name = strings.TrimSpace(req.Name)
		fields = append(fields, domain.FieldName)
	}
	if strings.TrimSpace(req.Email) != "" {
		email, err := domain.NormalizeEmail(req.Email)
		if err != nil {
			return AccountView{}, err
		}
		account.Email = email
		fields = append(fields, domain.FieldEmail)
	}
	account.UpdatedAt = s.nowFn()

	saved, err := s.accounts.Save(ctx, account, ports.SaveOptions{Fields: fields})
	if err != nil {
		return AccountView{}, dependencyError("update profile", err)
	}
	return NewAccountView(saved), nil
}

// ListAccounts returns every account for the admin console.
func (s *Service) ListAccounts(ctx context.Context) ([]AccountView, error) {
	accounts, err := s.accounts.List(ctx, ports.AccountFilter{})
	if err != nil {
		return nil, dependencyError("list accounts", err)
	}
	out := make([]AccountView, 0, len(accounts))
	for _, a := range accounts {
		out = append(out, NewAccountView(a))
	}
	return out, nil
}

func (s *Service) GetAccount(ctx context.Context, id uuid.UUID) (AccountView, error) {
	account, err := s.accounts.FindByID(ctx, id)
	if err != nil {
		return AccountView{}, dependencyError("find account", err)
	}
	return NewAccountView(account), nil
}

// AdminUpdateAccount sets name, email and role on another account.
// An admin may edit their own name and email but not their own role.
func (s *Service) AdminUpdateAccount(ctx context.Context, actor Principal, id uuid.UUID, req AdminUpdateAccountRequest) (AccountView, error) {
	if strings.TrimSpace(req.Name) == "" || strings.TrimSpace(req.Email) == "" || strings.TrimSpace(req.Role) == "" {
		return AccountView{}, fmt.Errorf("%w: name, email and role are required", domain.ErrValidation)
	}
	if err := domain.ValidateName(req.Name); err != nil {
		return AccountView{}, err
	}
	email, err := domain.NormalizeEmail(req.Email)
	if err != nil {
		return AccountView{}, err
	}
	role, err := domain.ParseRole(req.Role)
	if err != nil {
		return AccountView{}, err
	}

	account, err := s.accounts.FindByID(ctx, id)
	if err != nil {
		return AccountView{}, dependencyError("find account", err)
	}
	if account.ID == actor.AccountID && account.Role != role {
		return AccountView{}, fmt.Errorf("%w: admins cannot change their own role", domain.ErrValidation)
	}

	account.Name = strings.TrimSpace(req.Name)
	account.Email = email
	account.Role = role
	account.UpdatedAt = s.nowFn()

	saved, err := s.accounts.Save(ctx, account, ports.SaveOptions{
		Fields: []domain.AccountField{domain.FieldName, domain.FieldEmail, domain.FieldRole},
	})
	if err != nil {
		return AccountView{}, dependencyError("update account", err)
	}
	appLogger().InfoContext(ctx, "account updated by admin",
		"operation", "admin_update_account",
		"outcome", "success",
		"actor_id", actor.AccountID,
		"account_id", saved.ID,
		"role", saved.Role,
	)
	return NewAccountView(saved), nil
}

// DeleteAccount removes an account and records an account.deleted event.
// Sessions already held by that account fail Authenticate afterwards.
func (s *Service) DeleteAccount(ctx context.Context, actor Principal, id uuid.UUID) error {
	account, err := s.accounts.FindByID(ctx, id)
	if err != nil {
		return dependencyError("find account", err)
	}
	event := newAccountEvent(eventTypeAccountDeleted, account, s.nowFn())
	if err := s.accounts.Delete(ctx, account.ID, &event); err != nil {
		return dependencyError("delete account", err)
	}
	appLogger().InfoContext(ctx, "account deleted by admin",
		"operation", "delete_account",
		"outcome", "success",
		"actor_id", actor.AccountID,
		"account_id", account.ID,
	)
	return nil
}

// ListCustomerContacts returns name and email of every user-role account.
func (s *Service) ListCustomerContacts(ctx context.Context) ([]ContactView, error) {
	role := domain.RoleUser
	accounts, err := s.accounts.List(ctx, ports.AccountFilter{Role: &role})
	if err != nil {
		return nil, dependencyError("list customers", err)
	}
	out := make([]ContactView, 0, len(accounts))
	for _, a := range accounts {
		out = append(out, ContactView{Name: a.Name, Email: a.Email})
	}
	return out, nil
}
