package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/viralforge/tshirtstore/internal/domain"
	"github.com/viralforge/tshirtstore/internal/ports"
	"gorm.io/gorm"
)

// AccountStore persists accounts with gorm. Writes that carry an outbox event commit
// the account row and the event in one transaction.
type AccountStore struct {
	db *gorm.DB
}

func NewAccountStore(db *gorm.DB) *AccountStore {
	return &AccountStore{db: db}
}

func (s *AccountStore) Create(ctx context.Context, account domain.Account, event *ports.OutboxEvent) (domain.Account, error) {
	if err := account.Validate(); err != nil {
		return domain.Account{}, err
	}
	rec := toAccountModel(account)
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&rec).Error; err != nil {
			if isUniqueViolation(err) {
				return fmt.Errorf("%w: email already registered", domain.ErrConflict)
			}
			return err
		}
		return enqueue(tx, event)
	})
	if err != nil {
		return domain.Account{}, err
	}
	return toDomainAccount(rec), nil
}

func (s *AccountStore) FindByEmail(ctx context.Context, email string) (domain.Account, error) {
	return s.take(ctx, "email = ?", email)
}

func (s *AccountStore) FindByID(ctx context.Context, id uuid.UUID) (domain.Account, error) {
	return s.take(ctx, "account_id = ?", id)
}

// FindByResetTokenHash only matches tokens whose expiry is strictly after now.
func (s *AccountStore) FindByResetTokenHash(ctx context.Context, tokenHash string, now time.Time) (domain.Account, error) {
	var rec accountModel
	err := s.db.WithContext(ctx).
		Where("reset_token_hash = ?", tokenHash).
		Where("reset_token_expiry > ?", now.UTC()).
		Take(&rec).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.Account{}, domain.ErrNotFound
		}
		return domain.Account{}, err
	}
	return toDomainAccount(rec), nil
}

// Save writes the selected columns in a single UPDATE. With a Guard the statement also
// requires the stored reset hash to match and be unexpired; zero affected rows is ErrNotFound.
func (s *AccountStore) Save(ctx context.Context, account domain.Account, opts ports.SaveOptions) (domain.Account, error) {
	if opts.SkipValidation {
		if err := account.ValidateResetPair(); err != nil {
			return domain.Account{}, err
		}
	} else if err := account.Validate(); err != nil {
		return domain.Account{}, err
	}
	if account.UpdatedAt.IsZero() {
		account.UpdatedAt = time.Now().UTC()
	}

	var saved accountModel
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		q := tx.Model(&accountModel{}).Where("account_id = ?", account.ID)
		if opts.Guard != nil {
			q = q.Where("reset_token_hash = ?", opts.Guard.TokenHash).
				Where("reset_token_expiry > ?", opts.Guard.ValidAt.UTC())
		}
		res := q.Updates(accountUpdates(account, opts.Fields))
		if res.Error != nil {
			if isUniqueViolation(res.Error) {
				return fmt.Errorf("%w: email already registered", domain.ErrConflict)
			}
			return res.Error
		}
		if res.RowsAffected == 0 {
			return domain.ErrNotFound
		}
		if err := enqueue(tx, opts.Event); err != nil {
			return err
		}
		return tx.Where("account_id = ?", account.ID).Take(&saved).Error
	})
	if err != nil {
		return domain.Account{}, err
	}
	return toDomainAccount(saved), nil
}

func (s *AccountStore) List(ctx context.Context, filter ports.AccountFilter) ([]domain.Account, error) {
	q := s.db.WithContext(ctx).Model(&accountModel{})
	if filter.Role != nil {
		q = q.Where("role = ?", string(*filter.Role))
	}
	var rows []accountModel
	if err := q.Order("created_at ASC").Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]domain.Account, 0, len(rows))
	for _, row := range rows {
		out = append(out, toDomainAccount(row))
	}
	return out, nil
}

func (s *AccountStore) Delete(ctx context.Context, id uuid.UUID, event *ports.OutboxEvent) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Where("account_id = ?", id).Delete(&accountModel{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return domain.ErrNotFound
		}
		return enqueue(tx, event)
	})
}

func (s *AccountStore) take(ctx context.Context, query string, arg any) (domain.Account, error) {
	var rec accountModel
	if err := s.db.WithContext(ctx).Where(query, arg).Take(&rec).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.Account{}, domain.ErrNotFound
		}
		return domain.Account{}, err
	}
	return toDomainAccount(rec), nil
}

func enqueue(tx *gorm.DB, event *ports.OutboxEvent) error {
	if event == nil {
		return nil
	}
	rec := toOutboxModel(*event)
	return tx.Create(&rec).Error
}
