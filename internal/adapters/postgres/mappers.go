package postgres

import (
	"errors"

	"github.com/viralforge/tshirtstore/internal/domain"
	"github.com/viralforge/tshirtstore/internal/ports"
	"gorm.io/gorm"
)

func toDomainAccount(rec accountModel) domain.Account {
	out := domain.Account{
		ID:               rec.AccountID,
		Name:             rec.Name,
		Email:            rec.Email,
		PasswordHash:     rec.PasswordHash,
		Role:             domain.Role(rec.Role),
		ResetTokenHash:   rec.ResetTokenHash,
		ResetTokenExpiry: rec.ResetTokenExpiry,
		CreatedAt:        rec.CreatedAt.UTC(),
		UpdatedAt:        rec.UpdatedAt.UTC(),
	}
	if out.ResetTokenExpiry != nil {
		expiry := out.ResetTokenExpiry.UTC()
		out.ResetTokenExpiry = &expiry
	}
	return out
}

func toAccountModel(a domain.Account) accountModel {
	return accountModel{
		AccountID:        a.ID,
		Name:             a.Name,
		Email:            a.Email,
		PasswordHash:     a.PasswordHash,
		Role:             string(a.Role),
		ResetTokenHash:   a.ResetTokenHash,
		ResetTokenExpiry: a.ResetTokenExpiry,
		CreatedAt:        a.CreatedAt,
		UpdatedAt:        a.UpdatedAt,
	}
}

// accountUpdates selects the columns a partial save writes. Reset fields are always
// written as a pair, with nil clearing both.
func accountUpdates(a domain.Account, fields []domain.AccountField) map[string]any {
	if len(fields) == 0 {
		fields = domain.AllAccountFields
	}
	updates := map[string]any{"updated_at": a.UpdatedAt}
	for _, f := range fields {
		switch f {
		case domain.FieldName:
			updates["name"] = a.Name
		case domain.FieldEmail:
			updates["email"] = a.Email
		case domain.FieldPasswordHash:
			updates["password_hash"] = a.PasswordHash
		case domain.FieldRole:
			updates["role"] = string(a.Role)
		case domain.FieldResetToken:
			if a.ResetTokenHash != nil && a.ResetTokenExpiry != nil {
				updates["reset_token_hash"] = *a.ResetTokenHash
				updates["reset_token_expiry"] = *a.ResetTokenExpiry
			} else {
				updates["reset_token_hash"] = nil
				updates["reset_token_expiry"] = nil
			}
		}
	}
	return updates
}

func toOutboxModel(event ports.OutboxEvent) accountOutboxModel {
	payload := event.Payload
	if len(payload) == 0 {
		payload = []byte(`{}`)
	}
	return accountOutboxModel{
		OutboxID:     event.EventID,
		EventType:    event.EventType,
		PartitionKey: event.PartitionKey,
		Payload:      string(payload),
		CreatedAt:    event.OccurredAt,
	}
}

func toOutboxRecord(row accountOutboxModel) ports.OutboxRecord {
	return ports.OutboxRecord{
		OutboxID:       row.OutboxID,
		EventType:      row.EventType,
		PartitionKey:   row.PartitionKey,
		Payload:        []byte(row.Payload),
		RetryCount:     row.RetryCount,
		LastError:      row.LastError,
		CreatedAt:      row.CreatedAt,
		PublishedAt:    row.PublishedAt,
		LastErrorAt:    row.LastErrorAt,
		ClaimToken:     row.ClaimToken,
		ClaimUntil:     row.ClaimUntil,
		DeadLetteredAt: row.DeadLetteredAt,
	}
}

func isUniqueViolation(err error) bool {
	return errors.Is(err, gorm.ErrDuplicatedKey)
}
