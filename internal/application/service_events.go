package application

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/viralforge/tshirtstore/internal/domain"
	"github.com/viralforge/tshirtstore/internal/ports"
)

const (
	eventTypeAccountRegistered = "account.registered"
	eventTypePasswordChanged   = "account.password_changed"
	eventTypePasswordReset     = "account.password_reset"
	eventTypeAccountDeleted    = "account.deleted"
)

// newAccountEvent builds an outbox event keyed by account id. Payloads carry no secrets.
func newAccountEvent(eventType string, account domain.Account, at time.Time) ports.OutboxEvent {
	payload, _ := json.Marshal(map[string]any{
		"account_id":  account.ID,
		"email":       account.Email,
		"role":        account.Role,
		"occurred_at": at,
	})
	return ports.OutboxEvent{
		EventID:      uuid.New(),
		EventType:    eventType,
		PartitionKey: account.ID.String(),
		Payload:      payload,
		OccurredAt:   at,
	}
}
