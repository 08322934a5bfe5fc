package ports

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/viralforge/tshirtstore/internal/domain"
)

// ResetTokenGuard turns a save into a compare-and-swap on the pending reset token.
// The row is only written while its stored hash matches and has not expired at ValidAt.
type ResetTokenGuard struct {
	TokenHash string
	ValidAt   time.Time
}

// SaveOptions controls how AccountStore.Save persists a mutated account.
type SaveOptions struct {
	// Fields restricts the write to these column groups. Empty means every mutable field.
	Fields []domain.AccountField
	// SkipValidation bypasses full-record validation so token fields can be cleared
	// without re-checking unrelated columns such as the password hash.
	SkipValidation bool
	Guard          *ResetTokenGuard
	// Event is written to the outbox in the same transaction as the account update.
	Event *OutboxEvent
}

// AccountFilter narrows AccountStore.List.
type AccountFilter struct {
	Role *domain.Role
}

// AccountStore is the persistence port for user accounts.
// Not-found lookups return domain.ErrNotFound; unique email violations return domain.ErrConflict.
type AccountStore interface {
	Create(ctx context.Context, account domain.Account, event *OutboxEvent) (domain.Account, error)
	FindByEmail(ctx context.Context, email string) (domain.Account, error)
	FindByID(ctx context.Context, id uuid.UUID) (domain.Account, error)
	FindByResetTokenHash(ctx context.Context, tokenHash string, now time.Time) (domain.Account, error)
	Save(ctx context.Context, account domain.Account, opts SaveOptions) (domain.Account, error)
	List(ctx context.Context, filter AccountFilter) ([]domain.Account, error)
	Delete(ctx context.Context, id uuid.UUID, event *OutboxEvent) error
}

// OutboxEvent is the write-side event payload prior to storage.
type OutboxEvent struct {
	EventID      uuid.UUID
	EventType    string
	PartitionKey string
	Payload      []byte
	OccurredAt   time.Time
}

// OutboxRecord is durable outbox state including retry and claim metadata.
type OutboxRecord struct {
	OutboxID       uuid.UUID
	EventType      string
	PartitionKey   string
	Payload        []byte
	RetryCount     int
	LastError      *string
	CreatedAt      time.Time
	PublishedAt    *time.Time
	LastErrorAt    *time.Time
	ClaimToken     *string
	ClaimUntil     *time.Time
	DeadLetteredAt *time.Time
}

// OutboxRepository controls the publish-retry workflow for account events.
type OutboxRepository interface {
	ClaimUnpublished(ctx context.Context, limit int, claimToken string, claimUntil time.Time) ([]OutboxRecord, error)
	MarkPublished(ctx context.Context, outboxID uuid.UUID, claimToken string, at time.Time) error
	MarkFailed(ctx context.Context, outboxID uuid.UUID, claimToken, errMsg string, at time.Time) error
	MarkDeadLettered(ctx context.Context, outboxID uuid.UUID, claimToken, errMsg string, at time.Time) error
}
