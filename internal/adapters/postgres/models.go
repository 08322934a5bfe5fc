package postgres

import (
	"time"

	"github.com/google/uuid"
)

type accountModel struct {
	AccountID        uuid.UUID  `gorm:"column:account_id;type:uuid;primaryKey"`
	Name             string     `gorm:"column:name"`
	Email            string     `gorm:"column:email"`
	PasswordHash     string     `gorm:"column:password_hash"`
	Role             string     `gorm:"column:role"`
	ResetTokenHash   *string    `gorm:"column:reset_token_hash"`
	ResetTokenExpiry *time.Time `gorm:"column:reset_token_expiry"`
	CreatedAt        time.Time  `gorm:"column:created_at"`
	UpdatedAt        time.Time  `gorm:"column:updated_at"`
}

func (accountModel) TableName() string { return "accounts" }

type accountOutboxModel struct {
	OutboxID       uuid.UUID  `gorm:"column:outbox_id;type:uuid;primaryKey"`
	EventType      string     `gorm:"column:event_type"`
	PartitionKey   string     `gorm:"column:partition_key"`
	Payload        string     `gorm:"column:payload;type:jsonb"`
	CreatedAt      time.Time  `gorm:"column:created_at"`
	PublishedAt    *time.Time `gorm:"column:published_at"`
	RetryCount     int        `gorm:"column:retry_count"`
	LastError      *string    `gorm:"column:last_error"`
	LastErrorAt    *time.Time `gorm:"column:last_error_at"`
	ClaimToken     *string    `gorm:"column:claim_token"`
	ClaimUntil     *time.Time `gorm:"column:claim_until"`
	DeadLetteredAt *time.Time `gorm:"column:dead_lettered_at"`
}

func (accountOutboxModel) TableName() string { return "account_outbox" }
