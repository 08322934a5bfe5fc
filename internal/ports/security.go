package ports

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// PasswordHasher derives and checks salted slow password hashes.
// Compare returns (false, nil) on a mismatch and an error only for malformed hashes.
type PasswordHasher interface {
	Hash(ctx context.Context, password string) (string, error)
	Compare(ctx context.Context, hash, password string) (bool, error)
}

// SessionClaims is the payload carried by a session artifact.
type SessionClaims struct {
	Subject   uuid.UUID
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// SessionSigner serializes and integrity-protects session claims.
// Parse rejects tampered, unsigned, mis-signed and expired artifacts.
type SessionSigner interface {
	Sign(claims SessionClaims) (string, error)
	Parse(token string) (SessionClaims, error)
}
