package security

import (
	"context"
	"errors"
	"fmt"
	"runtime"

	"golang.org/x/crypto/bcrypt"
	"golang.org/x/sync/semaphore"
)

// BcryptHasher implements password hashing via bcrypt.
// Derivations are CPU bound, so at most maxConcurrent run at once across all requests.
type BcryptHasher struct {
	cost  int
	slots *semaphore.Weighted
}

// NewBcryptHasher creates a bcrypt-based hasher. Non-positive values fall back to
// bcrypt.DefaultCost and GOMAXPROCS.
func NewBcryptHasher(cost, maxConcurrent int) (*BcryptHasher, error) {
	if cost <= 0 {
		cost = bcrypt.DefaultCost
	}
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		return nil, fmt.Errorf("bcrypt cost %d out of range [%d,%d]", cost, bcrypt.MinCost, bcrypt.MaxCost)
	}
	if maxConcurrent <= 0 {
		maxConcurrent = runtime.GOMAXPROCS(0)
	}
	return &BcryptHasher{cost: cost, slots: semaphore.NewWeighted(int64(maxConcurrent))}, nil
}

func (h *BcryptHasher) Hash(ctx context.Context, password string) (string, error) {
	if err := h.slots.Acquire(ctx, 1); err != nil {
		return "", err
	}
	defer h.slots.Release(1)

	hashed, err := bcrypt.GenerateFromPassword([]byte(password), h.cost)
	if err != nil {
		return "", err
	}
	return string(hashed), nil
}

// Compare is constant time in the password. A mismatch is reported as (false, nil).
func (h *BcryptHasher) Compare(ctx context.Context, hash, password string) (bool, error) {
	if err := h.slots.Acquire(ctx, 1); err != nil {
		return false, err
	}
	defer h.slots.Release(1)

	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, bcrypt.ErrMismatchedHashAndPassword):
		return false, nil
	default:
		return false, err
	}
}
