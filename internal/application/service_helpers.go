package application

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/viralforge/tshirtstore/internal/domain"
)

const serviceName = "tshirtstore"

func appLogger() *slog.Logger {
	return slog.Default().With(
		"service", serviceName,
		"module", "application",
		"layer", "application",
	)
}

// hashToken stores one-way token fingerprints instead of raw secrets.
func hashToken(token string) string {
	sum := sha256.Sum256([]byte(strings.TrimSpace(token)))
	return hex.EncodeToString(sum[:])
}

// randomHex returns a cryptographically random hex token.
func randomHex(bytesLen int) (string, error) {
	raw := make([]byte, bytesLen)
	if _, err := rand.Read(raw); err != nil {
		return "", err
	}
	return hex.EncodeToString(raw), nil
}

// dependencyError tags a collaborator failure unless it already carries a domain kind.
func dependencyError(op string, err error) error {
	for _, known := range []error{
		domain.ErrNotFound,
		domain.ErrConflict,
		domain.ErrValidation,
		domain.ErrDependency,
	} {
		if errors.Is(err, known) {
			return err
		}
	}
	return fmt.Errorf("%w: %s: %w", domain.ErrDependency, op, err)
}

func (s *Service) enforceRateLimit(ctx context.Context, key string, threshold int, window time.Duration) error {
	if s.lockouts == nil || threshold <= 0 || window <= 0 {
		return nil
	}
	if strings.TrimSpace(key) == "" {
		return nil
	}

	state, err := s.lockouts.Get(ctx, key)
	if err == nil && state.LockedUntil != nil && state.LockedUntil.After(s.nowFn()) {
		return domain.ErrRateLimited
	}

	now := s.nowFn()
	updated, err := s.lockouts.RecordFailure(ctx, key, now, threshold, window)
	if err != nil {
		appLogger().WarnContext(ctx, "rate-limit state unavailable",
			"operation", "rate_limit",
			"outcome", "warning",
			"key", key,
			"error", err,
		)
		return nil
	}
	if updated.LockedUntil != nil && updated.LockedUntil.After(now) {
		return domain.ErrRateLimited
	}
	return nil
}
