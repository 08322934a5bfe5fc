package application

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/viralforge/tshirtstore/internal/domain"
	"github.com/viralforge/tshirtstore/internal/ports"
)

// SessionIssuer mints and verifies stateless session artifacts.
// A minted artifact stays valid until its own expiry; there is no server-side revocation list.
type SessionIssuer struct {
	signer ports.SessionSigner
	ttl    time.Duration
	nowFn  func() time.Time
}

func NewSessionIssuer(signer ports.SessionSigner, ttl time.Duration, nowFn func() time.Time) (*SessionIssuer, error) {
	if signer == nil {
		return nil, errors.New("session signer is required")
	}
	if ttl <= 0 {
		return nil, errors.New("session ttl must be positive")
	}
	if nowFn == nil {
		nowFn = time.Now
	}
	return &SessionIssuer{signer: signer, ttl: ttl, nowFn: nowFn}, nil
}

// Issue returns a brand-new artifact bound to the account id.
func (s *SessionIssuer) Issue(account domain.Account) (SessionArtifact, error) {
	if account.ID == uuid.Nil {
		return SessionArtifact{}, fmt.Errorf("%w: account id is required", domain.ErrValidation)
	}
	// Registered JWT dates carry whole seconds.
	now := s.nowFn().UTC().Truncate(time.Second)
	claims := ports.SessionClaims{
		Subject:   account.ID,
		IssuedAt:  now,
		ExpiresAt: now.Add(s.ttl),
	}
	token, err := s.signer.Sign(claims)
	if err != nil {
		return SessionArtifact{}, fmt.Errorf("sign session: %w", err)
	}
	return SessionArtifact{Token: token, ExpiresAt: claims.ExpiresAt}, nil
}

// Verify checks integrity and expiry. Every failure collapses to ErrAuthentication.
func (s *SessionIssuer) Verify(token string) (ports.SessionClaims, error) {
	if strings.TrimSpace(token) == "" {
		return ports.SessionClaims{}, domain.ErrAuthentication
	}
	claims, err := s.signer.Parse(token)
	if err != nil {
		return ports.SessionClaims{}, fmt.Errorf("%w: %v", domain.ErrAuthentication, err)
	}
	if claims.Subject == uuid.Nil {
		return ports.SessionClaims{}, domain.ErrAuthentication
	}
	return claims, nil
}
