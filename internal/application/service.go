package application

import (
	"errors"
	"time"

	"github.com/viralforge/tshirtstore/internal/ports"
)

type Service struct {
	cfg         Config
	accounts    ports.AccountStore
	lockouts    ports.LockoutStore
	credentials *CredentialStore
	sessions    *SessionIssuer
	resets      *ResetTokenManager
	gate        *Gate
	nowFn       func() time.Time
}

type Dependencies struct {
	Config   Config
	Accounts ports.AccountStore
	Hasher   ports.PasswordHasher
	Signer   ports.SessionSigner
	Mailer   ports.Mailer
	// Lockouts is optional; without it login lockout and reset throttling are disabled.
	Lockouts ports.LockoutStore
	Clock    func() time.Time
}

func NewService(deps Dependencies) (*Service, error) {
	if deps.Accounts == nil {
		return nil, errors.New("account store is required")
	}
	if deps.Hasher == nil {
		return nil, errors.New("password hasher is required")
	}
	if deps.Mailer == nil {
		return nil, errors.New("mailer is required")
	}
	nowFn := deps.Clock
	if nowFn == nil {
		nowFn = func() time.Time { return time.Now().UTC() }
	}

	sessions, err := NewSessionIssuer(deps.Signer, deps.Config.SessionTTL, nowFn)
	if err != nil {
		return nil, err
	}
	credentials := NewCredentialStore(deps.Hasher)
	resets, err := NewResetTokenManager(deps.Accounts, credentials, sessions, deps.Mailer, deps.Config.ResetTokenWindow, nowFn)
	if err != nil {
		return nil, err
	}

	return &Service{
		cfg:         deps.Config,
		accounts:    deps.Accounts,
		lockouts:    deps.Lockouts,
		credentials: credentials,
		sessions:    sessions,
		resets:      resets,
		gate:        NewGate(deps.Accounts, sessions),
		nowFn:       nowFn,
	}, nil
}

// Gate exposes the authentication pipeline stages to transport middleware.
func (s *Service) Gate() *Gate {
	return s.gate
}
