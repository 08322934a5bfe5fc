package application

import (
	"context"
	"errors"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"github.com/viralforge/tshirtstore/internal/adapters/security"
	"github.com/viralforge/tshirtstore/internal/domain"
	"github.com/viralforge/tshirtstore/internal/ports"
	"golang.org/x/crypto/bcrypt"
)

const testSecret = "test-secret-test-secret-test-secret!"

type memoryAccounts struct {
	mu       sync.Mutex
	byID     map[uuid.UUID]domain.Account
	events   []ports.OutboxEvent
	findErr  error
	saveErr  error
	saveHook func(domain.Account, ports.SaveOptions)
}

func newMemoryAccounts() *memoryAccounts {
	return &memoryAccounts{byID: map[uuid.UUID]domain.Account{}}
}

func (m *memoryAccounts) Create(_ context.Context, a domain.Account, event *ports.OutboxEvent) (domain.Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := a.Validate(); err != nil {
		return domain.Account{}, err
	}
	for _, existing := range m.byID {
		if existing.Email == a.Email {
			return domain.Account{}, domain.ErrConflict
		}
	}
	m.byID[a.ID] = a
	if event != nil {
		m.events = append(m.events, *event)
	}
	return a, nil
}

func (m *memoryAccounts) FindByEmail(_ context.Context, email string) (domain.Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.findErr != nil {
		return domain.Account{}, m.findErr
	}
	for _, a := range m.byID {
		if a.Email == email {
			return a, nil
		}
	}
	return domain.Account{}, domain.ErrNotFound
}

func (m *memoryAccounts) FindByID(_ context.Context, id uuid.UUID) (domain.Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.findErr != nil {
		return domain.Account{}, m.findErr
	}
	a, ok := m.byID[id]
	if !ok {
		return domain.Account{}, domain.ErrNotFound
	}
	return a, nil
}

func (m *memoryAccounts) FindByResetTokenHash(_ context.Context, hash string, now time.Time) (domain.Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, a := range m.byID {
		if resetMatches(a, hash, now) {
			return a, nil
		}
	}
	return domain.Account{}, domain.ErrNotFound
}

func (m *memoryAccounts) Save(_ context.Context, a domain.Account, opts ports.SaveOptions) (domain.Account, error) {
	if m.saveHook != nil {
		m.saveHook(a, opts)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.saveErr != nil {
		return domain.Account{}, m.saveErr
	}
	if opts.SkipValidation {
		if err := a.ValidateResetPair(); err != nil {
			return domain.Account{}, err
		}
	} else if err := a.Validate(); err != nil {
		return domain.Account{}, err
	}
	stored, ok := m.byID[a.ID]
	if !ok {
		return domain.Account{}, domain.ErrNotFound
	}
	if opts.Guard != nil && !resetMatches(stored, opts.Guard.TokenHash, opts.Guard.ValidAt) {
		return domain.Account{}, domain.ErrNotFound
	}

	fields := opts.Fields
	if len(fields) == 0 {
		fields = domain.AllAccountFields
	}
	for _, f := range fields {
		switch f {
		case domain.FieldName:
			stored.Name = a.Name
		case domain.FieldEmail:
			for id, other := range m.byID {
				if id != a.ID && other.Email == a.Email {
					return domain.Account{}, domain.ErrConflict
				}
			}
			stored.Email = a.Email
		case domain.FieldPasswordHash:
			stored.PasswordHash = a.PasswordHash
		case domain.FieldRole:
			stored.Role = a.Role
		case domain.FieldResetToken:
			stored.ResetTokenHash = a.ResetTokenHash
			stored.ResetTokenExpiry = a.ResetTokenExpiry
		}
	}
	stored.UpdatedAt = a.UpdatedAt
	m.byID[a.ID] = stored
	if opts.Event != nil {
		m.events = append(m.events, *opts.Event)
	}
	return stored, nil
}

func (m *memoryAccounts) List(_ context.Context, filter ports.AccountFilter) ([]domain.Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]domain.Account, 0, len(m.byID))
	for _, a := range m.byID {
		if filter.Role != nil && a.Role != *filter.Role {
			continue
		}
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Email < out[j].Email })
	return out, nil
}

func (m *memoryAccounts) Delete(_ context.Context, id uuid.UUID, event *ports.OutboxEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.byID[id]; !ok {
		return domain.ErrNotFound
	}
	delete(m.byID, id)
	if event != nil {
		m.events = append(m.events, *event)
	}
	return nil
}

func (m *memoryAccounts) get(id uuid.UUID) domain.Account {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.byID[id]
}

func (m *memoryAccounts) eventTypes() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, 0, len(m.events))
	for _, e := range m.events {
		out = append(out, e.EventType)
	}
	return out
}

func resetMatches(a domain.Account, hash string, at time.Time) bool {
	return a.ResetTokenHash != nil && *a.ResetTokenHash == hash &&
		a.ResetTokenExpiry != nil && a.ResetTokenExpiry.After(at)
}

type recordingMailer struct {
	mu   sync.Mutex
	sent []ports.MailMessage
	err  error
}

func (r *recordingMailer) Send(_ context.Context, msg ports.MailMessage) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return r.err
	}
	r.sent = append(r.sent, msg)
	return nil
}

func (r *recordingMailer) last() ports.MailMessage {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.sent) == 0 {
		return ports.MailMessage{}
	}
	return r.sent[len(r.sent)-1]
}

type memoryLockouts struct {
	mu     sync.Mutex
	states map[string]ports.LockoutState
}

func newMemoryLockouts() *memoryLockouts {
	return &memoryLockouts{states: map[string]ports.LockoutState{}}
}

func (l *memoryLockouts) Get(_ context.Context, key string) (ports.LockoutState, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.states[key], nil
}

func (l *memoryLockouts) RecordFailure(_ context.Context, key string, now time.Time, threshold int, window time.Duration) (ports.LockoutState, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	st := l.states[key]
	st.FailedCount++
	if threshold > 0 && st.FailedCount >= threshold {
		until := now.Add(window)
		st.LockedUntil = &until
	}
	l.states[key] = st
	return st, nil
}

func (l *memoryLockouts) Clear(_ context.Context, key string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.states, key)
	return nil
}

// testClock is a manually advanced clock shared by the service and the signer.
type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func newTestClock() *testClock {
	return &testClock{now: time.Date(2026, 4, 1, 9, 0, 0, 0, time.UTC)}
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type fixture struct {
	svc      *Service
	accounts *memoryAccounts
	mailer   *recordingMailer
	lockouts *memoryLockouts
	clock    *testClock
	hasher   *security.BcryptHasher
}

func testConfig() Config {
	return Config{
		SessionTTL:            72 * time.Hour,
		ResetTokenWindow:      20 * time.Minute,
		ResetURLBase:          "https://shop.example.com/",
		FailedLoginThreshold:  5,
		LockoutDuration:       15 * time.Minute,
		ResetRequestThreshold: 3,
		ResetRequestWindow:    time.Hour,
	}
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	clock := newTestClock()
	hasher, err := security.NewBcryptHasher(bcrypt.MinCost, 4)
	require.NoError(t, err)
	signer, err := security.NewJWTSigner(testSecret, clock.Now)
	require.NoError(t, err)

	f := &fixture{
		accounts: newMemoryAccounts(),
		mailer:   &recordingMailer{},
		lockouts: newMemoryLockouts(),
		clock:    clock,
		hasher:   hasher,
	}
	f.svc, err = NewService(Dependencies{
		Config:   testConfig(),
		Accounts: f.accounts,
		Hasher:   hasher,
		Signer:   signer,
		Mailer:   f.mailer,
		Lockouts: f.lockouts,
		Clock:    clock.Now,
	})
	require.NoError(t, err)
	return f
}

// seed stores an account with the given role and password directly.
func (f *fixture) seed(t *testing.T, name, email, password string, role domain.Role) domain.Account {
	t.Helper()
	acct := domain.Account{
		ID:        uuid.New(),
		Name:      name,
		Email:     email,
		Role:      role,
		CreatedAt: f.clock.Now(),
		UpdatedAt: f.clock.Now(),
	}
	hash, err := f.hasher.Hash(context.Background(), password)
	require.NoError(t, err)
	acct.PasswordHash = hash
	created, err := f.accounts.Create(context.Background(), acct, nil)
	require.NoError(t, err)
	return created
}

var errBoom = errors.New("boom")
