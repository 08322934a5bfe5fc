package http

import (
	"context"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"github.com/viralforge/tshirtstore/internal/adapters/security"
	"github.com/viralforge/tshirtstore/internal/application"
	"github.com/viralforge/tshirtstore/internal/domain"
	"github.com/viralforge/tshirtstore/internal/observability"
	"github.com/viralforge/tshirtstore/internal/ports"
	"golang.org/x/crypto/bcrypt"
)

type memoryStore struct {
	mu   sync.Mutex
	byID map[uuid.UUID]domain.Account
}

func (m *memoryStore) Create(_ context.Context, a domain.Account, _ *ports.OutboxEvent) (domain.Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.byID {
		if existing.Email == a.Email {
			return domain.Account{}, domain.ErrConflict
		}
	}
	m.byID[a.ID] = a
	return a, nil
}

func (m *memoryStore) FindByEmail(_ context.Context, email string) (domain.Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, a := range m.byID {
		if a.Email == email {
			return a, nil
		}
	}
	return domain.Account{}, domain.ErrNotFound
}

func (m *memoryStore) FindByID(_ context.Context, id uuid.UUID) (domain.Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.byID[id]
	if !ok {
		return domain.Account{}, domain.ErrNotFound
	}
	return a, nil
}

func (m *memoryStore) FindByResetTokenHash(_ context.Context, hash string, now time.Time) (domain.Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, a := range m.byID {
		if pendingReset(a, hash, now) {
			return a, nil
		}
	}
	return domain.Account{}, domain.ErrNotFound
}

// Save writes whole records; the guard is the only partial-update behavior these tests need.
func (m *memoryStore) Save(_ context.Context, a domain.Account, opts ports.SaveOptions) (domain.Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	stored, ok := m.byID[a.ID]
	if !ok {
		return domain.Account{}, domain.ErrNotFound
	}
	if opts.Guard != nil && !pendingReset(stored, opts.Guard.TokenHash, opts.Guard.ValidAt) {
		return domain.Account{}, domain.ErrNotFound
	}
	m.byID[a.ID] = a
	return a, nil
}

func (m *memoryStore) List(_ context.Context, filter ports.AccountFilter) ([]domain.Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []domain.Account{}
	for _, a := range m.byID {
		if filter.Role == nil || a.Role == *filter.Role {
			out = append(out, a)
		}
	}
	return out, nil
}

func (m *memoryStore) Delete(_ context.Context, id uuid.UUID, _ *ports.OutboxEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.byID[id]; !ok {
		return domain.ErrNotFound
	}
	delete(m.byID, id)
	return nil
}

func pendingReset(a domain.Account, hash string, at time.Time) bool {
	return a.ResetTokenHash != nil && *a.ResetTokenHash == hash &&
		a.ResetTokenExpiry != nil && a.ResetTokenExpiry.After(at)
}

type outbox struct {
	mu   sync.Mutex
	sent []ports.MailMessage
	err  error
}

func (o *outbox) Send(_ context.Context, msg ports.MailMessage) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.err != nil {
		return o.err
	}
	o.sent = append(o.sent, msg)
	return nil
}

func (o *outbox) fail(err error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.err = err
}

func (o *outbox) last() ports.MailMessage {
	o.mu.Lock()
	defer o.mu.Unlock()
	if len(o.sent) == 0 {
		return ports.MailMessage{}
	}
	return o.sent[len(o.sent)-1]
}

type testServer struct {
	handler http.Handler
	store   *memoryStore
	mail    *outbox
	hasher  *security.BcryptHasher
	metrics *observability.Metrics
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	hasher, err := security.NewBcryptHasher(bcrypt.MinCost, 4)
	require.NoError(t, err)
	signer, err := security.NewJWTSigner("http-test-secret-http-test-secret!!", nil)
	require.NoError(t, err)

	ts := &testServer{
		store:   &memoryStore{byID: map[uuid.UUID]domain.Account{}},
		mail:    &outbox{},
		hasher:  hasher,
		metrics: observability.NewMetrics(),
	}
	svc, err := application.NewService(application.Dependencies{
		Config: application.Config{
			SessionTTL:       72 * time.Hour,
			ResetTokenWindow: 20 * time.Minute,
			ResetURLBase:     "https://shop.example.com",
		},
		Accounts: ts.store,
		Hasher:   hasher,
		Signer:   signer,
		Mailer:   ts.mail,
	})
	require.NoError(t, err)
	ts.handler = NewRouter(NewHandler(svc, Options{Metrics: ts.metrics, SecureCookies: true}))
	return ts
}

func (ts *testServer) seed(t *testing.T, name, email, password string, role domain.Role) domain.Account {
	t.Helper()
	hash, err := ts.hasher.Hash(context.Background(), password)
	require.NoError(t, err)
	now := time.Now().UTC()
	acct := domain.Account{
		ID:           uuid.New(),
		Name:         name,
		Email:        email,
		PasswordHash: hash,
		Role:         role,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	created, err := ts.store.Create(context.Background(), acct, nil)
	require.NoError(t, err)
	return created
}
