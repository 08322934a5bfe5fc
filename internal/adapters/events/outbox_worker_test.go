package events

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/viralforge/tshirtstore/internal/ports"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type fakeOutbox struct {
	mu           sync.Mutex
	pending      []ports.OutboxRecord
	published    []uuid.UUID
	failed       []uuid.UUID
	deadLettered []uuid.UUID
}

func (f *fakeOutbox) ClaimUnpublished(_ context.Context, limit int, _ string, _ time.Time) ([]ports.OutboxRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if limit > len(f.pending) {
		limit = len(f.pending)
	}
	out := f.pending[:limit]
	f.pending = f.pending[limit:]
	return out, nil
}

func (f *fakeOutbox) MarkPublished(_ context.Context, id uuid.UUID, _ string, _ time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.published = append(f.published, id)
	return nil
}

func (f *fakeOutbox) MarkFailed(_ context.Context, id uuid.UUID, _, _ string, _ time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failed = append(f.failed, id)
	return nil
}

func (f *fakeOutbox) MarkDeadLettered(_ context.Context, id uuid.UUID, _, _ string, _ time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deadLettered = append(f.deadLettered, id)
	return nil
}

type fakePublisher struct {
	mu   sync.Mutex
	fail map[string]bool
	keys []string
}

func (p *fakePublisher) Publish(_ context.Context, eventType string, _ []byte, partitionKey string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.fail[eventType] {
		return errors.New("broker unavailable")
	}
	p.keys = append(p.keys, partitionKey)
	return nil
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestOutboxWorkerProcessOnce(t *testing.T) {
	ok := ports.OutboxRecord{OutboxID: uuid.New(), EventType: "account.registered", PartitionKey: "acct-1"}
	retry := ports.OutboxRecord{OutboxID: uuid.New(), EventType: "account.deleted", PartitionKey: "acct-2"}
	lastTry := ports.OutboxRecord{OutboxID: uuid.New(), EventType: "account.deleted", PartitionKey: "acct-3", RetryCount: 2}
	exhausted := ports.OutboxRecord{OutboxID: uuid.New(), EventType: "account.registered", RetryCount: 3}

	outbox := &fakeOutbox{pending: []ports.OutboxRecord{ok, retry, lastTry, exhausted}}
	pub := &fakePublisher{fail: map[string]bool{"account.deleted": true}}
	w := NewOutboxWorker(discardLogger(), outbox, pub, nil, OutboxWorkerConfig{MaxRetries: 3})

	require.NoError(t, w.processOnce(context.Background()))

	assert.Equal(t, []uuid.UUID{ok.OutboxID}, outbox.published)
	assert.Equal(t, []uuid.UUID{retry.OutboxID}, outbox.failed)
	assert.ElementsMatch(t, []uuid.UUID{lastTry.OutboxID, exhausted.OutboxID}, outbox.deadLettered)
	assert.Equal(t, []string{"acct-1"}, pub.keys)
}

func TestOutboxWorkerRunStopsOnCancel(t *testing.T) {
	outbox := &fakeOutbox{}
	w := NewOutboxWorker(discardLogger(), outbox, &fakePublisher{}, nil, OutboxWorkerConfig{Interval: 5 * time.Millisecond})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()

	time.Sleep(20 * time.Millisecond)
	cancel()
	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(time.Second):
		t.Fatal("worker did not stop after cancel")
	}
}

func TestKafkaPublisherTopicSelection(t *testing.T) {
	p, err := NewKafkaPublisher([]string{"localhost:9092"}, "account-events", map[string]string{
		"account.deleted": "account-deletions",
	})
	require.NoError(t, err)
	defer func() { _ = p.Close() }()

	assert.Equal(t, "account-deletions", p.topicFor("account.deleted"))
	assert.Equal(t, "account-events", p.topicFor("account.registered"))

	_, err = NewKafkaPublisher(nil, "", nil)
	assert.Error(t, err)
}
