package events

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/viralforge/tshirtstore/internal/observability"
	"github.com/viralforge/tshirtstore/internal/ports"
)

// OutboxWorker relays committed account events to the broker.
type OutboxWorker struct {
	logger     *slog.Logger
	outbox     ports.OutboxRepository
	publisher  ports.EventPublisher
	metrics    *observability.Metrics
	interval   time.Duration
	batchSize  int
	claimTTL   time.Duration
	maxRetries int
	nowFn      func() time.Time
}

type OutboxWorkerConfig struct {
	Interval   time.Duration
	BatchSize  int
	ClaimTTL   time.Duration
	MaxRetries int
}

func NewOutboxWorker(
	logger *slog.Logger,
	outbox ports.OutboxRepository,
	publisher ports.EventPublisher,
	metrics *observability.Metrics,
	cfg OutboxWorkerConfig,
) *OutboxWorker {
	if cfg.Interval <= 0 {
		cfg.Interval = 2 * time.Second
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 100
	}
	if cfg.ClaimTTL <= 0 {
		cfg.ClaimTTL = 30 * time.Second
	}
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = 5
	}
	return &OutboxWorker{
		logger:     logger.With("module", "events.outbox_worker", "layer", "adapter"),
		outbox:     outbox,
		publisher:  publisher,
		metrics:    metrics,
		interval:   cfg.Interval,
		batchSize:  cfg.BatchSize,
		claimTTL:   cfg.ClaimTTL,
		maxRetries: cfg.MaxRetries,
		nowFn:      func() time.Time { return time.Now().UTC() },
	}
}

// Run processes batches on every tick until ctx is cancelled.
func (w *OutboxWorker) Run(ctx context.Context) error {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		if err := w.processOnce(ctx); err != nil && ctx.Err() == nil {
			w.logger.ErrorContext(ctx, "outbox iteration failed",
				"operation", "outbox_process_once",
				"outcome", "failure",
				"error", err,
			)
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

type batchResult struct {
	published    int
	failed       int
	deadLettered int
}

func (w *OutboxWorker) processOnce(ctx context.Context) error {
	claimToken := uuid.NewString()
	records, err := w.outbox.ClaimUnpublished(ctx, w.batchSize, claimToken, w.nowFn().Add(w.claimTTL))
	if err != nil {
		return err
	}

	var res batchResult
	for _, rec := range records {
		w.processRecord(ctx, claimToken, rec, &res)
	}

	w.metrics.ObserveOutbox("published", res.published)
	w.metrics.ObserveOutbox("failed", res.failed)
	w.metrics.ObserveOutbox("dead_lettered", res.deadLettered)
	if len(records) > 0 {
		w.logger.InfoContext(ctx, "outbox batch processed",
			"operation", "outbox_process_once",
			"outcome", "success",
			"batch_size", len(records),
			"published_count", res.published,
			"failed_count", res.failed,
			"dead_lettered_count", res.deadLettered,
		)
	}
	return nil
}

func (w *OutboxWorker) processRecord(ctx context.Context, claimToken string, rec ports.OutboxRecord, res *batchResult) {
	now := w.nowFn()
	if rec.RetryCount >= w.maxRetries {
		res.deadLettered++
		w.mark(ctx, rec, w.outbox.MarkDeadLettered(ctx, rec.OutboxID, claimToken, "retry threshold reached before publish", now))
		return
	}

	err := w.publisher.Publish(ctx, rec.EventType, rec.Payload, rec.PartitionKey)
	if err == nil {
		res.published++
		w.mark(ctx, rec, w.outbox.MarkPublished(ctx, rec.OutboxID, claimToken, now))
		return
	}

	res.failed++
	retriesAfterFailure := rec.RetryCount + 1
	fields := []any{
		"operation", "publish_event",
		"outcome", "failure",
		"outbox_id", rec.OutboxID,
		"event_type", rec.EventType,
		"retry_count", retriesAfterFailure,
		"error", err,
	}
	if retriesAfterFailure >= w.maxRetries {
		res.deadLettered++
		w.logger.ErrorContext(ctx, "outbox message moved to dlq", fields...)
		w.mark(ctx, rec, w.outbox.MarkDeadLettered(ctx, rec.OutboxID, claimToken, err.Error(), now))
		return
	}
	w.logger.WarnContext(ctx, "outbox publish failed; retry scheduled", fields...)
	w.mark(ctx, rec, w.outbox.MarkFailed(ctx, rec.OutboxID, claimToken, err.Error(), now))
}

func (w *OutboxWorker) mark(ctx context.Context, rec ports.OutboxRecord, err error) {
	if err == nil {
		return
	}
	w.logger.WarnContext(ctx, "outbox state update failed",
		"operation", "outbox_mark",
		"outcome", "failure",
		"outbox_id", rec.OutboxID,
		"error", err,
	)
}
