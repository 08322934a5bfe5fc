package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sethvargo/go-retry"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"gorm.io/gorm"

	cacheadapter "github.com/viralforge/tshirtstore/internal/adapters/cache"
	eventadapter "github.com/viralforge/tshirtstore/internal/adapters/events"
	grpcadapter "github.com/viralforge/tshirtstore/internal/adapters/grpc"
	httpadapter "github.com/viralforge/tshirtstore/internal/adapters/http"
	mailadapter "github.com/viralforge/tshirtstore/internal/adapters/mail"
	"github.com/viralforge/tshirtstore/internal/adapters/postgres"
	"github.com/viralforge/tshirtstore/internal/adapters/security"
	"github.com/viralforge/tshirtstore/internal/application"
	"github.com/viralforge/tshirtstore/internal/observability"
	"github.com/viralforge/tshirtstore/internal/ports"
)

type Runtime struct {
	cfg       Config
	logger    *slog.Logger
	metrics   *observability.Metrics
	db        *gorm.DB
	service   *application.Service
	cleanupFn func()
}

// NewRuntime connects the stores and wires the application service.
func NewRuntime(ctx context.Context, cfg Config, logger *slog.Logger) (*Runtime, error) {
	logger.InfoContext(ctx, "bootstrapping tshirtstore",
		"http_port", cfg.HTTPPort,
		"grpc_port", cfg.GRPCPort,
	)

	db, err := withRetry(ctx, logger, "postgres", cfg.ConnectAttempts, func(ctx context.Context) (*gorm.DB, error) {
		return postgres.Connect(ctx, cfg.DatabaseURL, cfg.MaxDBConns)
	})
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}

	var (
		redisClient *redis.Client
		lockouts    ports.LockoutStore
	)
	if cfg.RedisURL != "" {
		redisClient, err = withRetry(ctx, logger, "redis", cfg.ConnectAttempts, func(ctx context.Context) (*redis.Client, error) {
			return cacheadapter.Connect(ctx, cfg.RedisURL)
		})
		if err != nil {
			_ = postgres.Close(db)
			return nil, fmt.Errorf("connect redis: %w", err)
		}
		lockouts = cacheadapter.NewRedisLockoutStore(redisClient)
	} else {
		logger.WarnContext(ctx, "REDIS_URL not set; login lockout and reset throttling disabled")
	}

	cleanup := func() {
		if redisClient != nil {
			_ = redisClient.Close()
		}
		_ = postgres.Close(db)
	}

	hasher, err := security.NewBcryptHasher(cfg.BcryptCost, cfg.HashConcurrency)
	if err != nil {
		cleanup()
		return nil, fmt.Errorf("init password hasher: %w", err)
	}
	signer, err := security.NewJWTSigner(cfg.SessionSecret, nil)
	if err != nil {
		cleanup()
		return nil, fmt.Errorf("init session signer: %w", err)
	}
	mailer, err := newMailer(cfg, logger)
	if err != nil {
		cleanup()
		return nil, err
	}

	svc, err := application.NewService(application.Dependencies{
		Config: application.Config{
			SessionTTL:            cfg.SessionTTL,
			ResetTokenWindow:      cfg.ResetTokenWindow,
			ResetURLBase:          cfg.PublicBaseURL,
			FailedLoginThreshold:  cfg.FailedThreshold,
			LockoutDuration:       cfg.LockoutDuration,
			ResetRequestThreshold: cfg.ResetRequestThreshold,
			ResetRequestWindow:    cfg.ResetRequestWindow,
		},
		Accounts: postgres.NewAccountStore(db),
		Hasher:   hasher,
		Signer:   signer,
		Mailer:   mailer,
		Lockouts: lockouts,
	})
	if err != nil {
		cleanup()
		return nil, fmt.Errorf("init service: %w", err)
	}

	return &Runtime{
		cfg:       cfg,
		logger:    logger,
		metrics:   observability.NewMetrics(),
		db:        db,
		service:   svc,
		cleanupFn: cleanup,
	}, nil
}

func newMailer(cfg Config, logger *slog.Logger) (ports.Mailer, error) {
	if cfg.SMTPHost == "" {
		logger.Warn("SMTP_HOST not set; reset mail is logged instead of sent")
		return mailadapter.NewLoggingMailer(logger), nil
	}
	m, err := mailadapter.NewSMTPMailer(mailadapter.SMTPConfig{
		Host:     cfg.SMTPHost,
		Port:     cfg.SMTPPort,
		Username: cfg.SMTPUsername,
		Password: cfg.SMTPPassword,
		From:     cfg.SMTPFrom,
	})
	if err != nil {
		return nil, fmt.Errorf("init smtp mailer: %w", err)
	}
	return m, nil
}

// RunAPI serves HTTP and gRPC until ctx is cancelled or a server fails.
func (r *Runtime) RunAPI(ctx context.Context) error {
	defer r.cleanupFn()

	router := httpadapter.NewRouter(httpadapter.NewHandler(r.service, httpadapter.Options{
		Metrics:       r.metrics,
		SecureCookies: r.cfg.SecureCookies,
	}))
	httpServer := &http.Server{
		Addr:              fmt.Sprintf(":%d", r.cfg.HTTPPort),
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
	}

	grpcServer := grpc.NewServer()
	healthSrv := health.NewServer()
	healthpb.RegisterHealthServer(grpcServer, healthSrv)
	healthSrv.SetServingStatus("", healthpb.HealthCheckResponse_SERVING)
	grpcadapter.Register(grpcServer, grpcadapter.NewSessionInternalServer(r.service.Gate()))

	lis, err := net.Listen("tcp", fmt.Sprintf(":%d", r.cfg.GRPCPort))
	if err != nil {
		return fmt.Errorf("listen gRPC: %w", err)
	}

	errCh := make(chan error, 2)
	go func() {
		r.logger.Info("http server started", "addr", httpServer.Addr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("http server: %w", err)
		}
	}()
	go func() {
		r.logger.Info("grpc server started", "addr", lis.Addr().String())
		if err := grpcServer.Serve(lis); err != nil {
			errCh <- fmt.Errorf("grpc server: %w", err)
		}
	}()

	var runErr error
	select {
	case <-ctx.Done():
		r.logger.Info("shutdown signal received")
	case runErr = <-errCh:
		r.logger.Error("server failure", "error", runErr)
	}

	healthSrv.SetServingStatus("", healthpb.HealthCheckResponse_NOT_SERVING)
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = httpServer.Shutdown(shutdownCtx)
	grpcServer.GracefulStop()
	return runErr
}

// RunWorker relays outbox records to Kafka, or to the log when no brokers are configured.
// Worker metrics are served on the HTTP port.
func (r *Runtime) RunWorker(ctx context.Context) error {
	defer r.cleanupFn()

	var publisher ports.EventPublisher
	if len(r.cfg.KafkaBrokers) > 0 {
		kafka, err := eventadapter.NewKafkaPublisher(r.cfg.KafkaBrokers, r.cfg.KafkaTopic, nil)
		if err != nil {
			return fmt.Errorf("init kafka publisher: %w", err)
		}
		defer func() { _ = kafka.Close() }()
		publisher = kafka
	} else {
		r.logger.Warn("KAFKA_BROKERS not set; outbox events are logged only")
		publisher = eventadapter.NewLoggingPublisher(r.logger)
	}

	worker := eventadapter.NewOutboxWorker(
		r.logger,
		postgres.NewOutboxRepository(r.db),
		publisher,
		r.metrics,
		eventadapter.OutboxWorkerConfig{
			Interval:   r.cfg.OutboxPollInterval,
			BatchSize:  r.cfg.OutboxBatchSize,
			ClaimTTL:   r.cfg.OutboxClaimTTL,
			MaxRetries: r.cfg.OutboxMaxRetries,
		},
	)

	metricsServer := &http.Server{
		Addr:              fmt.Sprintf(":%d", r.cfg.HTTPPort),
		Handler:           r.metrics.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		if err := metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			r.logger.Warn("worker metrics server stopped", "error", err)
		}
	}()
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = metricsServer.Shutdown(shutdownCtx)
	}()

	r.logger.Info("outbox worker started")
	err := worker.Run(ctx)
	if err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

// Migrate applies the embedded schema migrations and exits.
func Migrate(ctx context.Context, cfg Config, logger *slog.Logger) error {
	db, err := withRetry(ctx, logger, "postgres", cfg.ConnectAttempts, func(ctx context.Context) (*gorm.DB, error) {
		return postgres.Connect(ctx, cfg.DatabaseURL, cfg.MaxDBConns)
	})
	if err != nil {
		return fmt.Errorf("connect postgres: %w", err)
	}
	defer func() { _ = postgres.Close(db) }()

	if err := postgres.RunMigrations(ctx, db); err != nil {
		return fmt.Errorf("run migrations: %w", err)
	}
	logger.InfoContext(ctx, "migrations applied")
	return nil
}

// withRetry retries a startup dependency connect with capped exponential backoff.
func withRetry[T any](ctx context.Context, logger *slog.Logger, name string, attempts int, connect func(context.Context) (T, error)) (T, error) {
	if attempts < 1 {
		attempts = 1
	}
	backoff := retry.WithCappedDuration(5*time.Second, retry.NewExponential(500*time.Millisecond))
	backoff = retry.WithMaxRetries(uint64(attempts-1), backoff)

	var (
		out     T
		attempt int
	)
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		attempt++
		v, err := connect(ctx)
		if err != nil {
			logger.WarnContext(ctx, "dependency connect failed",
				"dependency", name,
				"attempt", attempt,
				"error", err,
			)
			return retry.RetryableError(err)
		}
		out = v
		return nil
	})
	return out, err
}
