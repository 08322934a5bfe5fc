package bootstrap

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/viralforge/tshirtstore/internal/adapters/security"
)

// Config is the resolved runtime configuration.
type Config struct {
	ServiceID string
	Version   string

	HTTPPort int
	GRPCPort int

	PublicBaseURL string
	SecureCookies bool

	DatabaseURL     string
	RedisURL        string
	MaxDBConns      int32
	ConnectAttempts int

	SessionSecret    string
	SessionTTL       time.Duration
	ResetTokenWindow time.Duration

	BcryptCost      int
	HashConcurrency int

	FailedThreshold       int
	LockoutDuration       time.Duration
	ResetRequestThreshold int
	ResetRequestWindow    time.Duration

	KafkaBrokers []string
	KafkaTopic   string

	SMTPHost     string
	SMTPPort     int
	SMTPUsername string
	SMTPPassword string
	SMTPFrom     string

	OutboxPollInterval time.Duration
	OutboxBatchSize    int
	OutboxClaimTTL     time.Duration
	OutboxMaxRetries   int

	LogFormat string
	LogLevel  string
}

// configFile mirrors the YAML schema of configs/default.yaml. Secrets are env-only.
type configFile struct {
	Service struct {
		ID            string `yaml:"id"`
		HTTPPort      int    `yaml:"http_port"`
		GRPCPort      int    `yaml:"grpc_port"`
		PublicBaseURL string `yaml:"public_base_url"`
		SecureCookies *bool  `yaml:"secure_cookies"`
	} `yaml:"service"`
	Dependencies struct {
		PostgresURL  string   `yaml:"postgres_url"`
		RedisURL     string   `yaml:"redis_url"`
		KafkaBrokers []string `yaml:"kafka_brokers"`
		KafkaTopic   string   `yaml:"kafka_topic"`
	} `yaml:"dependencies"`
	Session struct {
		TTL         time.Duration `yaml:"ttl"`
		ResetWindow time.Duration `yaml:"reset_window"`
		BcryptCost  int           `yaml:"bcrypt_cost"`
	} `yaml:"session"`
	SMTP struct {
		Host     string `yaml:"host"`
		Port     int    `yaml:"port"`
		Username string `yaml:"username"`
		From     string `yaml:"from"`
	} `yaml:"smtp"`
	Logging struct {
		Format string `yaml:"format"`
		Level  string `yaml:"level"`
	} `yaml:"logging"`
}

// LoadConfig resolves configuration in priority order: defaults -> file -> env, then validates.
// A missing file is not an error.
func LoadConfig(path string) (Config, error) {
	cfg, err := resolve(path)
	if err != nil {
		return Config{}, err
	}
	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// LoadDatabaseConfig resolves the same sources but only requires the database URL.
// The migrate command uses it so schema changes do not need the session secret.
func LoadDatabaseConfig(path string) (Config, error) {
	cfg, err := resolve(path)
	if err != nil {
		return Config{}, err
	}
	if cfg.DatabaseURL == "" {
		return Config{}, errors.New("missing DB_URL/POSTGRES_URL")
	}
	return cfg, nil
}

func resolve(path string) (Config, error) {
	cfg := Config{
		ServiceID:             "tshirtstore",
		Version:               "dev",
		HTTPPort:              4000,
		GRPCPort:              9090,
		PublicBaseURL:         "http://localhost:4000",
		MaxDBConns:            20,
		ConnectAttempts:       5,
		SessionTTL:            72 * time.Hour,
		ResetTokenWindow:      20 * time.Minute,
		BcryptCost:            12,
		HashConcurrency:       8,
		FailedThreshold:       5,
		LockoutDuration:       15 * time.Minute,
		ResetRequestThreshold: 5,
		ResetRequestWindow:    time.Hour,
		KafkaTopic:            "tshirtstore.accounts",
		SMTPPort:              587,
		OutboxPollInterval:    2 * time.Second,
		OutboxBatchSize:       100,
		OutboxClaimTTL:        30 * time.Second,
		OutboxMaxRetries:      5,
		LogFormat:             "json",
		LogLevel:              "info",
	}

	if strings.TrimSpace(path) != "" {
		if err := applyFile(&cfg, path); err != nil {
			return Config{}, err
		}
	}
	applyEnv(&cfg)
	return cfg, nil
}

func applyFile(cfg *Config, path string) error {
	raw, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	var f configFile
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return fmt.Errorf("parse config file: %w", err)
	}

	if f.Service.ID != "" {
		cfg.ServiceID = f.Service.ID
	}
	if f.Service.HTTPPort > 0 {
		cfg.HTTPPort = f.Service.HTTPPort
	}
	if f.Service.GRPCPort > 0 {
		cfg.GRPCPort = f.Service.GRPCPort
	}
	if f.Service.PublicBaseURL != "" {
		cfg.PublicBaseURL = f.Service.PublicBaseURL
	}
	if f.Service.SecureCookies != nil {
		cfg.SecureCookies = *f.Service.SecureCookies
	}
	if f.Dependencies.PostgresURL != "" {
		cfg.DatabaseURL = f.Dependencies.PostgresURL
	}
	if f.Dependencies.RedisURL != "" {
		cfg.RedisURL = f.Dependencies.RedisURL
	}
	if len(f.Dependencies.KafkaBrokers) > 0 {
		cfg.KafkaBrokers = f.Dependencies.KafkaBrokers
	}
	if f.Dependencies.KafkaTopic != "" {
		cfg.KafkaTopic = f.Dependencies.KafkaTopic
	}
	if f.Session.TTL > 0 {
		cfg.SessionTTL = f.Session.TTL
	}
	if f.Session.ResetWindow > 0 {
		cfg.ResetTokenWindow = f.Session.ResetWindow
	}
	if f.Session.BcryptCost > 0 {
		cfg.BcryptCost = f.Session.BcryptCost
	}
	if f.SMTP.Host != "" {
		cfg.SMTPHost = f.SMTP.Host
	}
	if f.SMTP.Port > 0 {
		cfg.SMTPPort = f.SMTP.Port
	}
	if f.SMTP.Username != "" {
		cfg.SMTPUsername = f.SMTP.Username
	}
	if f.SMTP.From != "" {
		cfg.SMTPFrom = f.SMTP.From
	}
	if f.Logging.Format != "" {
		cfg.LogFormat = f.Logging.Format
	}
	if f.Logging.Level != "" {
		cfg.LogLevel = f.Logging.Level
	}
	return nil
}

func applyEnv(cfg *Config) {
	cfg.Version = envOrDefault("APP_VERSION", cfg.Version)
	cfg.DatabaseURL = envOrDefault("DB_URL", envOrDefault("POSTGRES_URL", cfg.DatabaseURL))
	cfg.RedisURL = envOrDefault("REDIS_URL", cfg.RedisURL)
	cfg.PublicBaseURL = envOrDefault("PUBLIC_BASE_URL", cfg.PublicBaseURL)
	cfg.SecureCookies = envBool("SECURE_COOKIES", cfg.SecureCookies)
	cfg.SessionSecret = envOrDefault("SESSION_SECRET", envOrDefault("JWT_SECRET", cfg.SessionSecret))
	cfg.KafkaBrokers = envCSV("KAFKA_BROKERS", cfg.KafkaBrokers)
	cfg.KafkaTopic = envOrDefault("KAFKA_TOPIC", cfg.KafkaTopic)
	cfg.SMTPHost = envOrDefault("SMTP_HOST", cfg.SMTPHost)
	cfg.SMTPUsername = envOrDefault("SMTP_USERNAME", cfg.SMTPUsername)
	cfg.SMTPPassword = envOrDefault("SMTP_PASSWORD", cfg.SMTPPassword)
	cfg.SMTPFrom = envOrDefault("SMTP_FROM", cfg.SMTPFrom)
	cfg.LogFormat = envOrDefault("LOG_FORMAT", cfg.LogFormat)
	cfg.LogLevel = envOrDefault("LOG_LEVEL", cfg.LogLevel)

	cfg.HTTPPort = envInt("HTTP_PORT", cfg.HTTPPort)
	cfg.GRPCPort = envInt("GRPC_PORT", cfg.GRPCPort)
	cfg.SMTPPort = envInt("SMTP_PORT", cfg.SMTPPort)
	cfg.BcryptCost = envInt("BCRYPT_ROUNDS", cfg.BcryptCost)
	cfg.HashConcurrency = envInt("HASH_CONCURRENCY", cfg.HashConcurrency)
	cfg.FailedThreshold = envInt("FAILED_LOGIN_THRESHOLD", cfg.FailedThreshold)
	cfg.ResetRequestThreshold = envInt("RESET_REQUEST_THRESHOLD", cfg.ResetRequestThreshold)
	cfg.MaxDBConns = int32(envInt("DB_MAX_CONNS", int(cfg.MaxDBConns)))
	cfg.ConnectAttempts = envInt("CONNECT_ATTEMPTS", cfg.ConnectAttempts)
	cfg.OutboxBatchSize = envInt("OUTBOX_BATCH_SIZE", cfg.OutboxBatchSize)
	cfg.OutboxMaxRetries = envInt("OUTBOX_MAX_RETRIES", cfg.OutboxMaxRetries)

	cfg.SessionTTL = envDuration("SESSION_TTL", cfg.SessionTTL)
	cfg.ResetTokenWindow = envDuration("RESET_TOKEN_WINDOW", cfg.ResetTokenWindow)
	cfg.LockoutDuration = envDuration("ACCOUNT_LOCKOUT", cfg.LockoutDuration)
	cfg.ResetRequestWindow = envDuration("RESET_REQUEST_WINDOW", cfg.ResetRequestWindow)
	cfg.OutboxPollInterval = envDuration("OUTBOX_POLL_INTERVAL", cfg.OutboxPollInterval)
	cfg.OutboxClaimTTL = envDuration("OUTBOX_CLAIM_TTL", cfg.OutboxClaimTTL)
}

func (c Config) validate() error {
	var errs []error
	if c.DatabaseURL == "" {
		errs = append(errs, errors.New("missing DB_URL/POSTGRES_URL"))
	}
	if len(c.SessionSecret) < security.MinSecretLength {
		errs = append(errs, fmt.Errorf("SESSION_SECRET must be at least %d bytes", security.MinSecretLength))
	}
	if c.SessionTTL < time.Hour || c.SessionTTL > 7*24*time.Hour {
		errs = append(errs, fmt.Errorf("session ttl %s outside 1h..168h", c.SessionTTL))
	}
	if c.ResetTokenWindow <= 0 || c.ResetTokenWindow > time.Hour {
		errs = append(errs, fmt.Errorf("reset token window %s outside (0, 60m]", c.ResetTokenWindow))
	}
	if strings.TrimSpace(c.PublicBaseURL) == "" {
		errs = append(errs, errors.New("missing PUBLIC_BASE_URL"))
	}
	if c.SMTPHost != "" && c.SMTPFrom == "" {
		errs = append(errs, errors.New("SMTP_FROM is required when SMTP_HOST is set"))
	}
	return errors.Join(errs...)
}

func envOrDefault(name, fallback string) string {
	if value := os.Getenv(name); value != "" {
		return value
	}
	return fallback
}

func envInt(name string, fallback int) int {
	raw := os.Getenv(name)
	if raw == "" {
		return fallback
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return v
}

func envBool(name string, fallback bool) bool {
	raw := os.Getenv(name)
	if raw == "" {
		return fallback
	}
	switch raw {
	case "1", "true", "TRUE", "yes", "YES":
		return true
	case "0", "false", "FALSE", "no", "NO":
		return false
	default:
		return fallback
	}
}

// envDuration accepts Go duration strings such as 72h or 20m.
func envDuration(name string, fallback time.Duration) time.Duration {
	raw := os.Getenv(name)
	if raw == "" {
		return fallback
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return fallback
	}
	return d
}

func envCSV(name string, fallback []string) []string {
	raw := os.Getenv(name)
	if raw == "" {
		return fallback
	}
	parts := make([]string, 0)
	for _, part := range strings.Split(raw, ",") {
		trimmed := strings.TrimSpace(part)
		if trimmed == "" {
			continue
		}
		parts = append(parts, trimmed)
	}
	if len(parts) == 0 {
		return fallback
	}
	return parts
}
