package bootstrap

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const validSecret = "0123456789abcdef0123456789abcdef"

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadConfigDefaultsAndEnv(t *testing.T) {
	t.Setenv("DB_URL", "postgres://localhost/tshirtstore")
	t.Setenv("SESSION_SECRET", validSecret)
	t.Setenv("KAFKA_BROKERS", "k1:9092, ,k2:9092")
	t.Setenv("SECURE_COOKIES", "yes")

	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)

	assert.Equal(t, 72*time.Hour, cfg.SessionTTL)
	assert.Equal(t, 20*time.Minute, cfg.ResetTokenWindow)
	assert.Equal(t, 12, cfg.BcryptCost)
	assert.Equal(t, 4000, cfg.HTTPPort)
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.KafkaBrokers)
	assert.True(t, cfg.SecureCookies)
}

func TestLoadConfigFileThenEnvOverride(t *testing.T) {
	path := writeConfig(t, `
service:
  http_port: 8088
  public_base_url: https://shop.example.com
  secure_cookies: true
dependencies:
  postgres_url: postgres://file/db
  redis_url: redis://file:6379/0
session:
  ttl: 48h
  reset_window: 15m
smtp:
  host: smtp.example.com
  from: shop@example.com
logging:
  format: text
`)
	t.Setenv("SESSION_SECRET", validSecret)
	t.Setenv("HTTP_PORT", "9000")
	t.Setenv("RESET_TOKEN_WINDOW", "10m")

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, 9000, cfg.HTTPPort)
	assert.Equal(t, "https://shop.example.com", cfg.PublicBaseURL)
	assert.Equal(t, "postgres://file/db", cfg.DatabaseURL)
	assert.Equal(t, "redis://file:6379/0", cfg.RedisURL)
	assert.Equal(t, 48*time.Hour, cfg.SessionTTL)
	assert.Equal(t, 10*time.Minute, cfg.ResetTokenWindow)
	assert.Equal(t, "smtp.example.com", cfg.SMTPHost)
	assert.Equal(t, "text", cfg.LogFormat)
	assert.True(t, cfg.SecureCookies)
}

func TestLoadConfigValidation(t *testing.T) {
	cases := map[string]map[string]string{
		"missing db":     {"DB_URL": "", "POSTGRES_URL": "", "SESSION_SECRET": validSecret},
		"short secret":   {"DB_URL": "postgres://x", "SESSION_SECRET": "short"},
		"ttl too long":   {"DB_URL": "postgres://x", "SESSION_SECRET": validSecret, "SESSION_TTL": "200h"},
		"ttl too short":  {"DB_URL": "postgres://x", "SESSION_SECRET": validSecret, "SESSION_TTL": "30m"},
		"window too big": {"DB_URL": "postgres://x", "SESSION_SECRET": validSecret, "RESET_TOKEN_WINDOW": "2h"},
		"smtp no from":   {"DB_URL": "postgres://x", "SESSION_SECRET": validSecret, "SMTP_HOST": "smtp.example.com"},
	}
	for name, env := range cases {
		t.Run(name, func(t *testing.T) {
			for k, v := range env {
				t.Setenv(k, v)
			}
			_, err := LoadConfig("")
			assert.Error(t, err)
		})
	}
}

func TestLoadConfigRejectsMalformedFile(t *testing.T) {
	path := writeConfig(t, "service: [not a map")
	_, err := LoadConfig(path)
	assert.ErrorContains(t, err, "parse config file")
}

func TestLoadDatabaseConfigSkipsSessionChecks(t *testing.T) {
	t.Setenv("DB_URL", "postgres://localhost/tshirtstore")

	cfg, err := LoadDatabaseConfig("")
	require.NoError(t, err)
	assert.Equal(t, "postgres://localhost/tshirtstore", cfg.DatabaseURL)

	t.Setenv("DB_URL", "")
	_, err = LoadDatabaseConfig("")
	assert.Error(t, err)
}

func TestWithRetryStopsAfterAttempts(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	calls := 0
	_, err := withRetry(context.Background(), logger, "flaky", 2, func(context.Context) (int, error) {
		calls++
		return 0, errors.New("down")
	})
	assert.Error(t, err)
	assert.Equal(t, 2, calls)

	calls = 0
	v, err := withRetry(context.Background(), logger, "flaky", 3, func(context.Context) (int, error) {
		calls++
		if calls < 2 {
			return 0, errors.New("down")
		}
		return 7, nil
	})
	require.NoError(t, err)
	assert.Equal(t, 7, v)
}
