package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoad_ValidConfig(t *testing.T) {
	path := writeConfig(t, `
env: test
frontend_url: "https://courses.example.com"
storage:
  driver: memory
redis:
  address: "localhost:6379"
  db: 2
http_server:
  address: ":9090"
  timeout: 5s
  idle_timeout: 30s
  secure_cookies: false
jwt:
  secret: "test_secret_key"
  token_ttl: 24h
razorpay:
  key_id: "rzp_test_key"
  key_secret: "rzp_secret"
  plan_id: "plan_123"
subscription:
  refund_enabled: true
  refund_window: 72h
media:
  bucket: "courses"
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "test", cfg.Env)
	assert.Equal(t, "https://courses.example.com", cfg.FrontendURL)
	assert.Equal(t, "memory", cfg.Storage.Driver)
	assert.Equal(t, "localhost:6379", cfg.Redis.Address)
	assert.Equal(t, 2, cfg.Redis.DB)
	assert.Equal(t, ":9090", cfg.HTTPServer.Address)
	assert.Equal(t, 5*time.Second, cfg.HTTPServer.Timeout)
	assert.False(t, cfg.HTTPServer.SecureCookies)
	assert.Equal(t, "test_secret_key", cfg.JWTToken.JWTSecretKey)
	assert.Equal(t, 24*time.Hour, cfg.JWTToken.TokenTTL)
	assert.Equal(t, "rzp_test_key", cfg.Razorpay.KeyID)
	assert.Equal(t, 72*time.Hour, cfg.Subscription.RefundWindow)
	assert.Equal(t, "courses", cfg.Media.Bucket)
}

func TestLoad_Defaults(t *testing.T) {
	path := writeConfig(t, `
jwt:
  secret: "s"
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "local", cfg.Env)
	assert.Equal(t, "postgres", cfg.Storage.Driver)
	assert.Equal(t, "./migrations", cfg.Storage.MigrationsPath)
	assert.Equal(t, 360*time.Hour, cfg.JWTToken.TokenTTL)
	assert.Equal(t, "https://api.razorpay.com/v1", cfg.Razorpay.APIURL)
	assert.Equal(t, 12, cfg.Razorpay.TotalCount)
	assert.Equal(t, 168*time.Hour, cfg.Subscription.RefundWindow)
	assert.True(t, cfg.Subscription.RefundEnabled)
	assert.Equal(t, "stats.refresh", cfg.RabbitMQ.Queue)
	assert.Equal(t, time.Hour, cfg.Stats.RefreshInterval)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestLoad_InvalidYAML(t *testing.T) {
	path := writeConfig(t, "env: [unterminated")
	_, err := Load(path)
	assert.Error(t, err)
}
