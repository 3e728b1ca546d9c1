package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoadDefaults(t *testing.T) {
	cfg := Load()

	assert.Equal(t, "8080", cfg.HTTPPort)
	assert.Equal(t, 200, cfg.Stream.QueueCap)
	assert.Equal(t, 15*time.Second, cfg.Stream.KeepAliveInterval)
	assert.Equal(t, 200, cfg.Stream.BackfillLimit)
	assert.Equal(t, 3*time.Second, cfg.Stream.RetryHint)
	assert.Equal(t, 5*time.Second, cfg.Analytics.BucketSize)
}

func TestLoadFromEnvironment(t *testing.T) {
	t.Setenv("HTTP_PORT", "9090")
	t.Setenv("SSE_QUEUE_CAP", "32")
	t.Setenv("SSE_KEEPALIVE_INTERVAL", "5s")
	t.Setenv("DISPATCH_WORKER_COUNT", "2")
	t.Setenv("CLEANUP_INTERVAL", "1h")

	cfg := Load()

	assert.Equal(t, "9090", cfg.HTTPPort)
	assert.Equal(t, 32, cfg.Stream.QueueCap)
	assert.Equal(t, 5*time.Second, cfg.Stream.KeepAliveInterval)
	assert.Equal(t, 2, cfg.Dispatch.WorkerCount)
	assert.Equal(t, time.Hour, cfg.Retention.CleanupInterval)
}

func TestLoadIgnoresInvalidValues(t *testing.T) {
	t.Setenv("SSE_QUEUE_CAP", "not-a-number")
	t.Setenv("SSE_KEEPALIVE_INTERVAL", "-10s")

	cfg := Load()

	assert.Equal(t, 200, cfg.Stream.QueueCap)
	assert.Equal(t, 15*time.Second, cfg.Stream.KeepAliveInterval)
}
