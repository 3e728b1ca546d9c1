// Package config holds process configuration loaded from the environment.
package config

import (
	"os"
	"strconv"
	"time"
)

// Config is the umbrella configuration object returned by Load() and used
// throughout the application.
type Config struct {
	// HTTPPort is the port the API server listens on.
	HTTPPort string

	Stream    *StreamConfig
	Dispatch  *DispatchConfig
	Analytics *AnalyticsConfig
	Retention *RetentionConfig
}

// StreamConfig controls SSE delivery behavior.
type StreamConfig struct {
	// QueueCap is the per-subscriber queue bound. Overflow drops the oldest
	// message first.
	QueueCap int

	// KeepAliveInterval is how long the live loop waits for a message before
	// emitting a keep-alive comment.
	KeepAliveInterval time.Duration

	// BackfillLimit caps how many notifications a reconnecting client is
	// backfilled from its Last-Event-ID.
	BackfillLimit int

	// RetryHint is the reconnect delay sent to clients in the SSE retry field.
	RetryHint time.Duration
}

// DispatchConfig controls the post-commit notification dispatcher.
type DispatchConfig struct {
	// WorkerCount is the number of goroutines draining the dispatch queue.
	WorkerCount int

	// QueueSize bounds how many committed notifications can wait for fan-out.
	QueueSize int
}

// AnalyticsConfig controls the sliding-window counters.
type AnalyticsConfig struct {
	// BucketSize is the ring bucket granularity shared by all windows.
	BucketSize time.Duration
}

// RetentionConfig controls background cleanup of expired idempotency keys.
type RetentionConfig struct {
	// IdempotencyKeyTTL is how long a key blocks replays before cleanup.
	IdempotencyKeyTTL time.Duration

	// CleanupInterval is how often the cleanup loop runs.
	CleanupInterval time.Duration
}

// Load builds the configuration from environment variables, falling back to
// built-in defaults.
func Load() *Config {
	return &Config{
		HTTPPort: getEnvOrDefault("HTTP_PORT", "8080"),
		Stream: &StreamConfig{
			QueueCap:          getEnvIntOrDefault("SSE_QUEUE_CAP", 200),
			KeepAliveInterval: getEnvDurationOrDefault("SSE_KEEPALIVE_INTERVAL", 15*time.Second),
			BackfillLimit:     getEnvIntOrDefault("SSE_BACKFILL_LIMIT", 200),
			RetryHint:         getEnvDurationOrDefault("SSE_RETRY_HINT", 3*time.Second),
		},
		Dispatch: &DispatchConfig{
			WorkerCount: getEnvIntOrDefault("DISPATCH_WORKER_COUNT", 4),
			QueueSize:   getEnvIntOrDefault("DISPATCH_QUEUE_SIZE", 1024),
		},
		Analytics: &AnalyticsConfig{
			BucketSize: getEnvDurationOrDefault("ANALYTICS_BUCKET_SIZE", 5*time.Second),
		},
		Retention: &RetentionConfig{
			IdempotencyKeyTTL: getEnvDurationOrDefault("IDEMPOTENCY_KEY_TTL", 30*24*time.Hour),
			CleanupInterval:   getEnvDurationOrDefault("CLEANUP_INTERVAL", 12*time.Hour),
		},
	}
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil && n > 0 {
			return n
		}
	}
	return defaultValue
}

func getEnvDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil && d > 0 {
			return d
		}
	}
	return defaultValue
}
