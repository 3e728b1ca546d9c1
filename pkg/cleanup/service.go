// Package cleanup provides data retention and cleanup services.
package cleanup

import (
	"context"
	"log/slog"
	"time"

	"github.com/streampulse/activityd/pkg/config"
	"github.com/streampulse/activityd/pkg/store"
)

// Service periodically removes expired idempotency keys. A key only needs to
// live long enough to absorb client retries; expiring it frees the unique
// index and lets the key value be reused.
//
// The delete is idempotent and safe to run from multiple replicas.
type Service struct {
	config *config.RetentionConfig
	store  *store.Store

	cancel context.CancelFunc
	done   chan struct{}
}

// NewService creates a new cleanup service.
func NewService(cfg *config.RetentionConfig, s *store.Store) *Service {
	return &Service{
		config: cfg,
		store:  s,
	}
}

// Start launches the background cleanup loop.
func (s *Service) Start(ctx context.Context) {
	if s.cancel != nil {
		return
	}
	ctx, s.cancel = context.WithCancel(ctx)
	s.done = make(chan struct{})

	go s.run(ctx)

	slog.Info("Cleanup service started",
		"idempotency_key_ttl", s.config.IdempotencyKeyTTL,
		"interval", s.config.CleanupInterval)
}

// Stop signals the cleanup loop to exit and waits for it to finish.
func (s *Service) Stop() {
	if s.cancel == nil {
		return
	}
	s.cancel()
	<-s.done
	slog.Info("Cleanup service stopped")
}

func (s *Service) run(ctx context.Context) {
	defer close(s.done)

	s.expireIdempotencyKeys(ctx)

	ticker := time.NewTicker(s.config.CleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.expireIdempotencyKeys(ctx)
		}
	}
}

func (s *Service) expireIdempotencyKeys(ctx context.Context) {
	cutoff := time.Now().Add(-s.config.IdempotencyKeyTTL)
	count, err := s.store.DeleteIdempotencyKeysBefore(ctx, cutoff)
	if err != nil {
		slog.Error("Retention: idempotency key cleanup failed", "error", err)
		return
	}
	if count > 0 {
		slog.Info("Retention: expired idempotency keys", "count", count)
	}
}
