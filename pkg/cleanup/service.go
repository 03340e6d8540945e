// Package cleanup enforces audit ledger retention.
package cleanup

import (
	"context"
	"log/slog"
	"time"

	"github.com/codeready-toolchain/docmask/pkg/config"
	"github.com/codeready-toolchain/docmask/pkg/services"
)

// Service periodically enforces retention on the run ledger:
//   - Marks in-progress runs abandoned by a crashed process as failed
//   - Deletes finished runs past the retention window
//
// All operations are idempotent and safe to run from multiple processes.
type Service struct {
	config *config.AuditConfig
	runs   *services.RunService

	cancel context.CancelFunc
	done   chan struct{}
}

// NewService creates a new cleanup service.
func NewService(cfg *config.AuditConfig, runs *services.RunService) *Service {
	return &Service{
		config: cfg,
		runs:   runs,
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
		"retention_days", s.config.RetentionDays,
		"stale_after", s.config.StaleAfter,
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

	s.runAll(ctx)

	ticker := time.NewTicker(s.config.CleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.runAll(ctx)
		}
	}
}

func (s *Service) runAll(ctx context.Context) {
	s.failStaleRuns(ctx)
	s.deleteOldRuns(ctx)
}

func (s *Service) failStaleRuns(ctx context.Context) {
	count, err := s.runs.FailStaleRuns(ctx, s.config.StaleAfter)
	if err != nil {
		slog.Error("Retention: failing stale runs failed", "error", err)
		return
	}
	if count > 0 {
		slog.Info("Retention: marked stale runs failed", "count", count)
	}
}

func (s *Service) deleteOldRuns(ctx context.Context) {
	if s.config.RetentionDays < 0 {
		return
	}
	count, err := s.runs.DeleteOldRuns(ctx, s.config.RetentionDays)
	if err != nil {
		slog.Error("Retention: deleting old runs failed", "error", err)
		return
	}
	if count > 0 {
		slog.Info("Retention: deleted old runs", "count", count)
	}
}
