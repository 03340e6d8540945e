package services

import (
	"context"
	"fmt"
	"time"

	"github.com/codeready-toolchain/docmask/pkg/models"
)

// abandonedRunError is stored on runs that never reached a final status.
const abandonedRunError = "abandoned: run did not finish"

// DeleteOldRuns removes finished runs that completed more than retentionDays ago.
func (s *RunService) DeleteOldRuns(ctx context.Context, retentionDays int) (int64, error) {
	if retentionDays <= 0 {
		return 0, NewValidationError("retention_days", "must be positive")
	}
	cutoff := time.Now().UTC().Add(-time.Duration(retentionDays) * 24 * time.Hour)

	res, err := s.client.DB().ExecContext(ctx,
		`DELETE FROM redaction_runs WHERE status <> $1 AND completed_at < $2`,
		string(models.RunStatusInProgress), cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to delete old runs: %w", err)
	}
	return res.RowsAffected()
}

// FailStaleRuns marks in-progress runs started before staleAfter ago as
// failed. These belong to processes that exited mid-run.
func (s *RunService) FailStaleRuns(ctx context.Context, staleAfter time.Duration) (int64, error) {
	if staleAfter <= 0 {
		return 0, NewValidationError("stale_after", "must be positive")
	}
	now := time.Now().UTC()

	res, err := s.client.DB().ExecContext(ctx,
		`UPDATE redaction_runs SET status = $1, error = $2, completed_at = $3
		WHERE status = $4 AND started_at < $5`,
		string(models.RunStatusFailed), abandonedRunError, now,
		string(models.RunStatusInProgress), now.Add(-staleAfter))
	if err != nil {
		return 0, fmt.Errorf("failed to fail stale runs: %w", err)
	}
	return res.RowsAffected()
}
