package services

import (
	"context"
	"log/slog"

	"github.com/codeready-toolchain/docmask/pkg/models"
	"github.com/codeready-toolchain/docmask/pkg/pii"
)

// Recorder records runs on behalf of the CLI and HTTP API. Ledger failures
// are logged and never fail the redaction. A nil Recorder records nothing.
type Recorder struct {
	runs *RunService
}

// NewRecorder wraps runs. It returns nil when runs is nil.
func NewRecorder(runs *RunService) *Recorder {
	if runs == nil {
		return nil
	}
	return &Recorder{runs: runs}
}

// Start opens a run and returns its ID, or "" when nothing is recorded.
func (r *Recorder) Start(ctx context.Context, source string, mode models.RunMode, set pii.CategorySet) string {
	if r == nil {
		return ""
	}
	run, err := r.runs.CreateRun(ctx, models.CreateRunRequest{Source: source, Mode: mode, Categories: set})
	if err != nil {
		slog.Error("Failed to record run", "mode", mode, "error", err)
		return ""
	}
	return run.ID
}

// Complete closes a run with its counts.
func (r *Recorder) Complete(ctx context.Context, runID string, pages int, counts map[pii.Category]int) {
	if r == nil || runID == "" {
		return
	}
	total := 0
	for _, n := range counts {
		total += n
	}
	err := r.runs.CompleteRun(ctx, runID, models.CompleteRunRequest{
		PageCount:      pages,
		DirectiveCount: total,
		CategoryCounts: counts,
	})
	if err != nil {
		slog.Error("Failed to complete run", "run_id", runID, "error", err)
	}
}

// Fail marks a run failed.
func (r *Recorder) Fail(ctx context.Context, runID string, runErr error) {
	if r == nil || runID == "" {
		return
	}
	if err := r.runs.FailRun(ctx, runID, runErr); err != nil {
		slog.Error("Failed to mark run failed", "run_id", runID, "error", err)
	}
}
