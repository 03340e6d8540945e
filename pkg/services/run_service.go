// Package services implements the redaction audit ledger on top of pkg/database.
package services

import (
	"context"
	stdsql "database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/codeready-toolchain/docmask/pkg/database"
	"github.com/codeready-toolchain/docmask/pkg/models"
)

const (
	// DefaultListLimit is used when ListRuns is called without a positive limit
	DefaultListLimit = 50
	// MaxListLimit caps the number of runs returned by ListRuns
	MaxListLimit = 500

	writeTimeout = 10 * time.Second
)

const runColumns = `id, source, mode, status, array_to_string(categories, ','), page_count,
	directive_count, category_counts::text, COALESCE(error, ''), started_at, completed_at`

// RunService records redaction runs. It stores counts and timing only.
type RunService struct {
	client *database.Client
}

// NewRunService creates a new RunService
func NewRunService(client *database.Client) *RunService {
	return &RunService{client: client}
}

// CreateRun opens an in-progress run and returns it.
func (s *RunService) CreateRun(httpCtx context.Context, req models.CreateRunRequest) (*models.RedactionRun, error) {
	if strings.TrimSpace(req.Source) == "" {
		return nil, NewValidationError("source", "required")
	}
	if !req.Mode.IsValid() {
		return nil, NewValidationError("mode", fmt.Sprintf("unknown mode %q", req.Mode))
	}

	ctx, cancel := context.WithTimeout(httpCtx, writeTimeout)
	defer cancel()

	run := &models.RedactionRun{
		ID:             uuid.New().String(),
		Source:         req.Source,
		Mode:           req.Mode,
		Status:         models.RunStatusInProgress,
		Categories:     req.Categories.Strings(),
		CategoryCounts: map[string]int{},
		StartedAt:      time.Now().UTC(),
	}

	_, err := s.client.DB().ExecContext(ctx,
		`INSERT INTO redaction_runs (id, source, mode, status, categories, started_at)
		VALUES ($1, $2, $3, $4, string_to_array($5, ','), $6)`,
		run.ID, run.Source, string(run.Mode), string(run.Status),
		strings.Join(run.Categories, ","), run.StartedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create run: %w", err)
	}
	return run, nil
}

// CompleteRun marks a run completed and stores its counts.
func (s *RunService) CompleteRun(_ context.Context, runID string, req models.CompleteRunRequest) error {
	if req.PageCount < 0 || req.DirectiveCount < 0 {
		return NewValidationError("counts", "must not be negative")
	}

	counts := make(map[string]int, len(req.CategoryCounts))
	for cat, n := range req.CategoryCounts {
		counts[cat.String()] = n
	}
	countsJSON, err := json.Marshal(counts)
	if err != nil {
		return fmt.Errorf("failed to marshal category counts: %w", err)
	}

	// Detached from the caller so a cancelled request still closes its run
	ctx, cancel := context.WithTimeout(context.Background(), writeTimeout)
	defer cancel()

	return s.finish(ctx, runID,
		`UPDATE redaction_runs
		SET status = $2, page_count = $3, directive_count = $4, category_counts = $5::jsonb, completed_at = $6
		WHERE id = $1 AND status = $7`,
		string(models.RunStatusCompleted), req.PageCount, req.DirectiveCount, string(countsJSON),
		time.Now().UTC(), string(models.RunStatusInProgress),
	)
}

// FailRun marks a run failed with the given error.
func (s *RunService) FailRun(_ context.Context, runID string, runErr error) error {
	msg := "unknown error"
	if runErr != nil {
		msg = runErr.Error()
	}

	ctx, cancel := context.WithTimeout(context.Background(), writeTimeout)
	defer cancel()

	return s.finish(ctx, runID,
		`UPDATE redaction_runs
		SET status = $2, error = $3, completed_at = $4
		WHERE id = $1 AND status = $5`,
		string(models.RunStatusFailed), msg, time.Now().UTC(), string(models.RunStatusInProgress),
	)
}

// finish runs a guarded status transition. Zero affected rows means the run
// is unknown or no longer in progress.
func (s *RunService) finish(ctx context.Context, runID, query string, args ...any) error {
	id, err := parseRunID(runID)
	if err != nil {
		return err
	}

	res, err := s.client.DB().ExecContext(ctx, query, append([]any{id}, args...)...)
	if err != nil {
		return fmt.Errorf("failed to update run: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if n > 0 {
		return nil
	}

	if _, err := s.GetRun(ctx, runID); err != nil {
		return err
	}
	slog.Warn("Run already finished", "run_id", runID)
	return ErrRunFinished
}

// GetRun retrieves a run by ID.
func (s *RunService) GetRun(ctx context.Context, runID string) (*models.RedactionRun, error) {
	id, err := parseRunID(runID)
	if err != nil {
		return nil, err
	}

	row := s.client.DB().QueryRowContext(ctx,
		`SELECT `+runColumns+` FROM redaction_runs WHERE id = $1`, id)
	run, err := scanRun(row)
	if errors.Is(err, stdsql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get run: %w", err)
	}
	return run, nil
}

// ListRuns returns the most recent runs, newest first.
func (s *RunService) ListRuns(ctx context.Context, limit int) ([]*models.RedactionRun, error) {
	if limit <= 0 {
		limit = DefaultListLimit
	}
	limit = min(limit, MaxListLimit)

	rows, err := s.client.DB().QueryContext(ctx,
		`SELECT `+runColumns+` FROM redaction_runs ORDER BY started_at DESC, id LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	defer rows.Close()

	runs := make([]*models.RedactionRun, 0)
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	return runs, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRun(row rowScanner) (*models.RedactionRun, error) {
	var (
		run         models.RedactionRun
		mode        string
		status      string
		categories  string
		countsJSON  string
		completedAt stdsql.NullTime
	)
	err := row.Scan(&run.ID, &run.Source, &mode, &status, &categories, &run.PageCount,
		&run.DirectiveCount, &countsJSON, &run.Error, &run.StartedAt, &completedAt)
	if err != nil {
		return nil, err
	}

	run.Mode = models.RunMode(mode)
	run.Status = models.RunStatus(status)
	run.Categories = []string{}
	if categories != "" {
		run.Categories = strings.Split(categories, ",")
	}
	if err := json.Unmarshal([]byte(countsJSON), &run.CategoryCounts); err != nil {
		return nil, fmt.Errorf("failed to decode category counts: %w", err)
	}
	if completedAt.Valid {
		t := completedAt.Time
		run.CompletedAt = &t
	}
	return &run, nil
}

func parseRunID(runID string) (uuid.UUID, error) {
	id, err := uuid.Parse(runID)
	if err != nil {
		return uuid.Nil, NewValidationError("run_id", "must be a UUID")
	}
	return id, nil
}
