// Package models holds the request and record types shared by the audit
// services and the HTTP API.
package models

import (
	"time"

	"github.com/codeready-toolchain/docmask/pkg/pii"
)

// RunStatus is the lifecycle state of a redaction run
type RunStatus string

const (
	RunStatusInProgress RunStatus = "in_progress"
	RunStatusCompleted  RunStatus = "completed"
	RunStatusFailed     RunStatus = "failed"
)

// RunMode names what kind of input a run processed
type RunMode string

const (
	// RunModeText is a plain-text redaction
	RunModeText RunMode = "text"
	// RunModeDocument is a page/token document producing directives
	RunModeDocument RunMode = "document"
)

// IsValid checks if the mode is valid
func (m RunMode) IsValid() bool {
	return m == RunModeText || m == RunModeDocument
}

// RedactionRun is one row of the audit ledger. It carries counts only,
// never document text.
type RedactionRun struct {
	ID             string         `json:"id"`
	Source         string         `json:"source"`
	Mode           RunMode        `json:"mode"`
	Status         RunStatus      `json:"status"`
	Categories     []string       `json:"categories"`
	PageCount      int            `json:"page_count"`
	DirectiveCount int            `json:"directive_count"`
	CategoryCounts map[string]int `json:"category_counts"`
	Error          string         `json:"error,omitempty"`
	StartedAt      time.Time      `json:"started_at"`
	CompletedAt    *time.Time     `json:"completed_at,omitempty"`
}

// CreateRunRequest contains fields for opening a run
type CreateRunRequest struct {
	Source     string          `json:"source"`
	Mode       RunMode         `json:"mode"`
	Categories pii.CategorySet `json:"-"`
}

// CompleteRunRequest carries the outcome of a successful run
type CompleteRunRequest struct {
	PageCount      int
	DirectiveCount int
	CategoryCounts map[pii.Category]int
}
