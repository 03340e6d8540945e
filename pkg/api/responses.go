package api

import (
	"github.com/codeready-toolchain/docmask/pkg/database"
	"github.com/codeready-toolchain/docmask/pkg/models"
	"github.com/codeready-toolchain/docmask/pkg/redaction"
)

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Error string `json:"error"`
}

// HealthResponse is returned by GET /health.
type HealthResponse struct {
	Status     string                 `json:"status"`
	Version    string                 `json:"version"`
	Categories []string               `json:"categories"`
	Detector   string                 `json:"detector"`
	Database   *database.HealthStatus `json:"database,omitempty"`
}

// ClassifyResponse is returned by POST /api/v1/classify. Category is null
// when the text is not PII.
type ClassifyResponse struct {
	Category *string `json:"category"`
	Label    string  `json:"label,omitempty"`
}

// MaskResponse is returned by POST /api/v1/mask.
type MaskResponse struct {
	Masked  string `json:"masked"`
	Changed bool   `json:"changed"`
}

// RedactTextResponse is returned by POST /api/v1/redact/text.
type RedactTextResponse struct {
	RunID      string                `json:"run_id,omitempty"`
	Redacted   string                `json:"redacted"`
	Directives []redaction.Directive `json:"directives"`
}

// PageResponse carries the directives and render instructions for one page.
type PageResponse struct {
	Number     int                           `json:"number"`
	Directives []redaction.Directive         `json:"directives"`
	Render     []redaction.RenderInstruction `json:"render"`
}

// RedactDocumentResponse is returned by POST /api/v1/redact/document.
type RedactDocumentResponse struct {
	RunID    string         `json:"run_id,omitempty"`
	Document string         `json:"document,omitempty"`
	Pages    []PageResponse `json:"pages"`
	Counts   map[string]int `json:"counts"`
	Total    int            `json:"total"`
}

// NewDocumentResponse converts a redaction result into its wire form with
// render instructions for every directive.
func NewDocumentResponse(runID string, res *redaction.Result, render redaction.RenderConfig) RedactDocumentResponse {
	resp := RedactDocumentResponse{
		RunID:    runID,
		Document: res.Document,
		Pages:    make([]PageResponse, len(res.Pages)),
		Counts:   make(map[string]int, len(res.Counts)),
		Total:    res.Total,
	}
	for i, p := range res.Pages {
		ds := p.Directives
		if ds == nil {
			ds = []redaction.Directive{}
		}
		resp.Pages[i] = PageResponse{
			Number:     p.Number,
			Directives: ds,
			Render:     render.Instructions(ds),
		}
	}
	for cat, n := range res.Counts {
		resp.Counts[cat.String()] = n
	}
	return resp
}

// RunListResponse is returned by GET /api/v1/runs.
type RunListResponse struct {
	Runs []*models.RedactionRun `json:"runs"`
}
