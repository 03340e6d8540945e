package api

import (
	"bytes"
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/codeready-toolchain/docmask/pkg/extract"
	"github.com/codeready-toolchain/docmask/pkg/masking"
	"github.com/codeready-toolchain/docmask/pkg/models"
	"github.com/codeready-toolchain/docmask/pkg/pii"
	"github.com/codeready-toolchain/docmask/pkg/redaction"
	"github.com/codeready-toolchain/docmask/pkg/version"
)

const (
	healthStatusHealthy   = "healthy"
	healthStatusUnhealthy = "unhealthy"
)

// healthHandler handles GET /health.
// The database is only checked when the audit ledger is enabled.
func (s *Server) healthHandler(c *gin.Context) error {
	resp := HealthResponse{
		Status:     healthStatusHealthy,
		Version:    version.Full(),
		Categories: s.redactor.Registry().Active().Strings(),
		Detector:   s.redactor.SourceName(),
	}

	code := http.StatusOK
	if s.dbClient != nil {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		dbHealth, err := s.dbClient.Health(ctx)
		resp.Database = dbHealth
		if err != nil {
			slog.Warn("Database health check failed", "error", err)
			resp.Status = healthStatusUnhealthy
			code = http.StatusServiceUnavailable
		}
	}

	c.JSON(code, resp)
	return nil
}

// classifyHandler handles POST /api/v1/classify.
func (s *Server) classifyHandler(c *gin.Context) error {
	var req ClassifyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		return NewHTTPError(http.StatusBadRequest, "invalid request body: "+err.Error())
	}

	registry := s.redactor.Registry()
	if len(req.Categories) > 0 {
		set, err := pii.ParseCategorySet(req.Categories)
		if err != nil {
			return NewHTTPError(http.StatusBadRequest, err.Error())
		}
		registry = pii.NewRegistry(set)
	}

	var resp ClassifyResponse
	if cat, ok := registry.Classify(req.Text); ok {
		name := cat.String()
		resp.Category = &name
		resp.Label = cat.Label()
	}
	c.JSON(http.StatusOK, resp)
	return nil
}

// maskHandler handles POST /api/v1/mask.
func (s *Server) maskHandler(c *gin.Context) error {
	var req MaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		return NewHTTPError(http.StatusBadRequest, "invalid request body: "+err.Error())
	}
	cat, err := pii.ParseCategory(req.Category)
	if err != nil {
		return NewHTTPError(http.StatusBadRequest, err.Error())
	}

	masked := masking.Mask(req.Text, cat)
	c.JSON(http.StatusOK, MaskResponse{Masked: masked, Changed: masking.Changed(req.Text, masked)})
	return nil
}

// redactTextHandler handles POST /api/v1/redact/text.
func (s *Server) redactTextHandler(c *gin.Context) error {
	var req RedactTextRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		return NewHTTPError(http.StatusBadRequest, "invalid request body: "+err.Error())
	}
	r, err := s.redactorFor(req.Categories)
	if err != nil {
		return err
	}

	source := req.Source
	if source == "" {
		source = "api"
	}
	ctx := c.Request.Context()
	runID := s.recorder.Start(ctx, source, models.RunModeText, r.Registry().Active())

	redacted, directives, err := r.RedactText(ctx, req.Text)
	if err != nil {
		s.recorder.Fail(ctx, runID, err)
		return err
	}
	s.recorder.Complete(ctx, runID, 1, redaction.CountByCategory(directives))

	if directives == nil {
		directives = []redaction.Directive{}
	}
	c.JSON(http.StatusOK, RedactTextResponse{RunID: runID, Redacted: redacted, Directives: directives})
	return nil
}

// redactDocumentHandler handles POST /api/v1/redact/document.
func (s *Server) redactDocumentHandler(c *gin.Context) error {
	var req RedactDocumentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		return NewHTTPError(http.StatusBadRequest, "invalid request body: "+err.Error())
	}
	doc, err := extract.DecodeTokens(bytes.NewReader(req.Document))
	if err != nil {
		return NewHTTPError(http.StatusBadRequest, err.Error())
	}
	r, err := s.redactorFor(req.Categories)
	if err != nil {
		return err
	}

	source := doc.Name
	if source == "" {
		source = "api"
	}
	ctx := c.Request.Context()
	runID := s.recorder.Start(ctx, source, models.RunModeDocument, r.Registry().Active())

	res, err := r.ProcessDocument(ctx, doc)
	if err != nil {
		s.recorder.Fail(ctx, runID, err)
		return err
	}
	s.recorder.Complete(ctx, runID, len(doc.Pages), res.Counts)

	resp := NewDocumentResponse(runID, res, r.RenderConfig())
	c.JSON(http.StatusOK, resp)
	return nil
}

// getRunHandler handles GET /api/v1/runs/:id.
func (s *Server) getRunHandler(c *gin.Context) error {
	if s.runs == nil {
		return errAuditDisabled
	}
	run, err := s.runs.GetRun(c.Request.Context(), c.Param("id"))
	if err != nil {
		return mapServiceError(err)
	}
	c.JSON(http.StatusOK, run)
	return nil
}

// listRunsHandler handles GET /api/v1/runs.
func (s *Server) listRunsHandler(c *gin.Context) error {
	if s.runs == nil {
		return errAuditDisabled
	}
	limit := 0
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			return NewHTTPError(http.StatusBadRequest, "invalid limit: "+raw)
		}
		limit = n
	}
	runs, err := s.runs.ListRuns(c.Request.Context(), limit)
	if err != nil {
		return mapServiceError(err)
	}
	c.JSON(http.StatusOK, RunListResponse{Runs: runs})
	return nil
}
