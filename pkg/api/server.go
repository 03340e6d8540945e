// Package api exposes classification, masking and redaction over HTTP.
package api

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/codeready-toolchain/docmask/pkg/database"
	"github.com/codeready-toolchain/docmask/pkg/pii"
	"github.com/codeready-toolchain/docmask/pkg/redaction"
	"github.com/codeready-toolchain/docmask/pkg/services"
)

// MaxBodyBytes caps the size of request bodies.
const MaxBodyBytes = 32 << 20

// RedactorFactory builds a redactor restricted to the given categories.
type RedactorFactory func(set pii.CategorySet) *redaction.Redactor

// Server is the HTTP API server.
type Server struct {
	redactor    *redaction.Redactor
	newRedactor RedactorFactory

	// Audit ledger. All nil when auditing is disabled.
	runs     *services.RunService
	recorder *services.Recorder
	dbClient *database.Client

	engine     *gin.Engine
	httpServer *http.Server
}

// NewServer creates the API server around the default redactor. newRedactor
// is used for requests that select their own categories; when nil those
// requests get a redactor over the local registry.
func NewServer(redactor *redaction.Redactor, newRedactor RedactorFactory) *Server {
	if newRedactor == nil {
		render := redactor.RenderConfig()
		newRedactor = func(set pii.CategorySet) *redaction.Redactor {
			return redaction.NewRedactor(redaction.WithCategories(set), redaction.WithRender(render))
		}
	}
	s := &Server{
		redactor:    redactor,
		newRedactor: newRedactor,
	}
	s.engine = s.setupRoutes()
	s.httpServer = &http.Server{
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

// SetAuditLedger enables run recording and the run endpoints.
func (s *Server) SetAuditLedger(dbClient *database.Client, runs *services.RunService) {
	s.dbClient = dbClient
	s.runs = runs
	s.recorder = services.NewRecorder(runs)
}

// Handler returns the HTTP handler, for tests and embedding.
func (s *Server) Handler() http.Handler {
	return s.engine
}

func (s *Server) setupRoutes() *gin.Engine {
	e := gin.New()
	e.Use(gin.Recovery(), requestLogger(), securityHeaders(), bodyLimit(MaxBodyBytes))

	e.GET("/health", handle(s.healthHandler))

	v1 := e.Group("/api/v1")
	v1.POST("/classify", handle(s.classifyHandler))
	v1.POST("/mask", handle(s.maskHandler))
	v1.POST("/redact/text", handle(s.redactTextHandler))
	v1.POST("/redact/document", handle(s.redactDocumentHandler))
	v1.GET("/runs", handle(s.listRunsHandler))
	v1.GET("/runs/:id", handle(s.getRunHandler))

	return e
}

// Start serves HTTP on addr until Shutdown is called. A Shutdown that runs
// first makes Start return nil without serving.
func (s *Server) Start(addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("http server: %w", err)
	}
	slog.Info("HTTP server listening", "addr", ln.Addr().String())
	if err := s.httpServer.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("http server: %w", err)
	}
	return nil
}

// Shutdown gracefully stops the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// redactorFor returns the default redactor, or a restricted one when the
// request names categories.
func (s *Server) redactorFor(names []string) (*redaction.Redactor, error) {
	if len(names) == 0 {
		return s.redactor, nil
	}
	set, err := pii.ParseCategorySet(names)
	if err != nil {
		return nil, NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return s.newRedactor(set), nil
}
